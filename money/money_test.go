package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequirePositive(t *testing.T) {
	assert.NoError(t, RequirePositive(New(1)))
	assert.ErrorIs(t, RequirePositive(Zero), ErrNotPositive)
	assert.ErrorIs(t, RequirePositive(New(-5)), ErrNotPositive)
}

func TestParse(t *testing.T) {
	amt, err := Parse("150.00")
	require.NoError(t, err)
	assert.True(t, amt.Equal(New(150)))

	_, err = Parse("not-a-number")
	assert.Error(t, err)
}
