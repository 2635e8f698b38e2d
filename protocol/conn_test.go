package protocol

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartnagrale/auction-core/money"
)

func TestConn_SendRecvRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewConn(client)
	sc := NewConn(server)

	req := PlaceBidRequest{ItemID: 1, AgentID: 2000, Amount: money.New(150)}
	done := make(chan error, 1)
	go func() { done <- cc.Send(TagPlaceBid, req) }()

	env, err := sc.Recv()
	require.NoError(t, err)
	require.NoError(t, <-done)

	assert.Equal(t, TagPlaceBid, env.Tag)

	var got PlaceBidRequest
	require.NoError(t, Decode(env, &got))
	assert.Equal(t, req.ItemID, got.ItemID)
	assert.Equal(t, req.AgentID, got.AgentID)
	assert.True(t, req.Amount.Equal(got.Amount))
}

func TestConn_WritesAreSerialized(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	cc := NewConn(client)
	sc := NewConn(server)

	const n = 20
	for i := 0; i < n; i++ {
		go func() { _ = cc.Send(TagGetItems, GetItemsRequest{}) }()
	}

	for i := 0; i < n; i++ {
		env, err := sc.Recv()
		require.NoError(t, err)
		assert.Equal(t, TagGetItems, env.Tag)
	}
}

func TestValidate_RejectsMissingRequiredField(t *testing.T) {
	err := Validate(RegisterAuctionHouseRequest{Host: "", Port: 9000})
	require.Error(t, err)

	var protoErr *Error
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, KindValidation, protoErr.Kind)
}
