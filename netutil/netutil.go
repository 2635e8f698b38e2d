// Package netutil resolves the address an Auction House advertises to
// the Bank when it registers itself (spec.md §4.6).
package netutil

import (
	"fmt"
	"net"
)

// AdvertiseAddress picks the host to hand to Bank.RegisterAuctionHouse
// when the house was told to bind to a wildcard address. If bindHost is
// already a concrete, non-wildcard address, it is returned unchanged.
// Otherwise this selects the first non-loopback, non-link-local IPv4
// address among the host's interfaces (spec.md §4.6, §9 Open Question 4).
func AdvertiseAddress(bindHost string) (string, error) {
	if bindHost != "" && bindHost != "0.0.0.0" && bindHost != "::" {
		return bindHost, nil
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", fmt.Errorf("netutil: list interface addresses: %w", err)
	}

	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue // skip IPv6; the wire protocol only ever carries IPv4 hosts here
		}
		if ip4.IsLoopback() || ip4.IsLinkLocalUnicast() {
			continue
		}
		return ip4.String(), nil
	}

	return "", fmt.Errorf("netutil: no non-loopback, non-link-local IPv4 address found")
}
