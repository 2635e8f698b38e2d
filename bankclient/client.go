// Package bankclient is the shared TCP client for talking to the Bank
// (spec.md §6), used by both an Auction House (to satisfy
// auctionhouse.BankFacade) and an Agent.
package bankclient

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/kartnagrale/auction-core/money"
	"github.com/kartnagrale/auction-core/protocol"
)

// defaultTimeout bounds a single request/response round trip (spec.md §5).
const defaultTimeout = 10 * time.Second

// Client is a single persistent connection to the Bank. The Bank handles
// one connection's requests strictly in order (bank.Server.handleConn),
// so a call mutex that serializes a full send-then-receive pair per
// request is enough to keep replies correctly matched to callers; no
// per-request correlation id is needed.
type Client struct {
	conn *protocol.Conn
	mu   sync.Mutex
}

// Dial connects to the Bank at addr.
func Dial(addr string) (*Client, error) {
	nc, err := net.DialTimeout("tcp", addr, defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("bankclient: dial %s: %w", addr, err)
	}
	return &Client{conn: protocol.NewConn(nc)}, nil
}

// call sends req under tag, blocks for the matching response tag, and
// decodes it into resp. Held under mu for the whole round trip.
func (c *Client) call(reqTag Tag, req any, respTag Tag, resp any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.Send(protocol.Tag(reqTag), req); err != nil {
		return err
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(defaultTimeout)); err != nil {
		return err
	}
	env, err := c.conn.Recv()
	if err != nil {
		return err
	}
	if env.Tag == protocol.TagErrorResponse {
		var errResp protocol.SuccessResponse
		if decErr := protocol.Decode(env, &errResp); decErr == nil {
			return fmt.Errorf("bankclient: %s", errResp.Message)
		}
		return fmt.Errorf("bankclient: request rejected")
	}
	if env.Tag != protocol.Tag(respTag) {
		return fmt.Errorf("bankclient: expected %s, got %s", respTag, env.Tag)
	}
	return protocol.Decode(env, resp)
}

// Tag is a local alias so call sites read naturally; it is just protocol.Tag.
type Tag = protocol.Tag

// RegisterAgent registers a new Agent account and returns its id plus the
// currently known Auction Houses.
func (c *Client) RegisterAgent(name string, initial money.Amount) (int64, []protocol.HouseInfo, error) {
	var resp protocol.RegisterAgentResponse
	err := c.call(protocol.TagRegisterAgent, protocol.RegisterAgentRequest{Name: name, InitialBalance: initial},
		protocol.TagRegisterAgentResponse, &resp)
	if err != nil {
		return 0, nil, err
	}
	if !resp.Success {
		return 0, nil, fmt.Errorf("bankclient: register agent: %s", resp.Message)
	}
	return resp.AccountID, resp.Houses, nil
}

// RegisterAuctionHouse registers a new Auction House and returns its
// house id and bank account id.
func (c *Client) RegisterAuctionHouse(host string, port int) (houseID, accountID int64, err error) {
	var resp protocol.RegisterAuctionHouseResponse
	err = c.call(protocol.TagRegisterAuctionHouse, protocol.RegisterAuctionHouseRequest{Host: host, Port: port},
		protocol.TagRegisterAuctionHouseResponse, &resp)
	if err != nil {
		return 0, 0, err
	}
	if !resp.Success {
		return 0, 0, fmt.Errorf("bankclient: register auction house: %s", resp.Message)
	}
	return resp.HouseID, resp.AccountID, nil
}

func (c *Client) BlockFunds(accountID int64, amount money.Amount) error {
	var resp protocol.SuccessResponse
	err := c.call(protocol.TagBlockFunds, protocol.BlockFundsRequest{AccountID: accountID, Amount: amount},
		protocol.TagBlockFundsResponse, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("bankclient: block funds: %s", resp.Message)
	}
	return nil
}

func (c *Client) UnblockFunds(accountID int64, amount money.Amount) error {
	var resp protocol.SuccessResponse
	err := c.call(protocol.TagUnblockFunds, protocol.UnblockFundsRequest{AccountID: accountID, Amount: amount},
		protocol.TagUnblockFundsResponse, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("bankclient: unblock funds: %s", resp.Message)
	}
	return nil
}

func (c *Client) TransferFunds(fromID, toID int64, amount money.Amount) error {
	var resp protocol.SuccessResponse
	err := c.call(protocol.TagTransferFunds, protocol.TransferFundsRequest{FromID: fromID, ToID: toID, Amount: amount},
		protocol.TagTransferFundsResponse, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("bankclient: transfer funds: %s", resp.Message)
	}
	return nil
}

// AccountInfo mirrors bank.Snapshot for callers outside the bank package.
type AccountInfo struct {
	Total     money.Amount
	Available money.Amount
	Blocked   money.Amount
}

func (c *Client) GetAccountInfo(accountID int64) (AccountInfo, error) {
	var resp protocol.GetAccountInfoResponse
	err := c.call(protocol.TagGetAccountInfo, protocol.GetAccountInfoRequest{AccountID: accountID},
		protocol.TagGetAccountInfoResponse, &resp)
	if err != nil {
		return AccountInfo{}, err
	}
	if !resp.Success {
		return AccountInfo{}, fmt.Errorf("bankclient: get account info: %s", resp.Message)
	}
	return AccountInfo{Total: resp.Total, Available: resp.Available, Blocked: resp.Blocked}, nil
}

func (c *Client) GetAuctionHouses() ([]protocol.HouseInfo, error) {
	var resp protocol.GetAuctionHousesResponse
	err := c.call(protocol.TagGetAuctionHouses, protocol.GetAuctionHousesRequest{},
		protocol.TagGetAuctionHousesResponse, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("bankclient: get auction houses: %s", resp.Message)
	}
	return resp.Houses, nil
}

func (c *Client) Deregister(accountID int64, kind protocol.AccountKind) error {
	var resp protocol.SuccessResponse
	err := c.call(protocol.TagDeregister, protocol.DeregisterRequest{AccountID: accountID, Kind: kind},
		protocol.TagDeregisterResponse, &resp)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("bankclient: deregister: %s", resp.Message)
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}
