package protocol

import "github.com/kartnagrale/auction-core/money"

// HouseInfo is an AuctionHouseRegistration as seen over the wire (spec.md §3).
type HouseInfo struct {
	HouseID  int64  `json:"house_id"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	AccountID int64 `json:"account_id"`
}

// ItemView is an AuctionItem as seen over the wire (spec.md §6). CurrentBidder
// of -1 encodes "none". AuctionEndTimeMillis of 0 means "no bids yet".
type ItemView struct {
	HouseID             int64         `json:"house_id"`
	ItemID              int64         `json:"item_id"`
	Description         string        `json:"description"`
	MinimumBid          money.Amount  `json:"minimum_bid"`
	CurrentBid          money.Amount  `json:"current_bid"`
	CurrentBidder       int64         `json:"current_bidder"`
	AuctionEndTimeMillis int64        `json:"auction_end_time_millis"`
}

// --- Bank request/reply payloads ---

type RegisterAgentRequest struct {
	Name           string       `json:"name" validate:"required"`
	InitialBalance money.Amount `json:"initial_balance"`
}

type RegisterAgentResponse struct {
	Success   bool        `json:"success"`
	AccountID int64       `json:"account_id"`
	Message   string      `json:"message"`
	Houses    []HouseInfo `json:"houses"`
}

type RegisterAuctionHouseRequest struct {
	Host string `json:"host" validate:"required"`
	Port int    `json:"port" validate:"required,gt=0"`
}

type RegisterAuctionHouseResponse struct {
	Success   bool   `json:"success"`
	HouseID   int64  `json:"house_id"`
	AccountID int64  `json:"account_id"`
	Message   string `json:"message"`
}

type BlockFundsRequest struct {
	AccountID int64        `json:"account_id"`
	Amount    money.Amount `json:"amount"`
}

type UnblockFundsRequest struct {
	AccountID int64        `json:"account_id"`
	Amount    money.Amount `json:"amount"`
}

// SuccessResponse is the generic reply shape for operations with no
// extra data beyond success/message (BLOCK_FUNDS, UNBLOCK_FUNDS,
// DEREGISTER, CONFIRM_WINNER).
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type TransferFundsRequest struct {
	FromID int64        `json:"from_id"`
	ToID   int64        `json:"to_id"`
	Amount money.Amount `json:"amount"`
}

type GetAccountInfoRequest struct {
	AccountID int64 `json:"account_id"`
}

type GetAccountInfoResponse struct {
	Success   bool         `json:"success"`
	Total     money.Amount `json:"total"`
	Available money.Amount `json:"available"`
	Blocked   money.Amount `json:"blocked"`
	Message   string       `json:"message"`
}

type GetAuctionHousesRequest struct{}

type GetAuctionHousesResponse struct {
	Success bool        `json:"success"`
	Houses  []HouseInfo `json:"houses"`
	Message string      `json:"message"`
}

type DeregisterRequest struct {
	AccountID int64       `json:"account_id"`
	Kind      AccountKind `json:"kind" validate:"required,oneof=AGENT AUCTION_HOUSE"`
}

// --- Auction House request/reply payloads ---

type GetItemsRequest struct{}

type GetItemsResponse struct {
	Success bool       `json:"success"`
	Items   []ItemView `json:"items"`
	Message string     `json:"message"`
}

type PlaceBidRequest struct {
	ItemID  int64        `json:"item_id"`
	AgentID int64        `json:"agent_id"`
	Amount  money.Amount `json:"amount"`
}

type PlaceBidResponse struct {
	Success bool         `json:"success"`
	Status  string       `json:"status"` // ACCEPTED | REJECTED
	Message string       `json:"message"`
	Amount  money.Amount `json:"amount"`
}

type ConfirmWinnerRequest struct {
	ItemID  int64 `json:"item_id"`
	AgentID int64 `json:"agent_id"`
}

// --- asynchronous notification, House -> Agent ---

type BidStatusNotification struct {
	ItemID          int64        `json:"item_id"`
	Status          BidStatus    `json:"status"`
	Message         string       `json:"message"`
	FinalPrice      money.Amount `json:"final_price"`
	HouseAccountID  int64        `json:"house_account_id"`
	ItemDescription string       `json:"item_description"`
}
