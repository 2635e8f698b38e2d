package protocol

// Tag identifies the shape of a frame's payload. Message handling is a
// dispatch table keyed on Tag, per spec.md §9's "Dynamic dispatch on
// message tags" design note, rather than a chain of type assertions.
type Tag string

const (
	// Agent/House -> Bank
	TagRegisterAgent         Tag = "REGISTER_AGENT"
	TagRegisterAgentResponse Tag = "REGISTER_AGENT_RESPONSE"

	TagRegisterAuctionHouse         Tag = "REGISTER_AUCTION_HOUSE"
	TagRegisterAuctionHouseResponse Tag = "REGISTER_AUCTION_HOUSE_RESPONSE"

	TagBlockFunds         Tag = "BLOCK_FUNDS"
	TagBlockFundsResponse Tag = "BLOCK_FUNDS_RESPONSE"

	TagUnblockFunds         Tag = "UNBLOCK_FUNDS"
	TagUnblockFundsResponse Tag = "UNBLOCK_FUNDS_RESPONSE"

	TagTransferFunds         Tag = "TRANSFER_FUNDS"
	TagTransferFundsResponse Tag = "TRANSFER_FUNDS_RESPONSE"

	TagGetAccountInfo         Tag = "GET_ACCOUNT_INFO"
	TagGetAccountInfoResponse Tag = "GET_ACCOUNT_INFO_RESPONSE"

	TagGetAuctionHouses         Tag = "GET_AUCTION_HOUSES"
	TagGetAuctionHousesResponse Tag = "GET_AUCTION_HOUSES_RESPONSE"

	TagDeregister         Tag = "DEREGISTER"
	TagDeregisterResponse Tag = "DEREGISTER_RESPONSE"

	// Agent -> House
	TagGetItems         Tag = "GET_ITEMS"
	TagGetItemsResponse Tag = "GET_ITEMS_RESPONSE"

	TagPlaceBid         Tag = "PLACE_BID"
	TagPlaceBidResponse Tag = "PLACE_BID_RESPONSE"

	TagConfirmWinner         Tag = "CONFIRM_WINNER"
	TagConfirmWinnerResponse Tag = "CONFIRM_WINNER_RESPONSE"

	// House -> Agent, asynchronous
	TagBidStatusNotification Tag = "BID_STATUS_NOTIFICATION"

	// generic
	TagErrorResponse Tag = "ERROR_RESPONSE"
)

// BidStatus is the status enum carried by BidStatusNotification.
type BidStatus string

const (
	StatusAccepted  BidStatus = "ACCEPTED"
	StatusOutbid    BidStatus = "OUTBID"
	StatusRejected  BidStatus = "REJECTED"
	StatusWinner    BidStatus = "WINNER"
	StatusItemSold  BidStatus = "ITEM_SOLD"
)

// AccountKind mirrors spec.md §3's Account.kind enum.
type AccountKind string

const (
	KindAgent        AccountKind = "AGENT"
	KindAuctionHouse AccountKind = "AUCTION_HOUSE"
)
