package auction

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/rokso/pf-auctions/core/types"
)

const (
	EventTypeAuctionCreated        = "auction.created"
	EventTypeAuctionStopped        = "auction.stopped"
	EventTypeAuctionWon            = "auction.won"
	EventTypeCollectionCreated     = "collection.created"
	EventTypeCollectionTransferred = "collection.transferred"
)

// AuctionCreated is emitted exactly once per successful CreateAuction.
type AuctionCreated struct {
	ID           uint64
	Auctioneer   [20]byte
	CollectionID uint64
}

func (*AuctionCreated) EventType() string { return EventTypeAuctionCreated }

func (e *AuctionCreated) Event() *types.Event {
	attrs := map[string]string{
		"id":         strconv.FormatUint(e.ID, 10),
		"auctioneer": hex.EncodeToString(e.Auctioneer[:]),
	}
	if e.CollectionID != 0 {
		attrs["collectionId"] = strconv.FormatUint(e.CollectionID, 10)
	}
	return &types.Event{Type: EventTypeAuctionCreated, Attributes: attrs}
}

// AuctionStopped is emitted when the payee cancels an open auction.
type AuctionStopped struct {
	ID    uint64
	Payee [20]byte
}

func (*AuctionStopped) EventType() string { return EventTypeAuctionStopped }

func (e *AuctionStopped) Event() *types.Event {
	return &types.Event{
		Type: EventTypeAuctionStopped,
		Attributes: map[string]string{
			"id":    strconv.FormatUint(e.ID, 10),
			"payee": hex.EncodeToString(e.Payee[:]),
		},
	}
}

// AuctionWon is emitted when a bid settles an auction.
type AuctionWon struct {
	ID            uint64
	Winner        [20]byte
	PaymentAsset  [20]byte
	WinningMarker uint64
	WinningPrice  *big.Int
}

func (*AuctionWon) EventType() string { return EventTypeAuctionWon }

func (e *AuctionWon) Event() *types.Event {
	price := e.WinningPrice
	if price == nil {
		price = big.NewInt(0)
	}
	return &types.Event{
		Type: EventTypeAuctionWon,
		Attributes: map[string]string{
			"id":            strconv.FormatUint(e.ID, 10),
			"winner":        hex.EncodeToString(e.Winner[:]),
			"paymentAsset":  hex.EncodeToString(e.PaymentAsset[:]),
			"winningMarker": strconv.FormatUint(e.WinningMarker, 10),
			"winningPrice":  price.String(),
		},
	}
}

// CollectionCreated is emitted exactly once per successful CreateCollection.
type CollectionCreated struct {
	ID    uint64
	Owner [20]byte
}

func (*CollectionCreated) EventType() string { return EventTypeCollectionCreated }

func (e *CollectionCreated) Event() *types.Event {
	return &types.Event{
		Type: EventTypeCollectionCreated,
		Attributes: map[string]string{
			"id":    strconv.FormatUint(e.ID, 10),
			"owner": hex.EncodeToString(e.Owner[:]),
		},
	}
}

// CollectionTransferred is emitted when collection ownership changes hands.
type CollectionTransferred struct {
	ID   uint64
	From [20]byte
	To   [20]byte
}

func (*CollectionTransferred) EventType() string { return EventTypeCollectionTransferred }

func (e *CollectionTransferred) Event() *types.Event {
	return &types.Event{
		Type: EventTypeCollectionTransferred,
		Attributes: map[string]string{
			"id":       strconv.FormatUint(e.ID, 10),
			"oldOwner": hex.EncodeToString(e.From[:]),
			"newOwner": hex.EncodeToString(e.To[:]),
		},
	}
}
