package auction

import (
	"fmt"
	"math/big"
)

// Status describes the lifecycle position of an auction record. An auction is
// Open from creation until exactly one terminal transition: Stopped when the
// payee cancels it, Won when a bidder settles it.
type Status uint8

const (
	StatusOpen Status = iota
	StatusStopped
	StatusWon
)

// String returns the canonical lowercase name used in events and RPC payloads.
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusStopped:
		return "stopped"
	case StatusWon:
		return "won"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Lot is a single escrowed holding: an asset identifier and the amount locked
// under the auction.
type Lot struct {
	Asset  [20]byte
	Amount *big.Int
}

// Config is the caller-supplied definition of an auction. It is validated once
// at creation and never mutated afterwards.
type Config struct {
	// Ceiling is the price at the start marker, Floor the price at and past
	// the end marker. Ceiling must be at least Floor.
	Ceiling *big.Int
	Floor   *big.Int
	// CollectionID optionally files the auction under an owned collection.
	// Zero means no collection.
	CollectionID uint64
	// PaymentAsset is the asset a winning bidder pays with; Payee receives
	// the payment directly and is the only identity allowed to stop the
	// auction.
	PaymentAsset [20]byte
	Payee        [20]byte
	// EndMarker is the counter value at which the price reaches Floor. It
	// must be strictly greater than the counter value at creation.
	EndMarker uint64
	// Lots is the non-empty ordered bundle escrowed by the engine until the
	// auction settles or is stopped.
	Lots []Lot
}

// Auction is the canonical record of one descending-price auction. Records are
// append-only: after creation only the terminal fields (Stopped, Winner,
// WinningMarker, WinningPrice) are written, at most once.
type Auction struct {
	ID         uint64
	Auctioneer [20]byte

	Ceiling      *big.Int
	Floor        *big.Int
	CollectionID uint64
	PaymentAsset [20]byte
	Payee        [20]byte
	StartMarker  uint64
	EndMarker    uint64
	Lots         []Lot

	// AbsoluteDecay is the fixed-point decay rate precomputed at creation and
	// used for every price query of this auction.
	AbsoluteDecay *big.Int

	Stopped       bool
	Winner        [20]byte
	WinningMarker uint64
	WinningPrice  *big.Int
}

// Status derives the lifecycle state from the terminal fields.
func (a *Auction) Status() Status {
	switch {
	case a == nil || !a.Stopped:
		return StatusOpen
	case a.Winner != ([20]byte{}):
		return StatusWon
	default:
		return StatusStopped
	}
}

// Clone returns a deep copy so callers can never mutate a stored record.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Ceiling = cloneBigInt(a.Ceiling)
	clone.Floor = cloneBigInt(a.Floor)
	clone.AbsoluteDecay = cloneBigInt(a.AbsoluteDecay)
	if a.WinningPrice != nil {
		clone.WinningPrice = new(big.Int).Set(a.WinningPrice)
	}
	clone.Lots = cloneLots(a.Lots)
	return &clone
}

// Collection is an owned grouping handle. Membership is append-only and keeps
// auction creation order; ownership transfer never touches membership.
type Collection struct {
	ID      uint64
	Owner   [20]byte
	Members []uint64
}

// Clone returns a deep copy of the collection record.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Members = append([]uint64(nil), c.Members...)
	return &clone
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func cloneLots(lots []Lot) []Lot {
	if lots == nil {
		return nil
	}
	out := make([]Lot, len(lots))
	for i, lot := range lots {
		out[i] = Lot{Asset: lot.Asset, Amount: cloneBigInt(lot.Amount)}
	}
	return out
}

// SanitizeConfig validates a caller-supplied auction definition against the
// rules that do not depend on engine state. The current counter value is
// needed to check the end marker.
func SanitizeConfig(cfg *Config, currentMarker uint64) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if cfg.Ceiling == nil || cfg.Floor == nil || cfg.Ceiling.Sign() < 0 || cfg.Floor.Sign() < 0 {
		return fmt.Errorf("%w: ceiling and floor must be non-negative", ErrInvalidConfig)
	}
	if cfg.Ceiling.Cmp(cfg.Floor) < 0 {
		return fmt.Errorf("%w: ceiling below floor", ErrInvalidConfig)
	}
	if cfg.Payee == ([20]byte{}) {
		return fmt.Errorf("%w: payee required", ErrInvalidConfig)
	}
	if cfg.EndMarker <= currentMarker {
		return fmt.Errorf("%w: end marker %d not beyond current %d", ErrInvalidConfig, cfg.EndMarker, currentMarker)
	}
	if len(cfg.Lots) == 0 {
		return fmt.Errorf("%w: empty bundle", ErrInvalidConfig)
	}
	for i, lot := range cfg.Lots {
		if lot.Amount == nil || lot.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: lot %d amount must be positive", ErrInvalidConfig, i)
		}
	}
	return nil
}
