package auction

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rokso/pf-auctions/core/events"
	"github.com/rokso/pf-auctions/native/token"
)

// engineState is the persistence surface the registry runs against. Getters
// must return independent copies so the engine can stage mutations before
// committing them with a Put.
type engineState interface {
	AuctionAppend(*Auction) (uint64, error)
	AuctionPut(*Auction) error
	AuctionGet(id uint64) (*Auction, bool)
	AuctionCount() uint64
	CollectionAppend(*Collection) (uint64, error)
	CollectionPut(*Collection) error
	CollectionGet(id uint64) (*Collection, bool)
	CollectionCount() uint64
	AuctioneerAppend(auctioneer [20]byte, auctionID uint64) error
	AuctioneerGroup(auctioneer [20]byte) []uint64
}

// Engine is the descending-price auction registry. It owns the canonical
// auction and collection records, custodies escrowed bundles through the
// asset registry, and serialises every mutating entry point behind a
// reentrancy guard.
//
// The engine is single-threaded: one logical operation commits or fully
// rolls back before the next begins. The guard exists for the untrusted
// asset boundary, which may call back into the engine mid-operation.
type Engine struct {
	state     engineState
	escrow    escrowLedger
	emitter   events.Emitter
	guard     reentrancyGuard
	counterFn func() uint64
}

// NewEngine creates an engine with a no-op emitter and a wall-clock counter.
// Callers override the pieces via the Set methods before use.
func NewEngine() *Engine {
	return &Engine{
		emitter:   events.NoopEmitter{},
		counterFn: func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetAssets configures the asset registry the escrow ledger transfers
// through.
func (e *Engine) SetAssets(assets token.Registry) { e.escrow.assets = assets }

// SetCustodian configures the identity under which the engine holds escrowed
// balances.
func (e *Engine) SetCustodian(addr [20]byte) { e.escrow.custodian = addr }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetCounterSource overrides the monotonic counter the engine reads for
// schedule evaluation. Primarily intended for tests and for daemons that map
// the counter onto a logical block height.
func (e *Engine) SetCounterSource(counter func() uint64) {
	if counter == nil {
		e.counterFn = func() uint64 { return uint64(time.Now().Unix()) }
		return
	}
	e.counterFn = counter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) counter() uint64 {
	if e == nil || e.counterFn == nil {
		return uint64(time.Now().Unix())
	}
	return e.counterFn()
}

// CreateAuction validates the config, locks the bundle into custody, and
// appends a new open auction record with the next sequential id. The record
// is filed under the configured collection (owner-checked) and under the
// creator's auctioneer group.
func (e *Engine) CreateAuction(cfg *Config, creator [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if err := e.guard.enter(); err != nil {
		return 0, err
	}
	defer e.guard.exit()

	now := e.counter()
	if err := SanitizeConfig(cfg, now); err != nil {
		return 0, err
	}
	if cfg.CollectionID != 0 {
		col, ok := e.state.CollectionGet(cfg.CollectionID)
		if !ok || col.Owner != creator {
			return 0, ErrNotCollectionOwner
		}
	}

	lots := cloneLots(cfg.Lots)
	if err := e.escrow.lock(creator, lots); err != nil {
		return 0, err
	}

	record := &Auction{
		Auctioneer:    creator,
		Ceiling:       cloneBigInt(cfg.Ceiling),
		Floor:         cloneBigInt(cfg.Floor),
		CollectionID:  cfg.CollectionID,
		PaymentAsset:  cfg.PaymentAsset,
		Payee:         cfg.Payee,
		StartMarker:   now,
		EndMarker:     cfg.EndMarker,
		Lots:          lots,
		AbsoluteDecay: absoluteDecay(cfg.Ceiling, cfg.Floor, now, cfg.EndMarker),
	}
	id, err := e.state.AuctionAppend(record)
	if err != nil {
		return 0, errors.Join(fmt.Errorf("auction: store record: %w", err), e.escrow.release(creator, lots))
	}
	if cfg.CollectionID != 0 {
		col, _ := e.state.CollectionGet(cfg.CollectionID)
		col.Members = append(col.Members, id)
		if err := e.state.CollectionPut(col); err != nil {
			return 0, errors.Join(fmt.Errorf("auction: index collection: %w", err), e.tombstone(record))
		}
	}
	if err := e.state.AuctioneerAppend(creator, id); err != nil {
		return 0, errors.Join(fmt.Errorf("auction: index auctioneer: %w", err), e.tombstone(record))
	}
	e.emit(&AuctionCreated{ID: id, Auctioneer: creator, CollectionID: cfg.CollectionID})
	return id, nil
}

// tombstone closes out a freshly appended record after an index write failed:
// the bundle returns to the creator and the record is stored as stopped so the
// issued id can never be bid on.
func (e *Engine) tombstone(record *Auction) error {
	var errs []error
	if err := e.escrow.release(record.Auctioneer, record.Lots); err != nil {
		errs = append(errs, err)
	}
	record.Stopped = true
	if err := e.state.AuctionPut(record); err != nil {
		errs = append(errs, fmt.Errorf("auction: store record: %w", err))
	}
	return errors.Join(errs...)
}

// Bid settles an open auction at the current schedule price. The bidder pays
// the payee directly in the payment asset, the escrowed bundle moves to the
// bidder, and the record transitions to Won. A failed leg aborts the bid and
// compensates the legs that already ran, so an aborted bid leaves balances
// and the record as they were.
func (e *Engine) Bid(id uint64, bidder [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if bidder == ([20]byte{}) {
		return nil, ErrZeroAddress
	}
	if err := e.guard.enter(); err != nil {
		return nil, err
	}
	defer e.guard.exit()

	record, ok := e.state.AuctionGet(id)
	if !ok {
		return nil, ErrNoSuchAuction
	}
	if record.Status() != StatusOpen {
		return nil, ErrAlreadySettled
	}

	now := e.counter()
	price := priceAt(record.AbsoluteDecay, record.Ceiling, record.Floor, record.StartMarker, record.EndMarker, now)
	paid := false
	if price.Sign() > 0 {
		asset, err := e.escrow.asset(record.PaymentAsset)
		if err != nil {
			return nil, err
		}
		if _, err := asset.TransferFrom(e.escrow.custodian, bidder, record.Payee, price); err != nil {
			return nil, fmt.Errorf("auction: payment transfer: %w", err)
		}
		paid = true
	}
	// Every leg after the payment must compensate it on failure so an
	// aborted bid never leaves the payee paid.
	refund := func() error {
		if !paid {
			return nil
		}
		asset, err := e.escrow.asset(record.PaymentAsset)
		if err != nil {
			return err
		}
		if _, err := asset.Transfer(record.Payee, bidder, price); err != nil {
			return fmt.Errorf("auction: refund payment: %w", err)
		}
		return nil
	}
	if err := e.escrow.release(bidder, record.Lots); err != nil {
		return nil, errors.Join(err, refund())
	}

	record.Stopped = true
	record.Winner = bidder
	record.WinningMarker = now
	record.WinningPrice = price
	if err := e.state.AuctionPut(record); err != nil {
		err = fmt.Errorf("auction: store record: %w", err)
		return nil, errors.Join(err, e.escrow.recall(bidder, record.Lots), refund())
	}
	e.emit(&AuctionWon{ID: id, Winner: bidder, PaymentAsset: record.PaymentAsset, WinningMarker: now, WinningPrice: price})
	return price, nil
}

// StopAuction cancels an open auction and returns the bundle to the payee.
// Only the configured payee may stop an auction.
func (e *Engine) StopAuction(id uint64, caller [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()

	record, ok := e.state.AuctionGet(id)
	if !ok {
		return ErrNoSuchAuction
	}
	if record.Status() != StatusOpen {
		return ErrAlreadySettled
	}
	if caller != record.Payee {
		return ErrNotAuthorized
	}
	if err := e.escrow.release(record.Payee, record.Lots); err != nil {
		return err
	}

	record.Stopped = true
	if err := e.state.AuctionPut(record); err != nil {
		err = fmt.Errorf("auction: store record: %w", err)
		return errors.Join(err, e.escrow.recall(record.Payee, record.Lots))
	}
	e.emit(&AuctionStopped{ID: id, Payee: record.Payee})
	return nil
}

// GetAuction returns a copy of the auction record.
func (e *Engine) GetAuction(id uint64) (*Auction, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok := e.state.AuctionGet(id)
	if !ok {
		return nil, ErrNoSuchAuction
	}
	return record, nil
}

// GetCurrentPrice evaluates the auction's schedule at the live counter value.
// Past the end marker the price stays at the floor for as long as the auction
// remains open; there is no auto-expiry.
func (e *Engine) GetCurrentPrice(id uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, ok := e.state.AuctionGet(id)
	if !ok {
		return nil, ErrNoSuchAuction
	}
	return priceAt(record.AbsoluteDecay, record.Ceiling, record.Floor, record.StartMarker, record.EndMarker, e.counter()), nil
}

// TotalAuctions reports how many auctions have ever been created.
func (e *Engine) TotalAuctions() uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	return e.state.AuctionCount()
}

// TotalCollections reports how many collections have ever been created.
func (e *Engine) TotalCollections() uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	return e.state.CollectionCount()
}

// CreateCollection registers a new empty collection owned by the caller.
func (e *Engine) CreateCollection(owner [20]byte) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	id, err := e.state.CollectionAppend(&Collection{Owner: owner})
	if err != nil {
		return 0, fmt.Errorf("auction: store collection: %w", err)
	}
	e.emit(&CollectionCreated{ID: id, Owner: owner})
	return id, nil
}

// TransferCollection reassigns collection ownership. Membership is untouched.
func (e *Engine) TransferCollection(caller, newOwner [20]byte, id uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	col, ok := e.state.CollectionGet(id)
	if !ok || col.Owner != caller {
		return ErrNotCollectionOwner
	}
	col.Owner = newOwner
	if err := e.state.CollectionPut(col); err != nil {
		return fmt.Errorf("auction: store collection: %w", err)
	}
	e.emit(&CollectionTransferred{ID: id, From: caller, To: newOwner})
	return nil
}

// CollectionLength reports the number of auctions filed under a collection.
// Unissued collection ids have length zero.
func (e *Engine) CollectionLength(id uint64) uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	col, ok := e.state.CollectionGet(id)
	if !ok {
		return 0
	}
	return uint64(len(col.Members))
}

// AuctionOfCollectionByIndex returns the auction id at the 0-based position
// in a collection's insertion-ordered membership.
func (e *Engine) AuctionOfCollectionByIndex(id, index uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	col, ok := e.state.CollectionGet(id)
	if !ok || index >= uint64(len(col.Members)) {
		return 0, ErrIndexOutOfRange
	}
	return col.Members[index], nil
}

// AuctioneerGroupLength reports how many auctions the given identity has
// created, regardless of collection membership.
func (e *Engine) AuctioneerGroupLength(auctioneer [20]byte) uint64 {
	if e == nil || e.state == nil {
		return 0
	}
	return uint64(len(e.state.AuctioneerGroup(auctioneer)))
}

// AuctionOfAuctioneerByIndex returns the auction id at the 0-based position
// in the creator's insertion-ordered group.
func (e *Engine) AuctionOfAuctioneerByIndex(auctioneer [20]byte, index uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	group := e.state.AuctioneerGroup(auctioneer)
	if index >= uint64(len(group)) {
		return 0, ErrIndexOutOfRange
	}
	return group[index], nil
}
