// Package core wires the auction engine to its state backend, the reference
// token ledger, and the counter source, and serialises concurrent callers
// onto the engine's single-threaded execution model.
package core

import (
	"math/big"
	"sync"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/rokso/pf-auctions/core/events"
	"github.com/rokso/pf-auctions/core/state"
	"github.com/rokso/pf-auctions/core/types"
	"github.com/rokso/pf-auctions/native/auction"
	"github.com/rokso/pf-auctions/native/token"
	"github.com/rokso/pf-auctions/storage"
)

// CustodianAddress derives the identity under which the engine holds escrowed
// balances on the given network.
func CustodianAddress(network string) [20]byte {
	digest := ethcrypto.Keccak256([]byte("pf-auctions/custodian/" + network))
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

// HeightCounter maps wall-clock time onto a monotonically increasing logical
// height: one unit per interval elapsed since genesis.
func HeightCounter(genesis time.Time, interval time.Duration) func() uint64 {
	if interval <= 0 {
		interval = time.Second
	}
	return func() uint64 {
		elapsed := time.Since(genesis)
		if elapsed < 0 {
			return 0
		}
		return uint64(elapsed / interval)
	}
}

// Node owns one engine instance and the shared mutex that funnels RPC
// goroutines through it one logical operation at a time.
type Node struct {
	mu      sync.Mutex
	engine  *auction.Engine
	ledger  *token.Ledger
	manager *state.Manager
	ring    *events.Ring
	counter func() uint64
}

// NewNode builds a node over the given store. The counter source defaults to
// unix seconds when nil; extra emitters (logging, metrics) are fanned out
// alongside the node's own event ring.
func NewNode(db storage.Database, network string, counter func() uint64, extra ...events.Emitter) (*Node, error) {
	manager, err := state.NewManager(db)
	if err != nil {
		return nil, err
	}
	node := &Node{
		ledger:  token.NewLedger(db),
		manager: manager,
		ring:    events.NewRing(0),
		counter: counter,
	}
	engine := auction.NewEngine()
	engine.SetState(manager)
	engine.SetAssets(node.ledger)
	engine.SetCustodian(CustodianAddress(network))
	engine.SetEmitter(events.NewMultiEmitter(append([]events.Emitter{node.ring}, extra...)...))
	if counter != nil {
		engine.SetCounterSource(counter)
	}
	node.engine = engine
	return node, nil
}

// Ledger exposes the reference token book for genesis funding.
func (n *Node) Ledger() *token.Ledger { return n.ledger }

// Height reports the current counter value.
func (n *Node) Height() uint64 {
	if n.counter == nil {
		return uint64(time.Now().Unix())
	}
	return n.counter()
}

// CreateAuction locks the bundle and registers a new auction for the creator.
func (n *Node) CreateAuction(cfg *auction.Config, creator [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.CreateAuction(cfg, creator)
}

// Bid settles an open auction at the current price on behalf of the bidder.
func (n *Node) Bid(id uint64, bidder [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.Bid(id, bidder)
}

// StopAuction cancels an open auction; only the payee may do so.
func (n *Node) StopAuction(id uint64, caller [20]byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.StopAuction(id, caller)
}

// GetAuction returns a copy of the auction record.
func (n *Node) GetAuction(id uint64) (*auction.Auction, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.GetAuction(id)
}

// GetCurrentPrice evaluates the auction's schedule at the live counter.
func (n *Node) GetCurrentPrice(id uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.GetCurrentPrice(id)
}

// TotalAuctions reports how many auctions were ever created.
func (n *Node) TotalAuctions() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.TotalAuctions()
}

// TotalCollections reports how many collections were ever created.
func (n *Node) TotalCollections() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.TotalCollections()
}

// CreateCollection registers an empty collection owned by the caller.
func (n *Node) CreateCollection(owner [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.CreateCollection(owner)
}

// TransferCollection reassigns collection ownership.
func (n *Node) TransferCollection(caller, newOwner [20]byte, id uint64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.TransferCollection(caller, newOwner, id)
}

// CollectionLength reports the membership count of a collection.
func (n *Node) CollectionLength(id uint64) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.CollectionLength(id)
}

// AuctionOfCollectionByIndex enumerates collection membership.
func (n *Node) AuctionOfCollectionByIndex(id, index uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.AuctionOfCollectionByIndex(id, index)
}

// AuctioneerGroupLength reports how many auctions an identity has created.
func (n *Node) AuctioneerGroupLength(auctioneer [20]byte) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.AuctioneerGroupLength(auctioneer)
}

// AuctionOfAuctioneerByIndex enumerates an auctioneer group.
func (n *Node) AuctionOfAuctioneerByIndex(auctioneer [20]byte, index uint64) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.engine.AuctionOfAuctioneerByIndex(auctioneer, index)
}

// ListEvents returns the retained event payloads, oldest first.
func (n *Node) ListEvents() []*types.Event {
	return n.ring.List()
}

// RegisterAsset records a new asset in the reference ledger.
func (n *Node) RegisterAsset(id [20]byte, meta token.Metadata) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Register(id, meta)
}

// MintAsset credits freshly issued units to a holder.
func (n *Node) MintAsset(caller, id, to [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Mint(caller, id, to, amount)
}

// ApproveAsset sets the amount a spender may pull from the holder. Sellers
// approve the engine custodian before creating an auction; bidders approve it
// for the payment pull.
func (n *Node) ApproveAsset(id, holder, spender [20]byte, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.Approve(id, holder, spender, amount)
}

// AssetBalance reports a holder's ledger balance.
func (n *Node) AssetBalance(id, holder [20]byte) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger.BalanceOf(id, holder)
}
