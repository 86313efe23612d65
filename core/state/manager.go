// Package state persists the auction engine's record arenas. Records are
// RLP-encoded under keccak-hashed keys in a key-value store; the in-memory
// maps are authoritative at runtime and are rebuilt from disk at startup.
package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rokso/pf-auctions/native/auction"
	"github.com/rokso/pf-auctions/storage"
)

var (
	auctionCountKey    = ethcrypto.Keccak256([]byte("auction:count"))
	collectionCountKey = ethcrypto.Keccak256([]byte("collection:count"))
	auctionPrefix      = []byte("auction:record:")
	collectionPrefix   = []byte("collection:record:")
)

func auctionKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return ethcrypto.Keccak256(auctionPrefix, buf[:])
}

func collectionKey(id uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	return ethcrypto.Keccak256(collectionPrefix, buf[:])
}

// Manager implements the engine's state surface. Auctioneer groups are
// derived data: they are rebuilt from the auction arena at load time and kept
// in memory only.
type Manager struct {
	mu sync.RWMutex
	db storage.Database

	auctions     map[uint64]*auction.Auction
	auctionCount uint64

	collections     map[uint64]*auction.Collection
	collectionCount uint64

	groups map[[20]byte][]uint64
}

// NewManager opens a manager over the given store, reloading every persisted
// record.
func NewManager(db storage.Database) (*Manager, error) {
	m := &Manager{
		db:          db,
		auctions:    make(map[uint64]*auction.Auction),
		collections: make(map[uint64]*auction.Collection),
		groups:      make(map[[20]byte][]uint64),
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) load() error {
	count, err := m.readCount(auctionCountKey)
	if err != nil {
		return err
	}
	for id := uint64(1); id <= count; id++ {
		data, err := m.db.Get(auctionKey(id))
		if err != nil {
			return fmt.Errorf("state: load auction %d: %w", id, err)
		}
		record := new(auction.Auction)
		if err := rlp.DecodeBytes(data, record); err != nil {
			return fmt.Errorf("state: decode auction %d: %w", id, err)
		}
		m.auctions[id] = record
		m.groups[record.Auctioneer] = append(m.groups[record.Auctioneer], id)
	}
	m.auctionCount = count

	count, err = m.readCount(collectionCountKey)
	if err != nil {
		return err
	}
	for id := uint64(1); id <= count; id++ {
		data, err := m.db.Get(collectionKey(id))
		if err != nil {
			return fmt.Errorf("state: load collection %d: %w", id, err)
		}
		record := new(auction.Collection)
		if err := rlp.DecodeBytes(data, record); err != nil {
			return fmt.Errorf("state: decode collection %d: %w", id, err)
		}
		m.collections[id] = record
	}
	m.collectionCount = count
	return nil
}

func (m *Manager) readCount(key []byte) (uint64, error) {
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("state: malformed counter")
	}
	return binary.BigEndian.Uint64(data), nil
}

func (m *Manager) writeCount(key []byte, count uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], count)
	return m.db.Put(key, buf[:])
}

func (m *Manager) persistAuction(record *auction.Auction) error {
	encoded, err := rlp.EncodeToBytes(record.Clone())
	if err != nil {
		return err
	}
	return m.db.Put(auctionKey(record.ID), encoded)
}

func (m *Manager) persistCollection(record *auction.Collection) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return err
	}
	return m.db.Put(collectionKey(record.ID), encoded)
}

// AuctionAppend assigns the next sequential id and stores the record. Ids are
// 1-based and never reused.
func (m *Manager) AuctionAppend(record *auction.Auction) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.auctionCount + 1
	stored := record.Clone()
	stored.ID = id
	if err := m.persistAuction(stored); err != nil {
		return 0, err
	}
	if err := m.writeCount(auctionCountKey, id); err != nil {
		return 0, err
	}
	m.auctions[id] = stored
	m.auctionCount = id
	record.ID = id
	return id, nil
}

// AuctionPut overwrites an existing record in place.
func (m *Manager) AuctionPut(record *auction.Auction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record == nil || record.ID == 0 || record.ID > m.auctionCount {
		return auction.ErrNoSuchAuction
	}
	stored := record.Clone()
	if err := m.persistAuction(stored); err != nil {
		return err
	}
	m.auctions[stored.ID] = stored
	return nil
}

// AuctionGet returns a copy of the record, if the id was ever issued.
func (m *Manager) AuctionGet(id uint64) (*auction.Auction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.auctions[id]
	if !ok {
		return nil, false
	}
	return record.Clone(), true
}

// AuctionCount reports how many auction ids have been issued.
func (m *Manager) AuctionCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.auctionCount
}

// CollectionAppend assigns the next sequential collection id and stores the
// record.
func (m *Manager) CollectionAppend(record *auction.Collection) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.collectionCount + 1
	stored := record.Clone()
	stored.ID = id
	if err := m.persistCollection(stored); err != nil {
		return 0, err
	}
	if err := m.writeCount(collectionCountKey, id); err != nil {
		return 0, err
	}
	m.collections[id] = stored
	m.collectionCount = id
	record.ID = id
	return id, nil
}

// CollectionPut overwrites an existing collection record.
func (m *Manager) CollectionPut(record *auction.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record == nil || record.ID == 0 || record.ID > m.collectionCount {
		return auction.ErrNotCollectionOwner
	}
	stored := record.Clone()
	if err := m.persistCollection(stored); err != nil {
		return err
	}
	m.collections[stored.ID] = stored
	return nil
}

// CollectionGet returns a copy of the collection record.
func (m *Manager) CollectionGet(id uint64) (*auction.Collection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.collections[id]
	if !ok {
		return nil, false
	}
	return record.Clone(), true
}

// CollectionCount reports how many collection ids have been issued.
func (m *Manager) CollectionCount() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collectionCount
}

// AuctioneerAppend files an auction id under its creator's group.
func (m *Manager) AuctioneerAppend(auctioneer [20]byte, auctionID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[auctioneer] = append(m.groups[auctioneer], auctionID)
	return nil
}

// AuctioneerGroup returns the creator's auction ids in creation order.
func (m *Manager) AuctioneerGroup(auctioneer [20]byte) []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]uint64(nil), m.groups[auctioneer]...)
}
