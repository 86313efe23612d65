package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rokso/pf-auctions/native/auction"
	"github.com/rokso/pf-auctions/storage"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func sampleAuction(neer byte) *auction.Auction {
	return &auction.Auction{
		Auctioneer:    addr(neer),
		Ceiling:       big.NewInt(200),
		Floor:         big.NewInt(100),
		PaymentAsset:  addr(0xB0),
		Payee:         addr(neer),
		StartMarker:   10,
		EndMarker:     20,
		Lots:          []auction.Lot{{Asset: addr(0xA0), Amount: big.NewInt(5)}},
		AbsoluteDecay: big.NewInt(10_000_000_000_000_000),
	}
}

func TestAppendAssignsSequentialIDs(t *testing.T) {
	m, err := NewManager(storage.NewMemDB())
	require.NoError(t, err)

	for want := uint64(1); want <= 3; want++ {
		record := sampleAuction(0x01)
		id, err := m.AuctionAppend(record)
		require.NoError(t, err)
		require.Equal(t, want, id)
		require.Equal(t, want, record.ID)
	}
	require.Equal(t, uint64(3), m.AuctionCount())
}

func TestGetReturnsCopies(t *testing.T) {
	m, err := NewManager(storage.NewMemDB())
	require.NoError(t, err)
	id, err := m.AuctionAppend(sampleAuction(0x01))
	require.NoError(t, err)

	first, ok := m.AuctionGet(id)
	require.True(t, ok)
	first.Ceiling.SetInt64(999)
	first.Lots[0].Amount.SetInt64(999)

	second, ok := m.AuctionGet(id)
	require.True(t, ok)
	require.Zero(t, second.Ceiling.Cmp(big.NewInt(200)))
	require.Zero(t, second.Lots[0].Amount.Cmp(big.NewInt(5)))
}

func TestPutRejectsUnissuedIDs(t *testing.T) {
	m, err := NewManager(storage.NewMemDB())
	require.NoError(t, err)

	record := sampleAuction(0x01)
	record.ID = 1
	require.ErrorIs(t, m.AuctionPut(record), auction.ErrNoSuchAuction)
	record.ID = 0
	require.ErrorIs(t, m.AuctionPut(record), auction.ErrNoSuchAuction)
}

func TestReloadFromStore(t *testing.T) {
	db := storage.NewMemDB()
	m, err := NewManager(db)
	require.NoError(t, err)

	aliceID, err := m.AuctionAppend(sampleAuction(0x01))
	require.NoError(t, err)
	bobID, err := m.AuctionAppend(sampleAuction(0x02))
	require.NoError(t, err)
	alice2ID, err := m.AuctionAppend(sampleAuction(0x01))
	require.NoError(t, err)

	won, ok := m.AuctionGet(bobID)
	require.True(t, ok)
	won.Stopped = true
	won.Winner = addr(0x03)
	won.WinningMarker = 15
	won.WinningPrice = big.NewInt(150)
	require.NoError(t, m.AuctionPut(won))

	col := &auction.Collection{Owner: addr(0x01), Members: []uint64{aliceID, alice2ID}}
	colID, err := m.CollectionAppend(col)
	require.NoError(t, err)

	reloaded, err := NewManager(db)
	require.NoError(t, err)

	require.Equal(t, uint64(3), reloaded.AuctionCount())
	require.Equal(t, uint64(1), reloaded.CollectionCount())

	record, ok := reloaded.AuctionGet(bobID)
	require.True(t, ok)
	require.Equal(t, auction.StatusWon, record.Status())
	require.Equal(t, addr(0x03), record.Winner)
	require.Equal(t, uint64(15), record.WinningMarker)
	require.Zero(t, record.WinningPrice.Cmp(big.NewInt(150)))
	require.Zero(t, record.Lots[0].Amount.Cmp(big.NewInt(5)))

	loadedCol, ok := reloaded.CollectionGet(colID)
	require.True(t, ok)
	require.Equal(t, addr(0x01), loadedCol.Owner)
	require.Equal(t, []uint64{aliceID, alice2ID}, loadedCol.Members)

	// Auctioneer groups are rebuilt from the auction arena, in id order.
	require.Equal(t, []uint64{aliceID, alice2ID}, reloaded.AuctioneerGroup(addr(0x01)))
	require.Equal(t, []uint64{bobID}, reloaded.AuctioneerGroup(addr(0x02)))
	require.Empty(t, reloaded.AuctioneerGroup(addr(0x09)))
}

func TestEmptyStoreLoadsClean(t *testing.T) {
	m, err := NewManager(storage.NewMemDB())
	require.NoError(t, err)
	require.Zero(t, m.AuctionCount())
	require.Zero(t, m.CollectionCount())
	_, ok := m.AuctionGet(1)
	require.False(t, ok)
	_, ok = m.CollectionGet(1)
	require.False(t, ok)
}
