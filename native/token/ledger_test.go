package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rokso/pf-auctions/storage"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

var (
	assetID   = addr(0xA0)
	authority = addr(0x10)
	alice     = addr(0x11)
	bob       = addr(0x12)
	carol     = addr(0x13)
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	ledger := NewLedger(storage.NewMemDB())
	require.NoError(t, ledger.Register(assetID, Metadata{Symbol: "TST", Decimals: 18, MintAuthority: authority}))
	return ledger
}

func TestRegisterDuplicate(t *testing.T) {
	ledger := newTestLedger(t)
	err := ledger.Register(assetID, Metadata{Symbol: "TST2"})
	require.ErrorIs(t, err, ErrAssetExists)

	meta, err := ledger.Meta(assetID)
	require.NoError(t, err)
	require.Equal(t, "TST", meta.Symbol)
	require.Equal(t, uint8(18), meta.Decimals)
	require.Equal(t, authority, meta.MintAuthority)
}

func TestUnknownAsset(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	_, err := ledger.Meta(assetID)
	require.ErrorIs(t, err, ErrUnknownAsset)
	_, err = ledger.BalanceOf(assetID, alice)
	require.ErrorIs(t, err, ErrUnknownAsset)
	_, ok := ledger.Asset(assetID)
	require.False(t, ok)
}

func TestMintAuthority(t *testing.T) {
	ledger := newTestLedger(t)

	err := ledger.Mint(alice, assetID, alice, big.NewInt(100))
	require.ErrorIs(t, err, ErrNotMintAuthority)

	require.NoError(t, ledger.Mint(authority, assetID, alice, big.NewInt(100)))
	balance, err := ledger.BalanceOf(assetID, alice)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(100)))
}

func TestMintOpenAuthority(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	open := addr(0xA1)
	require.NoError(t, ledger.Register(open, Metadata{Symbol: "OPN"}))
	require.NoError(t, ledger.Mint(alice, open, alice, big.NewInt(7)))
	balance, err := ledger.BalanceOf(open, alice)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(7)))
}

func TestTransfer(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.Mint(authority, assetID, alice, big.NewInt(100)))

	asset, ok := ledger.Asset(assetID)
	require.True(t, ok)

	moved, err := asset.Transfer(alice, bob, big.NewInt(40))
	require.NoError(t, err)
	require.Zero(t, moved.Cmp(big.NewInt(40)))

	for holder, want := range map[[20]byte]int64{alice: 60, bob: 40} {
		balance, err := asset.BalanceOf(holder)
		require.NoError(t, err)
		require.Zero(t, balance.Cmp(big.NewInt(want)), "holder %x", holder)
	}

	_, err = asset.Transfer(alice, bob, big.NewInt(61))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransferFromSpendsAllowance(t *testing.T) {
	ledger := newTestLedger(t)
	require.NoError(t, ledger.Mint(authority, assetID, alice, big.NewInt(100)))
	require.NoError(t, ledger.Approve(assetID, alice, bob, big.NewInt(50)))

	asset, ok := ledger.Asset(assetID)
	require.True(t, ok)

	_, err := asset.TransferFrom(bob, alice, carol, big.NewInt(30))
	require.NoError(t, err)

	remaining, err := ledger.Allowance(assetID, alice, bob)
	require.NoError(t, err)
	require.Zero(t, remaining.Cmp(big.NewInt(20)))

	_, err = asset.TransferFrom(bob, alice, carol, big.NewInt(21))
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	// Holder pulling from itself needs no allowance.
	_, err = asset.TransferFrom(alice, alice, carol, big.NewInt(70))
	require.NoError(t, err)
	balance, err := asset.BalanceOf(carol)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(100)))
}

func TestZeroAmountTransfers(t *testing.T) {
	ledger := newTestLedger(t)
	asset, ok := ledger.Asset(assetID)
	require.True(t, ok)

	moved, err := asset.Transfer(alice, bob, big.NewInt(0))
	require.NoError(t, err)
	require.Zero(t, moved.Sign())

	_, err = asset.Transfer(alice, bob, big.NewInt(-1))
	require.Error(t, err)
}

func TestLedgerPersistsAcrossReopen(t *testing.T) {
	db := storage.NewMemDB()
	ledger := NewLedger(db)
	require.NoError(t, ledger.Register(assetID, Metadata{Symbol: "TST", MintAuthority: authority}))
	require.NoError(t, ledger.Mint(authority, assetID, alice, big.NewInt(42)))

	reopened := NewLedger(db)
	balance, err := reopened.BalanceOf(assetID, alice)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(42)))
	meta, err := reopened.Meta(assetID)
	require.NoError(t, err)
	require.Equal(t, "TST", meta.Symbol)
}
