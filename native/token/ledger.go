package token

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rokso/pf-auctions/storage"
)

var (
	assetPrefix     = []byte("token:asset:")
	balancePrefix   = []byte("token:balance:")
	allowancePrefix = []byte("token:allowance:")
)

// Metadata describes a registered asset. The mint authority is the only
// identity allowed to mint; a zero authority leaves the asset open-minted,
// which is only appropriate on throwaway networks.
type Metadata struct {
	Symbol        string
	Decimals      uint8
	MintAuthority [20]byte
}

// Ledger is the reference multi-asset balance book. It implements Registry
// and hands out per-asset views that satisfy the Asset interface. All records
// live in the backing key-value store so daemon restarts keep balances.
type Ledger struct {
	db storage.Database
}

// NewLedger creates a ledger over the given store.
func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

func assetKey(id [20]byte) []byte {
	return ethcrypto.Keccak256(assetPrefix, id[:])
}

func balanceKey(id, holder [20]byte) []byte {
	return ethcrypto.Keccak256(balancePrefix, id[:], holder[:])
}

func allowanceKey(id, holder, spender [20]byte) []byte {
	return ethcrypto.Keccak256(allowancePrefix, id[:], holder[:], spender[:])
}

// Register records a new asset id with its metadata.
func (l *Ledger) Register(id [20]byte, meta Metadata) error {
	key := assetKey(id)
	if ok, err := l.db.Has(key); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %x", ErrAssetExists, id)
	}
	encoded, err := rlp.EncodeToBytes(&meta)
	if err != nil {
		return err
	}
	return l.db.Put(key, encoded)
}

// Meta returns the metadata for a registered asset id.
func (l *Ledger) Meta(id [20]byte) (*Metadata, error) {
	data, err := l.db.Get(assetKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %x", ErrUnknownAsset, id)
	}
	if err != nil {
		return nil, err
	}
	meta := new(Metadata)
	if err := rlp.DecodeBytes(data, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Asset implements Registry.
func (l *Ledger) Asset(id [20]byte) (Asset, bool) {
	if ok, err := l.db.Has(assetKey(id)); err != nil || !ok {
		return nil, false
	}
	return &ledgerAsset{ledger: l, id: id}, true
}

// Mint credits freshly issued units to a holder. The caller must be the
// asset's mint authority unless the authority is unset.
func (l *Ledger) Mint(caller, id, to [20]byte, amount *big.Int) error {
	meta, err := l.Meta(id)
	if err != nil {
		return err
	}
	if meta.MintAuthority != ([20]byte{}) && caller != meta.MintAuthority {
		return ErrNotMintAuthority
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token: mint amount must be positive")
	}
	balance, err := l.balance(id, to)
	if err != nil {
		return err
	}
	return l.writeBalance(id, to, balance.Add(balance, amount))
}

// Approve sets the exact amount a spender may pull from the holder.
func (l *Ledger) Approve(id, holder, spender [20]byte, amount *big.Int) error {
	if _, err := l.Meta(id); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("token: approval amount must be non-negative")
	}
	return l.writeAmount(allowanceKey(id, holder, spender), amount)
}

// Allowance reports the remaining approved amount.
func (l *Ledger) Allowance(id, holder, spender [20]byte) (*big.Int, error) {
	return l.readAmount(allowanceKey(id, holder, spender))
}

// BalanceOf reports the holder's balance of the asset.
func (l *Ledger) BalanceOf(id, holder [20]byte) (*big.Int, error) {
	if _, err := l.Meta(id); err != nil {
		return nil, err
	}
	return l.balance(id, holder)
}

func (l *Ledger) balance(id, holder [20]byte) (*big.Int, error) {
	return l.readAmount(balanceKey(id, holder))
}

func (l *Ledger) writeBalance(id, holder [20]byte, amount *big.Int) error {
	return l.writeAmount(balanceKey(id, holder), amount)
}

func (l *Ledger) readAmount(key []byte) (*big.Int, error) {
	data, err := l.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(data), nil
}

func (l *Ledger) writeAmount(key []byte, amount *big.Int) error {
	return l.db.Put(key, amount.Bytes())
}

func (l *Ledger) move(id, from, to [20]byte, amount *big.Int) error {
	fromBalance, err := l.balance(id, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, fromBalance, amount)
	}
	toBalance, err := l.balance(id, to)
	if err != nil {
		return err
	}
	if err := l.writeBalance(id, from, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.writeBalance(id, to, toBalance.Add(toBalance, amount))
}

// ledgerAsset binds the ledger to one asset id.
type ledgerAsset struct {
	ledger *Ledger
	id     [20]byte
}

func (a *ledgerAsset) Transfer(from, to [20]byte, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("token: transfer amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if err := a.ledger.move(a.id, from, to, amount); err != nil {
		return nil, err
	}
	return new(big.Int).Set(amount), nil
}

func (a *ledgerAsset) TransferFrom(spender, holder, to [20]byte, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("token: transfer amount must be non-negative")
	}
	if amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if spender != holder {
		allowance, err := a.ledger.Allowance(a.id, holder, spender)
		if err != nil {
			return nil, err
		}
		if allowance.Cmp(amount) < 0 {
			return nil, fmt.Errorf("%w: have %s, need %s", ErrInsufficientAllowance, allowance, amount)
		}
		if err := a.ledger.writeAmount(allowanceKey(a.id, holder, spender), allowance.Sub(allowance, amount)); err != nil {
			return nil, err
		}
	}
	if err := a.ledger.move(a.id, holder, to, amount); err != nil {
		return nil, err
	}
	return new(big.Int).Set(amount), nil
}

func (a *ledgerAsset) BalanceOf(holder [20]byte) (*big.Int, error) {
	return a.ledger.balance(a.id, holder)
}
