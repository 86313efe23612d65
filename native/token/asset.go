// Package token models the external fungible-asset capability consumed by the
// auction engine. The engine treats every implementation as adversarial: the
// reported moved amount is untrusted (custody deltas are re-verified against
// BalanceOf) and a transfer may attempt to call back into the engine.
package token

import (
	"errors"
	"math/big"
)

var (
	// ErrInsufficientBalance is returned when a holder cannot cover a
	// transfer.
	ErrInsufficientBalance = errors.New("token: insufficient balance")

	// ErrInsufficientAllowance is returned when a spender pulls more than the
	// holder approved.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")

	// ErrUnknownAsset is returned for asset ids that were never registered.
	ErrUnknownAsset = errors.New("token: unknown asset")

	// ErrNotMintAuthority rejects mints by anyone other than the configured
	// authority.
	ErrNotMintAuthority = errors.New("token: caller not mint authority")

	// ErrAssetExists rejects re-registration of an asset id.
	ErrAssetExists = errors.New("token: asset already registered")
)

// Asset is one fungible asset. Transfer moves the holder's own funds;
// TransferFrom lets an approved spender pull from a third-party holder. Both
// report the amount they claim to have moved, which callers must not trust.
type Asset interface {
	Transfer(from, to [20]byte, amount *big.Int) (*big.Int, error)
	TransferFrom(spender, holder, to [20]byte, amount *big.Int) (*big.Int, error)
	BalanceOf(holder [20]byte) (*big.Int, error)
}

// Registry resolves asset identifiers to asset capabilities.
type Registry interface {
	Asset(id [20]byte) (Asset, bool)
}
