package auction

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/rokso/pf-auctions/native/token"
)

// escrowLedger moves bundles between counterparties and engine custody. Every
// transfer crosses the untrusted asset boundary, so custody deltas are
// re-verified and partial movements are compensated before an error is
// surfaced.
type escrowLedger struct {
	assets    token.Registry
	custodian [20]byte
}

func (l *escrowLedger) asset(id [20]byte) (token.Asset, error) {
	if l.assets == nil {
		return nil, errNilAsset
	}
	asset, ok := l.assets.Asset(id)
	if !ok {
		return nil, fmt.Errorf("%w: %x", ErrNoSuchAsset, id)
	}
	return asset, nil
}

// lock pulls every lot from the seller into engine custody. The reported
// moved amount is ignored; the custodian balance delta decides. A short
// transfer fails the lock with ErrInsufficientTransfer. If any lot fails,
// lots already in custody are pushed back to the seller before returning.
func (l *escrowLedger) lock(from [20]byte, lots []Lot) error {
	for i, lot := range lots {
		if err := l.lockLot(from, lot); err != nil {
			return errors.Join(err, l.unwind(from, lots[:i]))
		}
	}
	return nil
}

func (l *escrowLedger) lockLot(from [20]byte, lot Lot) error {
	asset, err := l.asset(lot.Asset)
	if err != nil {
		return err
	}
	before, err := asset.BalanceOf(l.custodian)
	if err != nil {
		return fmt.Errorf("auction: read custody balance: %w", err)
	}
	if _, err := asset.TransferFrom(l.custodian, from, l.custodian, lot.Amount); err != nil {
		return fmt.Errorf("auction: escrow transfer: %w", err)
	}
	after, err := asset.BalanceOf(l.custodian)
	if err != nil {
		return fmt.Errorf("auction: read custody balance: %w", err)
	}
	delta := new(big.Int).Sub(after, before)
	if delta.Cmp(lot.Amount) < 0 {
		err := fmt.Errorf("%w: asset %x moved %s of %s", ErrInsufficientTransfer, lot.Asset, delta, lot.Amount)
		if delta.Sign() > 0 {
			if _, backErr := asset.Transfer(l.custodian, from, delta); backErr != nil {
				err = errors.Join(err, fmt.Errorf("auction: return partial pull: %w", backErr))
			}
		}
		return err
	}
	return nil
}

// release pushes every lot from engine custody to the recipient. A failure
// aborts the surrounding state transition; lots already released are pulled
// back best effort and any unwind failure is joined onto the cause.
func (l *escrowLedger) release(to [20]byte, lots []Lot) error {
	for i, lot := range lots {
		asset, err := l.asset(lot.Asset)
		if err != nil {
			return errors.Join(err, l.recall(to, lots[:i]))
		}
		if _, err := asset.Transfer(l.custodian, to, lot.Amount); err != nil {
			err = fmt.Errorf("auction: release transfer: %w", err)
			return errors.Join(err, l.recall(to, lots[:i]))
		}
	}
	return nil
}

// unwind returns locked lots to the seller after a failed lock.
func (l *escrowLedger) unwind(to [20]byte, locked []Lot) error {
	var errs []error
	for _, lot := range locked {
		asset, err := l.asset(lot.Asset)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := asset.Transfer(l.custodian, to, lot.Amount); err != nil {
			errs = append(errs, fmt.Errorf("auction: unwind %x: %w", lot.Asset, err))
		}
	}
	return errors.Join(errs...)
}

// recall pulls already-released lots back into custody after a failed
// release.
func (l *escrowLedger) recall(from [20]byte, released []Lot) error {
	var errs []error
	for _, lot := range released {
		asset, err := l.asset(lot.Asset)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := asset.Transfer(from, l.custodian, lot.Amount); err != nil {
			errs = append(errs, fmt.Errorf("auction: recall %x: %w", lot.Asset, err))
		}
	}
	return errors.Join(errs...)
}
