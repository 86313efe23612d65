package auction

import "errors"

var (
	// ErrNoSuchAuction is returned for auction ids that were never issued,
	// including id zero.
	ErrNoSuchAuction = errors.New("auction: no such auction id")

	// ErrAlreadySettled rejects bids on and stops of auctions that already
	// reached a terminal state.
	ErrAlreadySettled = errors.New("auction: already settled")

	// ErrNotAuthorized rejects a stop by anyone other than the configured
	// payee.
	ErrNotAuthorized = errors.New("auction: caller not payee")

	// ErrNotCollectionOwner rejects collection operations, including filing a
	// new auction under a collection, by a non-owner.
	ErrNotCollectionOwner = errors.New("auction: caller not collection owner")

	// ErrInsufficientTransfer is returned when an asset moved less into
	// engine custody than was requested.
	ErrInsufficientTransfer = errors.New("auction: not enough transferred")

	// ErrIndexOutOfRange rejects out-of-range collection or auctioneer
	// enumeration indexes.
	ErrIndexOutOfRange = errors.New("auction: index out of range")

	// ErrReentrantCall is returned to a guarded entry point invoked while
	// another guarded operation is still executing.
	ErrReentrantCall = errors.New("auction: reentrant call")

	// ErrZeroAddress rejects the zero address where a real identity is
	// required. The zero winner slot doubles as the not-won sentinel, so it
	// can never name an actual bidder.
	ErrZeroAddress = errors.New("auction: zero address")

	// ErrNoSuchAsset is returned when a configured asset id resolves to no
	// known asset capability.
	ErrNoSuchAsset = errors.New("auction: no such asset")

	// ErrInvalidConfig wraps all auction definition validation failures.
	ErrInvalidConfig = errors.New("auction: invalid config")

	errNilState = errors.New("auction engine: state not configured")
	errNilAsset = errors.New("auction engine: asset registry not configured")
)
