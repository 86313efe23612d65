package auction

import "sync/atomic"

// reentrancyGuard converts the untrusted asset-capability boundary into an
// effectively atomic region: while a guarded operation is executing, any
// nested entry into a guarded operation fails fast with ErrReentrantCall
// instead of observing or mutating partial state.
//
// The engine is single-threaded by contract; the compare-and-swap also trips
// on accidental cross-goroutine entry rather than blocking on it.
type reentrancyGuard struct {
	locked atomic.Bool
}

// enter acquires the guard or reports the reentrant attempt.
func (g *reentrancyGuard) enter() error {
	if !g.locked.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

// exit releases the guard. It must run on every exit path of a guarded
// operation, success and failure alike.
func (g *reentrancyGuard) exit() {
	g.locked.Store(false)
}
