package vault

import (
	"fmt"
	"sync"
)

// guard admits one deposit or withdrawal per transaction at a time. Fabric
// runs proposals of different transactions concurrently, so they don't
// exclude each other; a call made back into the vault from an asset
// chaincode shares its caller's transaction ID and is refused.
//
// The guard does not serialise top-level transactions. Two of them touching
// the same keys are ordered by Fabric's MVCC read-set check at commit: the
// later one is invalidated and none of its writes land.
type guard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newGuard() *guard {
	return &guard{inFlight: make(map[string]struct{})}
}

// enter marks txID in flight. The returned func leaves the critical section.
func (g *guard) enter(txID string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.inFlight[txID]; ok {
		return nil, fmt.Errorf("%w: tx %s", ErrReentrantCall, txID)
	}
	g.inFlight[txID] = struct{}{}

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()

		delete(g.inFlight, txID)
	}, nil
}
