package oracle

import (
	"context"
	"sync"
)

// MemoryStore is a Store held entirely in process memory. It is the backing
// store for tests and for single process deployments that do not need the
// attestation state to survive a restart.
type MemoryStore struct {
	mu             sync.Mutex
	attestations   map[string]ConfirmationMask // Keyed by AttestationKey(slot, root).
	canonicalRoots map[uint64]Root
	state          *ConsensusState
}

var _ Store = &MemoryStore{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		attestations:   make(map[string]ConfirmationMask),
		canonicalRoots: make(map[uint64]Root),
	}
}

// Confirm satisfies Store. The merge is an OR so repeat confirmations are no-ops.
func (ms *MemoryStore) Confirm(ctx context.Context, slot uint64, root Root, channel ConfirmationChannel) (ConfirmationMask, error) {
	key, err := AttestationKey(slot, root)
	if err != nil {
		return 0, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	mask := ms.attestations[key] | channel.Mask()
	ms.attestations[key] = mask

	// First writer for a slot wins, a later root for the same slot only gets
	// its own attestation entry.
	if _, ok := ms.canonicalRoots[slot]; !ok {
		ms.canonicalRoots[slot] = root
	}
	return mask, nil
}

// Attestation satisfies Store.
func (ms *MemoryStore) Attestation(ctx context.Context, slot uint64, root Root) (ConfirmationMask, error) {
	key, err := AttestationKey(slot, root)
	if err != nil {
		return 0, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.attestations[key], nil
}

// CanonicalRoot satisfies Store.
func (ms *MemoryStore) CanonicalRoot(ctx context.Context, slot uint64) (Root, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	root, ok := ms.canonicalRoots[slot]
	return root, ok, nil
}

// ConsensusState satisfies Store.
func (ms *MemoryStore) ConsensusState(ctx context.Context) (ConsensusState, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.state == nil {
		return ConsensusState{}, false, nil
	}
	return *ms.state, true, nil
}

// SetConsensusState satisfies Store.
func (ms *MemoryStore) SetConsensusState(ctx context.Context, state ConsensusState) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.state = &state
	return nil
}
