package handoff

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSecretGone is returned for a reference that was never sealed, was
// already redeemed, or expired.
var ErrSecretGone = errors.New("secret expired or already used")

// Vault keeps worker secrets (SSN, password, captured image) out of
// workflow history. Signals and activity inputs carry only the reference
// returned by Seal.
type Vault interface {
	Seal(ctx context.Context, value []byte, ttl time.Duration) (string, error)
	// Reveal reads a value and leaves it in place.
	Reveal(ctx context.Context, ref string) ([]byte, error)
	// Redeem reads a value and deletes it.
	Redeem(ctx context.Context, ref string) ([]byte, error)
	Discard(ctx context.Context, refs ...string) error
}

func newRef() string {
	return "sec_" + uuid.NewString()
}

type sealed struct {
	value   []byte
	expires time.Time
}

// MemoryVault is a process-local Vault with the same sharing limits as
// MemoryStore.
type MemoryVault struct {
	mu      sync.Mutex
	entries map[string]sealed
	now     func() time.Time
}

func NewMemoryVault() *MemoryVault {
	return &MemoryVault{entries: make(map[string]sealed), now: time.Now}
}

func (v *MemoryVault) Seal(_ context.Context, value []byte, ttl time.Duration) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ref := newRef()
	v.entries[ref] = sealed{value: append([]byte(nil), value...), expires: v.now().Add(ttl)}
	return ref, nil
}

func (v *MemoryVault) Reveal(_ context.Context, ref string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lookup(ref)
}

func (v *MemoryVault) Redeem(_ context.Context, ref string) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	value, err := v.lookup(ref)
	delete(v.entries, ref)
	return value, err
}

func (v *MemoryVault) Discard(_ context.Context, refs ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, ref := range refs {
		delete(v.entries, ref)
	}
	return nil
}

// lookup expects v.mu to be held.
func (v *MemoryVault) lookup(ref string) ([]byte, error) {
	e, ok := v.entries[ref]
	if !ok {
		return nil, ErrSecretGone
	}
	if !v.now().Before(e.expires) {
		delete(v.entries, ref)
		return nil, ErrSecretGone
	}
	return e.value, nil
}
