package registry

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	id "benefits/pkg/domain"
	"benefits/pkg/platform/sentinel"
)

// MemoryReader is an in-memory registry for tests and local development.
// It honors the same keyset-pagination and disqualifying-status contract as
// the Postgres adapter.
type MemoryReader struct {
	mu            sync.RWMutex
	beneficiaries map[id.BeneficiaryID]Beneficiary
}

func NewMemoryReader() *MemoryReader {
	return &MemoryReader{beneficiaries: make(map[id.BeneficiaryID]Beneficiary)}
}

// Put adds or replaces a beneficiary record.
func (r *MemoryReader) Put(b Beneficiary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beneficiaries[b.ID] = b
}

func (r *MemoryReader) ListActive(_ context.Context, afterID id.BeneficiaryID, limit int) ([]Beneficiary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []Beneficiary
	for _, b := range r.beneficiaries {
		if b.Status.Disqualifying() {
			continue
		}
		if lessID(afterID, b.ID) {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return lessID(all[i].ID, all[j].ID) })

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *MemoryReader) Get(_ context.Context, beneficiaryID id.BeneficiaryID) (Beneficiary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.beneficiaries[beneficiaryID]
	if !exists {
		return Beneficiary{}, fmt.Errorf("beneficiary %s: %w", beneficiaryID, sentinel.ErrNotFound)
	}
	return b, nil
}

func (r *MemoryReader) GetBatch(_ context.Context, ids []id.BeneficiaryID) (map[id.BeneficiaryID]Beneficiary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[id.BeneficiaryID]Beneficiary, len(ids))
	for _, beneficiaryID := range ids {
		if b, exists := r.beneficiaries[beneficiaryID]; exists {
			out[beneficiaryID] = b
		}
	}
	return out, nil
}

// lessID orders beneficiary IDs the way Postgres orders uuid columns
// (bytewise), so pagination behaves identically across implementations.
func lessID(a, b id.BeneficiaryID) bool {
	ua, ub := uuid.UUID(a), uuid.UUID(b)
	return bytes.Compare(ua[:], ub[:]) < 0
}
