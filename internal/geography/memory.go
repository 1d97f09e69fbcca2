package geography

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"benefits/pkg/platform/sentinel"
)

// MemoryDirectory is an in-memory geography directory for tests and local
// development.
type MemoryDirectory struct {
	mu        sync.RWMutex
	provinces map[string]Province
	lgus      map[string]Lgu
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		provinces: make(map[string]Province),
		lgus:      make(map[string]Lgu),
	}
}

func (d *MemoryDirectory) PutProvince(p Province) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.provinces[p.Code] = p
}

func (d *MemoryDirectory) PutLgu(l Lgu) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lgus[l.Code] = l
}

func (d *MemoryDirectory) ResolveProvinceName(_ context.Context, code string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, exists := d.provinces[code]
	if !exists {
		return "", fmt.Errorf("province %s: %w", code, sentinel.ErrNotFound)
	}
	return p.Name, nil
}

func (d *MemoryDirectory) ResolveLguName(_ context.Context, code string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	l, exists := d.lgus[code]
	if !exists {
		return "", fmt.Errorf("lgu %s: %w", code, sentinel.ErrNotFound)
	}
	return l.Name, nil
}

func (d *MemoryDirectory) ListProvinces(_ context.Context) ([]Province, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Province, 0, len(d.provinces))
	for _, p := range d.provinces {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *MemoryDirectory) ListLgus(_ context.Context, provinceCode string) ([]Lgu, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Lgu
	for _, l := range d.lgus {
		if l.ProvinceCode == provinceCode {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
