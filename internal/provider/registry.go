package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Registry is a thread-safe registry of upstream providers.
// It maps provider names to Provider instances and maintains an index
// of which providers declare which capabilities.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider     // name → provider
	capIdx    map[Capability][]string // capability → provider names (registration order)
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		capIdx:    make(map[Capability][]string),
	}
}

// Register adds a provider to the registry. Credentials should be set via
// Init before calling Register. Duplicate registrations overwrite the
// previous entry.
func (r *Registry) Register(p Provider) error {
	info := p.Info()
	if info.Name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[info.Name] = p
	for _, c := range info.Capabilities {
		existing := r.capIdx[c]
		found := false
		for _, name := range existing {
			if name == info.Name {
				found = true
				break
			}
		}
		if !found {
			r.capIdx[c] = append(existing, info.Name)
		}
	}
	return nil
}

// Get returns a provider by name, or an error if not found.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return p, nil
}

// List returns info about all registered providers, sorted by name.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		infos = append(infos, p.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos
}

// ProvidersFor returns the names of providers declaring the capability,
// in registration order.
func (r *Registry) ProvidersFor(c Capability) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := r.capIdx[c]
	result := make([]string, len(names))
	copy(result, names)
	return result
}

// Capabilities maps each capability with at least one provider to its
// providers, in registration order.
func (r *Registry) Capabilities() map[Capability][]string {
	out := make(map[Capability][]string)
	for _, c := range AllCapabilities {
		if names := r.ProvidersFor(c); len(names) > 0 {
			out[c] = names
		}
	}
	return out
}

// PingStatus is the outcome of pinging one provider.
type PingStatus struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"latency"`
}

// PingAll pings every registered provider concurrently, each with its own
// timeout, and returns the statuses sorted by name.
func (r *Registry) PingAll(ctx context.Context, timeout time.Duration) []PingStatus {
	r.mu.RLock()
	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	r.mu.RUnlock()

	statuses := make([]PingStatus, len(providers))
	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			start := time.Now()
			err := p.Ping(pctx)
			st := PingStatus{Name: p.Info().Name, OK: err == nil, Latency: time.Since(start)}
			if err != nil {
				st.Error = err.Error()
			}
			statuses[i] = st
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}
