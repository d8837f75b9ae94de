package authz

import (
	"context"
	"sync"
)

// StaticProvider is an in-memory actor-to-capabilities table implementing
// port.AuthorizationProvider. It backs local deployments and tests; real
// installations plug an external provider into the same port.
type StaticProvider struct {
	mu    sync.RWMutex
	roles map[string][]string
}

// NewStaticProvider creates a provider from an actor -> capabilities map
func NewStaticProvider(roles map[string][]string) *StaticProvider {
	copied := make(map[string][]string, len(roles))
	for actor, caps := range roles {
		copied[actor] = append([]string{}, caps...)
	}
	return &StaticProvider{roles: copied}
}

// Grant adds a capability to an actor
func (p *StaticProvider) Grant(actor, capability string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.roles[actor] = append(p.roles[actor], capability)
}

// IsAuthorized implements port.AuthorizationProvider
func (p *StaticProvider) IsAuthorized(ctx context.Context, actor, capability string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, c := range p.roles[actor] {
		if c == capability {
			return true, nil
		}
	}
	return false, nil
}
