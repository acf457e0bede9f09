package guard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/spdeepak/crm-session-guard/internal/error"
	"github.com/spdeepak/crm-session-guard/internal/roles"
)

// Policy decides what happens to a destination missing from the permission table.
type Policy string

const (
	PolicyAllow Policy = "allow"
	PolicyDeny  Policy = "deny"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyAllow:
		return PolicyAllow, nil
	case PolicyDeny:
		return PolicyDeny, nil
	default:
		return "", fmt.Errorf("unknown permission policy %q", s)
	}
}

type Permissions struct {
	mu     sync.RWMutex
	table  map[string][]roles.Rank
	policy Policy
}

func NewPermissions(table map[string][]roles.Rank, policy Policy) *Permissions {
	p := &Permissions{}
	p.Replace(table, policy)
	return p
}

// Replace swaps the whole table, used when configuration is reloaded.
func (p *Permissions) Replace(table map[string][]roles.Rank, policy Policy) {
	copied := make(map[string][]roles.Rank, len(table))
	for route, ranks := range table {
		copied[normalizeRoute(route)] = slices.Clone(ranks)
	}
	if policy == "" {
		policy = PolicyAllow
	}
	p.mu.Lock()
	p.table = copied
	p.policy = policy
	p.mu.Unlock()
}

// Lookup finds the longest configured route covering destination.
func (p *Permissions) Lookup(destination string) (string, []roles.Rank, bool) {
	destination = normalizeRoute(stripQuery(destination))

	p.mu.RLock()
	defer p.mu.RUnlock()

	best := ""
	var allowed []roles.Rank
	for route, ranks := range p.table {
		if !hasSegmentPrefix(destination, route) {
			continue
		}
		if len(route) > len(best) {
			best, allowed = route, ranks
		}
	}
	if best == "" {
		return "", nil, false
	}
	return best, allowed, true
}

// Authorize checks rank against the destination's allowed set.
func (p *Permissions) Authorize(ctx context.Context, destination string, rank roles.Rank) error {
	route, allowed, ok := p.Lookup(destination)
	if !ok {
		p.mu.RLock()
		policy := p.policy
		p.mu.RUnlock()
		slog.WarnContext(ctx, "Route has no permission entry", slog.String("route", destination), slog.String("policy", string(policy)))
		if policy == PolicyDeny {
			return httperror.NewWithMetadata(httperror.RouteNotConfigured, destination)
		}
		return nil
	}
	if !slices.Contains(allowed, rank) {
		return httperror.NewWithMetadata(httperror.PermissionDenied, fmt.Sprintf("route=%s rank=%d", route, rank))
	}
	return nil
}

func normalizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
		if route == "" {
			route = "/"
		}
	}
	return route
}
