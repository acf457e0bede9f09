// Package session keeps the raw bearer token between navigations. Stores never parse
// or validate the token; they only hold it.
package session

import (
	"context"
	"time"
)

const DefaultName = "token"

// ClearOptions scopes a removal to the domain and path the value was written under.
type ClearOptions struct {
	Domain string
	Path   string
}

type Store interface {
	// Get returns the stored token, if any.
	Get(ctx context.Context) (string, bool)
	// Set stores token, replacing any previous value.
	Set(ctx context.Context, token string) error
	// Clear removes the value stored under name.
	Clear(ctx context.Context, name string, opts ClearOptions) error
}

// Expiring is implemented by stores that can drop a value on their own once it has
// outlived the token it holds.
type Expiring interface {
	SetFor(ctx context.Context, token string, ttl time.Duration) error
}

// SetFor stores token and lets it lapse after ttl where the store supports it. A
// non-positive ttl stores without expiry.
func SetFor(ctx context.Context, store Store, token string, ttl time.Duration) error {
	if expiring, ok := store.(Expiring); ok && ttl > 0 {
		return expiring.SetFor(ctx, token, ttl)
	}
	return store.Set(ctx, token)
}

// Registry hands out the mirror store of one browser session.
type Registry interface {
	Open(sid string) Store
}

type RegistryFunc func(sid string) Store

func (f RegistryFunc) Open(sid string) Store {
	return f(sid)
}
