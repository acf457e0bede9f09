package guard

import (
	"context"
	"sync"

	"github.com/spdeepak/crm-session-guard/internal/error"
)

// Navigator is the client-side view of where the user currently is.
type Navigator interface {
	Location() string
	Redirect(ctx context.Context, target string)
}

// Notifier surfaces user-visible errors, such as a permission denial.
type Notifier interface {
	Notify(ctx context.Context, err httperror.HttpError)
}

// LocationNavigator tracks a location and reports redirects to onRedirect.
// A redirect moves the tracked location to the target.
type LocationNavigator struct {
	mu         sync.Mutex
	location   string
	onRedirect func(ctx context.Context, target string)
}

func NewLocationNavigator(location string, onRedirect func(ctx context.Context, target string)) *LocationNavigator {
	return &LocationNavigator{location: location, onRedirect: onRedirect}
}

func (n *LocationNavigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *LocationNavigator) SetLocation(location string) {
	n.mu.Lock()
	n.location = location
	n.mu.Unlock()
}

func (n *LocationNavigator) Redirect(ctx context.Context, target string) {
	n.SetLocation(target)
	if n.onRedirect != nil {
		n.onRedirect(ctx, target)
	}
}

type NotifierFunc func(ctx context.Context, err httperror.HttpError)

func (f NotifierFunc) Notify(ctx context.Context, err httperror.HttpError) {
	f(ctx, err)
}
