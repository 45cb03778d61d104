// Package identity tracks who the current owner is and tells subscribers
// about every change.
package identity

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/promptkeeper/internal/client/models"
)

// State is the observable identity state.
type State struct {
	Identity      models.Identity
	Loading       bool
	SetupComplete bool
}

// Listener receives the previous and the current state.
type Listener func(prev, cur State)

type subscription struct {
	id int
	fn Listener
}

// Context holds the current State. Listeners run synchronously on the
// goroutine that caused the change, in subscription order, after the
// internal lock is released, so a listener may change the state again.
type Context struct {
	mu     sync.Mutex
	state  State
	subs   []subscription
	nextID int
}

// New returns a Context for initial.
func New(initial State) *Context {
	return &Context{state: initial}
}

func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Context) Identity() models.Identity {
	return c.State().Identity
}

// Subscribe registers fn and calls it right away with the current state as
// both prev and cur. The returned func removes the subscription.
func (c *Context) Subscribe(fn Listener) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs = append(c.subs, subscription{id: id, fn: fn})
	cur := c.state
	c.mu.Unlock()

	fn(cur, cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Set replaces the state. Nothing is emitted when it does not change.
func (c *Context) Set(next State) {
	c.update(func(State) State { return next })
}

// SetIdentity switches identity and clears Loading.
func (c *Context) SetIdentity(id models.Identity, setupComplete bool) {
	c.update(func(State) State {
		return State{Identity: id, SetupComplete: setupComplete}
	})
}

func (c *Context) SetLoading(loading bool) {
	c.update(func(s State) State {
		s.Loading = loading
		return s
	})
}

// SignOut switches to the anonymous identity.
func (c *Context) SignOut() {
	c.SetIdentity(models.Anonymous(), false)
}

func (c *Context) update(fn func(State) State) {
	c.mu.Lock()
	prev := c.state
	next := fn(prev)
	if next == prev {
		c.mu.Unlock()
		return
	}
	c.state = next
	subs := append([]subscription(nil), c.subs...)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(prev, next)
	}
}

// EventType names an authentication notification.
type EventType string

const (
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
	UserUpdated    EventType = "USER_UPDATED"
)

// AuthEvent is emitted by the authentication collaborator.
type AuthEvent struct {
	Type          EventType
	UserID        string
	SetupComplete bool
}

// Apply folds ev into the state.
func (c *Context) Apply(ev AuthEvent) {
	switch ev.Type {
	case SignedOut:
		c.SignOut()
	case SignedIn, TokenRefreshed, UserUpdated:
		c.SetIdentity(models.Authenticated(ev.UserID), ev.SetupComplete)
	}
}

// Watch applies events until ctx is done or events is closed.
func (c *Context) Watch(ctx context.Context, events <-chan AuthEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Apply(ev)
		}
	}
}
