// Package session holds the console's session context: whether an operator
// is logged in and as whom. The active flag is the only state the console
// persists between runs.
//
// A Context is created once at start-up (Restore picks up a persisted
// session), Begin is called on login and End on logout. Long-lived workers
// such as the history poller watch Done() and stop when the session ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/casconsole/internal/logging"
)

// ErrNoPrincipal is returned by Begin when the principal is blank.
var ErrNoPrincipal = errors.New("principal is required")

// State is the persisted session record.
type State struct {
	Active    bool      `json:"active"`
	Principal string    `json:"principal,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Store persists State between runs.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) error
	Clear(ctx context.Context) error
}

// Context is the explicit session handle passed to services.
// It is safe for concurrent use.
type Context struct {
	store Store
	log   logging.Logger
	now   func() time.Time

	mu    sync.RWMutex
	state State
	done  chan struct{}
}

// New returns an inactive session context backed by store.
func New(store Store, log logging.Logger) *Context {
	return &Context{
		store: store,
		log:   log.With("component", "session"),
		now:   time.Now,
		done:  closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Restore loads the persisted state. A stored active session becomes the
// current session; anything else leaves the context inactive.
func (c *Context) Restore(ctx context.Context) error {
	st, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !st.Active {
		return nil
	}

	c.mu.Lock()
	c.activate(st)
	c.mu.Unlock()

	c.log.Info(ctx, "session restored", "principal", st.Principal)
	return nil
}

// Begin starts a session for principal and persists the active flag.
// Beginning while already active replaces the principal without ending the
// current Done channel.
func (c *Context) Begin(ctx context.Context, principal string) error {
	if principal == "" {
		return ErrNoPrincipal
	}

	st := State{Active: true, Principal: principal, StartedAt: c.now().UTC()}
	if err := c.store.Save(ctx, st); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	c.mu.Lock()
	c.activate(st)
	c.mu.Unlock()

	c.log.Info(ctx, "session started", "principal", principal)
	return nil
}

// activate must be called with mu held.
func (c *Context) activate(st State) {
	wasActive := c.state.Active
	c.state = st
	if !wasActive {
		c.done = make(chan struct{})
	}
}

// End clears the persisted flag and closes the Done channel. Ending an
// inactive session only clears the store.
func (c *Context) End(ctx context.Context) error {
	c.mu.Lock()
	wasActive := c.state.Active
	principal := c.state.Principal
	c.state = State{}
	if wasActive {
		close(c.done)
	}
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if wasActive {
		c.log.Info(ctx, "session ended", "principal", principal)
	}
	return nil
}

// Active reports whether an operator is logged in.
func (c *Context) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Active
}

// Principal is the logged-in operator name, or "".
func (c *Context) Principal() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Principal
}

// State returns a copy of the current state.
func (c *Context) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Done returns a channel closed when the current session ends. For an
// inactive context the returned channel is already closed.
func (c *Context) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.done
}
