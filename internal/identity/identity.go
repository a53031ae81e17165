// Package identity reports who is signed in on this client.
package identity

import (
	"slices"
	"sync"
)

// ProviderPassword is the provider id of email and password accounts.
const ProviderPassword = "password"

// Status is the coarse sign-in state.
type Status int

const (
	// Unresolved is the initial state before the session has been checked.
	Unresolved Status = iota
	SignedOut
	SignedIn
)

func (s Status) String() string {
	switch s {
	case SignedOut:
		return "signed-out"
	case SignedIn:
		return "signed-in"
	default:
		return "unresolved"
	}
}

// State is a snapshot of the current identity.
type State struct {
	Status        Status
	UID           string
	Email         string
	DisplayName   string
	ProviderIDs   []string
	EmailVerified bool
}

// UsesPassword reports whether an email and password is the account's only credential.
// Such accounts must verify their email before reaching the app.
func (s State) UsesPassword() bool {
	return len(s.ProviderIDs) == 1 && s.ProviderIDs[0] == ProviderPassword
}

// NeedsVerification reports whether the user is signed in but still has to verify their email.
func (s State) NeedsVerification() bool {
	return s.Status == SignedIn && s.UsesPassword() && !s.EmailVerified
}

func (s State) equal(o State) bool {
	return s.Status == o.Status && s.UID == o.UID && s.Email == o.Email &&
		s.DisplayName == o.DisplayName && s.EmailVerified == o.EmailVerified &&
		slices.Equal(s.ProviderIDs, o.ProviderIDs)
}

// Provider is the identity contract the session gate consumes.
type Provider interface {
	// Current returns the latest known state.
	Current() State
	// Watch calls fn with every state change until the returned stop func is called.
	Watch(fn func(State)) (stop func())
}

// watchers fans state changes out to registered callbacks.
type watchers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(State)
}

func (w *watchers) add(fn func(State)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fns == nil {
		w.fns = make(map[int]func(State))
	}
	id := w.next
	w.next++
	w.fns[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.fns, id)
			w.mu.Unlock()
		})
	}
}

func (w *watchers) notify(s State) {
	w.mu.Lock()
	fns := make([]func(State), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Static is a Provider whose state is set directly. Tests and offline tools use it.
type Static struct {
	mu       sync.Mutex
	state    State
	watchers watchers
}

// NewStatic creates a Static provider holding s.
func NewStatic(s State) *Static {
	return &Static{state: s}
}

func (p *Static) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Static) Watch(fn func(State)) func() {
	return p.watchers.add(fn)
}

// Set replaces the state and notifies watchers when it changed.
func (p *Static) Set(s State) {
	p.mu.Lock()
	changed := !p.state.equal(s)
	p.state = s
	p.mu.Unlock()
	if changed {
		p.watchers.notify(s)
	}
}
