// Package session tracks where each user is in the generate flow.
//
// Idle -> AwaitingPlatform -> [AwaitingDialect] -> AwaitingContent -> Idle.
// Idle is represented by the absence of state. Entries expire after the
// configured TTL so abandoned flows fall back to Idle on their own.
package session

import (
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"social-poster/internal/errs"
	"social-poster/internal/platforms"
)

type Step int

const (
	Idle Step = iota
	AwaitingPlatform
	AwaitingDialect
	AwaitingContent
)

func (s Step) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingPlatform:
		return "awaiting_platform"
	case AwaitingDialect:
		return "awaiting_dialect"
	case AwaitingContent:
		return "awaiting_content"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// State is one user's progress. Platform and Dialect are keys into the
// platforms.Catalog; empty until chosen.
type State struct {
	UserID   int64
	Step     Step
	Platform string
	Dialect  string
}

// Machine owns all session states.
type Machine struct {
	cache          *ttlcache.Cache[int64, State]
	catalog        *platforms.Catalog
	dialectEnabled bool
}

func NewMachine(catalog *platforms.Catalog, ttl time.Duration, dialectEnabled bool) *Machine {
	cache := ttlcache.New[int64, State](
		ttlcache.WithTTL[int64, State](ttl),
	)
	return &Machine{cache: cache, catalog: catalog, dialectEnabled: dialectEnabled}
}

// Run starts expiring stale sessions until Stop is called.
func (m *Machine) Run() { m.cache.Start() }

func (m *Machine) Stop() { m.cache.Stop() }

func (m *Machine) DialectEnabled() bool { return m.dialectEnabled }

// Start enters AwaitingPlatform, replacing any previous state.
func (m *Machine) Start(userID int64) State {
	st := State{UserID: userID, Step: AwaitingPlatform}
	m.cache.Set(userID, st, ttlcache.DefaultTTL)
	return st
}

// Current returns the user's state; Idle when none exists.
func (m *Machine) Current(userID int64) State {
	if item := m.cache.Get(userID); item != nil {
		return item.Value()
	}
	return State{UserID: userID, Step: Idle}
}

// SelectPlatform resolves text against the catalog. On no match the state
// is left untouched and errs.ErrInvalidSelection is returned.
func (m *Machine) SelectPlatform(userID int64, text string) (State, error) {
	st := m.Current(userID)
	if st.Step != AwaitingPlatform {
		return st, fmt.Errorf("select platform in %s: %w", st.Step, errs.ErrNoSession)
	}
	p, ok := m.catalog.MatchPlatform(text)
	if !ok {
		return st, fmt.Errorf("platform %q: %w", text, errs.ErrInvalidSelection)
	}
	st.Platform = p.Key
	st.Step = AwaitingContent
	if m.dialectEnabled {
		st.Step = AwaitingDialect
	}
	m.cache.Set(userID, st, ttlcache.DefaultTTL)
	return st, nil
}

func (m *Machine) SelectDialect(userID int64, text string) (State, error) {
	st := m.Current(userID)
	if st.Step != AwaitingDialect {
		return st, fmt.Errorf("select dialect in %s: %w", st.Step, errs.ErrNoSession)
	}
	d, ok := m.catalog.MatchDialect(text)
	if !ok {
		return st, fmt.Errorf("dialect %q: %w", text, errs.ErrInvalidSelection)
	}
	st.Dialect = d.Key
	st.Step = AwaitingContent
	m.cache.Set(userID, st, ttlcache.DefaultTTL)
	return st, nil
}

// Take removes and returns a state in AwaitingContent. The flow is back at
// Idle whatever the caller does next.
func (m *Machine) Take(userID int64) (State, error) {
	st := m.Current(userID)
	if st.Step != AwaitingContent {
		return st, fmt.Errorf("take in %s: %w", st.Step, errs.ErrNoSession)
	}
	m.cache.Delete(userID)
	return st, nil
}

// Cancel discards any state. It reports whether there was one.
func (m *Machine) Cancel(userID int64) bool {
	_, found := m.cache.GetAndDelete(userID)
	return found
}

// Active is the number of users currently inside a flow.
func (m *Machine) Active() int { return m.cache.Len() }
