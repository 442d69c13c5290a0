// Package session holds the client-side session/profile state: it listens for
// identity events, provisions the profile through the server endpoint and
// exposes the {user, profile, isLoading} snapshot to the rest of the client.
// The manager is an explicit, dependency-injected object handed down from the
// client's composition root, not an ambient singleton.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"voicenotes-backend-go/internal/models"
)

// AuthEvent is the kind of an identity change notification.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// Session is the transient identity reference issued by the identity service.
// It is never persisted here.
type Session struct {
	UserID string
	Email  string
}

// AuthNotifier is the identity service as seen by the manager: current
// session lookup, change notifications and remote sign-out.
type AuthNotifier interface {
	Current(ctx context.Context) (*Session, error)
	// Subscribe registers fn for identity change events and returns a
	// function releasing the subscription.
	Subscribe(fn func(event AuthEvent, session *Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}

// Provisioner obtains the profile for a signed-in user, creating it remotely
// when it does not exist yet.
type Provisioner interface {
	Provision(ctx context.Context, userID, email string) (*models.Profile, error)
}

// State is an immutable snapshot of the session state published to watchers.
type State struct {
	User      *Session
	Profile   *models.Profile
	IsLoading bool
}

// IsAuthenticated reports whether a user is signed in.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Manager synchronizes the client's session state with the identity service
// and the profile store. All state transitions are serialized by one mutex;
// watchers are invoked outside the lock.
type Manager struct {
	notifier    AuthNotifier
	provisioner Provisioner
	logger      *zap.Logger

	mu          sync.Mutex
	user        *Session
	profile     *models.Profile
	loading     bool
	closed      bool
	unsubscribe func()
	watchers    map[int]func(State)
	nextWatcher int
}

// NewManager creates a Manager. Call Start to begin synchronizing and Close
// when the owning UI tree goes away.
func NewManager(notifier AuthNotifier, provisioner Provisioner, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		notifier:    notifier,
		provisioner: provisioner,
		logger:      logger,
		loading:     true,
		watchers:    make(map[int]func(State)),
	}
}

// Start subscribes to identity change notifications and resolves the initial
// session. A pre-existing session is provisioned exactly like a fresh sign-in;
// no session resolves to the anonymous ready state.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.loading = true
	m.mu.Unlock()

	m.unsubscribe = m.notifier.Subscribe(func(event AuthEvent, session *Session) {
		m.handleEvent(context.Background(), event, session)
	})

	current, err := m.notifier.Current(ctx)
	if err != nil {
		m.logger.Warn("initial session lookup failed", zap.Error(err))
		m.setAnonymous()
		return err
	}
	if current == nil {
		m.setAnonymous()
		return nil
	}
	m.handleSignIn(ctx, current)
	return nil
}

// Close releases the notification subscription. Continuations of in-flight
// calls observe the closed flag and leave the state untouched; the network
// call itself is not aborted.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.watchers = nil
	m.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{User: m.user, Profile: m.profile, IsLoading: m.loading}
}

// Watch registers fn to be called with every published state, starting with
// the current one. The returned function cancels the registration.
func (m *Manager) Watch(fn func(State)) (cancel func()) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return func() {}
	}
	id := m.nextWatcher
	m.nextWatcher++
	m.watchers[id] = fn
	state := State{User: m.user, Profile: m.profile, IsLoading: m.loading}
	m.mu.Unlock()

	fn(state)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.watchers != nil {
			delete(m.watchers, id)
		}
	}
}

// UpdateCredits patches the in-memory profile's credit count. It is a
// cache-coherency shortcut for callers that already persisted the new balance
// remotely; no other field is touched and nothing goes over the wire.
func (m *Manager) UpdateCredits(newCredits int64) {
	m.mu.Lock()
	if m.closed || m.profile == nil {
		m.mu.Unlock()
		return
	}
	patched := *m.profile
	patched.Credits = newCredits
	m.profile = &patched
	state, fns := m.publishLocked()
	m.mu.Unlock()

	m.notifyWatchers(state, fns)
}

// SignOut marks the state as loading and requests remote sign-out. Clearing
// user and profile is left to the signed-out notification, so there is a
// single transition path and no double-clear race.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.loading = true
	state, fns := m.publishLocked()
	m.mu.Unlock()
	m.notifyWatchers(state, fns)

	return m.notifier.SignOut(ctx)
}

func (m *Manager) handleEvent(ctx context.Context, event AuthEvent, session *Session) {
	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return
	}

	switch event {
	case EventSignedIn:
		m.handleSignIn(ctx, session)
	case EventSignedOut:
		m.setAnonymous()
	case EventTokenRefreshed:
		// Identity unchanged; the profile does not need re-provisioning.
	default:
		m.logger.Debug("ignoring auth event", zap.String("event", string(event)))
	}
}

// handleSignIn stores the user immediately, provisions the profile and
// publishes the ready state. A provisioning failure degrades to a nil
// profile: the user stays signed in without profile-dependent features.
func (m *Manager) handleSignIn(ctx context.Context, session *Session) {
	if session == nil {
		m.setAnonymous()
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.user = session
	m.loading = true
	state, fns := m.publishLocked()
	m.mu.Unlock()
	m.notifyWatchers(state, fns)

	profile, err := m.provisioner.Provision(ctx, session.UserID, session.Email)
	if err != nil {
		m.logger.Warn("profile provisioning failed",
			zap.String("user_id", session.UserID), zap.Error(err))
		profile = nil
	}

	m.mu.Lock()
	if m.closed {
		// The owning tree is gone; do not write state after teardown.
		m.mu.Unlock()
		return
	}
	m.profile = profile
	m.loading = false
	state, fns = m.publishLocked()
	m.mu.Unlock()
	m.notifyWatchers(state, fns)
}

func (m *Manager) setAnonymous() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.user = nil
	m.profile = nil
	m.loading = false
	state, fns := m.publishLocked()
	m.mu.Unlock()
	m.notifyWatchers(state, fns)
}

// publishLocked snapshots the state and watcher list; the caller invokes the
// watchers after releasing the lock.
func (m *Manager) publishLocked() (State, []func(State)) {
	state := State{User: m.user, Profile: m.profile, IsLoading: m.loading}
	fns := make([]func(State), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	return state, fns
}

func (m *Manager) notifyWatchers(state State, fns []func(State)) {
	for _, fn := range fns {
		fn(state)
	}
}
