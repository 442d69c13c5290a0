package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenotes-backend-go/internal/models"
	"voicenotes-backend-go/internal/session"
)

// fakeNotifier is an in-process identity service: tests drive it by emitting
// events.
type fakeNotifier struct {
	mu          sync.Mutex
	current     *session.Session
	subscribers []func(session.AuthEvent, *session.Session)
	signOuts    int
}

func (n *fakeNotifier) Current(context.Context) (*session.Session, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current, nil
}

func (n *fakeNotifier) Subscribe(fn func(session.AuthEvent, *session.Session)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	idx := len(n.subscribers)
	n.subscribers = append(n.subscribers, fn)
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.subscribers[idx] = nil
	}
}

func (n *fakeNotifier) SignOut(context.Context) error {
	n.mu.Lock()
	n.signOuts++
	n.current = nil
	fns := append([]func(session.AuthEvent, *session.Session){}, n.subscribers...)
	n.mu.Unlock()

	for _, fn := range fns {
		if fn != nil {
			fn(session.EventSignedOut, nil)
		}
	}
	return nil
}

func (n *fakeNotifier) emit(event session.AuthEvent, s *session.Session) {
	n.mu.Lock()
	n.current = s
	fns := append([]func(session.AuthEvent, *session.Session){}, n.subscribers...)
	n.mu.Unlock()

	for _, fn := range fns {
		if fn != nil {
			fn(event, s)
		}
	}
}

type fakeProvisioner struct {
	mu          sync.Mutex
	provisionFn func(ctx context.Context, userID, email string) (*models.Profile, error)
	calls       int
}

func (p *fakeProvisioner) Provision(ctx context.Context, userID, email string) (*models.Profile, error) {
	p.mu.Lock()
	p.calls++
	fn := p.provisionFn
	p.mu.Unlock()
	if fn == nil {
		return models.NewDefaultProfile(userID, email, time.Now().UTC()), nil
	}
	return fn(ctx, userID, email)
}

func (p *fakeProvisioner) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestManager_Start(t *testing.T) {
	t.Run("no session resolves to the anonymous ready state", func(t *testing.T) {
		notifier := &fakeNotifier{}
		provisioner := &fakeProvisioner{}
		m := session.NewManager(notifier, provisioner, nil)
		defer m.Close()

		require.NoError(t, m.Start(context.Background()))

		state := m.Snapshot()
		assert.Nil(t, state.User)
		assert.Nil(t, state.Profile)
		assert.False(t, state.IsLoading)
		assert.False(t, state.IsAuthenticated())
		assert.Equal(t, 0, provisioner.callCount())
	})

	t.Run("restored session is provisioned like a fresh sign-in", func(t *testing.T) {
		notifier := &fakeNotifier{current: &session.Session{UserID: "u1", Email: "a@b.com"}}
		provisioner := &fakeProvisioner{}
		m := session.NewManager(notifier, provisioner, nil)
		defer m.Close()

		require.NoError(t, m.Start(context.Background()))

		state := m.Snapshot()
		require.NotNil(t, state.User)
		assert.Equal(t, "u1", state.User.UserID)
		require.NotNil(t, state.Profile)
		assert.Equal(t, int64(25), state.Profile.Credits)
		assert.False(t, state.IsLoading)
		assert.True(t, state.IsAuthenticated())
		assert.Equal(t, 1, provisioner.callCount())
	})
}

func TestManager_AuthEvents(t *testing.T) {
	t.Run("sign-in provisions the profile", func(t *testing.T) {
		notifier := &fakeNotifier{}
		provisioner := &fakeProvisioner{}
		m := session.NewManager(notifier, provisioner, nil)
		defer m.Close()
		require.NoError(t, m.Start(context.Background()))

		notifier.emit(session.EventSignedIn, &session.Session{UserID: "u1", Email: "a@b.com"})

		state := m.Snapshot()
		assert.True(t, state.IsAuthenticated())
		require.NotNil(t, state.Profile)
		assert.Equal(t, 1, provisioner.callCount())
	})

	t.Run("token refresh does not re-provision", func(t *testing.T) {
		notifier := &fakeNotifier{current: &session.Session{UserID: "u1", Email: "a@b.com"}}
		provisioner := &fakeProvisioner{}
		m := session.NewManager(notifier, provisioner, nil)
		defer m.Close()
		require.NoError(t, m.Start(context.Background()))
		require.Equal(t, 1, provisioner.callCount())

		notifier.emit(session.EventTokenRefreshed, &session.Session{UserID: "u1", Email: "a@b.com"})

		assert.Equal(t, 1, provisioner.callCount())
		assert.True(t, m.Snapshot().IsAuthenticated())
	})

	t.Run("signed-out clears user and profile regardless of prior state", func(t *testing.T) {
		notifier := &fakeNotifier{current: &session.Session{UserID: "u1", Email: "a@b.com"}}
		m := session.NewManager(notifier, &fakeProvisioner{}, nil)
		defer m.Close()
		require.NoError(t, m.Start(context.Background()))
		require.True(t, m.Snapshot().IsAuthenticated())

		notifier.emit(session.EventSignedOut, nil)

		state := m.Snapshot()
		assert.Nil(t, state.User)
		assert.Nil(t, state.Profile)
		assert.False(t, state.IsLoading)
	})

	t.Run("provisioning failure leaves the user signed in without a profile", func(t *testing.T) {
		notifier := &fakeNotifier{}
		provisioner := &fakeProvisioner{
			provisionFn: func(context.Context, string, string) (*models.Profile, error) {
				return nil, errors.New("backend unreachable")
			},
		}
		m := session.NewManager(notifier, provisioner, nil)
		defer m.Close()
		require.NoError(t, m.Start(context.Background()))

		notifier.emit(session.EventSignedIn, &session.Session{UserID: "u1", Email: "a@b.com"})

		state := m.Snapshot()
		assert.True(t, state.IsAuthenticated())
		assert.Nil(t, state.Profile)
		assert.False(t, state.IsLoading)
	})
}

func TestManager_SignOut(t *testing.T) {
	notifier := &fakeNotifier{current: &session.Session{UserID: "u1", Email: "a@b.com"}}
	m := session.NewManager(notifier, &fakeProvisioner{}, nil)
	defer m.Close()
	require.NoError(t, m.Start(context.Background()))
	require.True(t, m.Snapshot().IsAuthenticated())

	require.NoError(t, m.SignOut(context.Background()))

	// Clearing happens through the signed-out notification, which the fake
	// notifier delivers synchronously from SignOut.
	state := m.Snapshot()
	assert.Nil(t, state.User)
	assert.Nil(t, state.Profile)
	assert.False(t, state.IsLoading)
	assert.Equal(t, 1, notifier.signOuts)
}

func TestManager_UpdateCredits(t *testing.T) {
	t.Run("patches only the credit count", func(t *testing.T) {
		notifier := &fakeNotifier{current: &session.Session{UserID: "u1", Email: "a@b.com"}}
		m := session.NewManager(notifier, &fakeProvisioner{}, nil)
		defer m.Close()
		require.NoError(t, m.Start(context.Background()))
		before := m.Snapshot().Profile
		require.NotNil(t, before)

		m.UpdateCredits(1025)

		after := m.Snapshot().Profile
		require.NotNil(t, after)
		assert.Equal(t, int64(1025), after.Credits)
		assert.Equal(t, before.Email, after.Email)
		assert.Equal(t, before.CurrentPlan, after.CurrentPlan)
		assert.Equal(t, before.PlanSelected, after.PlanSelected)
		assert.Equal(t, before.CreatedAt, after.CreatedAt)
		// Snapshots taken before the patch are unchanged.
		assert.Equal(t, int64(25), before.Credits)
	})

	t.Run("is a no-op without a profile", func(t *testing.T) {
		notifier := &fakeNotifier{}
		m := session.NewManager(notifier, &fakeProvisioner{}, nil)
		defer m.Close()
		require.NoError(t, m.Start(context.Background()))

		m.UpdateCredits(1025)
		assert.Nil(t, m.Snapshot().Profile)
	})
}

func TestManager_Watch(t *testing.T) {
	notifier := &fakeNotifier{}
	m := session.NewManager(notifier, &fakeProvisioner{}, nil)
	defer m.Close()
	require.NoError(t, m.Start(context.Background()))

	var mu sync.Mutex
	var states []session.State
	cancel := m.Watch(func(s session.State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	notifier.emit(session.EventSignedIn, &session.Session{UserID: "u1", Email: "a@b.com"})

	mu.Lock()
	// Immediate replay, then the loading and ready transitions of the sign-in.
	require.GreaterOrEqual(t, len(states), 3)
	assert.False(t, states[0].IsAuthenticated())
	last := states[len(states)-1]
	mu.Unlock()
	assert.True(t, last.IsAuthenticated())
	assert.NotNil(t, last.Profile)

	cancel()
	mu.Lock()
	count := len(states)
	mu.Unlock()
	notifier.emit(session.EventSignedOut, nil)
	mu.Lock()
	assert.Equal(t, count, len(states), "cancelled watcher must not be called")
	mu.Unlock()
}

func TestManager_Close(t *testing.T) {
	t.Run("events after close leave the state untouched", func(t *testing.T) {
		notifier := &fakeNotifier{}
		provisioner := &fakeProvisioner{}
		m := session.NewManager(notifier, provisioner, nil)
		require.NoError(t, m.Start(context.Background()))

		m.Close()
		notifier.emit(session.EventSignedIn, &session.Session{UserID: "u1", Email: "a@b.com"})

		state := m.Snapshot()
		assert.Nil(t, state.User)
		assert.Equal(t, 0, provisioner.callCount())
	})

	t.Run("in-flight provisioning does not write state after close", func(t *testing.T) {
		release := make(chan struct{})
		notifier := &fakeNotifier{}
		provisioner := &fakeProvisioner{
			provisionFn: func(_ context.Context, userID, email string) (*models.Profile, error) {
				<-release
				return models.NewDefaultProfile(userID, email, time.Now().UTC()), nil
			},
		}
		m := session.NewManager(notifier, provisioner, nil)
		require.NoError(t, m.Start(context.Background()))

		done := make(chan struct{})
		go func() {
			defer close(done)
			notifier.emit(session.EventSignedIn, &session.Session{UserID: "u1", Email: "a@b.com"})
		}()

		// Tear down while the provisioning call is still blocked.
		for provisioner.callCount() == 0 {
			time.Sleep(time.Millisecond)
		}
		m.Close()
		close(release)
		<-done

		state := m.Snapshot()
		assert.Nil(t, state.Profile)
	})
}
