package verification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-social-auth/internal/domain"
	"github.com/go-social-auth/internal/infrastructure/mailtmpl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// plainRenderer uses the code itself as the body.
type plainRenderer struct{}

func (plainRenderer) RenderVerify(code string) (string, error) { return code, nil }

// inbox records the last body delivered to each address.
type inbox struct {
	mu   sync.Mutex
	last map[string]string
	sent int
}

func newInbox() *inbox { return &inbox{last: make(map[string]string)} }

func (b *inbox) SendEmail(to, _, body string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[to] = body
	b.sent++
	return nil
}

func (b *inbox) code(to string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last[to]
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockRenderer struct{ mock.Mock }

func (m *mockRenderer) RenderVerify(code string) (string, error) {
	args := m.Called(code)
	return args.String(0), args.Error(1)
}

// --- builder ---

func defaultConfig() Config {
	return Config{
		Alphabet:      "0123456789",
		Length:        6,
		Expiry:        5 * time.Minute,
		SweepInterval: time.Second,
	}
}

func newTestStore(cfg Config, m Mailer, clock *fakeClock) *Store {
	return NewStore(StoreDeps{Config: cfg, Mailer: m, Renderer: plainRenderer{}, Clock: clock.Now})
}

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

// --- StartVerify / EndVerify ---

func TestStartEnd_DeliveredSixDigitCodeRedeems(t *testing.T) {
	ml := &mockMailer{}
	var delivered string
	ml.On("SendEmail", "a@example.com", mailtmpl.VerifySubject, mock.Anything).
		Run(func(args mock.Arguments) { delivered = args.String(2) }).
		Return(nil).Once()

	s := newTestStore(defaultConfig(), ml, newFakeClock())
	require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))

	assert.Regexp(t, sixDigits, delivered)
	email, err := s.EndVerify(context.Background(), "a@example.com", delivered)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
	ml.AssertExpectations(t)
}

func TestEndVerify_RedeemsExactlyOnce(t *testing.T) {
	box := newInbox()
	s := newTestStore(defaultConfig(), box, newFakeClock())
	require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))
	code := box.code("a@example.com")

	_, err := s.EndVerify(context.Background(), "a@example.com", code)
	require.NoError(t, err)

	_, err = s.EndVerify(context.Background(), "a@example.com", code)
	assert.ErrorIs(t, err, domain.ErrNotVerified)
}

func TestEndVerify_WrongCodeConsumesChallenge(t *testing.T) {
	cfg := defaultConfig()
	cfg.Alphabet = "AB"
	cfg.Length = 8
	box := newInbox()
	s := newTestStore(cfg, box, newFakeClock())
	require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))
	code := box.code("a@example.com")

	_, err := s.EndVerify(context.Background(), "a@example.com", "not-the-code")
	assert.ErrorIs(t, err, domain.ErrNotVerified)
	assert.Equal(t, 0, s.Len())

	_, err = s.EndVerify(context.Background(), "a@example.com", code)
	assert.ErrorIs(t, err, domain.ErrNotVerified, "a failed attempt must not leave the challenge for a retry")
}

func TestEndVerify_NoChallenge(t *testing.T) {
	s := newTestStore(defaultConfig(), newInbox(), newFakeClock())
	_, err := s.EndVerify(context.Background(), "nobody@example.com", "123456")
	assert.ErrorIs(t, err, domain.ErrNotVerified)
}

func TestStartVerify_ReissueReplacesEarlierChallenge(t *testing.T) {
	cfg := defaultConfig()
	cfg.Length = 32
	box := newInbox()
	s := newTestStore(cfg, box, newFakeClock())

	require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))
	first := box.code("a@example.com")
	require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))
	second := box.code("a@example.com")
	require.NotEqual(t, first, second)
	assert.Equal(t, 1, s.Len())

	_, err := s.EndVerify(context.Background(), "a@example.com", second)
	assert.NoError(t, err)
}

func TestStartVerify_DeliveryFailureInstallsNothing(t *testing.T) {
	ml := &mockMailer{}
	ml.On("SendEmail", "a@example.com", mock.Anything, mock.Anything).Return(errors.New("relay down"))

	s := newTestStore(defaultConfig(), ml, newFakeClock())
	err := s.StartVerify(context.Background(), "a@example.com")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependency)
	assert.Equal(t, 0, s.Len())
}

func TestStartVerify_RenderFailureSkipsDelivery(t *testing.T) {
	ml := &mockMailer{}
	rd := &mockRenderer{}
	rd.On("RenderVerify", mock.Anything).Return("", errors.New("template broken"))

	s := NewStore(StoreDeps{Config: defaultConfig(), Mailer: ml, Renderer: rd})
	err := s.StartVerify(context.Background(), "a@example.com")

	assert.ErrorIs(t, err, domain.ErrDependency)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 0, s.Len())
}

func TestStartVerify_MalformedEmail(t *testing.T) {
	ml := &mockMailer{}
	s := newTestStore(defaultConfig(), ml, newFakeClock())

	err := s.StartVerify(context.Background(), "not-an-email")

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

// --- expiry and sweep ---

func TestSweep_EvictsExpiredChallenge(t *testing.T) {
	clock := newFakeClock()
	box := newInbox()
	s := newTestStore(defaultConfig(), box, clock)
	require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))
	code := box.code("a@example.com")

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Len())

	_, err := s.EndVerify(context.Background(), "a@example.com", code)
	assert.ErrorIs(t, err, domain.ErrNotVerified)
}

func TestSweep_KeepsFreshChallenges(t *testing.T) {
	clock := newFakeClock()
	box := newInbox()
	s := newTestStore(defaultConfig(), box, clock)
	require.NoError(t, s.StartVerify(context.Background(), "old@example.com"))
	clock.Advance(4 * time.Minute)
	require.NoError(t, s.StartVerify(context.Background(), "new@example.com"))
	clock.Advance(time.Minute)

	assert.Equal(t, 1, s.Sweep())

	_, err := s.EndVerify(context.Background(), "new@example.com", box.code("new@example.com"))
	assert.NoError(t, err)
}

func TestEndVerify_ExpiredBeforeSweep(t *testing.T) {
	clock := newFakeClock()
	box := newInbox()
	s := newTestStore(defaultConfig(), box, clock)
	require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))

	clock.Advance(6 * time.Minute)
	_, err := s.EndVerify(context.Background(), "a@example.com", box.code("a@example.com"))
	assert.ErrorIs(t, err, domain.ErrNotVerified)
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	clock := newFakeClock()
	cfg := defaultConfig()
	cfg.SweepInterval = 5 * time.Millisecond
	s := newTestStore(cfg, newInbox(), clock)
	require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	clock.Advance(cfg.Expiry)
	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

// --- concurrency ---

func TestConcurrentIssuance_DistinctEmailsRedeemIndependently(t *testing.T) {
	const n = 1000
	box := newInbox()
	s := newTestStore(defaultConfig(), box, newFakeClock())

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.StartVerify(context.Background(), fmt.Sprintf("user%d@example.com", i)))
		}(i)
	}
	wg.Wait()
	require.Equal(t, n, s.Len())

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("user%d@example.com", i)
			got, err := s.EndVerify(context.Background(), email, box.code(email))
			assert.NoError(t, err)
			assert.Equal(t, email, got)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, s.Len())
}

func TestConcurrentRedemption_OnlyOneSucceeds(t *testing.T) {
	box := newInbox()
	s := newTestStore(defaultConfig(), box, newFakeClock())

	for round := 0; round < 200; round++ {
		require.NoError(t, s.StartVerify(context.Background(), "a@example.com"))
		code := box.code("a@example.com")

		var wins atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := s.EndVerify(context.Background(), "a@example.com", code); err == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		require.Equal(t, int32(1), wins.Load(), "round %d", round)
	}
}

func TestSweep_ConcurrentWithTraffic(t *testing.T) {
	clock := newFakeClock()
	box := newInbox()
	s := newTestStore(defaultConfig(), box, clock)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				s.Sweep()
			}
		}
	}()

	for i := 0; i < 100; i++ {
		email := fmt.Sprintf("live%d@example.com", i)
		require.NoError(t, s.StartVerify(context.Background(), email))
		_, err := s.EndVerify(context.Background(), email, box.code(email))
		assert.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}
