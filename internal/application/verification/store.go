package verification

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-social-auth/internal/config"
	"github.com/go-social-auth/internal/domain"
	"github.com/go-social-auth/internal/infrastructure/mailtmpl"
	"github.com/go-social-auth/internal/pkg/token"
	"github.com/go-social-auth/internal/pkg/validate"
)

// shardCount must stay a power of two; shardFor masks the hash with it.
const shardCount = 64

// Mailer delivers a rendered message.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// Renderer turns a code into an e-mail body.
type Renderer interface {
	RenderVerify(code string) (string, error)
}

// Config is the challenge policy: code shape, lifetime and sweep cadence.
type Config struct {
	Alphabet      string
	Length        int
	Expiry        time.Duration
	SweepInterval time.Duration
}

// ConfigFrom extracts the challenge policy from the process configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Alphabet:      cfg.VerifyCodeAlphabet,
		Length:        cfg.VerifyCodeLength,
		Expiry:        cfg.VerifyCodeExpiry,
		SweepInterval: cfg.SweepInterval,
	}
}

type StoreDeps struct {
	Config   Config
	Mailer   Mailer
	Renderer Renderer
	Clock    func() time.Time // defaults to time.Now
}

type entry struct {
	code     string
	issuedAt time.Time
}

type shard struct {
	mu      sync.Mutex
	entries map[string]entry
}

// Store holds at most one outstanding challenge per e-mail address.
//
// Entries are striped over shards by key hash. Every operation on a key holds only
// that key's shard lock, and only for the map access itself, so unrelated keys
// proceed in parallel and delivery never runs under a lock.
type Store struct {
	shards   [shardCount]shard
	cfg      Config
	mailer   Mailer
	renderer Renderer
	now      func() time.Time
}

func NewStore(deps StoreDeps) *Store {
	s := &Store{
		cfg:      deps.Config,
		mailer:   deps.Mailer,
		renderer: deps.Renderer,
		now:      deps.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}
	for i := range s.shards {
		s.shards[i].entries = make(map[string]entry)
	}
	return s
}

func (s *Store) shardFor(email string) *shard {
	return &s.shards[xxhash.Sum64String(email)&(shardCount-1)]
}

// StartVerify generates a code, delivers it to email and only then installs it,
// replacing any earlier challenge for the same address. Nothing is installed if
// rendering or delivery fails.
func (s *Store) StartVerify(ctx context.Context, email string) error {
	if err := validate.Email(email); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	code, err := token.Generate(s.cfg.Length, s.cfg.Alphabet)
	if err != nil {
		return fmt.Errorf("generate verification code: %v: %w", err, domain.ErrDependency)
	}
	body, err := s.renderer.RenderVerify(code)
	if err != nil {
		return fmt.Errorf("render verification email: %v: %w", err, domain.ErrDependency)
	}
	if err := s.mailer.SendEmail(email, mailtmpl.VerifySubject, body); err != nil {
		slog.WarnContext(ctx, "verification email delivery failed", "err", err)
		return fmt.Errorf("send verification email: %v: %w", err, domain.ErrDependency)
	}

	sh := s.shardFor(email)
	sh.mu.Lock()
	sh.entries[email] = entry{code: code, issuedAt: s.now()}
	sh.mu.Unlock()

	slog.DebugContext(ctx, "verification challenge issued")
	return nil
}

// EndVerify redeems the challenge for email. The entry is removed whether or not
// the code matches, so every challenge is good for exactly one attempt.
func (s *Store) EndVerify(ctx context.Context, email, code string) (string, error) {
	sh := s.shardFor(email)
	sh.mu.Lock()
	e, ok := sh.entries[email]
	delete(sh.entries, email)
	sh.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("no pending challenge: %w", domain.ErrNotVerified)
	}
	if s.expired(e, s.now()) {
		return "", fmt.Errorf("challenge expired: %w", domain.ErrNotVerified)
	}
	if subtle.ConstantTimeCompare([]byte(e.code), []byte(code)) != 1 {
		slog.DebugContext(ctx, "verification code mismatch")
		return "", fmt.Errorf("code mismatch: %w", domain.ErrNotVerified)
	}
	return email, nil
}

// Sweep evicts every challenge older than the configured expiry and returns how
// many were removed. Shards are locked one at a time.
func (s *Store) Sweep() int {
	now := s.now()
	evicted := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for email, e := range sh.entries {
			if s.expired(e, now) {
				delete(sh.entries, email)
				evicted++
			}
		}
		sh.mu.Unlock()
	}
	return evicted
}

// Run sweeps every SweepInterval until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Info("evicted expired verification challenges", "count", n)
			}
		}
	}
}

// Len returns the number of outstanding challenges.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		n += len(sh.entries)
		sh.mu.Unlock()
	}
	return n
}

func (s *Store) expired(e entry, now time.Time) bool {
	return now.Sub(e.issuedAt) >= s.cfg.Expiry
}
