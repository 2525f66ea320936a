package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultIdleInterval matches the classic game's 100ms board check.
const DefaultIdleInterval = 100 * time.Millisecond

// Registry hands out session handles and drives the idle cascade check
// for every live session.
type Registry struct {
	log      *slog.Logger
	interval time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRegistry starts the idle loop; interval <= 0 disables it.
func NewRegistry(interval time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		log:      logger,
		interval: interval,
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
	if interval > 0 {
		r.wg.Add(1)
		go r.loop()
	}
	return r
}

// Create builds a new game and registers it under a fresh id.
func (r *Registry) Create(ctx context.Context, opts Options) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-r.done:
		return nil, ErrClosed
	default:
	}
	if opts.Logger == nil {
		opts.Logger = r.log
	}
	s, err := New(uuid.NewString(), opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[s.ID()] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.log.Info("session created", "session", s.ID(), "live", n)
	return s, nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove unregisters and closes the session, detaching any other views.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.Close()
		r.log.Info("session removed", "session", id)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the idle loop. Sessions stay readable.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() { close(r.done) })
	r.wg.Wait()
	return nil
}

func (r *Registry) loop() {
	defer r.wg.Done()
	t := time.NewTicker(r.interval)
	defer t.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		select {
		case <-r.done:
			return
		case <-t.C:
			r.tick(ctx)
		}
	}
}

func (r *Registry) tick(ctx context.Context) {
	r.mu.RLock()
	live := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		live = append(live, s)
	}
	r.mu.RUnlock()

	for _, s := range live {
		s.Idle(ctx)
	}
}
