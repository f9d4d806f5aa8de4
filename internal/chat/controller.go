package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"advisor-chat/internal/domain"
	"advisor-chat/internal/relayclient"
)

type Relay interface {
	Chat(ctx context.Context, req domain.RelayRequest) (string, error)
}

// Controller owns a Session and performs the relay calls it asks for. The
// onChange callback receives every committed Session in commit order; it runs
// under the controller lock and must not call back into the Controller.
type Controller struct {
	relay    Relay
	logger   *slog.Logger
	timeout  time.Duration
	onChange func(Session)

	mu      sync.Mutex
	session Session
	wg      sync.WaitGroup
}

type Option func(*Controller)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTimeout bounds each relay call. Zero means no client-side bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

func WithOnChange(fn func(Session)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

func NewController(relay Relay, opts ...Option) (*Controller, error) {
	if relay == nil {
		return nil, errors.New("chat: relay must not be nil")
	}
	c := &Controller{
		relay:   relay,
		logger:  slog.Default(),
		session: NewSession(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Snapshot returns the current Session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Controller) SwitchCategory(tab domain.Category) {
	c.commit(func(s Session) Session { return s.SwitchCategory(tab) })
}

// Submit sends text unless it is blank. It returns ErrBusy while a reply is
// pending. The reply is applied asynchronously.
func (c *Controller) Submit(ctx context.Context, text string) error {
	return c.submit(ctx, func(s Session) (Session, *Submission, error) { return s.Submit(text) })
}

func (c *Controller) QuickQuestion(ctx context.Context, i int) error {
	return c.submit(ctx, func(s Session) (Session, *Submission, error) { return s.QuickQuestion(i) })
}

// Wait blocks until all dispatched relay calls have been applied.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) submit(ctx context.Context, step func(Session) (Session, *Submission, error)) error {
	c.mu.Lock()
	next, sub, err := step(c.session)
	if err != nil || sub == nil {
		c.mu.Unlock()
		return err
	}
	c.session = next
	c.wg.Add(1)
	c.notify(next)
	c.mu.Unlock()

	go c.dispatch(ctx, sub)
	return nil
}

func (c *Controller) dispatch(ctx context.Context, sub *Submission) {
	defer c.wg.Done()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reply, err := c.relay.Chat(ctx, sub.Request)
	if err != nil {
		var statusErr *relayclient.StatusError
		if errors.As(err, &statusErr) {
			c.logger.Warn("relay returned an error", "status", statusErr.StatusCode, "error", statusErr.Message)
		} else {
			c.logger.Error("relay call failed", "err", err)
		}
		c.commit(func(s Session) Session { return s.Fail(sub.Epoch) })
		return
	}
	c.commit(func(s Session) Session { return s.Complete(sub.Epoch, reply) })
}

func (c *Controller) commit(step func(Session) Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = step(c.session)
	c.notify(c.session)
}

func (c *Controller) notify(s Session) {
	if c.onChange != nil {
		c.onChange(s)
	}
}
