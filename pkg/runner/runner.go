package runner

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/storyline/internal/logging"
	"github.com/aretw0/storyline/pkg/domain"
)

// Player plays one reader's session. *runtime.Engine satisfies it.
type Player interface {
	Play(ctx context.Context, readerID domain.ReaderID) error
}

// Runner plays a single session in the foreground, stopping on SIGINT/SIGTERM
// or when the interrupt source fires.
type Runner struct {
	player    Player
	reader    domain.ReaderID
	logger    *slog.Logger
	interrupt <-chan struct{}
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithInterruptSource stops the session when ch is closed.
func WithInterruptSource(ch <-chan struct{}) Option {
	return func(r *Runner) {
		r.interrupt = ch
	}
}

// New creates a runner for reader.
func New(player Player, reader domain.ReaderID, opts ...Option) *Runner {
	r := &Runner{
		player: player,
		reader: reader,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays the session. A user quit, an OS signal or the end of input is a
// clean exit.
func (r *Runner) Run(ctx context.Context) error {
	signals := NewSignalManager(ctx)
	defer signals.Stop()

	ctx, cancel := context.WithCancel(signals.Context())
	defer cancel()

	if r.interrupt != nil {
		go func() {
			select {
			case <-r.interrupt:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	err := r.player.Play(ctx, r.reader)
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInputClosed) {
		r.logger.Debug("Reader input closed", "reader_id", int64(r.reader))
		return nil
	}
	signals.CheckRace()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		r.logger.Debug("Session interrupted", "reader_id", int64(r.reader))
		return nil
	}
	return err
}
