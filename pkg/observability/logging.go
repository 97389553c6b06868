package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/storyline/pkg/domain"
)

// LogHooks writes every lifecycle event to logger at debug level, and
// timeouts and errors at info and warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			logger.DebugContext(ctx, "session_start",
				"session_id", e.SessionID,
				"reader_id", int64(e.ReaderID),
				"passage", e.Passage,
			)
		},
		OnPassageEnter: func(ctx context.Context, e *domain.PassageEvent) {
			logger.DebugContext(ctx, "passage_enter",
				"session_id", e.SessionID,
				"passage", e.Passage,
				"tutorial", e.Tutorial,
				"choices", e.Choices,
			)
		},
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) {
			logger.DebugContext(ctx, "choice",
				"session_id", e.SessionID,
				"from", e.From,
				"to", e.Target,
			)
		},
		OnTimeout: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "choice_timeout",
				"session_id", e.SessionID,
				"reader_id", int64(e.ReaderID),
				"passage", e.Passage,
			)
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			level := slog.LevelDebug
			if e.Reason == domain.EndError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "session_end",
				"session_id", e.SessionID,
				"reader_id", int64(e.ReaderID),
				"reason", e.Reason,
				"err", e.Err,
			)
		},
	}
}
