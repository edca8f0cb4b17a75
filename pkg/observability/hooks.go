package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/vozgraph/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(ctx context.Context, e *domain.CommandEvent) {
		logger.DebugContext(ctx, string(e.Type),
			"session_id", e.SessionID,
			"command", e.Command,
			"category", e.Category.String(),
			"valid", e.Valid,
		)
	}
	return domain.LifecycleHooks{
		OnAnalyze: log,
		OnRecord:  log,
		OnReset: func(ctx context.Context, sessionID string) {
			logger.InfoContext(ctx, string(domain.EventSessionReset), "session_id", sessionID)
		},
	}
}

// CombineHooks fans each callback out to every non-nil hook in order.
func CombineHooks(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAnalyze: func(ctx context.Context, e *domain.CommandEvent) {
			for _, h := range hooks {
				if h.OnAnalyze != nil {
					h.OnAnalyze(ctx, e)
				}
			}
		},
		OnRecord: func(ctx context.Context, e *domain.CommandEvent) {
			for _, h := range hooks {
				if h.OnRecord != nil {
					h.OnRecord(ctx, e)
				}
			}
		},
		OnReset: func(ctx context.Context, sessionID string) {
			for _, h := range hooks {
				if h.OnReset != nil {
					h.OnReset(ctx, sessionID)
				}
			}
		},
	}
}
