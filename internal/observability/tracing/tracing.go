package tracing

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type traceID struct{}

func InjectTraceID(ctx context.Context) context.Context {
	id := uuid.New().String()
	logger := log.With().Str("traceId", id).Logger()
	return logger.WithContext(ctx)
}

// InjectJobID scopes the context logger to one recompute job so every line
// written by its workers carries the job id.
func InjectJobID(ctx context.Context, jobID string) context.Context {
	logger := log.Ctx(ctx).With().Str("jobId", jobID).Logger()
	return logger.WithContext(ctx)
}
