// Package observability bridges the transport logger into the use case
// layer, so orchestrator and publisher progress shares one structured
// output with the API clients.
package observability

import (
	"context"

	"github.com/lintgate/lintgate/internal/adapter/transport"
	"github.com/lintgate/lintgate/internal/usecase/publish"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

// Logger adapts transport.Logger to the use case logging interfaces.
type Logger struct {
	logger transport.Logger
}

// One adapter serves both use case packages; their logging interfaces
// are structurally identical on purpose.
var (
	_ review.Logger  = (*Logger)(nil)
	_ publish.Logger = (*Logger)(nil)
)

// NewLogger creates a use case logger backed by the given transport logger.
func NewLogger(logger transport.Logger) *Logger {
	return &Logger{logger: logger}
}

// LogWarning logs a warning message with structured fields.
func (l *Logger) LogWarning(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogWarning(ctx, message, fields)
}

// LogInfo logs an informational message with structured fields.
func (l *Logger) LogInfo(ctx context.Context, message string, fields map[string]interface{}) {
	l.logger.LogInfo(ctx, message, fields)
}
