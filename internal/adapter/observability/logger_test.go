package observability_test

import (
	"bytes"
	"context"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lintgate/lintgate/internal/adapter/observability"
	"github.com/lintgate/lintgate/internal/adapter/transport"
)

func TestNewLogger(t *testing.T) {
	base := transport.NewDefaultLogger(transport.LogLevelInfo, transport.LogFormatHuman)
	logger := observability.NewLogger(base)

	require.NotNil(t, logger)
}

func TestLogger_LogWarning(t *testing.T) {
	// Capture log output
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	base := transport.NewDefaultLogger(transport.LogLevelInfo, transport.LogFormatHuman)
	logger := observability.NewLogger(base)

	logger.LogWarning(context.Background(), "failed to journal run", map[string]interface{}{
		"runID": "run-123",
		"error": "database is locked",
	})

	output := buf.String()
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "failed to journal run")
	assert.Contains(t, output, "runID=run-123")
	assert.Contains(t, output, "error=database is locked")
}

func TestLogger_LogInfo(t *testing.T) {
	// Capture log output
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	base := transport.NewDefaultLogger(transport.LogLevelInfo, transport.LogFormatHuman)
	logger := observability.NewLogger(base)

	logger.LogInfo(context.Background(), "review submitted", map[string]interface{}{
		"runID":    "run-456",
		"comments": 3,
	})

	output := buf.String()
	assert.Contains(t, output, "[INFO]")
	assert.Contains(t, output, "review submitted")
	assert.Contains(t, output, "comments=3")
	assert.Contains(t, output, "runID=run-456")
}

func TestLogger_LevelGateSilencesInfo(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	base := transport.NewDefaultLogger(transport.LogLevelWarn, transport.LogFormatHuman)
	logger := observability.NewLogger(base)

	logger.LogInfo(context.Background(), "quiet please", nil)

	assert.Empty(t, buf.String())
}
