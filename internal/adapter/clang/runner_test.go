package clang

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations and delegates to a handler. Safe for the
// provider's concurrent workers.
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	handler func(dir, name string, args []string) (RunResult, error)
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) (RunResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()
	if f.handler == nil {
		return RunResult{}, nil
	}
	return f.handler(dir, name, args)
}

func (f *fakeRunner) callsFor(binary string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]string
	for _, call := range f.calls {
		if call[0] == binary {
			out = append(out, call)
		}
	}
	return out
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), t.TempDir(), "lintgate-no-such-binary")

	require.Error(t, err)
	require.Contains(t, err.Error(), "lintgate-no-such-binary")
}
