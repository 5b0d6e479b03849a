package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvString(t *testing.T) {
	// Set test environment variables
	os.Setenv("TEST_STYLE", "google")
	os.Setenv("TEST_BUILD_DIR", "/path/to/build")
	defer os.Unsetenv("TEST_STYLE")
	defer os.Unsetenv("TEST_BUILD_DIR")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand ${VAR} syntax",
			input:    "${TEST_STYLE}",
			expected: "google",
		},
		{
			name:     "expand $VAR syntax",
			input:    "$TEST_STYLE",
			expected: "google",
		},
		{
			name:     "expand in middle of string",
			input:    "style:${TEST_STYLE}:end",
			expected: "style:google:end",
		},
		{
			name:     "expand multiple variables",
			input:    "${TEST_STYLE}:${TEST_BUILD_DIR}",
			expected: "google:/path/to/build",
		},
		{
			name:     "leave non-existent var unchanged",
			input:    "${NONEXISTENT_VAR}",
			expected: "${NONEXISTENT_VAR}",
		},
		{
			name:     "handle empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "handle string without variables",
			input:    "plain-text",
			expected: "plain-text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvString(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExpandEnvString_TildeExpansion(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "expand tilde at start",
			input:    "~/.config/lintgate/lintgate.db",
			expected: home + "/.config/lintgate/lintgate.db",
		},
		{
			name:     "expand tilde alone",
			input:    "~",
			expected: home,
		},
		{
			name:     "expand tilde with trailing slash",
			input:    "~/",
			expected: home + "/",
		},
		{
			name:     "do not expand tilde in middle",
			input:    "/path/~/file",
			expected: "/path/~/file", // Tilde only expands at start
		},
		{
			name:     "do not expand escaped tilde",
			input:    "\\~/.config",
			expected: "\\~/.config", // Escaped tilde stays literal
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvString(tt.input)
			assert.Equal(t, tt.expected, result, "input: %s", tt.input)
		})
	}
}

func TestExpandEnvStringSlice(t *testing.T) {
	// Set test environment variables
	os.Setenv("IGNORE_1", "third_party")
	os.Setenv("IGNORE_2", "vendor")
	defer os.Unsetenv("IGNORE_1")
	defer os.Unsetenv("IGNORE_2")

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "expand single element",
			input:    []string{"${IGNORE_1}"},
			expected: []string{"third_party"},
		},
		{
			name:     "expand multiple elements",
			input:    []string{"${IGNORE_1}", "${IGNORE_2}"},
			expected: []string{"third_party", "vendor"},
		},
		{
			name:     "expand mixed with plain text",
			input:    []string{"plain", "${IGNORE_1}", "another"},
			expected: []string{"plain", "third_party", "another"},
		},
		{
			name:     "handle empty slice",
			input:    []string{},
			expected: []string{},
		},
		{
			name:     "handle nil slice",
			input:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvStringSlice(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("BUILD_DIR", "/custom/build")
	os.Setenv("STORE_PATH", "/data/lintgate.db")
	os.Setenv("SARIF_PATH", "/out/findings.sarif")
	defer os.Unsetenv("BUILD_DIR")
	defer os.Unsetenv("STORE_PATH")
	defer os.Unsetenv("SARIF_PATH")

	cfg := Config{
		Tools: ToolsConfig{
			BuildDir:  "${BUILD_DIR}",
			ExtraArgs: []string{"-I${BUILD_DIR}/include"},
		},
		Output: OutputConfig{
			SARIF: "${SARIF_PATH}",
		},
		Store: StoreConfig{
			Path: "${STORE_PATH}",
		},
	}

	expanded := expandEnvVars(cfg)

	assert.Equal(t, "/custom/build", expanded.Tools.BuildDir)
	assert.Equal(t, []string{"-I/custom/build/include"}, expanded.Tools.ExtraArgs)
	assert.Equal(t, "/out/findings.sarif", expanded.Output.SARIF)
	assert.Equal(t, "/data/lintgate.db", expanded.Store.Path)
}

func TestExpandEnvVars_StorePathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	assert.NoError(t, err)

	cfg := Config{
		Store: StoreConfig{
			Enabled: true,
			Path:    "~/.config/lintgate/lintgate.db",
		},
	}

	expanded := expandEnvVars(cfg)

	expected := home + "/.config/lintgate/lintgate.db"
	assert.Equal(t, expected, expanded.Store.Path, "Tilde in store.path should be expanded to home directory")
}

func TestPullNumberFromEvent(t *testing.T) {
	writeEvent := func(t *testing.T, payload string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "event.json")
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
		return path
	}

	t.Run("pull_request event", func(t *testing.T) {
		path := writeEvent(t, `{"number": 42, "pull_request": {"number": 42}}`)
		assert.Equal(t, 42, pullNumberFromEvent(path))
	})

	t.Run("nested number wins", func(t *testing.T) {
		path := writeEvent(t, `{"number": 1, "pull_request": {"number": 2}}`)
		assert.Equal(t, 2, pullNumberFromEvent(path))
	})

	t.Run("top-level number only", func(t *testing.T) {
		path := writeEvent(t, `{"number": 9}`)
		assert.Equal(t, 9, pullNumberFromEvent(path))
	})

	t.Run("no number at all", func(t *testing.T) {
		path := writeEvent(t, `{"action": "push"}`)
		assert.Equal(t, 0, pullNumberFromEvent(path))
	})

	t.Run("empty path", func(t *testing.T) {
		assert.Equal(t, 0, pullNumberFromEvent(""))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Equal(t, 0, pullNumberFromEvent(filepath.Join(t.TempDir(), "absent.json")))
	})

	t.Run("malformed payload", func(t *testing.T) {
		path := writeEvent(t, `{"number": `)
		assert.Equal(t, 0, pullNumberFromEvent(path))
	})
}

func TestLocateConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lintgate.yaml")
	require.NoError(t, os.WriteFile(file, []byte("review: {}\n"), 0o600))

	t.Run("found in search path", func(t *testing.T) {
		assert.Equal(t, file, locateConfigFile("lintgate", []string{dir}))
	})

	t.Run("first match wins", func(t *testing.T) {
		other := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(other, "lintgate.yaml"), []byte("{}\n"), 0o600))
		assert.Equal(t, filepath.Join(other, "lintgate.yaml"), locateConfigFile("lintgate", []string{other, dir}))
	})

	t.Run("not found", func(t *testing.T) {
		assert.Equal(t, "", locateConfigFile("lintgate", []string{t.TempDir()}))
	})

	t.Run("directory with matching name is skipped", func(t *testing.T) {
		nested := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(nested, "lintgate.yaml"), 0o755))
		assert.Equal(t, "", locateConfigFile("lintgate", []string{nested}))
	})
}

func TestLoadUsesExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pinned.yaml")
	require.NoError(t, os.WriteFile(file, []byte("tools:\n  style: mozilla\n"), 0o600))

	cfg, err := Load(LoaderOptions{
		ConfigFile: file,
		EnvPrefix:  "LINTGATE_TEST_PINNED",
	})
	require.NoError(t, err)

	assert.Equal(t, "mozilla", cfg.Tools.Style)
}

func TestLoadRejectsUnreadableConfigFile(t *testing.T) {
	_, err := Load(LoaderOptions{
		ConfigFile: filepath.Join(t.TempDir(), "absent.yaml"),
		EnvPrefix:  "LINTGATE_TEST_ABSENT",
	})
	assert.Error(t, err)
}
