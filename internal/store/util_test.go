package store_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lintgate/lintgate/internal/store"
)

func TestGenerateRunID(t *testing.T) {
	t.Run("format is correct", func(t *testing.T) {
		ts := time.Date(2025, 10, 21, 14, 30, 45, 0, time.UTC)
		id := store.GenerateRunID(ts, "owner/repo", "pr-42")

		// Should start with "run-"
		assert.True(t, strings.HasPrefix(id, "run-"))

		// Should contain timestamp in ISO format
		assert.Contains(t, id, "20251021T143045Z")

		// Should contain hash (6 characters after final hyphen)
		parts := strings.Split(id, "-")
		assert.Len(t, parts, 3) // run-TIMESTAMP-HASH
		assert.Len(t, parts[2], 6, "hash should be 6 characters")
	})

	t.Run("different times produce unique IDs", func(t *testing.T) {
		ts1 := time.Date(2025, 10, 21, 14, 30, 45, 0, time.UTC)
		ts2 := time.Date(2025, 10, 21, 14, 30, 46, 0, time.UTC)

		id1 := store.GenerateRunID(ts1, "owner/repo", "pr-42")
		id2 := store.GenerateRunID(ts2, "owner/repo", "pr-42")

		assert.NotEqual(t, id1, id2)
	})

	t.Run("different subjects produce unique IDs", func(t *testing.T) {
		ts := time.Date(2025, 10, 21, 14, 30, 45, 0, time.UTC)

		id1 := store.GenerateRunID(ts, "owner/repo", "pr-42")
		id2 := store.GenerateRunID(ts, "owner/repo", "main..feature")

		assert.NotEqual(t, id1, id2)
	})

	t.Run("IDs are sortable by timestamp", func(t *testing.T) {
		ts1 := time.Date(2025, 10, 21, 14, 30, 45, 0, time.UTC)
		ts2 := time.Date(2025, 10, 21, 15, 30, 45, 0, time.UTC)
		ts3 := time.Date(2025, 10, 22, 14, 30, 45, 0, time.UTC)

		id1 := store.GenerateRunID(ts1, "owner/repo", "pr-42")
		id2 := store.GenerateRunID(ts2, "owner/repo", "pr-42")
		id3 := store.GenerateRunID(ts3, "owner/repo", "pr-42")

		// String comparison should work due to ISO timestamp format
		assert.True(t, id1 < id2)
		assert.True(t, id2 < id3)
	})
}

func TestCalculateConfigHash(t *testing.T) {
	t.Run("same config produces same hash", func(t *testing.T) {
		config := map[string]interface{}{
			"style":            "file",
			"linesChangedOnly": 2,
			"tidyChecks":       "readability-*",
		}

		hash1, err := store.CalculateConfigHash(config)
		assert.NoError(t, err)

		hash2, err := store.CalculateConfigHash(config)
		assert.NoError(t, err)

		assert.Equal(t, hash1, hash2, "determinism: same config should produce same hash")
	})

	t.Run("different configs produce different hashes", func(t *testing.T) {
		config1 := map[string]interface{}{
			"style": "file",
		}

		config2 := map[string]interface{}{
			"style": "Google",
		}

		hash1, err := store.CalculateConfigHash(config1)
		assert.NoError(t, err)

		hash2, err := store.CalculateConfigHash(config2)
		assert.NoError(t, err)

		assert.NotEqual(t, hash1, hash2)
	})

	t.Run("field order doesn't matter for maps", func(t *testing.T) {
		// Go maps are unordered, but JSON marshaling sorts keys, so this
		// stays deterministic
		config1 := map[string]interface{}{
			"a": "value1",
			"b": "value2",
		}

		config2 := map[string]interface{}{
			"b": "value2",
			"a": "value1",
		}

		hash1, err := store.CalculateConfigHash(config1)
		assert.NoError(t, err)

		hash2, err := store.CalculateConfigHash(config2)
		assert.NoError(t, err)

		assert.Equal(t, hash1, hash2, "JSON marshaling should sort keys for determinism")
	})

	t.Run("hash is hex string", func(t *testing.T) {
		config := map[string]interface{}{"test": "value"}

		hash, err := store.CalculateConfigHash(config)
		assert.NoError(t, err)

		// Should be valid hex
		assert.Regexp(t, "^[0-9a-f]+$", hash)

		// SHA-256 hex is 64 characters
		assert.Len(t, hash, 64)
	})

	t.Run("handles nested structures", func(t *testing.T) {
		config := map[string]interface{}{
			"tidy": map[string]interface{}{
				"enabled": true,
				"checks":  "bugprone-*,readability-*",
			},
			"format": map[string]interface{}{
				"enabled": true,
				"style":   "file",
			},
		}

		hash, err := store.CalculateConfigHash(config)
		assert.NoError(t, err)
		assert.NotEmpty(t, hash)
	})
}
