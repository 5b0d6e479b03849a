package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// GenerateRunID creates a unique, time-ordered run ID.
// Format: run-<timestamp>-<hash>
// Example: run-20251021T143052Z-a3f9c2
func GenerateRunID(timestamp time.Time, repository, subject string) string {
	// UTC timestamp in ISO format for consistent ordering
	ts := timestamp.UTC().Format("20060102T150405Z")

	// Short hash from repo, subject and nanoseconds for uniqueness
	input := fmt.Sprintf("%s|%s|%d", repository, subject, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3])

	return fmt.Sprintf("run-%s-%s", ts, shortHash)
}

// CalculateConfigHash creates a deterministic hash of a configuration, so
// each run records which config produced it. The input must be
// JSON-serializable.
func CalculateConfigHash(config interface{}) (string, error) {
	// Go's JSON marshaling sorts map keys, which keeps the hash deterministic
	data, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
