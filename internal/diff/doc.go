// Package diff parses raw unified-diff text (a pull request diff or a local
// git patch) into per-file change models: hunk ranges in new-file numbering,
// the individual added lines, and the raw patch text.
//
// Hunk ranges drive the lines-changed-only filtering modes and decide where
// review comments may anchor. Malformed hunk headers abort parsing with a
// ParseError; without trustworthy ranges, line filtering would silently
// surface or suppress the wrong advice.
package diff
