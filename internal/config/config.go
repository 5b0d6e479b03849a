// Package config defines the application configuration and its loader.
// Configuration merges a YAML file, LINTGATE_* environment variables,
// and the GitHub Actions runtime context; CLI flags overlay the result.
package config

import (
	"fmt"
	"regexp"
)

// repositoryPattern matches the owner/repo slug shape GitHub uses.
var repositoryPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*/[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Config represents the full application configuration.
type Config struct {
	GitHub  GitHubConfig  `yaml:"github"`
	Review  ReviewConfig  `yaml:"review"`
	Tools   ToolsConfig   `yaml:"tools"`
	Files   FilesConfig   `yaml:"files"`
	Output  OutputConfig  `yaml:"output"`
	Store   StoreConfig   `yaml:"store"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// GitHubConfig locates the pull request to review. Repository and
// PullNumber fall back to the Actions runtime context when unset.
type GitHubConfig struct {
	Repository string `yaml:"repository"`
	PullNumber int    `yaml:"pullNumber"`
	APIURL     string `yaml:"apiUrl"`

	// Token is read from GITHUB_TOKEN only, never from the file.
	Token string `yaml:"-"`
}

// ReviewConfig controls what feedback a run produces.
type ReviewConfig struct {
	TidyReview   bool `yaml:"tidyReview"`
	FormatReview bool `yaml:"formatReview"`

	// LinesChangedOnly scopes advice: 0 covers every line of a changed
	// file, 1 only added lines, 2 all lines in diff chunks.
	LinesChangedOnly int `yaml:"linesChangedOnly"`

	PassiveReviews       bool `yaml:"passiveReviews"`
	NoLGTM               bool `yaml:"noLGTM"`
	SummaryOnly          bool `yaml:"summaryOnly"`
	DeleteReviewComments bool `yaml:"deleteReviewComments"`

	// ThreadComments is a tri-state inherited from the workflow surface:
	// "true", "false", or empty meaning false.
	ThreadComments string `yaml:"threadComments"`
}

// ToolsConfig locates and tunes the clang binaries.
type ToolsConfig struct {
	FormatBinary string `yaml:"formatBinary"`
	TidyBinary   string `yaml:"tidyBinary"`

	// Style is passed to clang-format; empty disables format review.
	Style string `yaml:"style"`

	// TidyChecks is passed to clang-tidy; empty defers to .clang-tidy,
	// "-*" disables tidy review.
	TidyChecks string `yaml:"tidyChecks"`

	BuildDir  string   `yaml:"buildDir"`
	ExtraArgs []string `yaml:"extraArgs"`

	// Jobs bounds the analysis worker pool; 0 means one per CPU.
	Jobs int `yaml:"jobs"`
}

// FilesConfig selects which changed files are analyzed.
type FilesConfig struct {
	Extensions   []string `yaml:"extensions"`
	Ignore       []string `yaml:"ignore"`
	IgnoreFormat []string `yaml:"ignoreFormat"`
	IgnoreTidy   []string `yaml:"ignoreTidy"`
}

// OutputConfig controls the local output surfaces.
type OutputConfig struct {
	Annotations bool `yaml:"annotations"`

	// StepSummary is the file the Markdown summary is appended to.
	// Defaults to GITHUB_STEP_SUMMARY when running under Actions.
	StepSummary string `yaml:"stepSummary"`

	SARIF   string `yaml:"sarif"`
	Payload string `yaml:"payload"`
}

// StoreConfig configures the run journal.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // human, json
}

// Validate checks cross-field constraints once at run start. The zero
// values left by defaults always validate.
func (c Config) Validate() error {
	if c.Review.LinesChangedOnly < 0 || c.Review.LinesChangedOnly > 2 {
		return fmt.Errorf("lines_changed_only must be 0, 1, or 2, got %d", c.Review.LinesChangedOnly)
	}
	switch c.Review.ThreadComments {
	case "", "true", "false":
	default:
		return fmt.Errorf("thread_comments must be %q or %q, got %q", "true", "false", c.Review.ThreadComments)
	}
	if c.GitHub.Repository != "" && !repositoryPattern.MatchString(c.GitHub.Repository) {
		return fmt.Errorf("repository must look like owner/repo, got %q", c.GitHub.Repository)
	}
	if c.Tools.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Tools.Jobs)
	}
	return nil
}

// ThreadCommentsEnabled reports whether the sticky thread comment is on.
func (c Config) ThreadCommentsEnabled() bool {
	return c.Review.ThreadComments == "true"
}
