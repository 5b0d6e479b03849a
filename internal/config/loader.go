package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	// ConfigFile pins an exact file; discovery is skipped when set.
	ConfigFile  string
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from the config file, LINTGATE_*
// environment variables, and the GitHub Actions runtime context.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "lintgate"
	}

	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = locateConfigFile(name, opts.ConfigPaths)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "LINTGATE"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	// Fill gaps from the Actions runtime; the token never comes from the
	// file or the LINTGATE namespace.
	cfg = applyActionsContext(cfg)

	return cfg, nil
}

// applyActionsContext fills unset GitHub coordinates and output paths
// from the environment GitHub Actions provides to every step.
func applyActionsContext(cfg Config) Config {
	if cfg.GitHub.Repository == "" {
		cfg.GitHub.Repository = os.Getenv("GITHUB_REPOSITORY")
	}
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = os.Getenv("GITHUB_API_URL")
	}
	if cfg.GitHub.APIURL == "" {
		cfg.GitHub.APIURL = "https://api.github.com"
	}
	if cfg.GitHub.PullNumber == 0 {
		cfg.GitHub.PullNumber = pullNumberFromEvent(os.Getenv("GITHUB_EVENT_PATH"))
	}
	if cfg.Output.StepSummary == "" {
		cfg.Output.StepSummary = os.Getenv("GITHUB_STEP_SUMMARY")
	}
	cfg.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	return cfg
}

// pullNumberFromEvent extracts the pull request number from the Actions
// event payload. Both the top-level number (pull_request events) and the
// nested pull_request.number shape appear in the wild.
func pullNumberFromEvent(path string) int {
	if path == "" {
		return 0
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}

	var event struct {
		Number      int `json:"number"`
		PullRequest struct {
			Number int `json:"number"`
		} `json:"pull_request"`
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return 0
	}

	if event.PullRequest.Number > 0 {
		return event.PullRequest.Number
	}
	return event.Number
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.GitHub.Repository = expandEnvString(cfg.GitHub.Repository)
	cfg.GitHub.APIURL = expandEnvString(cfg.GitHub.APIURL)

	cfg.Tools.FormatBinary = expandEnvString(cfg.Tools.FormatBinary)
	cfg.Tools.TidyBinary = expandEnvString(cfg.Tools.TidyBinary)
	cfg.Tools.Style = expandEnvString(cfg.Tools.Style)
	cfg.Tools.TidyChecks = expandEnvString(cfg.Tools.TidyChecks)
	cfg.Tools.BuildDir = expandEnvString(cfg.Tools.BuildDir)
	cfg.Tools.ExtraArgs = expandEnvStringSlice(cfg.Tools.ExtraArgs)

	cfg.Files.Extensions = expandEnvStringSlice(cfg.Files.Extensions)
	cfg.Files.Ignore = expandEnvStringSlice(cfg.Files.Ignore)
	cfg.Files.IgnoreFormat = expandEnvStringSlice(cfg.Files.IgnoreFormat)
	cfg.Files.IgnoreTidy = expandEnvStringSlice(cfg.Files.IgnoreTidy)

	cfg.Output.StepSummary = expandEnvString(cfg.Output.StepSummary)
	cfg.Output.SARIF = expandEnvString(cfg.Output.SARIF)
	cfg.Output.Payload = expandEnvString(cfg.Output.Payload)

	cfg.Store.Path = expandEnvString(cfg.Store.Path)

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)

	cfg.Logging.Level = expandEnvString(cfg.Logging.Level)
	cfg.Logging.Format = expandEnvString(cfg.Logging.Format)

	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable
// values and expands a leading tilde to the home directory.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	// A tilde only means home at the start of a path
	if s == "~" || strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = home + s[1:]
		}
	}

	// Replace ${VAR} syntax
	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	// Replace $VAR syntax (without braces)
	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	return s
}

// expandEnvStringSlice expands environment variables in a slice of strings.
func expandEnvStringSlice(slice []string) []string {
	if len(slice) == 0 {
		return slice
	}
	result := make([]string, len(slice))
	for i, s := range slice {
		result[i] = expandEnvString(s)
	}
	return result
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	// Review defaults follow the workflow surface
	v.SetDefault("review.tidyReview", true)
	v.SetDefault("review.formatReview", true)
	v.SetDefault("review.linesChangedOnly", 0)
	v.SetDefault("review.passiveReviews", false)
	v.SetDefault("review.noLGTM", false)
	v.SetDefault("review.summaryOnly", false)
	v.SetDefault("review.deleteReviewComments", false)
	v.SetDefault("review.threadComments", "false")

	// Tool defaults
	v.SetDefault("tools.formatBinary", "clang-format")
	v.SetDefault("tools.tidyBinary", "clang-tidy")
	v.SetDefault("tools.style", "llvm")
	v.SetDefault("tools.tidyChecks", "")
	v.SetDefault("tools.jobs", 0)

	// Output defaults
	v.SetDefault("output.annotations", true)

	// Store defaults
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	// HTTP defaults
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.maxRetries", 3)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "human")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./lintgate.db"
	}
	return filepath.Join(home, ".config", "lintgate", "lintgate.db")
}
