package common

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/citation"
	"github.com/dtnitsch/enquote/pkg/language"
	"github.com/dtnitsch/enquote/pkg/pipeline"
	"github.com/urfave/cli/v2"
)

// Exit codes. 1 is for input the user can fix, 2 for everything else.
const (
	ExitUserError  = 1
	ExitUnexpected = 2
)

var markdownLinkPattern = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)

// NewLogger builds the JSON stderr logger from the global --quiet and
// --verbose flags.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads the file named by --config. Command flags override it
// afterwards.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), ExitUserError)
	}
	return cfg, nil
}

// CacheDir returns the configured cache directory, or enquote/ under the
// user cache directory.
func CacheDir(cfg *models.Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return filepath.Join(base, "enquote"), nil
}

// PassagePolicies parses the passage_policy config section.
func PassagePolicies(cfg *models.Config) (map[models.SourceKind]citation.PassagePolicy, error) {
	policies := make(map[models.SourceKind]citation.PassagePolicy, len(cfg.PassagePolicy))
	for kind, name := range cfg.PassagePolicy {
		p, err := citation.ParsePassagePolicy(name)
		if err != nil {
			return nil, fmt.Errorf("passage_policy.%s: %w", kind, err)
		}
		policies[models.SourceKind(kind)] = p
	}
	return policies, nil
}

// Detector builds the passage language detector over the configured
// detect_languages. A bad list is a user error.
func Detector(cfg *models.Config) (*language.Detector, error) {
	d, err := language.NewDetectorFor(cfg.DetectLanguages)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("detect_languages: %v", err), ExitUserError)
	}
	return d, nil
}

// ExitError maps a pipeline error onto the CLI exit codes.
func ExitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, pipeline.ErrNoMatch) {
		return cli.Exit("Cannot extract a citation from this page.", ExitUserError)
	}
	if errors.Is(err, pipeline.ErrUnexpected) {
		return cli.Exit(fmt.Sprintf("Unexpected error: %v", err), ExitUnexpected)
	}
	return cli.Exit(err.Error(), ExitUnexpected)
}

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown artifacts.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// [text](url) -> url
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ".", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidateURL sanitizes rawURL and checks that it is an absolute http(s) URL.
func ValidateURL(rawURL string) (string, error) {
	cleaned := SanitizeURL(rawURL)
	if cleaned == "" || strings.Contains(cleaned, " ") {
		return "", cli.Exit(fmt.Sprintf("invalid URL: %q", rawURL), ExitUserError)
	}

	parsed, err := url.Parse(cleaned)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", cli.Exit(fmt.Sprintf("invalid URL: %q", rawURL), ExitUserError)
	}
	if strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return "", cli.Exit(fmt.Sprintf("invalid URL: %q", rawURL), ExitUserError)
	}
	return cleaned, nil
}
