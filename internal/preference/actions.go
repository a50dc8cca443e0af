package preference

import (
	"fmt"
	"strings"

	"github.com/dtnitsch/enquote/internal/common"
	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/language"
	"github.com/urfave/cli/v2"
)

// LanguageAction prints the stored citation language, or "auto" when the
// language is detected from each passage.
func LanguageAction(c *cli.Context) error {
	code := models.PreferenceFile{Path: c.String("config")}.Language()
	if code == "" {
		code = "auto"
	}
	fmt.Println(code)
	return nil
}

// SetLanguageAction stores the citation language. "auto" clears it.
func SetLanguageAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: enquote language set <code|auto>", common.ExitUserError)
	}

	code, err := Normalize(c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), common.ExitUserError)
	}
	if err := (models.PreferenceFile{Path: c.String("config")}).SetLanguage(code); err != nil {
		return fmt.Errorf("failed to save language: %w", err)
	}
	common.NewLogger(c).Info("language preference saved", "language", code, "config", c.String("config"))
	return nil
}

// DetectAction prints the language guessed for the given text.
func DetectAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}
	detector, err := common.Detector(cfg)
	if err != nil {
		return err
	}
	text := strings.Join(c.Args().Slice(), " ")
	code, ok := detector.Guess(text)
	if !ok {
		return cli.Exit("could not detect a language", common.ExitUserError)
	}
	fmt.Println(code)
	return nil
}

// Normalize validates a user-supplied code. "auto" and "" map to "".
func Normalize(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "auto") {
		return "", nil
	}
	return language.Canonical(input)
}
