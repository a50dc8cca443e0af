package classify

import (
	"fmt"

	"github.com/dtnitsch/enquote/internal/common"
	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/classifier"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Entry is one classified URL.
type Entry struct {
	URL   string             `yaml:"url"`
	Match models.SourceMatch `yaml:"match"`
}

// ClassifyAction reports the source kind of each URL argument as YAML,
// without fetching anything.
func ClassifyAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("usage: enquote classify <url> [url...]", common.ExitUserError)
	}

	entries, err := Classify(classifier.Default(), c.Args().Slice())
	if err != nil {
		return err
	}

	yamlBytes, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	fmt.Print(string(yamlBytes))
	return nil
}

// Classify validates and classifies each URL in order.
func Classify(cl *classifier.Classifier, rawURLs []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(rawURLs))
	for _, raw := range rawURLs {
		pageURL, err := common.ValidateURL(raw)
		if err != nil {
			return nil, err
		}
		pageURL = classifier.CleanURL(pageURL)
		entries = append(entries, Entry{URL: pageURL, Match: cl.Classify(pageURL)})
	}
	return entries, nil
}
