package classify

import (
	"testing"

	"github.com/dtnitsch/enquote/models"
	"github.com/dtnitsch/enquote/pkg/classifier"
)

func TestClassify(t *testing.T) {
	entries, err := Classify(classifier.Default(), []string{
		"https://x.com/alice/status/42?s=20",
		"https://example.com/news,",
	})
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d", len(entries))
	}
	if entries[0].URL != "https://x.com/alice/status/42" || entries[0].Match.Kind != models.KindSocialPost {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].URL != "https://example.com/news" || entries[1].Match.Kind != models.KindNone {
		t.Errorf("entries[1] = %+v", entries[1])
	}

	if _, err := Classify(classifier.Default(), []string{"not a url"}); err == nil {
		t.Error("Classify() accepted an invalid URL")
	}
}
