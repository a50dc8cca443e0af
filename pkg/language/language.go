// Package language picks the language code a citation is tagged with.
package language

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
)

// Fallback is used when nothing else yields a language.
const Fallback = "en"

// minGuessRunes is the shortest passage worth guessing from.
const minGuessRunes = 12

// Canonical validates code as a BCP 47 tag and returns its base language,
// e.g. "en-GB" -> "en".
func Canonical(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	base, _ := tag.Base()
	if base.String() == "und" {
		return "", fmt.Errorf("undetermined language code %q", code)
	}
	return base.String(), nil
}

// Detector guesses the language of a passage. The underlying models are
// built on first use.
type Detector struct {
	languages []lingua.Language

	once     sync.Once
	detector lingua.LanguageDetector
}

// NewDetector returns a detector restricted to languages, or covering all
// supported languages when none are given.
func NewDetector(languages ...lingua.Language) *Detector {
	return &Detector{languages: languages}
}

// NewDetectorFor returns a detector restricted to the languages named by
// codes. No codes means every supported language; a single code is an
// error since there would be nothing to choose between.
func NewDetectorFor(codes []string) (*Detector, error) {
	if len(codes) == 1 {
		return nil, fmt.Errorf("detect languages: need at least two, got %q", codes[0])
	}
	seen := make(map[lingua.Language]bool, len(codes))
	languages := make([]lingua.Language, 0, len(codes))
	for _, code := range codes {
		lang, err := linguaLanguage(code)
		if err != nil {
			return nil, err
		}
		if !seen[lang] {
			seen[lang] = true
			languages = append(languages, lang)
		}
	}
	if len(codes) > 0 && len(languages) < 2 {
		return nil, fmt.Errorf("detect languages: need at least two distinct, got %q", codes)
	}
	return NewDetector(languages...), nil
}

// linguaLanguage maps an ISO 639-1 or 639-3 code onto a detectable language.
func linguaLanguage(code string) (lingua.Language, error) {
	base, err := Canonical(code)
	if err != nil {
		return lingua.Unknown, err
	}
	var lang lingua.Language
	if len(base) == 2 {
		lang = lingua.GetLanguageFromIsoCode639_1(lingua.GetIsoCode639_1FromValue(base))
	} else {
		lang = lingua.GetLanguageFromIsoCode639_3(lingua.GetIsoCode639_3FromValue(base))
	}
	if lang == lingua.Unknown {
		return lingua.Unknown, fmt.Errorf("language %q cannot be detected", base)
	}
	return lang, nil
}

func (d *Detector) build() {
	builder := lingua.NewLanguageDetectorBuilder()
	var b lingua.LanguageDetectorBuilder
	if len(d.languages) > 1 {
		b = builder.FromLanguages(d.languages...)
	} else {
		b = builder.FromAllLanguages()
	}
	d.detector = b.WithMinimumRelativeDistance(0.1).Build()
}

// Guess returns the ISO 639-1 code of text's language.
func (d *Detector) Guess(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minGuessRunes {
		return "", false
	}
	d.once.Do(d.build)

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	code := strings.ToLower(lang.IsoCode639_1().String())
	if code == "" {
		return "", false
	}
	return code, true
}

// Resolve picks the citation language: the explicit code, else the stored
// preference, else a guess from the passage, else Fallback. Only an invalid
// explicit code is an error; a bad preference is skipped.
func (d *Detector) Resolve(explicit, preference, passage string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		return Canonical(explicit)
	}
	if code, err := Canonical(preference); err == nil {
		return code, nil
	}
	if d != nil {
		if code, ok := d.Guess(passage); ok {
			return code, nil
		}
	}
	return Fallback, nil
}
