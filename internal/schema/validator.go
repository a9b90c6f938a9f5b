// Package schema validates caller requests before any work is done.
package schema

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"bilingual-transcript-service/internal/models"
	"bilingual-transcript-service/internal/service/language"
)

var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidSourceURI    = errors.New("invalid source url")
	ErrUnsupportedLanguage = errors.New("unsupported target language")
)

// Validator checks request completeness and the target language.
type Validator struct {
	languages *language.Set
}

// New creates a validator for the configured language set.
func New(languages *language.Set) *Validator {
	return &Validator{languages: languages}
}

// Validate returns nil if the request can be processed.
func (v *Validator) Validate(req models.TranscriptionRequest) error {
	var missing []string
	if strings.TrimSpace(req.VideoID) == "" {
		missing = append(missing, "videoId")
	}
	if strings.TrimSpace(req.SourceURI) == "" {
		missing = append(missing, "url")
	}
	if strings.TrimSpace(req.TargetLanguage) == "" {
		missing = append(missing, "targetLanguage")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	u, err := url.Parse(strings.TrimSpace(req.SourceURI))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidSourceURI, req.SourceURI)
	}

	if _, ok := v.languages.Lookup(req.TargetLanguage); !ok {
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedLanguage,
			req.TargetLanguage, strings.Join(v.languages.Codes(), ", "))
	}
	return nil
}
