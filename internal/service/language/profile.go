// Package language holds the closed set of target-language profiles.
package language

import (
	"fmt"
	"sort"
	"strings"
)

// Profile parametrizes the prompt for one target language.
type Profile struct {
	Code               string
	DisplayName        string
	ExampleTranslation string
}

// SourceName is the spoken language of the source videos.
const SourceName = "Arabic"

// SourceExample is the worked-example source line, fully diacritized.
const SourceExample = "كِتَابٌ أُنزِلَ إِلَيْكَ فَاسْتَمِعُوا لَهُ وَأَنصِتُوا"

// profiles is the table of every language the service knows how to prompt for.
// Adding a language means adding one entry here.
var profiles = map[string]Profile{
	"en": {
		Code:               "en",
		DisplayName:        "English",
		ExampleTranslation: "A Book that was sent to you, so listen to it and pay attention.",
	},
	"fr": {
		Code:               "fr",
		DisplayName:        "French",
		ExampleTranslation: "Un Livre qui vous a été envoyé, alors écoutez-le et soyez attentifs.",
	},
}

// Set is the configured subset of known profiles. It is immutable after construction.
type Set struct {
	byCode map[string]Profile
}

// NewSet builds a Set from configured language codes. Unknown codes are an error
// so a misconfigured deployment fails at startup rather than per request.
func NewSet(codes []string) (*Set, error) {
	s := &Set{byCode: make(map[string]Profile, len(codes))}
	for _, raw := range codes {
		code := normalize(raw)
		p, ok := profiles[code]
		if !ok {
			return nil, fmt.Errorf("unknown target language %q", raw)
		}
		s.byCode[code] = p
	}
	if len(s.byCode) == 0 {
		return nil, fmt.Errorf("no target languages configured")
	}
	return s, nil
}

// Default returns a Set with every known profile.
func Default() *Set {
	s := &Set{byCode: make(map[string]Profile, len(profiles))}
	for code, p := range profiles {
		s.byCode[code] = p
	}
	return s
}

// Lookup resolves a target language code.
func (s *Set) Lookup(code string) (Profile, bool) {
	p, ok := s.byCode[normalize(code)]
	return p, ok
}

// Codes returns the configured codes in sorted order.
func (s *Set) Codes() []string {
	codes := make([]string, 0, len(s.byCode))
	for code := range s.byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
