// Package prompt builds the instruction text sent to the transcription model.
package prompt

import (
	"fmt"

	"bilingual-transcript-service/internal/service/language"
)

const template = `You are an expert in %[1]s transcription with full diacritics (Tashkīl) and in translation.

Your task:
1. Transcribe the audio in %[1]s with **complete Tashkīl**.
2. Add a **[mm:ss] timestamp** for every sentence.
3. Translate every sentence into **%[2]s** right after the %[1]s sentence.

Use **exactly** this format for every segment:

[timestamp]
%[1]s text with Tashkīl
Translation in %[2]s

Example:
[00:00]
%[3]s
%[4]s

Continue through the rest of the video without skipping sentences. Do not return any text outside this format.
DO NOT OMIT THE DIACRITICS. THIS IS A STRICT REQUIREMENT.

Reply with a single JSON document only (if needed, wrap it in ` + "```json ... ```" + `).
The document is an array with one object per segment, in the order the segments are spoken:
[{"timestamp": "00:00", "source": "%[3]s", "translation": "%[4]s"}]
`

// Compose returns the prompt for the given target-language profile.
func Compose(p language.Profile) string {
	return fmt.Sprintf(template, language.SourceName, p.DisplayName, language.SourceExample, p.ExampleTranslation)
}
