package prompts

import (
	"fmt"
	"unicode/utf8"
)

// MaxScreenChars caps how much narrative text the screening prompt carries.
const MaxScreenChars = 4000

func BuildScreenPrompt(text string) string {
	return fmt.Sprintf(`You are a game theory scout. Decide whether the text below describes strategic interdependence: a situation where the outcome for one actor depends on the choices of another. Look for conflicts, negotiations, elections or competitive markets.

Text:
%s

Respond in JSON format with this structure:
{
  "has_strategic_interdependence": true,
  "rationale": "one or two sentences explaining why this is or is not a game"
}`, truncate(text, MaxScreenChars))
}

// truncate cuts s to at most n runes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
