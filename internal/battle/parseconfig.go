// internal/battle/parseconfig.go
package battle

import "strings"

// ParseConfigFragment scans a free-form chat message for difficulty and
// language keywords. Matching is case-insensitive substring search against a
// fixed vocabulary; whichever fields match are returned, the rest stay empty.
// "c++"/"cpp" and plain "c" need ordering care: "c" on its own would match
// almost any sentence, so it is only accepted as a standalone word.
func ParseConfigFragment(text string) PartialConfig {
	var out PartialConfig
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, DifficultyEasy):
		out.Difficulty = DifficultyEasy
	case strings.Contains(lower, DifficultyMedium):
		out.Difficulty = DifficultyMedium
	case strings.Contains(lower, DifficultyHard):
		out.Difficulty = DifficultyHard
	}

	switch {
	case strings.Contains(lower, LangPython):
		out.Language = LangPython
	case strings.Contains(lower, LangJavaScript), containsWord(lower, "js"):
		out.Language = LangJavaScript
	case strings.Contains(lower, LangJava):
		out.Language = LangJava
	case strings.Contains(lower, "c++"), strings.Contains(lower, "cpp"):
		out.Language = LangCpp
	case containsWord(lower, "c"):
		out.Language = LangC
	}

	return out
}

// containsWord reports whether w appears in s delimited by non-letters.
func containsWord(s, w string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isLetter(s[start-1])
		afterOK := end == len(s) || !isLetter(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(s) {
			return false
		}
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
