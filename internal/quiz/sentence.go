package quiz

import (
	"strings"
	"unicode"
)

// DefaultTerminators are the sentence terminators that may separate a Japanese
// sentence from its English gloss.
var DefaultTerminators = []rune{'。', '．', '.'}

const glossSeparator = " - "

// Split is an example sentence divided into its Japanese part and its gloss.
type Split struct {
	Target string `json:"target"`
	Gloss  string `json:"gloss"`
}

// SplitSentence separates sentence into target-language text and an English gloss.
//
// The first terminator that is neither the first nor the last character splits the
// sentence when the remainder starts with a Latin letter. Otherwise a " - " separator
// is tried under the same condition. When neither applies the whole sentence is the
// target and the gloss is empty.
func SplitSentence(sentence string, terminators []rune) Split {
	if len(terminators) == 0 {
		terminators = DefaultTerminators
	}

	runes := []rune(sentence)
	for i := 1; i < len(runes)-1; i++ {
		if !containsRune(terminators, runes[i]) {
			continue
		}
		rest := string(runes[i+1:])
		if startsWithLatin(rest) {
			return Split{
				Target: strings.TrimSpace(string(runes[:i+1])),
				Gloss:  strings.TrimSpace(rest),
			}
		}
		break
	}

	if idx := strings.Index(sentence, glossSeparator); idx > 0 && idx+len(glossSeparator) < len(sentence) {
		rest := sentence[idx+len(glossSeparator):]
		if startsWithLatin(rest) {
			return Split{
				Target: strings.TrimSpace(sentence[:idx]),
				Gloss:  strings.TrimSpace(rest),
			}
		}
	}

	return Split{Target: sentence}
}

func containsRune(set []rune, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}
	return false
}

// startsWithLatin reports whether the first non-space rune of s is a Latin letter.
func startsWithLatin(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		return unicode.IsLetter(r) && unicode.Is(unicode.Latin, r)
	}
	return false
}
