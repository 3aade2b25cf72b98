package quiz

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kotoba-study/kotoba/internal/japanese"
)

// BlankMarker replaces the target word in fill-in-the-blank sentences.
const BlankMarker = "_______"

// Matcher blanks every occurrence of headword in sentence. ok is false when the
// headword could not be found, in which case the question must be skipped.
type Matcher interface {
	Blank(sentence, headword string) (blanked string, ok bool)
}

// BoundaryMatcher matches the headword case-insensitively as a whole word.
//
// Word boundaries follow ASCII word characters, like \b: a match is rejected only
// when it would split a run of [A-Za-z0-9_]. Kana and kanji never count as word
// characters, so "猫" matches inside "猫は" but also inside "子猫".
type BoundaryMatcher struct {
	Marker string
}

// Blank implements Matcher.
func (m BoundaryMatcher) Blank(sentence, headword string) (string, bool) {
	headword = strings.TrimSpace(headword)
	if headword == "" || sentence == "" {
		return sentence, false
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(headword))
	if err != nil {
		return sentence, false
	}

	marker := m.Marker
	if marker == "" {
		marker = BlankMarker
	}

	var b strings.Builder
	last, pos, found := 0, 0, false
	for pos < len(sentence) {
		loc := re.FindStringIndex(sentence[pos:])
		if loc == nil || loc[0] == loc[1] {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if isWholeWord(sentence, start, end) {
			b.WriteString(sentence[last:start])
			b.WriteString(marker)
			last, pos, found = end, end, true
			continue
		}
		_, size := utf8.DecodeRuneInString(sentence[start:])
		pos = start + size
	}

	if !found {
		return sentence, false
	}
	b.WriteString(sentence[last:])
	return b.String(), true
}

func isWholeWord(s string, start, end int) bool {
	if start > 0 {
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		first, _ := utf8.DecodeRuneInString(s[start:end])
		if isASCIIWord(before) && isASCIIWord(first) {
			return false
		}
	}
	if end < len(s) {
		after, _ := utf8.DecodeRuneInString(s[end:])
		last, _ := utf8.DecodeLastRuneInString(s[start:end])
		if isASCIIWord(after) && isASCIIWord(last) {
			return false
		}
	}
	return true
}

func isASCIIWord(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

// MorphemeSource segments Japanese text into morphemes with base forms.
type MorphemeSource interface {
	Morphemes(text string) []japanese.Morpheme
}

// LemmaMatcher falls back to morphological analysis when Primary finds nothing,
// blanking morphemes whose dictionary form equals the headword (e.g. 食べ in 食べました).
type LemmaMatcher struct {
	Primary  Matcher
	Analyzer MorphemeSource
	Marker   string
}

// Blank implements Matcher.
func (m LemmaMatcher) Blank(sentence, headword string) (string, bool) {
	primary := m.Primary
	if primary == nil {
		primary = BoundaryMatcher{Marker: m.Marker}
	}
	if out, ok := primary.Blank(sentence, headword); ok {
		return out, true
	}
	if m.Analyzer == nil {
		return sentence, false
	}

	headword = strings.TrimSpace(headword)
	marker := m.Marker
	if marker == "" {
		marker = BlankMarker
	}

	var b strings.Builder
	last, found := 0, false
	for _, morph := range m.Analyzer.Morphemes(sentence) {
		if morph.Base != headword && morph.Surface != headword {
			continue
		}
		if morph.Start < last || morph.End > len(sentence) || morph.Start >= morph.End {
			continue
		}
		b.WriteString(sentence[last:morph.Start])
		b.WriteString(marker)
		last, found = morph.End, true
	}
	if !found {
		return sentence, false
	}
	b.WriteString(sentence[last:])
	return b.String(), true
}
