// Package japanese wraps the kagome morphological analyzer for reading
// lookup, lemma matching and sentence segmentation.
package japanese

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// IPA feature positions.
const (
	featurePOS     = 0
	featureBase    = 6
	featureReading = 7
)

// Token is a single analyzed unit of text.
type Token struct {
	Surface string // as written, e.g. "食べ"
	Base    string // dictionary form, e.g. "食べる"
	Reading string // katakana, empty when unknown
	POS     string // primary part of speech
}

// Morpheme is a token located in its source text by byte offsets.
type Morpheme struct {
	Surface string
	Base    string
	Reading string
	POS     string
	Start   int
	End     int
}

// Analyzer segments Japanese text. It is safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer loads the IPA dictionary.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Analyzer{t: t}, nil
}

// Analyze breaks text into tokens with base forms and readings. Whitespace
// and unknown dummy tokens are dropped.
func (a *Analyzer) Analyze(text string) []Token {
	var out []Token
	for _, m := range a.Morphemes(text) {
		out = append(out, Token{Surface: m.Surface, Base: m.Base, Reading: m.Reading, POS: m.POS})
	}
	return out
}

// Morphemes is Analyze with each token's position in text.
func (a *Analyzer) Morphemes(text string) []Morpheme {
	var out []Morpheme
	cursor := 0
	for _, tok := range a.t.Tokenize(text) {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		idx := strings.Index(text[cursor:], tok.Surface)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		cursor = start + len(tok.Surface)
		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}

		features := tok.Features()
		out = append(out, Morpheme{
			Surface: tok.Surface,
			Base:    feature(features, featureBase, tok.Surface),
			Reading: feature(features, featureReading, ""),
			POS:     feature(features, featurePOS, ""),
			Start:   start,
			End:     cursor,
		})
	}
	return out
}

// PartsOfSpeech returns the primary part of speech of each token in text.
func (a *Analyzer) PartsOfSpeech(text string) []string {
	var out []string
	for _, m := range a.Morphemes(text) {
		out = append(out, m.POS)
	}
	return out
}

// Reading returns the hiragana reading of text. Tokens without a dictionary
// reading contribute their surface unchanged.
func (a *Analyzer) Reading(text string) string {
	var b strings.Builder
	for _, m := range a.Morphemes(text) {
		if m.Reading != "" {
			b.WriteString(ToHiragana(m.Reading))
		} else {
			b.WriteString(m.Surface)
		}
	}
	return b.String()
}

func feature(features []string, i int, fallback string) string {
	if len(features) > i && features[i] != "*" && features[i] != "" {
		return features[i]
	}
	return fallback
}

// ToHiragana maps katakana to hiragana, leaving every other rune alone.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}

// SplitSentences splits text after 。！？ and newlines. Blank pieces are dropped
// and the rest are trimmed.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, r := range text {
		if r == '\n' || r == '\r' {
			flush()
			continue
		}
		current.WriteRune(r)
		if r == '。' || r == '！' || r == '？' {
			flush()
		}
	}
	flush()
	return sentences
}
