package keywords

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// casers are stateful so each goroutine takes its own chain from the pool
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			width.Fold,
			cases.Lower(language.English),
		)
	},
}

// clitics split off the end of a token the way treebank tokenizers do
var clitics = []string{"n't", "'s", "'re", "'ve", "'ll", "'d", "'m"}

// normalize folds width, composes and lower cases s
func normalize(s string) string {
	s = strings.ToValidUTF8(s, "")
	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ReplaceAll(out, "’", "'")
}

// Tokenize splits text into lower cased word like units
// punctuation separates tokens and trailing clitics become their own tokens
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	text = normalize(text)

	var out []string
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = appendToken(out, text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		out = appendToken(out, text[start:])
	}
	return out
}

func isWordRune(r rune) bool {
	switch r {
	case '\'', '-', '_', '.':
		return true
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func appendToken(out []string, tok string) []string {
	tok = strings.Trim(tok, "'-_.")
	if tok == "" {
		return out
	}
	for _, c := range clitics {
		if len(tok) > len(c) && strings.HasSuffix(tok, c) {
			stem := strings.Trim(tok[:len(tok)-len(c)], "'-_.")
			if stem != "" {
				out = append(out, stem)
			}
			return append(out, c)
		}
	}
	return append(out, tok)
}

// isAlpha reports whether every rune in s is a letter
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
