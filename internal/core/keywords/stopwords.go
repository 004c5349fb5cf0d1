package keywords

import (
	"strings"
	"sync"
)

// englishStopwords is the standard english list used by common NLP toolkits
var englishStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it", "it's",
	"its", "itself", "they", "them", "their", "theirs", "themselves", "what",
	"which", "who", "whom", "this", "that", "that'll", "these", "those", "am", "is",
	"are", "was", "were", "be", "been", "being", "have", "has", "had", "having",
	"do", "does", "did", "doing", "a", "an", "the", "and", "but", "if", "or",
	"because", "as", "until", "while", "of", "at", "by", "for", "with", "about",
	"against", "between", "into", "through", "during", "before", "after", "above",
	"below", "to", "from", "up", "down", "in", "out", "on", "off", "over", "under",
	"again", "further", "then", "once", "here", "there", "when", "where", "why",
	"how", "all", "any", "both", "each", "few", "more", "most", "other", "some",
	"such", "no", "nor", "not", "only", "own", "same", "so", "than", "too", "very",
	"s", "t", "can", "will", "just", "don", "don't", "should", "should've", "now",
	"d", "ll", "m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn",
	"couldn't", "didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn",
	"hasn't", "haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't",
	"mustn", "mustn't", "needn", "needn't", "shan", "shan't", "shouldn",
	"shouldn't", "wasn", "wasn't", "weren", "weren't", "won", "won't", "wouldn",
	"wouldn't",
}

// platformStopwords are submission prefixes and the platform's own name token
var platformStopwords = []string{"hn", "show", "ask", "tell"}

// StopSet is an immutable set of excluded terms, safe for concurrent reads
type StopSet struct {
	terms map[string]struct{}
}

// NewStopSet builds a set from one or more word lists, lower cased
func NewStopSet(lists ...[]string) *StopSet {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	s := &StopSet{terms: make(map[string]struct{}, n)}
	for _, l := range lists {
		for _, w := range l {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				s.terms[w] = struct{}{}
			}
		}
	}
	return s
}

// DefaultStopSet returns the process wide english + platform stop set
var DefaultStopSet = sync.OnceValue(func() *StopSet {
	return NewStopSet(englishStopwords, platformStopwords)
})

// Contains reports whether term is excluded; a nil set excludes nothing
func (s *StopSet) Contains(term string) bool {
	if s == nil {
		return false
	}
	_, ok := s.terms[term]
	return ok
}

// Len returns the number of terms in the set
func (s *StopSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.terms)
}

// With returns a new set holding s plus extra words
func (s *StopSet) With(extra ...string) *StopSet {
	words := make([]string, 0, s.Len()+len(extra))
	if s != nil {
		for w := range s.terms {
			words = append(words, w)
		}
	}
	return NewStopSet(words, extra)
}
