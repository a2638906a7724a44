package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits recipe text into lowercase word tokens, dropping stopwords
// and optionally folding simple English plurals ("tomatoes" -> "tomato").
type Tokenizer struct {
	stopwords   map[string]struct{}
	foldPlurals bool
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(foldPlurals bool) *Tokenizer {
	return &Tokenizer{
		stopwords:   defaultStopwords(),
		foldPlurals: foldPlurals,
	}
}

// Tokenize splits text into tokens. The output depends only on the input.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.foldPlurals {
			word = singular(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// singular strips the common plural suffixes found in ingredient lists.
func singular(word string) string {
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case len(word) > 4 && strings.HasSuffix(word, "oes"):
		return word[:len(word)-2]
	case len(word) > 3 && strings.HasSuffix(word, "s") &&
		!strings.HasSuffix(word, "ss") &&
		!strings.HasSuffix(word, "sses") &&
		!strings.HasSuffix(word, "us") &&
		!strings.HasSuffix(word, "is"):
		return word[:len(word)-1]
	}
	return word
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"into", "until", "then", "or", "if", "so", "about", "each",
		"your", "you", "we", "our", "over", "up", "out",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
