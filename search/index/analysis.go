package index

import (
	"unicode"
	"unicode/utf8"
)

// StandardTokenizer splits on whitespace and punctuation and lowercases.
// The same tokenizer must be used at index time and when analyzing query
// text, otherwise terms will not line up.
type StandardTokenizer struct {
	input      []byte
	inputIndex int
	runes      []rune
	token      []byte
}

func NewStandardTokenizer() *StandardTokenizer {
	return &StandardTokenizer{
		runes: make([]rune, 0, 100),
		token: make([]byte, 0, 100),
	}
}

func (t *StandardTokenizer) Reset(input []byte) {
	t.input = input
	t.inputIndex = 0
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// NextToken returns a token that is valid until the next call.
func (t *StandardTokenizer) NextToken() ([]byte, bool) {
	t.runes = t.runes[:0]

	for t.inputIndex < len(t.input) {
		r, size := utf8.DecodeRune(t.input[t.inputIndex:])
		t.inputIndex += size

		if isSeparator(r) {
			if len(t.runes) > 0 {
				return t.emit(), true
			}
			continue
		}

		t.runes = append(t.runes, unicode.ToLower(r))
	}

	if len(t.runes) > 0 {
		return t.emit(), true
	}

	return nil, false
}

func (t *StandardTokenizer) emit() []byte {
	t.token = t.token[:0]
	for _, r := range t.runes {
		t.token = utf8.AppendRune(t.token, r)
	}
	return t.token
}

// Analyze returns copies of the tokens of text, in order, duplicates kept.
func Analyze(text []byte) [][]byte {
	tokenizer := NewStandardTokenizer()
	tokenizer.Reset(text)

	tokens := make([][]byte, 0, 8)
	for {
		token, ok := tokenizer.NextToken()
		if !ok {
			return tokens
		}

		tokens = append(tokens, append([]byte(nil), token...))
	}
}
