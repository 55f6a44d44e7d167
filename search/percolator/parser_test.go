package percolator

import (
	"testing"

	"github.com/larose/lynx-percolator/search/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func term(fieldName, value string) *query.TermNode {
	return &query.TermNode{FieldName: fieldName, Term: []byte(value)}
}

func TestDSLParser(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected query.Node
	}{
		{
			name:     "term",
			source:   `{"query": {"term": {"tag": "go"}}}`,
			expected: term("tag", "go"),
		},
		{
			name:     "term with value object is not analyzed",
			source:   `{"query": {"term": {"tag": {"value": "Go Lang"}}}}`,
			expected: term("tag", "Go Lang"),
		},
		{
			name:     "match single term",
			source:   `{"query": {"match": {"body": "Hello!"}}}`,
			expected: term("body", "hello"),
		},
		{
			name:   "match several terms",
			source: `{"query": {"match": {"body": "Fast search"}}}`,
			expected: &query.BooleanNode{Clauses: []*query.BooleanClause{
				{Type: query.Should, Node: term("body", "fast")},
				{Type: query.Should, Node: term("body", "search")},
			}},
		},
		{
			name:   "match with and operator",
			source: `{"query": {"match": {"body": {"query": "fast search", "operator": "and"}}}}`,
			expected: &query.BooleanNode{Clauses: []*query.BooleanClause{
				{Type: query.Must, Node: term("body", "fast")},
				{Type: query.Must, Node: term("body", "search")},
			}},
		},
		{
			name:     "match without terms",
			source:   `{"query": {"match": {"body": "..."}}}`,
			expected: &query.BooleanNode{Clauses: []*query.BooleanClause{}},
		},
		{
			name:     "match all",
			source:   `{"query": {"match_all": {}}}`,
			expected: &query.MatchAllNode{},
		},
		{
			name: "bool clauses in fixed order",
			source: `{"query": {"bool": {
				"must_not": {"term": {"tag": "java"}},
				"should": [{"term": {"tag": "go"}}, {"term": {"tag": "rust"}}],
				"filter": [{"term": {"lang": "en"}}],
				"must": {"match": {"body": "search"}}
			}}}`,
			expected: &query.BooleanNode{Clauses: []*query.BooleanClause{
				{Type: query.Must, Node: term("body", "search")},
				{Type: query.Must, Node: term("lang", "en")},
				{Type: query.Should, Node: term("tag", "go")},
				{Type: query.Should, Node: term("tag", "rust")},
				{Type: query.MustNot, Node: term("tag", "java")},
			}},
		},
		{
			name: "nested bool",
			source: `{"query": {"bool": {"should": [
				{"bool": {"must": [{"term": {"a": "1"}}, {"term": {"b": "2"}}]}},
				{"term": {"c": "3"}}
			]}}}`,
			expected: &query.BooleanNode{Clauses: []*query.BooleanClause{
				{Type: query.Should, Node: &query.BooleanNode{Clauses: []*query.BooleanClause{
					{Type: query.Must, Node: term("a", "1")},
					{Type: query.Must, Node: term("b", "2")},
				}}},
				{Type: query.Should, Node: term("c", "3")},
			}},
		},
	}

	parser := NewDSLParser()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := parser.Parse([]byte(tt.source))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, node)
		})
	}
}

func TestDSLParserWithoutQuery(t *testing.T) {
	parser := NewDSLParser()

	for _, source := range []string{`{}`, `{"query": null}`, `{"name": "no query here"}`} {
		node, err := parser.Parse([]byte(source))
		assert.NoError(t, err, source)
		assert.Nil(t, node, source)
	}
}

func TestDSLParserErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		err    error
	}{
		{name: "not json", source: `query: term`, err: ErrMalformedQuery},
		{name: "not an object", source: `[1, 2]`, err: ErrMalformedQuery},
		{name: "unknown clause", source: `{"query": {"wildcard": {"tag": "g*"}}}`, err: ErrUnknownClause},
		{name: "unknown bool occur", source: `{"query": {"bool": {"maybe": {"term": {"tag": "go"}}}}}`, err: ErrUnknownClause},
		{name: "unknown nested clause", source: `{"query": {"bool": {"must": [{"fuzzy": {"tag": "go"}}]}}}`, err: ErrUnknownClause},
		{name: "two clauses in one object", source: `{"query": {"term": {"a": "1"}, "match_all": {}}}`, err: ErrMalformedQuery},
		{name: "term on two fields", source: `{"query": {"term": {"a": "1", "b": "2"}}}`, err: ErrMalformedQuery},
		{name: "term value is a number", source: `{"query": {"term": {"a": 5}}}`, err: ErrMalformedQuery},
		{name: "term object without value", source: `{"query": {"term": {"a": {"boost": 2}}}}`, err: ErrMalformedQuery},
		{name: "match unknown operator", source: `{"query": {"match": {"body": {"query": "x", "operator": "xor"}}}}`, err: ErrMalformedQuery},
	}

	parser := NewDSLParser()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := parser.Parse([]byte(tt.source))
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, node)
		})
	}
}
