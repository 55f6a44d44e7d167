package percolator

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/larose/lynx-percolator/search/index"
	"github.com/larose/lynx-percolator/search/query"
)

// QueryParser turns the stored source of a query document into an
// executable query. A nil node with a nil error means the source holds no
// query. The source is only valid during the call, so the returned node must
// not retain it.
type QueryParser interface {
	Parse(source []byte) (query.Node, error)
}

type ParserFunc func(source []byte) (query.Node, error)

func (f ParserFunc) Parse(source []byte) (query.Node, error) {
	return f(source)
}

// DSLParser reads JSON query documents of the form
//
//	{"query": {"bool": {"must": [{"term": {"tag": "go"}}, {"match": {"body": "fast search"}}]}}}
//
// Supported clauses are term, match, bool (must, filter, should, must_not)
// and match_all. A document without a query key, or with a null one, yields
// a nil node.
type DSLParser struct {
}

func NewDSLParser() *DSLParser {
	return &DSLParser{}
}

func (p *DSLParser) Parse(source []byte) (query.Node, error) {
	var document map[string]gojson.RawMessage
	if err := gojson.Unmarshal(source, &document); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedQuery, err)
	}

	raw, exists := document["query"]
	if !exists || isNull(raw) {
		return nil, nil
	}

	return parseClause(raw)
}

func isNull(raw gojson.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isArray(raw gojson.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// singleEntry decodes an object that must have exactly one key.
func singleEntry(raw gojson.RawMessage, what string) (string, gojson.RawMessage, error) {
	var object map[string]gojson.RawMessage
	if err := gojson.Unmarshal(raw, &object); err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrMalformedQuery, what, err)
	}

	if len(object) != 1 {
		return "", nil, fmt.Errorf("%w: %s must have exactly one key, got %d", ErrMalformedQuery, what, len(object))
	}

	var key string
	var value gojson.RawMessage
	for key, value = range object {
	}

	return key, value, nil
}

func parseClause(raw gojson.RawMessage) (query.Node, error) {
	kind, body, err := singleEntry(raw, "clause")
	if err != nil {
		return nil, err
	}

	switch kind {
	case "term":
		return parseTerm(body)
	case "match":
		return parseMatch(body)
	case "bool":
		return parseBool(body)
	case "match_all":
		return &query.MatchAllNode{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownClause, kind)
	}
}

// fieldValue reads {"field": "value"} or {"field": {key: "value", ...}}.
func fieldValue(raw gojson.RawMessage, clause string, key string) (string, string, map[string]gojson.RawMessage, error) {
	fieldName, value, err := singleEntry(raw, clause)
	if err != nil {
		return "", "", nil, err
	}

	var text string
	if err := gojson.Unmarshal(value, &text); err == nil {
		return fieldName, text, nil, nil
	}

	var options map[string]gojson.RawMessage
	if err := gojson.Unmarshal(value, &options); err != nil {
		return "", "", nil, fmt.Errorf("%w: %s on %s: expected a string or an object", ErrMalformedQuery, clause, fieldName)
	}

	rawText, exists := options[key]
	if !exists {
		return "", "", nil, fmt.Errorf("%w: %s on %s: missing %q", ErrMalformedQuery, clause, fieldName, key)
	}

	if err := gojson.Unmarshal(rawText, &text); err != nil {
		return "", "", nil, fmt.Errorf("%w: %s on %s: %q must be a string", ErrMalformedQuery, clause, fieldName, key)
	}

	return fieldName, text, options, nil
}

func parseTerm(raw gojson.RawMessage) (query.Node, error) {
	fieldName, value, _, err := fieldValue(raw, "term", "value")
	if err != nil {
		return nil, err
	}

	return &query.TermNode{FieldName: fieldName, Term: []byte(value)}, nil
}

// parseMatch analyzes the text with the index tokenizer. Terms are
// alternatives unless the operator is "and".
func parseMatch(raw gojson.RawMessage) (query.Node, error) {
	fieldName, text, options, err := fieldValue(raw, "match", "query")
	if err != nil {
		return nil, err
	}

	matchType := query.Should
	if rawOperator, exists := options["operator"]; exists {
		var operator string
		if err := gojson.Unmarshal(rawOperator, &operator); err != nil {
			return nil, fmt.Errorf("%w: match on %s: operator must be a string", ErrMalformedQuery, fieldName)
		}

		switch operator {
		case "or", "OR":
		case "and", "AND":
			matchType = query.Must
		default:
			return nil, fmt.Errorf("%w: match on %s: unknown operator %q", ErrMalformedQuery, fieldName, operator)
		}
	}

	terms := index.Analyze([]byte(text))
	if len(terms) == 1 {
		return &query.TermNode{FieldName: fieldName, Term: terms[0]}, nil
	}

	clauses := make([]*query.BooleanClause, 0, len(terms))
	for _, term := range terms {
		clauses = append(clauses, &query.BooleanClause{
			Type: matchType,
			Node: &query.TermNode{FieldName: fieldName, Term: term},
		})
	}

	return &query.BooleanNode{Clauses: clauses}, nil
}

var boolOccurs = map[string]query.MatchType{
	"must":     query.Must,
	"filter":   query.Must,
	"should":   query.Should,
	"must_not": query.MustNot,
}

func parseBool(raw gojson.RawMessage) (query.Node, error) {
	var occurs map[string]gojson.RawMessage
	if err := gojson.Unmarshal(raw, &occurs); err != nil {
		return nil, fmt.Errorf("%w: bool: %w", ErrMalformedQuery, err)
	}

	for occur := range occurs {
		if _, known := boolOccurs[occur]; !known {
			return nil, fmt.Errorf("%w: bool.%s", ErrUnknownClause, occur)
		}
	}

	// Map iteration order is random; clauses are built in a fixed order so
	// the same source always produces the same node.
	clauses := make([]*query.BooleanClause, 0, len(occurs))
	for _, occur := range []string{"must", "filter", "should", "must_not"} {
		rawClauses, exists := occurs[occur]
		if !exists {
			continue
		}

		nodes, err := parseClauseList(rawClauses)
		if err != nil {
			return nil, err
		}

		for _, node := range nodes {
			clauses = append(clauses, &query.BooleanClause{Type: boolOccurs[occur], Node: node})
		}
	}

	return &query.BooleanNode{Clauses: clauses}, nil
}

func parseClauseList(raw gojson.RawMessage) ([]query.Node, error) {
	if !isArray(raw) {
		node, err := parseClause(raw)
		if err != nil {
			return nil, err
		}
		return []query.Node{node}, nil
	}

	var rawClauses []gojson.RawMessage
	if err := gojson.Unmarshal(raw, &rawClauses); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedQuery, err)
	}

	nodes := make([]query.Node, 0, len(rawClauses))
	for _, rawClause := range rawClauses {
		node, err := parseClause(rawClause)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}

	return nodes, nil
}
