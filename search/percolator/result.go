package percolator

import (
	"github.com/larose/lynx-percolator/search/index"
	"github.com/larose/lynx-percolator/search/query"
)

type loadOutcome byte

const (
	// The query was parsed and registered.
	loaded loadOutcome = iota
	// The document has no id; nothing to register, nothing to report.
	skipped
	// The parser found no query in the source.
	empty
	// Reading or parsing the document failed.
	failed
)

func (o loadOutcome) String() string {
	switch o {
	case loaded:
		return "loaded"
	case skipped:
		return "skipped"
	case empty:
		return "empty"
	default:
		return "failed"
	}
}

// loadResult is what visiting one document produced. id is a copy, never a
// view of the doc values buffer.
type loadResult struct {
	outcome loadOutcome
	docId   index.DocumentId
	id      string
	idCount int
	query   query.Node
	err     error
}
