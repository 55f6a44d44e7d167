package percolator

import "errors"

var (
	// ErrUnbound is returned by Collect before the first SetSegment.
	ErrUnbound = errors.New("percolator: collector is not bound to a segment")

	// ErrMissingSource is reported for a document that has an id but no
	// stored source.
	ErrMissingSource = errors.New("percolator: document has no source")

	ErrMalformedQuery = errors.New("percolator: malformed query")
	ErrUnknownClause  = errors.New("percolator: unknown query clause")
)
