package percolator

import (
	"fmt"

	"github.com/larose/lynx-percolator/search/index"
	"github.com/larose/lynx-percolator/search/query"
)

// Queries maps a stored query's id to its parsed form.
type Queries map[string]query.Node

// boundSegment holds what the collector reads from the current segment.
// It is replaced wholesale on SetSegment.
type boundSegment struct {
	segmentId   string
	idValues    *index.BinaryDocValues
	storeReader *index.StoreReader
}

// QueryCollector rebuilds stored queries while a scan walks the index. For
// every visited document it reads the id doc value, loads only the source
// stored field and parses it. A document that cannot be parsed is logged and
// left out; it never stops the scan.
//
// The collector starts unbound. SetSegment binds it to a segment and must
// precede Collect for that segment's documents. Not safe for concurrent use.
type QueryCollector struct {
	options       *options
	parser        QueryParser
	queries       Queries
	segment       *boundSegment
	sourceVisitor *index.SourceFieldVisitor
}

func NewQueryCollector(parser QueryParser, opts ...Option) *QueryCollector {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &QueryCollector{
		options:       o,
		parser:        parser,
		queries:       make(Queries),
		sourceVisitor: index.NewSingleFieldVisitor(o.sourceField),
	}
}

// Queries returns the registry. It is filled in place while the scan runs.
func (c *QueryCollector) Queries() Queries {
	return c.queries
}

// Bound reports whether SetSegment has been called.
func (c *QueryCollector) Bound() bool {
	return c.segment != nil
}

// Reset empties the registry, keeping the same map, and unbinds the
// collector so the index can be scanned again.
func (c *QueryCollector) Reset() {
	clear(c.queries)
	c.segment = nil
}

func (c *QueryCollector) SetSegment(segmentReader *index.SegmentReader) error {
	idValues, err := segmentReader.DocValues(c.options.idField)
	if err != nil {
		return fmt.Errorf("loading %s doc values: %w", c.options.idField, err)
	}

	storeReader := segmentReader.StoreReader()

	// A segment where no document has a source binds fine; its documents
	// are reported one by one as missing their source.
	if segmentReader.Info().HasStoredField(c.options.sourceField) {
		if _, err := storeReader.GetFieldStoreReader(c.options.sourceField); err != nil {
			return fmt.Errorf("opening %s store: %w", c.options.sourceField, err)
		}
	}

	c.segment = &boundSegment{
		segmentId:   segmentReader.IdString,
		idValues:    idValues,
		storeReader: storeReader,
	}

	return nil
}

func (c *QueryCollector) Collect(docId index.DocumentId) error {
	if c.segment == nil {
		return ErrUnbound
	}

	c.apply(c.load(docId))
	return nil
}

// NeedsScores is false: loading enumerates documents, it does not rank them.
func (c *QueryCollector) NeedsScores() bool {
	return false
}

func (c *QueryCollector) load(docId index.DocumentId) loadResult {
	idValues := c.segment.idValues
	idValues.SetDocument(docId)

	if err := idValues.Err(); err != nil {
		return loadResult{outcome: failed, docId: docId, err: err}
	}

	idCount := idValues.Count()
	if idCount == 0 {
		return loadResult{outcome: skipped, docId: docId}
	}

	// string() copies: idValues reuses its buffer on the next document.
	id := string(idValues.ValueAt(0))

	c.sourceVisitor.Reset()
	if err := c.segment.storeReader.Document(docId, c.sourceVisitor); err != nil {
		return loadResult{outcome: failed, docId: docId, id: id, idCount: idCount, err: err}
	}

	source := c.sourceVisitor.Source()
	if source == nil {
		return loadResult{outcome: failed, docId: docId, id: id, idCount: idCount, err: ErrMissingSource}
	}

	node, err := c.parse(source)
	switch {
	case err != nil:
		return loadResult{outcome: failed, docId: docId, id: id, idCount: idCount, err: err}
	case node == nil:
		return loadResult{outcome: empty, docId: docId, id: id, idCount: idCount}
	default:
		return loadResult{outcome: loaded, docId: docId, id: id, idCount: idCount, query: node}
	}
}

func (c *QueryCollector) parse(source []byte) (node query.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panicked: %v", r)
		}
	}()

	return c.parser.Parse(source)
}

func (c *QueryCollector) apply(result loadResult) {
	logger := c.options.logger

	if result.idCount > 1 {
		logger.Warn("query document has several ids, using the first",
			"id", result.id,
			"count", result.idCount,
			"segment", c.segment.segmentId,
			"doc", result.docId,
		)
	}

	switch result.outcome {
	case loaded:
		c.queries[result.id] = result.query
	case empty:
		logger.Warn("failed to add query, parser returned nil", "id", result.id)
	case failed:
		if result.idCount == 0 {
			logger.Warn("failed to read query id",
				"segment", c.segment.segmentId,
				"doc", result.docId,
				"error", result.err,
			)
		} else {
			logger.Warn("failed to add query", "id", result.id, "error", result.err)
		}
	}

	c.options.metrics.observeOutcome(result.outcome)
}
