package percolator

import (
	"time"

	"github.com/larose/lynx-percolator/search"
	"github.com/larose/lynx-percolator/search/index"
	"github.com/larose/lynx-percolator/search/query"
)

// LoadQueries scans indexReader and returns the queries it could rebuild.
// Documents that fail to load are logged and left out; only failing to bind
// a segment returns an error.
func LoadQueries(indexReader *index.IndexReader, parser QueryParser, opts ...Option) (Queries, error) {
	collector := NewQueryCollector(parser, opts...)
	o := collector.options

	var filter query.Node
	if o.typeField != "" {
		filter = &query.TermNode{FieldName: o.typeField, Term: o.typeValue}
	}

	start := time.Now()

	if err := search.Scan(filter, indexReader, collector); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	o.metrics.observeLoad(elapsed)

	queries := collector.Queries()
	o.logger.Info("loaded percolator queries",
		"count", len(queries),
		"segments", len(indexReader.SegmentReaders),
		"duration", elapsed,
	)

	return queries, nil
}
