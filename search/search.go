package search

import (
	"errors"
	"fmt"

	"github.com/larose/lynx-percolator/search/index"
	"github.com/larose/lynx-percolator/search/query"
)

var ErrScoresNotSupported = errors.New("scan does not compute scores")

// Scan walks every live document matched by filter, segment by segment, and
// hands it to collector. A nil filter matches every document. Documents are
// enumerated without ranking, so collectors that need scores are rejected.
func Scan(filter query.Node, indexReader *index.IndexReader, collector query.SegmentCollector) error {
	if collector.NeedsScores() {
		return ErrScoresNotSupported
	}

	for _, segmentReader := range indexReader.SegmentReaders {
		if err := collector.SetSegment(segmentReader); err != nil {
			return fmt.Errorf("binding segment %s: %w", segmentReader.IdString, err)
		}

		docIds := segmentReader.LiveDocIds()

		if filter != nil {
			matching, err := filter.DocIdSet(segmentReader)
			if err != nil {
				return fmt.Errorf("filtering segment %s: %w", segmentReader.IdString, err)
			}

			docIds.And(matching)
		}

		it := docIds.Iterator()
		for it.HasNext() {
			if err := collector.Collect(index.DocumentId(it.Next())); err != nil {
				return fmt.Errorf("collecting from segment %s: %w", segmentReader.IdString, err)
			}
		}
	}

	return nil
}
