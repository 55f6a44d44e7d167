package query

import (
	"github.com/larose/lynx-percolator/search/index"
)

// SegmentCollector receives the documents selected by a scan, segment by
// segment. The driver calls, in order:
//   - SetSegment(segment 0)
//   - Collect(docId) for each selected live doc of segment 0, ascending
//   - SetSegment(segment 1)
//   - ...
//
// A collector must not hold on to per-segment state across SetSegment
// calls. An error from either method stops the scan.
type SegmentCollector interface {
	SetSegment(segmentReader *index.SegmentReader) error
	Collect(docId index.DocumentId) error
	// NeedsScores reports whether the collector uses relevance scores. When
	// false, the driver does not compute them.
	NeedsScores() bool
}

// DocIdsCollector collects the global doc ids it is given, in visit order.
type DocIdsCollector struct {
	segmentId uint32
	DocIds    []uint64
}

func NewDocIdsCollector() *DocIdsCollector {
	return &DocIdsCollector{
		DocIds: make([]uint64, 0, 100),
	}
}

func (c *DocIdsCollector) SetSegment(segmentReader *index.SegmentReader) error {
	c.segmentId = segmentReader.Id
	return nil
}

func (c *DocIdsCollector) Collect(docId index.DocumentId) error {
	c.DocIds = append(c.DocIds, index.ToGlobalDocId(c.segmentId, uint32(docId)))
	return nil
}

func (c *DocIdsCollector) NeedsScores() bool {
	return false
}
