package query

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/larose/lynx-percolator/search/index"
)

// Node is an executable query. It is resolved one segment at a time into
// the set of local doc ids it matches. Deleted documents may be part of the
// set; the caller removes them.
type Node interface {
	DocIdSet(segmentReader *index.SegmentReader) (*roaring.Bitmap, error)
	String() string
}

// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -
// MatchAllNode
// - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - - -

type MatchAllNode struct {
}

func (n *MatchAllNode) DocIdSet(segmentReader *index.SegmentReader) (*roaring.Bitmap, error) {
	docIds := roaring.New()
	docIds.AddRange(0, uint64(segmentReader.DocCount()))
	return docIds, nil
}

func (n *MatchAllNode) String() string {
	return "*:*"
}
