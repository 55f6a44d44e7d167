package query

import (
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/larose/lynx-percolator/search/index"
)

type TermNode struct {
	FieldName string
	Term      []byte
}

func (t *TermNode) DocIdSet(segmentReader *index.SegmentReader) (*roaring.Bitmap, error) {
	return segmentReader.TermDocIds(t.FieldName, t.Term)
}

func (t *TermNode) String() string {
	return t.FieldName + ":" + strconv.Quote(string(t.Term))
}
