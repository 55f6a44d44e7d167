package query

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/larose/lynx-percolator/search/index"
)

type MatchType byte

const (
	Should MatchType = iota
	Must
	MustNot
)

func (t MatchType) String() string {
	switch t {
	case Should:
		return "should"
	case Must:
		return "must"
	case MustNot:
		return "must_not"
	default:
		return fmt.Sprintf("MatchType(%d)", byte(t))
	}
}

type BooleanClause struct {
	Type MatchType
	Node Node
}

// BooleanNode matches the documents that match every Must clause and no
// MustNot clause. Should clauses are required (at least one) only when there
// is no Must clause. A node with only MustNot clauses matches every document
// that none of them matches; a node with no clause matches nothing.
type BooleanNode struct {
	Clauses []*BooleanClause
}

func (n *BooleanNode) DocIdSet(segmentReader *index.SegmentReader) (*roaring.Bitmap, error) {
	var must, should, mustNot []*roaring.Bitmap

	for _, clause := range n.Clauses {
		docIds, err := clause.Node.DocIdSet(segmentReader)
		if err != nil {
			return nil, err
		}

		switch clause.Type {
		case Must:
			must = append(must, docIds)
		case Should:
			should = append(should, docIds)
		case MustNot:
			mustNot = append(mustNot, docIds)
		default:
			return nil, fmt.Errorf("unknown match type %s", clause.Type)
		}
	}

	var docIds *roaring.Bitmap

	switch {
	case len(must) > 0:
		docIds = roaring.FastAnd(must...)
	case len(should) > 0:
		docIds = roaring.FastOr(should...)
	case len(mustNot) > 0:
		docIds = roaring.New()
		docIds.AddRange(0, uint64(segmentReader.DocCount()))
	default:
		return roaring.New(), nil
	}

	for _, excluded := range mustNot {
		docIds.AndNot(excluded)
	}

	return docIds, nil
}

func (n *BooleanNode) String() string {
	var builder strings.Builder
	builder.WriteString("bool(")
	for i, clause := range n.Clauses {
		if i > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(clause.Type.String())
		builder.WriteString(":")
		builder.WriteString(clause.Node.String())
	}
	builder.WriteString(")")
	return builder.String()
}
