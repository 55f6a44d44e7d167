package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
)

func readCommit(directory string) (*Commit, error) {
	commitFile, err := os.Open(filepath.Join(directory, "commit"))
	if errors.Is(err, os.ErrNotExist) {
		return &Commit{SegmentIds: make([]uint32, 0)}, nil
	}
	if err != nil {
		return nil, err
	}

	defer commitFile.Close()

	var commit Commit
	if err := json.NewDecoder(commitFile).Decode(&commit); err != nil {
		return nil, err
	}

	return &commit, nil
}

func openDeletedReader(directory string, commit *Commit) (DeletedReader, error) {
	if commit.DeletedId == nil {
		return newNullDeletedReader(), nil
	}

	return newFileDeletedReader(directory, strconv.FormatUint(uint64(*commit.DeletedId), 10))
}

func ToGlobalDocId(segmentId, localDocId uint32) uint64 {
	globalDocId := uint64(segmentId)<<32 | uint64(localDocId)
	return globalDocId
}

func ToSegmentId(docId uint64) uint32 {
	return uint32(docId >> 32)
}

func ToLocalDocId(docId uint64) DocumentId {
	return DocumentId(uint32(docId))
}

// IndexReader is a point-in-time view of the committed segments.
type IndexReader struct {
	SegmentReaders []*SegmentReader
}

func NewIndexReader(directory string) (*IndexReader, error) {
	commit, err := readCommit(directory)
	if err != nil {
		return nil, err
	}

	deletedReader, err := openDeletedReader(directory, commit)
	if err != nil {
		return nil, err
	}
	defer deletedReader.Close()

	segmentReaders := make([]*SegmentReader, 0, len(commit.SegmentIds))

	closeAll := func() {
		for _, segmentReader := range segmentReaders {
			_ = segmentReader.Close()
		}
	}

	for _, segmentId := range commit.SegmentIds {
		deletedDocIdsForSegment, err := deletedReader.GetDeletedDocIdsForSegment(segmentId)
		if err != nil {
			closeAll()
			return nil, err
		}

		if deletedDocIdsForSegment == nil {
			deletedDocIdsForSegment = roaring.NewBitmap()
		}

		segmentReader, err := newSegmentReader(directory, segmentId, deletedDocIdsForSegment)
		if err != nil {
			closeAll()
			return nil, err
		}

		segmentReaders = append(segmentReaders, segmentReader)
	}

	return &IndexReader{
		SegmentReaders: segmentReaders,
	}, nil
}

// NumDocs counts live documents across segments.
func (reader *IndexReader) NumDocs() uint64 {
	var numDocs uint64
	for _, segmentReader := range reader.SegmentReaders {
		numDocs += uint64(segmentReader.DocCount()) - segmentReader.DeletedDocIds.GetCardinality()
	}
	return numDocs
}

// SearchByExactValues returns the global ids of live documents whose field
// holds one of values.
func (reader *IndexReader) SearchByExactValues(fieldName string, values [][]byte) ([]uint64, error) {
	results := make([]uint64, 0, 100)

	for _, segmentReader := range reader.SegmentReaders {
		segmentDocIds := roaring.NewBitmap()

		for _, value := range values {
			docIds, err := segmentReader.TermDocIds(fieldName, value)
			if err != nil {
				return nil, err
			}

			segmentDocIds.Or(docIds)
		}

		segmentDocIds.AndNot(segmentReader.DeletedDocIds)

		it := segmentDocIds.Iterator()
		for it.HasNext() {
			results = append(results, ToGlobalDocId(segmentReader.Id, it.Next()))
		}
	}

	return results, nil
}

// Value returns a copy of the first stored value of fieldName for docId, or
// nil when the document or the field does not exist.
func (reader *IndexReader) Value(fieldName string, docId uint64) ([]byte, error) {
	segmentId := ToSegmentId(docId)
	localDocId := ToLocalDocId(docId)

	for _, segmentReader := range reader.SegmentReaders {
		if segmentReader.Id != segmentId {
			continue
		}

		visitor := NewSingleFieldVisitor(fieldName)
		if err := segmentReader.StoreReader().Document(localDocId, visitor); err != nil {
			return nil, err
		}

		// An empty stored value stays non-nil.
		return bytes.Clone(visitor.Source()), nil
	}

	return nil, nil
}

func (reader *IndexReader) Close() error {
	var errs []error
	for _, segmentReader := range reader.SegmentReaders {
		errs = append(errs, segmentReader.Close())
	}
	return errors.Join(errs...)
}
