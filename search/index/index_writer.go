package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/exp/rand"
)

type IndexWriter struct {
	directory string
	mutex     sync.RWMutex
	tokenizer *StandardTokenizer
}

type Commit struct {
	SegmentIds []uint32 `json:"segmentIds"`
	DeletedId  *uint32  `json:"deletedId,omitempty"`
}

func NewIndexWriter(directory string) *IndexWriter {
	return &IndexWriter{
		directory: directory,
		tokenizer: NewStandardTokenizer(),
	}
}

func validateDocuments(docs []Document) error {
	for docId, doc := range docs {
		for _, field := range doc {
			switch field.FieldType {
			case TextFieldType, ByteFieldType, StoredFieldType:
			default:
				return fmt.Errorf("document %d: unknown field type %d for field %s", docId, field.FieldType, field.Name)
			}
		}
	}

	return nil
}

// AddDocuments writes docs as one new segment and commits it. Local doc ids
// follow the order of docs.
func (writer *IndexWriter) AddDocuments(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	if err := validateDocuments(docs); err != nil {
		return err
	}

	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	segmentComponentWriters := []SegmentComponentWriter{
		newInvertedIndexWriter(),
		newStoreWriter(),
		newDocValuesWriter(),
	}

	for docId, doc := range docs {
		for _, segmentComponentWriter := range segmentComponentWriters {
			segmentComponentWriter.Doc(DocumentId(docId))
		}

		for i := range doc {
			field := &doc[i]

			for _, segmentComponentWriter := range segmentComponentWriters {
				segmentComponentWriter.Field(field)
			}

			switch field.FieldType {
			case TextFieldType:
				writer.tokenizer.Reset(field.Value)
				for {
					token, ok := writer.tokenizer.NextToken()
					if !ok {
						break
					}

					for _, segmentComponentWriter := range segmentComponentWriters {
						segmentComponentWriter.Term(token)
					}
				}
			case ByteFieldType:
				for _, segmentComponentWriter := range segmentComponentWriters {
					segmentComponentWriter.Term(field.Value)
				}
			}

			for _, segmentComponentWriter := range segmentComponentWriters {
				segmentComponentWriter.EndField()
			}
		}
	}

	commit, err := readCommit(writer.directory)
	if err != nil {
		return err
	}

	newSegmentId := rand.Uint32()
	for slices.Contains(commit.SegmentIds, newSegmentId) {
		newSegmentId = rand.Uint32()
	}
	segment := strconv.FormatUint(uint64(newSegmentId), 10)

	info := &SegmentInfo{DocCount: uint32(len(docs))}

	for _, segmentComponentWriter := range segmentComponentWriters {
		if err := segmentComponentWriter.Write(writer.directory, segment, info); err != nil {
			return err
		}
	}

	// The info file marks the segment complete; it goes last.
	if err := writeSegmentInfo(writer.directory, segment, info); err != nil {
		return err
	}

	segmentIds := append(commit.SegmentIds, newSegmentId)

	return writer.commit(segmentIds, commit.DeletedId)
}

func (writer *IndexWriter) commit(segmentIds []uint32, deletedId *uint32) error {
	tempFilePath := filepath.Join(writer.directory, ".commit")
	tempFile, err := os.Create(tempFilePath)
	if err != nil {
		return err
	}

	commit := Commit{
		SegmentIds: segmentIds,
		DeletedId:  deletedId,
	}

	if err := json.NewEncoder(tempFile).Encode(commit); err != nil {
		_ = tempFile.Close()
		return err
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return err
	}

	if err := tempFile.Close(); err != nil {
		return err
	}

	return os.Rename(tempFilePath, filepath.Join(writer.directory, "commit"))
}

// DeleteDocuments marks as deleted every document whose field holds one of
// values, by writing a new deletion generation that carries the previous
// one forward.
func (writer *IndexWriter) DeleteDocuments(fieldName string, values [][]byte) error {
	writer.mutex.Lock()
	defer writer.mutex.Unlock()

	indexReader, err := NewIndexReader(writer.directory)
	if err != nil {
		return err
	}
	defer indexReader.Close()

	docIdsToDelete, err := indexReader.SearchByExactValues(fieldName, values)
	if err != nil {
		return err
	}

	if len(docIdsToDelete) == 0 {
		return nil
	}

	commit, err := readCommit(writer.directory)
	if err != nil {
		return err
	}

	var nextDeletedId uint32
	if commit.DeletedId != nil {
		nextDeletedId = *commit.DeletedId + 1
	}

	// Segment readers already carry the previous generation.
	deletedDocIdsBySegment := make(map[uint32]*roaring.Bitmap, len(indexReader.SegmentReaders))
	for _, segmentReader := range indexReader.SegmentReaders {
		if !segmentReader.DeletedDocIds.IsEmpty() {
			deletedDocIdsBySegment[segmentReader.Id] = segmentReader.DeletedDocIds.Clone()
		}
	}

	for _, docId := range docIdsToDelete {
		segmentId := ToSegmentId(docId)

		deletedDocIdsForSegment, exists := deletedDocIdsBySegment[segmentId]
		if !exists {
			deletedDocIdsForSegment = roaring.NewBitmap()
			deletedDocIdsBySegment[segmentId] = deletedDocIdsForSegment
		}

		deletedDocIdsForSegment.Add(uint32(ToLocalDocId(docId)))
	}

	deletedWriter := newDeletedWriter(deletedDocIdsBySegment)

	if err := deletedWriter.Write(writer.directory, strconv.FormatUint(uint64(nextDeletedId), 10)); err != nil {
		return err
	}

	return writer.commit(commit.SegmentIds, &nextDeletedId)
}
