package index

import (
	"path/filepath"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/larose/lynx-percolator/search/utils"
)

func deletedPath(directory, deletedId string) string {
	return filepath.Join(directory, "deleted."+deletedId)
}

// DeletedWriter writes one deletion generation: for every segment with
// deleted documents, the full bitmap of its deleted local doc ids.
type DeletedWriter struct {
	deletedDocIdsBySegment map[uint32]*roaring.Bitmap
}

func newDeletedWriter(deletedDocIdsBySegment map[uint32]*roaring.Bitmap) *DeletedWriter {
	return &DeletedWriter{deletedDocIdsBySegment: deletedDocIdsBySegment}
}

func (writer *DeletedWriter) Write(directory string, deletedId string) error {
	kvStoreWriter, err := newKVStoreWriter(deletedPath(directory, deletedId))
	if err != nil {
		return err
	}

	sortedSegmentIds := make([]uint32, 0, len(writer.deletedDocIdsBySegment))
	for segmentId := range writer.deletedDocIdsBySegment {
		sortedSegmentIds = append(sortedSegmentIds, segmentId)
	}

	slices.Sort(sortedSegmentIds)

	for _, segmentId := range sortedSegmentIds {
		deletedDocsForSegment := writer.deletedDocIdsBySegment[segmentId]
		deletedDocsForSegment.RunOptimize()

		buffer, err := deletedDocsForSegment.ToBytes()
		if err != nil {
			_ = kvStoreWriter.Close()
			return err
		}

		if err := kvStoreWriter.Append(utils.Uint32ToBytes(segmentId), buffer); err != nil {
			_ = kvStoreWriter.Close()
			return err
		}
	}

	return kvStoreWriter.Close()
}

type DeletedReader interface {
	// Returns nil when no document of the segment is deleted.
	GetDeletedDocIdsForSegment(segmentId uint32) (*roaring.Bitmap, error)
	Close() error
}

type NullDeletedReader struct {
}

func newNullDeletedReader() *NullDeletedReader {
	return &NullDeletedReader{}
}

func (reader *NullDeletedReader) GetDeletedDocIdsForSegment(segmentId uint32) (*roaring.Bitmap, error) {
	return nil, nil
}

func (reader *NullDeletedReader) Close() error {
	return nil
}

type FileDeletedReader struct {
	kvStoreReader *KVStoreReader
}

func newFileDeletedReader(directory, deletedId string) (*FileDeletedReader, error) {
	kvStoreReader, err := newKVStoreReader(deletedPath(directory, deletedId))
	if err != nil {
		return nil, err
	}

	return &FileDeletedReader{kvStoreReader: kvStoreReader}, nil
}

func (reader *FileDeletedReader) GetDeletedDocIdsForSegment(segmentId uint32) (*roaring.Bitmap, error) {
	value := reader.kvStoreReader.Get(utils.Uint32ToBytes(segmentId))
	if value == nil {
		return nil, nil
	}

	// The value points into the mapped file, which is closed once the
	// reader has loaded every segment.
	deletedDocs := roaring.NewBitmap()
	if err := deletedDocs.UnmarshalBinary(value); err != nil {
		return nil, err
	}

	return deletedDocs, nil
}

func (reader *FileDeletedReader) Close() error {
	return reader.kvStoreReader.Close()
}
