package index

import (
	"errors"
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
)

// SegmentReader gives access to one immutable segment. Per-field readers are
// opened lazily and cached until Close. Not safe for concurrent use.
type SegmentReader struct {
	DeletedDocIds     *roaring.Bitmap
	dictionaryReaders map[string]*DictionaryReader
	directory         string
	docValuesReaders  map[string]*KVStoreReader
	Id                uint32
	IdString          string
	info              *SegmentInfo
	postingsReaders   map[string]*PostingsReader
	storeReader       *StoreReader
}

func newSegmentReader(directory string, segmentId uint32, deletedDocIds *roaring.Bitmap) (*SegmentReader, error) {
	segment := strconv.FormatUint(uint64(segmentId), 10)

	info, err := readSegmentInfo(directory, segment)
	if err != nil {
		return nil, err
	}

	return &SegmentReader{
		DeletedDocIds:     deletedDocIds,
		dictionaryReaders: make(map[string]*DictionaryReader),
		directory:         directory,
		docValuesReaders:  make(map[string]*KVStoreReader),
		Id:                segmentId,
		IdString:          segment,
		info:              info,
		postingsReaders:   make(map[string]*PostingsReader),
		storeReader:       newStoreReader(directory, segment, info.StoredFields),
	}, nil
}

func (reader *SegmentReader) DocCount() uint32 {
	return reader.info.DocCount
}

func (reader *SegmentReader) Info() *SegmentInfo {
	return reader.info
}

// LiveDocIds returns the doc ids of the segment that are not deleted.
func (reader *SegmentReader) LiveDocIds() *roaring.Bitmap {
	liveDocIds := roaring.New()
	liveDocIds.AddRange(0, uint64(reader.info.DocCount))
	liveDocIds.AndNot(reader.DeletedDocIds)
	return liveDocIds
}

func (reader *SegmentReader) DictionaryReader(fieldName string) (*DictionaryReader, error) {
	dictionaryReader, exists := reader.dictionaryReaders[fieldName]
	if !exists {
		var err error
		dictionaryReader, err = newDictionaryReader(reader.directory, reader.IdString, fieldName)
		if err != nil {
			return nil, err
		}

		reader.dictionaryReaders[fieldName] = dictionaryReader
	}

	return dictionaryReader, nil
}

func (reader *SegmentReader) PostingsReader(fieldName string) (*PostingsReader, error) {
	postingsReader, exists := reader.postingsReaders[fieldName]
	if !exists {
		var err error
		postingsReader, err = newPostingsReader(reader.directory, reader.IdString, fieldName)
		if err != nil {
			return nil, err
		}

		reader.postingsReaders[fieldName] = postingsReader
	}

	return postingsReader, nil
}

// TermDocIds returns the doc ids, deleted ones included, whose field
// contains term.
func (reader *SegmentReader) TermDocIds(fieldName string, term []byte) (*roaring.Bitmap, error) {
	docIds := roaring.New()

	if !reader.info.HasIndexedField(fieldName) {
		return docIds, nil
	}

	dictionaryReader, err := reader.DictionaryReader(fieldName)
	if err != nil {
		return nil, err
	}

	termInfo, err := dictionaryReader.Get(term)
	if err != nil {
		return nil, err
	}

	if termInfo == nil {
		return docIds, nil
	}

	postingsReader, err := reader.PostingsReader(fieldName)
	if err != nil {
		return nil, err
	}

	it, err := postingsReader.Iterator(termInfo)
	if err != nil {
		return nil, err
	}

	for it.Next() {
		docIds.Add(uint32(it.DocId()))
	}

	return docIds, it.Err()
}

// DocValues returns a new accessor over the doc values of fieldName. A
// segment where no document has the field gets an accessor with no values.
func (reader *SegmentReader) DocValues(fieldName string) (*BinaryDocValues, error) {
	if !reader.info.HasDocValues(fieldName) {
		return emptyDocValues(fieldName), nil
	}

	kvStoreReader, exists := reader.docValuesReaders[fieldName]
	if !exists {
		var err error
		kvStoreReader, err = newKVStoreReader(docValuesPath(reader.directory, reader.IdString, fieldName))
		if err != nil {
			return nil, err
		}

		reader.docValuesReaders[fieldName] = kvStoreReader
	}

	return newBinaryDocValues(fieldName, kvStoreReader), nil
}

func (reader *SegmentReader) StoreReader() *StoreReader {
	return reader.storeReader
}

func (reader *SegmentReader) Close() error {
	var errs []error

	for _, dictionaryReader := range reader.dictionaryReaders {
		errs = append(errs, dictionaryReader.Close())
	}

	for _, postingsReader := range reader.postingsReaders {
		errs = append(errs, postingsReader.Close())
	}

	for _, kvStoreReader := range reader.docValuesReaders {
		errs = append(errs, kvStoreReader.Close())
	}

	errs = append(errs, reader.storeReader.Close())

	return errors.Join(errs...)
}
