package index

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/klauspost/compress/zstd"
	"github.com/larose/lynx-percolator/search/utils"
)

func fieldStorePath(directory, segmentId, fieldName string) string {
	return filepath.Join(directory, "segment."+segmentId+"."+fieldName+".store")
}

// StoreWriter keeps the values of stored fields. Each document's values for
// a field are length-prefixed, concatenated and compressed as one record.
type StoreWriter struct {
	currentDocId DocumentId
	values       map[string]map[DocumentId][][]byte
}

func newStoreWriter() *StoreWriter {
	return &StoreWriter{
		values: make(map[string]map[DocumentId][][]byte, 10),
	}
}

func (writer *StoreWriter) Doc(docId DocumentId) {
	writer.currentDocId = docId
}

func (writer *StoreWriter) Field(field *Field) {
	if field.FieldType != StoredFieldType {
		return
	}

	fieldValues, exists := writer.values[field.Name]
	if !exists {
		fieldValues = make(map[DocumentId][][]byte, 100)
		writer.values[field.Name] = fieldValues
	}

	fieldValues[writer.currentDocId] = append(fieldValues[writer.currentDocId], field.Value)
}

func (writer *StoreWriter) EndField() {
}

func (writer *StoreWriter) Term(term []byte) {
}

func (writer *StoreWriter) Write(directory, segmentId string, info *SegmentInfo) error {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer encoder.Close()

	record := make([]byte, 0, 1024)
	compressed := make([]byte, 0, 1024)

	for fieldName, values := range writer.values {
		kvStoreWriter, err := newKVStoreWriter(fieldStorePath(directory, segmentId, fieldName))
		if err != nil {
			return err
		}

		sortedDocIds := make([]DocumentId, 0, len(values))
		for docId := range values {
			sortedDocIds = append(sortedDocIds, docId)
		}

		slices.Sort(sortedDocIds)

		for _, docId := range sortedDocIds {
			record = record[:0]
			for _, value := range values[docId] {
				record = utils.AppendLengthPrefixed(record, value)
			}

			compressed = encoder.EncodeAll(record, compressed[:0])

			if err := kvStoreWriter.Append(utils.Uint32ToBytes(uint32(docId)), compressed); err != nil {
				_ = kvStoreWriter.Close()
				return err
			}
		}

		if err := kvStoreWriter.Close(); err != nil {
			return err
		}

		info.StoredFields = append(info.StoredFields, fieldName)
	}

	return nil
}

type FieldStoreReader struct {
	kvStoreReader *KVStoreReader
}

func newFieldStoreReader(directory string, segmentId string, fieldName string) (*FieldStoreReader, error) {
	kvStoreReader, err := newKVStoreReader(fieldStorePath(directory, segmentId, fieldName))
	if err != nil {
		return nil, err
	}

	return &FieldStoreReader{kvStoreReader: kvStoreReader}, nil
}

// Value returns the compressed record of docId, or nil.
func (reader *FieldStoreReader) Value(docId DocumentId) []byte {
	return reader.kvStoreReader.Get(utils.Uint32ToBytes(uint32(docId)))
}

// StoreReader reads stored fields of one segment. Field files are opened the
// first time a visitor asks for them, so fields nobody reads are never
// mapped. Not safe for concurrent use.
type StoreReader struct {
	decoder           *zstd.Decoder
	directory         string
	fieldNames        []string
	fieldStoreReaders map[string]*FieldStoreReader
	scratch           []byte
	segmentId         string
}

func newStoreReader(directory, segmentId string, fieldNames []string) *StoreReader {
	return &StoreReader{
		directory:         directory,
		fieldNames:        fieldNames,
		fieldStoreReaders: make(map[string]*FieldStoreReader, len(fieldNames)),
		segmentId:         segmentId,
	}
}

func (reader *StoreReader) GetFieldStoreReader(fieldName string) (*FieldStoreReader, error) {
	fieldStoreReader, exists := reader.fieldStoreReaders[fieldName]
	if !exists {
		var err error
		fieldStoreReader, err = newFieldStoreReader(reader.directory, reader.segmentId, fieldName)
		if err != nil {
			return nil, err
		}

		reader.fieldStoreReaders[fieldName] = fieldStoreReader
	}

	return fieldStoreReader, nil
}

// Document offers each stored field of docId to visitor. Values handed to
// the visitor are only valid until the next call to Document.
func (reader *StoreReader) Document(docId DocumentId, visitor StoredFieldVisitor) error {
	for _, fieldName := range reader.fieldNames {
		switch visitor.NeedsField(fieldName) {
		case SkipField:
			continue
		case StopVisiting:
			return nil
		}

		fieldStoreReader, err := reader.GetFieldStoreReader(fieldName)
		if err != nil {
			return err
		}

		compressed := fieldStoreReader.Value(docId)
		if compressed == nil {
			continue
		}

		if err := reader.visitRecord(docId, fieldName, compressed, visitor); err != nil {
			return err
		}
	}

	return nil
}

func (reader *StoreReader) visitRecord(docId DocumentId, fieldName string, compressed []byte, visitor StoredFieldVisitor) error {
	if reader.decoder == nil {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return err
		}
		reader.decoder = decoder
	}

	record, err := reader.decoder.DecodeAll(compressed, reader.scratch[:0])
	if err != nil {
		return fmt.Errorf("decompressing field %s of document %d: %w", fieldName, docId, err)
	}
	reader.scratch = record

	for len(record) > 0 {
		value, n, ok := utils.ReadLengthPrefixed(record)
		if !ok {
			return fmt.Errorf("corrupted record for field %s of document %d", fieldName, docId)
		}

		visitor.Field(fieldName, value)
		record = record[n:]
	}

	return nil
}

func (reader *StoreReader) Close() error {
	var firstErr error
	for _, fieldStoreReader := range reader.fieldStoreReaders {
		if err := fieldStoreReader.kvStoreReader.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if reader.decoder != nil {
		reader.decoder.Close()
	}

	return firstErr
}
