package index

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/larose/lynx-percolator/search/utils"
)

func docValuesPath(directory, segmentId, fieldName string) string {
	return filepath.Join(directory, "segment."+segmentId+"."+fieldName+".docvalues")
}

// DocValuesWriter records the values of byte fields per document so they
// can be read back by doc id without going through the inverted index.
//
// Record per document: uvarint count, then count length-prefixed values.
type DocValuesWriter struct {
	currentDocId DocumentId
	values       map[string]map[DocumentId][][]byte
}

func newDocValuesWriter() *DocValuesWriter {
	return &DocValuesWriter{
		values: make(map[string]map[DocumentId][][]byte, 4),
	}
}

func (writer *DocValuesWriter) Doc(docId DocumentId) {
	writer.currentDocId = docId
}

func (writer *DocValuesWriter) Field(field *Field) {
	if field.FieldType != ByteFieldType {
		return
	}

	fieldValues, exists := writer.values[field.Name]
	if !exists {
		fieldValues = make(map[DocumentId][][]byte, 100)
		writer.values[field.Name] = fieldValues
	}

	fieldValues[writer.currentDocId] = append(fieldValues[writer.currentDocId], field.Value)
}

func (writer *DocValuesWriter) EndField() {
}

func (writer *DocValuesWriter) Term(term []byte) {
}

func (writer *DocValuesWriter) Write(directory, segmentId string, info *SegmentInfo) error {
	record := make([]byte, 0, 64)

	for fieldName, values := range writer.values {
		kvStoreWriter, err := newKVStoreWriter(docValuesPath(directory, segmentId, fieldName))
		if err != nil {
			return err
		}

		sortedDocIds := make([]DocumentId, 0, len(values))
		for docId := range values {
			sortedDocIds = append(sortedDocIds, docId)
		}

		slices.Sort(sortedDocIds)

		for _, docId := range sortedDocIds {
			docValues := values[docId]

			record = binary.AppendUvarint(record[:0], uint64(len(docValues)))
			for _, value := range docValues {
				record = utils.AppendLengthPrefixed(record, value)
			}

			if err := kvStoreWriter.Append(utils.Uint32ToBytes(uint32(docId)), record); err != nil {
				_ = kvStoreWriter.Close()
				return err
			}
		}

		if err := kvStoreWriter.Close(); err != nil {
			return err
		}

		info.DocValuesFields = append(info.DocValuesFields, fieldName)
	}

	return nil
}

// BinaryDocValues gives access to the values of one field, one document at
// a time:
//
//	values.SetDocument(docId)
//	for i := 0; i < values.Count(); i++ {
//		value := values.ValueAt(i)
//	}
//
// Values are copied into a scratch buffer that SetDocument overwrites, so
// callers that keep a value past the next SetDocument must copy it.
type BinaryDocValues struct {
	fieldName     string
	kvStoreReader *KVStoreReader
	offsets       []int
	scratch       []byte
	err           error
}

func newBinaryDocValues(fieldName string, kvStoreReader *KVStoreReader) *BinaryDocValues {
	return &BinaryDocValues{
		fieldName:     fieldName,
		kvStoreReader: kvStoreReader,
		offsets:       make([]int, 0, 2),
		scratch:       make([]byte, 0, 64),
	}
}

// emptyDocValues is used for segments that have no value for the field.
func emptyDocValues(fieldName string) *BinaryDocValues {
	return &BinaryDocValues{fieldName: fieldName}
}

func (values *BinaryDocValues) SetDocument(docId DocumentId) {
	values.offsets = values.offsets[:0]
	values.scratch = values.scratch[:0]
	values.err = nil

	if values.kvStoreReader == nil {
		return
	}

	record := values.kvStoreReader.Get(utils.Uint32ToBytes(uint32(docId)))
	if record == nil {
		return
	}

	count, n := binary.Uvarint(record)
	if n <= 0 {
		values.err = fmt.Errorf("corrupted doc values for field %s of document %d", values.fieldName, docId)
		return
	}
	record = record[n:]

	for i := uint64(0); i < count; i++ {
		value, consumed, ok := utils.ReadLengthPrefixed(record)
		if !ok {
			values.offsets = values.offsets[:0]
			values.scratch = values.scratch[:0]
			values.err = fmt.Errorf("corrupted doc values for field %s of document %d", values.fieldName, docId)
			return
		}

		values.offsets = append(values.offsets, len(values.scratch))
		values.scratch = append(values.scratch, value...)
		record = record[consumed:]
	}
}

func (values *BinaryDocValues) Count() int {
	return len(values.offsets)
}

func (values *BinaryDocValues) ValueAt(i int) []byte {
	end := len(values.scratch)
	if i+1 < len(values.offsets) {
		end = values.offsets[i+1]
	}

	return values.scratch[values.offsets[i]:end]
}

// Err reports a decoding failure of the current document. Count is zero
// when it is set.
func (values *BinaryDocValues) Err() error {
	return values.err
}
