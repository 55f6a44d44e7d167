package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSegment(t *testing.T, directory string, docs []Document) *IndexReader {
	t.Helper()

	require.NoError(t, NewIndexWriter(directory).AddDocuments(docs))

	indexReader, err := NewIndexReader(directory)
	require.NoError(t, err)
	t.Cleanup(func() { indexReader.Close() })

	return indexReader
}

func TestSegmentInfo(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), []Document{
		{
			{Name: "_id", FieldType: ByteFieldType, Value: []byte("1")},
			{Name: "body", FieldType: TextFieldType, Value: []byte("hello")},
			{Name: "_source", FieldType: StoredFieldType, Value: []byte("{}")},
		},
	})

	require.Len(t, indexReader.SegmentReaders, 1)
	info := indexReader.SegmentReaders[0].Info()

	assert.Equal(t, uint32(1), info.DocCount)
	assert.ElementsMatch(t, []string{"_id", "body"}, info.IndexedFields)
	assert.Equal(t, []string{"_source"}, info.StoredFields)
	assert.Equal(t, []string{"_id"}, info.DocValuesFields)
	assert.True(t, info.HasDocValues("_id"))
	assert.False(t, info.HasDocValues("body"))
}

func TestAddDocumentsRejectsUnknownFieldType(t *testing.T) {
	directory := t.TempDir()

	err := NewIndexWriter(directory).AddDocuments([]Document{
		{{Name: "x", FieldType: FieldType(42), Value: []byte("x")}},
	})
	assert.ErrorContains(t, err, "unknown field type 42")

	indexReader, err := NewIndexReader(directory)
	require.NoError(t, err)
	defer indexReader.Close()
	assert.Empty(t, indexReader.SegmentReaders)
}

func TestAddNoDocuments(t *testing.T) {
	directory := t.TempDir()

	require.NoError(t, NewIndexWriter(directory).AddDocuments(nil))

	indexReader, err := NewIndexReader(directory)
	require.NoError(t, err)
	defer indexReader.Close()
	assert.Equal(t, uint64(0), indexReader.NumDocs())
}

func TestDocValues(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), []Document{
		{
			{Name: "_id", FieldType: ByteFieldType, Value: []byte("first")},
		},
		{
			{Name: "body", FieldType: TextFieldType, Value: []byte("no id")},
		},
		{
			{Name: "_id", FieldType: ByteFieldType, Value: []byte("a")},
			{Name: "_id", FieldType: ByteFieldType, Value: []byte("")},
			{Name: "_id", FieldType: ByteFieldType, Value: []byte("ccc")},
		},
	})

	idValues, err := indexReader.SegmentReaders[0].DocValues("_id")
	require.NoError(t, err)

	idValues.SetDocument(0)
	require.NoError(t, idValues.Err())
	require.Equal(t, 1, idValues.Count())
	first := idValues.ValueAt(0)
	assert.Equal(t, []byte("first"), first)

	idValues.SetDocument(1)
	require.NoError(t, idValues.Err())
	assert.Equal(t, 0, idValues.Count())

	idValues.SetDocument(2)
	require.NoError(t, idValues.Err())
	require.Equal(t, 3, idValues.Count())
	assert.Equal(t, []byte("a"), idValues.ValueAt(0))
	assert.Equal(t, []byte(""), idValues.ValueAt(1))
	assert.Equal(t, []byte("ccc"), idValues.ValueAt(2))

	// Past the last document.
	idValues.SetDocument(3)
	require.NoError(t, idValues.Err())
	assert.Equal(t, 0, idValues.Count())
}

func TestDocValuesMissingField(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), []Document{
		{{Name: "body", FieldType: TextFieldType, Value: []byte("hello")}},
	})

	values, err := indexReader.SegmentReaders[0].DocValues("_id")
	require.NoError(t, err)

	values.SetDocument(0)
	assert.NoError(t, values.Err())
	assert.Equal(t, 0, values.Count())
}

// recordingVisitor loads every field and records the order it saw them in.
type recordingVisitor struct {
	fields map[string][]string
	order  []string
}

func (v *recordingVisitor) NeedsField(fieldName string) VisitStatus {
	v.order = append(v.order, fieldName)
	return VisitField
}

func (v *recordingVisitor) Field(fieldName string, value []byte) {
	v.fields[fieldName] = append(v.fields[fieldName], string(value))
}

func storedDocs() []Document {
	return []Document{
		{
			{Name: "_source", FieldType: StoredFieldType, Value: []byte(`{"query": {"match_all": {}}}`)},
			{Name: "payload", FieldType: StoredFieldType, Value: []byte("large value")},
			{Name: "payload", FieldType: StoredFieldType, Value: []byte("second value")},
		},
		{
			{Name: "payload", FieldType: StoredFieldType, Value: []byte("payload only")},
		},
	}
}

func TestStoreReaderVisitsAllFields(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), storedDocs())
	storeReader := indexReader.SegmentReaders[0].StoreReader()

	visitor := &recordingVisitor{fields: map[string][]string{}}
	require.NoError(t, storeReader.Document(0, visitor))

	assert.Equal(t, map[string][]string{
		"_source": {`{"query": {"match_all": {}}}`},
		"payload": {"large value", "second value"},
	}, visitor.fields)
}

func TestSourceFieldVisitorOpensOnlyTheSource(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), storedDocs())
	storeReader := indexReader.SegmentReaders[0].StoreReader()

	visitor := NewSourceFieldVisitor()
	require.NoError(t, storeReader.Document(0, visitor))
	assert.Equal(t, []byte(`{"query": {"match_all": {}}}`), visitor.Source())

	visitor.Reset()
	require.NoError(t, storeReader.Document(1, visitor))
	assert.Nil(t, visitor.Source())

	assert.Contains(t, storeReader.fieldStoreReaders, "_source")
	assert.NotContains(t, storeReader.fieldStoreReaders, "payload")
}

func TestSourceFieldVisitorOwnsItsBuffer(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), []Document{
		{{Name: "_source", FieldType: StoredFieldType, Value: []byte("first source")}},
		{{Name: "_source", FieldType: StoredFieldType, Value: []byte("second")}},
	})
	storeReader := indexReader.SegmentReaders[0].StoreReader()

	first := NewSourceFieldVisitor()
	require.NoError(t, storeReader.Document(0, first))

	second := NewSourceFieldVisitor()
	require.NoError(t, storeReader.Document(1, second))

	assert.Equal(t, "first source", string(first.Source()))
	assert.Equal(t, "second", string(second.Source()))
}

func TestSingleFieldVisitorKeepsFirstValue(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), storedDocs())
	storeReader := indexReader.SegmentReaders[0].StoreReader()

	visitor := NewSingleFieldVisitor("payload")
	require.NoError(t, storeReader.Document(0, visitor))
	assert.Equal(t, "large value", string(visitor.Source()))

	visitor.Reset()
	require.NoError(t, storeReader.Document(1, visitor))
	assert.Equal(t, "payload only", string(visitor.Source()))
}

func TestSourceFieldVisitorEmptySource(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), []Document{
		{{Name: "_source", FieldType: StoredFieldType, Value: []byte{}}},
		{{Name: "payload", FieldType: StoredFieldType, Value: []byte("no source")}},
	})
	storeReader := indexReader.SegmentReaders[0].StoreReader()

	visitor := NewSourceFieldVisitor()
	require.NoError(t, storeReader.Document(0, visitor))
	assert.NotNil(t, visitor.Source())
	assert.Empty(t, visitor.Source())

	visitor.Reset()
	require.NoError(t, storeReader.Document(1, visitor))
	assert.Nil(t, visitor.Source())
}

func TestTermDocIdsAcrossBlocks(t *testing.T) {
	docs := make([]Document, 0, 300)
	for i := 0; i < 300; i++ {
		body := "odd"
		if i%2 == 0 {
			body = "even"
		}
		if i%100 == 0 {
			body += " hundred hundred"
		}

		docs = append(docs, Document{
			{Name: "body", FieldType: TextFieldType, Value: []byte(body)},
			{Name: "_id", FieldType: ByteFieldType, Value: []byte(fmt.Sprintf("doc-%d", i))},
		})
	}

	indexReader := writeSegment(t, t.TempDir(), docs)
	segmentReader := indexReader.SegmentReaders[0]

	even, err := segmentReader.TermDocIds("body", []byte("even"))
	require.NoError(t, err)
	assert.Equal(t, uint64(150), even.GetCardinality())
	assert.True(t, even.Contains(0))
	assert.True(t, even.Contains(298))
	assert.False(t, even.Contains(299))

	hundred, err := segmentReader.TermDocIds("body", []byte("hundred"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 100, 200}, hundred.ToArray())

	id, err := segmentReader.TermDocIds("_id", []byte("doc-257"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{257}, id.ToArray())

	missing, err := segmentReader.TermDocIds("body", []byte("none"))
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())
}

func TestPostingsTermFreqs(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), []Document{
		{{Name: "body", FieldType: TextFieldType, Value: []byte("go go go")}},
		{{Name: "body", FieldType: TextFieldType, Value: []byte("rust")}},
		{{Name: "body", FieldType: TextFieldType, Value: []byte("Go, rust")}},
	})
	segmentReader := indexReader.SegmentReaders[0]

	dictionaryReader, err := segmentReader.DictionaryReader("body")
	require.NoError(t, err)

	termInfo, err := dictionaryReader.Get([]byte("go"))
	require.NoError(t, err)
	require.NotNil(t, termInfo)
	assert.Equal(t, uint32(2), termInfo.DocFreq)

	postingsReader, err := segmentReader.PostingsReader("body")
	require.NoError(t, err)

	it, err := postingsReader.Iterator(termInfo)
	require.NoError(t, err)

	var docIds []DocumentId
	var termFreqs []uint64
	for it.Next() {
		docIds = append(docIds, it.DocId())
		termFreqs = append(termFreqs, it.TermFreq())
	}
	require.NoError(t, it.Err())

	assert.Equal(t, []DocumentId{0, 2}, docIds)
	assert.Equal(t, []uint64{3, 1}, termFreqs)
}

func TestIndexReaderValue(t *testing.T) {
	directory := t.TempDir()
	writeSegment(t, directory, []Document{
		{
			{Name: "_id", FieldType: ByteFieldType, Value: []byte("a")},
			{Name: "_source", FieldType: StoredFieldType, Value: []byte("source a")},
		},
	})
	indexReader := writeSegment(t, directory, []Document{
		{
			{Name: "_id", FieldType: ByteFieldType, Value: []byte("b")},
			{Name: "_source", FieldType: StoredFieldType, Value: []byte("source b")},
		},
	})

	docIds, err := indexReader.SearchByExactValues("_id", [][]byte{[]byte("b"), []byte("a")})
	require.NoError(t, err)
	require.Len(t, docIds, 2)

	value, err := indexReader.Value("_source", docIds[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("source a"), value)

	value, err = indexReader.Value("_source", docIds[1])
	require.NoError(t, err)
	assert.Equal(t, []byte("source b"), value)

	value, err = indexReader.Value("missing", docIds[1])
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestIndexReaderValueOfMultiValuedField(t *testing.T) {
	indexReader := writeSegment(t, t.TempDir(), []Document{
		{
			{Name: "_id", FieldType: ByteFieldType, Value: []byte("a")},
			{Name: "_source", FieldType: StoredFieldType, Value: []byte{}},
			{Name: "payload", FieldType: StoredFieldType, Value: []byte("first")},
			{Name: "payload", FieldType: StoredFieldType, Value: []byte("second")},
		},
	})

	docIds, err := indexReader.SearchByExactValues("_id", [][]byte{[]byte("a")})
	require.NoError(t, err)
	require.Len(t, docIds, 1)

	value, err := indexReader.Value("payload", docIds[0])
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), value)

	value, err = indexReader.Value("_source", docIds[0])
	require.NoError(t, err)
	assert.NotNil(t, value)
	assert.Empty(t, value)
}

func TestDeleteDocuments(t *testing.T) {
	directory := t.TempDir()
	indexWriter := NewIndexWriter(directory)

	require.NoError(t, indexWriter.AddDocuments([]Document{
		{{Name: "_id", FieldType: ByteFieldType, Value: []byte("a")}},
		{{Name: "_id", FieldType: ByteFieldType, Value: []byte("b")}},
	}))
	require.NoError(t, indexWriter.AddDocuments([]Document{
		{{Name: "_id", FieldType: ByteFieldType, Value: []byte("c")}},
	}))

	require.NoError(t, indexWriter.DeleteDocuments("_id", [][]byte{[]byte("b")}))
	require.NoError(t, indexWriter.DeleteDocuments("_id", [][]byte{[]byte("c")}))
	// Nothing matches: no new generation.
	require.NoError(t, indexWriter.DeleteDocuments("_id", [][]byte{[]byte("z")}))

	commit, err := readCommit(directory)
	require.NoError(t, err)
	require.NotNil(t, commit.DeletedId)
	assert.Equal(t, uint32(1), *commit.DeletedId)

	indexReader, err := NewIndexReader(directory)
	require.NoError(t, err)
	defer indexReader.Close()

	assert.Equal(t, uint64(1), indexReader.NumDocs())
	assert.Equal(t, []uint32{0}, indexReader.SegmentReaders[0].LiveDocIds().ToArray())
	assert.True(t, indexReader.SegmentReaders[1].LiveDocIds().IsEmpty())

	docIds, err := indexReader.SearchByExactValues("_id", [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(t, err)
	assert.Len(t, docIds, 1)
}

func TestGlobalDocIds(t *testing.T) {
	docId := ToGlobalDocId(12345, 678)

	assert.Equal(t, uint32(12345), ToSegmentId(docId))
	assert.Equal(t, DocumentId(678), ToLocalDocId(docId))
}
