package index

import (
	"slices"
)

type termPostings struct {
	docIds    []uint32
	termFreqs []uint64
}

type InvertedIndexWriter struct {
	docId   DocumentId
	fieldId int
	indexed bool

	fieldIds   map[string]int
	fieldNames []string
	// postings[fieldId][term]
	postings []map[string]*termPostings
}

func newInvertedIndexWriter() *InvertedIndexWriter {
	return &InvertedIndexWriter{
		fieldIds:   make(map[string]int),
		fieldNames: make([]string, 0, 5),
		postings:   make([]map[string]*termPostings, 0, 5),
	}
}

func (w *InvertedIndexWriter) Doc(docId DocumentId) {
	w.docId = docId
}

func (w *InvertedIndexWriter) Field(field *Field) {
	w.indexed = field.FieldType.Indexed()
	if !w.indexed {
		return
	}

	fieldId, exists := w.fieldIds[field.Name]
	if !exists {
		fieldId = len(w.fieldIds)
		w.fieldNames = append(w.fieldNames, field.Name)
		w.fieldIds[field.Name] = fieldId
		w.postings = append(w.postings, make(map[string]*termPostings))
	}

	w.fieldId = fieldId
}

func (w *InvertedIndexWriter) EndField() {
}

// Documents arrive in increasing doc id order, so each term's doc ids stay
// sorted without a final sort.
func (w *InvertedIndexWriter) Term(term []byte) {
	if !w.indexed {
		return
	}

	fieldPostings := w.postings[w.fieldId]

	postings, exists := fieldPostings[string(term)]
	if !exists {
		postings = &termPostings{}
		fieldPostings[string(term)] = postings
	}

	last := len(postings.docIds) - 1
	if last >= 0 && postings.docIds[last] == uint32(w.docId) {
		postings.termFreqs[last]++
		return
	}

	postings.docIds = append(postings.docIds, uint32(w.docId))
	postings.termFreqs = append(postings.termFreqs, 1)
}

func (w *InvertedIndexWriter) Write(directory, segmentId string, info *SegmentInfo) error {
	for fieldId, fieldPostings := range w.postings {
		fieldName := w.fieldNames[fieldId]

		if err := w.writeField(directory, segmentId, fieldName, fieldPostings); err != nil {
			return err
		}

		info.IndexedFields = append(info.IndexedFields, fieldName)
	}

	return nil
}

func (w *InvertedIndexWriter) writeField(directory, segmentId, fieldName string, fieldPostings map[string]*termPostings) error {
	postingsWriter, err := newPostingsWriter(directory, segmentId, fieldName)
	if err != nil {
		return err
	}

	dictWriter, err := newDictionaryWriter(directory, segmentId, fieldName)
	if err != nil {
		_ = postingsWriter.Close()
		return err
	}

	sortedTerms := make([]string, 0, len(fieldPostings))
	for term := range fieldPostings {
		sortedTerms = append(sortedTerms, term)
	}
	slices.Sort(sortedTerms)

	termInfo := &TermInfo{}

	for _, term := range sortedTerms {
		postings := fieldPostings[term]

		start, end, err := postingsWriter.WriteTerm(postings.docIds, postings.termFreqs)
		if err != nil {
			_ = postingsWriter.Close()
			_ = dictWriter.Close()
			return err
		}

		termInfo.DocFreq = uint32(len(postings.docIds))
		termInfo.PostingsStartOffset = start
		termInfo.PostingsEndOffset = end

		if err := dictWriter.Write([]byte(term), termInfo); err != nil {
			_ = postingsWriter.Close()
			_ = dictWriter.Close()
			return err
		}
	}

	if err := postingsWriter.Close(); err != nil {
		_ = dictWriter.Close()
		return err
	}

	return dictWriter.Close()
}
