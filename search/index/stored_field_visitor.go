package index

const (
	IdFieldName     = "_id"
	SourceFieldName = "_source"
)

type VisitStatus byte

const (
	VisitField VisitStatus = iota
	SkipField
	StopVisiting
)

// StoredFieldVisitor decides which stored fields StoreReader.Document
// materializes. Field receives a value that is only valid during the call.
type StoredFieldVisitor interface {
	NeedsField(fieldName string) VisitStatus
	Field(fieldName string, value []byte)
}

// SourceFieldVisitor loads a single stored field, the source by default,
// and nothing else.
type SourceFieldVisitor struct {
	fieldName string
	source    []byte
	found     bool
}

func NewSourceFieldVisitor() *SourceFieldVisitor {
	return NewSingleFieldVisitor(SourceFieldName)
}

func NewSingleFieldVisitor(fieldName string) *SourceFieldVisitor {
	return &SourceFieldVisitor{fieldName: fieldName}
}

func (v *SourceFieldVisitor) NeedsField(fieldName string) VisitStatus {
	if v.found {
		return StopVisiting
	}

	if fieldName == v.fieldName {
		return VisitField
	}

	return SkipField
}

// Field keeps the first value of a multi-valued field.
func (v *SourceFieldVisitor) Field(fieldName string, value []byte) {
	if v.found {
		return
	}

	// Copied into a buffer owned by the visitor: the reader reuses its own.
	v.source = append(v.source[:0], value...)
	if v.source == nil {
		v.source = []byte{}
	}
	v.found = true
}

// Source returns the loaded value, or nil when the document has none. An
// empty stored value is returned as an empty, non-nil slice. The slice is
// reused by the next document after Reset.
func (v *SourceFieldVisitor) Source() []byte {
	if !v.found {
		return nil
	}

	return v.source
}

func (v *SourceFieldVisitor) Reset() {
	v.source = v.source[:0]
	v.found = false
}
