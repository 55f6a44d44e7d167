package index

import "fmt"

type FieldType int

type DocumentId uint32

const (
	// Tokenized and indexed.
	TextFieldType FieldType = iota
	// Indexed as a single term and kept as a binary doc value.
	ByteFieldType
	// Stored only, compressed.
	StoredFieldType
)

func (t FieldType) String() string {
	switch t {
	case TextFieldType:
		return "text"
	case ByteFieldType:
		return "byte"
	case StoredFieldType:
		return "stored"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

func (t FieldType) Indexed() bool {
	return t == TextFieldType || t == ByteFieldType
}

type Field struct {
	FieldType FieldType
	Name      string
	Value     []byte
}

// A field name may repeat within a document.
type Document []Field
