package index

// Caller calls in order:
// - Doc()
// - Field()
// - Term()
// - Term()
// - ...
// - EndField()
// - Field()
// - ...
// - Doc()
// - ...
// - Write()
//
// Term() is only called for indexed fields. Write() receives the segment info
// so components can record which fields they persisted.
type SegmentComponentWriter interface {
	Doc(docId DocumentId)
	Field(field *Field)
	EndField()
	Term(term []byte)
	Write(directory, segmentId string, info *SegmentInfo) error
}
