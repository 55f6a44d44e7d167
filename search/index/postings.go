package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const postingsBlockSize = 128

func postingsPath(directory, segmentId, fieldName string) string {
	return filepath.Join(directory, "segment."+segmentId+"."+fieldName+".postings")
}

type PostingsWriter struct {
	buffer []byte
	file   *os.File
	offset uint64
	writer *bufio.Writer
}

func newPostingsWriter(directory, segmentId, fieldName string) (*PostingsWriter, error) {
	file, err := createFile(postingsPath(directory, segmentId, fieldName))
	if err != nil {
		return nil, err
	}

	return &PostingsWriter{
		buffer: make([]byte, 0, postingsBlockSize*4*2+postingsHeaderSize),
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

/*
Block:
  - Header:
	- [0] num docs (byte)
	- [1] last doc id (uint32)
	- [5] data length in bytes (uint32)
  - Doc id deltas (uvarint)
  - Term freqs (uvarint)
*/
const postingsHeaderSize = 9

// WriteTerm writes the postings of one term, docIds sorted ascending, and
// returns the [start, end) range they occupy in the file.
func (writer *PostingsWriter) WriteTerm(docIds []uint32, termFreqs []uint64) (uint64, uint64, error) {
	start := writer.offset

	for i := 0; i < len(docIds); i += postingsBlockSize {
		end := min(i+postingsBlockSize, len(docIds))

		previous := uint32(0)
		if i > 0 {
			previous = docIds[i-1]
		}

		if err := writer.writeBlock(docIds[i:end], termFreqs[i:end], previous); err != nil {
			return 0, 0, err
		}
	}

	return start, writer.offset, nil
}

func (writer *PostingsWriter) writeBlock(docIds []uint32, termFreqs []uint64, previous uint32) error {
	buffer := writer.buffer[:0]
	buffer = append(buffer, byte(len(docIds)))
	buffer = binary.BigEndian.AppendUint32(buffer, docIds[len(docIds)-1])
	buffer = binary.BigEndian.AppendUint32(buffer, 0)

	for _, docId := range docIds {
		buffer = binary.AppendUvarint(buffer, uint64(docId-previous))
		previous = docId
	}

	for _, termFreq := range termFreqs {
		buffer = binary.AppendUvarint(buffer, termFreq)
	}

	binary.BigEndian.PutUint32(buffer[5:], uint32(len(buffer)-postingsHeaderSize))
	writer.buffer = buffer

	if _, err := writer.writer.Write(buffer); err != nil {
		return err
	}

	writer.offset += uint64(len(buffer))
	return nil
}

func (writer *PostingsWriter) Close() error {
	if err := writer.writer.Flush(); err != nil {
		_ = writer.file.Close()
		return err
	}

	return writer.file.Close()
}

type PostingsReader struct {
	fileReader *FileReader
}

func newPostingsReader(directory, segmentId, fieldName string) (*PostingsReader, error) {
	fileReader, err := newFileReader(postingsPath(directory, segmentId, fieldName))
	if err != nil {
		return nil, err
	}

	return &PostingsReader{fileReader: fileReader}, nil
}

func (reader *PostingsReader) Iterator(termInfo *TermInfo) (*PostingsIterator, error) {
	data, err := reader.fileReader.Slice(termInfo.PostingsStartOffset, termInfo.PostingsEndOffset)
	if err != nil {
		return nil, err
	}

	return &PostingsIterator{
		data:      data,
		docIds:    make([]DocumentId, 0, postingsBlockSize),
		termFreqs: make([]uint64, 0, postingsBlockSize),
		index:     -1,
	}, nil
}

func (reader *PostingsReader) Close() error {
	return reader.fileReader.Close()
}

// PostingsIterator walks the doc ids of one term in ascending order:
//
//	for it.Next() {
//		it.DocId()
//	}
//	if err := it.Err(); err != nil {
//	}
type PostingsIterator struct {
	data      []byte
	docIds    []DocumentId
	termFreqs []uint64
	index     int
	lastDocId DocumentId
	err       error
}

func (it *PostingsIterator) Next() bool {
	if it.err != nil {
		return false
	}

	it.index++
	if it.index < len(it.docIds) {
		return true
	}

	if len(it.data) == 0 {
		return false
	}

	if err := it.decodeBlock(); err != nil {
		it.err = err
		return false
	}

	it.index = 0
	return len(it.docIds) > 0
}

func (it *PostingsIterator) decodeBlock() error {
	if len(it.data) < postingsHeaderSize {
		return fmt.Errorf("truncated postings block header")
	}

	numDocs := int(it.data[0])
	length := binary.BigEndian.Uint32(it.data[5:9])
	if uint64(len(it.data)) < postingsHeaderSize+uint64(length) {
		return fmt.Errorf("truncated postings block")
	}

	block := it.data[postingsHeaderSize : postingsHeaderSize+length]
	it.data = it.data[postingsHeaderSize+length:]

	it.docIds = it.docIds[:0]
	it.termFreqs = it.termFreqs[:0]

	docId := it.lastDocId
	for i := 0; i < numDocs; i++ {
		delta, n := binary.Uvarint(block)
		if n <= 0 {
			return fmt.Errorf("corrupted doc id in postings block")
		}
		block = block[n:]

		docId += DocumentId(delta)
		it.docIds = append(it.docIds, docId)
	}

	for i := 0; i < numDocs; i++ {
		termFreq, n := binary.Uvarint(block)
		if n <= 0 {
			return fmt.Errorf("corrupted term freq in postings block")
		}
		block = block[n:]

		it.termFreqs = append(it.termFreqs, termFreq)
	}

	it.lastDocId = docId
	return nil
}

func (it *PostingsIterator) DocId() DocumentId {
	return it.docIds[it.index]
}

func (it *PostingsIterator) TermFreq() uint64 {
	return it.termFreqs[it.index]
}

func (it *PostingsIterator) Err() error {
	return it.err
}
