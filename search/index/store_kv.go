package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"os"

	"github.com/edsrzf/mmap-go"
)

/*
Data file, one record per key, in key order:
  - [0] key length (uint32)
  - [4] value length (uint32)
  - [8] key
  - value

Index file: one uint64 offset into the data file per record.
*/
const kvRecordHeaderSize = 8

type KVStoreWriter struct {
	dataFile    *os.File
	dataWriter  *bufio.Writer
	indexFile   *os.File
	indexWriter *bufio.Writer
	offset      uint64
	lastKey     []byte
	buffer      []byte
}

func newKVStoreWriter(basename string) (*KVStoreWriter, error) {
	dataFile, err := createFile(basename + ".data")
	if err != nil {
		return nil, err
	}
	indexFile, err := createFile(basename + ".index")
	if err != nil {
		dataFile.Close()
		return nil, err
	}

	return &KVStoreWriter{
		dataFile:    dataFile,
		dataWriter:  bufio.NewWriter(dataFile),
		indexFile:   indexFile,
		indexWriter: bufio.NewWriter(indexFile),
	}, nil
}

var errKeyOutOfOrder = errors.New("kv store keys must be appended in strictly increasing order")

// Append writes key with the concatenation of values.
func (w *KVStoreWriter) Append(key []byte, values ...[]byte) error {
	if w.lastKey != nil && bytes.Compare(w.lastKey, key) >= 0 {
		return errKeyOutOfOrder
	}

	keyLength := uint32(len(key))

	var valueLength uint32
	for _, value := range values {
		valueLength += uint32(len(value))
	}

	w.buffer = w.buffer[:0]
	w.buffer = binary.BigEndian.AppendUint32(w.buffer, keyLength)
	w.buffer = binary.BigEndian.AppendUint32(w.buffer, valueLength)
	w.buffer = append(w.buffer, key...)
	for _, value := range values {
		w.buffer = append(w.buffer, value...)
	}

	if _, err := w.dataWriter.Write(w.buffer); err != nil {
		return err
	}

	if _, err := w.indexWriter.Write(binary.BigEndian.AppendUint64(nil, w.offset)); err != nil {
		return err
	}

	w.offset += uint64(len(w.buffer))
	w.lastKey = append(w.lastKey[:0], key...)

	return nil
}

func (w *KVStoreWriter) Close() error {
	if err := w.dataWriter.Flush(); err != nil {
		_ = w.dataFile.Close()
		_ = w.indexFile.Close()
		return err
	}

	if err := w.dataFile.Close(); err != nil {
		_ = w.indexFile.Close()
		return err
	}

	if err := w.indexWriter.Flush(); err != nil {
		_ = w.indexFile.Close()
		return err
	}

	return w.indexFile.Close()
}

type KVStoreReader struct {
	data      mmap.MMap
	dataFile  *os.File
	index     mmap.MMap
	indexFile *os.File
}

func newKVStoreReader(basename string) (*KVStoreReader, error) {
	dataFile, data, err := mapFile(basename + ".data")
	if err != nil {
		return nil, err
	}

	indexFile, index, err := mapFile(basename + ".index")
	if err != nil {
		_ = unmapFile(dataFile, data)
		return nil, err
	}

	return &KVStoreReader{
		data:      data,
		dataFile:  dataFile,
		index:     index,
		indexFile: indexFile,
	}, nil
}

func (kv *KVStoreReader) Len() int {
	return len(kv.index) / 8
}

// Get returns the value stored under key, or nil. The slice points into the
// mapped file and is valid until Close.
func (kv *KVStoreReader) Get(key []byte) []byte {
	leftIndex := 0
	rightIndex := kv.Len() - 1

	for leftIndex <= rightIndex {
		index := leftIndex + ((rightIndex - leftIndex) / 2)

		offset := binary.BigEndian.Uint64(kv.index[index*8 : (index*8)+8])
		keyLength := uint64(binary.BigEndian.Uint32(kv.data[offset : offset+4]))
		keyStart := offset + kvRecordHeaderSize
		currentKey := kv.data[keyStart : keyStart+keyLength]

		switch bytes.Compare(currentKey, key) {
		case -1:
			leftIndex = index + 1
		case 1:
			rightIndex = index - 1
		default:
			valueLength := uint64(binary.BigEndian.Uint32(kv.data[offset+4 : offset+8]))
			valueStart := keyStart + keyLength
			return kv.data[valueStart : valueStart+valueLength]
		}
	}

	return nil
}

func (kv *KVStoreReader) Close() error {
	if err := unmapFile(kv.dataFile, kv.data); err != nil {
		_ = unmapFile(kv.indexFile, kv.index)
		return err
	}

	return unmapFile(kv.indexFile, kv.index)
}
