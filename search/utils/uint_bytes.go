package utils

import "encoding/binary"

func Uint32ToBytes(val uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, val)
	return b
}

func Uint64ToBytes(val uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, val)
	return b
}

// AppendLengthPrefixed appends value preceded by its uvarint length.
func AppendLengthPrefixed(buffer []byte, value []byte) []byte {
	buffer = binary.AppendUvarint(buffer, uint64(len(value)))
	return append(buffer, value...)
}

// ReadLengthPrefixed reads one value written by AppendLengthPrefixed and
// returns it along with the number of bytes consumed. The returned slice
// aliases data.
func ReadLengthPrefixed(data []byte) ([]byte, int, bool) {
	length, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, 0, false
	}

	end := uint64(n) + length
	if end > uint64(len(data)) {
		return nil, 0, false
	}

	return data[n:end], int(end), true
}
