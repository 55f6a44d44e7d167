package index

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

func createFile(filename string) (*os.File, error) {
	return os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
}

// mapFile maps filename read-only. Empty files cannot be mapped, so they
// yield a nil mapping.
func mapFile(filename string) (*os.File, mmap.MMap, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	if stat.Size() == 0 {
		return file, nil, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}

	return file, data, nil
}

func unmapFile(file *os.File, data mmap.MMap) error {
	if data != nil {
		if err := data.Unmap(); err != nil {
			_ = file.Close()
			return err
		}
	}

	return file.Close()
}

type FileReader struct {
	data mmap.MMap
	file *os.File
}

func newFileReader(filename string) (*FileReader, error) {
	file, data, err := mapFile(filename)
	if err != nil {
		return nil, err
	}

	return &FileReader{
		data: data,
		file: file,
	}, nil
}

func (reader *FileReader) Slice(start, end uint64) ([]byte, error) {
	if start > end || end > uint64(len(reader.data)) {
		return nil, fmt.Errorf("slice [%d:%d] out of range of %s (%d bytes)", start, end, reader.file.Name(), len(reader.data))
	}

	return reader.data[start:end], nil
}

func (reader *FileReader) Close() error {
	return unmapFile(reader.file, reader.data)
}
