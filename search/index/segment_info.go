package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// SegmentInfo describes what a segment holds. It is written once, after
// every component, and read when the segment is opened.
type SegmentInfo struct {
	DocCount        uint32   `json:"docCount"`
	IndexedFields   []string `json:"indexedFields"`
	StoredFields    []string `json:"storedFields"`
	DocValuesFields []string `json:"docValuesFields"`
}

func segmentInfoPath(directory, segmentId string) string {
	return filepath.Join(directory, "segment."+segmentId+".info")
}

func (info *SegmentInfo) HasStoredField(fieldName string) bool {
	return slices.Contains(info.StoredFields, fieldName)
}

func (info *SegmentInfo) HasDocValues(fieldName string) bool {
	return slices.Contains(info.DocValuesFields, fieldName)
}

func (info *SegmentInfo) HasIndexedField(fieldName string) bool {
	return slices.Contains(info.IndexedFields, fieldName)
}

func writeSegmentInfo(directory, segmentId string, info *SegmentInfo) error {
	slices.Sort(info.IndexedFields)
	slices.Sort(info.StoredFields)
	slices.Sort(info.DocValuesFields)

	file, err := createFile(segmentInfoPath(directory, segmentId))
	if err != nil {
		return err
	}

	if err := json.NewEncoder(file).Encode(info); err != nil {
		_ = file.Close()
		return err
	}

	return file.Close()
}

func readSegmentInfo(directory, segmentId string) (*SegmentInfo, error) {
	file, err := os.Open(segmentInfoPath(directory, segmentId))
	if err != nil {
		return nil, err
	}

	defer file.Close()

	var info SegmentInfo
	if err := json.NewDecoder(file).Decode(&info); err != nil {
		return nil, fmt.Errorf("decoding info of segment %s: %w", segmentId, err)
	}

	return &info, nil
}
