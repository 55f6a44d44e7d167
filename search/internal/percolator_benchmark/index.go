package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/larose/lynx-percolator/search/index"
)

// QueryRecord is one line of the queries file. The whole line is stored as
// the source of the query document.
type QueryRecord struct {
	Id     string
	Source []byte
}

type queryRecordIterator struct {
	file   *os.File
	reader *bufio.Reader
	logger *slog.Logger
}

func newQueryRecordIterator(filePath string, logger *slog.Logger) (*queryRecordIterator, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening queries file: %w", err)
	}

	return &queryRecordIterator{
		file:   file,
		reader: bufio.NewReader(file),
		logger: logger,
	}, nil
}

func (it *queryRecordIterator) NextBatch(maxItems int) ([]QueryRecord, error) {
	var batch []QueryRecord

	eof := false
	for {
		lineBytes, err := it.reader.ReadBytes('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			eof = true
		}

		if len(lineBytes) > 0 {
			var header struct {
				Id string `json:"id"`
			}
			if err := gojson.Unmarshal(lineBytes, &header); err != nil {
				it.logger.Warn("skipping unparsable line", "error", err)
			} else {
				batch = append(batch, QueryRecord{Id: header.Id, Source: lineBytes})
			}
		}

		if eof || len(batch) == maxItems {
			break
		}
	}

	return batch, nil
}

func (it *queryRecordIterator) Close() error {
	return it.file.Close()
}

func convertRecordToDocument(record QueryRecord, fields FieldsConfig) index.Document {
	doc := make(index.Document, 0, 3)

	// A record without an id is indexed anyway; loading skips it.
	if record.Id != "" {
		doc = append(doc, index.Field{
			FieldType: index.ByteFieldType,
			Name:      fields.Id,
			Value:     []byte(record.Id),
		})
	}

	if fields.Type != "" {
		doc = append(doc, index.Field{
			FieldType: index.ByteFieldType,
			Name:      fields.Type,
			Value:     []byte(fields.TypeValue),
		})
	}

	return append(doc, index.Field{
		FieldType: index.StoredFieldType,
		Name:      fields.Source,
		Value:     record.Source,
	})
}

// indexQueries rebuilds the index directory from the queries file, one
// segment per batch.
func indexQueries(cfg *Config, logger *slog.Logger) error {
	directory := cfg.Index.Directory

	if err := os.RemoveAll(directory); err != nil {
		return err
	}

	if err := os.MkdirAll(directory, 0700); err != nil {
		return err
	}

	indexWriter := index.NewIndexWriter(directory)

	iterator, err := newQueryRecordIterator(cfg.Index.QueriesFile, logger)
	if err != nil {
		return err
	}
	defer iterator.Close()

	totalProcessed := 0

	docs := make([]index.Document, 0, cfg.Index.BatchSize)

	for {
		remaining := cfg.Index.MaxQueries - totalProcessed
		if remaining <= 0 {
			break
		}

		records, err := iterator.NextBatch(min(cfg.Index.BatchSize, remaining))
		if err != nil {
			return err
		}

		if len(records) == 0 {
			break
		}

		for _, record := range records {
			docs = append(docs, convertRecordToDocument(record, cfg.Fields))
		}

		if err := indexWriter.AddDocuments(docs); err != nil {
			return fmt.Errorf("adding batch after %d queries: %w", totalProcessed, err)
		}
		docs = docs[:0]

		totalProcessed += len(records)
		logger.Info("indexed batch", "batch", len(records), "total", totalProcessed)
	}

	logger.Info("indexing done", "queries", totalProcessed, "directory", directory)

	return nil
}
