package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/larose/lynx-percolator/search/index"
	"github.com/larose/lynx-percolator/search/logging"
	"github.com/larose/lynx-percolator/search/percolator"
	"github.com/larose/lynx-percolator/search/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queriesFile = `{"id": "go", "query": {"term": {"tag": "go"}}}
{"id": "search", "query": {"match": {"body": "inverted index"}}}
this line is not json
{"query": {"match_all": {}}}
{"id": "disabled"}
{"id": "last", "query": {"match_all": {}}}`

func testConfig(t *testing.T) *Config {
	t.Helper()

	directory := t.TempDir()
	queriesPath := filepath.Join(directory, "queries.jsonl")
	require.NoError(t, os.WriteFile(queriesPath, []byte(queriesFile), 0600))

	cfg := defaultConfig()
	cfg.Index.Directory = filepath.Join(directory, "index")
	cfg.Index.QueriesFile = queriesPath
	cfg.Index.BatchSize = 2
	cfg.Load.Iterations = 2

	return cfg
}

func TestQueryRecordIterator(t *testing.T) {
	cfg := testConfig(t)

	iterator, err := newQueryRecordIterator(cfg.Index.QueriesFile, logging.Discard())
	require.NoError(t, err)
	defer iterator.Close()

	var ids []string
	for {
		batch, err := iterator.NextBatch(2)
		require.NoError(t, err)
		if len(batch) == 0 {
			break
		}
		assert.LessOrEqual(t, len(batch), 2)

		for _, record := range batch {
			ids = append(ids, record.Id)
			assert.True(t, strings.HasPrefix(string(record.Source), "{"))
		}
	}

	assert.Equal(t, []string{"go", "search", "", "disabled", "last"}, ids)
}

func TestIndexThenLoad(t *testing.T) {
	cfg := testConfig(t)
	logger := logging.Discard()

	require.NoError(t, indexQueries(cfg, logger))

	indexReader, err := index.NewIndexReader(cfg.Index.Directory)
	require.NoError(t, err)
	defer indexReader.Close()

	// Five records in batches of two.
	assert.Len(t, indexReader.SegmentReaders, 3)
	assert.Equal(t, uint64(5), indexReader.NumDocs())

	queries, err := percolator.LoadQueries(indexReader, percolator.NewDSLParser(),
		percolator.WithLogger(logger),
		percolator.WithTypeFilter(cfg.Fields.Type, []byte(cfg.Fields.TypeValue)),
	)
	require.NoError(t, err)

	assert.Len(t, queries, 3)
	assert.Contains(t, queries, "go")
	assert.Contains(t, queries, "search")
	assert.Contains(t, queries, "last")

	require.NoError(t, loadQueries(cfg, logger))
}

func TestIndexRespectsMaxQueries(t *testing.T) {
	cfg := testConfig(t)
	cfg.Index.MaxQueries = 3

	require.NoError(t, indexQueries(cfg, logging.Discard()))

	indexReader, err := index.NewIndexReader(cfg.Index.Directory)
	require.NoError(t, err)
	defer indexReader.Close()

	assert.Equal(t, uint64(3), indexReader.NumDocs())
}

func TestCheckSampleQuery(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, indexQueries(cfg, logging.Discard()))

	indexReader, err := index.NewIndexReader(cfg.Index.Directory)
	require.NoError(t, err)
	defer indexReader.Close()

	parser := percolator.NewDSLParser()
	queries, err := percolator.LoadQueries(indexReader, parser, percolator.WithLogger(logging.Discard()))
	require.NoError(t, err)

	var buffer bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buffer, nil))

	require.NoError(t, checkSampleQuery(indexReader, cfg, parser, queries, logger))
	assert.Contains(t, buffer.String(), "msg=\"sample query\" id=go")
	assert.Contains(t, buffer.String(), `query="tag:\"go\""`)

	queries["go"] = &query.MatchAllNode{}
	assert.Error(t, checkSampleQuery(indexReader, cfg, parser, queries, logger))

	assert.NoError(t, checkSampleQuery(indexReader, cfg, parser, percolator.Queries{}, logger))
}
