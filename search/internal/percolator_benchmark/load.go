package main

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/larose/lynx-percolator/search/index"
	"github.com/larose/lynx-percolator/search/percolator"
	"github.com/prometheus/client_golang/prometheus"
)

// loadQueries rebuilds the query registry from the index several times and
// reports the best run.
func loadQueries(cfg *Config, logger *slog.Logger) error {
	indexReader, err := index.NewIndexReader(cfg.Index.Directory)
	if err != nil {
		return err
	}
	defer indexReader.Close()

	registry := prometheus.NewRegistry()

	var metrics *percolator.Metrics
	if cfg.Metrics.Enabled {
		metrics = percolator.NewMetrics(registry)
	}

	opts := []percolator.Option{
		percolator.WithLogger(logger),
		percolator.WithMetrics(metrics),
		percolator.WithIdField(cfg.Fields.Id),
		percolator.WithSourceField(cfg.Fields.Source),
	}
	if cfg.Fields.Type != "" {
		opts = append(opts, percolator.WithTypeFilter(cfg.Fields.Type, []byte(cfg.Fields.TypeValue)))
	}

	parser := percolator.NewDSLParser()

	var best time.Duration = math.MaxInt64
	var queries percolator.Queries

	for i := 0; i < cfg.Load.Iterations; i++ {
		start := time.Now()

		queries, err = percolator.LoadQueries(indexReader, parser, opts...)
		if err != nil {
			return err
		}

		elapsed := time.Since(start)
		if elapsed < best {
			best = elapsed
		}
	}

	logger.Info("load benchmark",
		"queries", len(queries),
		"docs", indexReader.NumDocs(),
		"iterations", cfg.Load.Iterations,
		"best_ms", best.Milliseconds(),
	)

	if err := checkSampleQuery(indexReader, cfg, parser, queries, logger); err != nil {
		return err
	}

	if metrics != nil {
		logOutcomes(registry, logger)
	}

	return nil
}

// checkSampleQuery reads the source of the query with the smallest id back
// from the index and checks that it parses to the loaded query.
func checkSampleQuery(indexReader *index.IndexReader, cfg *Config, parser percolator.QueryParser, queries percolator.Queries, logger *slog.Logger) error {
	if len(queries) == 0 {
		return nil
	}

	var id string
	for queryId := range queries {
		if id == "" || queryId < id {
			id = queryId
		}
	}

	docIds, err := indexReader.SearchByExactValues(cfg.Fields.Id, [][]byte{[]byte(id)})
	if err != nil {
		return err
	}
	if len(docIds) == 0 {
		return fmt.Errorf("query %s is loaded but not indexed", id)
	}

	// The registry keeps the last document with a given id.
	source, err := indexReader.Value(cfg.Fields.Source, docIds[len(docIds)-1])
	if err != nil {
		return err
	}

	node, err := parser.Parse(source)
	if err != nil {
		return fmt.Errorf("parsing source of query %s: %w", id, err)
	}
	if node == nil || node.String() != queries[id].String() {
		return fmt.Errorf("source of query %s does not parse to the loaded query", id)
	}

	logger.Info("sample query", "id", id, "source_bytes", len(source), "query", node.String())

	return nil
}

func logOutcomes(registry *prometheus.Registry, logger *slog.Logger) {
	families, err := registry.Gather()
	if err != nil {
		logger.Warn("gathering metrics", "error", err)
		return
	}

	for _, family := range families {
		if family.GetName() != "percolator_queries_total" {
			continue
		}

		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				logger.Info("outcome", label.GetName(), label.GetValue(), "total", metric.GetCounter().GetValue())
			}
		}
	}
}
