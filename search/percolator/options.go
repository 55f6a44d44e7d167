package percolator

import (
	"log/slog"

	"github.com/larose/lynx-percolator/search/index"
	"github.com/larose/lynx-percolator/search/logging"
)

type options struct {
	idField     string
	logger      *slog.Logger
	metrics     *Metrics
	sourceField string
	typeField   string
	typeValue   []byte
}

func defaultOptions() *options {
	return &options{
		idField:     index.IdFieldName,
		logger:      logging.WithComponent("percolator"),
		sourceField: index.SourceFieldName,
	}
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithIdField names the byte field whose doc value keys the registry.
func WithIdField(fieldName string) Option {
	return func(o *options) {
		o.idField = fieldName
	}
}

// WithSourceField names the stored field holding the query definition.
func WithSourceField(fieldName string) Option {
	return func(o *options) {
		o.sourceField = fieldName
	}
}

// WithTypeFilter restricts LoadQueries to documents whose byte field holds
// value, so query documents can share an index with other documents.
func WithTypeFilter(fieldName string, value []byte) Option {
	return func(o *options) {
		o.typeField = fieldName
		o.typeValue = value
	}
}
