package ports

import "github.com/gojiplus/statqa/domain/dataset"

// DatasetReader loads a rectangular table from some tabular source (CSV,
// Excel, a database view). The engine performs no joins, filters, or type
// coercion beyond what the analyzers specify.
type DatasetReader interface {
	Read() (*dataset.Dataset, error)
}
