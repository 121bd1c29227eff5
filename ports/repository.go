package ports

import (
	"context"

	"github.com/gojiplus/statqa/domain/analysis"
)

// QARepository persists generated question/answer pairs. Optional sink: the
// batch pipeline runs without one.
type QARepository interface {
	SavePairs(ctx context.Context, runID string, pairs []analysis.QAPair) error
}
