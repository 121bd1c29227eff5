package app

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/dataset"
	"github.com/gojiplus/statqa/domain/metadata"
	"github.com/gojiplus/statqa/internal"
	statengine "github.com/gojiplus/statqa/internal/analysis"
	"github.com/gojiplus/statqa/internal/errors"
	"github.com/gojiplus/statqa/internal/interpret"
	"github.com/gojiplus/statqa/internal/qa"
	"github.com/gojiplus/statqa/ports"
)

// weightPattern matches sampling-weight variables by name or label. Weights
// calibrate estimates and pairing them with substantive variables produces
// meaningless correlations.
var weightPattern = regexp.MustCompile(`(?i)(^|[_\s])(weight|wgt|wt)([_\s]|$)`)

// PipelineService drives a full dataset analysis: every codebook variable
// through the univariate analyzer, every eligible pair through the bivariate
// analyzer, then formatting and Q/A generation per finding. Items run in
// parallel and are isolated: one bad column never aborts the batch.
type PipelineService struct {
	univariate *statengine.UnivariateAnalyzer
	bivariate  *statengine.BivariateAnalyzer
	formatter  *interpret.InsightFormatter
	generator  *qa.Generator
	repository ports.QARepository
	log        *internal.Logger
	workers    int
}

// PipelineOption configures a PipelineService.
type PipelineOption func(*PipelineService)

// WithRepository enables Q/A pair persistence after the batch completes.
func WithRepository(repo ports.QARepository) PipelineOption {
	return func(s *PipelineService) { s.repository = repo }
}

// WithWorkers bounds batch parallelism.
func WithWorkers(n int) PipelineOption {
	return func(s *PipelineService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(log *internal.Logger) PipelineOption {
	return func(s *PipelineService) { s.log = log }
}

// NewPipelineService wires the analysis engines with a Q/A generator.
func NewPipelineService(opts statengine.Options, generator *qa.Generator, options ...PipelineOption) *PipelineService {
	s := &PipelineService{
		univariate: statengine.NewUnivariateAnalyzer(opts),
		bivariate:  statengine.NewBivariateAnalyzer(opts),
		formatter:  interpret.NewInsightFormatter(),
		generator:  generator,
		log:        internal.DefaultLogger,
		workers:    4,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Finding is one analyzable result with its prose insight and Q/A pairs.
type Finding struct {
	Result  *analysis.Result
	Insight string
	Pairs   []analysis.QAPair
}

// BatchResult is the outcome of a full dataset run. Skips (no statistical
// result defined for the input) are counted separately from failures
// (analysis raised an error or panicked).
type BatchResult struct {
	RunID     string
	Dataset   string
	Findings  []Finding
	Pairs     []analysis.QAPair
	Analyzed  int
	Skipped   int
	Failed    int
	StartedAt time.Time
	Duration  time.Duration
}

type workItem struct {
	kind  analysis.Type
	varA  *metadata.Variable
	varB  *metadata.Variable
	label string
}

type workOutcome struct {
	finding *Finding
	skipped bool
	failed  bool
}

// Run analyzes every variable and eligible variable pair of the dataset.
// The returned error covers batch-level problems only (bad inputs, storage);
// per-item analysis errors are counted in BatchResult.Failed.
func (s *PipelineService) Run(ctx context.Context, ds *dataset.Dataset, cb *metadata.Codebook) (*BatchResult, error) {
	if ds == nil || cb == nil {
		return nil, errors.InvalidInput("pipeline requires a dataset and a codebook")
	}
	startedAt := time.Now()
	runID := uuid.NewString()

	items := s.planItems(ds, cb)
	s.log.Info("run %s: %d work items on dataset %q (%d rows)", runID, len(items), ds.Name, ds.Rows())

	outcomes := make([]workOutcome, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			outcomes[i] = s.runItem(gctx, ds, cb, item)
			return nil
		})
	}
	// Workers only record outcomes, so Wait cannot fail.
	_ = g.Wait()

	result := &BatchResult{
		RunID:     runID,
		Dataset:   ds.Name,
		StartedAt: startedAt,
	}
	for _, outcome := range outcomes {
		switch {
		case outcome.failed:
			result.Failed++
		case outcome.skipped:
			result.Skipped++
		default:
			result.Analyzed++
			result.Findings = append(result.Findings, *outcome.finding)
			result.Pairs = append(result.Pairs, outcome.finding.Pairs...)
		}
	}
	result.Duration = time.Since(startedAt)
	s.log.Info("run %s: %d analyzed, %d skipped, %d failed, %d qa pairs",
		runID, result.Analyzed, result.Skipped, result.Failed, len(result.Pairs))

	if s.repository != nil && len(result.Pairs) > 0 {
		if err := s.repository.SavePairs(ctx, runID, result.Pairs); err != nil {
			return result, errors.Wrap(err, "persist qa pairs")
		}
	}
	return result, nil
}

// planItems enumerates univariate items for every codebook variable present
// in the dataset, then bivariate items for unordered pairs of pairable
// variables. Sampling weights and categorical-categorical pairs are excluded
// up front rather than burned as analyzer skips.
func (s *PipelineService) planItems(ds *dataset.Dataset, cb *metadata.Codebook) []workItem {
	var items []workItem
	var pairable []*metadata.Variable

	for _, name := range cb.Names() {
		v, _ := cb.Variable(name)
		if _, ok := ds.Column(name); !ok {
			s.log.Warn("variable %s declared in codebook but absent from dataset, skipping", name)
			continue
		}
		items = append(items, workItem{kind: analysis.Univariate, varA: v, label: name})
		if v.Type != metadata.TypeUnknown && !isWeightVariable(v) {
			pairable = append(pairable, v)
		}
	}

	for i := 0; i < len(pairable); i++ {
		for j := i + 1; j < len(pairable); j++ {
			a, b := pairable[i], pairable[j]
			if a.Type.IsCategorical() && b.Type.IsCategorical() {
				continue
			}
			items = append(items, workItem{
				kind:  analysis.Bivariate,
				varA:  a,
				varB:  b,
				label: fmt.Sprintf("%s x %s", a.Name, b.Name),
			})
		}
	}
	return items
}

// runItem executes one analysis, formats it, and generates Q/A pairs. A
// panic inside the engines is confined to the item.
func (s *PipelineService) runItem(ctx context.Context, ds *dataset.Dataset, cb *metadata.Codebook, item workItem) (outcome workOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("analysis of %s panicked: %v", item.label, r)
			outcome = workOutcome{failed: true}
		}
	}()

	var result *analysis.Result
	var err error
	switch item.kind {
	case analysis.Univariate:
		values, _ := ds.Column(item.varA.Name)
		result, err = s.univariate.Analyze(values, item.varA)
	case analysis.Bivariate:
		result, err = s.bivariate.Analyze(ds, item.varA, item.varB)
	}
	if err != nil {
		s.log.Error("analysis of %s failed: %v", item.label, err)
		return workOutcome{failed: true}
	}
	if result == nil || !result.Analyzable {
		return workOutcome{skipped: true}
	}

	insight := s.formatter.Format(result, cb)
	if insight == "" {
		return workOutcome{skipped: true}
	}
	pairs := s.generator.Generate(ctx, result, insight, cb, ds.Name)
	return workOutcome{finding: &Finding{Result: result, Insight: insight, Pairs: pairs}}
}

func isWeightVariable(v *metadata.Variable) bool {
	return weightPattern.MatchString(v.Name) || weightPattern.MatchString(v.Label)
}
