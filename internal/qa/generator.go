package qa

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/metadata"
	"github.com/gojiplus/statqa/internal"
	"github.com/gojiplus/statqa/ports"
)

// Generator turns an analysis result plus its formatted insight into
// question/answer pairs. The template stage is deterministic and needs no
// network; the paraphrase stage is an optional injected capability whose
// failure never blocks template output. Answers are always the formatted
// insight text, never rephrased.
type Generator struct {
	paraphraser     ports.Paraphraser
	paraphraseCount int
	maxParaphraseQs int
	log             *internal.Logger
	now             func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithParaphraser enables the optional LLM paraphrase stage.
func WithParaphraser(p ports.Paraphraser, perQuestion int) Option {
	return func(g *Generator) {
		g.paraphraser = p
		if perQuestion > 0 {
			g.paraphraseCount = perQuestion
		}
	}
}

// WithClock overrides the provenance timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a template-only generator unless a paraphraser is
// injected.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		paraphraseCount: 2,
		maxParaphraseQs: 3,
		log:             internal.DefaultLogger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces Q/A pairs for one result and its formatted answer.
// Results with no applicable template (unanalyzable, empty answer) yield an
// empty list. Every pair carries a provenance block reconstructable from the
// result's computation trace.
func (g *Generator) Generate(ctx context.Context, r *analysis.Result, answer string, cb *metadata.Codebook, datasetName string) []analysis.QAPair {
	if r == nil || answer == "" {
		return nil
	}
	qType := InferQuestionType(r)
	if qType == "" {
		return nil
	}

	labelA := g.label(cb, r.Variables[0])
	labelB := ""
	if len(r.Variables) > 1 {
		labelB = g.label(cb, r.Variables[1])
	}

	questions := instantiate(qType, labelA, labelB)
	pairs := make([]analysis.QAPair, 0, len(questions))
	templateProv := analysis.NewProvenance(analysis.SourceTemplate, r, g.now())
	for _, q := range questions {
		pairs = append(pairs, analysis.QAPair{
			ID:         uuid.NewString(),
			Question:   q,
			Answer:     answer,
			Type:       qType,
			Source:     analysis.SourceTemplate,
			Variables:  append([]string(nil), r.Variables...),
			Dataset:    datasetName,
			Provenance: templateProv,
		})
	}

	if g.paraphraser != nil {
		pairs = append(pairs, g.paraphrase(ctx, r, pairs, qType, answer, datasetName)...)
	}
	return pairs
}

// paraphrase requests rewordings for up to maxParaphraseQs template
// questions. Any call or parse failure is logged and yields nothing; the
// shared answer is reused unmodified.
func (g *Generator) paraphrase(ctx context.Context, r *analysis.Result, templatePairs []analysis.QAPair, qType, answer, datasetName string) []analysis.QAPair {
	questions := make([]string, 0, g.maxParaphraseQs)
	for _, p := range templatePairs {
		questions = append(questions, p.Question)
		if len(questions) == g.maxParaphraseQs {
			break
		}
	}

	paraphrased, err := g.paraphraser.Paraphrase(ctx, questions, answer, g.paraphraseCount)
	if err != nil {
		g.log.Warn("paraphrase stage failed for %v: %v", r.Variables, err)
		return nil
	}

	prov := analysis.NewProvenance(analysis.SourceParaphrase, r, g.now())
	out := make([]analysis.QAPair, 0, len(paraphrased)*g.paraphraseCount)
	for _, pq := range paraphrased {
		for _, q := range pq.Paraphrases {
			if q == "" {
				continue
			}
			out = append(out, analysis.QAPair{
				ID:         uuid.NewString(),
				Question:   q,
				Answer:     answer,
				Type:       qType,
				Source:     analysis.SourceParaphrase,
				Variables:  append([]string(nil), r.Variables...),
				Dataset:    datasetName,
				Provenance: prov,
			})
		}
	}
	return out
}

func (g *Generator) label(cb *metadata.Codebook, name string) string {
	if cb != nil {
		if v, ok := cb.Variable(name); ok {
			return v.DisplayLabel()
		}
	}
	return name
}
