package export

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	mdparser "github.com/gomarkdown/markdown/parser"

	"github.com/gojiplus/statqa/domain/analysis"
	apperrors "github.com/gojiplus/statqa/internal/errors"
)

// Insight is one formatted finding for the report, paired with its result so
// the report can show the computation trace.
type Insight struct {
	Result  *analysis.Result
	Insight string
}

// ReportData is everything the markdown report needs.
type ReportData struct {
	Dataset     string
	RunID       string
	GeneratedAt time.Time
	Insights    []Insight
	PairCount   int
	SkipCount   int
	FailCount   int
}

// RenderReport produces the markdown findings report.
func RenderReport(data ReportData) string {
	var b strings.Builder

	title := data.Dataset
	if title == "" {
		title = "dataset"
	}
	fmt.Fprintf(&b, "# Analysis report: %s\n\n", title)
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", data.RunID, data.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "%d insights, %d Q/A pairs, %d skipped, %d failed.\n\n",
		len(data.Insights), data.PairCount, data.SkipCount, data.FailCount)

	for _, item := range data.Insights {
		if item.Result == nil {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", strings.Join(item.Result.Variables, " x "))
		fmt.Fprintf(&b, "%s\n\n", item.Insight)

		steps := item.Result.Trace.Render()
		if len(steps) > 0 {
			b.WriteString("Computation:\n\n")
			b.WriteString("```\n")
			for _, step := range steps {
				b.WriteString(step)
				b.WriteByte('\n')
			}
			b.WriteString("```\n\n")
		}
	}
	return b.String()
}

// WriteReport writes the markdown report to mdPath and an HTML rendering of
// the same content next to it at htmlPath. Empty htmlPath skips the HTML copy.
func WriteReport(mdPath, htmlPath string, data ReportData) error {
	source := RenderReport(data)
	if err := os.WriteFile(mdPath, []byte(source), 0o644); err != nil {
		return apperrors.StorageError(fmt.Sprintf("write report %s", mdPath), err)
	}
	if htmlPath == "" {
		return nil
	}

	p := mdparser.NewWithExtensions(mdparser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.CompletePage})
	htmlBody := markdown.ToHTML([]byte(source), p, renderer)

	if err := os.WriteFile(htmlPath, htmlBody, 0o644); err != nil {
		return apperrors.StorageError(fmt.Sprintf("write report %s", htmlPath), err)
	}
	return nil
}
