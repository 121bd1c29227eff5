package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gojiplus/statqa/adapters/codebook"
	"github.com/gojiplus/statqa/adapters/llm"
	"github.com/gojiplus/statqa/adapters/postgres"
	"github.com/gojiplus/statqa/adapters/tabular"
	"github.com/gojiplus/statqa/app"
	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/metadata"
	statengine "github.com/gojiplus/statqa/internal/analysis"
	"github.com/gojiplus/statqa/internal/config"
	"github.com/gojiplus/statqa/internal/export"
	"github.com/gojiplus/statqa/internal/qa"
	"github.com/gojiplus/statqa/ports"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "statqa",
		Short: "Generate Q/A training pairs from tabular data and a codebook",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newExportCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var codebookPath string
	var sheet string
	var outDir string
	var paraphrase bool
	var store bool

	cmd := &cobra.Command{
		Use:   "analyze [data-file]",
		Short: "Analyze a CSV or Excel file and generate Q/A pairs",
		Long: `Run every codebook variable and eligible variable pair through the
statistical analyzers, format insights, generate Q/A pairs, and write
JSONL, chat, and prompt-completion exports plus a findings report.

Example: statqa analyze survey.csv --codebook survey.yaml --out out/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0], codebookPath, sheet, outDir, paraphrase, store)
		},
	}

	cmd.Flags().StringVar(&codebookPath, "codebook", "", "Codebook file (.yaml/.yml or .txt)")
	cmd.Flags().StringVar(&sheet, "sheet", "Sheet1", "Excel sheet name")
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory")
	cmd.Flags().BoolVar(&paraphrase, "paraphrase", false, "Enable LLM paraphrasing (needs OPENAI_API_KEY)")
	cmd.Flags().BoolVar(&store, "store", false, "Persist pairs to Postgres (needs DATABASE_URL)")
	cmd.MarkFlagRequired("codebook")

	return cmd
}

func runAnalyze(ctx context.Context, dataPath, codebookPath, sheet, outDir string, paraphrase, store bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cb, err := loadCodebook(codebookPath)
	if err != nil {
		return err
	}
	var reader ports.DatasetReader = tabular.NewFileReader(dataPath).WithSheet(sheet)
	ds, err := reader.Read()
	if err != nil {
		return err
	}

	var generatorOpts []qa.Option
	if paraphrase {
		if !cfg.LLM.Enabled {
			return fmt.Errorf("--paraphrase requires OPENAI_API_KEY")
		}
		adapter, err := llm.NewParaphraseAdapter(llm.Config{
			Model:       cfg.LLM.Model,
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		})
		if err != nil {
			return err
		}
		generatorOpts = append(generatorOpts, qa.WithParaphraser(adapter, cfg.LLM.ParaphraseCount))
	}

	pipelineOpts := []app.PipelineOption{app.WithWorkers(cfg.Batch.Workers)}
	if store {
		if !cfg.Database.Enabled {
			return fmt.Errorf("--store requires DATABASE_URL")
		}
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := postgres.NewQARepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		pipelineOpts = append(pipelineOpts, app.WithRepository(repo))
	}

	opts := statengine.Options{
		Alpha:           cfg.Analysis.Alpha,
		NormalityCutoff: cfg.Analysis.NormalityCutoff,
		MinPairCount:    cfg.Analysis.MinPairCount,
	}
	service := app.NewPipelineService(opts, qa.NewGenerator(generatorOpts...), pipelineOpts...)

	result, err := service.Run(ctx, ds, cb)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	exports := map[string]export.Format{
		"qa_pairs.jsonl":             export.FormatJSONL,
		"qa_chat.jsonl":              export.FormatChat,
		"qa_prompt_completion.jsonl": export.FormatPromptCompletion,
	}
	for file, format := range exports {
		if err := export.WriteFile(filepath.Join(outDir, file), result.Pairs, format); err != nil {
			return err
		}
	}

	insights := make([]export.Insight, 0, len(result.Findings))
	for _, f := range result.Findings {
		insights = append(insights, export.Insight{Result: f.Result, Insight: f.Insight})
	}
	reportData := export.ReportData{
		Dataset:     result.Dataset,
		RunID:       result.RunID,
		GeneratedAt: result.StartedAt,
		Insights:    insights,
		PairCount:   len(result.Pairs),
		SkipCount:   result.Skipped,
		FailCount:   result.Failed,
	}
	if err := export.WriteReport(filepath.Join(outDir, "report.md"), filepath.Join(outDir, "report.html"), reportData); err != nil {
		return err
	}

	fmt.Printf("Run %s: %d analyzed, %d skipped, %d failed\n", result.RunID, result.Analyzed, result.Skipped, result.Failed)
	fmt.Printf("Wrote %d Q/A pairs to %s\n", len(result.Pairs), outDir)
	return nil
}

func newExportCmd() *cobra.Command {
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export [pairs-file]",
		Short: "Re-export a qa_pairs.jsonl file in another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(args[0], outPath, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "chat", "Target format: jsonl, chat, or prompt_completion")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (default: stdout)")

	return cmd
}

func runExport(pairsPath, outPath, formatName string) error {
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	pairs, err := readPairs(pairsPath)
	if err != nil {
		return err
	}
	if outPath == "" {
		return export.Write(os.Stdout, pairs, format)
	}
	return export.WriteFile(outPath, pairs, format)
}

func readPairs(path string) ([]analysis.QAPair, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pairs file: %w", err)
	}
	defer file.Close()

	var pairs []analysis.QAPair
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var pair analysis.QAPair
		if err := json.Unmarshal([]byte(line), &pair); err != nil {
			return nil, fmt.Errorf("parse pair line: %w", err)
		}
		pairs = append(pairs, pair)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pairs file: %w", err)
	}
	return pairs, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", analysis.ToolName, analysis.ToolVersion)
		},
	}
}

func loadCodebook(path string) (*metadata.Codebook, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read codebook: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return codebook.NewYAMLParser().Parse(raw)
	default:
		return codebook.NewTextParser().Parse(string(raw))
	}
}
