package firmfuzz

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/firmfuzz/firmfuzz/internal/audit"
	"github.com/firmfuzz/firmfuzz/internal/llm"
	"github.com/firmfuzz/firmfuzz/internal/patch"
	"github.com/firmfuzz/firmfuzz/internal/report"
)

var (
	flagTargetFile  string
	flagContext     int
	flagFileContext bool
	flagRefineDry   bool
	flagModel       string
	flagBaseURL     string
	flagMaxTokens   int
	flagTemperature float64
)

func init() {
	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Suggest or apply LLM patches for reported evidence",
		RunE:  runRefine,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagTargetFile, "target-file", "t", "", "code file that bare source basenames resolve to")
	cmd.Flags().IntVar(&flagContext, "context", 0, "snippet lines before/after the reported line (default 5)")
	cmd.Flags().BoolVar(&flagFileContext, "file-context", false, "include the whole target file in the prompt")
	cmd.Flags().BoolVar(&flagRefineDry, "dry-run", false, "suggest patches without writing files")
	cmd.Flags().StringVar(&flagModel, "model", "", "chat model (default gpt-4)")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "OpenAI-compatible endpoint override")
	cmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "completion token budget (default 700)")
	cmd.Flags().Float64Var(&flagTemperature, "temperature", 0, "sampling temperature (default 0.3)")
}

func runRefine(cmd *cobra.Command, _ []string) error {
	lcfg, gcfg := loadConfigs()
	dir := artifactsDir(lcfg, gcfg)

	reportPath := filepath.Join(dir, report.DefaultName)
	rep, err := report.Load(reportPath)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "no analysis report found; nothing to refine")
			return nil
		}
		return fmt.Errorf("load report: %w", err)
	}
	if len(rep.Items) == 0 {
		fmt.Fprintln(os.Stderr, "report is empty; nothing to refine")
		return nil
	}

	client, err := llm.New(llm.Config{
		Model:       pickString(flagModel, lcfg.Model, gcfg.Model),
		BaseURL:     pickString(flagBaseURL, lcfg.BaseURL, gcfg.BaseURL),
		MaxTokens:   pickInt(flagMaxTokens, lcfg.MaxTokens, gcfg.MaxTokens),
		Temperature: pickFloat(flagTemperature, lcfg.Temperature, gcfg.Temperature),
	})
	if err != nil {
		return err
	}

	cfg := patch.WorkflowConfig{
		TargetFile:  pickString(flagTargetFile, lcfg.TargetFile, gcfg.TargetFile),
		Context:     pickInt(flagContext, lcfg.SnippetContext, gcfg.SnippetContext),
		FileContext: pickBool(flagFileContext, lcfg.FileContext, gcfg.FileContext),
		DryRun:      flagRefineDry,
		Log:         os.Stderr,
	}

	start := time.Now()
	attempts := patch.RunWorkflow(cmd.Context(), cfg, rep.Items, client)
	duration := time.Since(start)

	counts := map[patch.Status]int{}
	for _, at := range attempts {
		counts[at.Status]++
		switch at.Status {
		case patch.StatusApplied:
			fmt.Printf("applied: %s line %d (%s), backup %s\n", at.Target, at.Evidence.Line, at.Evidence.Keyword, at.BackupPath)
		case patch.StatusSuggested:
			fmt.Printf("suggested patch for %s line %d (%s):\n%s\n\n", at.Target, at.Evidence.Line, at.Evidence.Keyword, at.Block)
		case patch.StatusAdvisory:
			fmt.Printf("advisory for %s line %d (%s):\n%s\n\n", at.Target, at.Evidence.Line, at.Evidence.Keyword, at.Suggestion)
		}
	}
	fmt.Fprintf(os.Stderr, "refine finished: %d applied, %d suggested, %d advisory, %d mismatched, %d failed\n",
		counts[patch.StatusApplied], counts[patch.StatusSuggested], counts[patch.StatusAdvisory],
		counts[patch.StatusMismatch], counts[patch.StatusFailed])

	if logErr := audit.NewAuditLog(dir).LogSession(audit.SessionRecord{
		Stage:          "refine",
		EvidenceCount:  len(rep.Items),
		PatchesApplied: counts[patch.StatusApplied],
		Duration:       duration.String(),
	}); logErr != nil {
		fmt.Fprintln(os.Stderr, "audit warning:", logErr)
	}
	return nil
}
