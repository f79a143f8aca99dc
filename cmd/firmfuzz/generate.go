package firmfuzz

import (
	"bytes"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/firmfuzz/firmfuzz/internal/llm"
)

var flagGenerateOut string

func init() {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a hardened FreeRTOS task skeleton from the threat model",
		RunE:  runGenerate,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagGenerateOut, "out", "o", "", "write the generated source to this file instead of stdout")
	cmd.Flags().StringVar(&flagModel, "model", "", "chat model (default gpt-4)")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "OpenAI-compatible endpoint override")
	cmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "completion token budget (default 700)")
	cmd.Flags().Float64Var(&flagTemperature, "temperature", 0, "sampling temperature (default 0.3)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	lcfg, gcfg := loadConfigs()

	client, err := llm.New(llm.Config{
		Model:       pickString(flagModel, lcfg.Model, gcfg.Model),
		BaseURL:     pickString(flagBaseURL, lcfg.BaseURL, gcfg.BaseURL),
		MaxTokens:   pickInt(flagMaxTokens, lcfg.MaxTokens, gcfg.MaxTokens),
		Temperature: pickFloat(flagTemperature, lcfg.Temperature, gcfg.Temperature),
	})
	if err != nil {
		return err
	}

	out, err := client.GenerateTask(cmd.Context())
	if err != nil {
		return fmt.Errorf("generate task: %w", err)
	}

	if flagGenerateOut != "" {
		if err := os.WriteFile(flagGenerateOut, []byte(out), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote generated task to %s\n", flagGenerateOut)
		return nil
	}

	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)
	if !noColor && term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(highlightC(out))
	} else {
		fmt.Print(out)
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

// highlightC renders the generated source with C highlighting; on any
// tokenizer trouble the raw text is printed instead.
func highlightC(code string) string {
	lexer := lexers.Get("c")
	if lexer == nil {
		return code
	}
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return code
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
