package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/helmcode/gamemodel-ai/pkg/formatter"
)

var (
	inputFile    string
	provider     string
	modelName    string
	outputFormat string
)

func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [TEXT]",
		Short: "Model a narrative as a game",
		Long: `Screen a narrative for strategic interdependence and, if it has any,
build a validated game model of it.

Examples:
  # Analyze text given as an argument
  gamemodel-ai analyze "Two firms decide whether to cut prices..."

  # Analyze an article saved to a file
  gamemodel-ai analyze -f article.txt

  # Read from stdin and print JSON
  cat article.txt | gamemodel-ai analyze -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Read the narrative from a file")
	cmd.Flags().StringVar(&provider, "provider", "", "LLM provider (claude, openai)")
	cmd.Flags().StringVar(&modelName, "model", "", "Model name for the provider")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "human", "Output format (human, json, yaml)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := readNarrative(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if provider != "" {
		cfg.LLM.Provider = provider
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()
	a, err := buildAnalyzer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if outputFormat == "human" {
		printHeader(text)
	}

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " Modeling with AI..."
	s.Start()
	out, err := a.Analyze(ctx, text)
	s.Stop()
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if out.Accepted() {
		printSuccess("Analysis complete")
	}

	return formatter.DisplayOutcome(cmd.OutOrStdout(), out, outputFormat)
}

func readNarrative(args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case len(args) == 1 && inputFile != "":
		return "", errors.New("give the narrative either as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case inputFile != "":
		data, err = os.ReadFile(inputFile)
	default:
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return "", fmt.Errorf("read narrative: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", errors.New("narrative is empty")
	}
	return text, nil
}

func printHeader(text string) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Println()
	cyan.Println("🎲 Game Model Builder")
	preview := strings.Join(strings.Fields(text), " ")
	if len([]rune(preview)) > 120 {
		preview = string([]rune(preview)[:120]) + "…"
	}
	fmt.Printf("📝 Narrative: %s\n", preview)
	fmt.Println()
}
