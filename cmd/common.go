package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helmcode/gamemodel-ai/pkg/analyzer"
	"github.com/helmcode/gamemodel-ai/pkg/config"
	"github.com/helmcode/gamemodel-ai/pkg/generator"
	"github.com/helmcode/gamemodel-ai/pkg/llm"
	"github.com/helmcode/gamemodel-ai/pkg/metrics"
	"github.com/helmcode/gamemodel-ai/pkg/model"
	"github.com/helmcode/gamemodel-ai/pkg/notify"
	"github.com/helmcode/gamemodel-ai/pkg/parser"
	"github.com/helmcode/gamemodel-ai/pkg/pipeline"
	"github.com/helmcode/gamemodel-ai/pkg/store"
)

var (
	configPath string
	verbose    bool
)

// BindGlobalFlags registers the flags every subcommand shares.
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newLogger() (*zap.SugaredLogger, error) {
	if !verbose {
		return zap.NewNop().Sugar(), nil
	}
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger.Sugar(), nil
}

// buildAnalyzer wires the LLM client, pipeline, store and publisher.
func buildAnalyzer(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*analyzer.Analyzer, error) {
	client, err := llm.NewFactory().FromConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}
	log.Infow("llm client ready", "model", client.GetModel())

	gen := generator.NewLLMGenerator(client, cfg.MaxTreeDepth)
	p := pipeline.New(gen, pipeline.ConfigFrom(cfg), log)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	var pub notify.Publisher = notify.Nop{}
	if cfg.Notify.MQTTURL != "" {
		m := notify.NewMQTT(cfg.Notify.MQTTURL, cfg.Notify.Topic, "gamemodel-ai-"+uuid.NewString()[:8])
		if err := m.Connect(); err != nil {
			log.Warnw("mqtt unavailable, outcome events disabled", "url", cfg.Notify.MQTTURL, "error", err)
		} else {
			pub = m
		}
	}

	return analyzer.New(p,
		analyzer.WithStore(st),
		analyzer.WithPublisher(pub),
		analyzer.WithMetrics(metrics.NewRecorder()),
		analyzer.WithLogger(log),
	), nil
}

// readCandidateFile decodes a JSON or YAML analysis; "-" reads stdin.
func readCandidateFile(path string) (*model.GameAnalysis, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parser.DecodeAnalysis(data, filepath.Ext(path))
}

func printSuccess(msg string) {
	green := color.New(color.FgGreen)
	green.Fprintf(os.Stderr, "✓ %s\n", msg)
}
