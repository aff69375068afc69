package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-diagnosis-client/internal/app"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/config"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/logger"
	"github.com/samvad-hq/samvad-diagnosis-client/internal/metrics"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

// cli carries state shared by every command of one invocation.
type cli struct {
	output string

	cfg         *config.Config
	log         logger.Logger
	metrics     *metrics.Metrics
	stopMetrics context.CancelFunc
	interviewer *app.Interviewer
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:               "diagnose",
		Short:             "Command-line client for the symptom checker and triage API",
		Long:              `Look up medical concepts and run diagnosis interviews against API versions v1, v2 and v3.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.output, "output", "o", "json", "output format: json or yaml")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("app-id", "", "API application id")
	flags.String("app-key", "", "API application key")
	flags.String("endpoint", "", "API base URL")
	flags.String("api-version", "", "API version: v1, v2 or v3")
	flags.String("model", "", "knowledge base model header")
	flags.Bool("dev-mode", false, "mark requests as development traffic")
	flags.Int64("timeout", 0, "request timeout in seconds")
	flags.String("profiles-file", "", "YAML/JSON file with named API credentials")
	flags.String("profile", "", "profile alias to use from the profiles file")
	flags.String("publishers-file", "", "YAML/JSON file with interview event publishers")
	flags.String("metrics-addr", "", "serve prometheus metrics on this address while running")
	flags.String("storage", "", "session storage: bbolt, redis or none")
	flags.String("bbolt-path", "", "bbolt session database path")
	flags.String("redis-addr", "", "redis address for session storage")

	root.AddCommand(
		c.infoCmd(),
		c.searchCmd(),
		c.lookupCmd(),
		c.parseCmd(),
		c.conceptsCmd(),
		c.listCmd(),
		c.detailsCmd(),
		c.interviewCmd(),
	)
	return root
}

// setup loads config and logging once flags are parsed.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	c.output = strings.ToLower(strings.TrimSpace(c.output))
	if c.output != outputJSON && c.output != outputYAML {
		return fmt.Errorf("unsupported output format %q", c.output)
	}

	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	c.cfg = cfg
	c.log = log
	c.metrics = metrics.New(nil)

	log.DebugObj("command starting", "command", map[string]any{
		"name":        cmd.CommandPath(),
		"api_version": cfg.APIVersion,
		"profile":     cfg.Profile,
		"storage":     cfg.StorageType,
	})

	if cfg.MetricsAddr != "" {
		ctx, cancel := context.WithCancel(cmd.Context())
		c.stopMetrics = cancel
		go func() {
			_ = c.metrics.Serve(ctx, cfg.MetricsAddr, log)
		}()
	}
	return nil
}

// api builds the connector for stateless commands.
func (c *cli) api() (medapi.API, error) {
	api, _, err := app.Connect(c.cfg, c.log, c.metrics)
	return api, err
}

// interviews builds the interview runner on first use.
func (c *cli) interviews(ctx context.Context) (*app.Interviewer, error) {
	if c.interviewer != nil {
		return c.interviewer, nil
	}
	iv, err := app.NewInterviewer(ctx, c.cfg, c.log, c.metrics)
	if err != nil {
		return nil, err
	}
	c.interviewer = iv
	return iv, nil
}

func (c *cli) close() {
	if c.interviewer != nil {
		if err := c.interviewer.Close(); err != nil && c.log != nil {
			c.log.ErrorObj("interviewer close failed", "error", err.Error())
		}
	}
	if c.stopMetrics != nil {
		c.stopMetrics()
	}
	_ = logger.Close()
}
