package main

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"contentkit/internal/config"
	"contentkit/internal/logging"
	"contentkit/internal/pipeline"
	"contentkit/internal/tablestore"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = pipeline.Wrap(pipeline.ErrConfiguration, "config", "load", "invalid configuration", err)
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = pipeline.Wrap(pipeline.ErrIO, "config", "ensure directories", "create output directories", err)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to w, which is the command's stderr so stdout stays parseable.
func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, w)
}

// runContext tags ctx with a fresh run id shared by every log line of one run.
func runContext(ctx context.Context) context.Context {
	return pipeline.WithRunID(ctx, uuid.NewString())
}

// withStore opens the configured table store for the duration of fn.
func (c *commandContext) withStore(ctx context.Context, logger *slog.Logger, fn func(tablestore.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := tablestore.Open(ctx, cfg, logger)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrConfiguration, "store", "open", "open table store "+cfg.Store.Kind, err)
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
