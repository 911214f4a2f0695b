package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"theway/internal/config"
	"theway/internal/language"
	"theway/internal/logging"
	"theway/internal/render"
	"theway/internal/store"
)

// app holds what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	langs     *language.Table
	colorMode render.ColorMode

	repo     *store.Snippets
	renderer *render.Renderer

	cleanup []func() error
}

func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()

	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return fmt.Errorf("failed to get log-format flag: %w", err)
	}
	level := "warn"
	if verbose {
		level = "debug"
	}
	a.logger, err = logging.New(logging.Options{
		Level:  level,
		JSON:   logFormat == "json",
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, func() error {
		// stderr не поддерживает fsync на некоторых платформах
		_ = a.logger.Sync()
		return nil
	})

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	if a.colorMode, err = render.ParseColorMode(colorFlag); err != nil {
		return err
	}
	switch a.colorMode {
	case render.ColorOn:
		color.NoColor = false
	case render.ColorOff:
		color.NoColor = true
	}

	traceCleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, func() error { traceCleanup(); return nil })

	configPath, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if a.cfg, err = config.Load(configPath); err != nil {
		return err
	}
	if a.langs, err = a.cfg.LanguageTable(); err != nil {
		return err
	}
	a.logger.Debug("configuration loaded",
		zap.String("path", configPath),
		zap.Int("languages", a.langs.Len()))
	return nil
}

// openStore opens the snippet store. Commands that never touch it skip this.
func (a *app) openStore(ctx context.Context, cmd *cobra.Command) error {
	path, err := cmd.Root().PersistentFlags().GetString("store")
	if err != nil {
		return fmt.Errorf("failed to get store flag: %w", err)
	}
	if path == "" {
		if path, err = a.cfg.StorePath(); err != nil {
			return err
		}
	}
	kv, err := store.OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	a.logger.Debug("store opened", zap.String("path", path))
	a.repo = store.NewSnippets(kv, a.langs, store.WithLogger(a.logger))
	a.cleanup = append(a.cleanup, a.repo.Close)
	return nil
}

// newRenderer builds the renderer from the configured theme.
func (a *app) newRenderer() (*render.Renderer, error) {
	if a.renderer != nil {
		return a.renderer, nil
	}
	theme, err := a.cfg.RenderTheme()
	if err != nil {
		return nil, err
	}
	hl, err := render.NewChroma(theme.Code)
	if err != nil {
		a.logger.Warn("code style unavailable, using fallback", zap.Error(err))
	}
	a.renderer = render.NewRenderer(theme, hl, a.langs, a.logger)
	return a.renderer, nil
}

// width returns the column count for output, preferring the real terminal.
func (a *app) width(cmd *cobra.Command) int {
	if f, ok := cmd.OutOrStdout().(*os.File); ok && isTerminal(f) {
		return render.TerminalWidth(f)
	}
	return a.cfg.Width()
}

func (a *app) close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	return errors.Join(errs...)
}
