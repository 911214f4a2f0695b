package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"theway/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		qf     queryFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write snippets as a JSON stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			q, err := qf.query()
			if err != nil {
				return err
			}
			if err := a.openStore(cmd.Context(), cmd); err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, ferr := os.Create(output)
				if ferr != nil {
					return fmt.Errorf("failed to create export file: %w", ferr)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = cerr
					}
				}()
				w = f
			}
			bw := bufio.NewWriter(w)
			n, err := a.repo.Export(cmd.Context(), bw, q)
			if err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			a.logger.Info("export finished", zap.Int("snippets", n))
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d snippets to %s\n", n, output)
			}
			return nil
		},
	}
	qf.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var (
		skipInvalid bool
		uiFlag      string
	)
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Read snippets from a JSON stream",
		Long:  "Read snippets from a JSON stream (stdin when no file or - is given). Imported snippets get new indices.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := readUIMode(uiFlag)
			if err != nil {
				return err
			}
			var (
				r    io.Reader = cmd.InOrStdin()
				size int64     = -1
			)
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				if info, err := f.Stat(); err == nil {
					size = info.Size()
				}
				r = f
			}
			if err := a.openStore(cmd.Context(), cmd); err != nil {
				return err
			}
			opts := store.ImportOptions{SkipInvalid: skipInvalid}
			var report store.ImportReport
			if shouldUseTUI(mode, cmd.OutOrStdout()) {
				report, err = runImportWithUI(cmd.Context(), cmd.OutOrStdout(), a.repo, r, size, opts)
			} else {
				report, err = a.repo.Import(cmd.Context(), bufio.NewReader(r), opts)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d snippets", len(report.Imported))
			if len(report.Skipped) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), ", skipped %d", len(report.Skipped))
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "skip malformed records instead of stopping")
	cmd.Flags().StringVar(&uiFlag, "ui", "auto", "progress view (auto|on|off)")
	return cmd
}
