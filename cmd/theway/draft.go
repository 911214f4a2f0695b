package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"theway/internal/snippet"
)

// draftFlags collects snippet fields from the command line.
type draftFlags struct {
	description string
	language    string
	tags        string
	date        string
	code        string
	codeFile    string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "snippet description")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "snippet language")
	cmd.Flags().StringVarP(&f.tags, "tags", "t", "", "space separated tags")
	cmd.Flags().StringVar(&f.date, "date", "", "creation date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.code, "code", "c", "", "snippet code")
	cmd.Flags().StringVarP(&f.codeFile, "code-file", "f", "", "read code from file (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("code", "code-file")
}

// draft converts the flags into a snippet.Draft. Tags and code stay nil unless
// given, so edit can tell "keep" from "clear".
func (f *draftFlags) draft(cmd *cobra.Command) (snippet.Draft, error) {
	d := snippet.Draft{
		Description: strings.TrimSpace(f.description),
		Language:    strings.TrimSpace(f.language),
	}
	if cmd.Flags().Changed("tags") {
		tags := f.tags
		d.Tags = &tags
	}
	if cmd.Flags().Changed("code") {
		code := f.code
		d.Code = &code
	}
	if f.date != "" {
		date, err := snippet.ParseDate(f.date)
		if err != nil {
			return snippet.Draft{}, err
		}
		d.Date = date
	}
	if f.codeFile != "" {
		code, err := readCode(cmd, f.codeFile)
		if err != nil {
			return snippet.Draft{}, err
		}
		d.Code = &code
	}
	return d, nil
}

func readCode(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read code: %w", err)
	}
	return string(data), nil
}

func parseIndex(arg string) (uint64, error) {
	index, err := strconv.ParseUint(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || index == 0 {
		return 0, fmt.Errorf("invalid snippet index %q", arg)
	}
	return index, nil
}

func newAddCmd(a *app) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a snippet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := flags.draft(cmd)
			if err != nil {
				return err
			}
			if err := a.openStore(cmd.Context(), cmd); err != nil {
				return err
			}
			s, err := a.repo.Add(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added snippet #%d\n", s.Index)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "edit <index>",
		Short: "Change fields of a snippet",
		Long:  "Change fields of a snippet. Fields without a flag keep their value; --tags \"\" clears the tags.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			d, err := flags.draft(cmd)
			if err != nil {
				return err
			}
			if err := a.openStore(cmd.Context(), cmd); err != nil {
				return err
			}
			s, err := a.repo.Edit(cmd.Context(), index, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated snippet #%d\n", s.Index)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "del <index>...",
		Aliases: []string{"rm"},
		Short:   "Delete snippets",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indices := make([]uint64, 0, len(args))
			for _, arg := range args {
				index, err := parseIndex(arg)
				if err != nil {
					return err
				}
				indices = append(indices, index)
			}
			if err := a.openStore(cmd.Context(), cmd); err != nil {
				return err
			}
			for _, index := range indices {
				if err := a.repo.Delete(cmd.Context(), index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted snippet #%d\n", index)
			}
			return nil
		},
	}
}
