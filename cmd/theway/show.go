package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"theway/internal/render"
	"theway/internal/snippet"
)

// queryFlags select snippets by date range and tags.
type queryFlags struct {
	from string
	to   string
	tags []string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "only snippets dated on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "only snippets dated before (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&f.tags, "tag", nil, "only snippets carrying the tag (repeatable)")
}

func (f *queryFlags) query() (snippet.Query, error) {
	var (
		q   snippet.Query
		err error
	)
	if f.from != "" {
		if q.From, err = snippet.ParseDate(f.from); err != nil {
			return q, err
		}
	}
	if f.to != "" {
		if q.To, err = snippet.ParseDate(f.to); err != nil {
			return q, err
		}
	}
	for _, t := range f.tags {
		if t = strings.TrimSpace(t); t != "" {
			q.Tags = append(q.Tags, t)
		}
	}
	return q, nil
}

// shapeFor returns the --shape flag value, or the configured shape.
func (a *app) shapeFor(value string) (render.Shape, error) {
	if value != "" {
		return render.ParseShape(value)
	}
	return a.cfg.Shape()
}

func newViewCmd(a *app) *cobra.Command {
	var shape string
	cmd := &cobra.Command{
		Use:   "view <index>",
		Short: "Print one snippet with highlighted code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			sh, err := a.shapeFor(shape)
			if err != nil {
				return err
			}
			r, err := a.newRenderer()
			if err != nil {
				return err
			}
			if err := a.openStore(cmd.Context(), cmd); err != nil {
				return err
			}
			s, err := a.repo.Get(cmd.Context(), index)
			if err != nil {
				return err
			}
			emitter := render.NewEmitter(cmd.OutOrStdout(), a.colorMode)
			return emitter.Emit(r.Render(s, sh, a.width(cmd)))
		},
	}
	cmd.Flags().StringVar(&shape, "shape", "", "layout (segmented|legacy), default from config")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		qf      queryFlags
		shape   string
		compact bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print stored snippets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := qf.query()
			if err != nil {
				return err
			}
			sh, err := a.shapeFor(shape)
			if err != nil {
				return err
			}
			if err := a.openStore(cmd.Context(), cmd); err != nil {
				return err
			}
			snippets, err := a.repo.Find(cmd.Context(), q)
			if err != nil {
				return err
			}
			width := a.width(cmd)
			out := cmd.OutOrStdout()

			if compact {
				for _, s := range snippets {
					fmt.Fprintln(out, render.Compact(s, width))
				}
				return nil
			}

			r, err := a.newRenderer()
			if err != nil {
				return err
			}
			rendered, err := r.RenderAll(cmd.Context(), snippets, sh, width)
			if err != nil {
				return err
			}
			emitter := render.NewEmitter(out, a.colorMode)
			for _, runs := range rendered {
				if err := emitter.Emit(runs); err != nil {
					return err
				}
			}
			return nil
		},
	}
	qf.register(cmd)
	cmd.Flags().StringVar(&shape, "shape", "", "layout (segmented|legacy), default from config")
	cmd.Flags().BoolVar(&compact, "compact", false, "one header line per snippet")
	return cmd
}
