package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"theway/internal/render"
	"theway/internal/snippet"
)

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List known languages with their extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var runs []render.Run
			for _, name := range a.langs.Names() {
				lang, _ := a.langs.Lookup(name)
				runs = append(runs,
					render.Styled(snippet.Box+" ", render.Style{Fg: render.Color(lang.Color)}),
					render.Plain(fmt.Sprintf("%-12s %s\n", lang.Name, lang.Extension)),
				)
			}
			runs = append(runs, render.ResetRun())
			return render.NewEmitter(cmd.OutOrStdout(), a.colorMode).Emit(runs)
		},
	}
}
