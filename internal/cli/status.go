package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmccallister93/Daily-Digits/internal/decay"
	"github.com/jmccallister93/Daily-Digits/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show category scores, stats and pending decay",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c := apiClient()

		cats, err := c.Categories(ctx)
		if err != nil {
			return err
		}
		settings, err := c.DecaySettings(ctx)
		if err != nil {
			return err
		}
		due := make(map[string]string, len(settings))
		for _, s := range settings {
			if left, ok := s.Remaining(); ok {
				due[decay.Key(s.CategoryID, s.StatName)] = fmt.Sprintf("%s -%d %s", ui.IconDecay, s.Points, ui.In(left))
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.Heading(ui.IconSheet, "Character Sheet"))
		for _, cat := range cats {
			fmt.Fprintln(out, "")
			fmt.Fprintf(out, "%s %s %s %s\n", cat.Icon, ui.H2.Render(cat.Name), ui.Score(cat.Score), ui.Muted.Render("("+cat.ID+")"))
			if len(cat.Stats) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("  no stats"))
			}
			for _, st := range cat.Stats {
				line := fmt.Sprintf("  - %s %s", ui.Key.Render(st.Name+":"), ui.Signed(st.Value))
				if d, ok := due[decay.Key(cat.ID, st.Name)]; ok {
					line += "  " + ui.Muted.Render(d)
				}
				fmt.Fprintln(out, line)
			}
		}
		return nil
	},
}
