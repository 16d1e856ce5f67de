package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmccallister93/Daily-Digits/internal/client"
	"github.com/jmccallister93/Daily-Digits/internal/decay"
	"github.com/jmccallister93/Daily-Digits/internal/ui"
)

func newDecayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decay",
		Short: "Configure point decay for idle stats",
	}
	cmd.AddCommand(
		newDecaySetCmd(),
		newDecayListCmd(),
		newDecayToggleCmd("enable", true),
		newDecayToggleCmd("disable", false),
		newDecayRemoveCmd(),
		newDecayNextCmd(),
		newDecayReconcileCmd(),
		newDecayHistoryCmd(),
	)
	return cmd
}

func newDecaySetCmd() *cobra.Command {
	var points int
	var every float64
	var unit string

	cmd := &cobra.Command{
		Use:   "set <category> <stat>",
		Short: "Create or replace the decay setting of a stat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := apiClient().AddDecaySetting(cmd.Context(), decay.NewSetting{
				CategoryID: args[0],
				StatName:   args[1],
				Points:     points,
				TimeValue:  every,
				TimeUnit:   decay.TimeUnit(unit),
			})
			if err != nil {
				return err
			}
			printSetting(cmd, set)
			return nil
		},
	}

	cmd.Flags().IntVarP(&points, "points", "p", 1, "Points deducted per interval")
	cmd.Flags().Float64VarP(&every, "every", "e", 1, "Interval length")
	cmd.Flags().StringVarP(&unit, "unit", "u", string(decay.Days), "Interval unit (minutes|hours|days)")
	return cmd
}

func newDecayListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List decay settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := apiClient().DecaySettings(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconDecay, "Decay Settings"))
			if len(settings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("no decay configured"))
			}
			for _, set := range settings {
				printSetting(cmd, set)
			}
			return nil
		},
	}
}

func newDecayToggleCmd(name string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <category> <stat>",
		Short: fmt.Sprintf("%s decay for a stat", map[bool]string{true: "Enable", false: "Disable"}[enabled]),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := apiClient().UpdateDecaySetting(cmd.Context(), args[0], args[1], decay.SettingUpdate{Enabled: &enabled})
			if err != nil {
				return err
			}
			printSetting(cmd, set)
			return nil
		},
	}
}

func newDecayRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <category> <stat>",
		Short: "Remove the decay setting of a stat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient().RemoveDecaySetting(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed decay for %s\n", ui.IconDone, decay.Key(args[0], args[1]))
			return nil
		},
	}
}

func newDecayNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <category> <stat>",
		Short: "Show the time until the next deduction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := apiClient().GetDecaySetting(cmd.Context(), args[0], args[1])
			if client.IsNotFound(err) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("no decay configured for "+decay.Key(args[0], args[1])))
				return nil
			}
			if err != nil {
				return err
			}
			left, ok := set.Remaining()
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Enabled(false))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -%d %s %s\n", ui.IconDecay, set.Points, ui.In(left), ui.Muted.Render("("+left.Round(time.Second).String()+")"))
			return nil
		},
	}
}

func newDecayReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Apply every deduction that is due now",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient().Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(res.Applied) == 0 && len(res.Pruned) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("nothing due"))
				return nil
			}
			for _, a := range res.Applied {
				fmt.Fprintf(out, "%s %s %s %s\n", ui.IconDecay, decay.Key(a.CategoryID, a.StatName), ui.Signed(-a.Points), ui.Muted.Render(fmt.Sprintf("(%d cycles)", a.Cycles)))
			}
			for _, key := range res.Pruned {
				fmt.Fprintf(out, "%s pruned %s\n", ui.IconWarn, key)
			}
			return nil
		},
	}
}

func newDecayHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently applied deductions",
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := apiClient().DecayHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("no deductions yet"))
				return nil
			}
			now := time.Now()
			for _, ev := range events {
				fmt.Fprintf(out, "- %s %s %s\n", decay.Key(ev.CategoryID, ev.StatName), ui.Signed(-ev.Points), ui.Muted.Render(ui.Ago(time.UnixMilli(ev.AppliedAt), now)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events")
	return cmd
}

func printSetting(cmd *cobra.Command, set client.DecaySetting) {
	line := fmt.Sprintf("- %s -%d every %g %s, %s", ui.Key.Render(decay.Key(set.CategoryID, set.StatName)), set.Points, set.TimeValue, set.TimeUnit, ui.Enabled(set.Enabled))
	if left, ok := set.Remaining(); ok {
		line += " " + ui.Muted.Render("next "+ui.In(left))
	}
	fmt.Fprintln(cmd.OutOrStdout(), line)
}
