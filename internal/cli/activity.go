package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmccallister93/Daily-Digits/internal/character"
	"github.com/jmccallister93/Daily-Digits/internal/client"
	"github.com/jmccallister93/Daily-Digits/internal/ui"
)

func newLogCmd() *cobra.Command {
	var category string
	var stats []string
	var points int

	cmd := &cobra.Command{
		Use:   "log <activity>",
		Short: "Log an activity and credit its points to one or more stats",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("activity description is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := apiClient().LogActivity(cmd.Context(), client.NewActivity{
				Activity: args[0],
				Category: category,
				Stat:     character.StatList(stats),
				Points:   points,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", ui.IconDone, entry.Activity, ui.Signed(entry.Points), ui.Muted.Render(fmt.Sprintf("→ %s %v (%s)", entry.Category, []string(entry.Stat), entry.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Category ID")
	cmd.Flags().StringSliceVarP(&stats, "stat", "s", nil, "Stat name (repeat for several)")
	cmd.Flags().IntVarP(&points, "points", "p", 1, "Points credited to each stat")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("stat")

	return cmd
}

func newActivityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "List, edit or delete logged activities",
	}
	cmd.AddCommand(newActivityListCmd(), newActivityEditCmd(), newActivityDeleteCmd())
	return cmd
}

func newActivityListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the most recent activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := apiClient().Activities(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconActivity, "Activity Log"))
			if len(entries) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("nothing logged yet"))
				return nil
			}
			now := time.Now()
			for i := len(entries) - 1; i >= 0; i-- {
				e := entries[i]
				fmt.Fprintf(out, "- %s %s %s %s\n",
					e.Activity,
					ui.Signed(e.Points),
					ui.Muted.Render(fmt.Sprintf("%s %v, %s", e.Category, []string(e.Stat), ui.Ago(e.Date, now))),
					ui.Muted.Render(e.ID))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries (0 for all)")
	return cmd
}

func newActivityEditCmd() *cobra.Command {
	var activity, category string
	var stats []string
	var points int

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an activity, moving its points to the new target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit client.ActivityEdit
			if cmd.Flags().Changed("activity") {
				edit.Activity = &activity
			}
			if cmd.Flags().Changed("category") {
				edit.Category = &category
			}
			if cmd.Flags().Changed("stat") {
				edit.Stat = character.StatList(stats)
			}
			if cmd.Flags().Changed("points") {
				edit.Points = &points
			}
			entry, err := apiClient().EditActivity(cmd.Context(), args[0], edit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated %s %s\n", ui.IconDone, entry.Activity, ui.Signed(entry.Points))
			return nil
		},
	}

	cmd.Flags().StringVarP(&activity, "activity", "a", "", "New description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "New category ID")
	cmd.Flags().StringSliceVarP(&stats, "stat", "s", nil, "New stat names")
	cmd.Flags().IntVarP(&points, "points", "p", 0, "New points")
	return cmd
}

func newActivityDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove an activity from the log (stat points are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient().DeleteActivity(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %s\n", ui.IconDone, args[0])
			return nil
		},
	}
}
