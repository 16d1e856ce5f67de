package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmccallister93/Daily-Digits/internal/ui"
)

func newNotificationsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Show recent notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := apiClient().Notifications(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconBell, "Notifications"))
			if len(ns) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("nothing yet"))
				return nil
			}
			now := time.Now()
			for _, n := range ns {
				fmt.Fprintf(out, "- %s %s %s\n", ui.Key.Render(n.Title), n.Body, ui.Muted.Render(ui.Ago(n.At, now)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of notifications")
	return cmd
}
