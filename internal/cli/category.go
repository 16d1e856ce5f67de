package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmccallister93/Daily-Digits/internal/character"
	"github.com/jmccallister93/Daily-Digits/internal/client"
	"github.com/jmccallister93/Daily-Digits/internal/ui"
)

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage categories",
	}
	cmd.AddCommand(newCategoryListCmd(), newCategoryAddCmd(), newCategoryDeleteCmd())
	return cmd
}

func newCategoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List categories with their scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := apiClient().Categories(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, cat := range cats {
				fmt.Fprintf(out, "%s %s %s %s\n", cat.Icon, ui.Key.Render(cat.ID), ui.Score(cat.Score), ui.Muted.Render(statNames(cat)))
			}
			return nil
		},
	}
}

func newCategoryAddCmd() *cobra.Command {
	var nc client.NewCategory
	var gradient []string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nc.Name = args[0]
			if len(gradient) > 2 {
				return fmt.Errorf("gradient takes at most two colors (got %d)", len(gradient))
			}
			copy(nc.Gradient[:], gradient)

			cat, err := apiClient().AddCategory(cmd.Context(), nc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s added %s %s\n", ui.IconPlus, ui.Key.Render(cat.Name), ui.Muted.Render("("+cat.ID+")"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&nc.Description, "description", "d", "", "Description")
	cmd.Flags().StringVarP(&nc.Icon, "icon", "i", "", "Icon")
	cmd.Flags().StringSliceVarP(&nc.Stats, "stat", "s", nil, "Initial stat names")
	cmd.Flags().StringSliceVar(&gradient, "gradient", nil, "Two display colors, e.g. #f00,#00f")
	return cmd
}

func newCategoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category and its decay settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient().DeleteCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %s\n", ui.IconDone, args[0])
			return nil
		},
	}
}

func newStatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stat",
		Short: "Manage the stats of a category",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <category> <name>",
			Short: "Add a stat at zero",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := apiClient().AddStat(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return printCategory(cmd, cat)
			},
		},
		&cobra.Command{
			Use:   "rename <category> <old> <new>",
			Short: "Rename a stat, keeping its value",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				cat, err := apiClient().RenameStat(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					return err
				}
				return printCategory(cmd, cat)
			},
		},
		&cobra.Command{
			Use:   "remove <category> <name>",
			Short: "Remove a stat and its decay setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := apiClient().RemoveStat(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s from %s\n", ui.IconDone, args[1], args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "adjust <category> <name> <delta>",
			Short: "Add a signed delta to a stat without logging an activity",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				delta, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("delta must be an integer: %w", err)
				}
				cat, err := apiClient().AdjustStat(cmd.Context(), args[0], args[1], delta)
				if err != nil {
					return err
				}
				return printCategory(cmd, cat)
			},
		},
	)
	return cmd
}

func printCategory(cmd *cobra.Command, cat character.Category) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s %s\n", cat.Icon, ui.H2.Render(cat.Name), ui.Score(cat.Score))
	for _, st := range cat.Stats {
		fmt.Fprintf(out, "  - %s %s\n", ui.Key.Render(st.Name+":"), ui.Signed(st.Value))
	}
	return nil
}

func statNames(cat character.Category) string {
	names := make([]string, len(cat.Stats))
	for i, st := range cat.Stats {
		names[i] = st.Name
	}
	return strings.Join(names, ", ")
}
