package cli

import (
	"github.com/spf13/cobra"

	"github.com/jmccallister93/Daily-Digits/internal/client"
)

var serverURL string

var rootCmd = &cobra.Command{
	Use:           "digits",
	Short:         "Track daily self-improvement as character stats",
	Long:          "Daily Digits scores categories of your life from logged activities and lets unattended stats decay over time.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "digits server URL (default $DIGITS_URL or "+client.DefaultServerURL+")")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(newLogCmd())
	rootCmd.AddCommand(newActivityCmd())
	rootCmd.AddCommand(newCategoryCmd())
	rootCmd.AddCommand(newStatCmd())
	rootCmd.AddCommand(newDecayCmd())
	rootCmd.AddCommand(newNotificationsCmd())
	rootCmd.AddCommand(newDataCmd())
}

func apiClient() *client.Client {
	return client.New(serverURL)
}
