package cmd

import (
	"fmt"
	"os"

	"github.com/regdesk/portalserver/config"
	"github.com/regdesk/portalserver/internal/mq"
	"github.com/regdesk/portalserver/internal/services"
	"github.com/spf13/cobra"
)

// auditlogCmd represents the auditlog command
var auditlogCmd = &cobra.Command{
	Use:   "auditlog",
	Short: "Tails user lifecycle events from the message broker",
	Long: `Tails user lifecycle events from the message broker. Usage:

	portalserver auditlog
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		broker, err := mq.NewFromConfig(cmd.Context(), cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect broker: %v\n", err)
			os.Exit(1)
		}
		if broker == nil {
			fmt.Fprintln(os.Stderr, "no broker configured, set MQ_BACKEND")
			os.Exit(1)
		}
		defer broker.Close()

		consumer := services.NewAuditConsumer(broker)
		if err := consumer.Run(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "consume error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(auditlogCmd)
}
