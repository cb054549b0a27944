package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/victornm/techbridge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and gRPC servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := server.Migrate(cmd.Context(), c); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGTERM, os.Interrupt)

		s, err := server.Init(c)
		if err != nil {
			return fmt.Errorf("init server: %w", err)
		}

		go s.Start()

		<-shutdown
		s.Shutdown()
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Apply the database schema before serving")
}
