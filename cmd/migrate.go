package main

import (
	"github.com/spf13/cobra"

	"github.com/victornm/techbridge/internal/server"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		return server.Migrate(cmd.Context(), c)
	},
}
