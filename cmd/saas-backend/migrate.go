package main

import (
	"github.com/spf13/cobra"

	"github.com/backend-bits/saas-backend/pkg/config"
	"github.com/backend-bits/saas-backend/pkg/pg"
	"github.com/backend-bits/saas-backend/svc/billing"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  `Creates or upgrades the orders schema in the database named by PG_CONN_URL.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		var pgCfg pg.Config
		if err := config.Load(&pgCfg); err != nil {
			return err
		}

		log := newLogger(cfg)
		pool, err := pg.Connect(cmd.Context(), pgCfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		return pg.Migrate(cmd.Context(), pool, pgCfg, billing.Migrations(), log)
	},
}
