package cmd

import (
	"fmt"
	"log"

	"order-relay/internal/config"
	"order-relay/internal/db"
	"order-relay/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewPostgresConnection(cfg.Postgres.DSN, db.PostgresOpts{
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
			PingTimeout:  cfg.Postgres.PingTimeout,
		})
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo orders...")

		if err := seedOrders(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

// seedOrders inserts a handful of demo rows. Each insert fires the
// orders_changes trigger, so a connected client watches them arrive.
func seedOrders(dbx *sqlx.DB) error {
	orders := []model.Order{
		{CustomerName: "Alice", ProductName: "Widget", Status: "pending"},
		{CustomerName: "Bob", ProductName: "Gadget", Status: "shipped"},
		{CustomerName: "Carol", ProductName: "Sprocket", Status: "pending"},
		{CustomerName: "Dave", ProductName: "Gizmo", Status: "cancelled"},
	}

	const q = `
INSERT INTO orders (customer_name, product_name, status, updated_at)
VALUES ($1, $2, $3, NOW())
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, o := range orders {
		if _, err := tx.Exec(q, o.CustomerName, o.ProductName, o.Status); err != nil {
			return fmt.Errorf("insert order for %q: %w", o.CustomerName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit orders: %w", err)
	}
	return nil
}
