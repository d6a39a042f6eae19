package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jhoicas/dte-api/internal/infrastructure/postgres"
	"github.com/jhoicas/dte-api/pkg/config"
	"github.com/jhoicas/dte-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "dtectl",
	Short: "Herramientas de operación para documentos tributarios electrónicos",
	Long: `dtectl agrupa tareas de soporte que no pasan por la API HTTP:
calcular los montos de un documento, armar la URL del QR, consultar el
siguiente correlativo, aplicar migraciones y cargar el catálogo de actividades económicas.

Lee la misma configuración que la API (variables de entorno o .env).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env opcional en desarrollo; en contenedores manda el entorno.
		_ = godotenv.Load()
	},
}

// Execute ejecuta el comando raíz y termina con código 1 si falla.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(totalsCmd, qrCmd, nextNumberCmd, migrateCmd, seedActivitiesCmd)
}

// openDB carga la configuración y abre el pool; el llamador cierra el pool.
func openDB(ctx context.Context) (*config.Config, *logger.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	return cfg, log, pool, nil
}
