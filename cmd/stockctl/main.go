// Command stockctl operaciones del motor de stock desde la terminal: migraciones, tokens de
// prueba, transferencias, recepción de compras y consultas.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/agroinsumos-api/internal/bootstrap"
	"github.com/jhoicas/agroinsumos-api/pkg/config"
	"github.com/jhoicas/agroinsumos-api/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(config.Load, openEngine).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// stderrLogger logs a stderr para no mezclarlos con la salida JSON.
func stderrLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Out: os.Stderr})
}

func openEngine(ctx context.Context, cfg *config.Config) (*bootstrap.Engine, error) {
	return bootstrap.Open(ctx, cfg, stderrLogger(cfg).Component("stock"))
}

func migrationLogger(cfg *config.Config) zerolog.Logger {
	return stderrLogger(cfg).Component("migrate")
}
