package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jhoicas/agroinsumos-api/internal/bootstrap"
	"github.com/jhoicas/agroinsumos-api/pkg/config"
	"github.com/spf13/cobra"
)

type (
	configLoader func() (*config.Config, error)
	engineOpener func(ctx context.Context, cfg *config.Config) (*bootstrap.Engine, error)
)

// cli estado compartido entre subcomandos. Configuración y motor se cargan al primer uso.
type cli struct {
	load   configLoader
	open   engineOpener
	cfg    *config.Config
	engine *bootstrap.Engine
}

func (c *cli) config() (*config.Config, error) {
	if c.cfg == nil {
		cfg, err := c.load()
		if err != nil {
			return nil, fmt.Errorf("cargar configuración: %w", err)
		}
		c.cfg = cfg
	}
	return c.cfg, nil
}

func (c *cli) stock(cmd *cobra.Command) (*bootstrap.Engine, error) {
	if c.engine != nil {
		return c.engine, nil
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	eng, err := c.open(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	c.engine = eng
	return eng, nil
}

func (c *cli) close() {
	if c.engine != nil {
		c.engine.Close()
		c.engine = nil
	}
}

func newRootCmd(load configLoader, open engineOpener) *cobra.Command {
	c := &cli{load: load, open: open}
	root := &cobra.Command{
		Use:   "stockctl",
		Short: "Operaciones del motor de stock de agroinsumos",
		Long: `stockctl opera el motor de stock con la misma configuración que la API
(variables de entorno o .env): STORE_DRIVER, DATABASE_URL, JWT_SECRET, etc.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(*cobra.Command, []string) {
			c.close()
		},
	}
	root.AddCommand(
		newMigrateCmd(c),
		newTokenCmd(c),
		newWarehouseCmd(c),
		newTransferCmd(c),
		newReceiveCmd(c),
		newTransfersCmd(c),
		newStockCmd(c),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("serializar salida: %w", err)
	}
	return nil
}
