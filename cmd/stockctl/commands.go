package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jhoicas/agroinsumos-api/internal/application/dto"
	"github.com/jhoicas/agroinsumos-api/internal/application/inventory"
	"github.com/jhoicas/agroinsumos-api/internal/domain"
	"github.com/jhoicas/agroinsumos-api/internal/domain/entity"
	"github.com/jhoicas/agroinsumos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/agroinsumos-api/pkg/config"
	"github.com/jhoicas/agroinsumos-api/pkg/jwt"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes de PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				names, err := postgres.MigrationNames()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.StoreDriverPostgres {
				return fmt.Errorf("migrate requiere STORE_DRIVER=%s", config.StoreDriverPostgres)
			}
			pool, err := postgres.NewPool(cmd.Context(), cfg.DB)
			if err != nil {
				return err
			}
			defer pool.Close()
			n, err := postgres.Migrate(cmd.Context(), pool, migrationLogger(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d migraciones aplicadas\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "solo listar las migraciones embebidas")
	return cmd
}

func newTokenCmd(c *cli) *cobra.Command {
	var (
		userID  string
		role    string
		minutes int
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para pruebas contra la API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if minutes <= 0 {
				minutes = cfg.JWT.Expiration
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, userID, role, cfg.JWT.Issuer, minutes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "stockctl", "user_id del token")
	cmd.Flags().StringVar(&role, "role", jwt.RoleBodeguero, "rol: admin | bodeguero | consulta")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "vigencia en minutos (por defecto JWT_EXPIRATION_MINUTES)")
	return cmd
}

func newWarehouseCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warehouses",
		Short: "Directorio de almacenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := c.stock(cmd)
			if err != nil {
				return err
			}
			out, err := eng.Warehouses.List(cmd.Context(), 100, 0)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	var in dto.CreateWarehouseRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Crea un almacén",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := c.stock(cmd)
			if err != nil {
				return err
			}
			out, err := eng.Warehouses.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "nombre del almacén")
	create.Flags().StringVar(&in.Location, "location", "", "ubicación")
	create.Flags().StringVar(&in.Manager, "manager", "", "responsable")
	_ = create.MarkFlagRequired("name")
	cmd.AddCommand(create)
	return cmd
}

func newTransferCmd(c *cli) *cobra.Command {
	var (
		in  inventory.TransferInput
		qty string
	)
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfiere cantidad de un insumo entre almacenes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := decimal.NewFromString(qty)
			if err != nil {
				return fmt.Errorf("--qty inválido: %w", err)
			}
			in.Quantity = q
			eng, err := c.stock(cmd)
			if err != nil {
				return err
			}
			rec, err := eng.Transfers.Transfer(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), transferOut(rec))
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Identity.Name, "name", "", "nombre del insumo")
	f.StringVar(&in.Identity.Category, "category", "", "categoría del insumo")
	f.StringVar(&in.SourceWarehouseID, "from", "", "almacén origen")
	f.StringVar(&in.DestWarehouseID, "to", "", "almacén destino")
	f.StringVar(&qty, "qty", "", "cantidad a transferir")
	f.StringVar(&in.Unit, "unit", "", "unidad (por defecto la del registro de origen)")
	f.StringVar(&in.Actor, "actor", "", "responsable del movimiento")
	f.StringVar(&in.Notes, "notes", "", "observaciones")
	f.StringVar(&in.IdempotencyKey, "key", "", "clave de idempotencia")
	for _, name := range []string{"name", "category", "from", "to", "qty"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newReceiveCmd(c *cli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Acredita una compra completada (JSON de POST /api/receipts, archivo o stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				fh, err := os.Open(file)
				if err != nil {
					return err
				}
				defer fh.Close()
				r = fh
			}
			var req dto.ReceiveRequest
			if err := json.NewDecoder(r).Decode(&req); err != nil {
				return fmt.Errorf("leer compra: %w", err)
			}
			eng, err := c.stock(cmd)
			if err != nil {
				return err
			}
			ev := entity.PurchaseCompleted{PurchaseID: req.PurchaseID, DestWarehouseID: req.DestWarehouseID, Actor: req.Actor}
			for _, l := range req.LineItems {
				ev.LineItems = append(ev.LineItems, entity.PurchaseLineItem{
					Identity:     domain.Identity{Name: l.Name, Category: l.Category},
					Quantity:     l.Quantity,
					Unit:         l.Unit,
					Lot:          l.Lot,
					ExpiresOn:    l.ExpiresOn,
					MinThreshold: l.MinThreshold,
				})
			}
			res, err := eng.Receipts.Receive(cmd.Context(), ev)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "compra %s\tduplicada=%t\tcompleta=%t\n", res.PurchaseID, res.Duplicate, res.Completed)
			for _, l := range res.Lines {
				msg := ""
				if l.Err != nil {
					msg = l.Err.Error()
				}
				fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\t%s\n", l.LineNo, l.Identity, l.Quantity, l.Unit, l.Status, msg)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if n := len(res.Failed()); n > 0 {
				return fmt.Errorf("%d renglones sin acreditar; reenvíe la compra para reintentarlos", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "archivo JSON de la compra (- = stdin)")
	return cmd
}

func newTransfersCmd(c *cli) *cobra.Command {
	var (
		filter   inventory.LedgerFilter
		from, to string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "transfers",
		Short: "Recorre el libro de transferencias (más recientes primero)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if filter.From, err = parseTime(from); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
			if filter.To, err = parseTime(to); err != nil {
				return fmt.Errorf("--until: %w", err)
			}
			eng, err := c.stock(cmd)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FECHA\tINSUMO\tCANTIDAD\tORIGEN\tDESTINO\tACTOR")
			n := 0
			for t, err := range eng.Ledger.Transfers(cmd.Context(), filter) {
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
					t.Timestamp.Format(time.RFC3339), t.Identity, t.Quantity, t.Unit,
					t.SourceWarehouseID, t.DestWarehouseID, t.Actor)
				n++
				if limit > 0 && n >= limit {
					break
				}
			}
			return w.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&filter.WarehouseID, "warehouse", "", "almacén (origen o destino)")
	f.StringVar(&filter.SourceWarehouseID, "source", "", "almacén origen")
	f.StringVar(&filter.DestWarehouseID, "dest", "", "almacén destino")
	f.StringVar(&filter.Name, "name", "", "nombre del insumo")
	f.StringVar(&filter.Category, "category", "", "categoría del insumo")
	f.StringVar(&from, "since", "", "desde (RFC3339)")
	f.StringVar(&to, "until", "", "hasta (RFC3339)")
	f.IntVar(&limit, "limit", 0, "máximo de líneas (0 = todas)")
	return cmd
}

func newStockCmd(c *cli) *cobra.Command {
	var (
		warehouseID string
		low         bool
	)
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Existencias de un almacén o reporte de stock bajo (--low)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := c.stock(cmd)
			if err != nil {
				return err
			}
			if low {
				out, err := eng.Replenishment.GenerateReplenishmentList(cmd.Context(), warehouseID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), out)
			}
			if warehouseID == "" {
				return errors.New("--warehouse es requerido (o use --low)")
			}
			list, err := eng.Stock.ListByWarehouse(cmd.Context(), warehouseID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "INSUMO\tCANTIDAD\tMINIMO\tLOTE")
			for _, r := range list {
				fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\n", r.Identity, r.Quantity, r.Unit, r.MinThreshold, r.Lot)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&warehouseID, "warehouse", "", "almacén")
	cmd.Flags().BoolVar(&low, "low", false, "solo insumos en o bajo el stock mínimo")
	return cmd
}

func transferOut(t *entity.TransferRecord) dto.TransferResponse {
	return dto.TransferResponse{
		ID:                t.ID,
		Name:              t.Identity.Name,
		Category:          t.Identity.Category,
		Quantity:          t.Quantity,
		Unit:              t.Unit,
		SourceWarehouseID: t.SourceWarehouseID,
		DestWarehouseID:   t.DestWarehouseID,
		Actor:             t.Actor,
		Timestamp:         t.Timestamp,
		Notes:             t.Notes,
	}
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
