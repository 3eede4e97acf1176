package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"vet-med-tracker/internal/adapters/storage/sqlite"
	"vet-med-tracker/internal/config"
	"vet-med-tracker/internal/domain/due"
	"vet-med-tracker/internal/offline/queue"
	"vet-med-tracker/internal/offline/remote"
	"vet-med-tracker/internal/platform/logger"
	"vet-med-tracker/internal/platform/metrics"
)

// app se arma en PersistentPreRunE y se cierra en PersistentPostRun.
type app struct {
	cfg     *config.Client
	log     logger.Logger
	store   *sqlite.QueueStore
	manager *queue.Manager
	prober  *remote.HealthProber
	metrics *metrics.Queue
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "medsync",
		Short:         "Cliente offline: registra acciones sin conexión y las sincroniza al volver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	rootCmd.AddCommand(recordCmd(a))
	rootCmd.AddCommand(inventoryCmd(a))
	rootCmd.AddCommand(syncCmd(a))
	rootCmd.AddCommand(statusCmd(a))
	rootCmd.AddCommand(clearCmd(a))
	rootCmd.AddCommand(agentCmd(a))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		a.close()
		os.Exit(1)
	}
}

func (a *app) open() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    "medsync",
		Output: os.Stderr,
	})

	a.store, err = sqlite.OpenQueueStore(cfg.QueuePath, cfg.MaxItems)
	if err != nil {
		return err
	}

	rc := remote.Config{
		BaseURL:     cfg.ServerURL,
		Timeout:     cfg.HTTPTimeout,
		AuthToken:   cfg.AuthToken,
		UserID:      cfg.UserID,
		HouseholdID: cfg.HouseholdID,
	}
	dispatcher, err := remote.NewDispatcher(rc)
	if err != nil {
		return err
	}
	a.prober, err = remote.NewHealthProber(rc)
	if err != nil {
		return err
	}

	a.metrics = metrics.NewQueue()
	a.manager, err = queue.NewManager(a.store, dispatcher, queue.Options{
		HouseholdID: cfg.HouseholdID,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		LeaseTTL:    cfg.LeaseTTL,
		Log:         a.log,
		Observer: queue.Observers{
			queue.LogObserver{Log: a.log},
			queue.MetricsObserver{Metrics: a.metrics},
		},
	})
	return err
}

func (a *app) close() {
	if a.manager != nil {
		a.manager.Close()
		a.manager = nil
	}
	if a.store != nil {
		_ = a.store.Close()
		a.store = nil
	}
}

// probe actualiza el estado de conectividad del manager.
func (a *app) probe(ctx context.Context) bool {
	online := a.prober.Probe(ctx) == nil
	a.manager.SetOnline(online)
	return online
}

// submit envía o encola, y si quedó algo pendiente con conexión, drena antes de salir.
func (a *app) submit(cmd *cobra.Command, m queue.Mutation, key string, offline bool) error {
	ctx := cmd.Context()
	if strings.TrimSpace(key) == "" {
		key = uuid.NewString()
	}

	out := cmd.OutOrStdout()
	if offline {
		id, err := a.manager.Enqueue(ctx, m, key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "queued %s (%s)\n", id, m.Kind())
		return nil
	}

	online := a.probe(ctx)
	id, queued, err := a.manager.Submit(ctx, m, key)
	if err != nil {
		return err
	}
	if !queued {
		fmt.Fprintf(out, "sent %s (%s)\n", id, m.Kind())
		return nil
	}
	fmt.Fprintf(out, "queued %s (%s)\n", id, m.Kind())

	a.manager.Wait()
	if online {
		report, err := a.manager.ProcessQueue(ctx)
		if err != nil {
			return err
		}
		printReport(cmd, report)
	}
	return nil
}

func recordCmd(a *app) *cobra.Command {
	var (
		animalID  string
		regimenID string
		at        string
		notes     string
		status    string
		key       string
		offline   bool
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Registra una dosis administrada",
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now().UTC()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at must be RFC3339: %w", err)
				}
				when = t
			}

			st := due.Status(strings.ToUpper(strings.TrimSpace(status)))
			if st != "" && !st.Valid() {
				return fmt.Errorf("--status must be one of ON_TIME, LATE, VERY_LATE, MISSED, PRN")
			}

			return a.submit(cmd, queue.CreateAdministration{
				AnimalID:       animalID,
				RegimenID:      regimenID,
				AdministeredAt: when,
				Notes:          notes,
				Status:         st,
			}, key, offline)
		},
	}

	cmd.Flags().StringVar(&animalID, "animal", "", "ID del animal")
	cmd.Flags().StringVar(&regimenID, "regimen", "", "ID de la pauta")
	cmd.Flags().StringVar(&at, "at", "", "Momento de la dosis (RFC3339, default ahora)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notas")
	cmd.Flags().StringVar(&status, "status", "", "Estado calculado offline (opcional)")
	cmd.Flags().StringVar(&key, "key", "", "Idempotency key (default: uuid)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Encolar sin intentar enviar")
	_ = cmd.MarkFlagRequired("animal")
	_ = cmd.MarkFlagRequired("regimen")
	return cmd
}

func inventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Cambios de inventario",
	}

	var (
		itemID    string
		delta     float64
		name      string
		unit      string
		threshold float64
		notes     string
		key       string
		offline   bool
	)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Ajusta cantidad o datos de un item",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := queue.UpdateInventory{ItemID: itemID}
			flags := cmd.Flags()
			if flags.Changed("delta") {
				m.QuantityDelta = &delta
			}
			if flags.Changed("name") {
				m.MedicationName = &name
			}
			if flags.Changed("unit") {
				m.Unit = &unit
			}
			if flags.Changed("low-stock") {
				m.LowStockThreshold = &threshold
			}
			if flags.Changed("notes") {
				m.Notes = &notes
			}
			return a.submit(cmd, m, key, offline)
		},
	}
	updateCmd.Flags().StringVar(&itemID, "item", "", "ID del item")
	updateCmd.Flags().Float64Var(&delta, "delta", 0, "Cambio de cantidad (negativo descuenta)")
	updateCmd.Flags().StringVar(&name, "name", "", "Nombre de la medicación")
	updateCmd.Flags().StringVar(&unit, "unit", "", "Unidad")
	updateCmd.Flags().Float64Var(&threshold, "low-stock", 0, "Umbral de stock bajo")
	updateCmd.Flags().StringVar(&notes, "notes", "", "Notas")
	updateCmd.Flags().StringVar(&key, "key", "", "Idempotency key (default: uuid)")
	updateCmd.Flags().BoolVar(&offline, "offline", false, "Encolar sin intentar enviar")
	_ = updateCmd.MarkFlagRequired("item")

	var (
		inUseItem    string
		inUseKey     string
		inUseOffline bool
	)
	inUseCmd := &cobra.Command{
		Use:   "in-use",
		Short: "Marca un item como el que está en uso",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.submit(cmd, queue.MarkInventoryInUse{ItemID: inUseItem}, inUseKey, inUseOffline)
		},
	}
	inUseCmd.Flags().StringVar(&inUseItem, "item", "", "ID del item")
	inUseCmd.Flags().StringVar(&inUseKey, "key", "", "Idempotency key (default: uuid)")
	inUseCmd.Flags().BoolVar(&inUseOffline, "offline", false, "Encolar sin intentar enviar")
	_ = inUseCmd.MarkFlagRequired("item")

	cmd.AddCommand(updateCmd, inUseCmd)
	return cmd
}

func syncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Envía las acciones pendientes en orden",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !a.probe(ctx) {
				return errors.New("server unreachable, nothing sent")
			}
			a.manager.Wait()

			report, err := a.manager.ProcessQueue(ctx)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Lista las acciones pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.store.ListByHousehold(cmd.Context(), a.cfg.HouseholdID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d pending\n", len(items))
			if len(items) == 0 {
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tQUEUED AT\tRETRIES\tNEXT ATTEMPT\tLAST ERROR")
			for _, it := range items {
				next := "-"
				if it.NextAttemptAt != nil {
					next = it.NextAttemptAt.Local().Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
					it.ID, it.Type, it.Timestamp.Local().Format(time.RFC3339),
					it.Retries, it.MaxRetries, next, it.LastError)
			}
			return tw.Flush()
		},
	}
}

func clearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Descarta todas las acciones pendientes (no se puede deshacer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.manager.ClearQueue(cmd.Context(), yes)
			if errors.Is(err, queue.ErrConfirmationRequired) {
				return errors.New("this discards every pending action; re-run with --yes to confirm")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d pending actions discarded\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirmar el borrado")
	return cmd
}

func agentCmd(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Sondea el servidor y sincroniza al recuperar conexión",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if metricsAddr != "" {
				r := chi.NewRouter()
				r.Handle("/metrics", a.metrics.Handler())
				srv := &http.Server{Addr: metricsAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

				go func() {
					a.log.Info("metrics listening", map[string]any{"addr": metricsAddr})
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.log.Error("metrics server error", map[string]any{"err": err})
					}
				}()
				defer func() {
					sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(sctx)
				}()
			}

			a.log.Info("agent started", map[string]any{
				"household_id":   a.cfg.HouseholdID,
				"probe_interval": a.cfg.ProbeInterval.String(),
			})
			err := a.manager.Run(ctx, a.prober, a.cfg.ProbeInterval)
			a.manager.Wait()
			a.log.Info("agent stopped", nil)
			return err
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Dirección para exponer /metrics (ej. :9464)")
	return cmd
}

func printReport(cmd *cobra.Command, r queue.Report) {
	out := cmd.OutOrStdout()
	if r.Skipped {
		if r.LeaseHeld {
			fmt.Fprintln(out, "another process is syncing this household, skipped")
			return
		}
		fmt.Fprintln(out, "a sync is already running, skipped")
		return
	}
	fmt.Fprintf(out, "%d synced, %d failed, %d dropped, %d waiting\n", r.Succeeded, r.Failed, r.Dropped, r.Deferred)
	for _, o := range r.Outcomes {
		if o.Result == queue.ResultSucceeded {
			continue
		}
		fmt.Fprintf(out, "  %s %s %s retries=%d %s\n", o.Result, o.ID, o.Type, o.Retries, o.LastError)
	}
}
