package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"convert-gateway/api/handler"
	"convert-gateway/api/router"
	"convert-gateway/job"
	"convert-gateway/logging"
	"convert-gateway/logic/convert"
	"convert-gateway/logic/stage"
	"convert-gateway/service"
	"convert-gateway/storage/postgres"
	"convert-gateway/vars"
)

const shutdownTimeout = 30 * time.Second

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "convert-gateway",
	Short: "HTTP gateway that converts uploaded documents to Markdown",
	Long: `convert-gateway accepts a single PDF, image or Word upload on POST /api/convert,
stages it in scratch storage and runs a Markdown converter on it.

Configuration is read from --config (YAML) and CONVERT_GATEWAY_* environment
variables, e.g. CONVERT_GATEWAY_SERVER_ADDR or CONVERT_GATEWAY_CONVERTER_TIMEOUT.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", vars.GetEnv("CONVERT_GATEWAY_CONFIG", ""), "config file (YAML)")
	rootCmd.AddCommand(sweepCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads config and the logger provider shared by every command.
func setup() (*vars.Config, *logging.Provider, error) {
	cfg, err := vars.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	logs, err := logging.NewProvider(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logs, nil
}

// openHistory returns nil when no database is configured.
func openHistory(cfg *vars.Config, log logging.Logger) (*postgres.ConversionRepo, error) {
	if !cfg.Database.Enabled() {
		log.Info("conversion history disabled, no database host configured")
		return nil, nil
	}
	db, err := postgres.InitDB(cfg.Database.DSN(), cfg.Server.Debug)
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected", "host", cfg.Database.Host, "db", cfg.Database.Name)
	return postgres.NewConversionRepo(db), nil
}

func serve(ctx context.Context) error {
	cfg, logs, err := setup()
	if err != nil {
		return err
	}
	log := logs.Get("main")

	// GOMAXPROCS must be container-aware before the worker limit is derived.
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		log.Debug(fmt.Sprintf(format, args...))
	}))

	// 1. history
	repo, err := openHistory(cfg, log)
	if err != nil {
		return err
	}
	var records service.RecordStore
	var expirer job.Expirer
	if repo != nil {
		records = repo
		expirer = repo
	}

	// 2. scratch
	scratch, err := stage.NewScratch(cfg.Scratch.Dir)
	if err != nil {
		return err
	}

	// 3. sweeper
	if cfg.Scratch.Retention > 0 {
		c, err := job.StartCronJob(cfg.Scratch.SweepSchedule, &job.SweepJob{
			Scratch:   scratch,
			Records:   expirer,
			Retention: cfg.Scratch.Retention,
			Log:       logs.Get("sweeper"),
		})
		if err != nil {
			return err
		}
		defer c.Stop()
	}

	// 4. converter
	conv, err := convert.New(ctx, cfg.Converter)
	if err != nil {
		return err
	}

	// 5. service + handler
	svc := service.NewConversionService(scratch, conv, records, cfg.Converter.Timeout, logs.Get("conversion"))
	convertH := handler.NewConvertHandler(svc, cfg.Server.MaxUploadBytes, cfg.Server.ExposeErrors, logs.Get("handler"))

	// 6. web server
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.New(logs.Get("http"))
	router.RegisterRoutes(r, convertH)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", cfg.Server.Addr, "backend", conv.Name(),
			"workers", convert.ResolveWorkers(cfg.Converter.Workers), "scratch", scratch.Root())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
