package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ehr/nhsextract/internal/config"
	"github.com/ehr/nhsextract/internal/domain/extraction"
	"github.com/ehr/nhsextract/internal/platform/middleware"
	"github.com/ehr/nhsextract/internal/platform/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nhs-extract",
		Short: "Extract and reconcile patient NHS numbers from clinic notes and exported lists",
	}

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the reconciled patient table",
		Long: "Reads a clinic note (--narrative) and an exported patient list (--records),\n" +
			"reconciles the patients found in both and prints them sorted by name.\n" +
			"Without either flag the built-in sample inputs are used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			narrativePath, _ := cmd.Flags().GetString("narrative")
			recordsPath, _ := cmd.Flags().GetString("records")
			format, _ := cmd.Flags().GetString("format")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			src := extraction.SampleSources
			if narrativePath != "" || recordsPath != "" {
				src, err = readSources(cmd.InOrStdin(), narrativePath, recordsPath)
				if err != nil {
					return err
				}
			}

			svc := extraction.NewService(logger, extraction.WithConcurrency(cfg.ConcurrentExtraction))
			res, err := svc.Extract(cmd.Context(), src)
			if err != nil {
				return err
			}

			for _, d := range res.Diagnostics {
				fmt.Fprintln(cmd.ErrOrStderr(), d)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "table":
				return report.NewTable(cfg.NameColumnWidth, cfg.NumberColumnWidth).Render(out, res.Records)
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res.Records)
			default:
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}
		},
	}
	cmd.Flags().String("narrative", "", "Path to the clinic note text ('-' for stdin)")
	cmd.Flags().String("records", "", "Path to the exported {[...]} patient list")
	cmd.Flags().String("format", "table", "Output format: table or json")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the extraction HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (zerolog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), err
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return logger.Level(lvl), nil
}

// readSources loads the two inputs. A path of "-" reads the narrative from
// stdin; an empty path leaves that source empty.
func readSources(stdin io.Reader, narrativePath, recordsPath string) (extraction.Sources, error) {
	var src extraction.Sources

	switch narrativePath {
	case "":
	case "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return src, fmt.Errorf("read narrative from stdin: %w", err)
		}
		src.Narrative = string(b)
	default:
		b, err := os.ReadFile(narrativePath)
		if err != nil {
			return src, fmt.Errorf("read narrative: %w", err)
		}
		src.Narrative = string(b)
	}

	if recordsPath != "" {
		b, err := os.ReadFile(recordsPath)
		if err != nil {
			return src, fmt.Errorf("read records: %w", err)
		}
		src.Records = string(b)
	}

	return src, nil
}

func runServer() error {
	// Config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logger
	logger, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}

	e := newServer(cfg, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newServer(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	apiV1 := e.Group("/api/v1")
	svc := extraction.NewService(logger, extraction.WithConcurrency(cfg.ConcurrentExtraction))
	extraction.NewHandler(svc).RegisterRoutes(apiV1)

	return e
}
