// Command faro audits marketing websites against an SEO and conversion
// checklist, either as a one-shot CLI run or as a long-running API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/farolabs/faro/internal/app"
	"github.com/farolabs/faro/internal/audit"
	"github.com/farolabs/faro/internal/logging"
	"github.com/farolabs/faro/internal/server"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

type auditFlags struct {
	format  string
	backend string
	noSave  bool
}

func main() {
	// Missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "faro",
		Short: "Audit marketing websites against an SEO and conversion checklist",
		Long:  "Faro fetches a page, evaluates it against a weighted marketing checklist and reports category scores, quick wins and recommendations.",
	}

	var flags auditFlags
	auditCmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Audit a single URL and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd.Context(), args[0], flags)
		},
	}
	f := auditCmd.Flags()
	f.StringVar(&flags.format, "format", "text", "Output format: text or json")
	f.StringVar(&flags.backend, "backend", "", "Fetch backend: nethttp or chromedp (overrides FARO_BACKEND)")
	f.BoolVar(&flags.noSave, "no-save", false, "Skip persisting the run to the local database")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	root.AddCommand(auditCmd, serveCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runAudit(ctx context.Context, url string, flags auditFlags) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if flags.noSave {
		// Throwaway database; nothing outlives the process.
		cfg.DBPath = "file::memory:?cache=shared"
	}

	logger := newLogger(cfg)
	service, err := app.NewService(cfg, logger)
	if err != nil {
		return err
	}
	defer service.Close()

	result, err := service.RunAudit(ctx, url)
	if err != nil {
		return err
	}

	switch flags.format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		printReport(result.Report)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text or json)", flags.format)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	service, err := app.NewService(cfg, logger)
	if err != nil {
		return err
	}
	defer service.Close()

	srv := server.New(service, cfg.ListenAddr, logger)
	httpSrv := srv.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

func newLogger(cfg *app.Config) logging.Logger {
	logger := logging.NewStdLogger("faro")
	logger.SetMinLevel(cfg.LogLevel)
	return logger
}

// printReport renders the report for a terminal, worst categories first.
func printReport(rep *audit.Report) {
	fmt.Printf("Auditoría de %s\n", rep.URL)
	fmt.Printf("Puntuación global: %d/100\n\n", rep.GlobalScore)

	categories := make([]int, len(rep.Categories))
	for i := range categories {
		categories[i] = i
	}
	sort.SliceStable(categories, func(a, b int) bool {
		return rep.Categories[categories[a]].Score < rep.Categories[categories[b]].Score
	})

	for _, idx := range categories {
		cat := rep.Categories[idx]
		fmt.Printf("%s %s: %d/100\n", cat.Icon, cat.Name, cat.Score)
		for _, item := range cat.Items {
			marker := map[string]string{
				"correct":    "✓",
				"improvable": "~",
				"missing":    "✗",
				"pending":    "?",
			}[string(item.Status)]
			line := fmt.Sprintf("  %s %s", marker, item.Label)
			if item.Note != "" {
				line += " (" + item.Note + ")"
			}
			fmt.Println(line)
		}
		fmt.Println()
	}

	if len(rep.QuickWins) > 0 {
		fmt.Println("Quick wins:")
		for i, qw := range rep.QuickWins {
			fmt.Printf("  %d. [%s] %s (impacto %d, esfuerzo %s)\n", i+1, strings.ToUpper(qw.ItemID), qw.Description, qw.Impact, qw.Effort)
		}
		fmt.Println()
	}

	for _, rec := range rep.Recommendations {
		fmt.Printf("» %s (prioridad %s, plazo %s)\n", rec.Title, rec.Priority, rec.Timeframe)
	}
}
