package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/itzenzy2/PersonalChatBot/internal/dispatch"
	"github.com/itzenzy2/PersonalChatBot/internal/event"
	"github.com/itzenzy2/PersonalChatBot/internal/logging"
	"github.com/itzenzy2/PersonalChatBot/internal/server"
)

var (
	servePort     int
	serveHostname string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat relay HTTP server",
	Long: `Start the HTTP server exposing POST /chat (also reachable as
/.netlify/functions/chat), GET /health and, unless disabled in the
config, GET /events (an SSE stream of relay activity).

Credentials come from GEMINI_API_KEY and GITHUB_TOKEN (or the config file).
A family without credentials still starts; its requests fail with 500.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().StringVar(&serveHostname, "hostname", "", "Hostname to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	table, err := cfg.CapabilityTable()
	if err != nil {
		return err
	}

	var bus *event.Bus
	if cfg.Server.Events {
		bus = event.NewBus(0)
		defer bus.Close()
	}

	d := dispatch.New(ctx, dispatch.Options{
		Capabilities: table,
		Gemini:       cfg.GeminiAdapter(),
		GitHub:       cfg.GitHubAdapter(),
		Events:       bus,
	})

	serverConfig := server.DefaultConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.EnableCORS = cfg.Server.EnableCORS
	serverConfig.ReadTimeout = cfg.Server.ReadTimeout.Std()
	serverConfig.WriteTimeout = cfg.Server.WriteTimeout.Std()
	if cmd.Flags().Changed("port") {
		serverConfig.Port = servePort
	}
	if cmd.Flags().Changed("hostname") {
		serverConfig.Host = serveHostname
	}

	srv := server.New(serverConfig, d, bus)

	logging.Info().
		Str("version", Version).
		Str("defaultModel", table.DefaultModel()).
		Msg("starting chat relay")

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
		return err
	}

	logging.Info().Msg("server stopped")
	return nil
}
