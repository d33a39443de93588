// Command cip is a terminal client for the Contract Intelligence Platform:
// sign-in via the configured OIDC provider, contract upload/extraction/
// validation, and streaming agent chat.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/contractintel/cip-client/internal/api"
	"github.com/contractintel/cip-client/internal/auth"
	"github.com/contractintel/cip-client/internal/cache"
	"github.com/contractintel/cip-client/internal/config"
	"github.com/contractintel/cip-client/internal/queries"
	"github.com/contractintel/cip-client/internal/session"
	"github.com/contractintel/cip-client/internal/telemetry"
)

// app holds the wiring shared by every command. Built once in the root
// command's pre-run, torn down in its post-run.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	sess    session.Store
	client  *api.Client
	cache   *cache.Cache
	queries *queries.Service
	ctrl    *auth.Controller

	shutdownTracer func(context.Context) error
}

var cli app

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (a *app) init(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(a.logger)

	shutdown, err := telemetry.Init("cip-client", a.logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.shutdownTracer = shutdown

	if err := os.MkdirAll(cfg.State.Dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	sess, err := session.OpenSQLite(filepath.Join(cfg.State.Dir, "session.db"))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.sess = sess

	a.client = api.NewClient(cfg.API.Origin, sess)
	a.cache = cache.New(cache.WithOnUnauthorized(func() {
		if a.ctrl != nil {
			a.ctrl.HandleUnauthorized()
		}
		fmt.Fprintln(os.Stderr, "Session expired. Run `cip login` to sign in again.")
	}))
	a.ctrl = auth.NewController(a.client, sess, a.cache, auth.NewFlow(cfg.OIDC), a.logger)
	a.queries = queries.NewService(a.client, a.cache, a.logger)

	// Surface whatever the previous command left behind, exactly once.
	if notice, ok := sess.TakeNotice(); ok {
		switch notice {
		case session.NoticeSignedIn:
			fmt.Fprintln(os.Stderr, "Signed in.")
		case session.NoticeSignedOut:
			fmt.Fprintln(os.Stderr, "Signed out.")
		case session.NoticeSignInError:
			fmt.Fprintln(os.Stderr, "The previous sign-in attempt failed.")
		}
	}
	return nil
}

func (a *app) close() {
	if a.logger == nil {
		return
	}
	if a.sess != nil {
		if err := a.sess.Close(); err != nil {
			a.logger.Warn("closing session store", slog.String("error", err.Error()))
		}
	}
	if a.shutdownTracer != nil {
		if err := a.shutdownTracer(context.Background()); err != nil {
			a.logger.Warn("shutting down tracer", slog.String("error", err.Error()))
		}
	}
}

var rootCmd = &cobra.Command{
	Use:           "cip",
	Short:         "Contract Intelligence Platform client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cli.init(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, contractsCmd, agentsCmd)

	err := rootCmd.Execute()
	cli.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
