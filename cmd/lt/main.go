package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/lots/internal/client"
	"github.com/alfredjeanlab/lots/internal/config"
	"github.com/alfredjeanlab/lots/internal/events"
	"github.com/alfredjeanlab/lots/internal/model"
	"github.com/alfredjeanlab/lots/internal/ui"
)

var (
	apiURL     string
	grpcAddr   string
	transport  string
	token      string
	jsonOutput bool
	verbose    bool

	cfg       *config.Config
	logger    *slog.Logger
	lotClient *client.Client
)

var rootCmd = &cobra.Command{
	Use:           "lt <command>",
	Short:         "Browse, search and trade marketplace lots",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if lotClient != nil {
			lotClient.Close()
		}
	},
}

// setup loads configuration and connects the client. Flags override the
// environment, which overrides the active remote.
func setup(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if !ui.ShouldUseColor() {
		ui.ForceNoColor()
	}

	c, err := config.Load()
	if err != nil {
		return err
	}
	applyRemote(c, activeRemote())
	applyFlags(cmd, c)
	cfg = c

	sess := model.Session{UserID: c.UserID, Login: c.UserLogin, Token: c.Token}

	var t client.Transport
	switch c.Transport {
	case config.TransportGRPC:
		g, err := client.NewGRPCTransport(c.GRPCAddr, c.Token)
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}
		t = g
	default:
		t = client.NewHTTPTransport(c.APIURL, c.Token, client.WithRateLimit(c.RequestRate))
	}
	lotClient = client.New(t, sess)
	logger.Debug("client ready", "transport", c.Transport, "api", c.APIURL, "user", c.UserID)
	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		c.APIURL = apiURL
	}
	if flags.Changed("grpc-addr") {
		c.GRPCAddr = grpcAddr
	}
	if flags.Changed("transport") {
		c.Transport = transport
	}
	if flags.Changed("token") {
		c.Token = token
	}
}

// newPublisher returns a NATS publisher, or a no-op one when no NATS URL
// is configured or the server is unreachable.
func newPublisher() events.Publisher {
	if cfg == nil || cfg.NATSURL == "" {
		return &events.NoopPublisher{}
	}
	p, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		logger.Warn("live updates disabled", "error", err)
		return &events.NoopPublisher{}
	}
	return p
}

// commandContext returns a context cancelled on interrupt and after timeout
// (no deadline when timeout is zero).
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "HTTP API base URL (overrides LOTS_API_URL)")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "grpc-addr", "", "gRPC gateway address (overrides LOTS_GRPC_ADDR)")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", config.TransportHTTP, "transport protocol (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token (overrides LOTS_TOKEN)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	rootCmd.AddGroup(
		&cobra.Group{ID: "browse", Title: "Browse:"},
		&cobra.Group{ID: "act", Title: "Actions:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)
	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(lotCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: ")+describeError(err))
		os.Exit(1)
	}
}
