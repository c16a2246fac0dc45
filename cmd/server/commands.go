package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/Playground/backend/internal/domain/playground"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/server"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Challenge playground live-preview service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := newServeCmd()
	root.AddCommand(serve, newComposeCmd())
	// no subcommand runs the service
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

func newServeCmd() *cobra.Command {
	var (
		port       string
		dev        bool
		challenges string
		probe      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadOrDefault()
			flags := cmd.Flags()
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("dev") {
				cfg.Logging.Development = dev
				if dev {
					cfg.Logging.Level = "debug"
				}
			}
			if flags.Changed("challenges") {
				cfg.Challenges.Dir = challenges
			}
			if flags.Changed("probe") {
				cfg.Preview.ProbeEnabled = probe
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			defer srv.Close()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8000", "Server port")
	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode (colored logs, debug level)")
	cmd.Flags().StringVar(&challenges, "challenges", "challenges", "Challenge catalog directory")
	cmd.Flags().BoolVar(&probe, "probe", false, "Run composed scripts in the headless probe")
	return cmd
}

func newComposeCmd() *cobra.Command {
	var files [3]string

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a preview document from source files and print it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snapshot playground.Snapshot
			for _, kind := range playground.Kinds() {
				path := files[kind]
				if path == "" {
					continue
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s source: %w", kind, err)
				}
				snapshot = snapshot.With(kind, string(data))
			}

			doc := playground.Compose(snapshot)
			if _, err := fmt.Fprint(cmd.OutOrStdout(), doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "composed %s\n", humanize.Bytes(uint64(len(doc))))
			return nil
		},
	}

	cmd.Flags().StringVar(&files[playground.Markup], "html", "", "Markup source file")
	cmd.Flags().StringVar(&files[playground.Style], "css", "", "Style source file")
	cmd.Flags().StringVar(&files[playground.Script], "js", "", "Script source file")
	return cmd
}
