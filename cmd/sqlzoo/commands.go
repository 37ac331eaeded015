package main

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibesql/sqlzoo/internal/fixture"
	"github.com/vibesql/sqlzoo/internal/repl"
	"github.com/vibesql/sqlzoo/internal/server"
	"github.com/vibesql/sqlzoo/internal/version"
)

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "seed [dataset...]",
		Short:     "Create the exercise tables and load the reference dataset",
		Long:      "Drops and recreates the movies and albums tables, then loads the named datasets (all by default).",
		ValidArgs: fixture.Datasets(),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, release, err := a.connect(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer release()

			if err := fixture.Load(cmd.Context(), conn, args...); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "dataset loaded")
			return nil
		},
	}
}

func (a *app) replCmd() *cobra.Command {
	var sandbox bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive SQL console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, release, err := a.connect(cmd.Context(), sandbox)
			if err != nil {
				return err
			}
			defer release()

			return repl.Interact(cmd.Context(), a.executor(conn))
		},
	}

	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "use a private cluster seeded with the reference dataset")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var sandbox bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the exercises over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			log.WithField("version", version.Get().Short()).Info("starting sqlzoo")

			conn, release, err := a.connect(cmd.Context(), sandbox)
			if err != nil {
				return err
			}
			defer release()

			httpServer := server.NewServer(a.executor(conn), server.Options{
				Host:           a.cfg.HTTPHost,
				Port:           a.cfg.HTTPPort,
				MaxConnections: a.cfg.MaxConnections,
			})
			if err := httpServer.Start(); err != nil {
				return fmt.Errorf("failed to start HTTP server: %w", err)
			}

			log.WithField("elapsed", time.Since(start)).Info("sqlzoo ready")
			fmt.Fprintf(cmd.OutOrStdout(), "HTTP API: http://%s\n", httpServer.Addr())

			return httpServer.WaitForShutdown(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "serve a private cluster seeded with the reference dataset")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().Full())
			return nil
		},
	}
}
