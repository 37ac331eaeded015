package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibesql/sqlzoo/internal/config"
	"github.com/vibesql/sqlzoo/internal/database"
	"github.com/vibesql/sqlzoo/internal/fixture"
	"github.com/vibesql/sqlzoo/internal/query"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	cfg       *config.Config
	logWriter io.WriteCloser
}

func init() {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
	})
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}

	root := &cobra.Command{
		Use:               "sqlzoo",
		Short:             "SQL join exercises",
		Long:              "sqlzoo runs the SQLZoo join exercises against the movies and albums databases.",
		PersistentPreRunE: a.preRun,
		PersistentPostRun: a.postRun,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	a.cfg.Bind(root.PersistentFlags())

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.runCmd(),
		a.queryCmd(),
		a.seedCmd(),
		a.replCmd(),
		a.serveCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) preRun(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(config.DefaultEnvFile); err != nil {
		return fmt.Errorf("sqlzoo: %s", err)
	}
	if err := a.cfg.Load(cmd.Flags(), nil); err != nil {
		return fmt.Errorf("sqlzoo: %s", err)
	}

	if a.cfg.LogStderr || a.cfg.LogFile == "" {
		log.SetOutput(cmd.ErrOrStderr())
	} else {
		w, err := os.OpenFile(a.cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return fmt.Errorf("sqlzoo: %s", err)
		}
		a.logWriter = w
		log.SetOutput(w)
	}

	ll, err := log.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("sqlzoo: %s", err)
	}
	log.SetLevel(ll)

	log.WithFields(log.Fields{
		"pid":     os.Getpid(),
		"command": cmd.Name(),
	}).Debug("sqlzoo starting")
	return nil
}

func (a *app) postRun(cmd *cobra.Command, args []string) {
	log.WithField("pid", os.Getpid()).Debug("sqlzoo done")

	if a.logWriter != nil {
		a.logWriter.Close()
		a.logWriter = nil
	}
}

// connect opens the configured database, or with sandbox set starts a
// private cluster seeded with the reference dataset. The returned func
// releases everything connect acquired.
func (a *app) connect(ctx context.Context, sandbox bool) (*database.Connection, func(), error) {
	if !sandbox {
		conn, err := database.Open(ctx, a.cfg.Database())
		if err != nil {
			return nil, nil, err
		}
		return conn, func() { conn.Close() }, nil
	}

	mgr := database.NewManager("", 0)
	start := time.Now()
	if err := mgr.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start sandbox: %w", err)
	}
	stop := func() {
		if err := mgr.Stop(); err != nil {
			log.WithError(err).Error("failed to stop sandbox")
		}
	}

	conn, err := mgr.CreateConnection(ctx)
	if err != nil {
		stop()
		return nil, nil, err
	}
	if err := fixture.Load(ctx, conn); err != nil {
		conn.Close()
		stop()
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"port":    mgr.Port(),
		"elapsed": time.Since(start),
	}).Info("sandbox ready")
	return conn, func() {
		conn.Close()
		stop()
	}, nil
}

func (a *app) executor(conn *database.Connection) *query.Executor {
	return query.NewExecutor(conn.DB(), a.cfg.ExecutorOptions()...)
}
