package repl

import (
	"context"
	"os"

	"github.com/peterh/liner"
	log "github.com/sirupsen/logrus"

	"github.com/vibesql/sqlzoo/internal/query"
)

const (
	historyFile = ".sqlzoo_history"
)

// Interact runs a console on the terminal, keeping history in
// .sqlzoo_history in the working directory.
func Interact(ctx context.Context, x query.QueryExecutor) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	err := NewConsole(x, line, os.Stdout).Run(ctx)

	if f, ferr := os.Create(historyFile); ferr != nil {
		log.WithError(ferr).Warnf("error writing history file %s", historyFile)
	} else {
		line.WriteHistory(f)
		f.Close()
	}
	return err
}
