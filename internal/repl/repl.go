// Package repl is an interactive SQL console over the exercise database.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/peterh/liner"
	log "github.com/sirupsen/logrus"

	"github.com/vibesql/sqlzoo/internal/exercise"
	"github.com/vibesql/sqlzoo/internal/query"
	"github.com/vibesql/sqlzoo/internal/render"
)

const (
	prompt         = "sqlzoo> "
	continuePrompt = "   ...> "
)

// Prompter reads one line of input. *liner.State satisfies it.
type Prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type Console struct {
	x   query.QueryExecutor
	in  Prompter
	out io.Writer
}

func NewConsole(x query.QueryExecutor, in Prompter, out io.Writer) *Console {
	return &Console{x: x, in: in, out: out}
}

// Run reads statements until end of input or \q. A statement ends with a
// line whose last character is ';'.
func (c *Console) Run(ctx context.Context) error {
	var stmt strings.Builder

	for {
		p := prompt
		if stmt.Len() > 0 {
			p = continuePrompt
		}

		line, err := c.in.Prompt(p)
		if err == io.EOF {
			return nil
		} else if errors.Is(err, liner.ErrPromptAborted) {
			stmt.Reset()
			continue
		} else if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if stmt.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, `\`) {
				c.in.AppendHistory(trimmed)
				if quit := c.meta(ctx, trimmed); quit {
					return nil
				}
				continue
			}
		}

		if stmt.Len() > 0 {
			stmt.WriteByte('\n')
		}
		stmt.WriteString(line)

		if strings.HasSuffix(trimmed, ";") {
			sql := strings.TrimSpace(stmt.String())
			stmt.Reset()
			c.in.AppendHistory(sql)
			c.execute(ctx, strings.TrimSuffix(sql, ";"))
		}
	}
}

func (c *Console) execute(ctx context.Context, sql string) {
	if err := query.ValidateQuery(sql); err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	if err := query.CheckSafety(sql); err != nil {
		fmt.Fprintln(c.out, err)
		return
	}

	res, err := c.x.Execute(ctx, sql)
	if err != nil {
		log.WithError(err).Debug("console query failed")
		fmt.Fprintln(c.out, err)
		return
	}
	render.Table(c.out, res)
}

func (c *Console) meta(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case `\q`:
		return true
	case `\?`, `\h`:
		fmt.Fprint(c.out, help)
	case `\l`:
		c.list(args)
	case `\s`, `\e`:
		if len(args) != 1 {
			fmt.Fprintf(c.out, "usage: %s <exercise>\n", cmd)
			return false
		}
		e, err := exercise.Lookup(args[0])
		if err != nil {
			fmt.Fprintf(c.out, "%s: %s\n", err, args[0])
			return false
		}
		if cmd == `\s` {
			fmt.Fprintf(c.out, "-- %s\n%s;\n", e.Prompt, strings.TrimSpace(e.SQL))
			return false
		}

		res, err := e.Run(ctx, c.x)
		if err != nil {
			fmt.Fprintln(c.out, err)
			return false
		}
		log.WithFields(log.Fields{
			"exercise": e.Name,
			"rows":     res.RowCount,
			"elapsed":  res.ExecutionTime,
		}).Debug("exercise run")
		render.Table(c.out, res)
	default:
		fmt.Fprintf(c.out, "unknown command %s, try \\?\n", cmd)
	}
	return false
}

func (c *Console) list(args []string) {
	list := exercise.All()
	if len(args) > 0 {
		list = exercise.BySchema(exercise.Schema(args[0]))
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	for _, e := range list {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Schema)
	}
	w.Flush()
}

const help = `\l [schema]   list exercises
\s <name>     show an exercise's prompt and SQL
\e <name>     run an exercise
\q            quit
Anything else is SQL, ended by ';'.
`
