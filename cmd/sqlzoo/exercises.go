package main

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vibesql/sqlzoo/internal/exercise"
	"github.com/vibesql/sqlzoo/internal/query"
	"github.com/vibesql/sqlzoo/internal/render"
)

func (a *app) listCmd() *cobra.Command {
	var schema, format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the exercises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			list := exercise.All()
			if schema != "" {
				list = exercise.BySchema(exercise.Schema(schema))
				if len(list) == 0 {
					return fmt.Errorf("unknown schema %q", schema)
				}
			}

			cols := []string{"name", "schema", "prompt"}
			res := &query.Result{Columns: cols, RowCount: len(list)}
			for _, e := range list {
				res.Rows = append(res.Rows,
					query.NewRow(cols, []interface{}{e.Name, string(e.Schema), e.Prompt}))
			}
			return render.Write(cmd.OutOrStdout(), f, res)
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "only list exercises for `schema`: movies or albums")
	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatTable), "output format: table or json")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <exercise>",
		Short: "Show an exercise's prompt and SQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := exercise.Lookup(args[0])
			if err != nil {
				return fmt.Errorf("%w: %s", err, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "-- %s (%s)\n-- %s\n%s;\n",
				e.Name, e.Schema, e.Prompt, strings.TrimSpace(e.SQL))
			return nil
		},
	}
}

func (a *app) runCmd() *cobra.Command {
	var format string
	var sandbox bool

	cmd := &cobra.Command{
		Use:   "run <exercise>...",
		Short: "Run exercises and print their results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			list := make([]exercise.Exercise, 0, len(args))
			for _, name := range args {
				e, err := exercise.Lookup(name)
				if err != nil {
					return fmt.Errorf("%w: %s", err, name)
				}
				list = append(list, e)
			}

			conn, release, err := a.connect(cmd.Context(), sandbox)
			if err != nil {
				return err
			}
			defer release()
			x := a.executor(conn)

			out := cmd.OutOrStdout()
			for _, e := range list {
				res, err := e.Run(cmd.Context(), x)
				if err != nil {
					return fmt.Errorf("%s: %w", e.Name, err)
				}
				log.WithFields(log.Fields{
					"exercise": e.Name,
					"rows":     res.RowCount,
					"elapsed":  res.ExecutionTime,
				}).Info("exercise run")

				if f == render.FormatTable {
					fmt.Fprintf(out, "-- %s\n", e.Name)
				}
				if err := render.Write(out, f, res); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatTable), "output format: table or json")
	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "run against a private cluster seeded with the reference dataset")
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	var format string
	var sandbox bool

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run one ad-hoc SQL statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			sql := args[0]
			if err := query.ValidateQuery(sql); err != nil {
				return err
			}
			if err := query.CheckSafety(sql); err != nil {
				return err
			}

			conn, release, err := a.connect(cmd.Context(), sandbox)
			if err != nil {
				return err
			}
			defer release()

			res, err := a.executor(conn).Execute(cmd.Context(), sql)
			if err != nil {
				return err
			}
			return render.Write(cmd.OutOrStdout(), f, res)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatTable), "output format: table or json")
	cmd.Flags().BoolVar(&sandbox, "sandbox", false, "run against a private cluster seeded with the reference dataset")
	return cmd
}
