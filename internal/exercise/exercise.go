// Package exercise holds the SQLZoo join exercises. Every exercise is a
// fixed SQL statement handed unchanged to a query.QueryExecutor; there is
// no query construction at run time.
package exercise

import (
	"context"
	"errors"
	"sort"

	"github.com/vibesql/sqlzoo/internal/query"
)

// Schema names the toy database an exercise runs against.
type Schema string

const (
	SchemaMovies Schema = "movies"
	SchemaAlbums Schema = "albums"
)

// ErrUnknownExercise is returned by Lookup for a name not in the catalog.
var ErrUnknownExercise = errors.New("unknown exercise")

type Exercise struct {
	Name   string
	Schema Schema
	Prompt string
	SQL    string
}

// Run sends the exercise's SQL to x and returns the result unmodified.
func (e Exercise) Run(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, e.SQL)
}

var catalog = func() map[string]Exercise {
	m := make(map[string]Exercise)
	for _, list := range [][]Exercise{movieExercises, albumExercises} {
		for _, e := range list {
			if _, dup := m[e.Name]; dup {
				panic("exercise: duplicate name " + e.Name)
			}
			m[e.Name] = e
		}
	}
	return m
}()

// All returns every exercise, movies first, each schema in the order the
// exercises are meant to be attempted.
func All() []Exercise {
	all := make([]Exercise, 0, len(movieExercises)+len(albumExercises))
	all = append(all, movieExercises...)
	return append(all, albumExercises...)
}

// BySchema returns the exercises for one schema in attempt order.
func BySchema(s Schema) []Exercise {
	switch s {
	case SchemaMovies:
		return append([]Exercise(nil), movieExercises...)
	case SchemaAlbums:
		return append([]Exercise(nil), albumExercises...)
	default:
		return nil
	}
}

func Lookup(name string) (Exercise, error) {
	e, ok := catalog[name]
	if !ok {
		return Exercise{}, ErrUnknownExercise
	}
	return e, nil
}

// Names returns every exercise name, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas lists the known schemas.
func Schemas() []Schema {
	return []Schema{SchemaMovies, SchemaAlbums}
}
