package exercise

import (
	"context"

	"github.com/vibesql/sqlzoo/internal/query"
)

// Movies schema:
//
//	actors(id, name)
//	movies(id, title, yr, score, votes, director_id)
//	castings(movie_id, actor_id, ord)  -- ord 1 is the starring role

const exampleJoinSQL = `
SELECT
  *
FROM
  movies
JOIN
  castings ON movies.id = castings.movie_id
JOIN
  actors ON castings.actor_id = actors.id
WHERE
  actors.name = 'Sean Connery'`

const fordFilmsSQL = `
SELECT
  m.title
FROM
  movies m
JOIN
  castings c ON m.id = c.movie_id
JOIN
  actors a ON a.id = c.actor_id
WHERE
  a.name = 'Harrison Ford'`

const fordSupportingFilmsSQL = `
SELECT
  m.title
FROM
  movies m
JOIN
  castings c ON m.id = c.movie_id
JOIN
  actors a ON a.id = c.actor_id
WHERE
  a.name = 'Harrison Ford' AND c.ord != 1`

const filmsAndStarsFromSixtyTwoSQL = `
SELECT
  m.title, a.name
FROM
  movies m
JOIN
  castings c ON m.id = c.movie_id
JOIN
  actors a ON a.id = c.actor_id
WHERE
  m.yr = 1962 AND c.ord = 1`

const travoltasBusiestYearsSQL = `
SELECT
  m.yr, count(*) AS movie_count
FROM
  movies m
JOIN
  castings c ON m.id = c.movie_id
JOIN
  actors a ON a.id = c.actor_id
WHERE
  a.name = 'John Travolta'
GROUP BY
  m.yr
HAVING
  count(*) >= 2`

const andrewsFilmsAndLeadsSQL = `
SELECT
  m.title, star.name
FROM
  movies m
JOIN
  castings star_castings ON m.id = star_castings.movie_id
JOIN
  actors star ON star.id = star_castings.actor_id
JOIN
  castings julie_castings ON m.id = julie_castings.movie_id
JOIN
  actors julie_andrews ON julie_andrews.id = julie_castings.actor_id
WHERE
  star_castings.ord = 1 AND julie_andrews.name = 'Julie Andrews'`

const prolificActorsSQL = `
SELECT
  a.name
FROM
  movies m
JOIN
  castings c ON m.id = c.movie_id
JOIN
  actors a ON a.id = c.actor_id
WHERE
  c.ord = 1
GROUP BY
  a.name
HAVING
  count(*) >= 15
ORDER BY
  a.name`

const filmsByCastSizeSQL = `
SELECT
  m.title, count(*)
FROM
  movies m
JOIN
  castings c ON m.id = c.movie_id
JOIN
  actors a ON a.id = c.actor_id
WHERE
  m.yr = 1978
GROUP BY
  m.id, m.title
ORDER BY
  count(*) DESC, m.title ASC`

const colleaguesOfGarfunkelSQL = `
SELECT
  other.name
FROM
  movies m
JOIN
  castings other_castings ON m.id = other_castings.movie_id
JOIN
  actors other ON other.id = other_castings.actor_id
JOIN
  castings art_castings ON m.id = art_castings.movie_id
JOIN
  actors art_garfunkel ON art_garfunkel.id = art_castings.actor_id
WHERE
  art_garfunkel.name = 'Art Garfunkel' AND other.name != 'Art Garfunkel'`

var movieExercises = []Exercise{
	{
		Name:   "example_join",
		Schema: SchemaMovies,
		Prompt: "Show every column of the movies, castings and actors rows for films with 'Sean Connery'.",
		SQL:    exampleJoinSQL,
	},
	{
		Name:   "ford_films",
		Schema: SchemaMovies,
		Prompt: "List the films in which 'Harrison Ford' has appeared.",
		SQL:    fordFilmsSQL,
	},
	{
		Name:   "ford_supporting_films",
		Schema: SchemaMovies,
		Prompt: "List the films where 'Harrison Ford' has appeared, but not in the starring role (ord = 1).",
		SQL:    fordSupportingFilmsSQL,
	},
	{
		Name:   "films_and_stars_from_sixty_two",
		Schema: SchemaMovies,
		Prompt: "List the title and leading star of every 1962 film.",
		SQL:    filmsAndStarsFromSixtyTwoSQL,
	},
	{
		Name:   "travoltas_busiest_years",
		Schema: SchemaMovies,
		Prompt: "Show each year in which 'John Travolta' made at least 2 movies, with the number of movies.",
		SQL:    travoltasBusiestYearsSQL,
	},
	{
		Name:   "andrews_films_and_leads",
		Schema: SchemaMovies,
		Prompt: "List the film title and the leading actor for all of the films 'Julie Andrews' played in.",
		SQL:    andrewsFilmsAndLeadsSQL,
	},
	{
		Name:   "prolific_actors",
		Schema: SchemaMovies,
		Prompt: "List, in alphabetical order, the actors who have had at least 15 starring roles.",
		SQL:    prolificActorsSQL,
	},
	{
		Name:   "films_by_cast_size",
		Schema: SchemaMovies,
		Prompt: "List the 1978 films ordered by the number of actors in the cast (descending), then by title.",
		SQL:    filmsByCastSizeSQL,
	},
	{
		Name:   "colleagues_of_garfunkel",
		Schema: SchemaMovies,
		Prompt: "List all the people who have played alongside 'Art Garfunkel'.",
		SQL:    colleaguesOfGarfunkelSQL,
	},
}

func ExampleJoin(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, exampleJoinSQL)
}

func FordFilms(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, fordFilmsSQL)
}

func FordSupportingFilms(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, fordSupportingFilmsSQL)
}

func FilmsAndStarsFromSixtyTwo(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, filmsAndStarsFromSixtyTwoSQL)
}

func TravoltasBusiestYears(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, travoltasBusiestYearsSQL)
}

func AndrewsFilmsAndLeads(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, andrewsFilmsAndLeadsSQL)
}

func ProlificActors(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, prolificActorsSQL)
}

func FilmsByCastSize(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, filmsByCastSizeSQL)
}

func ColleaguesOfGarfunkel(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, colleaguesOfGarfunkelSQL)
}
