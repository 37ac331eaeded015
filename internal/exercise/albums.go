package exercise

import (
	"context"

	"github.com/vibesql/sqlzoo/internal/query"
)

// Albums schema:
//
//	albums(asin, title, artist, price, rdate, label, rank)
//	styles(album, style)
//	tracks(album, disk, posn, song)

const alisonArtistSQL = `
SELECT
  a.artist
FROM
  albums a
JOIN
  tracks t ON a.asin = t.album
WHERE
  t.song = 'Alison'`

const exodusArtistSQL = `
SELECT
  a.artist
FROM
  albums a
JOIN
  tracks t ON a.asin = t.album
WHERE
  t.song = 'Exodus'`

const blurSongsSQL = `
SELECT
  t.song
FROM
  tracks t
JOIN
  albums a ON t.album = a.asin
WHERE
  a.title = 'Blur'`

const heartTracksSQL = `
SELECT
  a.title, count(*)
FROM
  albums a
JOIN
  tracks t ON a.asin = t.album
WHERE
  t.song LIKE '%Heart%'
GROUP BY
  a.asin, a.title
ORDER BY
  count(*) DESC, a.title`

const titleTracksSQL = `
SELECT
  t.song
FROM
  tracks t
JOIN
  albums a ON a.asin = t.album
WHERE
  t.song = a.title`

const eponymousAlbumsSQL = `
SELECT
  a.title
FROM
  albums a
WHERE
  a.title = a.artist`

const songTitleCountsSQL = `
SELECT
  t.song, count(*)
FROM
  tracks t
JOIN
  albums a ON a.asin = t.album
GROUP BY
  t.song
HAVING
  count(*) > 2`

const bestValueSQL = `
SELECT
  a.title, a.price, count(*)
FROM
  albums a
JOIN
  tracks t ON a.asin = t.album
GROUP BY
  a.asin, a.title, a.price
HAVING
  a.price / count(*) < 0.5`

const topTrackCountsSQL = `
SELECT
  a.title, count(*)
FROM
  albums a
JOIN
  tracks t ON a.asin = t.album
GROUP BY
  a.asin, a.title
ORDER BY
  count(*) DESC, a.title DESC
LIMIT
  10`

const rockSuperstarsSQL = `
SELECT
  a.artist, count(DISTINCT a.title)
FROM
  albums a
JOIN
  styles s ON a.asin = s.album
WHERE
  s.style LIKE '%Rock%'
GROUP BY
  a.artist
ORDER BY
  count(DISTINCT a.title) DESC
LIMIT
  1`

const expensiveTastesSQL = `
SELECT
  s.style, AVG(tracks_per_album.price / tracks_per_album.num) AS price_per_track
FROM
  styles s
JOIN
  (
    SELECT
      a.asin AS bsin, a.price AS price, count(*) AS num
    FROM
      albums a
    JOIN
      tracks t ON a.asin = t.album
    GROUP BY
      a.asin, a.price
  ) tracks_per_album ON s.album = tracks_per_album.bsin
WHERE
  tracks_per_album.price / tracks_per_album.num IS NOT NULL
GROUP BY
  s.style
ORDER BY
  AVG(tracks_per_album.price / tracks_per_album.num) DESC
LIMIT
  5`

var albumExercises = []Exercise{
	{
		Name:   "alison_artist",
		Schema: SchemaAlbums,
		Prompt: "Select the name of the artist who recorded the song 'Alison'.",
		SQL:    alisonArtistSQL,
	},
	{
		Name:   "exodus_artist",
		Schema: SchemaAlbums,
		Prompt: "Select the name of the artist who recorded the song 'Exodus'.",
		SQL:    exodusArtistSQL,
	},
	{
		Name:   "blur_songs",
		Schema: SchemaAlbums,
		Prompt: "Select the song for each track on the album 'Blur'.",
		SQL:    blurSongsSQL,
	},
	{
		Name:   "heart_tracks",
		Schema: SchemaAlbums,
		Prompt: "For each album show the title and the number of tracks containing the word 'Heart'. Order by that number, then by title.",
		SQL:    heartTracksSQL,
	},
	{
		Name:   "title_tracks",
		Schema: SchemaAlbums,
		Prompt: "A title track has a song that is the same as its album's title. Select the names of all the title tracks.",
		SQL:    titleTracksSQL,
	},
	{
		Name:   "eponymous_albums",
		Schema: SchemaAlbums,
		Prompt: "An eponymous album has a title that is the same as its artist's name. Select the titles of all the eponymous albums.",
		SQL:    eponymousAlbumsSQL,
	},
	{
		Name:   "song_title_counts",
		Schema: SchemaAlbums,
		Prompt: "Select the song names that appear on more than two albums, with the number of times they show up.",
		SQL:    songTitleCountsSQL,
	},
	{
		Name:   "best_value",
		Schema: SchemaAlbums,
		Prompt: "A good value album costs less than 50 pence per track. Show the title, price and number of tracks of each one.",
		SQL:    bestValueSQL,
	},
	{
		Name:   "top_track_counts",
		Schema: SchemaAlbums,
		Prompt: "List the top 10 albums by track count with their counts, ordered by count and then by title, both descending.",
		SQL:    topTrackCountsSQL,
	},
	{
		Name:   "rock_superstars",
		Schema: SchemaAlbums,
		Prompt: "Select the artist who has recorded the most rock albums, and the number of those albums.",
		SQL:    rockSuperstarsSQL,
	},
	{
		Name:   "expensive_tastes",
		Schema: SchemaAlbums,
		Prompt: "Select the five styles of music with the highest average price per track, with that price.",
		SQL:    expensiveTastesSQL,
	},
}

func AlisonArtist(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, alisonArtistSQL)
}

func ExodusArtist(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, exodusArtistSQL)
}

func BlurSongs(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, blurSongsSQL)
}

func HeartTracks(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, heartTracksSQL)
}

func TitleTracks(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, titleTracksSQL)
}

func EponymousAlbums(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, eponymousAlbumsSQL)
}

func SongTitleCounts(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, songTitleCountsSQL)
}

func BestValue(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, bestValueSQL)
}

func TopTrackCounts(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, topTrackCountsSQL)
}

func RockSuperstars(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, rockSuperstarsSQL)
}

func ExpensiveTastes(ctx context.Context, x query.QueryExecutor) (*query.Result, error) {
	return x.Execute(ctx, expensiveTastesSQL)
}
