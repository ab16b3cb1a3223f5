package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows replays fixed qb_seasons rows.
type fakeRows struct {
	data [][]any
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Values() ([]any, error) {
	return r.data[r.pos-1], nil
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *int:
			*p = row[i].(int)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

type fakeQuerier struct {
	rows *fakeRows
	err  error
}

func (q fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func qbRow(id, name string, year int, team string, gs, wins, losses, att, cmp, yds int) []any {
	row := []any{id, name, year, team, 0, gs, wins, losses, 0, att, cmp, yds}
	for len(row) < 27 {
		row = append(row, 0)
	}
	return row
}

func TestPostgresSource_LoadPlayers(t *testing.T) {
	rows := &fakeRows{data: [][]any{
		qbRow("flacco", "Joe Flacco", 2023, "CLE", 5, 4, 1, 236, 140, 1616),
		qbRow("mayfield", "Baker Mayfield", 2022, "CAR", 6, 1, 5, 185, 101, 1043),
		qbRow("mayfield", "Baker Mayfield", 2022, "LAR", 3, 1, 2, 110, 74, 850),
	}}
	src := &PostgresSource{q: fakeQuerier{rows: rows}}

	players, err := src.LoadPlayers(context.Background())
	require.NoError(t, err)
	require.Len(t, players, 2)

	assert.Equal(t, "flacco", players[0].ID)
	mayfield := players[1]
	require.Len(t, mayfield.Seasons, 1)
	assert.Equal(t, 9, mayfield.Seasons[0].GamesStarted)
	assert.Equal(t, 1893, mayfield.Seasons[0].PassingYards)
	assert.Len(t, mayfield.Seasons[0].Teams, 2)
	assert.Equal(t, "postgres", src.Name())
}

func TestPostgresSource_Errors(t *testing.T) {
	boom := errors.New("boom")

	_, err := (&PostgresSource{q: fakeQuerier{err: boom}}).LoadPlayers(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = (&PostgresSource{q: fakeQuerier{rows: &fakeRows{err: boom}}}).LoadPlayers(context.Background())
	assert.ErrorIs(t, err, boom)

	invalid := &fakeRows{data: [][]any{qbRow("x", "X", 2024, "KC", 10, 5, 5, 100, 150, 900)}}
	_, err = (&PostgresSource{q: fakeQuerier{rows: invalid}}).LoadPlayers(context.Background())
	assert.Error(t, err)
}
