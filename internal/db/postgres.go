package db

import (
	"context"
	"database/sql"
	"embed"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Postgres struct {
	url  string
	conn *sql.DB
}

func NewPostgres(url string) *Postgres {
	return &Postgres{
		url: url,
	}
}

func (p *Postgres) InitDB() error {
	var err error
	p.conn, err = sql.Open("postgres", p.url)
	if err != nil {
		return err
	}

	if err := p.conn.Ping(); err != nil {
		return err
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(p.conn, "migrations"); err != nil {
		return err
	}

	dbLogger.Info().Msg("Database initialized, migrations applied")
	return nil
}

func (p *Postgres) Get() *sql.DB {
	return p.conn
}

func (p *Postgres) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Postgres) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	query = rebind(query)
	dbLogger.Debug().Str("query", query).Msg("Query")
	return p.conn.QueryContext(ctx, query, args...)
}

func (p *Postgres) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	query = rebind(query)
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return p.conn.ExecContext(ctx, query, args...)
}

// rebind rewrites ? placeholders to the $n form lib/pq expects, so the
// repository can write one query dialect for both drivers.
func rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
