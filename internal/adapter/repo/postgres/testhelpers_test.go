package postgres_test

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowStub implements pgx.Row.
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// poolStub implements postgres.PgxPool, keeping report rows in memory by id.
type poolStub struct {
	mu      sync.Mutex
	execErr error
	rowErr  error
	rows    map[string][]byte
	sql     []string
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sql = append(p.sql, sql)
	if p.execErr != nil {
		return pgconn.CommandTag{}, p.execErr
	}
	if len(args) >= 6 {
		if p.rows == nil {
			p.rows = map[string][]byte{}
		}
		id, _ := args[0].(string)
		body, _ := args[5].([]byte)
		p.rows[id] = body
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (p *poolStub) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rowErr != nil {
		return rowStub{scan: func(...any) error { return p.rowErr }}
	}
	id, _ := args[0].(string)
	body, ok := p.rows[id]
	return rowStub{scan: func(dest ...any) error {
		if !ok {
			return pgx.ErrNoRows
		}
		if len(dest) != 1 {
			return errors.New("unexpected scan arity")
		}
		b, ok := dest[0].(*[]byte)
		if !ok {
			return errors.New("unexpected scan target")
		}
		*b = append([]byte(nil), body...)
		return nil
	}}
}
