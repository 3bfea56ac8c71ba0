package db

import (
	"context"
	"database/sql"
)

type Type string

const (
	Postgres Type = "postgres"
	SQLite   Type = "sqlite"
)

type Connection interface {
	ID() string
	DB() *sql.DB
	Ping(ctx context.Context) error
	QueryRow(ctx context.Context, query string, args ...interface{}) (DataRow, error)
	Query(ctx context.Context, query string, args ...interface{}) (DataRows, error)
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
	Type() Type
}

type ConnectionFactory interface {
	Init(migrate bool) error
	NewConnection() (Connection, error)
}

//DataRow introduces a interface which is implemented by sql.Row and sql.Rows
//to make both usable for retrieving raw data
type DataRow interface {
	Scan(dest ...interface{}) error
}

type DataRows interface {
	Scan(dest ...interface{}) error
	Next() bool
	Err() error
	Close() error
}
