package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sqlConnection implements Connection on top of database/sql and is shared by all drivers.
type sqlConnection struct {
	id        string
	db        *sql.DB
	dbType    Type
	validator *Validator
	logger    *zap.SugaredLogger
}

func newSQLConnection(db *sql.DB, dbType Type, blockQueries bool, logger *zap.SugaredLogger) *sqlConnection {
	return &sqlConnection{
		id:        uuid.NewString(),
		db:        db,
		dbType:    dbType,
		validator: NewValidator(blockQueries, logger),
		logger:    logger,
	}
}

func (c *sqlConnection) ID() string {
	return c.id
}

func (c *sqlConnection) DB() *sql.DB {
	return c.db
}

func (c *sqlConnection) Ping(ctx context.Context) error {
	c.logger.Debugf("%s Ping()", c.dbType)
	return c.db.PingContext(ctx)
}

func (c *sqlConnection) QueryRow(ctx context.Context, query string, args ...interface{}) (DataRow, error) {
	c.logger.Debugf("%s QueryRow(): %s | %v", c.dbType, query, args)
	if err := c.validator.Validate(query); err != nil {
		return nil, err
	}
	return c.db.QueryRowContext(ctx, query, args...), nil
}

func (c *sqlConnection) Query(ctx context.Context, query string, args ...interface{}) (DataRows, error) {
	c.logger.Debugf("%s Query(): %s | %v", c.dbType, query, args)
	if err := c.validator.Validate(query); err != nil {
		return nil, err
	}
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Errorf("%s Query() error: %s", c.dbType, err)
		return nil, err
	}
	return rows, nil
}

func (c *sqlConnection) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	c.logger.Debugf("%s Exec(): %s | %v", c.dbType, query, args)
	if err := c.validator.Validate(query); err != nil {
		return nil, err
	}
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		c.logger.Errorf("%s Exec() error: %s", c.dbType, err)
	}
	return result, err
}

func (c *sqlConnection) Close() error {
	c.logger.Debugf("%s Close()", c.dbType)
	return c.db.Close()
}

func (c *sqlConnection) Type() Type {
	return c.dbType
}
