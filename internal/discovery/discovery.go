// Package discovery builds schema snapshots from a read-only metadata
// provider. Providers answer the four metadata queries for one consistent
// point in time; everything the analyzers see comes from the snapshot built
// here, never from live queries.
package discovery

import (
	"context"
	"fmt"

	"github.com/Ray0907/mysql-analyzer-mcp/internal/config"
	"github.com/Ray0907/mysql-analyzer-mcp/internal/schema"
)

// Provider is a read-only metadata source. All four list methods must
// reflect the same point in time; any session pinning needed to guarantee
// that is the implementation's concern.
type Provider interface {
	// Connect establishes a read-only connection to the database.
	Connect(ctx context.Context) error

	// ListTables returns tables in name order with table-level status
	// (engine, charset, row estimates) filled in.
	ListTables(ctx context.Context) ([]schema.Table, error)

	// ListColumns returns a table's columns in ordinal order.
	ListColumns(ctx context.Context, table string) ([]schema.Column, error)

	// ListIndexes returns a table's indexes with columns in sequence order.
	ListIndexes(ctx context.Context, table string) ([]schema.Index, error)

	// ListForeignKeys returns a table's foreign keys with columns in
	// ordinal order.
	ListForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error)

	// Source identifies the provider type (mysql, postgresql).
	Source() string

	// Database returns the database or schema name being inspected.
	Database() string

	// Close closes the database connection.
	Close() error
}

// New creates a Provider for the given connection configuration.
func New(cfg *config.DatabaseConfig) (Provider, error) {
	switch cfg.Type {
	case "mysql":
		return NewMySQL(cfg), nil
	case "postgresql":
		return NewPostgres(cfg), nil
	default:
		return nil, &UnsupportedSourceError{Source: cfg.Type}
	}
}

// UnsupportedSourceError is returned when the database type is not supported.
type UnsupportedSourceError struct {
	Source string
}

func (e *UnsupportedSourceError) Error() string {
	return "unsupported database type: " + e.Source
}

// MetadataError wraps a provider failure. It is surfaced immediately; any
// retry policy belongs to the caller.
type MetadataError struct {
	Op  string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata unavailable (%s): %v", e.Op, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// Snapshot materializes the full schema snapshot from a connected provider.
// This is the single boundary where the external metadata source is
// consulted; the returned snapshot is never mutated afterwards.
func Snapshot(ctx context.Context, p Provider, host string) (*schema.Snapshot, error) {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, &MetadataError{Op: "listing tables", Err: err}
	}

	for i := range tables {
		t := &tables[i]
		if t.Columns, err = p.ListColumns(ctx, t.Name); err != nil {
			return nil, &MetadataError{Op: "listing columns of " + t.Name, Err: err}
		}
		if t.Indexes, err = p.ListIndexes(ctx, t.Name); err != nil {
			return nil, &MetadataError{Op: "listing indexes of " + t.Name, Err: err}
		}
		if t.ForeignKeys, err = p.ListForeignKeys(ctx, t.Name); err != nil {
			return nil, &MetadataError{Op: "listing foreign keys of " + t.Name, Err: err}
		}
	}

	return &schema.Snapshot{
		Source:   p.Source(),
		Host:     host,
		Database: p.Database(),
		Tables:   tables,
	}, nil
}
