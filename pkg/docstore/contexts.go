package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/hcp/pkg/content"
	"github.com/CTAG07/hcp/pkg/envelope"
)

// SetContextEntry stores value under key in the named context, replacing any
// previous value.
func (s *Store) SetContextEntry(ctx context.Context, contextName, key string, value content.Content) error {
	data, err := content.MarshalJSON(value)
	if err != nil {
		return fmt.Errorf("could not encode context entry %s/%s: %w", contextName, key, err)
	}
	if _, err = s.stmtPutEntry.ExecContext(ctx, contextName, key, data); err != nil {
		return fmt.Errorf("could not store context entry %s/%s: %w", contextName, key, err)
	}
	return nil
}

// GetContext returns every entry of the named context. A context with no
// entries is returned as an empty map, not an error.
func (s *Store) GetContext(ctx context.Context, contextName string) (map[string]content.Content, error) {
	rows, err := s.stmtGetContext.QueryContext(ctx, contextName)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	values := make(map[string]content.Content)
	for rows.Next() {
		var key string
		var data []byte
		if err = rows.Scan(&key, &data); err != nil {
			return nil, err
		}
		c, err := content.UnmarshalJSON(data)
		if err != nil {
			return nil, fmt.Errorf("context entry %s/%s is corrupt: %w", contextName, key, err)
		}
		values[key] = c
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

// GetContextNames returns the names of all contexts with at least one entry.
func (s *Store) GetContextNames(ctx context.Context) ([]string, error) {
	rows, err := s.stmtGetContexts.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// RemoveContextEntry deletes a single key from the named context.
func (s *Store) RemoveContextEntry(ctx context.Context, contextName, key string) error {
	res, err := s.stmtDelEntry.ExecContext(ctx, contextName, key)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: context entry %s/%s", ErrNotFound, contextName, key)
	}
	return nil
}

// RemoveContext deletes the named context and all of its entries.
func (s *Store) RemoveContext(ctx context.Context, contextName string) error {
	if _, err := s.stmtDelContext.ExecContext(ctx, contextName); err != nil {
		return fmt.Errorf("could not remove context %s: %w", contextName, err)
	}
	s.logger.InfoContext(ctx, "Context removed", slog.String("context_name", contextName))
	return nil
}

// ImportContext decodes a key -> content map from r and stores every entry in
// the named context within a single transaction. Existing keys not present in
// r are kept.
func (s *Store) ImportContext(ctx context.Context, contextName string, r io.Reader, mimeType string) error {
	values, err := envelope.DecodeContext(r, mimeType)
	if err != nil {
		return fmt.Errorf("could not decode context %s: %w", contextName, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmt := tx.StmtContext(ctx, s.stmtPutEntry)
	for key, value := range values {
		data, err := content.MarshalJSON(value)
		if err != nil {
			return fmt.Errorf("could not encode context entry %s/%s: %w", contextName, key, err)
		}
		if _, err = stmt.ExecContext(ctx, contextName, key, data); err != nil {
			return fmt.Errorf("could not store context entry %s/%s: %w", contextName, key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Context imported",
		slog.String("context_name", contextName),
		slog.Int("entries", len(values)),
	)
	return nil
}

// ExportContext writes the named context to w.
func (s *Store) ExportContext(ctx context.Context, contextName string, w io.Writer, mimeType string) error {
	values, err := s.GetContext(ctx, contextName)
	if err != nil {
		return err
	}
	return envelope.EncodeContext(w, values, mimeType)
}
