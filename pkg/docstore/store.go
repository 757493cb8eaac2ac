package docstore

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ErrNotFound is returned when a named document does not exist.
var ErrNotFound = errors.New("docstore: not found")

// SetupSchema initializes the document and context tables in the provided
// database. It is idempotent and safe to call on an already-initialized
// database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaDocuments = `
CREATE TABLE IF NOT EXISTS hcp_documents (
    doc_id INTEGER PRIMARY KEY,
    doc_name TEXT NOT NULL UNIQUE,
    mime_type TEXT NOT NULL,
    body BLOB NOT NULL,
    updated_at INTEGER NOT NULL
);
`
		schemaContexts = `
CREATE TABLE IF NOT EXISTS hcp_contexts (
    context_name TEXT NOT NULL,
    entry_key TEXT NOT NULL,
    entry_value BLOB NOT NULL,
    PRIMARY KEY (context_name, entry_key)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaDocuments); err != nil {
		return fmt.Errorf("could not create documents schema: %w", err)
	}

	if _, err = tx.Exec(schemaContexts); err != nil {
		return fmt.Errorf("could not create contexts schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store persists named HCF documents and named template contexts. It holds
// the database connection and prepared SQL statements. All methods are safe
// for concurrent use.
type Store struct {
	db                *sql.DB
	stmtGetDocument   *sql.Stmt
	stmtGetDocuments  *sql.Stmt
	stmtPutDocument   *sql.Stmt
	stmtDelDocument   *sql.Stmt
	stmtGetContext    *sql.Stmt
	stmtGetContexts   *sql.Stmt
	stmtPutEntry      *sql.Stmt
	stmtDelEntry      *sql.Stmt
	stmtDelContext    *sql.Stmt
	stmtCountEntries  *sql.Stmt
	stmtCountDocument *sql.Stmt
	logger            *slog.Logger
}

// NewStore creates a Store on a database prepared with SetupSchema. It
// pre-compiles all SQL statements, returning an error if any preparation fails.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.stmtGetDocument, `SELECT doc_id, mime_type, body, updated_at FROM hcp_documents WHERE doc_name = ?;`},
		{&s.stmtGetDocuments, `SELECT doc_id, doc_name, mime_type, updated_at FROM hcp_documents ORDER BY doc_name;`},
		{&s.stmtPutDocument, `INSERT INTO hcp_documents (doc_name, mime_type, body, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT(doc_name) DO UPDATE SET mime_type = excluded.mime_type, body = excluded.body, updated_at = excluded.updated_at;`},
		{&s.stmtDelDocument, `DELETE FROM hcp_documents WHERE doc_name = ?;`},
		{&s.stmtGetContext, `SELECT entry_key, entry_value FROM hcp_contexts WHERE context_name = ?;`},
		{&s.stmtGetContexts, `SELECT DISTINCT context_name FROM hcp_contexts ORDER BY context_name;`},
		{&s.stmtPutEntry, `INSERT INTO hcp_contexts (context_name, entry_key, entry_value) VALUES (?, ?, ?) ON CONFLICT(context_name, entry_key) DO UPDATE SET entry_value = excluded.entry_value;`},
		{&s.stmtDelEntry, `DELETE FROM hcp_contexts WHERE context_name = ? AND entry_key = ?;`},
		{&s.stmtDelContext, `DELETE FROM hcp_contexts WHERE context_name = ?;`},
		{&s.stmtCountEntries, `SELECT COUNT(*) FROM hcp_contexts;`},
		{&s.stmtCountDocument, `SELECT COUNT(*) FROM hcp_documents;`},
	}
	for _, st := range stmts {
		stmt, err := db.Prepare(st.query)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("could not prepare statement: %w", err)
		}
		*st.dst = stmt
	}
	return s, nil
}

// Close releases all prepared SQL statements held by the Store. The database
// itself is owned by the caller.
func (s *Store) Close() {
	for _, stmt := range []*sql.Stmt{
		s.stmtGetDocument,
		s.stmtGetDocuments,
		s.stmtPutDocument,
		s.stmtDelDocument,
		s.stmtGetContext,
		s.stmtGetContexts,
		s.stmtPutEntry,
		s.stmtDelEntry,
		s.stmtDelContext,
		s.stmtCountEntries,
		s.stmtCountDocument,
	} {
		if stmt != nil {
			_ = stmt.Close()
		}
	}
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}
