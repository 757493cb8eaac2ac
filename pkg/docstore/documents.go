package docstore

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/CTAG07/hcp/pkg/envelope"
)

// DocumentInfo holds the metadata of a stored document. MimeType is the
// format the document was imported from and the default export format.
type DocumentInfo struct {
	Id        int
	Name      string
	MimeType  string
	UpdatedAt time.Time
}

// GetDocumentInfos returns metadata for every stored document, ordered by name.
func (s *Store) GetDocumentInfos(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.stmtGetDocuments.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	infos := make([]DocumentInfo, 0)
	for rows.Next() {
		var info DocumentInfo
		var updated int64
		if err = rows.Scan(&info.Id, &info.Name, &info.MimeType, &updated); err != nil {
			return nil, err
		}
		info.UpdatedAt = time.Unix(updated, 0)
		infos = append(infos, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return infos, nil
}

// GetDocumentInfo returns the metadata for a single document.
func (s *Store) GetDocumentInfo(ctx context.Context, name string) (DocumentInfo, error) {
	info, _, err := s.getDocument(ctx, name)
	return info, err
}

// GetDocument loads and decodes the named document.
func (s *Store) GetDocument(ctx context.Context, name string) (envelope.File, error) {
	_, body, err := s.getDocument(ctx, name)
	if err != nil {
		return envelope.File{}, err
	}
	f, err := envelope.DecodeFile(bytes.NewReader(body), envelope.FileJSONMimeType)
	if err != nil {
		return envelope.File{}, fmt.Errorf("document %q is corrupt: %w", name, err)
	}
	return f, nil
}

func (s *Store) getDocument(ctx context.Context, name string) (DocumentInfo, []byte, error) {
	info := DocumentInfo{Name: name}
	var body []byte
	var updated int64
	err := s.stmtGetDocument.QueryRowContext(ctx, name).Scan(&info.Id, &info.MimeType, &body, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DocumentInfo{}, nil, fmt.Errorf("%w: document %q: %w", ErrNotFound, name, err)
		}
		return DocumentInfo{}, nil, err
	}
	info.UpdatedAt = time.Unix(updated, 0)
	return info, body, nil
}

// PutDocument stores f under name, replacing any document of the same name.
func (s *Store) PutDocument(ctx context.Context, name string, f envelope.File) error {
	return s.putDocument(ctx, name, f, envelope.FileJSONMimeType)
}

func (s *Store) putDocument(ctx context.Context, name string, f envelope.File, mimeType string) error {
	var buf bytes.Buffer
	if err := envelope.EncodeFile(&buf, f, envelope.FileJSONMimeType); err != nil {
		return fmt.Errorf("could not encode document %q: %w", name, err)
	}
	if _, err := s.stmtPutDocument.ExecContext(ctx, name, mimeType, buf.Bytes(), time.Now().Unix()); err != nil {
		return fmt.Errorf("could not store document %q: %w", name, err)
	}
	s.logger.DebugContext(ctx, "Document stored",
		slog.String("doc_name", name),
		slog.Int("nodes", len(f.Content)),
	)
	return nil
}

// RemoveDocument deletes the named document. Removing a missing document
// returns ErrNotFound.
func (s *Store) RemoveDocument(ctx context.Context, name string) error {
	res, err := s.stmtDelDocument.ExecContext(ctx, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: document %q", ErrNotFound, name)
	}
	s.logger.InfoContext(ctx, "Document removed", slog.String("doc_name", name))
	return nil
}

// ImportDocument decodes an HCF from r in the format named by mimeType and
// stores it under name.
func (s *Store) ImportDocument(ctx context.Context, name string, r io.Reader, mimeType string) error {
	f, err := envelope.DecodeFile(r, mimeType)
	if err != nil {
		return fmt.Errorf("could not decode document %q: %w", name, err)
	}
	if err = s.putDocument(ctx, name, f, mimeType); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Document imported",
		slog.String("doc_name", name),
		slog.String("mime_type", mimeType),
	)
	return nil
}

// ExportDocument writes the named document to w. An empty mimeType exports
// in the format the document was imported from.
func (s *Store) ExportDocument(ctx context.Context, name string, w io.Writer, mimeType string) error {
	info, body, err := s.getDocument(ctx, name)
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = info.MimeType
	}
	f, err := envelope.DecodeFile(bytes.NewReader(body), envelope.FileJSONMimeType)
	if err != nil {
		return fmt.Errorf("document %q is corrupt: %w", name, err)
	}
	return envelope.EncodeFile(w, f, mimeType)
}
