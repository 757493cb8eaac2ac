package docstore

import (
	"context"

	"github.com/CTAG07/hcp/pkg/content"
)

// DBStats holds aggregated statistics for the whole store.
type DBStats struct {
	Documents      []DocumentInfo           // Every stored document
	Stats          map[string]content.Stats // Tree statistics keyed by document name
	Contexts       []string                 // Names of all non-empty contexts
	ContextEntries int                      // Total entries across all contexts
}

// GetStats returns a snapshot of statistics for the store, decoding every
// document to summarize its tree.
func (s *Store) GetStats(ctx context.Context) (*DBStats, error) {
	docs, err := s.GetDocumentInfos(ctx)
	if err != nil {
		return nil, err
	}

	var entries int
	if err = s.stmtCountEntries.QueryRowContext(ctx).Scan(&entries); err != nil {
		return nil, err
	}

	contexts, err := s.GetContextNames(ctx)
	if err != nil {
		return nil, err
	}

	stats := make(map[string]content.Stats, len(docs))
	for _, d := range docs {
		f, err := s.GetDocument(ctx, d.Name)
		if err != nil {
			return nil, err
		}
		stats[d.Name] = content.SummarizeSequence(f.Content)
	}

	return &DBStats{
		Documents:      docs,
		Stats:          stats,
		Contexts:       contexts,
		ContextEntries: entries,
	}, nil
}

// CountDocuments returns the number of stored documents.
func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var n int
	err := s.stmtCountDocument.QueryRowContext(ctx).Scan(&n)
	return n, err
}
