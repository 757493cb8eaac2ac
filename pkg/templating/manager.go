package templating

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/CTAG07/hcp/pkg/content"
	"github.com/CTAG07/hcp/pkg/docstore"
	"github.com/CTAG07/hcp/pkg/envelope"
	"golang.org/x/sync/errgroup"
)

// TemplateManager is the central controller for serving stored documents.
// It ties the document store, the resolver and the envelope codecs together,
// and keeps the configuration and the cache of document names.
// All methods are concurrent-safe.
type TemplateManager struct {
	logger        *slog.Logger
	config        *TemplateConfig
	resolver      *Resolver
	store         *docstore.Store
	documentNames []string
	mu            sync.RWMutex
}

// NewTemplateManager creates, initializes, and returns a new TemplateManager.
// It requires a document store. A nil logger discards all logs and a nil
// config means DefaultConfig. It performs an initial Refresh to load the
// document names.
func NewTemplateManager(logger *slog.Logger, store *docstore.Store, config *TemplateConfig) (*TemplateManager, error) {
	if store == nil {
		return nil, errors.New("template manager requires a document store")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}

	tm := &TemplateManager{
		logger:   logger,
		config:   config,
		resolver: NewResolver(*config),
		store:    store,
	}

	if err := tm.Refresh(context.Background()); err != nil {
		return nil, err
	}

	logger.Info("Template manager initialized")
	return tm, nil
}

// SetConfig applies a new configuration, or DefaultConfig when config is nil.
// Renders already in flight finish with the configuration they started with.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) {
	if config == nil {
		cfg := DefaultConfig()
		config = &cfg
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.config = config
	tm.resolver = NewResolver(*config)
}

// GetConfig returns a copy of the current configuration.
// This mainly exists for concurrency-safety reasons.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// Refresh reloads the list of document names from the store. This allows
// documents imported by another process to be picked up without a restart.
func (tm *TemplateManager) Refresh(ctx context.Context) error {
	infos, err := tm.store.GetDocumentInfos(ctx)
	if err != nil {
		tm.logger.Error("failed to load documents", "error", err)
		return err
	}
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}

	tm.mu.Lock()
	tm.documentNames = names
	tm.mu.Unlock()

	tm.logger.Info("Loaded documents", "count", len(names))
	return nil
}

// GetDocumentNames returns a copy of the cached document names.
func (tm *TemplateManager) GetDocumentNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return append([]string(nil), tm.documentNames...)
}

func (tm *TemplateManager) snapshot() (TemplateConfig, *Resolver) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config, tm.resolver
}

// Render resolves the named document for req. The features of req become
// the active flags, negotiated against the configured header when one is
// set. contextName selects the stored context; empty means the configured
// default. A context that does not exist resolves as an empty one. The
// document's extra map is carried into the response unchanged.
func (tm *TemplateManager) Render(ctx context.Context, name string, req envelope.Request, contextName string) (envelope.Response, error) {
	cfg, resolver := tm.snapshot()

	features := req.Features
	if cfg.Header != nil {
		var err error
		if features, err = envelope.Negotiate(*cfg.Header, req); err != nil {
			return envelope.Response{}, err
		}
	}
	flags := NewFlagSet(features...)

	if contextName == "" {
		contextName = cfg.DefaultContext
	}

	doc, err := tm.store.GetDocument(ctx, name)
	if err != nil {
		return envelope.Response{}, err
	}
	values, err := tm.store.GetContext(ctx, contextName)
	if err != nil {
		return envelope.Response{}, fmt.Errorf("could not load context %s: %w", contextName, err)
	}

	nodes, err := resolveConcurrently(ctx, resolver, doc.Content, values, flags, cfg)
	if err != nil {
		tm.logger.WarnContext(ctx, "Render failed", "document", name, "error", err)
		return envelope.Response{}, fmt.Errorf("document %q: %w", name, err)
	}

	tm.logger.DebugContext(ctx, "Document rendered",
		"document", name,
		"context", contextName,
		"flags", flags.Names(),
		"nodes", len(nodes),
	)
	return envelope.Response{Content: nodes, Extra: doc.Extra}, nil
}

// resolveConcurrently resolves each top-level node in its own goroutine,
// bounded by cfg.Parallelism. Every goroutine writes only its own index.
func resolveConcurrently(ctx context.Context, r *Resolver, nodes []content.Content, values Context, flags FlagSet, cfg TemplateConfig) ([]content.Content, error) {
	out := make([]content.Content, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Parallelism > 0 {
		g.SetLimit(cfg.Parallelism)
	}
	for i, n := range nodes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resolved, err := r.Resolve(n, values, flags)
			if err != nil {
				if !cfg.Placeholders {
					return fmt.Errorf("node %d: %w", i, err)
				}
				resolved = Placeholder(err)
			}
			out[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RenderTo renders the named document and writes the response to w in the
// format named by mimeType.
func (tm *TemplateManager) RenderTo(ctx context.Context, w io.Writer, name string, req envelope.Request, contextName, mimeType string) error {
	resp, err := tm.Render(ctx, name, req, contextName)
	if err != nil {
		return err
	}
	return envelope.EncodeResponse(w, resp, mimeType)
}
