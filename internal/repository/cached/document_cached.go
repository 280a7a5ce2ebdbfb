package cached

import (
	"context"
	"sync/atomic"

	"doclib/internal/cache"
	"doclib/internal/logging"
	"doclib/internal/model"
	"doclib/internal/repository"
)

// DocumentCached serves LoadAll from a list cache and invalidates it after
// every mutation of the inner store. Cache failures never fail a call.
//
// gen counts mutations started through this instance. A list read from the
// inner store is only cached when no mutation began during the read, and is
// invalidated again if one began before the cache write landed.
type DocumentCached struct {
	inner repository.DocumentRepository
	cache cache.ListCache
	gen   atomic.Uint64
}

var _ repository.DocumentRepository = (*DocumentCached)(nil)

// NewDocumentCached wraps inner with c.
func NewDocumentCached(inner repository.DocumentRepository, c cache.ListCache) *DocumentCached {
	return &DocumentCached{inner: inner, cache: c}
}

func (r *DocumentCached) LoadAll(ctx context.Context) ([]model.Document, error) {
	docs, ok, err := r.cache.GetList(ctx)
	if err != nil {
		r.warn("cache_get_failed", err)
	} else if ok {
		return docs, nil
	}

	gen := r.gen.Load()
	docs, err = r.inner.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if r.gen.Load() != gen {
		return docs, nil
	}
	if err := r.cache.SetList(ctx, docs); err != nil {
		r.warn("cache_set_failed", err)
		return docs, nil
	}
	if r.gen.Load() != gen {
		r.invalidate(ctx)
	}
	return docs, nil
}

func (r *DocumentCached) SaveAll(ctx context.Context, docs []model.Document) error {
	r.gen.Add(1)
	defer r.invalidate(ctx)
	return r.inner.SaveAll(ctx, docs)
}

func (r *DocumentCached) Append(ctx context.Context, doc model.Document) error {
	r.gen.Add(1)
	defer r.invalidate(ctx)
	return r.inner.Append(ctx, doc)
}

func (r *DocumentCached) Remove(ctx context.Context, id string) (bool, error) {
	r.gen.Add(1)
	found, err := r.inner.Remove(ctx, id)
	if found {
		r.invalidate(ctx)
	}
	return found, err
}

func (r *DocumentCached) PingContext(ctx context.Context) error {
	return r.inner.PingContext(ctx)
}

func (r *DocumentCached) invalidate(ctx context.Context) {
	if err := r.cache.Invalidate(ctx); err != nil {
		r.warn("cache_invalidate_failed", err)
	}
}

func (r *DocumentCached) warn(event string, err error) {
	l := logging.Component("document_cache")
	l.Warn().Str("event", event).Err(err).Msg("")
}
