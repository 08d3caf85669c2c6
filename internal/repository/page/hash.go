package page

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/linkrank/internal/domain"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
)

// hashStore is the consumer interface for the key-value page store (ISP).
type hashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	DelMulti(ctx context.Context, keys []string) (int64, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// HashRepo stores pages as hashes under {prefix}page:{url}.
type HashRepo struct {
	store  hashStore
	prefix string
}

// NewHashRepo creates a hash-backed page repository.
func NewHashRepo(s hashStore, keyPrefix string) *HashRepo {
	return &HashRepo{store: s, prefix: keyPrefix}
}

func (r *HashRepo) key(url string) string { return r.prefix + "page:" + url }

func (r *HashRepo) pattern() string { return r.prefix + "page:*" }

// Get returns the cached page for url.
func (r *HashRepo) Get(ctx context.Context, url string) (dompage.Page, error) {
	key := r.key(url)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return dompage.Page{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return dompage.Page{}, domain.ErrPageNotFound
	}
	return parseHashFields(m), nil
}

// Upsert writes p by URL, last write wins.
func (r *HashRepo) Upsert(ctx context.Context, p dompage.Page) error {
	key := r.key(p.URL())
	if err := r.store.HSet(ctx, key, buildHashFields(&p)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// List returns every stored page ordered by URL.
func (r *HashRepo) List(ctx context.Context) ([]dompage.Page, error) {
	keys, err := r.store.Scan(ctx, r.pattern())
	if err != nil {
		return nil, fmt.Errorf("scan pages: %w", err)
	}
	if len(keys) == 0 {
		return []dompage.Page{}, nil
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load pages: %w", err)
	}

	pages := make([]dompage.Page, 0, len(maps))
	for _, m := range maps {
		// key expired or deleted between SCAN and HGETALL
		if len(m) == 0 {
			continue
		}
		pages = append(pages, parseHashFields(m))
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].URL() < pages[j].URL() })
	return pages, nil
}

// Delete removes one page.
func (r *HashRepo) Delete(ctx context.Context, url string) error {
	n, err := r.store.DelMulti(ctx, []string{r.key(url)})
	if err != nil {
		return fmt.Errorf("delete page %s: %w", url, err)
	}
	if n == 0 {
		return domain.ErrPageNotFound
	}
	return nil
}

// Purge removes every page and returns how many were removed.
func (r *HashRepo) Purge(ctx context.Context) (int64, error) {
	keys, err := r.store.Scan(ctx, r.pattern())
	if err != nil {
		return 0, fmt.Errorf("scan pages: %w", err)
	}
	n, err := r.store.DelMulti(ctx, keys)
	if err != nil {
		return 0, fmt.Errorf("purge pages: %w", err)
	}
	return n, nil
}

// Count returns the number of stored pages.
func (r *HashRepo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.pattern())
	if err != nil {
		return 0, fmt.Errorf("scan pages: %w", err)
	}
	return len(keys), nil
}
