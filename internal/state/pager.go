package state

import (
	"context"
	"slices"
	"sync"

	"inkyspace/internal/models"
)

type FetchFunc[T any] func(ctx context.Context, p models.PageRequest) (models.Page[T], error)

// Pager accumulates a cursor-paginated list. Pages are appended, never
// replaced, and no request is issued once the cursor is exhausted or while
// another fetch for the same list is running. Reset starts a new generation;
// a fetch issued before it is dropped when it returns.
type Pager[T any] struct {
	fetch    FetchFunc[T]
	pageSize int

	mu       sync.Mutex
	items    []T
	token    string
	total    int
	done     bool
	inFlight bool
	gen      uint64
}

func NewPager[T any](fetch FetchFunc[T], pageSize int) *Pager[T] {
	return &Pager[T]{fetch: fetch, pageSize: pageSize}
}

// LoadMore fetches the next page. It reports whether a request was made.
func (p *Pager[T]) LoadMore(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.inFlight || p.done {
		p.mu.Unlock()
		return false, nil
	}
	p.inFlight = true
	gen := p.gen
	req := models.PageRequest{PageSize: p.pageSize, Token: p.token}
	p.mu.Unlock()

	page, err := p.fetch(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return true, nil
	}
	p.inFlight = false
	if err != nil {
		return true, err
	}
	p.items = append(p.items, page.List...)
	if page.TotalCount > 0 {
		p.total = page.TotalCount
	}
	next, ok := page.Next()
	p.token = next
	p.done = !ok
	return true, nil
}

func (p *Pager[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.items)
}

func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.done
}

func (p *Pager[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

func (p *Pager[T]) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// Update applies a delta such as RemoveByID to the accumulated items.
func (p *Pager[T]) Update(fn func([]T) []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = fn(p.items)
}

// Reset forgets everything so the next LoadMore starts from the first page.
// A fetch still running is left to finish and its page is discarded.
func (p *Pager[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.inFlight = false
	p.items = nil
	p.token = ""
	p.total = 0
	p.done = false
}
