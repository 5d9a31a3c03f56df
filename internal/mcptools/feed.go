package mcptools

import (
	"context"
	"sync"

	"inkyspace/internal/api"
	"inkyspace/internal/models"
	"inkyspace/internal/state"
)

const feedPageSize = 5

type feedArgs struct {
	Search string `json:"search,omitempty"`
	More   bool   `json:"more,omitempty"`
}

type feedResult struct {
	Threads []models.ThreadPreview `json:"threads"`
	HasMore bool                   `json:"hasMore"`
	Total   int                    `json:"total,omitempty"`
}

// feed keeps one explore listing alive across tool calls so an agent can
// page through it with more=true. A new search starts it over.
type feed struct {
	mu     sync.Mutex
	search string
	pager  *state.Pager[models.ThreadPreview]
}

func newFeed(c *api.Client) *feed {
	f := &feed{}
	f.pager = state.NewPager(func(ctx context.Context, p models.PageRequest) (models.Page[models.ThreadPreview], error) {
		f.mu.Lock()
		search := f.search
		f.mu.Unlock()
		return c.Threads.Explore(ctx, search, p)
	}, feedPageSize)
	return f
}

func (f *feed) load(ctx context.Context, args feedArgs) (feedResult, error) {
	f.mu.Lock()
	if !args.More || args.Search != f.search {
		f.search = args.Search
		f.pager.Reset()
	}
	f.mu.Unlock()
	if _, err := f.pager.LoadMore(ctx); err != nil {
		return feedResult{}, err
	}
	items := f.pager.Items()
	if items == nil {
		items = []models.ThreadPreview{}
	}
	return feedResult{Threads: items, HasMore: f.pager.HasMore(), Total: f.pager.Total()}, nil
}

// forget drops a deleted thread from the listing without refetching.
func (f *feed) forget(threadID string) {
	f.pager.Update(func(l []models.ThreadPreview) []models.ThreadPreview {
		return state.RemoveByID(l, threadID, state.ThreadID)
	})
}
