package access

import (
	"context"
	"fmt"

	"inkyspace/internal/models"
)

// SpaceSource is the slice of the space API the gate needs.
type SpaceSource interface {
	Get(ctx context.Context, spaceID string) (*models.Space, error)
	Threads(ctx context.Context, spaceID string, p models.PageRequest) (models.Page[models.ThreadPreview], error)
	SubscriptionStatus(ctx context.Context, spaceID string) (models.SubscriptionStatus, error)
	Subscribe(ctx context.Context, spaceID string) error
}

type Evaluation struct {
	Decision
	Space *models.Space
}

type Gate struct {
	spaces SpaceSource
}

func NewGate(spaces SpaceSource) *Gate {
	return &Gate{spaces: spaces}
}

// Evaluate loads the Space and decides whether viewer may see it. A Space
// that cannot be loaded sends the viewer to explore.
func (g *Gate) Evaluate(ctx context.Context, viewer models.Viewer, spaceID string) (Evaluation, error) {
	sp, err := g.spaces.Get(ctx, spaceID)
	if err != nil {
		return Evaluation{Decision: Decision{Outcome: RedirectExplore, Location: ExplorePath}}, fmt.Errorf("load space %s: %w", spaceID, err)
	}
	if !viewer.Anonymous() {
		st, err := g.spaces.SubscriptionStatus(ctx, spaceID)
		if err != nil {
			return Evaluation{Decision: Decision{Outcome: RedirectExplore, Location: ExplorePath}, Space: sp}, fmt.Errorf("subscription status of %s: %w", spaceID, err)
		}
		sp.IsSubscribed = st.IsSubscribed
		sp.IsNewsletter = st.IsNewsletter
	}
	hasPublished := sp.PublishedThreads > 0
	if !hasPublished {
		page, err := g.spaces.Threads(ctx, spaceID, models.PageRequest{PageSize: 1})
		if err != nil {
			return Evaluation{Decision: Decision{Outcome: RedirectExplore, Location: ExplorePath}, Space: sp}, fmt.Errorf("check threads of %s: %w", spaceID, err)
		}
		hasPublished = len(page.List) > 0
	}
	return Evaluation{Decision: DecideSpace(viewer, FactsOf(*sp, hasPublished)), Space: sp}, nil
}

// Subscribe subscribes viewer and evaluates the Space again so a private
// Space opens as soon as the subscription exists.
func (g *Gate) Subscribe(ctx context.Context, viewer models.Viewer, spaceID string) (Evaluation, error) {
	if viewer.Anonymous() {
		return Evaluation{Decision: Decision{Outcome: RedirectLogin, Location: LoginPath}}, nil
	}
	if err := g.spaces.Subscribe(ctx, spaceID); err != nil {
		return Evaluation{}, fmt.Errorf("subscribe to %s: %w", spaceID, err)
	}
	return g.Evaluate(ctx, viewer, spaceID)
}
