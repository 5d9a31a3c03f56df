package state

import (
	"context"
	"errors"

	"inkyspace/internal/models"
)

var ErrNotSubscribed = errors.New("subscribe first to enable the newsletter")

type SubscriptionAPI interface {
	Subscribe(ctx context.Context, spaceID string) error
	Unsubscribe(ctx context.Context, spaceID string) error
	ToggleNewsletter(ctx context.Context, spaceID string) error
}

// SetSubscription moves sp to the wanted subscription state. Nothing is sent
// when sp is already there.
func SetSubscription(ctx context.Context, api SubscriptionAPI, sp models.Space, want bool) (models.Space, error) {
	if sp.IsSubscribed == want {
		return sp, nil
	}
	var err error
	if want {
		err = api.Subscribe(ctx, sp.SpaceID)
	} else {
		err = api.Unsubscribe(ctx, sp.SpaceID)
	}
	if err != nil {
		return sp, err
	}
	return ApplySubscription(sp, want), nil
}

// SwitchNewsletter flips the newsletter flag of a subscribed Space.
func SwitchNewsletter(ctx context.Context, api SubscriptionAPI, sp models.Space) (models.Space, error) {
	if !sp.IsSubscribed {
		return sp, ErrNotSubscribed
	}
	if err := api.ToggleNewsletter(ctx, sp.SpaceID); err != nil {
		return sp, err
	}
	return ToggleNewsletter(sp), nil
}
