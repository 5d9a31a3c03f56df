package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkyspace/internal/models"
)

func TestRemoveAndReplaceByID(t *testing.T) {
	list := []models.ThreadPreview{{ThreadID: "1", Title: "a"}, {ThreadID: "2", Title: "b"}}

	assert.Equal(t, []models.ThreadPreview{{ThreadID: "2", Title: "b"}}, RemoveByID(list, "1", ThreadID))
	assert.Equal(t, list, RemoveByID(list, "9", ThreadID))

	replaced := ReplaceByID(list, models.ThreadPreview{ThreadID: "2", Title: "B"}, ThreadID)
	assert.Equal(t, "B", replaced[1].Title)
	assert.Equal(t, "b", list[1].Title)
}

func TestApplySubscription(t *testing.T) {
	sp := models.Space{SpaceID: "s", Subscribers: 3}
	sp = ApplySubscription(sp, true)
	assert.True(t, sp.IsSubscribed)
	assert.Equal(t, 4, sp.Subscribers)
	assert.Equal(t, sp, ApplySubscription(sp, true))

	sp.IsNewsletter = true
	sp = ApplySubscription(sp, false)
	assert.False(t, sp.IsSubscribed)
	assert.False(t, sp.IsNewsletter)
	assert.Equal(t, 3, sp.Subscribers)
}

func TestToggleNewsletterTwiceRestores(t *testing.T) {
	sp := models.Space{SpaceID: "s", IsSubscribed: true}
	assert.Equal(t, sp, ToggleNewsletter(ToggleNewsletter(sp)))
	unsub := models.Space{SpaceID: "s"}
	assert.Equal(t, unsub, ToggleNewsletter(unsub))
}

func TestRepliesDeltas(t *testing.T) {
	list := []models.Comment{{CommentID: "c1"}, {CommentID: "c2"}}
	list = AddReply(list, models.Reply{CommentID: "r1", ParentID: "c1", Reply: "hi"})
	assert.Equal(t, 1, list[0].Replies)
	require.Len(t, list[0].ReplyList, 1)
	assert.Zero(t, list[1].Replies)

	list = RemoveReply(list, "c1", "r1")
	assert.Zero(t, list[0].Replies)
	assert.Empty(t, list[0].ReplyList)
}

type recordingAPI struct {
	calls []string
	fail  error
}

func (r *recordingAPI) Subscribe(_ context.Context, id string) error {
	r.calls = append(r.calls, "subscribe:"+id)
	return r.fail
}

func (r *recordingAPI) Unsubscribe(_ context.Context, id string) error {
	r.calls = append(r.calls, "unsubscribe:"+id)
	return r.fail
}

func (r *recordingAPI) ToggleNewsletter(_ context.Context, id string) error {
	r.calls = append(r.calls, "newsletter:"+id)
	return r.fail
}

func TestUnsubscribeWhileUnsubscribedSendsNothing(t *testing.T) {
	api := &recordingAPI{}
	sp := models.Space{SpaceID: "s"}
	got, err := SetSubscription(context.Background(), api, sp, false)
	require.NoError(t, err)
	assert.Equal(t, sp, got)
	assert.Empty(t, api.calls)
}

func TestSubscriptionRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := &recordingAPI{}
	sp := models.Space{SpaceID: "s", Subscribers: 1}

	sp, err := SetSubscription(ctx, api, sp, true)
	require.NoError(t, err)
	before := sp
	sp, err = SwitchNewsletter(ctx, api, sp)
	require.NoError(t, err)
	assert.True(t, sp.IsNewsletter)
	sp, err = SwitchNewsletter(ctx, api, sp)
	require.NoError(t, err)
	assert.Equal(t, before, sp)

	assert.Equal(t, []string{"subscribe:s", "newsletter:s", "newsletter:s"}, api.calls)
}

func TestSwitchNewsletterRequiresSubscription(t *testing.T) {
	api := &recordingAPI{}
	_, err := SwitchNewsletter(context.Background(), api, models.Space{SpaceID: "s"})
	assert.ErrorIs(t, err, ErrNotSubscribed)
	assert.Empty(t, api.calls)
}

func TestFailedSubscribeKeepsState(t *testing.T) {
	boom := errors.New("boom")
	sp := models.Space{SpaceID: "s"}
	got, err := SetSubscription(context.Background(), &recordingAPI{fail: boom}, sp, true)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, sp, got)
}
