package state

import (
	"slices"

	"inkyspace/internal/models"
)

// The functions below mirror a server-confirmed mutation onto a list the
// client already holds, without refetching it.

// RemoveByID drops every element whose id matches.
func RemoveByID[T any](list []T, id string, idOf func(T) string) []T {
	out := make([]T, 0, len(list))
	for _, v := range list {
		if idOf(v) != id {
			out = append(out, v)
		}
	}
	return out
}

// ReplaceByID swaps in updated where the ids match. The list is unchanged
// when no element matches.
func ReplaceByID[T any](list []T, updated T, idOf func(T) string) []T {
	out := slices.Clone(list)
	id := idOf(updated)
	for i := range out {
		if idOf(out[i]) == id {
			out[i] = updated
		}
	}
	return out
}

func ThreadID(t models.ThreadPreview) string { return t.ThreadID }
func CommentID(c models.Comment) string { return c.CommentID }
func ReplyID(r models.Reply) string { return r.CommentID }
func InviteID(i models.Invite) string { return i.InviteID }
func EditorInviteID(e models.Editor) string { return e.InviteID }
func SubscribedSpaceID(s models.SubscribedSpace) string { return s.SpaceID }

// ApplySubscription records a subscribe or unsubscribe on a Space. The
// subscriber count moves only when the flag actually changes, and leaving a
// Space turns its newsletter off.
func ApplySubscription(sp models.Space, subscribed bool) models.Space {
	if sp.IsSubscribed == subscribed {
		return sp
	}
	sp.IsSubscribed = subscribed
	if subscribed {
		sp.Subscribers++
	} else {
		sp.IsNewsletter = false
		if sp.Subscribers > 0 {
			sp.Subscribers--
		}
	}
	return sp
}

// ToggleNewsletter flips the newsletter flag of a subscribed Space.
func ToggleNewsletter(sp models.Space) models.Space {
	if !sp.IsSubscribed {
		return sp
	}
	sp.IsNewsletter = !sp.IsNewsletter
	return sp
}

// AddReply appends r under its parent comment and bumps its reply count.
func AddReply(list []models.Comment, r models.Reply) []models.Comment {
	out := slices.Clone(list)
	for i := range out {
		if out[i].CommentID == r.ParentID {
			out[i].Replies++
			out[i].ReplyList = append(slices.Clone(out[i].ReplyList), r)
		}
	}
	return out
}

// RemoveReply drops reply id from its parent and lowers the reply count.
func RemoveReply(list []models.Comment, parentID, replyID string) []models.Comment {
	out := slices.Clone(list)
	for i := range out {
		if out[i].CommentID != parentID {
			continue
		}
		before := len(out[i].ReplyList)
		out[i].ReplyList = RemoveByID(out[i].ReplyList, replyID, ReplyID)
		if removed := before - len(out[i].ReplyList); removed > 0 && out[i].Replies >= removed {
			out[i].Replies -= removed
		}
	}
	return out
}
