// Package mcptools exposes the InkySpace SDK as Model Context Protocol tools
// so an agent can browse threads, draft posts and move them through review.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"inkyspace/internal/api"
	"inkyspace/internal/client"
	"inkyspace/internal/editor"
	"inkyspace/internal/models"
)

type exploreArgs struct {
	Search    string `json:"search,omitempty"`
	PageSize  *int   `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type readThreadArgs struct {
	ThreadID string `json:"thread_id"`
	Comments *int   `json:"comments,omitempty"`
}

type spaceArgs struct {
	SpaceID string `json:"space_id"`
}

type createThreadArgs struct {
	SpaceID  string   `json:"space_id"`
	Title    string   `json:"title"`
	Markdown string   `json:"markdown,omitempty"`
	Generate string   `json:"generate,omitempty"`
	Tone     string   `json:"tone,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type threadActionArgs struct {
	ThreadID string `json:"thread_id"`
	Action   string `json:"action"`
	Reason   string `json:"reason,omitempty"`
}

type commentArgs struct {
	ThreadID string `json:"thread_id"`
	Text     string `json:"text"`
	ParentID string `json:"parent_id,omitempty"`
}

type myThreadsArgs struct {
	Status string `json:"status,omitempty"`
}

// NewServer registers every tool against c. The client should already
// carry a session for tools that need one.
func NewServer(c *api.Client, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "inky-mcp",
		Version: version,
	}, nil)
	f := newFeed(c)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_explore",
		Description: "List published InkySpace threads, newest first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args exploreArgs) (*mcp.CallToolResult, any, error) {
		p := models.PageRequest{Token: strings.TrimSpace(args.PageToken)}
		if args.PageSize != nil {
			p.PageSize = *args.PageSize
		}
		page, err := c.Threads.Explore(ctx, strings.TrimSpace(args.Search), p)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(page)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_feed",
		Description: "Browse published threads a page at a time; more=true appends the next page of the same search",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args feedArgs) (*mcp.CallToolResult, any, error) {
		args.Search = strings.TrimSpace(args.Search)
		res, err := f.load(ctx, args)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(res)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_read_thread",
		Description: "Read a thread as markdown with its first comments",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args readThreadArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.ThreadID)
		if id == "" {
			return nil, nil, errors.New("thread_id is required")
		}
		t, err := readThread(ctx, c, id)
		if err != nil {
			return nil, nil, err
		}
		var comments []models.Comment
		if t.Status == models.StatusPublished {
			p := models.PageRequest{}
			if args.Comments != nil {
				p.PageSize = *args.Comments
			}
			page, err := c.Comments.List(ctx, id, p)
			if err != nil {
				return nil, nil, err
			}
			comments = page.List
		}
		text, err := renderThread(t, comments)
		if err != nil {
			return nil, nil, err
		}
		return textResult(text), nil, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_view_space",
		Description: "Show a space with its subscription state for the session user",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args spaceArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.SpaceID)
		if id == "" {
			return nil, nil, errors.New("space_id is required")
		}
		sp, err := c.Spaces.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if st, err := c.Spaces.SubscriptionStatus(ctx, id); err == nil {
			sp.IsSubscribed, sp.IsNewsletter = st.IsSubscribed, st.IsNewsletter
		}
		return jsonResult(sp)
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_subscribed_spaces",
		Description: "List the spaces the session user subscribes to",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
		list, err := c.Spaces.Subscribed(ctx)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(map[string]any{"spaces": list})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_my_threads",
		Description: "List the session editor's threads, optionally by status (D, A, R, P)",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args myThreadsArgs) (*mcp.CallToolResult, any, error) {
		list, err := c.Threads.Mine(ctx)
		if err != nil {
			return nil, nil, err
		}
		if s := models.ThreadStatus(strings.ToUpper(strings.TrimSpace(args.Status))); s != "" {
			if !s.Valid() {
				return nil, nil, fmt.Errorf("unknown status %q", args.Status)
			}
			kept := list[:0]
			for _, t := range list {
				if t.Status == s {
					kept = append(kept, t)
				}
			}
			list = kept
		}
		return jsonResult(map[string]any{"threads": list})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_pending_approvals",
		Description: "List threads awaiting the session owner's approval",
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
		list, err := c.Threads.Pending(ctx)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(map[string]any{"threads": list})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_create_thread",
		Description: "Create a draft thread in one of the owner's spaces from markdown, or from a generate prompt with an optional tone",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args createThreadArgs) (*mcp.CallToolResult, any, error) {
		title := strings.TrimSpace(args.Title)
		if title == "" || strings.TrimSpace(args.SpaceID) == "" {
			return nil, nil, errors.New("title and space_id are required")
		}
		markdown := args.Markdown
		if strings.TrimSpace(args.Generate) != "" {
			if strings.TrimSpace(markdown) != "" {
				return nil, nil, errors.New("pass either markdown or generate, not both")
			}
			var err error
			if markdown, err = c.Threads.Generate(ctx, args.Generate, strings.TrimSpace(args.Tone)); err != nil {
				return nil, nil, err
			}
		}
		content, err := editor.FromMarkdown(markdown, time.Now())
		if err != nil {
			return nil, nil, err
		}
		form := models.ThreadFormData{Title: title, Content: content, SpaceID: strings.TrimSpace(args.SpaceID)}
		for _, tag := range args.Tags {
			if tag = strings.TrimSpace(tag); tag != "" {
				form.Tags = append(form.Tags, models.Tag{ID: tag})
			}
		}
		id, err := c.Threads.Create(ctx, form)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(models.CreatedThread{ThreadID: id})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_thread_action",
		Description: "Move a thread through review: submit, approve, reject (needs a reason) or delete",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args threadActionArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.ThreadID)
		if id == "" {
			return nil, nil, errors.New("thread_id is required")
		}
		var err error
		switch strings.ToLower(strings.TrimSpace(args.Action)) {
		case "submit":
			err = c.Threads.Submit(ctx, id)
		case "approve", "publish":
			err = c.Threads.Publish(ctx, id)
		case "reject":
			err = c.Threads.RequestCorrection(ctx, id, args.Reason)
		case "delete":
			if err := c.Threads.Delete(ctx, id); err != nil {
				return nil, nil, err
			}
			f.forget(id)
			return jsonResult(map[string]any{"threadId": id, "deleted": true})
		default:
			return nil, nil, fmt.Errorf("unknown action %q", args.Action)
		}
		if err != nil {
			return nil, nil, err
		}
		t, err := c.Threads.Preview(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(map[string]any{
			"threadId":        t.ThreadID,
			"status":          t.Status,
			"statusLabel":     t.Status.Label(),
			"rejectionReason": t.RejectionReason,
		})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "inky_comment",
		Description: "Comment on a published thread, or reply to a comment",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args commentArgs) (*mcp.CallToolResult, any, error) {
		id := strings.TrimSpace(args.ThreadID)
		text := strings.TrimSpace(args.Text)
		if id == "" || text == "" {
			return nil, nil, errors.New("thread_id and text are required")
		}
		if parent := strings.TrimSpace(args.ParentID); parent != "" {
			replyID, err := c.Comments.Reply(ctx, id, parent, text)
			if err != nil {
				return nil, nil, err
			}
			return jsonResult(models.CreatedReply{ReplyID: replyID})
		}
		commentID, err := c.Comments.Create(ctx, id, text)
		if err != nil {
			return nil, nil, err
		}
		return jsonResult(models.CreatedComment{CommentID: commentID})
	})

	return server
}

// readThread returns the published thread, or the preview when the session
// user may see an unpublished one.
func readThread(ctx context.Context, c *api.Client, id string) (*models.Thread, error) {
	t, err := c.Threads.Get(ctx, id)
	if err == nil {
		return t, nil
	}
	if apiErr, ok := client.IsAPIError(err); ok && apiErr.Status == http.StatusNotFound {
		if p, perr := c.Threads.Preview(ctx, id); perr == nil {
			return p, nil
		}
	}
	return nil, err
}

func renderThread(t *models.Thread, comments []models.Comment) (string, error) {
	doc, err := editor.Decode(t.Content)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	fmt.Fprintf(&b, "Space: %s | Editor: %s | Status: %s\n", t.SpaceDetails.Title, t.EditorDetails.Name, t.Status.Label())
	if t.RejectionReason != "" {
		fmt.Fprintf(&b, "Rejection reason: %s\n", t.RejectionReason)
	}
	if body := editor.Markdown(doc); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}
	if len(comments) > 0 {
		b.WriteString("\n## Comments\n\n")
		for _, cm := range comments {
			fmt.Fprintf(&b, "- %s: %s (%d replies)\n", cm.UserName, cm.Comment, cm.Replies)
		}
	}
	return b.String(), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, err
	}
	return textResult(string(b)), nil, nil
}
