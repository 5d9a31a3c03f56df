package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
)

// column maps a table header to the JSON field it is read from.
type column struct {
	header string
	field  string
}

type listing struct {
	key     string
	columns []column
	// plain and md pick the fields shown in the compact formats.
	plain []string
	title string
}

var listings = []listing{
	{
		key: "spaces",
		columns: []column{
			{"ID", "spaceId"}, {"TITLE", "title"}, {"OWNER", "ownerName"},
			{"SUBSCRIBERS", "subscribers"}, {"PRIVATE", "isPrivate"}, {"NEWSLETTER", "isNewsletter"},
		},
		plain: []string{"spaceId", "title"},
		title: "title",
	},
	{
		key: "threads",
		columns: []column{
			{"ID", "threadId"}, {"TITLE", "title"}, {"STATUS", "status"},
			{"SPACE", "spaceTitle"}, {"UPDATED", "updatedOn"},
		},
		plain: []string{"threadId", "status", "title"},
		title: "title",
	},
	{
		key: "comments",
		columns: []column{
			{"ID", "commentId"}, {"USER", "userName"}, {"REPLIES", "replies"},
			{"CREATED", "createdOn"}, {"COMMENT", "comment"},
		},
		plain: []string{"commentId", "userName", "comment"},
		title: "comment",
	},
	{
		key: "replies",
		columns: []column{
			{"ID", "commentId"}, {"USER", "userName"}, {"CREATED", "createdOn"}, {"REPLY", "reply"},
		},
		plain: []string{"commentId", "userName", "reply"},
		title: "reply",
	},
	{
		key: "invites",
		columns: []column{
			{"ID", "inviteId"}, {"EMAIL", "userEmail"}, {"ACCEPTED", "isAccepted"}, {"CREATED", "createdOn"},
		},
		plain: []string{"inviteId", "userEmail"},
		title: "userEmail",
	},
	{
		key: "editors",
		columns: []column{
			{"INVITE", "inviteId"}, {"USER", "userId"}, {"NAME", "name"}, {"EMAIL", "email"}, {"SINCE", "createdOn"},
		},
		plain: []string{"inviteId", "name", "email"},
		title: "name",
	},
	{
		key: "subscribers",
		columns: []column{
			{"USER", "userId"}, {"NAME", "name"}, {"NEWSLETTER", "isNewsletter"}, {"SINCE", "subscribedOn"},
		},
		plain: []string{"userId", "name"},
		title: "name",
	},
	{
		key: "tags",
		columns: []column{
			{"ID", "id"}, {"NAME", "name"},
		},
		plain: []string{"id", "name"},
		title: "name",
	},
}

func DefaultFormat() string {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return "table"
	}
	return "json"
}

// Payload converts a typed value into the generic map the printers work
// on, nesting it under key when key is not empty.
func Payload(key string, v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(b, &decoded); err != nil {
		return nil, err
	}
	if key != "" {
		return map[string]any{key: decoded}, nil
	}
	if m, ok := decoded.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{"value": decoded}, nil
}

func Print(payload map[string]any, format string, quiet bool) error {
	return Fprint(os.Stdout, payload, format, quiet)
}

func Fprint(w io.Writer, payload map[string]any, format string, quiet bool) error {
	if quiet {
		format = "quiet"
	}
	format = strings.TrimSpace(strings.ToLower(format))
	if format == "" {
		format = DefaultFormat()
	}

	switch format {
	case "json":
		return printJSON(w, payload)
	case "table":
		return printTable(w, payload)
	case "plain":
		return printPlain(w, payload)
	case "md":
		return printMarkdown(w, payload)
	case "quiet":
		return printQuiet(w, payload)
	default:
		return errors.New("invalid --format value")
	}
}

func find(payload map[string]any) (listing, []map[string]any, bool) {
	for _, l := range listings {
		if hasKey(payload, l.key) {
			return l, toObjectSlice(payload[l.key]), true
		}
	}
	return listing{}, nil, false
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printTable(w io.Writer, payload map[string]any) error {
	l, rows, ok := find(payload)
	if !ok {
		return printJSON(w, payload)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	headers := make([]string, len(l.columns))
	for i, c := range l.columns {
		headers[i] = c.header
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		cells := make([]string, len(l.columns))
		for i, c := range l.columns {
			cells[i] = oneLine(str(row[c.field]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if next := str(payload["nextPagetoken"]); next != "" {
		fmt.Fprintf(tw, "\nnext page: --page %s\n", next)
	}
	return tw.Flush()
}

func printPlain(w io.Writer, payload map[string]any) error {
	l, rows, ok := find(payload)
	if !ok {
		if hasKey(payload, "name") && hasKey(payload, "role") {
			_, err := fmt.Fprintf(w, "%s %s\n", str(payload["name"]), str(payload["role"]))
			return err
		}
		return printJSON(w, payload)
	}
	for _, row := range rows {
		parts := make([]string, len(l.plain))
		for i, f := range l.plain {
			parts[i] = oneLine(str(row[f]))
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}
	return nil
}

func printMarkdown(w io.Writer, payload map[string]any) error {
	l, rows, ok := find(payload)
	if !ok {
		if hasKey(payload, "name") && hasKey(payload, "role") {
			_, err := fmt.Fprintf(w, "- `%s` (%s)\n", str(payload["name"]), str(payload["role"]))
			return err
		}
		return printJSON(w, payload)
	}
	for _, row := range rows {
		id := str(row[l.columns[0].field])
		fmt.Fprintf(w, "- `%s` **%s**\n", id, oneLine(str(row[l.title])))
	}
	return nil
}

func printQuiet(w io.Writer, payload map[string]any) error {
	l, rows, ok := find(payload)
	if !ok {
		for _, k := range []string{"threadId", "spaceId", "commentId", "replyId", "id"} {
			if v, ok := payload[k]; ok {
				_, err := fmt.Fprintln(w, str(v))
				return err
			}
		}
		if hasKey(payload, "name") {
			_, err := fmt.Fprintln(w, str(payload["name"]))
			return err
		}
		return printJSON(w, payload)
	}
	for _, row := range rows {
		fmt.Fprintln(w, str(row[l.columns[0].field]))
	}
	return nil
}

func hasKey(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func toObjectSlice(v any) []map[string]any {
	in, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(in))
	for _, item := range in {
		if row, ok := item.(map[string]any); ok {
			out = append(out, row)
		}
	}
	return out
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\t", " ")
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
