package editor

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	toMarkdown = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`(?i)<br\s*/?>`), "\n"},
		{regexp.MustCompile(`(?is)<(?:b|strong)>(.*?)</(?:b|strong)>`), "**$1**"},
		{regexp.MustCompile(`(?is)<(?:i|em)>(.*?)</(?:i|em)>`), "_${1}_"},
		{regexp.MustCompile(`(?is)<code[^>]*>(.*?)</code>`), "`$1`"},
		{regexp.MustCompile(`(?is)<a\s+[^>]*href="([^"]*)"[^>]*>(.*?)</a>`), "[$2]($1)"},
	}
	anyTag = regexp.MustCompile(`<[^>]+>`)
)

// PlainInline turns the inline HTML of a block back into markdown.
func PlainInline(s string) string {
	for _, r := range toMarkdown {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	s = anyTag.ReplaceAllString(s, "")
	return strings.ReplaceAll(html.UnescapeString(s), "\u00a0", " ")
}

func renderBlock(b Block) string {
	d := b.Data
	switch b.Type {
	case "header":
		level := d.Level
		if level < 1 || level > 6 {
			level = 2
		}
		return strings.Repeat("#", level) + " " + PlainInline(d.Text)
	case "paragraph":
		return PlainInline(d.Text)
	case "list", "checklist":
		lines := make([]string, 0, len(d.Items))
		for i, it := range d.Items {
			var marker string
			switch {
			case b.Type == "checklist" || it.Checkable:
				marker = "[ ] "
				if it.Checked {
					marker = "[x] "
				}
			case d.Style == "ordered":
				marker = strconv.Itoa(i+1) + ". "
			default:
				marker = "- "
			}
			lines = append(lines, marker+PlainInline(it.Text))
		}
		return strings.Join(lines, "\n")
	case "quote":
		out := "> " + PlainInline(d.Text)
		if d.Caption != "" {
			out += "\n> -- " + PlainInline(d.Caption)
		}
		return out
	case "code":
		lang := d.Language
		if lang == "plaintext" {
			lang = ""
		}
		return "```" + lang + "\n" + d.Code + "\n```"
	case "delimiter":
		return "***"
	case "image":
		url := ""
		if d.File != nil {
			url = d.File.URL
		}
		return fmt.Sprintf("![%s](%s)", PlainInline(d.Caption), url)
	case "embed":
		if d.Caption != "" {
			return d.Embed + "\n" + PlainInline(d.Caption)
		}
		return d.Embed
	case "table":
		rows := make([]string, 0, len(d.Content)+1)
		for i, row := range d.Content {
			cells := make([]string, len(row))
			for j, c := range row {
				cells[j] = PlainInline(c)
			}
			rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
			if i == 0 && d.WithHeadings {
				rows = append(rows, "|"+strings.Repeat(" --- |", len(row)))
			}
		}
		return strings.Join(rows, "\n")
	default:
		return "[unsupported block: " + b.Type + "]"
	}
}

// Markdown renders a document for terminals and plain-text output.
func Markdown(d Document) string {
	parts := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		parts = append(parts, renderBlock(b))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}
