package editor

import (
	"regexp"
	"strings"
)

var (
	headerRe    = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	unorderedRe = regexp.MustCompile(`^[-*]\s+.+(\n[-*]\s+.+)*$`)
	orderedRe   = regexp.MustCompile(`^\d+\.\s+.+(\n\d+\.\s+.+)*$`)
	bulletRe    = regexp.MustCompile(`^[-*]\s+`)
	numberRe    = regexp.MustCompile(`^\d+\.\s+`)
	quoteRe     = regexp.MustCompile(`^>\s?`)
	fenceRe     = regexp.MustCompile("^```([a-z]*)\n([\\s\\S]*)\n```$")

	inline = []struct {
		re   *regexp.Regexp
		repl string
	}{
		{regexp.MustCompile(`\*\*(.*?)\*\*`), "<b>$1</b>"},
		{regexp.MustCompile(`__(.*?)__`), "<b>$1</b>"},
		{regexp.MustCompile(`\*(.*?)\*`), "<i>$1</i>"},
		{regexp.MustCompile(`_(.*?)_`), "<i>$1</i>"},
		{regexp.MustCompile("`(.*?)`"), "<code>$1</code>"},
		{regexp.MustCompile(`\[(.*?)\]\((.*?)\)`), `<a href="$2">$1</a>`},
	}
)

// chunks splits markdown on blank lines, keeping fenced code intact.
func chunks(md string) []string {
	var out []string
	var cur []string
	inFence := false
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(md, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if !inFence {
				flush()
			}
			cur = append(cur, line)
			if inFence {
				flush()
			}
			inFence = !inFence
			continue
		}
		if !inFence && strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, line)
	}
	flush()
	return out
}

func listItems(chunk string, marker *regexp.Regexp) []ListItem {
	var items []ListItem
	for _, line := range strings.Split(chunk, "\n") {
		text := strings.TrimSpace(marker.ReplaceAllString(line, ""))
		if text != "" {
			items = append(items, ListItem{Text: text})
		}
	}
	return items
}

// InlineHTML converts inline markdown emphasis, code and links to the HTML
// subset paragraph blocks hold.
func InlineHTML(text string) string {
	for _, r := range inline {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}

// ParseMarkdown converts markdown into blocks: headers, bullet and numbered
// lists, quotes, fenced code and paragraphs.
func ParseMarkdown(md string) []Block {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	var blocks []Block
	for _, raw := range chunks(md) {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		if m := headerRe.FindStringSubmatch(p); m != nil {
			blocks = append(blocks, Block{Type: "header", Data: BlockData{Text: strings.TrimSpace(m[2]), Level: len(m[1])}})
			continue
		}
		if unorderedRe.MatchString(p) {
			blocks = append(blocks, Block{Type: "list", Data: BlockData{Style: "unordered", Items: listItems(p, bulletRe)}})
			continue
		}
		if orderedRe.MatchString(p) {
			blocks = append(blocks, Block{Type: "list", Data: BlockData{Style: "ordered", Items: listItems(p, numberRe)}})
			continue
		}
		if strings.HasPrefix(p, ">") {
			lines := strings.Split(p, "\n")
			for i, l := range lines {
				lines[i] = strings.TrimSpace(quoteRe.ReplaceAllString(l, ""))
			}
			blocks = append(blocks, Block{Type: "quote", Data: BlockData{Text: strings.Join(lines, " ")}})
			continue
		}
		if m := fenceRe.FindStringSubmatch(p); m != nil {
			lang := m[1]
			if lang == "" {
				lang = "plaintext"
			}
			blocks = append(blocks, Block{Type: "code", Data: BlockData{Code: strings.TrimSpace(m[2]), Language: lang}})
			continue
		}
		blocks = append(blocks, Block{Type: "paragraph", Data: BlockData{Text: InlineHTML(p)}})
	}
	return blocks
}
