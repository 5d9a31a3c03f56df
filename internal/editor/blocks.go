// Package editor converts between markdown and the block documents threads
// store in their content field.
package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const Version = "2.30.7"

type Document struct {
	Time    int64   `json:"time"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version"`
}

type Block struct {
	ID   string    `json:"id,omitempty"`
	Type string    `json:"type"`
	Data BlockData `json:"data"`
}

type File struct {
	URL string `json:"url"`
}

// BlockData carries the fields of every supported block type; each type uses
// its own subset.
type BlockData struct {
	Text         string     `json:"text,omitempty"`
	Level        int        `json:"level,omitempty"`
	Style        string     `json:"style,omitempty"`
	Items        []ListItem `json:"items,omitempty"`
	Caption      string     `json:"caption,omitempty"`
	Code         string     `json:"code,omitempty"`
	Language     string     `json:"language,omitempty"`
	File         *File      `json:"file,omitempty"`
	Embed        string     `json:"embed,omitempty"`
	WithHeadings bool       `json:"withHeadings,omitempty"`
	Content      [][]string `json:"content,omitempty"`
}

// ListItem is a plain string in list blocks and a {text, checked} object in
// checklist blocks.
type ListItem struct {
	Text      string
	Checked   bool
	Checkable bool
}

func (li ListItem) MarshalJSON() ([]byte, error) {
	if !li.Checkable {
		return json.Marshal(li.Text)
	}
	return json.Marshal(struct {
		Text    string `json:"text"`
		Checked bool   `json:"checked"`
	}{li.Text, li.Checked})
}

func (li *ListItem) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		li.Checkable = false
		li.Checked = false
		return json.Unmarshal(b, &li.Text)
	}
	var obj struct {
		Text    string `json:"text"`
		Content string `json:"content"`
		Checked bool   `json:"checked"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	li.Text = obj.Text
	if li.Text == "" {
		li.Text = obj.Content
	}
	li.Checked = obj.Checked
	li.Checkable = true
	return nil
}

// NewDocument stamps blocks with ids and a timestamp.
func NewDocument(blocks []Block, now time.Time) Document {
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		if b.ID == "" {
			b.ID = uuid.NewString()[:10]
		}
		out[i] = b
	}
	return Document{Time: now.UnixMilli(), Blocks: out, Version: Version}
}

// Encode serializes d into the string stored as thread content.
func Encode(d Document) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Decode parses stored thread content. Empty content is an empty document.
func Decode(content string) (Document, error) {
	var d Document
	if len(bytes.TrimSpace([]byte(content))) == 0 {
		return d, nil
	}
	if err := json.Unmarshal([]byte(content), &d); err != nil {
		return d, fmt.Errorf("decode thread content: %w", err)
	}
	return d, nil
}

// FromMarkdown builds the stored content string for markdown input.
func FromMarkdown(md string, now time.Time) (string, error) {
	return Encode(NewDocument(ParseMarkdown(md), now))
}
