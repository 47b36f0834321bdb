// Package notetext turns note bodies saved by the Lexical rich-text editor into
// markdown, so an indexed note hashes and embeds the same text a user reads.
package notetext

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text format bitmask used by Lexical text nodes.
const (
	formatBold          = 1
	formatItalic        = 2
	formatStrikethrough = 4
	formatCode          = 16
)

type editorState struct {
	Root *node `json:"root"`
}

type node struct {
	Type     string `json:"type"`
	Children []node `json:"children,omitempty"`

	Text string `json:"text,omitempty"`
	// int bitmask on text nodes, alignment string on blocks
	Format interface{} `json:"format,omitempty"`

	Tag      string `json:"tag,omitempty"`
	URL      string `json:"url,omitempty"`
	ListType string `json:"listType,omitempty"`
	Start    int    `json:"start,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
	Language string `json:"language,omitempty"`
}

// IsEditorState reports whether content looks like serialized editor JSON.
func IsEditorState(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), `{"root":`)
}

// Markdown renders editor JSON. Content that is not editor JSON, or fails to
// decode, is returned unchanged.
func Markdown(content string) string {
	if !IsEditorState(content) {
		return content
	}
	md, err := Render(content)
	if err != nil {
		return content
	}
	return md
}

func Render(content string) (string, error) {
	var state editorState
	if err := json.Unmarshal([]byte(content), &state); err != nil {
		return "", fmt.Errorf("decode editor state: %w", err)
	}
	if state.Root == nil {
		return "", fmt.Errorf("decode editor state: missing root")
	}

	var blocks []string
	for _, child := range state.Root.Children {
		var sb strings.Builder
		block(child, &sb, 0)
		if out := strings.TrimRight(sb.String(), "\n"); out != "" {
			blocks = append(blocks, out)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func block(n node, sb *strings.Builder, depth int) {
	switch n.Type {
	case "heading":
		level := 1
		if len(n.Tag) == 2 && n.Tag[0] == 'h' {
			if l, err := strconv.Atoi(n.Tag[1:]); err == nil {
				level = l
			}
		}
		sb.WriteString(strings.Repeat("#", level) + " ")
		inlines(n.Children, sb)
	case "quote":
		var inner strings.Builder
		inlines(n.Children, &inner)
		for i, line := range strings.Split(inner.String(), "\n") {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("> " + line)
		}
	case "code":
		sb.WriteString("```" + n.Language + "\n")
		inlines(n.Children, sb)
		sb.WriteString("\n```")
	case "list":
		list(n, sb, depth)
	case "table":
		table(n, sb)
	case "horizontalrule":
		sb.WriteString("---")
	default:
		inlines(n.Children, sb)
	}
}

func inlines(nodes []node, sb *strings.Builder) {
	for _, n := range nodes {
		switch n.Type {
		case "text", "code-highlight":
			text(n, sb)
		case "linebreak":
			sb.WriteString("\n")
		case "tab":
			sb.WriteString("\t")
		case "link", "autolink":
			sb.WriteString("[")
			inlines(n.Children, sb)
			sb.WriteString("](" + n.URL + ")")
		default:
			inlines(n.Children, sb)
		}
	}
}

func text(n node, sb *strings.Builder) {
	var mask int
	switch f := n.Format.(type) {
	case float64:
		mask = int(f)
	case int:
		mask = f
	}

	// Code wins: markdown does not nest emphasis inside backticks
	if mask&formatCode != 0 {
		sb.WriteString("`" + n.Text + "`")
		return
	}

	var opening, closing string
	if mask&formatBold != 0 {
		opening, closing = opening+"**", "**"+closing
	}
	if mask&formatItalic != 0 {
		opening, closing = opening+"_", "_"+closing
	}
	if mask&formatStrikethrough != 0 {
		opening, closing = opening+"~~", "~~"+closing
	}
	sb.WriteString(opening + n.Text + closing)
}

func list(n node, sb *strings.Builder, depth int) {
	index := 1
	if n.Start > 0 {
		index = n.Start
	}

	first := true
	for _, item := range n.Children {
		if item.Type != "listitem" {
			continue
		}
		if !first {
			sb.WriteString("\n")
		}
		first = false

		sb.WriteString(strings.Repeat("  ", depth))
		switch n.ListType {
		case "number":
			sb.WriteString(strconv.Itoa(index) + ". ")
			index++
		case "check":
			if item.Checked {
				sb.WriteString("- [x] ")
			} else {
				sb.WriteString("- [ ] ")
			}
		default:
			sb.WriteString("- ")
		}

		for _, child := range item.Children {
			if child.Type == "list" {
				sb.WriteString("\n")
				list(child, sb, depth+1)
				continue
			}
			inlines([]node{child}, sb)
		}
	}
}

func table(n node, sb *strings.Builder) {
	var rows [][]string
	cols := 0
	for _, row := range n.Children {
		if row.Type != "tablerow" {
			continue
		}
		var cells []string
		for _, cell := range row.Children {
			var c strings.Builder
			for _, content := range cell.Children {
				block(content, &c, 0)
			}
			// Newlines break markdown table rows
			cells = append(cells, strings.ReplaceAll(c.String(), "\n", " "))
		}
		rows = append(rows, cells)
		if len(cells) > cols {
			cols = len(cells)
		}
	}
	if len(rows) == 0 {
		return
	}

	writeRow := func(cells []string) {
		sb.WriteString("|")
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			sb.WriteString(" " + cell + " |")
		}
	}

	// The first row is the header
	writeRow(rows[0])
	sb.WriteString("\n|" + strings.Repeat("---|", cols))
	for _, r := range rows[1:] {
		sb.WriteString("\n")
		writeRow(r)
	}
}
