package emit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	diffHeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	diffHunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	diffAddedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("green"))
	diffRemovedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("red"))
)

const (
	diffContextLines = 3
	diffMaxLines     = 10000
)

// Diff renders a unified-style, color-styled line diff between old and new
// content. Identical inputs produce an empty string.
func Diff(path string, old, newer []byte) string {
	if bytes.Equal(old, newer) {
		return ""
	}
	if isBinary(old) || isBinary(newer) {
		return "Binary files differ\n"
	}

	oldLines := splitLines(string(old))
	newLines := splitLines(string(newer))
	if len(oldLines) > diffMaxLines || len(newLines) > diffMaxLines {
		return fmt.Sprintf("Files too large for diff (%d and %d lines)\n", len(oldLines), len(newLines))
	}

	edits := editScript(oldLines, newLines)

	var buf strings.Builder
	buf.WriteString(diffHeaderStyle.Render("--- "+path) + "\n")
	buf.WriteString(diffHeaderStyle.Render("+++ "+path+" (customized)") + "\n")

	for _, h := range buildHunks(edits, diffContextLines) {
		buf.WriteString(diffHunkStyle.Render(fmt.Sprintf("@@ -%d,%d +%d,%d @@",
			h.oldStart, h.oldCount, h.newStart, h.newCount)) + "\n")
		for _, e := range h.lines {
			switch e.op {
			case opAdded:
				buf.WriteString(diffAddedStyle.Render("+"+e.text) + "\n")
			case opRemoved:
				buf.WriteString(diffRemovedStyle.Render("-"+e.text) + "\n")
			default:
				buf.WriteString(" " + e.text + "\n")
			}
		}
	}
	return buf.String()
}

type op int

const (
	opSame op = iota
	opAdded
	opRemoved
)

type edit struct {
	op      op
	text    string
	oldLine int // 1-based, 0 when added
	newLine int // 1-based, 0 when removed
}

// editScript computes a line-level edit script via the LCS table.
func editScript(oldLines, newLines []string) []edit {
	n, m := len(oldLines), len(newLines)

	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	var edits []edit
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case oldLines[i] == newLines[j]:
			edits = append(edits, edit{opSame, oldLines[i], i + 1, j + 1})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			edits = append(edits, edit{opRemoved, oldLines[i], i + 1, 0})
			i++
		default:
			edits = append(edits, edit{opAdded, newLines[j], 0, j + 1})
			j++
		}
	}
	for ; i < n; i++ {
		edits = append(edits, edit{opRemoved, oldLines[i], i + 1, 0})
	}
	for ; j < m; j++ {
		edits = append(edits, edit{opAdded, newLines[j], 0, j + 1})
	}
	return edits
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	lines              []edit
}

// buildHunks groups changed lines with surrounding context.
func buildHunks(edits []edit, context int) []hunk {
	var hunks []hunk
	var current *hunk
	sinceChange := 0

	flush := func() {
		if current == nil {
			return
		}
		// Trim trailing context beyond the window.
		excess := sinceChange - context
		if excess > 0 {
			current.lines = current.lines[:len(current.lines)-excess]
		}
		finalize(current)
		hunks = append(hunks, *current)
		current = nil
	}

	for idx, e := range edits {
		if e.op == opSame {
			if current != nil {
				current.lines = append(current.lines, e)
				sinceChange++
				if sinceChange > context*2 {
					flush()
				}
			}
			continue
		}

		if current == nil {
			current = &hunk{}
			// Leading context.
			start := idx - context
			if start < 0 {
				start = 0
			}
			current.lines = append(current.lines, edits[start:idx]...)
		}
		current.lines = append(current.lines, e)
		sinceChange = 0
	}
	flush()
	return hunks
}

func finalize(h *hunk) {
	for _, e := range h.lines {
		if e.oldLine > 0 {
			if h.oldStart == 0 {
				h.oldStart = e.oldLine
			}
			h.oldCount++
		}
		if e.newLine > 0 {
			if h.newStart == 0 {
				h.newStart = e.newLine
			}
			h.newCount++
		}
	}
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func isBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0
}
