package emit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffIdenticalContent(t *testing.T) {
	content := []byte("line1\nline2\n")
	assert.Empty(t, Diff("pojo.mustache", content, content))
}

func TestDiffBinaryContent(t *testing.T) {
	out := Diff("data.bin", []byte{0x00, 0x01}, []byte("text"))
	assert.Equal(t, "Binary files differ\n", out)
}

func TestDiffChangedLine(t *testing.T) {
	old := []byte("public class Pet {\n  private String name;\n}\n")
	newer := []byte("public class Pet {\n  private String petName;\n}\n")

	out := Diff("pojo.mustache", old, newer)
	assert.Contains(t, out, "--- pojo.mustache")
	assert.Contains(t, out, "+++ pojo.mustache (customized)")
	assert.Contains(t, out, "-  private String name;")
	assert.Contains(t, out, "+  private String petName;")
}

func TestDiffAdditionOnly(t *testing.T) {
	old := []byte("a\nb\n")
	newer := []byte("a\nb\nc\n")

	out := Diff("model.mustache", old, newer)
	assert.Contains(t, out, "+c")
	assert.NotContains(t, out, "-a")
	assert.NotContains(t, out, "-b")
}

func TestDiffHunkGrouping(t *testing.T) {
	var oldLines, newLines []string
	for i := 0; i < 30; i++ {
		oldLines = append(oldLines, "context")
		newLines = append(newLines, "context")
	}
	oldLines[5] = "old-first"
	newLines[5] = "new-first"
	oldLines[25] = "old-second"
	newLines[25] = "new-second"

	out := Diff("big.mustache",
		[]byte(strings.Join(oldLines, "\n")+"\n"),
		[]byte(strings.Join(newLines, "\n")+"\n"))

	// Distant changes produce separate hunks.
	assert.Equal(t, 2, strings.Count(out, "@@ -"))
	assert.Contains(t, out, "-old-first")
	assert.Contains(t, out, "+new-second")
	// Far-away unchanged lines stay out of the hunks.
	assert.Less(t, strings.Count(out, "context"), 20)
}

func TestEditScriptLineNumbers(t *testing.T) {
	edits := editScript([]string{"a", "b", "c"}, []string{"a", "x", "c"})
	require.Len(t, edits, 4)

	assert.Equal(t, opSame, edits[0].op)
	assert.Equal(t, 1, edits[0].oldLine)
	assert.Equal(t, opRemoved, edits[1].op)
	assert.Equal(t, "b", edits[1].text)
	assert.Equal(t, opAdded, edits[2].op)
	assert.Equal(t, "x", edits[2].text)
	assert.Equal(t, 2, edits[2].newLine)
	assert.Equal(t, opSame, edits[3].op)
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a"}, splitLines("a\n"))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb"))
}
