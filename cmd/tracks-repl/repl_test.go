package main

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phroun/tracks"
	"github.com/phroun/tracks/internal/config"
)

func runScript(t *testing.T, script string) string {
	t.Helper()
	color.NoColor = true

	lib, err := tracks.Init(tracks.LibraryOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })

	var out bytes.Buffer
	repl := NewREPL(lib, &config.Config{}, bufio.NewReader(strings.NewReader(script)), &out)
	repl.Run()
	return out.String()
}

func TestREPL_WriteInsertRead(t *testing.T) {
	out := runScript(t, `new a
new b
write a 0 1 2 3 4
insert b 0 a 1 2
read b 0 10
write b 0 9
read a 0 10
quit
`)

	assert.Contains(t, out, "[2 3]")
	assert.Contains(t, out, "[1 9 3 4]")
	assert.Contains(t, out, "Goodbye!")
}

func TestREPL_LockedDelete(t *testing.T) {
	out := runScript(t, `new a
new b
write a 0 1 2 3
insert b 0 a 0 3
delete a 0 1
close a
delete b 0 3
delete a 0 1
len a
`)

	assert.Contains(t, out, "Delete error")
	assert.Contains(t, out, "another track borrows these samples")
	assert.Contains(t, out, "Close error")
	assert.Contains(t, out, "Deleted, length now 0")
	assert.Contains(t, out, "Deleted, length now 2")
}

func TestREPL_Identify(t *testing.T) {
	out := runScript(t, `new target
new ad
write target 0 0 0 1 2 3 0 1 2 3
write ad 0 1 2 3
identify target ad
`)

	assert.Contains(t, out, "2,4\n6,8\n")
}

func TestREPL_SaveLoadInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	out := runScript(t, "new a\nwrite a 0 7 8 9\nsave a "+path+"\nload b "+path+"\nread b 0 3\ninfo "+path+"\n")

	assert.Contains(t, out, "[7 8 9]")
	assert.Contains(t, out, "channels=1 rate=8000Hz bits=16")
}

func TestREPL_DumpAndSegments(t *testing.T) {
	out := runScript(t, `new a
new b
write a 0 1 2 3
insert b 0 a 0 2
dump b
segments a
refs b 0
`)

	assert.Contains(t, out, "kind: view")
	assert.Contains(t, out, "owned")
	assert.Contains(t, out, "refs=1 depth=1")
}

func TestREPL_UnknownAndErrors(t *testing.T) {
	out := runScript(t, "bogus\nread nope 0 1\nwrite\nnew a\nnew a\n")

	assert.Contains(t, out, "Unknown command: bogus")
	assert.Contains(t, out, `No track named "nope"`)
	assert.Contains(t, out, "Usage: write")
	assert.Contains(t, out, "New error")
}
