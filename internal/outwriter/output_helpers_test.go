package outwriter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/kpitree/kpitree/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	err := writeWithFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello\n")
		return err
	}, "Wrote text")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(raw))
}

func TestWriteWithFilePropagatesWriterError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	boom := errors.New("boom")
	err := writeWithFile(path, func(io.Writer) error { return boom }, "Wrote text")
	assert.ErrorIs(t, err, boom)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := writeJSON(&buf, map[string]int{"nodes": 3})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"nodes\": 3\n}\n", buf.String())
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "2"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", buf.String())
}

func TestJoinIDs(t *testing.T) {
	assert.Equal(t, "", joinIDs(nil))

	ids := []schema.NodeID{
		{LocationID: "s1", Name: "A"},
		{LocationID: "f1", Name: "B"},
	}
	assert.Equal(t, "s1/A|f1/B", joinIDs(ids))
}
