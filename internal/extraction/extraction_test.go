package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractBytesKeepsAcceptedEntries(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"model/house.json": `{"root":1}`,
		"readme.txt":       "ignore me",
	})

	keep := func(name string) bool { return strings.HasSuffix(name, ".json") }
	files, dir, err := ExtractBytes(context.Background(), "house.ifczip", data, keep, 0)
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(dir, "model", "house.json"), files[0])
	body, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, `{"root":1}`, string(body))
}

func TestExtractBytesSizeLimit(t *testing.T) {
	data := zipBytes(t, map[string]string{"big.json": strings.Repeat("x", 4096)})

	_, _, err := ExtractBytes(context.Background(), "big.zip", data, nil, 1024)
	assert.ErrorIs(t, err, ErrTooLarge)
}
