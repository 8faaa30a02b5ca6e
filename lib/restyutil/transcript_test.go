package restyutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestNewFilesystemOutputWipesStaleFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "transcripts")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001.txt"), []byte("stale"), 0600))

	_, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestTranscriptRecordsExchanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	t.Cleanup(server.Close)

	dir := filepath.Join(t.TempDir(), "transcripts")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	client := resty.New()
	output.Attach(client)
	_, err = client.R().Get(server.URL)
	require.NoError(t, err)

	contents, err := os.ReadFile(filepath.Join(dir, "0001.txt"))
	require.NoError(t, err)
	require.Contains(t, string(contents), "---- REQUEST ----")
	require.Contains(t, string(contents), "GET "+server.URL)
	require.Contains(t, string(contents), "hello")
}
