package restyutil

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// FilesystemOutput dumps one file per HTTP exchange into a directory,
// wiped on creation. Useful to watch what the scraper is actually
// sending when it is not running headless.
type FilesystemOutput struct {
	directory string
	counter   *uint64
}

func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	// stale transcripts from an earlier run must not mix with new ones
	if err := os.RemoveAll(dir); err != nil {
		slog.Warn("failed to clear transcript directory", "dir", dir, "err", err)
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return FilesystemOutput{}, err
	}
	var counter uint64
	return FilesystemOutput{directory: dir, counter: &counter}, nil
}

func (o FilesystemOutput) write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id+".txt"), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write http transcript file", "id", id, "err", err)
	}
}

// Attach registers an OnAfterResponse hook that records every exchange.
func (o FilesystemOutput) Attach(client *resty.Client) {
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := atomic.AddUint64(o.counter, 1)
		o.write(fmt.Sprintf("%04d", id), formatHttpMessage(res))
		return nil
	})
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			fmt.Fprintf(&out, "%s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return ""
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	read, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(read)
}

const messageTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%d %s

%s

%s`

func formatHttpMessage(res *resty.Response) string {
	var requestHeaders string
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
	}

	responseUrl := res.Request.URL
	if redirected, err := res.RawResponse.Location(); err == nil {
		responseUrl = redirected.String()
	}

	return fmt.Sprintf(
		messageTemplate,
		res.Request.Method, res.Request.URL,
		requestHeaders,
		formatRequestBody(res.Request.RawRequest),
		res.StatusCode(), responseUrl,
		formatHeaders(res.Header()),
		res.String(),
	)
}
