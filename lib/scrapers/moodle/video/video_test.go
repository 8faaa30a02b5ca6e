package video

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lecturedl/lib/htmlutil"
	"lecturedl/lib/scrapers/moodle/core"
	"lecturedl/lib/scrapers/moodle/course"

	"github.com/stretchr/testify/require"
)

func TestPickBest(t *testing.T) {
	hd := htmlutil.Anchor{Name: "HD High Quality", Href: "https://cdn.test/v_hd.mp4"}
	sd := htmlutil.Anchor{Name: "SD Normal", Href: "https://cdn.test/v_sd.mp4"}
	p720 := htmlutil.Anchor{Name: "720p", Href: "https://cdn.test/v_720.mp4"}
	p360 := htmlutil.Anchor{Name: "360p", Href: "https://cdn.test/v_360.mp4"}
	other := htmlutil.Anchor{Name: "Transcript", Href: "https://cdn.test/t.pdf"}

	for _, tt := range []struct {
		name    string
		anchors []htmlutil.Anchor
		want    htmlutil.Anchor
		ok      bool
	}{
		{"hd wins regardless of order", []htmlutil.Anchor{sd, hd}, hd, true},
		{"hd wins when first", []htmlutil.Anchor{hd, sd}, hd, true},
		{"resolution counts as hd", []htmlutil.Anchor{p360, p720}, p720, true},
		{"sd is the fallback", []htmlutil.Anchor{other, sd}, sd, true},
		{"first hd among several", []htmlutil.Anchor{p720, hd}, p720, true},
		{"nothing recognizable", []htmlutil.Anchor{other}, htmlutil.Anchor{}, false},
		{"empty href is skipped", []htmlutil.Anchor{{Name: "HD", Href: ""}, sd}, sd, true},
		{"no anchors", nil, htmlutil.Anchor{}, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PickBest(tt.anchors)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

const videoPageWithDropdown = `<html><body>
<div class="dropdown">
	<button data-toggle="dropdown">Download</button>
	<div class="dropdown-menu">
		<a class="dropdown-item" href="https://cdn.test/lec1_sd.mp4">SD Normal</a>
		<a class="dropdown-item" href="https://cdn.test/lec1_hd.mp4">HD High Quality</a>
	</div>
</div>
</body></html>`

const videoPageWithoutOptions = `<html><body>
<p>This recording is being processed.</p>
</body></html>`

func newVideoServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/mod/page/view.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "11":
			fmt.Fprint(w, videoPageWithDropdown)
		default:
			fmt.Fprint(w, videoPageWithoutOptions)
		}
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestExtract(t *testing.T) {
	server := newVideoServer(t)
	ctx := context.Background()

	client, err := core.NewClient(ctx, core.ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	page := course.VideoPage{
		Lecture: "Lecture 1: Intro",
		Title:   "Video - part 1",
		Href:    server.URL + "/mod/page/view.php?id=11",
	}
	link, ok, err := Extract(ctx, client, page)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, Link{
		Title: "Video - part 1",
		Url:   "https://cdn.test/lec1_hd.mp4",
	}, link)
}

func TestExtractNoOptions(t *testing.T) {
	server := newVideoServer(t)
	ctx := context.Background()

	client, err := core.NewClient(ctx, core.ClientOptions{BaseUrl: server.URL})
	require.NoError(t, err)

	page := course.VideoPage{
		Lecture: "Lecture 2: Basics",
		Title:   "Video recording",
		Href:    server.URL + "/mod/page/view.php?id=21",
	}
	_, ok, err := Extract(ctx, client, page)
	require.NoError(t, err)
	require.False(t, ok)
}
