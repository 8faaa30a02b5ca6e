package commands

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testLoginPage = `<html><body>
<form action="/login/index.php" method="post">
	<input type="hidden" name="logintoken" value="tok123">
</form>
</body></html>`

const testDashboard = `<html><body>
<div class="usermenu"><span class="userbutton">Jane Doe</span></div>
</body></html>`

const testCoursePage = `<html><body><ul class="topics">
<li class="section">
	<h3 class="sectionname">Lecture 1: Intro</h3>
	<ul>
		<li class="activity modtype_page">
			<a href="/mod/page/view.php?id=21">Video - broken</a>
		</li>
		<li class="activity modtype_page">
			<a href="/mod/page/view.php?id=22">Video - recording</a>
		</li>
	</ul>
</li>
</ul></body></html>`

const testVideoPage = `<html><body>
<div class="dropdown">
	<button data-toggle="dropdown">Download</button>
	<div class="dropdown-menu">
		<a class="dropdown-item" href="https://cdn.test/lec1_sd.mp4">SD Normal</a>
		<a class="dropdown-item" href="https://cdn.test/lec1_hd.mp4">HD High Quality</a>
	</div>
</div>
</body></html>`

const testEmptyVideoPage = `<html><body>
<p>This recording is being processed.</p>
</body></html>`

func newMoodleServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/index.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		fmt.Fprint(w, testLoginPage)
	})
	mux.HandleFunc("/course/view.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testCoursePage)
	})
	mux.HandleFunc("/mod/page/view.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("id") {
		case "22":
			fmt.Fprint(w, testVideoPage)
		default:
			fmt.Fprint(w, testEmptyVideoPage)
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testDashboard)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunScrapeNoMatchesWritesNothing(t *testing.T) {
	server := newMoodleServer(t)
	outPath := filepath.Join(t.TempDir(), "videos.txt")

	cfg := RunConfig{
		Username: "jane",
		Password: "hunter2",
		Course:   server.URL + "/course/view.php?id=7",
		Lectures: "99",
		Headless: true,
	}
	require.NoError(t, runScrape(context.Background(), cfg, outPath))

	// zero matching sections: normal termination, no manifest file
	_, err := os.Stat(outPath)
	require.True(t, os.IsNotExist(err))
}

func TestRunScrapeContinuesPastFailedPages(t *testing.T) {
	server := newMoodleServer(t)
	outPath := filepath.Join(t.TempDir(), "videos.txt")

	cfg := RunConfig{
		Username: "jane",
		Password: "hunter2",
		Course:   server.URL + "/course/view.php?id=7",
		Headless: true,
	}
	require.NoError(t, runScrape(context.Background(), cfg, outPath))

	// the first page has no download options; it is skipped and the
	// second page still makes it into the manifest
	contents, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "# Lecture 1: Intro\nhttps://cdn.test/lec1_hd.mp4\n", string(contents))
}
