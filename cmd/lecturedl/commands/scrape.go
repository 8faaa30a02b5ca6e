package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"lecturedl/lib/lecturefilter"
	"lecturedl/lib/manifest"
	"lecturedl/lib/restyutil"
	"lecturedl/lib/scrapers/moodle/core"
	"lecturedl/lib/scrapers/moodle/course"
	"lecturedl/lib/scrapers/moodle/video"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

const manifestPath = "downloads/videos.txt"

func init() {
	flags := scrapeCmd.Flags()
	flags.String("username", "", "Login username. Env: USERNAME.")
	flags.String("password", "", "Login password. Env: PASSWORD.")
	flags.String("course", "", "Course page URL. Env: COURSE.")
	flags.String("lectures", "", `Lecture filter: a JSON array of titles, a numeric/range list like "1-5,8", or comma-separated titles. Env: LECTURES.`)
	flags.String("headless", "", "Disable the http transcript dump under .dev/resty. Env: HEADLESS.")
	flags.String("slowmo", "", "Artificial delay before every request, in milliseconds. Env: SLOWMO.")
	rootCmd.AddCommand(scrapeCmd)
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Logs into moodle and writes a manifest of lecture video URLs.",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScrape(cmd.Context(), resolveConfig(cmd), manifestPath); err != nil {
			fatal("scrape failed", err)
		}
	},
}

// runScrape is the whole linear flow: login, scan the course page,
// visit every video page in order, then print and persist the
// manifest. Separate from the cobra Run so tests can drive it against
// a local server.
func runScrape(ctx context.Context, cfg RunConfig, outPath string) error {
	courseUrl, err := url.Parse(cfg.Course)
	if err != nil || courseUrl.Host == "" {
		return fmt.Errorf("invalid course url %q", cfg.Course)
	}

	filter := lecturefilter.ParseSpec(cfg.Lectures)
	if filter.IsDefault() {
		slog.Info("scraping every section containing 'lecture'")
	} else {
		slog.Info("scraping filtered sections", "targets", filter.Titles())
	}

	opts := core.ClientOptions{
		BaseUrl: fmt.Sprintf("%s://%s", courseUrl.Scheme, courseUrl.Host),
		SlowMo:  time.Duration(cfg.SlowMoMs * float64(time.Millisecond)),
	}
	if !cfg.Headless {
		transcript, err := restyutil.NewFilesystemOutput(".dev/resty")
		if err != nil {
			slog.Warn("failed to set up http transcript", "err", err)
		} else {
			opts.Transcript = &transcript
		}
	}

	client, err := core.NewClient(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize moodle client: %w", err)
	}
	if err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return fmt.Errorf("failed to login to moodle: %w", err)
	}

	pages, err := course.Scan(ctx, client, cfg.Course, filter)
	if err != nil {
		return fmt.Errorf("failed to scan course page: %w", err)
	}
	if len(pages) == 0 {
		slog.Info("no video pages found, nothing to write")
		return nil
	}
	slog.Info("found video pages", "count", len(pages))

	agg := collectLinks(ctx, client, pages)
	fmt.Print(agg.Format())
	if err := agg.Write(outPath); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	slog.Info("wrote manifest", "path", outPath)
	printSummary(agg)
	return nil
}

// collectLinks visits the video pages strictly one at a time; a single
// page's failure is a warning, never the end of the batch.
func collectLinks(ctx context.Context, client *core.Client, pages []course.VideoPage) *manifest.Aggregation {
	extracted, _ := otel.Meter("lecturedl").Int64Counter("extracted_video_links")
	agg := manifest.NewAggregation()
	for _, page := range pages {
		link, ok, err := video.Extract(ctx, client, page)
		if err != nil {
			slog.Warn("failed to extract video link",
				"lecture", page.Lecture, "page", page.Title, "err", err)
			continue
		}
		if !ok {
			slog.Warn("no downloadable video found",
				"lecture", page.Lecture, "page", page.Title, "url", page.Href)
			continue
		}
		agg.Add(page.Lecture, link)
		extracted.Add(ctx, 1)
		slog.Info("extracted video link",
			"lecture", page.Lecture, "title", link.Title, "url", link.Url)
	}
	return agg
}

func printSummary(agg *manifest.Aggregation) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Lecture", "Videos"})
	for _, group := range agg.Groups() {
		t.AppendRow(table.Row{group.Lecture, len(group.Entries)})
	}
	t.Render()
}
