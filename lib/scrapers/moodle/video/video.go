package video

import (
	"context"
	"log/slog"
	"regexp"

	"lecturedl/lib/htmlutil"
	"lecturedl/lib/scrapers/moodle/core"
	"lecturedl/lib/scrapers/moodle/course"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/moodle/video")

// Link is a resolved direct media URL at the preferred quality.
type Link struct {
	Title string
	Url   string
}

var (
	hdPattern = regexp.MustCompile(`(?i)hd|high quality|720p|1080p`)
	sdPattern = regexp.MustCompile(`(?i)sd|normal|240p|360p|480p`)
)

// Extract loads one video page and picks the best-quality download URL
// out of its options dropdown. ok is false when the page exposes no
// recognizable option, which is not an error.
func Extract(ctx context.Context, client *core.Client, page course.VideoPage) (Link, bool, error) {
	ctx, span := tracer.Start(ctx, "Extract")
	defer span.End()
	span.SetAttributes(attribute.String("url", page.Href))

	doc, err := client.FetchDocument(ctx, page.Href)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch video page")
		return Link{}, false, err
	}

	// the toggle that reveals the menu in a browser; its absence is
	// fine, the entries may be rendered inline
	if doc.Find("[data-toggle=dropdown]").Length() == 0 {
		slog.DebugContext(ctx, "no dropdown toggle on video page", "url", page.Href)
	}

	anchors := htmlutil.GetAnchors(doc.Find("a.dropdown-item"))
	best, ok := PickBest(anchors)
	if !ok {
		return Link{}, false, nil
	}
	return Link{Title: page.Title, Url: best.Href}, true, nil
}

// PickBest applies the quality rule to the dropdown entries: the first
// HD-looking anchor wins, else the first SD-looking anchor, else
// nothing.
func PickBest(anchors []htmlutil.Anchor) (htmlutil.Anchor, bool) {
	for _, a := range anchors {
		if a.Href != "" && hdPattern.MatchString(a.Name) {
			return a, true
		}
	}
	for _, a := range anchors {
		if a.Href != "" && sdPattern.MatchString(a.Name) {
			return a, true
		}
	}
	return htmlutil.Anchor{}, false
}
