package course

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"lecturedl/lib/htmlutil"
	"lecturedl/lib/lecturefilter"
	"lecturedl/lib/scrapers/moodle/core"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/moodle/course")

// VideoPage is one candidate video page discovered inside a matching
// lecture section.
type VideoPage struct {
	// the section heading, as displayed on the course page
	Lecture string
	// the link text of the page activity
	Title string
	Href  string
}

var videoLink = regexp.MustCompile(`(?i)video`)

// Scan loads the course page and returns the video pages of every
// section passing the filter, in section-then-item document order.
// Finding nothing is not an error.
func Scan(ctx context.Context, client *core.Client, courseUrl string, filter lecturefilter.Filter) ([]VideoPage, error) {
	ctx, span := tracer.Start(ctx, "Scan")
	defer span.End()
	span.SetAttributes(attribute.String("url", courseUrl))

	doc, err := client.FetchDocument(ctx, courseUrl)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch course page")
		return nil, err
	}

	if doc.Find("li.section").Length() == 0 {
		slog.WarnContext(ctx, "no sections on course page", "url", courseUrl)
	}

	pages := Select(doc, filter)
	if len(pages) == 0 {
		slog.WarnContext(ctx, "no matching lecture sections found", "url", courseUrl)
		if hint := closestHeading(doc, filter); hint != "" {
			slog.InfoContext(ctx, "did you mean this section?", "heading", hint)
		}
	}
	return pages, nil
}

// Select is the pure half of Scan: given a parsed course page, pick the
// video page links of every section whose heading passes the filter.
func Select(doc *goquery.Document, filter lecturefilter.Filter) []VideoPage {
	var pages []VideoPage
	doc.Find("li.section").Each(func(_ int, section *goquery.Selection) {
		heading := sectionHeading(section)
		if !filter.Matches(heading) {
			return
		}
		anchors := htmlutil.GetAnchors(section.Find("li.activity.modtype_page a"))
		for _, a := range anchors {
			if a.Href == "" || !videoLink.MatchString(a.Name) {
				continue
			}
			pages = append(pages, VideoPage{
				Lecture: heading,
				Title:   a.Name,
				Href:    a.Href,
			})
		}
	})
	return pages
}

func sectionHeading(section *goquery.Selection) string {
	heading := htmlutil.CleanText(section.Find(".sectionname").First().Text())
	if heading == "" {
		// some themes only carry the heading on the section node itself
		heading = htmlutil.CleanText(section.AttrOr("aria-label", ""))
	}
	return heading
}

// closestHeading computes the section heading most similar to any
// explicit filter target, to hint at likely typos when nothing matched.
func closestHeading(doc *goquery.Document, filter lecturefilter.Filter) string {
	targets := filter.Titles()
	if len(targets) == 0 {
		return ""
	}

	best := ""
	bestScore := 0.0
	doc.Find("li.section").Each(func(_ int, section *goquery.Selection) {
		heading := sectionHeading(section)
		if heading == "" {
			return
		}
		for _, target := range targets {
			score := matchr.JaroWinkler(target, strings.ToLower(heading), false)
			if score > bestScore {
				bestScore = score
				best = heading
			}
		}
	})
	return best
}
