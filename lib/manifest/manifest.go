package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"lecturedl/lib/scrapers/moodle/video"
)

// Aggregation accumulates extracted video links grouped under their
// lecture title. Lecture titles are unique keys; links keep extraction
// order within a lecture.
type Aggregation struct {
	order  []string
	groups map[string][]video.Link
}

func NewAggregation() *Aggregation {
	return &Aggregation{groups: map[string][]video.Link{}}
}

func (a *Aggregation) Add(lecture string, link video.Link) {
	if _, seen := a.groups[lecture]; !seen {
		a.order = append(a.order, lecture)
	}
	a.groups[lecture] = append(a.groups[lecture], link)
}

func (a *Aggregation) Empty() bool {
	return len(a.order) == 0
}

type Group struct {
	Lecture string
	// extracted lecture number, -1 when the title carries none
	Number  int
	Entries []video.Link
}

var (
	lectureNumber = regexp.MustCompile(`(?i)lecture\s*(\d+)`)
	anyDigits     = regexp.MustCompile(`\d+`)
)

func extractNumber(title string) int {
	m := lectureNumber.FindStringSubmatch(title)
	digits := ""
	if len(m) == 2 {
		digits = m[1]
	} else {
		digits = anyDigits.FindString(title)
	}
	if digits == "" {
		return -1
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return -1
	}
	return n
}

// Groups returns the lecture groups in final manifest order: numbered
// lectures ascending first, unnumbered ones after, ties broken by
// lexical comparison of the original title.
func (a *Aggregation) Groups() []Group {
	groups := make([]Group, 0, len(a.order))
	for _, lecture := range a.order {
		groups = append(groups, Group{
			Lecture: lecture,
			Number:  extractNumber(lecture),
			Entries: a.groups[lecture],
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		left, right := groups[i], groups[j]
		switch {
		case left.Number < 0 && right.Number < 0:
			return left.Lecture < right.Lecture
		case left.Number < 0:
			return false
		case right.Number < 0:
			return true
		case left.Number != right.Number:
			return left.Number < right.Number
		default:
			return left.Lecture < right.Lecture
		}
	})
	return groups
}

// Format renders the manifest text: per group a "# <title>" header,
// one URL per line, then a blank separator line. Repeated calls
// produce byte-identical output.
func (a *Aggregation) Format() string {
	var lines []string
	for _, group := range a.Groups() {
		lines = append(lines, fmt.Sprintf("# %s", group.Lecture))
		for _, entry := range group.Entries {
			lines = append(lines, entry.Url)
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Write overwrites path with the formatted manifest, creating the
// parent directory if needed.
func (a *Aggregation) Write(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(a.Format()), 0644)
}
