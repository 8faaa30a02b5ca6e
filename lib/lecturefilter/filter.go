package lecturefilter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type targetKind int

const (
	// a literal title, matched by case-insensitive substring
	targetTitle targetKind = iota
	// a "Lecture N" title derived from a numeric specifier, matched
	// exact-token so "lecture 1" never matches "Lecture 15"
	targetNumber
)

type target struct {
	kind targetKind
	text string
}

// Filter decides which course sections should be scraped. The zero
// value is the default filter: any heading containing "lecture".
type Filter struct {
	targets []target
}

func (f Filter) IsDefault() bool {
	return len(f.targets) == 0
}

// Titles returns the normalized target titles, in specifier order.
func (f Filter) Titles() []string {
	titles := make([]string, len(f.targets))
	for i, t := range f.targets {
		titles[i] = t.text
	}
	return titles
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	rangeSpec  = regexp.MustCompile(`^\d+-\d+$`)
	numberSpec = regexp.MustCompile(`^\d+$`)
)

// ParseSpec turns a lecture specifier into a Filter. The specifier may
// be a JSON array of titles, a comma-separated list of numbers and
// inclusive ranges ("1-5,8"), or a comma-separated list of titles; the
// forms can be mixed in the comma list. Anything empty or unparseable
// falls back to the default filter.
func ParseSpec(spec string) Filter {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Filter{}
	}

	// any JSON array counts; non-string elements are stringified and
	// treated as literal titles, never numerically expanded
	var literal []any
	if err := json.Unmarshal([]byte(spec), &literal); err == nil {
		var targets []target
		for _, elem := range literal {
			title := normalize(fmt.Sprint(elem))
			if title == "" {
				continue
			}
			targets = append(targets, target{kind: targetTitle, text: title})
		}
		return Filter{targets: targets}
	}

	var targets []target
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		switch {
		case token == "":
		case rangeSpec.MatchString(token):
			targets = append(targets, expandRange(token)...)
		case numberSpec.MatchString(token):
			n, err := strconv.Atoi(token)
			if err != nil {
				continue
			}
			targets = append(targets, numberTarget(n))
		default:
			targets = append(targets, target{kind: targetTitle, text: normalize(token)})
		}
	}
	return Filter{targets: targets}
}

func numberTarget(n int) target {
	return target{
		kind: targetNumber,
		text: normalize(fmt.Sprintf("Lecture %d", n)),
	}
}

// expandRange expands "a-b" into one target per integer in the
// inclusive range; reversed endpoints are normalized first.
func expandRange(token string) []target {
	parts := strings.SplitN(token, "-", 2)
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	hi, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	targets := make([]target, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		targets = append(targets, numberTarget(n))
	}
	return targets
}

// Matches reports whether a section heading passes the filter.
func (f Filter) Matches(heading string) bool {
	h := normalize(heading)
	if f.IsDefault() {
		return strings.Contains(h, "lecture")
	}
	for _, t := range f.targets {
		switch t.kind {
		case targetTitle:
			if strings.Contains(h, t.text) {
				return true
			}
		case targetNumber:
			if containsNumberToken(h, t.text) {
				return true
			}
		}
	}
	return false
}

// containsNumberToken is substring containment with one extra rule: the
// character following the match must not extend the number, so a
// "lecture 5" target rejects "lecture 56".
func containsNumberToken(heading, token string) bool {
	for from := 0; ; {
		i := strings.Index(heading[from:], token)
		if i < 0 {
			return false
		}
		end := from + i + len(token)
		if end >= len(heading) || !unicode.IsDigit(rune(heading[end])) {
			return true
		}
		from += i + 1
	}
}
