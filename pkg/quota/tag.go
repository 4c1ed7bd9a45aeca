// Package quota reads and writes the reuse counter kept inside a proxy's
// free-text description, written as "k/3".
package quota

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Limit is how many times one leased proxy may be handed out.
const Limit = 3

var (
	ErrMalformed = errors.New("malformed quota tag")
	ErrExhausted = errors.New("quota exhausted")
)

var pattern = regexp.MustCompile(`\b(\d+)/3\b`)

type Tag struct {
	Used int
}

func (t Tag) String() string {
	return strconv.Itoa(t.Used) + "/" + strconv.Itoa(Limit)
}

func (t Tag) Exhausted() bool {
	return t.Used >= Limit
}

func (t Tag) Next() (Tag, error) {
	if t.Exhausted() {
		return t, ErrExhausted
	}
	return Tag{Used: t.Used + 1}, nil
}

// Parse returns the first counter found in descr. A description without a
// counter has never been reused.
func Parse(descr string) (Tag, error) {
	loc := pattern.FindStringSubmatchIndex(descr)
	if loc == nil {
		return Tag{}, nil
	}
	return parseAt(descr, loc)
}

func parseAt(descr string, loc []int) (Tag, error) {
	n, err := strconv.Atoi(descr[loc[2]:loc[3]])
	if err != nil || n > Limit {
		return Tag{}, errors.Wrapf(ErrMalformed, "%q", descr[loc[0]:loc[1]])
	}
	return Tag{Used: n}, nil
}

// Bump increments the counter in descr. Only the matched counter is rewritten;
// when there is none, "1/3" is appended to descr, or to fallback if descr is empty.
func Bump(descr string, fallback string) (string, Tag, error) {
	loc := pattern.FindStringSubmatchIndex(descr)
	if loc == nil {
		next := Tag{Used: 1}
		if descr == "" {
			return strings.TrimSpace(fallback + " " + next.String()), next, nil
		}
		return descr + " " + next.String(), next, nil
	}

	current, err := parseAt(descr, loc)
	if err != nil {
		return descr, current, err
	}

	next, err := current.Next()
	if err != nil {
		return descr, current, err
	}

	return descr[:loc[0]] + next.String() + descr[loc[1]:], next, nil
}

// Initial is the description given to freshly bought proxies.
func Initial(tag string) string {
	return strings.TrimSpace(tag + " " + Tag{Used: 1}.String())
}
