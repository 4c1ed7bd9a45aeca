package matcher

import (
	"sort"
	"time"

	"github.com/omimic12/proxy6-automator/pkg"
	"github.com/omimic12/proxy6-automator/pkg/quota"
)

type Candidate struct {
	Record pkg.Record
	Tag    quota.Tag
}

// Match keeps the records that can be handed out again for profile and orders
// them newest lease first. Equal lease dates keep their inventory order.
func Match(inventory []pkg.Record, profile pkg.Profile, now time.Time) []Candidate {
	candidates := make([]Candidate, 0, len(inventory))
	for _, record := range inventory {
		tag, ok := eligible(record, profile, now)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Record: record, Tag: tag})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Record.Date > candidates[j].Record.Date
	})

	return candidates
}

func eligible(record pkg.Record, profile pkg.Profile, now time.Time) (quota.Tag, bool) {
	if record.IPv6() != profile.IPv6() {
		return quota.Tag{}, false
	}

	if record.Country != profile.Country || record.Type != string(profile.Protocol) {
		return quota.Tag{}, false
	}

	if !record.Active || record.Expired(now) {
		return quota.Tag{}, false
	}

	tag, err := quota.Parse(record.Descr)
	if err != nil || tag.Exhausted() {
		return quota.Tag{}, false
	}

	return tag, true
}
