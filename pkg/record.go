package pkg

import (
	"strings"
	"time"
)

// Record is one proxy leased from the provider. Credentials are only
// complete on records returned by a purchase.
type Record struct {
	ID      string
	IP      string
	Host    string
	Port    string
	User    string
	Pass    string
	Type    string
	Country string
	Version string

	// Date and DateEnd are the provider's "YYYY-MM-DD hh:mm:ss" strings,
	// which sort chronologically as text.
	Date        string
	DateEnd     string
	Unixtime    int64
	UnixtimeEnd int64

	Active bool
	Descr  string
}

func (r Record) IPv6() bool {
	return strings.Contains(r.IP, ":")
}

// Expired treats a missing end timestamp as a lease that never ends.
func (r Record) Expired(now time.Time) bool {
	if r.UnixtimeEnd == 0 {
		return false
	}
	return r.UnixtimeEnd <= now.Unix()
}
