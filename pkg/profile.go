package pkg

import (
	"errors"
	"strings"
	"sync"

	"github.com/pariz/gountries"
)

type IPVersion string

const (
	IPVersion4       = IPVersion("4")
	IPVersion4Shared = IPVersion("3")
	IPVersion6       = IPVersion("6")
)

type Protocol string

const (
	HTTP  Protocol = "http"
	SOCKS Protocol = "socks"
)

var (
	ErrInvalidVersion  = errors.New("invalid ip version")
	ErrInvalidProtocol = errors.New("invalid protocol")
	ErrInvalidCountry  = errors.New("invalid country")
	ErrInvalidCount    = errors.New("count must be positive")
	ErrInvalidPeriod   = errors.New("period must be positive")
)

var (
	countriesOnce sync.Once
	countries     *gountries.Query
)

// Profile describes what one acquisition run must obtain.
type Profile struct {
	Version     IPVersion `json:"version"`
	Protocol    Protocol  `json:"type"`
	Country     string    `json:"country"`
	Count       int       `json:"count"`
	Period      int       `json:"period"`
	Tag         string    `json:"description"`
	AutoProlong bool      `json:"auto_prolong"`
}

// IPv6 reports whether the profile asks for IPv6 addresses. Shared IPv4 is
// still an IPv4 family.
func (p Profile) IPv6() bool {
	return p.Version == IPVersion6
}

func (p Profile) Validate() error {
	switch p.Version {
	case IPVersion4, IPVersion4Shared, IPVersion6:
	default:
		return ErrInvalidVersion
	}

	switch p.Protocol {
	case HTTP, SOCKS:
	default:
		return ErrInvalidProtocol
	}

	if p.Count <= 0 {
		return ErrInvalidCount
	}

	if p.Period <= 0 {
		return ErrInvalidPeriod
	}

	if !ValidCountry(p.Country) {
		return ErrInvalidCountry
	}

	return nil
}

// ValidCountry checks a two letter country code against the ISO-3166 table.
// The provider uses "gb" for the United Kingdom, "uk" is not accepted.
func ValidCountry(code string) bool {
	if len(code) != 2 || code != strings.ToLower(code) {
		return false
	}

	countriesOnce.Do(func() {
		countries = gountries.New()
	})

	_, err := countries.FindCountryByAlpha(code)
	return err == nil
}
