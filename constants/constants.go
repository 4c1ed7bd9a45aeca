package constants

import "time"

const (
	PX6APIBase      = "https://px6.link/api"
	CORSRelayPrefix = "https://corsproxy.io/?"
)

const (
	MethodBalance    = "balance"
	MethodGetPrice   = "getprice"
	MethodGetProxy   = "getproxy"
	MethodSetDescr   = "setdescr"
	MethodBuy        = "buy"
	MethodGetCountry = "getcountry"
	StatusYes        = "yes"
	ProxyStateActive = "active"
)

const (
	InventoryLimit = 1000

	// RateLimitPerSec is the provider's documented request ceiling.
	RateLimitPerSec    = 3
	ReuseDelay         = 400 * time.Millisecond
	BalanceRefresh     = 5 * time.Minute
	DefaultHTTPTimeout = 30 * time.Second
)

// Countries is used when the provider country list cannot be fetched.
var Countries = []string{
	"au", "bg", "br", "ca", "cn", "cz", "de", "dk", "ee", "es",
	"fi", "fr", "gb", "ge", "gr", "hk", "id", "il", "in", "it",
	"jp", "kg", "kr", "kz", "lt", "lv", "md", "mx", "my", "nl",
	"no", "ph", "pl", "pt", "ro", "rs", "ru", "sa", "se", "sg",
	"th", "tr", "ua", "us", "vn", "za",
}
