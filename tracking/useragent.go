package tracking

import "strings"

// Browser is a coarse browser family.
type Browser string

const (
	BrowserChrome           Browser = "Chrome"
	BrowserSafari           Browser = "Safari"
	BrowserFirefox          Browser = "Firefox"
	BrowserInternetExplorer Browser = "Internet Explorer"
	BrowserEdge             Browser = "Edge"
	BrowserOther            Browser = "Other"
)

// ClassifyUserAgent maps a User-Agent header to a browser family. Rules are
// checked in order and the first match wins, so a Chromium-based Edge UA
// (which also carries "Chrome" and "Safari") reports Chrome.
func ClassifyUserAgent(ua string) Browser {
	hasChrome := strings.Contains(ua, "Chrome")
	hasSafari := strings.Contains(ua, "Safari")

	switch {
	case hasChrome && hasSafari:
		return BrowserChrome
	case hasSafari:
		return BrowserSafari
	case strings.Contains(ua, "Firefox"):
		return BrowserFirefox
	case strings.Contains(ua, "MSIE"), strings.Contains(ua, "Trident/"):
		return BrowserInternetExplorer
	case strings.Contains(ua, "Edge"):
		return BrowserEdge
	default:
		return BrowserOther
	}
}

var mobileTokens = []string{
	"android",
	"iphone",
	"ipad",
	"ipod",
	"blackberry",
	"bb10",
	"windows phone",
	"iemobile",
	"opera mini",
	"mobile",
	"webos",
	"kindle",
	"silk",
}

// IsMobile reports whether ua carries any known mobile device token.
func IsMobile(ua string) bool {
	if ua == "" {
		return false
	}
	lower := strings.ToLower(ua)
	for _, tok := range mobileTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// DeviceClass returns DeviceMobile or DeviceDesktop for ua.
func DeviceClass(ua string) string {
	if IsMobile(ua) {
		return DeviceMobile
	}
	return DeviceDesktop
}
