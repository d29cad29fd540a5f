package tracking_test

import (
	"testing"

	"github.com/xraph/scribe/tracking"
)

const (
	uaChromeDesktop = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaEdgeChromium  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
	uaEdgeLegacy    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/18.19045"
	uaSafariIPhone  = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	uaFirefox       = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	uaIE10          = "Mozilla/5.0 (compatible; MSIE 10.0; Windows NT 6.1; Trident/6.0)"
	uaIE11          = "Mozilla/5.0 (Windows NT 10.0; Trident/7.0; rv:11.0) like Gecko"
	uaAndroid       = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	uaCurl          = "curl/8.4.0"
)

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want tracking.Browser
	}{
		{"chrome desktop", uaChromeDesktop, tracking.BrowserChrome},
		{"chromium edge reports chrome", uaEdgeChromium, tracking.BrowserChrome},
		{"legacy edge", uaEdgeLegacy, tracking.BrowserEdge},
		{"safari iphone", uaSafariIPhone, tracking.BrowserSafari},
		{"firefox", uaFirefox, tracking.BrowserFirefox},
		{"ie msie token", uaIE10, tracking.BrowserInternetExplorer},
		{"ie trident only", uaIE11, tracking.BrowserInternetExplorer},
		{"chrome android", uaAndroid, tracking.BrowserChrome},
		{"chrome token without safari", "Chrome/1.0", tracking.BrowserOther},
		{"curl", uaCurl, tracking.BrowserOther},
		{"empty", "", tracking.BrowserOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tracking.ClassifyUserAgent(tt.ua); got != tt.want {
				t.Errorf("ClassifyUserAgent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsMobile(t *testing.T) {
	tests := []struct {
		name string
		ua   string
		want bool
	}{
		{"iphone", uaSafariIPhone, true},
		{"android", uaAndroid, true},
		{"ipad lowercase match", "Mozilla/5.0 (IPAD; CPU OS 16_0)", true},
		{"kindle silk", "Mozilla/5.0 (Linux; U; en-us; KFTT Build/IML74K) Silk/3.4", true},
		{"opera mini", "Opera/9.80 (J2ME/MIDP; Opera Mini/9.80)", true},
		{"chrome desktop", uaChromeDesktop, false},
		{"firefox desktop", uaFirefox, false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tracking.IsMobile(tt.ua); got != tt.want {
				t.Errorf("IsMobile = %v, want %v", got, tt.want)
			}
		})
	}

	if tracking.DeviceClass(uaAndroid) != tracking.DeviceMobile {
		t.Error("android should be mobile")
	}
	if tracking.DeviceClass(uaFirefox) != tracking.DeviceDesktop {
		t.Error("firefox linux should be desktop")
	}
}
