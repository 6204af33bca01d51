package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent turns a raw User-Agent header into a short human readable
// device name for the "last login device" profile field.
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	os := ua.OS()

	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		if platform := ua.Platform(); platform != "" {
			os = platform
		} else {
			os = "Unknown OS"
		}
	}

	return browser + " on " + os
}
