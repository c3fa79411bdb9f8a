// Package device derives a best-effort identifier for the device that edited
// an item. It is a label for the audit trail, not a security boundary: two
// identical browsers on identical hardware share an id.
package device

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Attributes are the client characteristics the fingerprint is built from.
type Attributes struct {
	UserAgent   string `json:"userAgent"`
	Language    string `json:"language"`
	Platform    string `json:"platform"`
	Screen      string `json:"screen"`
	Concurrency string `json:"hardwareConcurrency"`
	Memory      string `json:"deviceMemory"`
	TouchPoints string `json:"maxTouchPoints"`
}

// FromRequest collects attributes from request headers. Browsers send the
// screen and hardware hints only when the frontend adds them.
func FromRequest(r *http.Request) Attributes {
	h := r.Header
	lang := h.Get("Accept-Language")
	if i := strings.IndexByte(lang, ','); i >= 0 {
		lang = lang[:i]
	}
	return Attributes{
		UserAgent:   h.Get("User-Agent"),
		Language:    strings.TrimSpace(lang),
		Platform:    strings.Trim(h.Get("Sec-CH-UA-Platform"), `"`),
		Screen:      h.Get("X-Screen"),
		Concurrency: h.Get("X-Hardware-Concurrency"),
		Memory:      h.Get("Device-Memory"),
		TouchPoints: h.Get("X-Max-Touch-Points"),
	}
}

func (a Attributes) empty() bool {
	return a == Attributes{}
}

// Fingerprint returns an id of the form DEV-<base36 hash>. The same attributes
// always produce the same id.
func Fingerprint(a Attributes) string {
	if a.empty() {
		return "Unknown"
	}
	data, err := json.Marshal(a)
	if err != nil {
		return "Unknown"
	}

	var h int32
	for _, c := range utf16.Encode([]rune(string(data))) {
		h = h*31 + int32(c)
	}

	n := int64(h)
	if n < 0 {
		n = -n
	}
	s := strconv.FormatInt(n, 36)
	if len(s) > 8 {
		s = s[:8]
	}
	return "DEV-" + strings.ToUpper(s)
}

// Describe returns a human-readable summary such as "Chrome | Windows | 1920x1080".
func Describe(a Attributes) string {
	var parts []string

	ua := a.UserAgent
	switch {
	case strings.Contains(ua, "Edg"):
		parts = append(parts, "Edge")
	case strings.Contains(ua, "OPR"):
		parts = append(parts, "Opera")
	case strings.Contains(ua, "Chrome"):
		parts = append(parts, "Chrome")
	case strings.Contains(ua, "Firefox"):
		parts = append(parts, "Firefox")
	case strings.Contains(ua, "Safari"):
		parts = append(parts, "Safari")
	}

	platform := a.Platform
	if platform == "" {
		platform = ua
	}
	switch {
	case strings.Contains(platform, "Android"):
		parts = append(parts, "Android")
	case strings.Contains(platform, "iPhone"), strings.Contains(platform, "iPad"), strings.Contains(platform, "iOS"):
		parts = append(parts, "iOS")
	case strings.Contains(platform, "Win"):
		parts = append(parts, "Windows")
	case strings.Contains(platform, "Mac"):
		parts = append(parts, "Mac")
	case strings.Contains(platform, "Linux"):
		parts = append(parts, "Linux")
	}

	if a.Screen != "" {
		parts = append(parts, a.Screen)
	}

	if len(parts) == 0 {
		return "Unknown Device"
	}
	return strings.Join(parts, " | ")
}
