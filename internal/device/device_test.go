package device

import (
	"net/http/httptest"
	"strings"
	"testing"
)

const chromeWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func TestFingerprintFormat(t *testing.T) {
	id := Fingerprint(Attributes{UserAgent: chromeWindows, Screen: "1920x1080"})
	if !strings.HasPrefix(id, "DEV-") {
		t.Fatalf("expected DEV- prefix, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "DEV-")
	if len(suffix) == 0 || len(suffix) > 8 {
		t.Errorf("unexpected suffix length in %q", id)
	}
	if suffix != strings.ToUpper(suffix) {
		t.Errorf("expected upper-case suffix, got %q", id)
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Attributes{UserAgent: chromeWindows, Language: "pl-PL", Screen: "1920x1080"}
	if Fingerprint(a) != Fingerprint(a) {
		t.Error("same attributes produced different ids")
	}

	b := a
	b.Screen = "1280x720"
	if Fingerprint(a) == Fingerprint(b) {
		t.Error("different screens produced the same id")
	}
}

func TestFingerprintUnknown(t *testing.T) {
	if got := Fingerprint(Attributes{}); got != "Unknown" {
		t.Errorf("expected Unknown for empty attributes, got %q", got)
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("User-Agent", chromeWindows)
	r.Header.Set("Accept-Language", "pl-PL,pl;q=0.9,en;q=0.8")
	r.Header.Set("Sec-CH-UA-Platform", `"Windows"`)
	r.Header.Set("X-Screen", "1920x1080")

	a := FromRequest(r)
	if a.Language != "pl-PL" {
		t.Errorf("expected first language, got %q", a.Language)
	}
	if a.Platform != "Windows" {
		t.Errorf("expected unquoted platform, got %q", a.Platform)
	}
	if a.Screen != "1920x1080" {
		t.Errorf("expected screen, got %q", a.Screen)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		attrs Attributes
		want  string
	}{
		{Attributes{UserAgent: chromeWindows, Screen: "1920x1080"}, "Chrome | Windows | 1920x1080"},
		{Attributes{UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0"}, "Firefox | Linux"},
		{Attributes{UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1"}, "Safari | iOS"},
		{Attributes{}, "Unknown Device"},
	}

	for _, tt := range tests {
		if got := Describe(tt.attrs); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.attrs, got, tt.want)
		}
	}
}
