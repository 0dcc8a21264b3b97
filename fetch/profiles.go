package fetch

import "net/http"

// Profile is a set of request headers modelled on one browser.
type Profile struct {
	Name    string
	Headers [][2]string
}

func (p Profile) apply(h http.Header) {
	for _, kv := range p.Headers {
		h.Set(kv[0], kv[1])
	}
}

var commonHeaders = [][2]string{
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7"},
	{"Accept-Language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7"},
	{"Accept-Encoding", "gzip, deflate, br, zstd"},
	{"Connection", "keep-alive"},
	{"Cache-Control", "no-cache"},
	{"Pragma", "no-cache"},
	{"Upgrade-Insecure-Requests", "1"},
}

func profile(name, userAgent string, extra ...[2]string) Profile {
	h := append([][2]string{{"User-Agent", userAgent}}, commonHeaders...)
	return Profile{Name: name, Headers: append(h, extra...)}
}

// DefaultProfiles are tried in order until one gets a 200.
var DefaultProfiles = []Profile{
	profile("chrome120",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		[2]string{"Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`},
		[2]string{"Sec-Ch-Ua-Platform", `"Windows"`},
		[2]string{"Sec-Fetch-Dest", "document"},
		[2]string{"Sec-Fetch-Mode", "navigate"},
		[2]string{"Sec-Fetch-Site", "none"},
		[2]string{"Sec-Fetch-User", "?1"},
	),
	profile("safari15_5",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.5 Safari/605.1.15",
	),
	profile("edge99",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/99.0.4844.51 Safari/537.36 Edg/99.0.1150.30",
		[2]string{"Sec-Fetch-Dest", "document"},
		[2]string{"Sec-Fetch-Mode", "navigate"},
	),
	profile("firefox135",
		"Mozilla/5.0 (X11; Linux x86_64; rv:135.0) Gecko/20100101 Firefox/135.0",
		[2]string{"TE", "trailers"},
	),
}
