package scraper

// URLs are the default pages of every source.
type URLs struct {
	Halkarz   string `yaml:"halkarz"`
	Piapiri   string `yaml:"piapiri"`
	Capital   string `yaml:"capital"`
	Targets   string `yaml:"targets"`
	Dividends string `yaml:"dividends"`
	Quotes    string `yaml:"quotes"`
	Brokers   string `yaml:"brokers"`
}

// DefaultURLs are the live addresses of the sources.
var DefaultURLs = URLs{
	Halkarz:   "https://halkarz.com/",
	Piapiri:   "https://www.piapiri.com/halka-arz/",
	Capital:   "https://halkarz.com/sermaye-artirimi/",
	Targets:   "https://halkarz.com/wp-content/themes/halkarz/json/hedef-fiyat.json",
	Dividends: "https://halkarz.com/wp-content/themes/halkarz/json/temettu.json",
	Quotes:    "https://www.getmidas.com/canli-borsa/",
	Brokers:   "https://tefasfon.com/araci-kurumlar/",
}

// NewDefaultRegistry registers every source. The narrower halkarz pages
// come before the home page source, which accepts any halkarz URL.
func NewDefaultRegistry(urls URLs, env Env) *Registry {
	r := NewRegistry()
	r.Register(
		NewCapital(urls.Capital, env),
		NewTargets(urls.Targets, env),
		NewDividends(urls.Dividends, env),
		NewPiapiri(urls.Piapiri, env),
		NewQuotes(urls.Quotes, env),
		NewBrokers(urls.Brokers, env),
		NewHalkarz(urls.Halkarz, env),
	)
	return r
}
