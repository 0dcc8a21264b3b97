package scraper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bistscrapper/capital"
	"bistscrapper/extract"
	"bistscrapper/fetch"
	"bistscrapper/ipo"
	"bistscrapper/logger"
	"bistscrapper/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, time.March, 20, 12, 0, 0, 0, extract.Istanbul)

// pages is a Fetcher over canned bodies. Unknown URLs fail with ErrStatus.
type pages map[string]string

func (p pages) Fetch(_ context.Context, url string) (fetch.Document, error) {
	body, ok := p[url]
	if !ok {
		return fetch.Document{}, fmt.Errorf("%w: 404", fetch.ErrStatus)
	}
	return fetch.Document{URL: url, Body: []byte(body), FetchedAt: now}, nil
}

func testEnv(f fetch.Fetcher) Env {
	return Env{Fetcher: f, Now: func() time.Time { return now }, Concurrency: 2, Log: logger.NewNop()}
}

const homePage = `<html><body>
<div class="tab_item">
  <article class="index-list">
    <img class="slogo" src="/logos/alpha.png">
    <h3 class="il-halka-arz-sirket"><a href="/alpha-holding-a-s/">Alpha Holding A.Ş.</a></h3>
    <span class="il-bist-kod">ALPH</span>
    <span class="il-halka-arz-tarihi">25-27 Mart 2025</span>
    <div class="il-badge">Onaylı</div>
  </article>
</div>
<div class="tab_item">
  <article class="index-list">
    <h3 class="il-halka-arz-sirket"><a href="/beta-enerji-a-s/">Beta Enerji A.Ş.</a></h3>
  </article>
</div>
</body></html>`

const alphaDetail = `<html><body>
<table>
  <tr><td>Halka Arz Fiyatı/Aralığı :</td><td>19,50 TL</td></tr>
  <tr><td>Pay :</td><td>Sermaye Artırımı : 20.000.000 Lot<br>Ortak Satışı : 7.000.000 Lot</td></tr>
  <tr><td>Dağıtım Yöntemi :</td><td>Eşit Dağıtım</td></tr>
</table>
</body></html>`

func TestHalkarzListToDocument(t *testing.T) {
	f := pages{
		"https://halkarz.com/":                  homePage,
		"https://halkarz.com/alpha-holding-a-s/": alphaDetail,
	}
	svc := NewService(f, NewDefaultRegistry(DefaultURLs, testEnv(f)), logger.NewNop())

	res, err := svc.Scrape(context.Background(), "halkarz")
	require.NoError(t, err)
	records := res.Data.([]ipo.Record)
	require.Len(t, records, 2)
	assert.Equal(t, 2, res.Count)

	doc := ipo.NewDocument(ipo.Partition(records))
	require.Len(t, doc.Active, 1)
	require.Len(t, doc.Draft, 1)

	alpha := doc.Active[0]
	assert.Equal(t, "ALPH", alpha.Code)
	assert.Equal(t, ipo.StatusApproved, alpha.Status)
	assert.Equal(t, "25-27 Mart 2025", alpha.Dates)
	assert.InDelta(t, 19.5, alpha.Price.Amount, 1e-9)
	assert.Equal(t, "27.0 Milyon", alpha.LotCount)
	assert.Equal(t, "Eşit Dağıtım", alpha.DistributionType)
	assert.Equal(t, "alpha-holding-a-s", alpha.Slug)
	assert.Equal(t, "https://halkarz.com/logos/alpha.png", alpha.Logo)
	assert.Equal(t, "halkarz", alpha.Source)

	beta := doc.Draft[0]
	assert.Equal(t, ipo.StatusDraft, beta.Status)
	assert.Equal(t, extract.NoDate, beta.Dates)
	assert.True(t, beta.Price.IsDefault())
	assert.Equal(t, extract.NoCount, beta.LotCount)
	assert.Equal(t, extract.NoBroker, beta.Broker)
	assert.Equal(t, "beta-enerji-a-s", beta.Slug)
}

func TestHalkarzEmptyPage(t *testing.T) {
	src := NewHalkarz(DefaultURLs.Halkarz, testEnv(pages{}))
	res, err := src.Parse(context.Background(), fetch.Document{})
	require.NoError(t, err)
	assert.Equal(t, []ipo.Record{}, res.Data)
}

const piapiriPage = `<html><body>
<table class="layout"><tr><td>
  <table>
    <tr><th>Şirket Adı</th><th>Tarih</th><th>Fiyat</th><th>Durum</th></tr>
    <tr><td><a href="/halka-arz/kuzey-boru-kboru">Kuzey Boru (KBORU)</a></td><td>25-27 Mart 2025</td><td>23,50 TL</td><td>Talep Toplanıyor</td></tr>
    <tr><td>Kuzey Boru (KBORU)</td><td>25-27 Mart 2025</td><td>23,50 TL</td><td>Talep Toplanıyor</td></tr>
    <tr><td>Meysu Gıda (MEYSU)</td><td>10-12 Şubat 2025</td><td>7,50 TL</td><td>Tamamlandı</td></tr>
    <tr><td>Kısa satır</td></tr>
  </table>
</td></tr></table>
</body></html>`

func TestPiapiriNestedTable(t *testing.T) {
	src := NewPiapiri(DefaultURLs.Piapiri, testEnv(nil))
	res, err := src.Parse(context.Background(), fetch.Document{URL: DefaultURLs.Piapiri, Body: []byte(piapiriPage)})
	require.NoError(t, err)

	records := res.Data.([]ipo.Record)
	require.Len(t, records, 2)

	assert.Equal(t, "KBORU", records[0].Code)
	assert.Equal(t, "Kuzey Boru (KBORU)", records[0].Company)
	assert.Equal(t, ipo.StatusCollectingDemand, records[0].Status)
	assert.InDelta(t, 23.5, records[0].Price.Amount, 1e-9)
	assert.Equal(t, "https://www.piapiri.com/halka-arz/kuzey-boru-kboru", records[0].URL)
	assert.Equal(t, "kuzey-boru-kboru", records[0].Slug)

	assert.Equal(t, "MEYSU", records[1].Code)
	assert.Equal(t, ipo.StatusCompleted, records[1].Status)
	assert.Empty(t, records[1].URL)
}

func TestPiapiriWithoutTable(t *testing.T) {
	res, err := NewPiapiri(DefaultURLs.Piapiri, testEnv(nil)).Parse(context.Background(), fetch.Document{Body: []byte("<p>bakım</p>")})
	require.NoError(t, err)
	assert.Equal(t, []ipo.Record{}, res.Data)
}

func TestRegistryRouting(t *testing.T) {
	r := NewDefaultRegistry(DefaultURLs, testEnv(nil))
	tests := []struct {
		url  string
		want string
	}{
		{"halkarz.com/sermaye-artirimi", "capital"},
		{"https://halkarz.com/sermaye-artirimi/?page=2", "capital"},
		{"https://halkarz.com/wp-content/themes/halkarz/json/temettu.json", "dividends"},
		{"https://halkarz.com/wp-content/themes/halkarz/json/hedef-fiyat.json", "targets"},
		{"https://halkarz.com/", "halkarz"},
		{"https://www.halkarz.com/alpha-holding-a-s/", "halkarz"},
		{"https://piapiri.com/halka-arz/", "piapiri"},
		{"https://www.getmidas.com/canli-borsa", "quotes"},
		{"https://tefasfon.com/araci-kurumlar/", "brokers"},
	}
	for _, tt := range tests {
		src := r.Find(tt.url)
		require.NotNil(t, src, tt.url)
		assert.Equal(t, tt.want, src.Name(), tt.url)
	}
	assert.Nil(t, r.Find("https://example.com/"))
	assert.Nil(t, r.Find("https://www.piapiri.com/hisse/"))
	assert.Equal(t, []string{"capital", "targets", "dividends", "piapiri", "quotes", "brokers", "halkarz"}, r.Names())
}

func TestServiceErrors(t *testing.T) {
	svc := NewService(pages{}, NewDefaultRegistry(DefaultURLs, testEnv(nil)), logger.NewNop())

	_, err := svc.Scrape(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = svc.ScrapeURL(context.Background(), "https://example.com/")
	assert.ErrorIs(t, err, ErrNoSource)

	res, err := svc.Scrape(context.Background(), "capital")
	assert.ErrorIs(t, err, fetch.ErrStatus)
	assert.Equal(t, "capital", res.Source)
}

func TestServiceUsesSourceFetcher(t *testing.T) {
	svc := NewService(pages{}, NewDefaultRegistry(DefaultURLs, testEnv(nil)), logger.NewNop())
	svc.UseFetcher("dividends", pages{
		DefaultURLs.Dividends: `[{"t_bistkod":"TUPRS","t_sirketadi":"TÃœPRAÅž"}]`,
	})

	res, err := svc.Scrape(context.Background(), "dividends")
	require.NoError(t, err)
	rows := res.Data.([]market.Row)
	require.Len(t, rows, 1)
	assert.Equal(t, "TÜPRAŞ", rows[0]["t_sirketadi"])
}

func TestFeedRejectsNonList(t *testing.T) {
	res, err := NewTargets(DefaultURLs.Targets, testEnv(nil)).Parse(context.Background(), fetch.Document{Body: []byte(`<html>`)})
	assert.Error(t, err)
	assert.Equal(t, []market.Row{}, res.Data)
}

func TestCapitalSource(t *testing.T) {
	page := `<table>
<tr><th>Şirket</th><th>Oran</th></tr>
<tr><td>ALPHA Alfa Holding</td><td>%100</td><td>01.02.2099</td></tr>
</table>`
	res, err := NewCapital(DefaultURLs.Capital, testEnv(nil)).Parse(context.Background(), fetch.Document{Body: []byte(page)})
	require.NoError(t, err)
	records := res.Data.([]capital.Record)
	require.Len(t, records, 1)
	assert.Equal(t, capital.Bonus, records[0].Type)
	assert.Equal(t, capital.BoardDecision, records[0].Status)
}

func TestQuotesSource(t *testing.T) {
	page := `<table><tr class="even"><td>THYAO</td><td>310,25</td><td>1,50</td><td>%0,49</td><td>1.000</td><td></td></tr></table>`
	res, err := NewQuotes(DefaultURLs.Quotes, testEnv(nil)).Parse(context.Background(), fetch.Document{Body: []byte(page)})
	require.NoError(t, err)
	doc := res.Data.(market.QuoteDocument)
	assert.Equal(t, "getmidas.com", doc.Source)
	assert.Equal(t, 1, doc.TotalStocks)
	assert.Equal(t, now.Format(time.RFC3339), doc.LastUpdate)
}

func TestBrokersRenderReports(t *testing.T) {
	list := `<a href="/araci-kurumlar/gedik/"><strong>Gedik Yatırım</strong> Toplam Rapor 2</a>
<a href="/araci-kurumlar/bilinmeyen/"><strong>Bilinmeyen</strong></a>`
	browser := pages{
		"https://tefasfon.com/araci-kurumlar/gedik/": `<div class="rounded-lg bg-card"><h3>ASELS</h3><p>10.03.2025</p><div class="rounded-full">AL</div><div class="text-3xl font-black">₺80,00</div></div>`,
	}
	env := testEnv(nil)
	env.Browser = browser

	res, err := NewBrokers(DefaultURLs.Brokers, env).Parse(context.Background(), fetch.Document{URL: DefaultURLs.Brokers, Body: []byte(list)})
	require.NoError(t, err)
	brokers := res.Data.([]market.Broker)
	require.Len(t, brokers, 2)
	require.Len(t, brokers[0].Recommendations, 1)
	assert.Equal(t, "ASELS", brokers[0].Recommendations[0].Symbol)
	assert.Empty(t, brokers[1].Recommendations)
}
