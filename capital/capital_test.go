package capital

import (
	"encoding/json"
	"testing"
	"time"

	"bistscrapper/dom"
	"bistscrapper/extract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, extract.Istanbul)
}

func TestDeriveStatusSingleDate(t *testing.T) {
	d := DeriveStatus([]string{"15.03.2024"}, at(2024, time.March, 1))
	assert.Equal(t, BoardDecision, d.Status)
	assert.Equal(t, "15.03.2024", d.Date)
	assert.Equal(t, "Yönetim Kurulu Kararı", d.Description)

	d = DeriveStatus([]string{"15.03.2024"}, at(2024, time.March, 16))
	assert.Equal(t, Completed, d.Status)
	assert.Equal(t, "15.03.2024", d.Date)
}

func TestDeriveStatusByDateCount(t *testing.T) {
	before := at(2000, time.January, 1)
	tests := []struct {
		dates  []string
		status Status
		date   string
		desc   string
	}{
		{nil, Draft, "", ""},
		{[]string{"01.02.2030"}, BoardDecision, "01.02.2030", "Yönetim Kurulu Kararı"},
		{[]string{"01.02.2030", "05.03.2030"}, RegulatorApproved, "05.03.2030", "SPK Onayı Alındı"},
		{[]string{"01.02.2030", "05.03.2030", "07.04.2030"}, Approved, "07.04.2030", "Bölünme Tarihi: 07.04.2030"},
		{[]string{"01.02.2030", "05.03.2030", "06.03.2030", "07.04.2030"}, Approved, "07.04.2030", "Bölünme Tarihi: 07.04.2030"},
	}
	for _, tt := range tests {
		d := DeriveStatus(tt.dates, before)
		assert.Equal(t, tt.status, d.Status, tt.dates)
		assert.Equal(t, tt.date, d.Date, tt.dates)
		assert.Equal(t, tt.desc, d.Description, tt.dates)
	}
}

func TestDeriveStatusPastOverridesEveryStage(t *testing.T) {
	after := at(2031, time.January, 1)
	for _, dates := range [][]string{
		{"01.02.2030"},
		{"01.02.2030", "05.03.2030"},
		{"01.02.2030", "05.03.2030", "07.04.2030"},
	} {
		assert.Equal(t, Completed, DeriveStatus(dates, after).Status)
	}
	assert.Equal(t, Draft, DeriveStatus(nil, after).Status)
}

func TestCode(t *testing.T) {
	assert.Equal(t, "GENIL", Code("", "Gen İlaç ve Sağlık (GENIL)"))
	assert.Equal(t, "GENIL", Code("", "GENIL Gen İlaç"))
	assert.Equal(t, "GEN", Code("", "Gen İlaç"))
	assert.Equal(t, "ALFAS", Code(" alfas ", "Alfa Solar (ALFA)"))
	assert.Equal(t, "ALFA", Code("Alfa Solar Enerji", "Alfa Solar (ALFA)"))
}

func TestParseRow(t *testing.T) {
	rec, ok := ParseRow([]string{"GENIL Gen İlaç", "%300", "1.200.000.000 TL", "10.01.2030"}, "", Bonus, at(2029, time.June, 1))
	require.True(t, ok)
	assert.Equal(t, Record{
		Code:        "GENIL",
		Company:     "GENIL Gen İlaç",
		Type:        Bonus,
		Rate:        "%300",
		Date:        "10.01.2030",
		Status:      BoardDecision,
		Description: "Yönetim Kurulu Kararı | Tutar: 1.200.000.000 TL",
	}, rec)

	rec, ok = ParseRow([]string{"ALPHA", "-", "150.000.000 TL"}, "", Rights, at(2029, time.June, 1))
	require.True(t, ok)
	assert.Equal(t, Draft, rec.Status)
	assert.Equal(t, "Tutar: 150.000.000 TL", rec.Description)

	_, ok = ParseRow([]string{"  "}, "", Rights, time.Now())
	assert.False(t, ok)
	_, ok = ParseRow(nil, "", Rights, time.Now())
	assert.False(t, ok)
}

const capitalPage = `<html><body>
<table>
  <tr><th>Şirket</th><th>Oran</th><th>YKK</th><th>SPK</th><th>Bölünme</th></tr>
  <tr><td>ALPHA Alfa Holding</td><td>%100</td><td>01.02.2024</td><td>01.03.2024</td><td>15.03.2024</td></tr>
  <tr><td>BETAX Beta Enerji</td><td>%50</td><td>01.02.2099</td><td></td><td></td></tr>
</table>
<table>
  <tr><td>Gamma Gıda (GAMMA)</td><td>%25</td><td>500.000.000 TL</td><td>01.02.2099</td><td>03.03.2099</td></tr>
  <tr><td></td><td>%1</td></tr>
</table>
<table>
  <tr><th>Şirket</th></tr>
  <tr><td><b>DLTAS</b> Delta (DELTA)</td><td>Tahsisli 250.000.000 TL</td></tr>
</table>
<table><tr><td>EXTRA</td></tr></table>
</body></html>`

func TestParseTables(t *testing.T) {
	doc := dom.Parse([]byte(capitalPage))
	var notes []string
	diag := dom.Diagnostics(func(msg string, kv ...any) { notes = append(notes, msg) })

	recs := ParseTables(doc.Selection, DefaultRoles, at(2025, time.January, 1), diag)
	require.Len(t, recs, 4)

	assert.Equal(t, "ALPHA", recs[0].Code)
	assert.Equal(t, Bonus, recs[0].Type)
	assert.Equal(t, Completed, recs[0].Status)
	assert.Equal(t, "15.03.2024", recs[0].Date)

	assert.Equal(t, BoardDecision, recs[1].Status)

	assert.Equal(t, "GAMMA", recs[2].Code)
	assert.Equal(t, Rights, recs[2].Type)
	assert.Equal(t, RegulatorApproved, recs[2].Status)
	assert.Equal(t, "SPK Onayı Alındı | Tutar: 500.000.000 TL", recs[2].Description)

	assert.Equal(t, PrivatePlacement, recs[3].Type)
	assert.Equal(t, "DLTAS", recs[3].Code)
	assert.Equal(t, Draft, recs[3].Status)

	assert.Len(t, notes, 2)
}

func TestParseTablesEmpty(t *testing.T) {
	recs := ParseTables(dom.Parse(nil).Selection, DefaultRoles, time.Now(), nil)
	require.NotNil(t, recs)
	b, err := json.Marshal(recs)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}
