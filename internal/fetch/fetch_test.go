package fetch

import (
	"strings"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestMergeFallback(t *testing.T) {
	latest := Snapshot{
		DolarCLP: f64(945.3),
		BTCUSD:   nil, // coingecko down today
		BrentUSD: f64(71.2),
	}
	lastOK := Snapshot{
		DolarCLP: f64(940.0),
		BTCUSD:   f64(97500),
		ETHUSD:   f64(3400),
	}

	merged := MergeFallback(latest, lastOK)

	if *merged.DolarCLP != 945.3 {
		t.Errorf("fresh value must win, got %v", *merged.DolarCLP)
	}
	if merged.BTCUSD == nil || *merged.BTCUSD != 97500 {
		t.Errorf("nil field must fall back to last_ok, got %v", merged.BTCUSD)
	}
	if merged.ETHUSD == nil || *merged.ETHUSD != 3400 {
		t.Errorf("nil field must fall back to last_ok, got %v", merged.ETHUSD)
	}
	if merged.BrentUSD == nil || *merged.BrentUSD != 71.2 {
		t.Errorf("fresh brent lost in merge: %v", merged.BrentUSD)
	}
	if merged.CobreUSDLb != nil {
		t.Errorf("field missing in both snapshots must stay nil")
	}
}

func TestParseStooqClose(t *testing.T) {
	body := "Symbol,Date,Time,Open,High,Low,Close,Volume\nHG.F,2026-08-25,21:59:59,4.21,4.30,4.18,4.27,12345\n"

	got, err := ParseStooqClose(strings.NewReader(body), "hg.f")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got != 4.27 {
		t.Errorf("expected close 4.27, got %v", got)
	}
}

func TestParseStooqCloseNoData(t *testing.T) {
	if _, err := ParseStooqClose(strings.NewReader("Symbol,Close\n"), "cb.f"); err == nil {
		t.Fatal("expected error for quote with no data row")
	}
	if _, err := ParseStooqClose(strings.NewReader("Symbol,Date\nCB.F,2026-08-25\n"), "cb.f"); err == nil {
		t.Fatal("expected error for quote with no close column")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := Snapshot{
		DolarCLP:  f64(948),
		UFCLP:     f64(38990.12),
		FetchedAt: "2026-08-26T07:00:00-04:00",
	}

	if err := Save(dir, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	latest, err := LoadLatest(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *latest.DolarCLP != 948 || *latest.UFCLP != 38990.12 {
		t.Errorf("round trip mismatch: %+v", latest)
	}

	lastOK := LoadLastOK(dir)
	if lastOK.DolarCLP == nil || *lastOK.DolarCLP != 948 {
		t.Errorf("save must refresh last_ok: %+v", lastOK)
	}
}

func TestLoadLastOKMissing(t *testing.T) {
	snap := LoadLastOK(t.TempDir())
	if snap.DolarCLP != nil || snap.BTCUSD != nil {
		t.Errorf("missing last_ok must yield an empty snapshot: %+v", snap)
	}
}
