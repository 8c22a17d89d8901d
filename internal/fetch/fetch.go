// Package fetch pulls the day's market indicators: CLP indicators from
// mindicador.cl, crypto spot prices from CoinGecko, and copper/Brent last
// closes from Stooq CSV quotes. Individual source failures leave nil fields
// that the last-known-good merge fills in, so one flaky upstream does not
// kill the day's narration.
package fetch

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const userAgent = "Mozilla/5.0 (compatible; finvid/1.0)"

// Snapshot is one day's indicator set. Pointer fields: nil = source failed.
type Snapshot struct {
	DolarCLP   *float64 `json:"dolar_clp"`
	UFCLP      *float64 `json:"uf_clp"`
	UTMCLP     *float64 `json:"utm_clp"`
	BTCUSD     *float64 `json:"btc_usd"`
	ETHUSD     *float64 `json:"eth_usd"`
	CobreUSDLb *float64 `json:"cobre_usd_lb"`
	BrentUSD   *float64 `json:"brent_usd"`
	FetchedAt  string   `json:"fetched_at"`
}

type Fetcher struct {
	client *http.Client
}

func New() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

// Fetch gathers all sources concurrently. Source errors are logged and leave
// their fields nil; only a context cancellation aborts the whole fetch.
func (f *Fetcher) Fetch(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{FetchedAt: time.Now().Format(time.RFC3339)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := f.fetchMindicador(gctx, &snap); err != nil {
			log.Printf("[Fetch] mindicador failed: %v", err)
		}
		return gctx.Err()
	})

	g.Go(func() error {
		if err := f.fetchCrypto(gctx, &snap); err != nil {
			log.Printf("[Fetch] coingecko failed: %v", err)
		}
		return gctx.Err()
	})

	g.Go(func() error {
		if last, err := f.stooqLastClose(gctx, "hg.f"); err != nil {
			log.Printf("[Fetch] copper quote failed: %v", err)
		} else {
			// COMEX copper trades in cents per pound
			if last > 50 {
				last = last / 100.0
			}
			snap.CobreUSDLb = &last
		}
		return gctx.Err()
	})

	g.Go(func() error {
		if last, err := f.stooqLastClose(gctx, "cb.f"); err != nil {
			log.Printf("[Fetch] brent quote failed: %v", err)
		} else {
			snap.BrentUSD = &last
		}
		return gctx.Err()
	})

	if err := g.Wait(); err != nil {
		return snap, fmt.Errorf("fetch aborted: %w", err)
	}
	return snap, nil
}

// MergeFallback fills nil fields in latest from the last known-good
// snapshot. Non-nil values always win.
func MergeFallback(latest, lastOK Snapshot) Snapshot {
	merged := latest
	if merged.DolarCLP == nil {
		merged.DolarCLP = lastOK.DolarCLP
	}
	if merged.UFCLP == nil {
		merged.UFCLP = lastOK.UFCLP
	}
	if merged.UTMCLP == nil {
		merged.UTMCLP = lastOK.UTMCLP
	}
	if merged.BTCUSD == nil {
		merged.BTCUSD = lastOK.BTCUSD
	}
	if merged.ETHUSD == nil {
		merged.ETHUSD = lastOK.ETHUSD
	}
	if merged.CobreUSDLb == nil {
		merged.CobreUSDLb = lastOK.CobreUSDLb
	}
	if merged.BrentUSD == nil {
		merged.BrentUSD = lastOK.BrentUSD
	}
	return merged
}

func (f *Fetcher) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (f *Fetcher) fetchMindicador(ctx context.Context, snap *Snapshot) error {
	var body struct {
		Dolar struct {
			Valor float64 `json:"valor"`
		} `json:"dolar"`
		UF struct {
			Valor float64 `json:"valor"`
		} `json:"uf"`
		UTM struct {
			Valor float64 `json:"valor"`
		} `json:"utm"`
	}
	if err := f.getJSON(ctx, "https://mindicador.cl/api", &body); err != nil {
		return err
	}

	if body.Dolar.Valor > 0 {
		snap.DolarCLP = &body.Dolar.Valor
	}
	if body.UF.Valor > 0 {
		snap.UFCLP = &body.UF.Valor
	}
	if body.UTM.Valor > 0 {
		snap.UTMCLP = &body.UTM.Valor
	}
	return nil
}

func (f *Fetcher) fetchCrypto(ctx context.Context, snap *Snapshot) error {
	var body map[string]struct {
		USD float64 `json:"usd"`
	}
	url := "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin,ethereum&vs_currencies=usd"
	if err := f.getJSON(ctx, url, &body); err != nil {
		return err
	}

	if btc, ok := body["bitcoin"]; ok && btc.USD > 0 {
		snap.BTCUSD = &btc.USD
	}
	if eth, ok := body["ethereum"]; ok && eth.USD > 0 {
		snap.ETHUSD = &eth.USD
	}
	return nil
}

// stooqLastClose reads a Stooq single-line CSV quote and returns the close.
// Format: Symbol,Date,Time,Open,High,Low,Close,Volume
func (f *Fetcher) stooqLastClose(ctx context.Context, symbol string) (float64, error) {
	url := fmt.Sprintf("https://stooq.com/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d from stooq for %s", resp.StatusCode, symbol)
	}

	return ParseStooqClose(resp.Body, symbol)
}

// ParseStooqClose extracts the Close column from a Stooq CSV quote body.
func ParseStooqClose(r io.Reader, symbol string) (float64, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return 0, fmt.Errorf("bad csv for %s: %w", symbol, err)
	}
	if len(records) < 2 {
		return 0, fmt.Errorf("no quote row for %s", symbol)
	}

	header, row := records[0], records[1]
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "close") && i < len(row) {
			val, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
			if err != nil {
				return 0, fmt.Errorf("unparseable close %q for %s", row[i], symbol)
			}
			return val, nil
		}
	}
	return 0, fmt.Errorf("no close column for %s", symbol)
}
