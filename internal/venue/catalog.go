package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arblane/predengine/internal/errs"
)

// gammaMarket is the subset of Polymarket's Gamma API market shape the
// adapter cares about.
type gammaMarket struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	Active       bool   `json:"active"`
	Closed       bool   `json:"closed"`
	Archived     bool   `json:"archived"`
	NegRisk      bool   `json:"negRisk"`
	ClobTokenIDs string `json:"clobTokenIds"`
	Volume24hr   string `json:"volume24hr"`
	LiquidityNum string `json:"liquidityNum"`
}

// gammaClient fetches the current market catalog from a Gamma-style REST
// endpoint.
type gammaClient struct {
	baseURL string
	http    *http.Client
}

func newGammaClient(baseURL string) *gammaClient {
	return &gammaClient{baseURL: baseURL, http: &http.Client{Timeout: 10 * time.Second}}
}

func (c *gammaClient) fetchMarkets(ctx context.Context) ([]gammaMarket, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/markets?active=true&closed=false&archived=false&limit=500", nil)
	if err != nil {
		return nil, errs.Wrap(err, "build catalog request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, "fetch catalog")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errs.New(fmt.Sprintf("catalog returned status %d", resp.StatusCode))
	}

	var markets []gammaMarket
	if err := json.NewDecoder(resp.Body).Decode(&markets); err != nil {
		return nil, errs.Wrap(err, "decode catalog")
	}
	return markets, nil
}

// eligibleMarket is a catalog entry that passed the eligibility filter.
type eligibleMarket struct {
	MarketID string
	Question string
	TokenIDs [2]string
	NegRisk  bool
}

// filterEligible applies the core's discovery filter: non-archived,
// non-closed, CLOB-tradable (exactly two outcome tokens), and above the
// configured volume/liquidity thresholds.
func filterEligible(markets []gammaMarket, cfg Config) []eligibleMarket {
	out := make([]eligibleMarket, 0, len(markets))
	for _, m := range markets {
		if !m.Active || m.Closed || m.Archived {
			continue
		}

		var ids []string
		if err := json.Unmarshal([]byte(m.ClobTokenIDs), &ids); err != nil || len(ids) != 2 {
			continue
		}

		volume, _ := strconv.ParseFloat(m.Volume24hr, 64)
		if volume < cfg.MinVolume24h {
			continue
		}
		liquidity, _ := strconv.ParseFloat(m.LiquidityNum, 64)
		if liquidity < cfg.MinLiquidity {
			continue
		}

		out = append(out, eligibleMarket{
			MarketID: m.ID,
			Question: m.Question,
			TokenIDs: [2]string{ids[0], ids[1]},
			NegRisk:  m.NegRisk,
		})
	}
	return out
}

// clobPriceClient fetches current top-of-book for a single token from a
// CLOB-style REST endpoint.
type clobPriceClient struct {
	baseURL string
	http    *http.Client
}

func newCLOBPriceClient(baseURL string) *clobPriceClient {
	return &clobPriceClient{baseURL: baseURL, http: &http.Client{Timeout: 5 * time.Second}}
}

type clobPriceResponse struct {
	Price string `json:"price"`
}

func (c *clobPriceClient) price(ctx context.Context, tokenID, side string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/price?token_id=%s&side=%s", c.baseURL, tokenID, side)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Decimal{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Decimal{}, errs.Wrap(err, "fetch price")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decimal.Decimal{}, errs.New(fmt.Sprintf("price endpoint returned status %d", resp.StatusCode))
	}

	var out clobPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Decimal{}, errs.Wrap(err, "decode price response")
	}
	return decimal.NewFromString(out.Price)
}
