// Crypto price tool backed by the CoinGecko simple price API.
//
// Information Hiding:
// - Ticker symbol to asset id mapping internalized
// - Upstream response shape internalized

package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/richinex/didact/llm"
)

const defaultPriceURL = "https://api.coingecko.com/api/v3/simple/price"

// symbolToID maps the supported ticker symbols to canonical asset ids.
var symbolToID = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"sol":   "solana",
	"doge":  "dogecoin",
	"xrp":   "ripple",
	"ada":   "cardano",
	"bnb":   "binancecoin",
	"matic": "polygon",
	"usdt":  "tether",
	"usdc":  "usd-coin",
}

// CryptoPriceTool looks up the live price of a known crypto asset.
type CryptoPriceTool struct {
	client   *http.Client
	priceURL string
}

// NewCryptoPriceTool creates a crypto price tool whose upstream calls
// are bounded by the given timeout.
func NewCryptoPriceTool(timeout time.Duration) *CryptoPriceTool {
	return &CryptoPriceTool{
		client:   &http.Client{Timeout: timeout},
		priceURL: defaultPriceURL,
	}
}

// WithEndpoint overrides the upstream URL (used in tests).
func (t *CryptoPriceTool) WithEndpoint(priceURL string) *CryptoPriceTool {
	t.priceURL = priceURL
	return t
}

// Declaration returns the schema advertised to the model.
func (t *CryptoPriceTool) Declaration() llm.ToolDeclaration {
	return llm.ToolDeclaration{
		Name:        "get_crypto_price",
		Description: "Gets live crypto price by symbol (e.g., 'btc', 'eth') in the requested fiat.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"symbol": map[string]any{
					"type":        "string",
					"description": "Crypto symbol like btc.",
				},
				"vs_currency": map[string]any{
					"type":        "string",
					"description": "Fiat currency like 'usd' (default).",
				},
			},
			"required": []string{"symbol"},
		},
	}
}

// Call looks up the price.
func (t *CryptoPriceTool) Call(ctx context.Context, args map[string]any) (any, error) {
	symbol, ok := stringArg(args, "symbol")
	if !ok {
		return nil, errors.New("Symbol is required as a string (e.g., 'btc').")
	}

	vsCurrency := "usd"
	if v, ok := stringArg(args, "vs_currency"); ok {
		vsCurrency = v
	}

	id := symbolToID[strings.ToLower(symbol)]
	if id == "" {
		id = symbolToID[strings.ToLower(strings.TrimPrefix(symbol, "$"))]
	}
	if id == "" {
		return nil, errors.New("Unknown symbol. Try common ones like btc, eth, sol, doge, xrp, ada, bnb, matic, usdt, usdc.")
	}

	priceURL := fmt.Sprintf("%s?ids=%s&vs_currencies=%s",
		t.priceURL, url.QueryEscape(id), url.QueryEscape(vsCurrency))

	var response map[string]map[string]float64
	if err := getJSON(ctx, t.client, priceURL, &response); err != nil {
		return nil, err
	}

	price, ok := response[id][strings.ToLower(vsCurrency)]
	if !ok {
		return nil, errors.New("Price not available.")
	}

	return map[string]any{
		"symbol":      symbol,
		"id":          id,
		"vs_currency": vsCurrency,
		"price":       price,
	}, nil
}

// Verify CryptoPriceTool implements Tool
var _ Tool = (*CryptoPriceTool)(nil)
