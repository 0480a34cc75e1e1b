package execution

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arblane/predengine/internal/errs"
	"github.com/arblane/predengine/internal/market"
)

const (
	clobOrderTypeName   = "Order"
	eip712DomainName    = "Polymarket CTF Exchange"
	eip712DomainVersion = "1"

	// Neg-risk markets (events whose outcomes span more than one binary
	// pair) settle through a dedicated exchange contract; a leg must sign
	// against whichever contract it will actually be matched against.
	exchangeContractAddress        = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	negRiskExchangeContractAddress = "0xC5d563A36AE78145C45a50134d48A1215220f80"
	polygonChainID                 = 137
)

// LiveExecutor places each leg sequentially against the Polymarket CLOB as
// a fill-or-kill order, signing with EIP-712 typed data over the
// configured private key. Any non-Filled result halts further legs of the
// same intent; remaining legs are reported NotAttempted. The bridge does
// not retry.
type LiveExecutor struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	clobHost   string
	httpClient *http.Client
	guard      Guard
	log        *slog.Logger
}

// NewLiveExecutor builds a live executor from a hex-encoded private key
// (with or without a 0x prefix), as read from PRIVATE_KEY.
func NewLiveExecutor(privateKeyHex, clobHost string, log *slog.Logger) (*LiveExecutor, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(privateKeyHex))
	if err != nil {
		return nil, errs.Wrap(err, "parse PRIVATE_KEY")
	}
	if clobHost == "" {
		clobHost = "https://clob.polymarket.com"
	}
	return &LiveExecutor{
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		clobHost:   clobHost,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		guard:      DefaultGuard(),
		log:        log,
	}, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func (e *LiveExecutor) Name() string { return "live" }

func (e *LiveExecutor) Execute(ctx context.Context, intent ExecutionIntent) ExecutionReport {
	results := make([]LegFillStatus, len(intent.Legs))

	for i, leg := range intent.Legs {
		if err := e.guard.Check(leg); err != nil {
			e.log.Warn("leg rejected by guard", "leg", i, "token_id", leg.TokenID, "error", err)
			results[i] = LegFillStatus{Status: LegRejected, RejectReason: err.Error()}
			fillRemainingNotAttempted(results, i+1)
			break
		}

		order, err := e.buildOrder(leg, intent.NegRisk)
		if err != nil {
			e.log.Warn("failed to build order", "leg", i, "token_id", leg.TokenID, "error", err)
			results[i] = LegFillStatus{Status: LegRejected, RejectReason: err.Error()}
			fillRemainingNotAttempted(results, i+1)
			break
		}

		sig, err := e.signOrder(order)
		if err != nil {
			e.log.Warn("failed to sign order", "leg", i, "token_id", leg.TokenID, "error", err)
			results[i] = LegFillStatus{Status: LegRejected, RejectReason: err.Error()}
			fillRemainingNotAttempted(results, i+1)
			break
		}

		resp, err := e.postOrder(ctx, order, sig)
		if err != nil {
			e.log.Warn("post_order failed", "leg", i, "token_id", leg.TokenID, "error", err)
			results[i] = LegFillStatus{Status: LegRejected, RejectReason: err.Error()}
			fillRemainingNotAttempted(results, i+1)
			break
		}
		if !resp.Success {
			e.log.Warn("order rejected by CLOB", "leg", i, "token_id", leg.TokenID, "error_msg", resp.ErrorMsg)
			results[i] = LegFillStatus{Status: LegRejected, RejectReason: resp.ErrorMsg}
			fillRemainingNotAttempted(results, i+1)
			break
		}

		e.log.Info("LIVE FILL",
			"order_id", resp.OrderID,
			"market_id", intent.MarketID,
			"token_id", leg.TokenID,
			"side", leg.Side.String(),
			"price", leg.Price.String(),
			"size", leg.Size.String(),
		)
		results[i] = LegFillStatus{
			Status:    LegFilled,
			OrderID:   resp.OrderID,
			FillPrice: leg.Price,
			FillSize:  leg.Size,
		}
	}

	return ExecutionReport{
		MarketID:     intent.MarketID,
		StrategyName: intent.StrategyName,
		LegResults:   results,
		CompletedAt:  time.Now(),
	}
}

func fillRemainingNotAttempted(results []LegFillStatus, from int) {
	for i := from; i < len(results); i++ {
		results[i] = LegFillStatus{Status: LegNotAttempted}
	}
}

// clobOrder is the wire shape of a signed CLOB order, matching the fields
// the EIP-712 type hash below commits to.
type clobOrder struct {
	Salt          *big.Int
	Maker         common.Address
	Signer        common.Address
	Taker         common.Address
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          uint8
	SignatureType uint8
	NegRisk       bool
}

// verifyingContract returns the exchange contract a leg must sign and be
// matched against, routed by whether its market is neg-risk.
func (o clobOrder) verifyingContract() string {
	if o.NegRisk {
		return negRiskExchangeContractAddress
	}
	return exchangeContractAddress
}

// usdcScale converts a decimal USDC amount into the 6-decimal integer unit
// the CLOB contract expects (USDC has 6 decimals on Polygon).
var usdcScale = decimal.New(1_000_000, 0)

func (e *LiveExecutor) buildOrder(leg OrderLeg, negRisk bool) (clobOrder, error) {
	tokenID, ok := new(big.Int).SetString(leg.TokenID, 10)
	if !ok {
		return clobOrder{}, errs.New(fmt.Sprintf("token id %q is not a base-10 integer", leg.TokenID))
	}

	priceScaled := leg.Price.Mul(leg.Size).Mul(usdcScale).Round(0).BigInt()
	sizeScaled := leg.Size.Mul(usdcScale).Round(0).BigInt()

	var makerAmount, takerAmount *big.Int
	var sideInt uint8
	switch leg.Side {
	case market.SideBuy:
		makerAmount, takerAmount = priceScaled, sizeScaled
		sideInt = 0
	default:
		makerAmount, takerAmount = sizeScaled, priceScaled
		sideInt = 1
	}

	salt, err := uuid.NewRandom()
	if err != nil {
		return clobOrder{}, fmt.Errorf("generate salt: %w", err)
	}

	return clobOrder{
		Salt:          new(big.Int).SetBytes(salt[:]),
		Maker:         e.address,
		Signer:        e.address,
		Taker:         common.Address{},
		TokenID:       tokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    big.NewInt(0),
		Nonce:         big.NewInt(0),
		FeeRateBps:    big.NewInt(0),
		Side:          sideInt,
		SignatureType: 0,
		NegRisk:       negRisk,
	}, nil
}

func (e *LiveExecutor) typedData(order clobOrder) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			clobOrderTypeName: {
				{Name: "salt", Type: "uint256"},
				{Name: "maker", Type: "address"},
				{Name: "signer", Type: "address"},
				{Name: "taker", Type: "address"},
				{Name: "tokenId", Type: "uint256"},
				{Name: "makerAmount", Type: "uint256"},
				{Name: "takerAmount", Type: "uint256"},
				{Name: "expiration", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "feeRateBps", Type: "uint256"},
				{Name: "side", Type: "uint8"},
				{Name: "signatureType", Type: "uint8"},
			},
		},
		PrimaryType: clobOrderTypeName,
		Domain: apitypes.TypedDataDomain{
			Name:              eip712DomainName,
			Version:           eip712DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(big.NewInt(polygonChainID)),
			VerifyingContract: order.verifyingContract(),
		},
		Message: apitypes.TypedDataMessage{
			"salt":          (*math.HexOrDecimal256)(order.Salt),
			"maker":         order.Maker.String(),
			"signer":        order.Signer.String(),
			"taker":         order.Taker.String(),
			"tokenId":       (*math.HexOrDecimal256)(order.TokenID),
			"makerAmount":   (*math.HexOrDecimal256)(order.MakerAmount),
			"takerAmount":   (*math.HexOrDecimal256)(order.TakerAmount),
			"expiration":    (*math.HexOrDecimal256)(order.Expiration),
			"nonce":         (*math.HexOrDecimal256)(order.Nonce),
			"feeRateBps":    (*math.HexOrDecimal256)(order.FeeRateBps),
			"side":          (*math.HexOrDecimal256)(big.NewInt(int64(order.Side))),
			"signatureType": (*math.HexOrDecimal256)(big.NewInt(int64(order.SignatureType))),
		},
	}
}

func (e *LiveExecutor) signOrder(order clobOrder) (string, error) {
	hash, _, err := apitypes.TypedDataAndHash(e.typedData(order))
	if err != nil {
		return "", fmt.Errorf("hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, e.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign order: %w", err)
	}
	// EIP-712/ecrecover expects V in {27, 28}, go-ethereum's Sign returns {0, 1}.
	sig[64] += 27
	return "0x" + common.Bytes2Hex(sig), nil
}

type clobOrderWire struct {
	Salt          string `json:"salt"`
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"`
	TakerAmount   string `json:"takerAmount"`
	Expiration    string `json:"expiration"`
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	Side          uint8  `json:"side"`
	SignatureType uint8  `json:"signatureType"`
	Signature     string `json:"signature"`
}

type clobOrderResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"orderID"`
	ErrorMsg string `json:"errorMsg"`
	Status   string `json:"status"`
}

func (e *LiveExecutor) postOrder(ctx context.Context, order clobOrder, signature string) (clobOrderResponse, error) {
	body, err := json.Marshal(struct {
		Order     clobOrderWire `json:"order"`
		Owner     string        `json:"owner"`
		OrderType string        `json:"orderType"`
	}{
		OrderType: "FOK",
		Order: clobOrderWire{
			Salt:          order.Salt.String(),
			Maker:         order.Maker.String(),
			Signer:        order.Signer.String(),
			Taker:         order.Taker.String(),
			TokenID:       order.TokenID.String(),
			MakerAmount:   order.MakerAmount.String(),
			TakerAmount:   order.TakerAmount.String(),
			Expiration:    order.Expiration.String(),
			Nonce:         order.Nonce.String(),
			FeeRateBps:    order.FeeRateBps.String(),
			Side:          order.Side,
			SignatureType: order.SignatureType,
			Signature:     signature,
		},
		Owner: e.address.String(),
	})
	if err != nil {
		return clobOrderResponse{}, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.clobHost+"/order", bytes.NewReader(body))
	if err != nil {
		return clobOrderResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return clobOrderResponse{}, fmt.Errorf("clob request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return clobOrderResponse{}, fmt.Errorf("read response: %w", err)
	}

	var out clobOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return clobOrderResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode >= 400 && out.ErrorMsg == "" {
		out.ErrorMsg = fmt.Sprintf("clob returned status %d", resp.StatusCode)
	}
	return out, nil
}
