package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/agent-commerce/internal/config"
	"github.com/javajoker/agent-commerce/internal/events"
	"github.com/javajoker/agent-commerce/internal/i18n"
	"github.com/javajoker/agent-commerce/internal/idempotency"
	"github.com/javajoker/agent-commerce/internal/models"
	"github.com/javajoker/agent-commerce/internal/repository"
	"github.com/javajoker/agent-commerce/internal/services"
	"github.com/javajoker/agent-commerce/internal/utils"
)

const (
	adminKey   = "s3cret-admin"
	testTxHash = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type stubGateway struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *stubGateway) Charge(_ context.Context, _ services.ChargeRequest) (*services.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &services.ChargeResult{SettlementID: "pi_test", Status: "succeeded", Succeeded: true}, nil
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.APIError `json:"error"`
	Meta    map[string]any  `json:"meta"`
}

type RouterTestSuite struct {
	suite.Suite
	router  *gin.Engine
	orders  *repository.MemoryOrderRepository
	gateway *stubGateway
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	require.NoError(suite.T(), i18n.Initialize())
}

func (suite *RouterTestSuite) SetupTest() {
	ctx := context.Background()

	products := repository.NewMemoryProductRepository()
	require.NoError(suite.T(), products.Upsert(ctx, &models.Product{
		ID:          "p1",
		Name:        "Test Headphones",
		AmazonASIN:  "B000TEST01",
		AmazonPrice: decimal.RequireFromString("100.00"),
		OurPrice:    decimal.RequireFromString("103.00"),
		Category:    "audio",
		InStock:     true,
	}))
	require.NoError(suite.T(), products.Upsert(ctx, &models.Product{
		ID:          "p2",
		Name:        "Old Tablet",
		AmazonASIN:  "B000TEST02",
		AmazonPrice: decimal.RequireFromString("80.00"),
		OurPrice:    decimal.RequireFromString("90.00"),
		Category:    "tablets",
		InStock:     false,
	}))

	suite.orders = repository.NewMemoryOrderRepository()
	suite.gateway = &stubGateway{}

	cfg := &config.Config{
		Server:    config.ServerConfig{AllowOrigins: []string{"*"}},
		Admin:     config.AdminConfig{Key: adminKey},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		Stablecoin: config.StablecoinConfig{
			ChainName:        "Base",
			ChainID:          8453,
			Token:            "USDC",
			TokenContract:    "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			RecipientAddress: "0x3333333333333333333333333333333333333333",
			PaymentWindow:    time.Hour,
		},
	}

	catalog := services.NewCatalogService(products)
	checkout := services.NewCheckoutService(
		catalog,
		suite.orders,
		suite.gateway,
		services.NewStablecoinService(suite.orders, cfg.Stablecoin),
		services.NewNotificationService(events.LogPublisher{}),
		"usd",
	)

	suite.router = Initialize(cfg, Services{
		Catalog:     catalog,
		Checkout:    checkout,
		Idempotency: idempotency.NewMemoryStore(time.Hour),
	})
}

func (suite *RouterTestSuite) do(method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, apiEnvelope) {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(raw)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var env apiEnvelope
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func cardOrder() map[string]any {
	return map[string]any{
		"product_id":        "p1",
		"quantity":          2,
		"payment_method":    "card",
		"payment_method_id": "pm_card_visa",
		"agent_id":          "agent-42",
		"shipping": map[string]string{
			"name":    "Grace Hopper",
			"address": "12 Harbor St",
			"city":    "Arlington",
			"country": "US",
			"postal":  "22201",
		},
	}
}

func stablecoinOrder() map[string]any {
	o := cardOrder()
	o["payment_method"] = "stablecoin_transfer"
	delete(o, "payment_method_id")
	return o
}

func (suite *RouterTestSuite) createOrder(body map[string]any) string {
	w, env := suite.do(http.MethodPost, "/api/orders", body, nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		OrderID string `json:"order_id"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &res))
	return res.OrderID
}

func (suite *RouterTestSuite) TestHealth() {
	w, _ := suite.do(http.MethodGet, "/api/health", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestServiceDescriptor() {
	w, env := suite.do(http.MethodGet, "/", nil, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var desc map[string]any
	require.NoError(suite.T(), json.Unmarshal(env.Data, &desc))
	assert.Equal(suite.T(), float64(2), desc["products"])
	assert.Contains(suite.T(), desc, "endpoints")
}

func (suite *RouterTestSuite) TestListProducts() {
	w, env := suite.do(http.MethodGet, "/api/products", nil, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var products []models.Product
	require.NoError(suite.T(), json.Unmarshal(env.Data, &products))
	require.Len(suite.T(), products, 1)
	assert.Equal(suite.T(), "p1", products[0].ID)
	assert.True(suite.T(), products[0].MarginPercent.Equal(decimal.RequireFromString("3.00")))

	w, env = suite.do(http.MethodGet, "/api/products?in_stock=false", nil, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	products = nil
	require.NoError(suite.T(), json.Unmarshal(env.Data, &products))
	require.Len(suite.T(), products, 2)
	assert.Equal(suite.T(), "p1", products[0].ID)
	assert.Equal(suite.T(), "p2", products[1].ID)

	w, _ = suite.do(http.MethodGet, "/api/products?in_stock=maybe", nil, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestGetProduct() {
	w, _ := suite.do(http.MethodGet, "/api/products/p1", nil, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w, env := suite.do(http.MethodGet, "/api/products/nope", nil, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "NOT_FOUND", env.Error.Code)
	assert.Equal(suite.T(), "Product not found", env.Error.Message)
}

func (suite *RouterTestSuite) TestCardCheckout() {
	w, env := suite.do(http.MethodPost, "/api/orders", cardOrder(), nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(suite.T(), string(env.Data), `"total":206.00`)

	var res map[string]any
	require.NoError(suite.T(), json.Unmarshal(env.Data, &res))
	assert.Equal(suite.T(), "paid", res["status"])
	assert.Equal(suite.T(), "USD", res["currency"])
	assert.NotEmpty(suite.T(), res["estimated_delivery"])
	assert.NotEmpty(suite.T(), res["fulfillment_note"])
	assert.Equal(suite.T(), 1, suite.gateway.calls)
}

func (suite *RouterTestSuite) TestGatewayErrorIsFlaggedUnsafe() {
	suite.gateway.err = &services.GatewayError{Err: context.DeadlineExceeded}

	w, env := suite.do(http.MethodPost, "/api/orders", cardOrder(), nil)
	require.Equal(suite.T(), http.StatusBadGateway, w.Code)
	assert.Equal(suite.T(), "GATEWAY_ERROR", env.Error.Code)
	assert.Equal(suite.T(), utils.OutcomeUnknown, env.Error.Outcome)
	assert.False(suite.T(), env.Error.RetrySafe)

	n, err := suite.orders.Count(context.Background(), repository.OrderFilter{})
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), n)
}

func (suite *RouterTestSuite) TestDeclinedPayment() {
	suite.gateway.err = &services.PaymentDeclinedError{Status: "card_declined", DeclineCode: "insufficient_funds"}

	w, env := suite.do(http.MethodPost, "/api/orders", cardOrder(), nil)
	require.Equal(suite.T(), http.StatusPaymentRequired, w.Code)
	assert.Equal(suite.T(), "PAYMENT_DECLINED", env.Error.Code)
	assert.Equal(suite.T(), utils.OutcomeNone, env.Error.Outcome)
	assert.True(suite.T(), env.Error.RetrySafe)
}

func (suite *RouterTestSuite) TestCheckoutValidation() {
	body := cardOrder()
	delete(body, "shipping")

	w, env := suite.do(http.MethodPost, "/api/orders", body, nil)
	require.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(suite.T(), utils.OutcomeNone, env.Error.Outcome)

	w, _ = suite.do(http.MethodPost, "/api/orders", `{"product_id":`, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w, _ = suite.do(http.MethodPost, "/api/orders", `{"product_id":"p1","quantity":"two"}`, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	assert.Zero(suite.T(), suite.gateway.calls)
}

func (suite *RouterTestSuite) TestStablecoinCheckoutAndConfirm() {
	w, env := suite.do(http.MethodPost, "/api/orders", stablecoinOrder(), nil)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var res struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
		Payment struct {
			Amount           string `json:"amount"`
			ChainID          int64  `json:"chain_id"`
			Recipient        string `json:"recipient"`
			TokenContract    string `json:"token_contract"`
			ExpiresInSeconds int64  `json:"expires_in_seconds"`
		} `json:"payment"`
	}
	require.NoError(suite.T(), json.Unmarshal(env.Data, &res))
	assert.Equal(suite.T(), "awaiting_payment", res.Status)
	assert.Equal(suite.T(), "206.00", res.Payment.Amount)
	assert.Equal(suite.T(), int64(8453), res.Payment.ChainID)
	assert.Equal(suite.T(), "0x3333333333333333333333333333333333333333", res.Payment.Recipient)
	assert.NotEmpty(suite.T(), res.Payment.TokenContract)
	assert.InDelta(suite.T(), 3600, res.Payment.ExpiresInSeconds, 5)

	path := "/api/orders/" + res.OrderID + "/confirm"
	for i, already := range []bool{false, true} {
		w, env = suite.do(http.MethodPost, path, map[string]string{"tx_hash": testTxHash}, nil)
		require.Equal(suite.T(), http.StatusOK, w.Code, "attempt %d", i)

		var confirm struct {
			Status           string `json:"status"`
			AlreadyConfirmed bool   `json:"already_confirmed"`
			AmazonURL        string `json:"amazon_url"`
		}
		require.NoError(suite.T(), json.Unmarshal(env.Data, &confirm))
		assert.Equal(suite.T(), "paid", confirm.Status)
		assert.Equal(suite.T(), already, confirm.AlreadyConfirmed)
		assert.Equal(suite.T(), "https://amazon.com/dp/B000TEST01", confirm.AmazonURL)
	}

	// A settled order confirms without a body.
	w, _ = suite.do(http.MethodPost, path, nil, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestConfirmErrors() {
	cardID := suite.createOrder(cardOrder())

	w, env := suite.do(http.MethodPost, "/api/orders/"+cardID+"/confirm", map[string]string{"tx_hash": testTxHash}, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "INVALID_OPERATION", env.Error.Code)

	w, env = suite.do(http.MethodPost, "/api/orders/ord_missing/confirm", map[string]string{"tx_hash": testTxHash}, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
	assert.Equal(suite.T(), "Order not found", env.Error.Message)

	coinID := suite.createOrder(stablecoinOrder())
	w, env = suite.do(http.MethodPost, "/api/orders/"+coinID+"/confirm", map[string]string{"tx_hash": "0xnope"}, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "VALIDATION_ERROR", env.Error.Code)
}

func (suite *RouterTestSuite) TestGetOrder() {
	id := suite.createOrder(cardOrder())

	w, env := suite.do(http.MethodGet, "/api/orders/"+id, nil, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var order map[string]any
	require.NoError(suite.T(), json.Unmarshal(env.Data, &order))
	assert.Equal(suite.T(), "paid", order["status"])
	assert.Equal(suite.T(), "Grace Hopper", order["shipping"].(map[string]any)["name"])

	w, _ = suite.do(http.MethodGet, "/api/orders/ord_missing", nil, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestFulfillmentRequiresAdminKey() {
	id := suite.createOrder(cardOrder())
	update := map[string]string{"status": "shipped", "tracking_number": "1Z999"}

	for _, headers := range []map[string]string{nil, {"X-Admin-Key": "wrong"}, {"X-Admin-Key": ""}} {
		w, env := suite.do(http.MethodPatch, "/api/orders/"+id, update, headers)
		assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
		assert.Equal(suite.T(), "UNAUTHORIZED", env.Error.Code)
	}

	stored, err := suite.orders.Get(context.Background(), id)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.OrderStatusPaid, stored.Status)
	assert.Empty(suite.T(), stored.TrackingNumber)

	w, env := suite.do(http.MethodPatch, "/api/orders/"+id, update, map[string]string{"X-Admin-Key": adminKey})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var order map[string]any
	require.NoError(suite.T(), json.Unmarshal(env.Data, &order))
	assert.Equal(suite.T(), "shipped", order["status"])
	assert.Equal(suite.T(), "1Z999", order["tracking_number"])
}

func (suite *RouterTestSuite) TestShipUnpaidOrderConflicts() {
	id := suite.createOrder(stablecoinOrder())

	w, env := suite.do(http.MethodPatch, "/api/orders/"+id, map[string]string{"status": "shipped"}, map[string]string{"X-Admin-Key": adminKey})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
	assert.Equal(suite.T(), "INVALID_TRANSITION", env.Error.Code)
	assert.Equal(suite.T(), "Order cannot move from awaiting_payment to shipped", env.Error.Message)

	w, _ = suite.do(http.MethodPatch, "/api/orders/"+id, map[string]string{}, map[string]string{"X-Admin-Key": adminKey})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestListOrdersAdmin() {
	suite.createOrder(cardOrder())
	suite.createOrder(stablecoinOrder())
	suite.createOrder(stablecoinOrder())

	w, _ := suite.do(http.MethodGet, "/api/orders", nil, nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w, env := suite.do(http.MethodGet, "/api/orders?status=awaiting_payment&limit=1", nil, map[string]string{"X-Admin-Key": adminKey})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "2", w.Header().Get("X-Total-Count"))

	var orders []models.Order
	require.NoError(suite.T(), json.Unmarshal(env.Data, &orders))
	require.Len(suite.T(), orders, 1)
	assert.Equal(suite.T(), models.OrderStatusAwaitingPayment, orders[0].Status)

	w, _ = suite.do(http.MethodGet, "/api/orders?status=lost", nil, map[string]string{"X-Admin-Key": adminKey})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestIdempotentCheckoutReplays() {
	headers := map[string]string{"Idempotency-Key": "retry-abc"}

	first, _ := suite.do(http.MethodPost, "/api/orders", cardOrder(), headers)
	require.Equal(suite.T(), http.StatusCreated, first.Code)

	second, _ := suite.do(http.MethodPost, "/api/orders", cardOrder(), headers)
	require.Equal(suite.T(), http.StatusCreated, second.Code)
	assert.Equal(suite.T(), "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(suite.T(), first.Body.String(), second.Body.String())

	assert.Equal(suite.T(), 1, suite.gateway.calls)
	n, err := suite.orders.Count(context.Background(), repository.OrderFilter{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), n)
}

func (suite *RouterTestSuite) TestIdempotencyKeyReusedWithDifferentBody() {
	headers := map[string]string{"Idempotency-Key": "retry-xyz"}

	first, _ := suite.do(http.MethodPost, "/api/orders", cardOrder(), headers)
	require.Equal(suite.T(), http.StatusCreated, first.Code)

	other := cardOrder()
	other["shipping"] = map[string]string{
		"name": "Grace Hopper", "address": "9 Harbor St", "city": "Lyon", "country": "FR", "postal": "69001",
	}
	w, env := suite.do(http.MethodPost, "/api/orders", other, headers)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	require.NotNil(suite.T(), env.Error)
	assert.Equal(suite.T(), "IDEMPOTENCY_KEY_REUSED", env.Error.Code)
	assert.NotContains(suite.T(), w.Body.String(), "Arlington")
	assert.Empty(suite.T(), w.Header().Get("Idempotent-Replayed"))

	assert.Equal(suite.T(), 1, suite.gateway.calls)
}

func (suite *RouterTestSuite) TestIdempotencyKeyReleasedOnValidationError() {
	headers := map[string]string{"Idempotency-Key": "retry-def"}
	bad := cardOrder()
	delete(bad, "payment_method_id")

	w, _ := suite.do(http.MethodPost, "/api/orders", bad, headers)
	require.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w, _ = suite.do(http.MethodPost, "/api/orders", cardOrder(), headers)
	assert.Equal(suite.T(), http.StatusCreated, w.Code)
	assert.Empty(suite.T(), w.Header().Get("Idempotent-Replayed"))
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
