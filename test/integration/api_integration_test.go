package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"tiendita/internal/handler"
	"tiendita/internal/model"
	"tiendita/internal/repository"
	"tiendita/internal/router"
	"tiendita/internal/service"
	"tiendita/internal/stock"
	"tiendita/internal/zone"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testZoneDoc = `[
	{"id": "centro", "name": "Centro", "areas": ["Centro Historico"], "priceCents": 1500},
	{"id": "norte", "name": "Zona Norte", "areas": ["Lindavista"], "priceCents": 2500},
	{"id": "recoleccion", "name": "Recoleccion en tienda", "areas": [], "priceCents": 0}
]`

type testServer struct {
	handler  http.Handler
	cartSvc  service.CartService
	orderSvc service.OrderService
}

func setupTestServer(t *testing.T, testDB *TestDB) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	ctx := context.Background()

	zonesPath := filepath.Join(t.TempDir(), "zones.json")
	require.NoError(t, os.WriteFile(zonesPath, []byte(testZoneDoc), 0o644))

	catalog, err := zone.NewCatalog(ctx, zone.NewFileLoader(logger), zonesPath, logger)
	require.NoError(t, err)

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	guard := stock.NewGuard(productRepo, logger)
	cartService := service.NewCartService(cartRepo, productRepo, guard, catalog, logger)
	orderService := service.NewOrderService(orderRepo, cartRepo, productRepo, catalog, "5215512345678", logger)

	cartHandler := handler.NewCartHandler(cartService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	zoneHandler := handler.NewZoneHandler(catalog, logger)

	return &testServer{
		handler:  router.New(cartHandler, orderHandler, zoneHandler, "test-api-key", 10*time.Second, logger),
		cartSvc:  cartService,
		orderSvc: orderService,
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, server http.Handler, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		// Error responses use a different shape; tolerate both.
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestCheckoutFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	ts := setupTestServer(t, testDB)
	SeedProducts(t, testDB.Pool)

	// Create a cart with the first item: 2 x P001 at 2500.
	w, env := doJSON(t, ts.handler, http.MethodPost, "/api/carts",
		model.AddItemRequest{ProductID: "P001", Quantity: 2})
	require.Equal(t, http.StatusCreated, w.Code)

	var cart model.Cart
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.NotEmpty(t, cart.Token)
	require.Len(t, cart.Items, 1)

	// Add 1 x P002 at 2000.
	w, env = doJSON(t, ts.handler, http.MethodPost, "/api/carts/"+cart.Token+"/items",
		model.AddItemRequest{ProductID: "P002", Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &cart))
	require.Len(t, cart.Items, 2)

	// Quote against the centro zone: 7000 + 1500.
	w, env = doJSON(t, ts.handler, http.MethodGet, "/api/carts/"+cart.Token+"/quote?zoneId=centro", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var quote struct {
		SubtotalCents    int64 `json:"subtotalCents"`
		DeliveryFeeCents int64 `json:"deliveryFeeCents"`
		TotalCents       int64 `json:"totalCents"`
		ZoneSelected     bool  `json:"zoneSelected"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, int64(7000), quote.SubtotalCents)
	assert.Equal(t, int64(1500), quote.DeliveryFeeCents)
	assert.Equal(t, int64(8500), quote.TotalCents)
	assert.True(t, quote.ZoneSelected)

	// Place the order.
	w, env = doJSON(t, ts.handler, http.MethodPost, "/api/orders", model.PlaceOrderRequest{
		CartToken: cart.Token,
		Client: model.OrderClient{
			Name:    "Ana Lopez",
			Phone:   "5215598765432",
			Address: "Calle Falsa 123",
		},
		DeliveryZoneID: "centro",
		Channel:        string(model.ChannelWeb),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var result model.PlacementResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotNil(t, result.Order)
	assert.Equal(t, int64(8500), result.Order.TotalCents)
	assert.Equal(t, model.OrderStatusPlaced, result.Order.Status)
	require.Len(t, result.Order.Items, 2)

	// The cart is converted: its token no longer resolves.
	w, _ = doJSON(t, ts.handler, http.MethodGet, "/api/carts/"+cart.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Stock was decremented.
	var stockLeft int
	require.NoError(t, testDB.Pool.QueryRow(context.Background(),
		"SELECT stock FROM products WHERE id = 'P001'").Scan(&stockLeft))
	assert.Equal(t, 8, stockLeft)

	// The order is retrievable with its snapshots.
	w, env = doJSON(t, ts.handler, http.MethodGet, "/api/orders/"+result.Order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched model.Order
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, result.Order.OrderNumber, fetched.OrderNumber)
	assert.Equal(t, int64(7000), fetched.SubtotalCents)
}

func TestWhatsAppHandoff_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	ts := setupTestServer(t, testDB)
	SeedProducts(t, testDB.Pool)

	cart, err := ts.cartSvc.AddItem(context.Background(), uuid.NewString(), "P001", 1)
	require.NoError(t, err)

	result, err := ts.orderSvc.Place(context.Background(), &model.PlaceOrderRequest{
		CartToken: cart.Token,
		Client: model.OrderClient{
			Name:    "Ana Lopez",
			Phone:   "5215598765432",
			Address: "Calle Falsa 123",
		},
		DeliveryZoneID: "recoleccion",
		Channel:        string(model.ChannelWhatsAppHandoff),
	})
	require.NoError(t, err)

	assert.Contains(t, result.WhatsAppLink, "https://wa.me/5215512345678?text=")
	assert.Equal(t, int64(2500), result.Order.TotalCents, "pickup zone charges no fee")
	assert.Equal(t, model.ChannelWhatsAppHandoff, result.Order.Channel)
}

func TestPlacement_ConcurrentLastUnit_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	ts := setupTestServer(t, testDB)
	SeedProducts(t, testDB.Pool)

	ctx := context.Background()

	// Two carts both hold the single remaining unit of P004.
	const contenders = 2
	tokens := make([]string, contenders)
	for i := range tokens {
		cart, err := ts.cartSvc.AddItem(ctx, uuid.NewString(), "P004", 1)
		require.NoError(t, err)
		tokens[i] = cart.Token
	}

	results := make([]*model.PlacementResult, contenders)
	errs := make([]error, contenders)

	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = ts.orderSvc.Place(ctx, &model.PlaceOrderRequest{
				CartToken: tokens[i],
				Client: model.OrderClient{
					Name:    "Ana Lopez",
					Phone:   "5215598765432",
					Address: "Calle Falsa 123",
				},
				DeliveryZoneID: "centro",
				Channel:        string(model.ChannelWeb),
			})
		}(i)
	}
	wg.Wait()

	var placed, rejected int
	for i := 0; i < contenders; i++ {
		if errs[i] == nil {
			placed++
			continue
		}
		var stockErr *model.InsufficientStockError
		require.ErrorAs(t, errs[i], &stockErr)
		assert.Equal(t, 0, stockErr.Available)
		rejected++
	}
	assert.Equal(t, 1, placed, "exactly one placement wins the last unit")
	assert.Equal(t, 1, rejected)

	// Never oversold.
	var stockLeft int
	require.NoError(t, testDB.Pool.QueryRow(ctx,
		"SELECT stock FROM products WHERE id = 'P004'").Scan(&stockLeft))
	assert.Equal(t, 0, stockLeft)

	// The losing cart stays OPEN with its line intact.
	for i := 0; i < contenders; i++ {
		if errs[i] == nil {
			continue
		}
		cart, err := ts.cartSvc.Get(ctx, tokens[i])
		require.NoError(t, err)
		assert.Equal(t, model.CartStatusOpen, cart.Status)
		require.Len(t, cart.Items, 1)
	}
}

func TestIdempotentPlacement_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	ts := setupTestServer(t, testDB)
	SeedProducts(t, testDB.Pool)

	ctx := context.Background()
	cart, err := ts.cartSvc.AddItem(ctx, uuid.NewString(), "P001", 1)
	require.NoError(t, err)

	req := &model.PlaceOrderRequest{
		CartToken: cart.Token,
		Client: model.OrderClient{
			Name:    "Ana Lopez",
			Phone:   "5215598765432",
			Address: "Calle Falsa 123",
		},
		DeliveryZoneID: "centro",
		Channel:        string(model.ChannelWeb),
		IdempotencyKey: uuid.NewString(),
	}

	first, err := ts.orderSvc.Place(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := ts.orderSvc.Place(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	// Stock is only decremented once.
	var stockLeft int
	require.NoError(t, testDB.Pool.QueryRow(ctx,
		"SELECT stock FROM products WHERE id = 'P001'").Scan(&stockLeft))
	assert.Equal(t, 9, stockLeft)
}

func TestAdminStatusUpdate_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	ts := setupTestServer(t, testDB)
	SeedProducts(t, testDB.Pool)

	ctx := context.Background()
	cart, err := ts.cartSvc.AddItem(ctx, uuid.NewString(), "P001", 1)
	require.NoError(t, err)

	result, err := ts.orderSvc.Place(ctx, &model.PlaceOrderRequest{
		CartToken: cart.Token,
		Client: model.OrderClient{
			Name:    "Ana Lopez",
			Phone:   "5215598765432",
			Address: "Calle Falsa 123",
		},
		DeliveryZoneID: "centro",
		Channel:        string(model.ChannelWeb),
	})
	require.NoError(t, err)

	path := "/api/admin/orders/" + result.Order.ID.String() + "/status"
	body := bytes.NewBufferString(`{"status":"CONFIRMED"}`)

	// No API key: rejected before the handler runs.
	req := httptest.NewRequest(http.MethodPatch, path, body)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// With the key the transition applies.
	req = httptest.NewRequest(http.MethodPatch, path, bytes.NewBufferString(`{"status":"CONFIRMED"}`))
	req.Header.Set("X-API-Key", "test-api-key")
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	order, err := ts.orderSvc.GetByID(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, order.Status)

	// Skipping straight to DELIVERED is rejected.
	req = httptest.NewRequest(http.MethodPatch, path, bytes.NewBufferString(`{"status":"DELIVERED"}`))
	req.Header.Set("X-API-Key", "test-api-key")
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeliveryZones_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	ts := setupTestServer(t, testDB)

	w, env := doJSON(t, ts.handler, http.MethodGet, "/api/delivery-zones", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var zones []model.DeliveryZone
	require.NoError(t, json.Unmarshal(env.Data, &zones))
	require.Len(t, zones, 3)
	assert.Equal(t, "centro", zones[0].ID)
}
