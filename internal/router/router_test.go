package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/framestock/internal/cache"
	"github.com/framestock/internal/config"
	"github.com/framestock/internal/constants"
	"github.com/framestock/internal/models"
	"github.com/framestock/internal/provider"

	"github.com/gin-gonic/gin"
)

const testSession = "router-session-1"

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

type cartData struct {
	Items     []models.CartLineItem `json:"items"`
	ItemCount int                   `json:"item_count"`
	Subtotal  string                `json:"subtotal"`
	Persisted bool                  `json:"persisted"`
}

func newTestEngine(t *testing.T, paymentURL string) (*gin.Engine, *provider.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cache.Reset()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "debug"},
		Cart:     config.CartConfig{Storage: "memory", MaxLineQuantity: 999},
		Gallery:  config.GalleryConfig{Storage: "memory", GatePath: "/gallery/gate"},
		Checkout: config.CheckoutConfig{PaymentIntentURL: paymentURL, TimeoutMS: 2000},
	}
	c := provider.NewContainer(cfg)
	return SetupRouter(cfg, c), c
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.CartSessionHeader, testSession)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode response failed: %v body=%s", method, path, err, w.Body.String())
	}
	return resp
}

func decodeCart(t *testing.T, resp envelope) cartData {
	t.Helper()
	if resp.StatusCode != 0 {
		t.Fatalf("unexpected error response: %d %s", resp.StatusCode, resp.Msg)
	}
	var data cartData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode cart failed: %v", err)
	}
	return data
}

func photoBody(quantity int) gin.H {
	return gin.H{
		"product":  gin.H{"id": "42", "type": "photo", "title": "Harbor", "price": "10.00"},
		"quantity": quantity,
	}
}

func TestCartRoutesLifecycle(t *testing.T) {
	r, _ := newTestEngine(t, "")

	data := decodeCart(t, doJSON(t, r, http.MethodPost, "/api/v1/cart/items", photoBody(1)))
	if data.ItemCount != 1 || data.Subtotal != "10.00" || !data.Persisted {
		t.Fatalf("unexpected cart after add: %+v", data)
	}
	data = decodeCart(t, doJSON(t, r, http.MethodPost, "/api/v1/cart/items", photoBody(2)))
	if data.ItemCount != 3 || len(data.Items) != 1 || data.Subtotal != "30.00" {
		t.Fatalf("unexpected cart after second add: %+v", data)
	}
	lineID := data.Items[0].ID

	count := doJSON(t, r, http.MethodGet, "/api/v1/cart/count", nil)
	if !strings.Contains(string(count.Data), `"item_count":3`) {
		t.Fatalf("unexpected count: %s", count.Data)
	}

	data = decodeCart(t, doJSON(t, r, http.MethodPut, "/api/v1/cart/items/"+lineID, gin.H{"quantity": 5}))
	if data.ItemCount != 5 || data.Subtotal != "50.00" {
		t.Fatalf("unexpected cart after update: %+v", data)
	}

	data = decodeCart(t, doJSON(t, r, http.MethodPut, "/api/v1/cart/items/"+lineID, gin.H{"quantity": -3}))
	if data.ItemCount != 0 || len(data.Items) != 0 {
		t.Fatalf("negative quantity should remove the line: %+v", data)
	}

	data = decodeCart(t, doJSON(t, r, http.MethodDelete, "/api/v1/cart/items/unknown", nil))
	if data.ItemCount != 0 {
		t.Fatalf("unknown line delete should be a no-op: %+v", data)
	}
}

func TestCartRoutesRejectInvalidInput(t *testing.T) {
	r, _ := newTestEngine(t, "")

	if resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/items", photoBody(0)); resp.StatusCode != 400 {
		t.Fatalf("zero quantity add want 400 got %d", resp.StatusCode)
	}
	if resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/items", gin.H{"product": gin.H{"title": "no id"}}); resp.StatusCode != 400 {
		t.Fatalf("missing product identity want 400 got %d", resp.StatusCode)
	}
	decodeCart(t, doJSON(t, r, http.MethodPost, "/api/v1/cart/items", photoBody(1)))
	if resp := doJSON(t, r, http.MethodPut, "/api/v1/cart/items/photo-42", gin.H{"quantity": "many"}); resp.StatusCode != 400 {
		t.Fatalf("non-numeric quantity want 400 got %d", resp.StatusCode)
	}
	if resp := doJSON(t, r, http.MethodPut, "/api/v1/cart/items/photo-42", gin.H{}); resp.StatusCode != 400 {
		t.Fatalf("missing quantity want 400 got %d", resp.StatusCode)
	}
}

func TestCheckoutRoutesFlow(t *testing.T) {
	payment := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		var payload map[string]interface{}
		_ = json.NewDecoder(req.Body).Decode(&payload)
		if entries, ok := payload["cart"].([]interface{}); !ok || len(entries) != 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"clientSecret":"pi_1_secret"}`))
	}))
	defer payment.Close()
	r, _ := newTestEngine(t, payment.URL)

	if resp := doJSON(t, r, http.MethodPost, "/api/v1/checkout/payment-intent", gin.H{}); resp.StatusCode != 400 {
		t.Fatalf("empty cart checkout want 400 got %d", resp.StatusCode)
	}

	decodeCart(t, doJSON(t, r, http.MethodPost, "/api/v1/cart/items", photoBody(2)))
	resp := doJSON(t, r, http.MethodPost, "/api/v1/checkout/payment-intent", gin.H{"save_info": true})
	if resp.StatusCode != 0 || !strings.Contains(string(resp.Data), `"client_secret":"pi_1_secret"`) {
		t.Fatalf("unexpected payment intent response: %d %s", resp.StatusCode, resp.Data)
	}

	pending := doJSON(t, r, http.MethodPost, "/api/v1/checkout/complete", gin.H{"payment_ref": "pi_1", "status": "processing"})
	if pending.StatusCode != 0 || !strings.Contains(string(pending.Data), "processing") {
		t.Fatalf("pending payment should not complete: %s", pending.Data)
	}
	if data := decodeCart(t, doJSON(t, r, http.MethodGet, "/api/v1/cart", nil)); data.ItemCount != 2 {
		t.Fatalf("pending payment must keep the cart, got %d", data.ItemCount)
	}

	done := doJSON(t, r, http.MethodPost, "/api/v1/checkout/complete", gin.H{"payment_ref": "pi_1", "status": "succeeded"})
	if done.StatusCode != 0 {
		t.Fatalf("complete failed: %d %s", done.StatusCode, done.Msg)
	}
	if data := decodeCart(t, doJSON(t, r, http.MethodGet, "/api/v1/cart", nil)); data.ItemCount != 0 {
		t.Fatalf("cart should be cleared after checkout, got %d", data.ItemCount)
	}

	receipts := doJSON(t, r, http.MethodGet, "/api/v1/checkout/receipts", nil)
	if receipts.StatusCode != 0 || !strings.Contains(string(receipts.Data), `"items":[]`) {
		t.Fatalf("receipts without database should be empty: %s", receipts.Data)
	}
}

func TestCheckoutRoutesPaymentFailure(t *testing.T) {
	payment := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer payment.Close()
	r, _ := newTestEngine(t, payment.URL)

	decodeCart(t, doJSON(t, r, http.MethodPost, "/api/v1/cart/items", photoBody(1)))
	if resp := doJSON(t, r, http.MethodPost, "/api/v1/checkout/payment-intent", gin.H{}); resp.StatusCode != 502 {
		t.Fatalf("remote failure want 502 got %d", resp.StatusCode)
	}
}

func TestGalleryRoutes(t *testing.T) {
	r, _ := newTestEngine(t, "")

	access := doJSON(t, r, http.MethodGet, "/api/v1/gallery/access", nil)
	if !strings.Contains(string(access.Data), `"decision":"no_ticket"`) || !strings.Contains(string(access.Data), "/gallery/gate") {
		t.Fatalf("unexpected access view: %s", access.Data)
	}
	if resp := doJSON(t, r, http.MethodGet, "/api/v1/gallery/items", nil); resp.StatusCode != 403 {
		t.Fatalf("gated route without ticket want 403 got %d", resp.StatusCode)
	}

	expiresAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	stored := doJSON(t, r, http.MethodPost, "/api/v1/gallery/access", gin.H{"code": "X9", "expiresAt": expiresAt})
	if stored.StatusCode != 0 {
		t.Fatalf("store ticket failed: %d %s", stored.StatusCode, stored.Msg)
	}
	if resp := doJSON(t, r, http.MethodGet, "/api/v1/gallery/items", nil); resp.StatusCode != 0 {
		t.Fatalf("gated route with ticket want 0 got %d", resp.StatusCode)
	}

	expired := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	if resp := doJSON(t, r, http.MethodPost, "/api/v1/gallery/access", gin.H{"code": "X9", "expiresAt": expired}); resp.StatusCode != 400 {
		t.Fatalf("expired ticket want 400 got %d", resp.StatusCode)
	}

	doJSON(t, r, http.MethodDelete, "/api/v1/gallery/access", nil)
	if resp := doJSON(t, r, http.MethodGet, "/api/v1/gallery/items", nil); resp.StatusCode != 403 {
		t.Fatalf("cleared ticket want 403 got %d", resp.StatusCode)
	}
}

func TestCartEventsStream(t *testing.T) {
	r, c := newTestEngine(t, "")
	server := httptest.NewServer(r)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/cart/events", nil)
	if err != nil {
		t.Fatalf("build request failed: %v", err)
	}
	req.Header.Set(constants.CartSessionHeader, testSession)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream failed: %v", err)
	}
	defer resp.Body.Close()
	reader := bufio.NewReader(resp.Body)

	first := readEventData(t, reader)
	if !strings.Contains(first, `"item_count":0`) {
		t.Fatalf("initial snapshot should be empty, got %s", first)
	}

	store, release, err := c.CartManager.Acquire(context.Background(), testSession)
	if err != nil {
		t.Fatalf("acquire store failed: %v", err)
	}
	defer release()
	product := models.ProductSnapshot{ID: "42", Type: "photo", Price: "10.00"}
	if err := store.AddItem(context.Background(), product, 2, nil); err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	next := readEventData(t, reader)
	if !strings.Contains(next, `"item_count":2`) {
		t.Fatalf("mutation snapshot should be pushed, got %s", next)
	}
}

func readEventData(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream failed: %v", err)
		}
		if strings.HasPrefix(line, "data:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func TestHealthReportsBackends(t *testing.T) {
	r, _ := newTestEngine(t, "")
	resp := doJSON(t, r, http.MethodGet, "/health", nil)
	if resp.StatusCode != 0 {
		t.Fatalf("unexpected health response: %+v", resp)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode health failed: %v", err)
	}
	if data["cart_storage"] != "memory" || data["redis"] != "disabled" || data["queue_enabled"] != false {
		t.Fatalf("unexpected health data: %v", data)
	}
}
