package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/Justjoseph0/e-commerce-backend/auth"
	"github.com/Justjoseph0/e-commerce-backend/config"
	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/Justjoseph0/e-commerce-backend/notify"
	"github.com/Justjoseph0/e-commerce-backend/payment"
	"github.com/Justjoseph0/e-commerce-backend/testutil"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type server struct {
	t        *testing.T
	db       *gorm.DB
	gw       *testutil.FakeGateway
	notifier *testutil.RecordingNotifier
	router   *gin.Engine
}

func newServer(t *testing.T) *server {
	gin.SetMode(gin.TestMode)
	s := &server{
		t:        t,
		db:       testutil.NewDB(t),
		gw:       testutil.NewFakeGateway(),
		notifier: &testutil.RecordingNotifier{},
		router:   gin.New(),
	}
	SetupRoutes(s.router, Deps{
		DB:       s.db,
		Config:   &config.Config{JWTSecret: testutil.JWTSecret, PaymentCallbackURL: "https://shop.example/cb"},
		Gateway:  s.gw,
		Notifier: s.notifier,
		Hub:      notify.NewHub(nil),
	})
	return s
}

func (s *server) do(method, path, token string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func expect(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d: %s", w.Code, status, w.Body.String())
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	expect(t, s.do(http.MethodGet, "/health", "", nil, nil), http.StatusOK)
}

func TestUserRoutesNeedToken(t *testing.T) {
	s := newServer(t)
	expect(t, s.do(http.MethodGet, "/user/cart", "", nil, nil), http.StatusUnauthorized)
	expect(t, s.do(http.MethodGet, "/user/cart", "Bearer not-a-jwt", nil, nil), http.StatusUnauthorized)

	other, err := auth.IssueToken("some-other-secret", "u1", "u1@example.com", auth.RoleCustomer, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expect(t, s.do(http.MethodGet, "/user/cart", "Bearer "+other, nil, nil), http.StatusUnauthorized)

	w := s.do(http.MethodGet, "/user/cart", testutil.Token(t, "u1", auth.RoleCustomer), nil, nil)
	expect(t, w, http.StatusOK)

	// first authenticated request creates the local user
	var user models.User
	if err := s.db.First(&user, "id = ?", "u1").Error; err != nil || user.Email != "u1@example.com" {
		t.Fatalf("user = %+v, %v", user, err)
	}
}

func TestAdminRoutesNeedCapability(t *testing.T) {
	s := newServer(t)
	customer := testutil.Token(t, "u1", auth.RoleCustomer)

	expect(t, s.do(http.MethodPost, "/admin/products", customer, gin.H{"name": "X", "price": "1"}, nil), http.StatusForbidden)
	expect(t, s.do(http.MethodGet, "/admin/orders", customer, nil, nil), http.StatusForbidden)
	expect(t, s.do(http.MethodPut, "/admin/orders/ORD-x/delivery-status", customer, gin.H{"delivery_status": "Shipped"}, nil), http.StatusForbidden)
	expect(t, s.do(http.MethodGet, "/admin/orders", "", nil, nil), http.StatusUnauthorized)

	// websocket clients pass the token in the query string
	token := customer[len("Bearer "):]
	expect(t, s.do(http.MethodGet, "/admin/orders/ws?token="+url.QueryEscape(token), "", nil, nil), http.StatusForbidden)

	admin := testutil.Token(t, "boss", auth.RoleAdmin)
	expect(t, s.do(http.MethodGet, "/admin/orders", admin, nil, nil), http.StatusOK)

	// only the websocket feed reads ?token=
	adminToken := url.QueryEscape(admin[len("Bearer "):])
	expect(t, s.do(http.MethodGet, "/admin/orders?token="+adminToken, "", nil, nil), http.StatusUnauthorized)
	expect(t, s.do(http.MethodGet, "/admin/users?token="+adminToken, "", nil, nil), http.StatusUnauthorized)
	// authenticated, then rejected by the upgrader for not being a websocket handshake
	expect(t, s.do(http.MethodGet, "/admin/orders/ws?token="+adminToken, "", nil, nil), http.StatusBadRequest)
}

func TestImageUploadWithoutStore(t *testing.T) {
	s := newServer(t)
	admin := testutil.Token(t, "boss", auth.RoleAdmin)
	expect(t, s.do(http.MethodPost, "/admin/products/1/image", admin, nil, nil), http.StatusServiceUnavailable)
}

func TestWebhookSignature(t *testing.T) {
	s := newServer(t)
	body := []byte(`{"event":"charge.success","data":{"id":1,"reference":"ORD-x","status":"success"}}`)

	bad := http.Header{}
	bad.Set(payment.SignatureHeader, payment.Sign("wrong-secret", body))
	expect(t, s.do(http.MethodPost, "/payment/webhook", "", body, bad), http.StatusUnauthorized)
	expect(t, s.do(http.MethodPost, "/payment/webhook", "", body, nil), http.StatusUnauthorized)

	// authentic but for an order that does not exist
	signed, header := testutil.SignedWebhook(string(body))
	expect(t, s.do(http.MethodPost, "/payment/webhook", "", signed, header), http.StatusNotFound)

	ignored, header := testutil.SignedWebhook(`{"event":"subscription.create","data":{"id":9}}`)
	expect(t, s.do(http.MethodPost, "/payment/webhook", "", ignored, header), http.StatusOK)
}

func TestInsufficientStockResponse(t *testing.T) {
	s := newServer(t)
	mug := testutil.CreateNonSizedProduct(t, s.db, "Mug", "3.00", 2)
	customer := testutil.Token(t, "u1", auth.RoleCustomer)

	w := s.do(http.MethodPost, "/user/cart", customer, gin.H{"product_id": mug.ID, "quantity": 3}, nil)
	expect(t, w, http.StatusBadRequest)
	var body struct {
		Error     string `json:"error"`
		Available int    `json:"available"`
	}
	decode(t, w, &body)
	if body.Available != 2 || body.Error == "" {
		t.Fatalf("body = %+v", body)
	}
}

func TestPurchaseToReviewFlow(t *testing.T) {
	s := newServer(t)
	admin := testutil.Token(t, "boss", auth.RoleAdmin)
	customer := testutil.Token(t, "u1", auth.RoleCustomer)

	// admin lists a sized product with five mediums
	w := s.do(http.MethodPost, "/admin/products", admin, gin.H{
		"name": "Field Jacket", "price": "80.00", "discounted_price": "64.99", "product_type": "sized",
		"sizes": []gin.H{{"size": "M", "quantity": 5}, {"size": "L", "quantity": 1}},
	}, nil)
	expect(t, w, http.StatusCreated)
	var product models.Product
	decode(t, w, &product)

	w = s.do(http.MethodGet, "/products/field-jacket", "", nil, nil)
	expect(t, w, http.StatusOK)

	// customer saves an address and buys two mediums
	w = s.do(http.MethodPost, "/user/addresses", customer, gin.H{
		"recipient_name": "Ada", "line1": "1 Main St", "city": "Lagos", "country": "NG",
	}, nil)
	expect(t, w, http.StatusCreated)
	var address models.Address
	decode(t, w, &address)

	expect(t, s.do(http.MethodPost, "/user/cart", customer, gin.H{"product_id": product.ID, "quantity": 2, "size": "m"}, nil), http.StatusCreated)

	w = s.do(http.MethodPost, "/user/checkout", customer, gin.H{"address_id": address.ID}, nil)
	expect(t, w, http.StatusCreated)
	var checkout struct {
		Order         models.Order `json:"order"`
		Authorization struct {
			AuthorizationURL string `json:"authorization_url"`
		} `json:"authorization"`
	}
	decode(t, w, &checkout)
	ref := checkout.Order.Reference
	if checkout.Order.TotalAmount.String() != "129.98" || checkout.Authorization.AuthorizationURL == "" {
		t.Fatalf("checkout = %+v", checkout)
	}
	if got := testutil.SizeStock(t, s.db, product.ID, models.SizeM); got != 3 {
		t.Fatalf("M stock = %d, want 3", got)
	}

	// delivery cannot move before payment
	expect(t, s.do(http.MethodPut, "/admin/orders/"+ref+"/delivery-status", admin, gin.H{"delivery_status": "Processing"}, nil), http.StatusBadRequest)

	// gateway confirms payment, twice
	body, header := testutil.SignedWebhook(fmt.Sprintf(
		`{"event":"charge.success","data":{"id":77,"reference":%q,"status":"success"}}`, ref))
	expect(t, s.do(http.MethodPost, "/payment/webhook", "", body, header), http.StatusOK)
	w = s.do(http.MethodPost, "/payment/webhook", "", body, header)
	expect(t, w, http.StatusOK)
	var dup struct {
		Action string `json:"action"`
	}
	decode(t, w, &dup)
	if dup.Action != "duplicate" {
		t.Fatalf("redelivery action = %q", dup.Action)
	}

	w = s.do(http.MethodGet, "/user/orders/"+ref, customer, nil, nil)
	expect(t, w, http.StatusOK)
	var order models.Order
	decode(t, w, &order)
	if order.Status != models.PaymentSuccess {
		t.Fatalf("status = %s", order.Status)
	}

	// nothing to review until delivery
	w = s.do(http.MethodGet, "/user/reviews/eligible", customer, nil, nil)
	expect(t, w, http.StatusOK)
	var eligible []map[string]interface{}
	decode(t, w, &eligible)
	if len(eligible) != 0 {
		t.Fatalf("eligible before delivery = %v", eligible)
	}

	expect(t, s.do(http.MethodPut, "/admin/orders/"+ref+"/delivery-status", admin, gin.H{"delivery_status": "Delivered"}, nil), http.StatusOK)

	w = s.do(http.MethodGet, "/user/reviews/eligible", customer, nil, nil)
	expect(t, w, http.StatusOK)
	decode(t, w, &eligible)
	if len(eligible) != 1 || eligible[0]["size"] != "M" {
		t.Fatalf("eligible = %v", eligible)
	}
	itemID := uint(eligible[0]["order_item_id"].(float64))

	expect(t, s.do(http.MethodPost, "/user/reviews", customer, gin.H{"order_item_id": itemID, "rating": 5, "comment": "warm"}, nil), http.StatusCreated)
	expect(t, s.do(http.MethodPost, "/user/reviews", customer, gin.H{"order_item_id": itemID, "rating": 4}, nil), http.StatusBadRequest)

	w = s.do(http.MethodGet, fmt.Sprintf("/products/%d/reviews", product.ID), "", nil, nil)
	expect(t, w, http.StatusOK)
	var reviews struct {
		Count   int     `json:"count"`
		Average float64 `json:"average"`
	}
	decode(t, w, &reviews)
	if reviews.Count != 1 || reviews.Average != 5 {
		t.Fatalf("reviews = %+v", reviews)
	}

	// a second customer cannot see the order
	other := testutil.Token(t, "u2", auth.RoleCustomer)
	expect(t, s.do(http.MethodGet, "/user/orders/"+ref, other, nil, nil), http.StatusNotFound)
	expect(t, s.do(http.MethodGet, "/user/payment/verify/"+ref, other, nil, nil), http.StatusNotFound)
}

func TestCheckoutGatewayDownReturnsReference(t *testing.T) {
	s := newServer(t)
	mug := testutil.CreateNonSizedProduct(t, s.db, "Mug", "3.00", 2)
	customer := testutil.Token(t, "u1", auth.RoleCustomer)
	s.do(http.MethodGet, "/user/", customer, nil, nil)
	addr := testutil.CreateAddress(t, s.db, "u1")
	s.gw.InitErr = &payment.GatewayError{Op: "initialize", Detail: "gateway unreachable", Retryable: true}

	expect(t, s.do(http.MethodPost, "/user/cart", customer, gin.H{"product_id": mug.ID}, nil), http.StatusCreated)
	w := s.do(http.MethodPost, "/user/checkout", customer, gin.H{"address_id": addr.ID}, nil)
	expect(t, w, http.StatusBadGateway)
	var body struct {
		Retryable bool   `json:"retryable"`
		Reference string `json:"reference"`
	}
	decode(t, w, &body)
	if !body.Retryable || body.Reference == "" {
		t.Fatalf("body = %+v", body)
	}

	// retrying by reference reuses the order and its stock reservation
	s.gw.InitErr = nil
	w = s.do(http.MethodPost, "/user/orders/"+body.Reference+"/pay", customer, nil, nil)
	expect(t, w, http.StatusOK)
	var paid struct {
		Authorization struct {
			AuthorizationURL string `json:"authorization_url"`
		} `json:"authorization"`
	}
	decode(t, w, &paid)
	if paid.Authorization.AuthorizationURL != "https://pay.example/"+body.Reference {
		t.Fatalf("retry = %s", w.Body.String())
	}
	if got := testutil.ProductStock(t, s.db, mug.ID); got != 1 {
		t.Fatalf("mug stock = %d, want 1", got)
	}

	other := testutil.Token(t, "u2", auth.RoleCustomer)
	expect(t, s.do(http.MethodPost, "/user/orders/"+body.Reference+"/pay", other, nil, nil), http.StatusNotFound)
}
