package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/tgwork/internal/auth"
	"github.com/sudo-init-do/tgwork/internal/events"
	"github.com/sudo-init-do/tgwork/internal/models"
	"github.com/sudo-init-do/tgwork/internal/store"
	"github.com/sudo-init-do/tgwork/internal/validation"
)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	e   *echo.Echo
	st  *store.Memory
	h   *Handler
	rec *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	e := echo.New()
	e.Validator = validation.New()

	st := store.NewMemory()
	for _, u := range []models.User{
		{Email: "free@example.com", Name: "Fran", AccountType: models.Freelancer},
		{Email: "client@example.com", Name: "Cleo", AccountType: models.Client},
		{Email: "other@example.com", Name: "Otto", AccountType: models.Freelancer},
	} {
		u := u
		u.ApplyDefaults()
		require.NoError(t, st.Create(context.Background(), &u))
	}

	n := 0
	rec := &recorder{}
	h := &Handler{
		Store:  st,
		Events: rec,
		Log:    zap.NewNop(),
		Now:    func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	}
	return &fixture{e: e, st: st, h: h, rec: rec}
}

// call runs fn as the given user and returns the recorder.
func (f *fixture) call(t *testing.T, fn echo.HandlerFunc, method, target, body, email string, at models.AccountType, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := f.e.NewContext(req, rec)
	if len(params) > 0 {
		var names, values []string
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if email != "" {
		auth.SetIdentity(c, &auth.Claims{Email: email, AccountType: at})
	}
	require.NoError(t, fn(c))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestCreateService(t *testing.T) {
	f := newFixture(t)
	rec := f.call(t, f.h.CreateService, http.MethodPost, "/api/services",
		`{"title":"Landing page","description":"one page","category":"web","price":150}`,
		"free@example.com", models.Freelancer)
	require.Equal(t, http.StatusCreated, rec.Code)

	var svc models.Service
	require.NoError(t, json.Unmarshal(decodeBody(t, rec)["service"], &svc))
	assert.Equal(t, "id-1", svc.ID)
	assert.Equal(t, models.ServiceActive, svc.Status)
	assert.Equal(t, "free@example.com", svc.AuthorEmail)

	u, err := f.st.Get(context.Background(), "free@example.com")
	require.NoError(t, err)
	require.Len(t, u.Services, 1)
	assert.Equal(t, 150.0, u.Services[0].Price)
	assert.Equal(t, []events.Type{events.ServiceCreated}, f.rec.types())
}

func TestCreateService_Invalid(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"missing title":    `{"category":"web","price":10}`,
		"zero price":       `{"title":"x","category":"web","price":0}`,
		"unknown category": `{"title":"x","category":"cooking","price":10}`,
		"bad json":         `{"title":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.call(t, f.h.CreateService, http.MethodPost, "/api/services", body, "free@example.com", models.Freelancer)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, f.rec.types())
}

func TestCreateService_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	rec := f.call(t, f.h.CreateService, http.MethodPost, "/api/services", `{}`, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteService_SoftDeletes(t *testing.T) {
	f := newFixture(t)
	f.call(t, f.h.CreateService, http.MethodPost, "/api/services",
		`{"title":"Logo","category":"design","price":40}`, "free@example.com", models.Freelancer)

	rec := f.call(t, f.h.DeleteService, http.MethodDelete, "/api/services/id-1", "", "free@example.com", models.Freelancer, "id", "id-1")
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := f.st.Get(context.Background(), "free@example.com")
	require.NoError(t, err)
	require.Len(t, u.Services, 1)
	assert.Equal(t, models.ServiceDeleted, u.Services[0].Status)
	assert.Empty(t, u.ActiveServices())

	again := f.call(t, f.h.DeleteService, http.MethodDelete, "/api/services/id-1", "", "free@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusNotFound, again.Code)
	assert.Equal(t, []events.Type{events.ServiceCreated, events.ServiceDeleted}, f.rec.types())
}

func TestDeleteService_OtherOwner(t *testing.T) {
	f := newFixture(t)
	f.call(t, f.h.CreateService, http.MethodPost, "/api/services",
		`{"title":"Logo","category":"design","price":40}`, "free@example.com", models.Freelancer)

	rec := f.call(t, f.h.DeleteService, http.MethodDelete, "/api/services/id-1", "", "other@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	u, err := f.st.Get(context.Background(), "free@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.ServiceActive, u.Services[0].Status)
}

func TestUpdateServiceStatus(t *testing.T) {
	f := newFixture(t)
	f.call(t, f.h.CreateService, http.MethodPost, "/api/services",
		`{"title":"Logo","category":"design","price":40}`, "free@example.com", models.Freelancer)

	rec := f.call(t, f.h.UpdateServiceStatus, http.MethodPost, "/", `{"status":"completed"}`, "free@example.com", models.Freelancer, "id", "id-1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.call(t, f.h.UpdateServiceStatus, http.MethodPost, "/", `{"status":"active"}`, "free@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteCompletedItems_Conflict(t *testing.T) {
	f := newFixture(t)
	f.call(t, f.h.CreateService, http.MethodPost, "/api/services",
		`{"title":"Logo","category":"design","price":40}`, "free@example.com", models.Freelancer)
	f.call(t, f.h.UpdateServiceStatus, http.MethodPost, "/", `{"status":"completed"}`, "free@example.com", models.Freelancer, "id", "id-1")

	rec := f.call(t, f.h.DeleteService, http.MethodDelete, "/", "", "free@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = f.call(t, f.h.UpdateServiceStatus, http.MethodPost, "/", `{"status":"deleted"}`, "free@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	u, err := f.st.Get(context.Background(), "free@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.ServiceCompleted, u.Services[0].Status)
	assert.Equal(t, []events.Type{events.ServiceCreated}, f.rec.types())
}

func TestOrdersLifecycle(t *testing.T) {
	f := newFixture(t)
	rec := f.call(t, f.h.CreateOrder, http.MethodPost, "/api/orders",
		`{"title":"Fix CSS","category":"web","budget":80}`, "client@example.com", models.Client)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.call(t, f.h.GetUserOrders, http.MethodGet, "/api/orders/me", "", "client@example.com", models.Client)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(decodeBody(t, rec)["orders"], &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, models.OrderOpen, orders[0].Status)

	rec = f.call(t, f.h.UpdateOrderStatus, http.MethodPost, "/", `{"status":"completed"}`, "client@example.com", models.Client, "id", "id-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = f.call(t, f.h.UpdateOrderStatus, http.MethodPost, "/", `{"status":"in_progress"}`, "client@example.com", models.Client, "id", "id-1")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = f.call(t, f.h.UpdateOrderStatus, http.MethodPost, "/", `{"status":"completed"}`, "client@example.com", models.Client, "id", "id-1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.call(t, f.h.DeleteOrder, http.MethodDelete, "/", "", "client@example.com", models.Client, "id", "id-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteOrder_HidesFromMine(t *testing.T) {
	f := newFixture(t)
	f.call(t, f.h.CreateOrder, http.MethodPost, "/api/orders",
		`{"title":"Fix CSS","category":"web","budget":80}`, "client@example.com", models.Client)
	rec := f.call(t, f.h.DeleteOrder, http.MethodDelete, "/", "", "client@example.com", models.Client, "id", "id-1")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.call(t, f.h.GetUserOrders, http.MethodGet, "/api/orders/me", "", "client@example.com", models.Client)
	assert.JSONEq(t, `[]`, string(decodeBody(t, rec)["orders"]))
	assert.Equal(t, []events.Type{events.OrderCreated, events.OrderDeleted}, f.rec.types())
}

func TestPlaceBid(t *testing.T) {
	f := newFixture(t)
	f.call(t, f.h.CreateOrder, http.MethodPost, "/api/orders",
		`{"title":"Fix CSS","category":"web","budget":80}`, "client@example.com", models.Client)

	rec := f.call(t, f.h.PlaceBid, http.MethodPost, "/", `{"message":"I can do it today"}`, "free@example.com", models.Freelancer, "id", "id-1")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.call(t, f.h.PlaceBid, http.MethodPost, "/", `{"message":"again"}`, "free@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.call(t, f.h.PlaceBid, http.MethodPost, "/", `{"message":"mine"}`, "client@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.call(t, f.h.PlaceBid, http.MethodPost, "/", `{"message":"hi"}`, "free@example.com", models.Freelancer, "id", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.call(t, f.h.ListBids, http.MethodGet, "/", "", "client@example.com", models.Client, "id", "id-1")
	require.Equal(t, http.StatusOK, rec.Code)
	var bids []models.Bid
	require.NoError(t, json.Unmarshal(decodeBody(t, rec)["bids"], &bids))
	require.Len(t, bids, 1)
	assert.Equal(t, "free@example.com", bids[0].FreelancerEmail)
	assert.Equal(t, "id-1", bids[0].OrderID)

	rec = f.call(t, f.h.ListBids, http.MethodGet, "/", "", "free@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var last events.Event
	f.rec.mu.Lock()
	last = f.rec.events[len(f.rec.events)-1]
	f.rec.mu.Unlock()
	assert.Equal(t, events.BidPlaced, last.Type)
	assert.Equal(t, "client@example.com", last.Subject)
	assert.Equal(t, "free@example.com", last.Actor)
}

func TestPlaceBid_ClosedOrder(t *testing.T) {
	f := newFixture(t)
	f.call(t, f.h.CreateOrder, http.MethodPost, "/api/orders",
		`{"title":"Fix CSS","category":"web","budget":80}`, "client@example.com", models.Client)
	f.call(t, f.h.UpdateOrderStatus, http.MethodPost, "/", `{"status":"in_progress"}`, "client@example.com", models.Client, "id", "id-1")

	rec := f.call(t, f.h.PlaceBid, http.MethodPost, "/", `{"message":"late"}`, "free@example.com", models.Freelancer, "id", "id-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLeaveReview(t *testing.T) {
	f := newFixture(t)
	rec := f.call(t, f.h.LeaveReview, http.MethodPost, "/", `{"rating":3}`, "client@example.com", models.Client, "email", "free@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = f.call(t, f.h.LeaveReview, http.MethodPost, "/", `{"rating":4}`, "other@example.com", models.Freelancer, "email", "FREE@example.com")
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := f.st.Get(context.Background(), "free@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, u.Reviews)
	assert.InDelta(t, 3.5, u.Rating, 1e-9)

	rec = f.call(t, f.h.LeaveReview, http.MethodPost, "/", `{"rating":5}`, "free@example.com", models.Freelancer, "email", "free@example.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.call(t, f.h.LeaveReview, http.MethodPost, "/", `{"rating":6}`, "client@example.com", models.Client, "email", "free@example.com")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.call(t, f.h.LeaveReview, http.MethodPost, "/", `{"rating":5}`, "client@example.com", models.Client, "email", "ghost@example.com")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedHandler(t *testing.T) {
	f := newFixture(t)
	f.call(t, f.h.CreateService, http.MethodPost, "/api/services",
		`{"title":"Landing","category":"web","price":100}`, "free@example.com", models.Freelancer)
	f.call(t, f.h.CreateOrder, http.MethodPost, "/api/orders",
		`{"title":"Fix CSS","category":"web","budget":80}`, "client@example.com", models.Client)

	rec := f.call(t, f.h.Feed, http.MethodGet, "/api/marketplace?category=web", "", "other@example.com", models.Freelancer)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.JSONEq(t, `"services"`, string(body["kind"]))
	var items []Listing
	require.NoError(t, json.Unmarshal(body["items"], &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Landing", items[0].Title)

	// a client's own order is not in their feed
	rec = f.call(t, f.h.Feed, http.MethodGet, "/api/marketplace", "", "client@example.com", models.Client)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.JSONEq(t, `"orders"`, string(body["kind"]))
	assert.JSONEq(t, `[]`, string(body["items"]))

	rec = f.call(t, f.h.Feed, http.MethodGet, "/api/marketplace?kind=orders", "", "free@example.com", models.Freelancer)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(decodeBody(t, rec)["items"], &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Fix CSS", items[0].Title)

	rec = f.call(t, f.h.Feed, http.MethodGet, "/api/marketplace?kind=gigs", "", "other@example.com", models.Freelancer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.call(t, f.h.Feed, http.MethodGet, "/api/marketplace?category=cooking", "", "other@example.com", models.Freelancer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceBid_DuplicatedOrderIDRefused(t *testing.T) {
	f := newFixture(t)
	for _, email := range []string{"client@example.com", "other@example.com"} {
		_, err := f.st.Update(context.Background(), email, func(u *models.User) error {
			u.Orders = append(u.Orders, models.Order{ID: "dup", Title: "x", Category: "web", AuthorEmail: email, Status: models.OrderOpen})
			return nil
		})
		require.NoError(t, err)
	}

	rec := f.call(t, f.h.PlaceBid, http.MethodPost, "/", `{"message":"hi"}`, "free@example.com", models.Freelancer, "id", "dup")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.rec.types())
}
