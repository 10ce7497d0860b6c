package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sunflower_web/internal/adapters/backend"
	httpserver "sunflower_web/internal/adapters/http_server"
	"sunflower_web/internal/session"
)

// fakeBackend serves canned JSON by "METHOD path" and records every call.
type fakeBackend struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []recorded
}

type reply struct {
	status int
	body   string
}

type recorded struct {
	Key  string
	Auth string
	Body map[string]any
}

func (f *fakeBackend) on(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[key] = reply{status, body}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	rec := recorded{Key: key, Auth: r.Header.Get("Authorization")}
	_ = json.NewDecoder(r.Body).Decode(&rec.Body)

	f.mu.Lock()
	f.calls = append(f.calls, rec)
	rp, ok := f.replies[key]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rp.status)
	_, _ = w.Write([]byte(rp.body))
}

func (f *fakeBackend) find(key string) (recorded, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Key == key {
			return c, true
		}
	}
	return recorded{}, false
}

func (f *fakeBackend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type harness struct {
	t       *testing.T
	handler http.Handler
	api     *fakeBackend
	repo    *session.MemoryRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := &fakeBackend{replies: map[string]reply{}}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	cl, err := backend.New(ts.URL, 0, nil)
	require.NoError(t, err)
	repo := session.NewMemoryRepository()
	h, err := httpserver.NewHandlers(httpserver.Deps{
		Backend:    cl,
		Sessions:   repo,
		CacheTTL:   time.Minute,
		SessionTTL: time.Hour,
	})
	require.NoError(t, err)

	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(h)
	return &harness{t: t, handler: srv.Mux(), api: api, repo: repo}
}

// login seeds a session and returns its id cookie.
func (h *harness) login(s session.Session) *http.Cookie {
	sid := uuid.NewString()
	require.NoError(h.t, h.repo.Save(context.Background(), sid, s))
	return &http.Cookie{Name: "sf_sid", Value: sid}
}

func (h *harness) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.handler.ServeHTTP(rr, req)
	return rr
}

func viewOf(rr *httptest.ResponseRecorder) string {
	body := rr.Body.String()
	i := strings.Index(body, `data-view="`)
	if i < 0 {
		return ""
	}
	rest := body[i+len(`data-view="`):]
	return rest[:strings.IndexByte(rest, '"')]
}

func cookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rr := h.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestUnknownViewFallsBackToLogin(t *testing.T) {
	h := newHarness(t)
	rr := h.do(http.MethodGet, "/views/no-such-view", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "login", viewOf(rr))
	assert.Contains(t, rr.Body.String(), `href="/views/login" class="active"`)

	sid := cookie(rr, "sf_sid")
	require.NotNil(t, sid)
	_, err := uuid.Parse(sid.Value)
	assert.NoError(t, err)
	assert.Equal(t, "login", cookie(rr, "sf_view").Value)
}

func TestUnknownViewMarksLoginActiveWhenLoggedIn(t *testing.T) {
	for _, s := range []session.Session{
		{Token: "t", Role: session.RoleClient, ClientID: 12},
		{Token: "t", Role: session.RoleEmployee, EmployeeID: 4},
	} {
		h := newHarness(t)
		sid := h.login(s)
		rr := h.do(http.MethodGet, "/views/no-such-view", nil, sid)
		assert.Equal(t, "login", viewOf(rr), "role %s", s.Role)
		assert.Equal(t, 1, strings.Count(rr.Body.String(), `class="active"`), "role %s", s.Role)
		assert.Contains(t, rr.Body.String(), `href="/views/login" class="active"`, "role %s", s.Role)
	}
}

func TestAnonymousStartShowsLogin(t *testing.T) {
	h := newHarness(t)
	rr := h.do(http.MethodGet, "/", nil)
	assert.Equal(t, "login", viewOf(rr))
	assert.Zero(t, h.api.count())
}

func TestMagicLinkLogsInOnceAndLands(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET /admin/hotelchains", 200, `[{"id":1,"name":"Sun"}]`)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 4, "employeeId": 4, "role": "employee"}).
		SignedString([]byte("k"))
	require.NoError(t, err)

	q := url.Values{"token": {tok}, "role": {"employee"}, "admin": {"true"}}
	rr := h.do(http.MethodGet, "/?"+q.Encode(), nil)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	sid := cookie(rr, "sf_sid")
	require.NotNil(t, sid)

	s, ok, err := h.repo.Load(context.Background(), sid.Value)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, session.RoleEmployee, s.Role)
	assert.True(t, s.IsAdmin)
	assert.Equal(t, int64(4), s.EmployeeID)

	rr = h.do(http.MethodGet, "/", nil, sid)
	assert.Equal(t, "admin-dashboard", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "Sun")
	assert.Contains(t, rr.Body.String(), `href="/views/admin-dashboard" class="active"`)
}

func TestMagicLinkUnknownRoleIsIgnored(t *testing.T) {
	h := newHarness(t)
	rr := h.do(http.MethodGet, "/?token=abc&role=manager", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "login", viewOf(rr))

	s, ok, err := h.repo.Load(context.Background(), cookie(rr, "sf_sid").Value)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, s.LoggedIn())
}

func TestLogoutThenEmployeeViewRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	sid := h.login(session.Session{Token: "t", Role: session.RoleEmployee, EmployeeID: 4})

	rr := h.do(http.MethodPost, "/logout", url.Values{}, sid)
	assert.Equal(t, "login", viewOf(rr))

	rr = h.do(http.MethodGet, "/views/employee-dashboard", nil, sid)
	assert.Equal(t, "login", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "please log in")
	assert.Zero(t, h.api.count())
}

func TestWrongRoleStaysOnCurrentView(t *testing.T) {
	h := newHarness(t)
	sid := h.login(session.Session{Token: "t", Role: session.RoleClient, ClientID: 12})

	rr := h.do(http.MethodGet, "/views/admin-dashboard", nil, sid, &http.Cookie{Name: "sf_view", Value: "search"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "search", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "you do not have access")

	s, _, _ := h.repo.Load(context.Background(), sid.Value)
	assert.Equal(t, "t", s.Token)
}

func TestClientReservationsList(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET /clients/reservations", 200, `[
		{"reservationId":31,"hotelID":3,"roomId":7,"startDate":"2025-05-01T00:00:00Z","endDate":"2025-05-06T00:00:00Z","totalPrice":750,"status":1},
		{"reservationId":32,"hotelID":3,"roomId":8,"startDate":"2025-06-01T00:00:00Z","endDate":"2025-06-02T00:00:00Z","totalPrice":null,"status":3}
	]`)
	sid := h.login(session.Session{Token: "tok-c", Role: session.RoleClient, ClientID: 12})

	rr := h.do(http.MethodGet, "/views/client-reservations", nil, sid)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Equal(t, "client-reservations", viewOf(rr))
	assert.Contains(t, body, "750.00")
	assert.Contains(t, body, "Confirmed")
	assert.Contains(t, body, "Cancelled")
	assert.Contains(t, body, `/reservations/31/cancel`)
	assert.NotContains(t, body, `/reservations/32/cancel`)

	c, ok := h.api.find("GET /clients/reservations")
	require.True(t, ok)
	assert.Equal(t, "Bearer tok-c", c.Auth)
}

func TestLoaderFailureShowsPlaceholder(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET /clients/reservations", 500, `{"message":"database down"}`)
	sid := h.login(session.Session{Token: "t", Role: session.RoleClient, ClientID: 12})

	rr := h.do(http.MethodGet, "/views/client-reservations", nil, sid)
	body := rr.Body.String()
	assert.Equal(t, "client-reservations", viewOf(rr))
	assert.Contains(t, body, "database down")
	assert.Contains(t, body, "Could not load this list.")
}

func TestReserveRequiresClient(t *testing.T) {
	h := newHarness(t)
	form := url.Values{"roomId": {"7"}, "hotelId": {"3"}, "price": {"150"}, "startDate": {"2025-05-01"}, "endDate": {"2025-05-06"}}

	rr := h.do(http.MethodPost, "/reservations", form)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "login", viewOf(rr))
	assert.Zero(t, h.api.count())
}

func TestReserveSendsTotal(t *testing.T) {
	h := newHarness(t)
	h.api.on("POST /clients/reservations", 201, `{"reservationId":31}`)
	sid := h.login(session.Session{Token: "t", Role: session.RoleClient, ClientID: 12})
	form := url.Values{"roomId": {"7"}, "hotelId": {"3"}, "price": {"150.00"}, "startDate": {"2025-05-01"}, "endDate": {"2025-05-06"}}

	rr := h.do(http.MethodPost, "/reservations", form, sid)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "search", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "Reservation confirmed (id 31).")

	c, ok := h.api.find("POST /clients/reservations")
	require.True(t, ok)
	assert.Equal(t, 750.0, c.Body["totalPrice"])
	assert.Equal(t, 12.0, c.Body["clientId"])
	assert.Equal(t, 3.0, c.Body["hotelID"])
}

func TestSearchValidationNeverCallsBackendSearch(t *testing.T) {
	h := newHarness(t)
	rr := h.do(http.MethodGet, "/search?startDate=2025-05-06&endDate=2025-05-01", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "search", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "check-out must be after check-in")
	for _, c := range h.api.calls {
		assert.False(t, strings.HasPrefix(c.Key, "GET /search/rooms"), "unexpected %s", c.Key)
	}
}

func TestSearchShowsRooms(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET /search/rooms?endDate=05-06-2025&startDate=05-01-2025", 200,
		`{"rooms":[{"roomId":7,"hotelId":3,"capacity":2,"number":"101","floor":1,"price":150,"amenities":["TV"]}]}`)

	rr := h.do(http.MethodGet, "/search?startDate=2025-05-01&endDate=2025-05-06", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Room 101, floor 1")
	assert.Contains(t, body, "150.00")
	assert.Contains(t, body, `name="startDate" value="2025-05-01"`)
}

func TestBackendErrorMessageIsShown(t *testing.T) {
	h := newHarness(t)
	h.api.on("POST /clients/register", 409, `{"message":"email already used"}`)
	form := url.Values{"sin": {"123456789"}, "firstName": {"Ana"}, "lastName": {"Lee"}, "email": {"a@x.io"}}

	rr := h.do(http.MethodPost, "/register", form)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "register", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "registration failed: email already used")
	assert.Contains(t, rr.Body.String(), `value="Ana"`)
}

func TestAdminDashboardPartialFailure(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET /admin/hotelchains", 200, `[{"id":1,"name":"Sun"}]`)
	h.api.on("GET /admin/hotels", 200, `[{"id":10,"chainId":1,"name":"Sun Paris","city":"Paris"}]`)
	h.api.on("GET /admin/rooms", 503, `{"error":"rooms offline"}`)
	sid := h.login(session.Session{Token: "t", Role: session.RoleEmployee, IsAdmin: true, EmployeeID: 4})

	rr := h.do(http.MethodGet, "/views/admin-dashboard", nil, sid)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Sun Paris")
	assert.Contains(t, body, "Could not load rooms: rooms offline")
}

func TestAdminDeleteHotel(t *testing.T) {
	h := newHarness(t)
	sid := h.login(session.Session{Token: "t", Role: session.RoleEmployee, IsAdmin: true, EmployeeID: 4})

	rr := h.do(http.MethodPost, "/admin/hotels/10/delete", url.Values{}, sid)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Hotel 10 deleted.")
	_, ok := h.api.find("DELETE /admin/hotels/10")
	assert.True(t, ok)
}

func TestAdminActionsNeedAdmin(t *testing.T) {
	h := newHarness(t)
	sid := h.login(session.Session{Token: "t", Role: session.RoleEmployee, EmployeeID: 4})

	rr := h.do(http.MethodPost, "/admin/hotels/10/delete", url.Values{}, sid)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	_, ok := h.api.find("DELETE /admin/hotels/10")
	assert.False(t, ok)
}

func TestCheckoutUsesEmployeeFromSession(t *testing.T) {
	h := newHarness(t)
	h.api.on("POST /employees/checkout", 200, `{"message":"paid"}`)
	sid := h.login(session.Session{Token: "t", Role: session.RoleEmployee, EmployeeID: 4})

	rr := h.do(http.MethodPost, "/employee/checkout", url.Values{"stayId": {"9"}, "paymentMethod": {"card"}}, sid)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Checkout complete for stay 9. paid")

	c, ok := h.api.find("POST /employees/checkout")
	require.True(t, ok)
	assert.Equal(t, 9.0, c.Body["stayID"])
	assert.Equal(t, 4.0, c.Body["empoyeeID"])
}

func TestCapacityReport(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET /admin/hotels", 200, `[{"id":3,"name":"Sun Lyon","city":"Lyon"}]`)
	h.api.on("GET /search/zones/rooms", 200, `[{"area":"Lyon","available_rooms_count":5}]`)
	h.api.on("GET /search/hotels/3/room-count", 200, `{"total_capacity":48}`)
	sid := h.login(session.Session{Token: "t", Role: session.RoleEmployee, EmployeeID: 4})

	rr := h.do(http.MethodGet, "/reports/capacity?hotelId=3", nil, sid)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Equal(t, "required-views", viewOf(rr))
	assert.Contains(t, body, "48")
	assert.Contains(t, body, "<td>Lyon</td><td>5</td>")
}

func TestCancelReservation(t *testing.T) {
	h := newHarness(t)
	sid := h.login(session.Session{Token: "t", Role: session.RoleClient, ClientID: 12})

	rr := h.do(http.MethodPost, "/reservations/31/cancel", url.Values{}, sid)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "client-reservations", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "Reservation 31 cancelled.")
	_, ok := h.api.find("DELETE /clients/reservations/31")
	assert.True(t, ok)
}

func TestUpdateProfileLearnsClientID(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET /clients/profile", 200, `{"clientId":12,"sin":"123456789","firstName":"Ana","lastName":"Lee","email":"a@x.io"}`)
	sid := h.login(session.Session{Token: "t", Role: session.RoleClient})
	form := url.Values{"firstName": {"Ana"}, "lastName": {"Moreau"}, "email": {"a@x.io"}}

	rr := h.do(http.MethodPost, "/profile", form, sid)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "client-profile", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "Profile updated.")

	c, ok := h.api.find("PUT /clients/profile")
	require.True(t, ok)
	assert.Equal(t, 12.0, c.Body["clientId"])
	assert.Equal(t, "Moreau", c.Body["lastName"])

	s, _, err := h.repo.Load(context.Background(), sid.Value)
	require.NoError(t, err)
	assert.Equal(t, int64(12), s.ClientID)
}

func TestProfileLoadFailureLogsOut(t *testing.T) {
	h := newHarness(t)
	h.api.on("GET /clients/profile", 500, `{"message":"profile unavailable"}`)
	sid := h.login(session.Session{Token: "t", Role: session.RoleClient, ClientID: 12})

	rr := h.do(http.MethodGet, "/views/client-profile", nil, sid)
	assert.Equal(t, "login", viewOf(rr))
	assert.Contains(t, rr.Body.String(), "profile unavailable")

	_, ok, err := h.repo.Load(context.Background(), sid.Value)
	require.NoError(t, err)
	assert.False(t, ok)
}
