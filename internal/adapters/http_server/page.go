package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"sunflower_web/internal/adapters/observability"
	"sunflower_web/internal/app"
	"sunflower_web/internal/domain"
	"sunflower_web/internal/nav"
	"sunflower_web/internal/session"
)

const (
	cookieSession = "sf_sid"
	cookieView    = "sf_view"
)

// page is the state of one browser request: its session, view controller and services.
type page struct {
	w      http.ResponseWriter
	r      *http.Request
	h      *Handlers
	store  session.Store
	nav    *nav.Controller
	q      *app.QueryService
	cmd    *app.CommandService
	status int
	vm     viewModel
}

// begin resolves the browser's session id, creating one when missing or malformed.
func (h *Handlers) begin(w http.ResponseWriter, r *http.Request) *page {
	sid := ""
	if c, err := r.Cookie(cookieSession); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			sid = id.String()
		}
	}
	if sid == "" {
		sid = uuid.NewString()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieSession,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(h.d.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.d.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	current := ""
	if c, err := r.Cookie(cookieView); err == nil {
		current = c.Value
	}

	store := session.Bind(h.d.Sessions, sid)
	ctl := nav.New(store, current)
	gw := h.d.Backend.Gateway(store, ctl.RequireLogin)

	p := &page{
		w:      w,
		r:      r,
		h:      h,
		store:  store,
		nav:    ctl,
		q:      app.NewQueryService(gw, h.d.Cache, h.d.CacheTTL),
		cmd:    app.NewCommandService(gw, h.d.Cache),
		status: http.StatusOK,
	}
	p.registerLoaders()
	return p
}

func (p *page) ctx() context.Context { return p.r.Context() }

// navigate moves to v and records the refusal status, if any.
func (p *page) navigate(v nav.View) {
	if err := p.nav.Navigate(p.ctx(), string(v)); err != nil {
		p.fail(err)
	}
}

// fail shows err inline and picks the response status for it.
func (p *page) fail(err error) {
	p.nav.Fail(err)
	p.status = statusFor(err)
}

// act runs one form action for a view the session must be allowed to see, then
// reloads that view. msg is shown on success.
func (p *page) act(target nav.View, fn func(ctx context.Context) (string, error)) {
	if nav.Authorize(p.nav.Session(p.ctx()), target) != nav.Allowed {
		p.navigate(target)
		return
	}
	msg, err := fn(p.ctx())
	observability.ObserveAction(string(target), err)
	if errors.Is(err, domain.ErrUnauthenticated) {
		p.status = http.StatusUnauthorized
		return
	}
	p.navigate(target)
	if err != nil {
		if !domain.IsValidation(err) {
			log.Warn().Err(err).Str("view", string(target)).Msg("action failed")
		}
		p.fail(err)
		return
	}
	if msg != "" {
		p.nav.SetFeedback(nav.FeedbackSuccess, msg)
	}
}

// clientID returns the session's client id, loading the profile once when the
// token did not carry it.
func (p *page) clientID(ctx context.Context) (int64, error) {
	s := p.nav.Session(ctx)
	if s.ClientID > 0 {
		return s.ClientID, nil
	}
	prof, err := p.q.Profile(ctx)
	if err != nil {
		return 0, err
	}
	p.rememberClient(ctx, prof.ClientID)
	return prof.ClientID, nil
}

func (p *page) rememberClient(ctx context.Context, id int64) {
	s := p.nav.Session(ctx)
	if id <= 0 || s.ClientID == id || !s.LoggedIn() {
		return
	}
	s.ClientID = id
	if err := p.store.Set(ctx, s); err != nil {
		log.Error().Err(err).Msg("save client id")
	}
}

func (p *page) form() url.Values {
	if err := p.r.ParseForm(); err != nil {
		log.Debug().Err(err).Msg("parse form")
	}
	p.vm.Form = p.r.Form
	return p.r.Form
}

// registerLoaders binds each data view to the services of this request.
func (p *page) registerLoaders() {
	p.nav.Handle(nav.Search, func(ctx context.Context) error {
		cat, err := p.q.Catalog(ctx)
		p.vm.Catalog = cat
		if err != nil {
			log.Warn().Err(err).Msg("search filters incomplete")
		}
		return nil
	})

	p.nav.Handle(nav.ClientProfile, func(ctx context.Context) error {
		prof, err := p.q.Profile(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrUnauthenticated) {
				if lerr := p.nav.Logout(ctx); lerr != nil {
					log.Error().Err(lerr).Msg("logout after profile failure")
				}
			}
			return err
		}
		p.vm.Profile = prof
		p.rememberClient(ctx, prof.ClientID)
		return nil
	})

	p.nav.Handle(nav.ClientReservations, func(ctx context.Context) error {
		res, err := p.q.Reservations(ctx)
		p.vm.Reservations = res
		return err
	})

	p.nav.Handle(nav.AdminDashboard, func(ctx context.Context) error {
		f := app.DashboardFilter{
			ChainID: atoi(p.r.URL.Query().Get("chainId")),
			HotelID: atoi(p.r.URL.Query().Get("hotelId")),
		}
		p.vm.Filter = f
		d, err := p.q.AdminDashboard(ctx, f)
		p.vm.Dashboard = d
		return err
	})

	p.nav.Handle(nav.RequiredViews, func(ctx context.Context) error {
		hotels, err := p.q.AdminHotels(ctx, 0)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				return err
			}
			log.Warn().Err(err).Msg("hotel list for capacity report failed")
		}
		p.vm.Hotels = hotels
		zones, err := p.q.RoomsPerZone(ctx)
		p.vm.Zones = zones
		return err
	})
}

func statusFor(err error) int {
	var apiErr *domain.APIError
	switch {
	case err == nil:
		return http.StatusOK
	case domain.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownRole):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNetwork):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
