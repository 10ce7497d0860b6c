// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"sunflower_web/internal/adapters/backend"
	"sunflower_web/internal/app"
	"sunflower_web/internal/domain"
	"sunflower_web/internal/nav"
	"sunflower_web/internal/session"
)

// Deps are shared by every request; all of them are safe for concurrent use.
type Deps struct {
	Backend      *backend.Client
	Sessions     session.Repository
	Cache        domain.Cache // optional
	CacheTTL     time.Duration
	SessionTTL   time.Duration
	CookieSecure bool
}

type Handlers struct {
	d     Deps
	pages *template.Template
}

func NewHandlers(d Deps) (*Handlers, error) {
	if d.Backend == nil || d.Sessions == nil {
		return nil, errors.New("backend client and session repository are required")
	}
	t, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handlers{d: d, pages: t}, nil
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/", h.index)
	s.mux.Get("/views/{view}", h.view)
	s.mux.Post("/logout", h.logout)
	s.mux.Post("/login", h.login)
	s.mux.Post("/register", h.register)

	s.mux.Get("/search", h.search)
	s.mux.Post("/reservations", h.reserve)
	s.mux.Post("/reservations/{id}/cancel", h.cancelReservation)
	s.mux.Post("/profile", h.updateProfile)

	s.mux.Post("/employee/{action}", h.frontDesk)

	s.mux.Post("/admin/{kind}", h.adminSave)
	s.mux.Get("/admin/{kind}/{id}/edit", h.adminEdit)
	s.mux.Post("/admin/{kind}/{id}", h.adminSave)
	s.mux.Post("/admin/{kind}/{id}/delete", h.adminDelete)

	s.mux.Get("/reports/capacity", h.capacity)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func atoi(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func idParam(r *http.Request) int64 { return atoi(chi.URLParam(r, "id")) }

func createdID(ids ...int64) string {
	for _, id := range ids {
		if id > 0 {
			return strconv.FormatInt(id, 10)
		}
	}
	return "N/A"
}

// ---- session & navigation ----

// index consumes a magic link once, then starts from the role's home view.
func (h *Handlers) index(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	q := r.URL.Query()
	if q.Has("token") || q.Has("role") {
		ok, err := p.nav.HandleMagicLink(p.ctx(), q)
		if err != nil {
			p.navigate(nav.Login)
			p.fail(err)
			p.render()
			return
		}
		if ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	if err := p.nav.Start(p.ctx()); err != nil {
		p.fail(err)
	}
	p.render()
}

func (h *Handlers) view(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	p.navigate(nav.View(chi.URLParam(r, "view")))
	p.render()
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	if err := p.nav.Logout(p.ctx()); err != nil {
		log.Error().Err(err).Msg("logout")
		p.fail(err)
	}
	p.render()
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	f := p.form()
	p.act(nav.Login, func(ctx context.Context) (string, error) {
		err := p.cmd.RequestLoginLink(ctx, app.LoginForm{Email: f.Get("email"), Role: f.Get("role")})
		if err != nil {
			return "", fmt.Errorf("login failed: %w", err)
		}
		p.vm.Form = nil
		return "Login link sent. Check your inbox.", nil
	})
	p.render()
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	f := p.form()
	p.act(nav.Register, func(ctx context.Context) (string, error) {
		out, err := p.cmd.Register(ctx, app.RegisterForm{
			SIN:       strings.TrimSpace(f.Get("sin")),
			FirstName: strings.TrimSpace(f.Get("firstName")),
			LastName:  strings.TrimSpace(f.Get("lastName")),
			Address:   strings.TrimSpace(f.Get("address")),
			Phone:     strings.TrimSpace(f.Get("phone")),
			Email:     strings.TrimSpace(f.Get("email")),
		})
		if err != nil {
			return "", fmt.Errorf("registration failed: %w", err)
		}
		p.vm.Form = nil
		return fmt.Sprintf("Registration complete (client id %s). You can now log in.", createdID(out.ClientID)), nil
	})
	p.render()
}

// ---- client ----

func searchForm(q url.Values) app.SearchForm {
	return app.SearchForm{
		StartDate:    q.Get("startDate"),
		EndDate:      q.Get("endDate"),
		Capacity:     strings.TrimSpace(q.Get("capacity")),
		PriceMin:     strings.TrimSpace(q.Get("priceMin")),
		PriceMax:     strings.TrimSpace(q.Get("priceMax")),
		HotelChainID: q.Get("hotelChainId"),
		RoomType:     q.Get("roomType"),
	}
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	f := searchForm(p.form())
	p.vm.Search = f
	p.act(nav.Search, func(ctx context.Context) (string, error) {
		rooms, _, err := p.q.SearchRooms(ctx, f)
		if err != nil {
			return "", err
		}
		p.vm.Rooms = rooms
		p.vm.Searched = true
		return "", nil
	})
	p.render()
}

func (h *Handlers) reserve(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	f := p.form()
	p.vm.Search = searchForm(f)

	if s := p.nav.Session(p.ctx()); !s.LoggedIn() || s.Role != session.RoleClient {
		p.navigate(nav.Login)
		p.nav.SetFeedback(nav.FeedbackError, "log in as a client to reserve a room")
		p.status = http.StatusUnauthorized
		p.render()
		return
	}

	p.act(nav.Search, func(ctx context.Context) (string, error) {
		clientID, err := p.clientID(ctx)
		if err != nil {
			return "", fmt.Errorf("reservation failed: %w", err)
		}
		out, err := p.cmd.Reserve(ctx, app.ReserveForm{
			RoomID:    f.Get("roomId"),
			HotelID:   f.Get("hotelId"),
			Price:     f.Get("price"),
			StartDate: f.Get("startDate"),
			EndDate:   f.Get("endDate"),
		}, clientID)
		if err != nil {
			return "", fmt.Errorf("reservation failed: %w", err)
		}
		return fmt.Sprintf("Reservation confirmed (id %s).", createdID(out.ReservationID)), nil
	})
	p.render()
}

func (h *Handlers) cancelReservation(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	id := idParam(r)
	p.act(nav.ClientReservations, func(ctx context.Context) (string, error) {
		if err := p.cmd.CancelReservation(ctx, id); err != nil {
			return "", fmt.Errorf("cancellation failed: %w", err)
		}
		return fmt.Sprintf("Reservation %d cancelled.", id), nil
	})
	p.render()
}

func (h *Handlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	f := p.form()
	p.act(nav.ClientProfile, func(ctx context.Context) (string, error) {
		clientID, err := p.clientID(ctx)
		if err != nil {
			return "", err
		}
		err = p.cmd.UpdateProfile(ctx, app.ProfileForm{
			FirstName: strings.TrimSpace(f.Get("firstName")),
			LastName:  strings.TrimSpace(f.Get("lastName")),
			Address:   strings.TrimSpace(f.Get("address")),
			Phone:     strings.TrimSpace(f.Get("phone")),
			Email:     strings.TrimSpace(f.Get("email")),
		}, clientID)
		if err != nil {
			return "", fmt.Errorf("update failed: %w", err)
		}
		return "Profile updated.", nil
	})
	p.render()
}

// ---- front desk ----

func (h *Handlers) frontDesk(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	f := p.form()
	action := chi.URLParam(r, "action")
	p.act(nav.EmployeeDashboard, func(ctx context.Context) (string, error) {
		employeeID := p.nav.Session(ctx).EmployeeID
		switch action {
		case "checkin":
			out, err := p.cmd.CheckIn(ctx, app.CheckInForm{ReservationID: strings.TrimSpace(f.Get("reservationId"))}, employeeID)
			if err != nil {
				return "", fmt.Errorf("check-in failed: %w", err)
			}
			return fmt.Sprintf("Check-in done (stay id %s).", createdID(out.StayID)), nil
		case "stay":
			out, err := p.cmd.CreateStay(ctx, app.StayForm{
				ClientID:      strings.TrimSpace(f.Get("clientId")),
				RoomID:        strings.TrimSpace(f.Get("roomId")),
				ReservationID: strings.TrimSpace(f.Get("reservationID")),
				ArrivalDate:   f.Get("arrivalDate"),
				Comments:      f.Get("comments"),
			}, employeeID)
			if err != nil {
				return "", fmt.Errorf("stay creation failed: %w", err)
			}
			return fmt.Sprintf("Stay created (id %s).", createdID(out.StayID)), nil
		case "checkout":
			form := app.CheckoutForm{
				StayID:        strings.TrimSpace(f.Get("stayId")),
				PaymentMethod: strings.TrimSpace(f.Get("paymentMethod")),
				FinalPrice:    strings.TrimSpace(f.Get("finalPrice")),
			}
			out, err := p.cmd.Checkout(ctx, form, employeeID)
			if err != nil {
				return "", fmt.Errorf("checkout failed: %w", err)
			}
			return strings.TrimSpace(fmt.Sprintf("Checkout complete for stay %s. %s", form.StayID, out.Message)), nil
		}
		return "", domain.Invalid("unknown front desk action %q", action)
	})
	p.render()
}

// ---- admin ----

func (h *Handlers) adminSave(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	f := p.form()
	id := idParam(r)
	p.act(nav.AdminDashboard, func(ctx context.Context) (string, error) {
		k, err := app.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			return "", domain.Invalid("%s", err.Error())
		}
		out, err := saveByKind(ctx, p.cmd, k, id, f)
		if err != nil {
			return "", fmt.Errorf("save failed: %w", err)
		}
		p.vm.Form = nil
		if id > 0 {
			return fmt.Sprintf("%s %d updated.", kindLabel(k), id), nil
		}
		return fmt.Sprintf("%s created (id %s).", kindLabel(k),
			createdID(out.ChainID, out.HotelID, out.RoomID, out.AccountID)), nil
	})
	p.render()
}

func saveByKind(ctx context.Context, cmd *app.CommandService, k app.Kind, id int64, f url.Values) (domain.Created, error) {
	get := func(name string) string { return strings.TrimSpace(f.Get(name)) }
	switch k {
	case app.KindChains:
		return cmd.SaveChain(ctx, id, app.ChainForm{
			Name: get("name"), CentralAddress: get("centralAddress"), Email: get("email"), Telephone: get("telephone"),
		})
	case app.KindHotels:
		return cmd.SaveHotel(ctx, id, app.HotelForm{
			ChainID: get("chainId"), Rating: get("rating"), Name: get("name"), Address: get("address"),
			City: get("city"), Email: get("email"), Telephone: get("telephone"),
		})
	case app.KindRooms:
		return cmd.SaveRoom(ctx, id, app.RoomForm{
			HotelID: get("hotelId"), Capacity: get("capacity"), Number: get("number"), Floor: get("floor"),
			SurfaceArea: get("surfaceArea"), Price: get("price"), Telephone: get("telephone"),
			RoomType: get("roomType"), IsExtensible: f.Get("isExtensible") != "",
			Amenities: f["amenities"], ViewTypes: f["viewTypes"],
		})
	default:
		return cmd.SaveAccount(ctx, k, id, app.AccountForm{
			SIN: get("sin"), FirstName: get("firstName"), LastName: get("lastName"), Address: get("address"),
			Phone: get("phone"), Email: get("email"), HotelID: get("hotelId"), Position: get("position"),
		})
	}
}

func kindLabel(k app.Kind) string {
	switch k {
	case app.KindChains:
		return "Hotel chain"
	case app.KindHotels:
		return "Hotel"
	case app.KindRooms:
		return "Room"
	case app.KindClients:
		return "Client account"
	case app.KindEmployees:
		return "Employee account"
	}
	return string(k)
}

// adminEdit opens the dashboard with one record loaded into its form.
func (h *Handlers) adminEdit(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	id := idParam(r)
	p.act(nav.AdminDashboard, func(ctx context.Context) (string, error) {
		k, err := app.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			return "", domain.Invalid("%s", err.Error())
		}
		e, err := loadEdit(ctx, p, k, id)
		if err != nil {
			return "", fmt.Errorf("could not load %s %d: %w", strings.ToLower(kindLabel(k)), id, err)
		}
		p.vm.Edit = e
		return "", nil
	})
	p.render()
}

func loadEdit(ctx context.Context, p *page, k app.Kind, id int64) (*editState, error) {
	e := &editState{Kind: k, ID: id, Values: url.Values{}, Lists: map[string][]string{}}
	set := func(name, v string) { e.Values.Set(name, v) }
	itoa := func(n int64) string { return strconv.FormatInt(n, 10) }

	switch k {
	case app.KindChains:
		// Chains have no single-record read; pick it from the list.
		chains, err := p.q.AdminChains(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range chains {
			if c.ID == id {
				set("name", c.Name)
				set("centralAddress", c.CentralAddress)
				set("email", c.Email)
				set("telephone", c.Telephone)
				return e, nil
			}
		}
		return nil, domain.Invalid("hotel chain %d not found", id)
	case app.KindHotels:
		hotel, err := p.q.Hotel(ctx, id)
		if err != nil {
			return nil, err
		}
		set("chainId", itoa(hotel.ChainID))
		set("rating", strconv.Itoa(hotel.Rating))
		set("name", hotel.Name)
		set("address", hotel.Address)
		set("city", hotel.City)
		set("email", hotel.Email)
		set("telephone", hotel.Telephone)
	case app.KindRooms:
		room, err := p.q.Room(ctx, id)
		if err != nil {
			return nil, err
		}
		set("hotelId", itoa(room.HotelID))
		set("capacity", strconv.Itoa(room.Capacity))
		set("number", room.Number)
		set("floor", strconv.Itoa(room.Floor))
		set("surfaceArea", strconv.FormatFloat(room.SurfaceArea, 'f', -1, 64))
		set("price", strconv.FormatFloat(room.Price, 'f', 2, 64))
		set("telephone", room.Telephone)
		set("roomType", room.RoomType)
		if room.IsExtensible {
			set("isExtensible", "on")
		}
		e.Lists["amenities"] = room.Amenities
		e.Lists["viewTypes"] = room.ViewTypes
	case app.KindClients, app.KindEmployees:
		acc, err := p.q.Account(ctx, id)
		if err != nil {
			return nil, err
		}
		set("sin", acc.SIN)
		set("firstName", acc.FirstName)
		set("lastName", acc.LastName)
		set("address", acc.Address)
		set("phone", acc.Phone)
		set("email", acc.Email)
		if acc.HotelID > 0 {
			set("hotelId", itoa(acc.HotelID))
		}
		set("position", acc.Position)
	}
	return e, nil
}

func (h *Handlers) adminDelete(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	id := idParam(r)
	p.act(nav.AdminDashboard, func(ctx context.Context) (string, error) {
		k, err := app.ParseKind(chi.URLParam(r, "kind"))
		if err != nil {
			return "", domain.Invalid("%s", err.Error())
		}
		if err := p.cmd.Delete(ctx, k, id); err != nil {
			return "", fmt.Errorf("delete failed: %w", err)
		}
		return fmt.Sprintf("%s %d deleted.", kindLabel(k), id), nil
	})
	p.render()
}

// ---- reports ----

func (h *Handlers) capacity(w http.ResponseWriter, r *http.Request) {
	p := h.begin(w, r)
	hotelID := atoi(r.URL.Query().Get("hotelId"))
	p.vm.CapacityHotel = hotelID
	p.act(nav.RequiredViews, func(ctx context.Context) (string, error) {
		c, err := p.q.HotelCapacity(ctx, hotelID)
		if err != nil {
			return "", err
		}
		p.vm.Capacity = &c
		return "", nil
	})
	p.render()
}
