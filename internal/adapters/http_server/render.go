package httpserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"sunflower_web/internal/app"
	"sunflower_web/internal/domain"
	"sunflower_web/internal/nav"
	"sunflower_web/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

type viewModel struct {
	View       string
	Links      []nav.NavLink
	Feedback   *nav.Feedback
	Session    session.Session
	LoadFailed bool
	Form       url.Values

	Catalog      domain.Catalog
	Searched     bool
	Rooms        []domain.Room
	Search       app.SearchForm
	Profile      domain.ClientProfile
	Reservations []domain.Reservation

	Dashboard app.Dashboard
	Filter    app.DashboardFilter
	Edit      *editState

	Zones         []domain.ZoneAvailability
	Hotels        []domain.Hotel
	Capacity      *domain.HotelCapacity
	CapacityHotel int64
}

// editState pre-fills an admin form with the record being edited.
type editState struct {
	Kind   app.Kind
	ID     int64
	Values url.Values
	Lists  map[string][]string
}

func (e *editState) Get(name string) string {
	if e == nil {
		return ""
	}
	return e.Values.Get(name)
}

func (e *editState) Has(list, v string) bool {
	if e == nil {
		return false
	}
	for _, x := range e.Lists[list] {
		if x == v {
			return true
		}
	}
	return false
}

var funcs = template.FuncMap{
	"money": func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) },
	"moneyp": func(f *float64) string {
		if f == nil {
			return "N/A"
		}
		return strconv.FormatFloat(*f, 'f', 2, 64)
	},
	"count": func(n *int) string {
		if n == nil {
			return "N/A"
		}
		return strconv.Itoa(*n)
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Format("2006-01-02")
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return "N/A"
		}
		return t.Format("2006-01-02 15:04")
	},
	"join": func(xs []string) string {
		if len(xs) == 0 {
			return "N/A"
		}
		return strings.Join(xs, ", ")
	},
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
	"failed":   func(d app.Dashboard, k string) string { return d.Failed[app.Kind(k)] },
	"accounts": newAccountsSection,
	"eqid":     func(a int64, b string) bool { return b != "" && strconv.FormatInt(a, 10) == b },
}

// accountsSection feeds the shared client/employee account block.
type accountsSection struct {
	Accounts  []domain.Account
	Kind      string
	Title     string
	Failed    string
	Edit      *editState
	Editing   bool
	Employees bool
}

func newAccountsSection(accs []domain.Account, kind, title, failed string, edit *editState) accountsSection {
	return accountsSection{
		Accounts:  accs,
		Kind:      kind,
		Title:     title,
		Failed:    failed,
		Edit:      edit,
		Editing:   edit != nil && string(edit.Kind) == kind,
		Employees: kind == string(app.KindEmployees),
	}
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("pages").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// render writes the active view. The view cookie follows the controller so the
// next request starts from what the browser now shows.
func (p *page) render() {
	ctx := p.ctx()
	http.SetCookie(p.w, &http.Cookie{
		Name:     cookieView,
		Value:    string(p.nav.Active()),
		Path:     "/",
		HttpOnly: true,
		Secure:   p.h.d.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	p.vm.View = string(p.nav.Active())
	p.vm.Links = p.nav.NavLinks(ctx)
	p.vm.Feedback = p.nav.Feedback()
	p.vm.Session = p.nav.Session(ctx)
	p.vm.LoadFailed = p.nav.LoadFailed()

	var buf bytes.Buffer
	if err := p.h.pages.ExecuteTemplate(&buf, "layout", p.vm); err != nil {
		log.Error().Err(err).Str("view", p.vm.View).Msg("render failed")
		writeProblem(p.w, http.StatusInternalServerError, "Render failed", "the page could not be rendered")
		return
	}
	p.w.Header().Set("Content-Type", "text/html; charset=utf-8")
	p.w.WriteHeader(p.status)
	if _, err := buf.WriteTo(p.w); err != nil {
		log.Error().Err(err).Msg("write page")
	}
}
