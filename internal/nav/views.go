// Package nav is the view state machine of the booking front end.
package nav

import "sunflower_web/internal/session"

type View string

const (
	Login              View = "login"
	Register           View = "register"
	Search             View = "search"
	ClientProfile      View = "client-profile"
	ClientReservations View = "client-reservations"
	EmployeeDashboard  View = "employee-dashboard"
	AdminDashboard     View = "admin-dashboard"
	RequiredViews      View = "required-views"
)

// Default is shown for unknown view ids and anonymous starts.
const Default = Login

// All lists every view in navigation order.
var All = []View{
	Login, Register, Search,
	ClientProfile, ClientReservations,
	EmployeeDashboard, RequiredViews, AdminDashboard,
}

var labels = map[View]string{
	Login:              "Log in",
	Register:           "Register",
	Search:             "Search rooms",
	ClientProfile:      "My profile",
	ClientReservations: "My reservations",
	EmployeeDashboard:  "Front desk",
	AdminDashboard:     "Administration",
	RequiredViews:      "Reports",
}

func (v View) Label() string {
	if l, ok := labels[v]; ok {
		return l
	}
	return string(v)
}

func Parse(s string) (View, bool) {
	v := View(s)
	if _, ok := rules[v]; ok {
		return v, true
	}
	return "", false
}

// Rule is the access requirement of one view.
type Rule struct {
	NeedsLogin bool
	Role       session.Role // empty: any logged-in role
	Admin      bool
}

var rules = map[View]Rule{
	Login:              {},
	Register:           {},
	Search:             {},
	ClientProfile:      {NeedsLogin: true, Role: session.RoleClient},
	ClientReservations: {NeedsLogin: true, Role: session.RoleClient},
	EmployeeDashboard:  {NeedsLogin: true, Role: session.RoleEmployee},
	RequiredViews:      {NeedsLogin: true, Role: session.RoleEmployee},
	AdminDashboard:     {NeedsLogin: true, Role: session.RoleEmployee, Admin: true},
}

func RuleFor(v View) (Rule, bool) {
	r, ok := rules[v]
	return r, ok
}

type Decision int

const (
	Allowed Decision = iota
	LoginRequired
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case LoginRequired:
		return "login_required"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// Authorize is the single access check used by navigation. Unknown views are forbidden.
func Authorize(s session.Session, v View) Decision {
	r, ok := rules[v]
	if !ok {
		return Forbidden
	}
	if !r.NeedsLogin {
		return Allowed
	}
	if !s.LoggedIn() {
		return LoginRequired
	}
	if r.Role != "" && s.Role != r.Role {
		return Forbidden
	}
	if r.Admin && !s.IsAdmin {
		return Forbidden
	}
	return Allowed
}

// Landing is where a logged-in session goes after login or on start.
func Landing(s session.Session) View {
	switch s.Role {
	case session.RoleClient:
		return Search
	case session.RoleEmployee:
		if s.IsAdmin {
			return AdminDashboard
		}
		return EmployeeDashboard
	}
	return Login
}

// linksFor is the visible navigation for a session. Logout is rendered apart.
func linksFor(s session.Session) []View {
	if !s.LoggedIn() {
		return []View{Login, Register, Search}
	}
	switch s.Role {
	case session.RoleClient:
		return []View{Search, ClientProfile, ClientReservations}
	case session.RoleEmployee:
		vs := []View{Search, EmployeeDashboard, RequiredViews}
		if s.IsAdmin {
			vs = append(vs, AdminDashboard)
		}
		return vs
	}
	return []View{Login, Register, Search}
}
