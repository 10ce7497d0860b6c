package nav

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"sunflower_web/internal/adapters/observability"
	"sunflower_web/internal/domain"
	"sunflower_web/internal/session"
)

// Loader fills a view with remote data after it is shown.
type Loader func(ctx context.Context) error

type FeedbackKind string

const (
	FeedbackInfo    FeedbackKind = "info"
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
)

type Feedback struct {
	Kind    FeedbackKind
	Message string
}

type NavLink struct {
	View   View
	Label  string
	Active bool
}

const (
	msgLoginRequired = "please log in"
	msgSessionLost   = "please log in again"
	msgForbidden     = "you do not have access to this page"
)

// Controller owns the active view of one browser. It is built per request and is not
// safe for concurrent use; the Store behind it is.
type Controller struct {
	store      session.Store
	active     View
	feedback   *Feedback
	loaders    map[View]Loader
	loadFailed bool
}

// New starts from the view the browser last showed. An unknown current view becomes Default.
func New(store session.Store, current string) *Controller {
	v, ok := Parse(current)
	if !ok {
		v = Default
	}
	return &Controller{store: store, active: v, loaders: map[View]Loader{}}
}

// Handle registers the loader run when v becomes active through Navigate.
func (c *Controller) Handle(v View, l Loader) { c.loaders[v] = l }

func (c *Controller) Active() View         { return c.active }
func (c *Controller) Feedback() *Feedback  { return c.feedback }
func (c *Controller) LoadFailed() bool     { return c.loadFailed }
func (c *Controller) Store() session.Store { return c.store }
func (c *Controller) SetFeedback(k FeedbackKind, msg string) {
	c.feedback = &Feedback{Kind: k, Message: msg}
}

// Fail turns an action error into inline feedback. ErrUnauthenticated is left to the
// login redirect that already happened.
func (c *Controller) Fail(err error) {
	if err == nil || errors.Is(err, domain.ErrUnauthenticated) {
		return
	}
	c.SetFeedback(FeedbackError, err.Error())
}

func (c *Controller) Session(ctx context.Context) session.Session {
	s, err := c.store.Get(ctx)
	if err != nil {
		log.Error().Err(err).Msg("read session")
		return session.Session{}
	}
	return s
}

func (c *Controller) show(v View) {
	c.active = v
	c.feedback = nil
	c.loadFailed = false
}

// Login stores a new session and lands on the role's home view.
func (c *Controller) Login(ctx context.Context, token, role string, isAdmin bool) error {
	r, ok := session.ParseRole(role)
	if !ok {
		log.Warn().Str("role", role).Msg("login ignored: unknown role")
		return fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}
	if token == "" {
		return domain.Invalid("missing login token")
	}
	s := session.Session{Token: token, Role: r, IsAdmin: isAdmin && r == session.RoleEmployee}
	if claims, err := session.DecodeClaims(token); err != nil {
		log.Warn().Err(err).Msg("token claims unreadable")
	} else {
		switch r {
		case session.RoleClient:
			s.ClientID = claims.IDFor(r)
		case session.RoleEmployee:
			s.EmployeeID = claims.IDFor(r)
		}
	}
	if err := c.store.Set(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	log.Info().Str("role", string(r)).Bool("admin", s.IsAdmin).Msg("logged in")
	return c.Navigate(ctx, string(Landing(s)))
}

// HandleMagicLink logs in from token, role and admin query parameters.
// It reports whether a login happened.
func (c *Controller) HandleMagicLink(ctx context.Context, q url.Values) (bool, error) {
	token, role := q.Get("token"), q.Get("role")
	if token == "" || role == "" {
		return false, nil
	}
	if err := c.Login(ctx, token, role, q.Get("admin") == "true"); err != nil {
		return false, err
	}
	return true, nil
}

// Start picks the first view for a browser arriving without a magic link.
func (c *Controller) Start(ctx context.Context) error {
	s := c.Session(ctx)
	if !s.LoggedIn() {
		return c.Navigate(ctx, string(Default))
	}
	return c.Navigate(ctx, string(Landing(s)))
}

func (c *Controller) Logout(ctx context.Context) error {
	err := c.store.Clear(ctx)
	c.show(Login)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	log.Info().Msg("logged out")
	return nil
}

// RequireLogin is the gateway hook for authenticated calls without a token.
func (c *Controller) RequireLogin(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("clear session")
	}
	c.show(Login)
	c.SetFeedback(FeedbackError, msgSessionLost)
	observability.ObserveNavigation(string(Login), "login_required")
}

// Navigate switches to id when the session may see it and runs its loader.
// A wrong-role attempt keeps the current view and returns ErrForbidden.
func (c *Controller) Navigate(ctx context.Context, id string) error {
	v, ok := Parse(id)
	if !ok {
		log.Debug().Str("view", id).Msg("unknown view, using default")
		observability.ObserveNavigation(string(Default), "unknown")
		v = Default
	}

	s, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	switch Authorize(s, v) {
	case LoginRequired:
		c.show(Login)
		c.SetFeedback(FeedbackError, msgLoginRequired)
		observability.ObserveNavigation(string(v), "login_required")
		return nil
	case Forbidden:
		c.SetFeedback(FeedbackError, msgForbidden)
		observability.ObserveNavigation(string(v), "forbidden")
		log.Warn().Str("view", string(v)).Str("role", string(s.Role)).Msg("navigation refused")
		return domain.ErrForbidden
	}

	c.show(v)
	if ok {
		observability.ObserveNavigation(string(v), "shown")
	}
	c.load(ctx, v)
	return nil
}

func (c *Controller) load(ctx context.Context, v View) {
	l, ok := c.loaders[v]
	if !ok {
		return
	}
	err := l(ctx)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUnauthenticated):
		// RequireLogin already switched to login.
		if c.active != Login {
			c.show(Login)
			c.SetFeedback(FeedbackError, msgSessionLost)
		}
	default:
		log.Warn().Err(err).Str("view", string(v)).Msg("view load failed")
		c.loadFailed = true
		c.SetFeedback(FeedbackError, err.Error())
	}
}

// NavLinks are the links visible to the current session, the active one flagged.
func (c *Controller) NavLinks(ctx context.Context) []NavLink {
	vs := linksFor(c.Session(ctx))
	out := make([]NavLink, 0, len(vs)+1)
	found := false
	for _, v := range vs {
		found = found || v == c.active
		out = append(out, NavLink{View: v, Label: v.Label(), Active: v == c.active})
	}
	// a logged-in user can still land on login or register
	if !found {
		out = append([]NavLink{{View: c.active, Label: c.active.Label(), Active: true}}, out...)
	}
	return out
}
