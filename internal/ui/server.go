// Package ui serves the client's views to a local browser.
//
// Views are rendered from embedded templates and gated by the Router:
// every view request goes through Router.Middleware, so the browser sees
// exactly what Router.Go would decide. Actions (search, filters, new
// listing) are plain form posts answered with a redirect.
package ui

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bluescreen10/hubx"
	"go.uber.org/zap"
)

//go:embed templates
var templatesFS embed.FS

// ListingCreator uploads new listings.
type ListingCreator interface {
	CreateListing(ctx context.Context, n hubx.NewListing) (string, error)
}

// Deps are the core components the UI drives.
type Deps struct {
	Session   *hubx.Session
	Router    *hubx.Router
	Discovery *hubx.Discovery
	AuthFlow  *hubx.AuthFlow
	Listings  ListingCreator
	Live      *hubx.LiveSession
}

type Server struct {
	Deps

	views         *hubx.Renderer
	log           *zap.Logger
	uploadTimeout time.Duration

	loaded  atomic.Bool
	uploads sync.WaitGroup
}

type serverConfig func(*Server)

// WithLogger sets the logger used for requests and background uploads.
func WithLogger(log *zap.Logger) serverConfig {
	return serverConfig(func(s *Server) {
		s.log = log
	})
}

// WithUploadTimeout bounds each background listing upload. (default 1m.)
func WithUploadTimeout(d time.Duration) serverConfig {
	return serverConfig(func(s *Server) {
		s.uploadTimeout = d
	})
}

func New(deps Deps, cfgs ...serverConfig) *Server {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		panic(err)
	}

	s := &Server{
		Deps:          deps,
		views:         hubx.NewRenderer(sub, ".html"),
		log:           zap.NewNop(),
		uploadTimeout: time.Minute,
	}

	for _, cfg := range cfgs {
		cfg(s)
	}

	s.views.Funcs(template.FuncMap{
		"price": formatPrice,
		"date":  formatDate,
	})

	s.Discovery.Subscribe(func(listings []hubx.Listing) {
		s.log.Debug("listings recomputed", zap.Int("count", len(listings)))
	})

	// the next user starts from a fresh search
	s.Session.Subscribe(func(state hubx.State) {
		if state == hubx.Unauthenticated {
			s.loaded.Store(false)
		}
	})
	return s
}

// Handler returns the UI's routes.
func (s *Server) Handler() http.Handler {
	mux := hubx.NewServeMux()
	mux.Use(hubx.RequestLogger(s.log))
	mux.Use(s.Live.Middleware)

	view := func(h http.HandlerFunc, mws ...hubx.Middleware) http.Handler {
		return hubx.Chain(h, append([]hubx.Middleware{s.Router.Middleware}, mws...)...)
	}

	mux.Handle("GET /login", view(s.showLogin))
	mux.Handle("GET /{$}", view(s.listings, hubx.ETag(true)))
	mux.Handle("GET /listings/new", view(s.showNewListing))
	mux.Handle("GET /productInfo", view(s.product))

	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /logout", s.logout)

	actions := mux.Group("/", s.requireSession)
	actions.HandleFunc("POST /search", s.search)
	actions.HandleFunc("POST /filters", s.filters)
	actions.HandleFunc("POST /listings/new", s.createListing)

	return mux
}

// Wait blocks until background uploads have finished.
func (s *Server) Wait() {
	s.uploads.Wait()
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Session.IsAuthenticated() {
			http.Redirect(w, r, hubx.LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

func (s *Server) showLogin(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login", hubx.Vals{"Page": "Log in", "Email": ""})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := hubx.ParseBody(r, &form); err != nil {
		s.render(w, http.StatusBadRequest, "login", hubx.Vals{"Page": "Log in", "Email": "", "Message": err.Error()})
		return
	}

	res, err := s.AuthFlow.Submit(r.Context(), form.Email, form.Password)
	if err == nil && res.Message == "" {
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
		return
	}

	status := http.StatusOK
	switch {
	case errors.Is(err, hubx.ErrInvalidEmail):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, hubx.ErrInFlight):
		status = http.StatusConflict
		res.Message = "Logging in, please wait."
	case errors.Is(err, hubx.ErrRejected):
		status = http.StatusUnauthorized
	case errors.Is(err, hubx.ErrTransport):
		status = http.StatusBadGateway
	}

	if res.Redirect != "" {
		w.Header().Set("Refresh", fmt.Sprintf("%g;url=%s", res.RedirectAfter.Seconds(), res.Redirect))
	}

	s.render(w, status, "login", hubx.Vals{
		"Page":    "Log in",
		"Email":   form.Email,
		"Message": res.Message,
		"Success": err == nil,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Logout(); err != nil {
		s.log.Error("logout", zap.Error(err))
		http.Error(w, hubx.MsgTryAgainLater, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, hubx.LoginPath, http.StatusSeeOther)
}

func (s *Server) listings(w http.ResponseWriter, r *http.Request) {
	if s.loaded.CompareAndSwap(false, true) {
		if err := s.Discovery.Search(r.Context(), ""); err != nil {
			s.loaded.Store(false)
			if s.expired(w, r, err) {
				return
			}
			s.renderListings(w, http.StatusBadGateway, hubx.MsgTryAgainLater)
			return
		}
	}
	s.renderListings(w, http.StatusOK, "")
}

type searchForm struct {
	Query string `form:"q"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var form searchForm
	if err := hubx.ParseBody(r, &form); err != nil {
		s.renderListings(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.Discovery.Search(r.Context(), form.Query); err != nil {
		if s.expired(w, r, err) {
			return
		}
		s.renderListings(w, http.StatusBadGateway, hubx.MsgTryAgainLater)
		return
	}

	s.loaded.Store(true)
	http.Redirect(w, r, hubx.DefaultPath, http.StatusSeeOther)
}

type filtersForm struct {
	Min      float64 `form:"min,required"`
	Max      float64 `form:"max,required"`
	Location string  `form:"location"`
	Sort     string  `form:"sort"`
}

func (s *Server) filters(w http.ResponseWriter, r *http.Request) {
	var form filtersForm
	if err := hubx.ParseBody(r, &form); err != nil {
		s.renderListings(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	err := s.applyFilters(form)
	if err != nil {
		s.renderListings(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	http.Redirect(w, r, hubx.DefaultPath, http.StatusSeeOther)
}

func (s *Server) applyFilters(form filtersForm) error {
	location, err := hubx.ParseLocation(form.Location)
	if err != nil {
		return err
	}
	key, err := hubx.ParseSortKey(form.Sort)
	if err != nil {
		return err
	}
	return s.Discovery.SetFilters(hubx.PriceRange{form.Min, form.Max}, location, key)
}

type listingForm struct {
	Title       string                  `form:"title,required"`
	Description string                  `form:"description"`
	Price       float64                 `form:"price,required"`
	Location    string                  `form:"location,required"`
	Category    string                  `form:"category"`
	Condition   string                  `form:"condition"`
	Files       []*multipart.FileHeader `form:"file"`
}

func (s *Server) showNewListing(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "new_listing", hubx.Vals{
		"Page":      "Sell an item",
		"Form":      listingForm{},
		"Locations": hubx.Locations,
	})
}

func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	var form listingForm
	fail := func(msg string) {
		s.render(w, http.StatusUnprocessableEntity, "new_listing", hubx.Vals{
			"Page":      "Sell an item",
			"Form":      form,
			"Locations": hubx.Locations,
			"Message":   msg,
		})
	}

	if err := hubx.ParseBody(r, &form); err != nil {
		fail(err.Error())
		return
	}

	n := hubx.NewListing{
		Title:       form.Title,
		Description: form.Description,
		Price:       form.Price,
		Location:    hubx.Location(form.Location),
		Category:    form.Category,
		Condition:   form.Condition,
	}
	if err := n.Validate(); err != nil {
		fail(err.Error())
		return
	}

	// uploaded files are removed when the request ends, the upload
	// outlives it
	for _, fh := range form.Files {
		data, err := readFile(fh)
		if err != nil {
			fail(err.Error())
			return
		}
		n.Images = append(n.Images, hubx.Image{Filename: fh.Filename, Content: bytes.NewReader(data)})
	}

	s.uploads.Add(1)
	go func() {
		defer s.uploads.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.uploadTimeout)
		defer cancel()

		id, err := s.Listings.CreateListing(ctx, n)
		if err != nil {
			s.log.Warn("create listing", zap.String("title", n.Title), zap.Error(err))
			return
		}
		s.log.Info("listing created", zap.String("id", id), zap.Int("images", len(n.Images)))
	}()

	http.Redirect(w, r, hubx.DefaultPath, http.StatusSeeOther)
}

func (s *Server) product(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	for _, l := range s.Discovery.Source() {
		if l.ID == id {
			s.render(w, http.StatusOK, "product", hubx.Vals{"Page": l.Title, "Listing": l})
			return
		}
	}
	s.render(w, http.StatusNotFound, "product", hubx.Vals{"Page": "Not found"})
}

// expired logs out and sends the browser to the login view when err
// says the credential is no longer accepted.
func (s *Server) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, hubx.ErrUnauthorized) {
		return false
	}

	s.log.Info("credential rejected, logging out")
	if err := s.Session.Logout(); err != nil {
		s.log.Error("logout", zap.Error(err))
	}
	http.Redirect(w, r, hubx.LoginPath, http.StatusSeeOther)
	return true
}

func (s *Server) renderListings(w http.ResponseWriter, status int, msg string) {
	s.render(w, status, "listings", hubx.Vals{
		"Page":      "Listings",
		"Listings":  s.Discovery.Listings(),
		"Query":     s.Discovery.Query(),
		"Locations": hubx.Locations,
		"MinPrice":  hubx.MinPrice,
		"MaxPrice":  hubx.MaxPrice,
		"Message":   msg,
	})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, vals hubx.Vals) {
	vals["Authenticated"] = s.Session.IsAuthenticated()
	if err := s.views.Html(w, status, name, vals, "layout"); err != nil {
		s.log.Error("render", zap.String("view", name), zap.Error(err))
		http.Error(w, hubx.MsgTryAgainLater, http.StatusInternalServerError)
	}
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

func formatDate(t hubx.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006")
}
