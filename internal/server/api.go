package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/maestro/internal/auth"
	"github.com/desertthunder/maestro/internal/dashboard"
	"github.com/desertthunder/maestro/internal/models"
	"github.com/desertthunder/maestro/internal/store"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// SignIner checks email/password credentials.
type SignIner interface {
	SignIn(ctx context.Context, email, password string) (models.Session, error)
}

// API serves the dashboard over HTTP: token issue, listing, archive toggles, delete and a
// websocket snapshot stream.
type API struct {
	accounts SignIner
	store    *store.Store
	secret   []byte
	ttl      time.Duration
	origin   string
	logger   *log.Logger
}

// APIConfig carries the token and origin settings of an [API].
type APIConfig struct {
	Secret        []byte
	TokenTTL      time.Duration
	AllowedOrigin string
}

// NewAPI creates the API handler.
func NewAPI(accounts SignIner, s *store.Store, cfg APIConfig, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &API{
		accounts: accounts,
		store:    s,
		secret:   cfg.Secret,
		ttl:      cfg.TokenTTL,
		origin:   cfg.AllowedOrigin,
		logger:   logger.With("component", "api"),
	}
}

// Routes mounts the API under /api.
func (a *API) Routes(r chi.Router) {
	r.Post("/api/auth/token", a.handleToken)

	r.Route("/api/playlists", func(r chi.Router) {
		r.Use(Authenticate(a.secret))
		r.Get("/", a.handleList)
		r.Get("/stream", a.handleStream)
		r.Get("/{id}", a.handleGet)
		r.Post("/{id}/archive", a.handleArchive(true))
		r.Post("/{id}/unarchive", a.handleArchive(false))
		r.Delete("/{id}", a.handleDelete)
	})
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      models.Session `json:"user"`
}

// Listing is the dashboard payload: active and archived playlists, newest first.
type Listing struct {
	Active   []*models.Playlist `json:"active"`
	Archived []*models.Playlist `json:"archived"`
}

func newListing(playlists []*models.Playlist) Listing {
	active, archived := dashboard.Partition(playlists)
	return Listing{Active: active, Archived: archived}
}

func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	session, err := a.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, a.logger, err)
		return
	}

	token, err := auth.IssueToken(a.secret, session, a.ttl)
	if err != nil {
		fail(w, a.logger, err)
		return
	}

	a.logger.Info("token issued", "user", session.UserID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: time.Now().Add(a.ttl).UTC(), User: session})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	playlists, err := a.store.List(r.Context(), session)
	if err != nil {
		fail(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newListing(playlists))
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	playlist, err := a.store.Get(r.Context(), session, chi.URLParam(r, "id"))
	if err != nil {
		fail(w, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (a *API) handleArchive(archived bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := SessionFrom(r.Context())
		playlist, err := a.store.SetArchived(r.Context(), session, chi.URLParam(r, "id"), archived)
		if err != nil {
			fail(w, a.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, playlist)
	}
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFrom(r.Context())
	if err := a.store.Delete(r.Context(), session, chi.URLParam(r, "id")); err != nil {
		fail(w, a.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
