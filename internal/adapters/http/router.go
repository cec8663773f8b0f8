package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Eroo144/instaclone/internal/application"
	"github.com/Eroo144/instaclone/internal/domain"
	"github.com/Eroo144/instaclone/internal/realtime"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Server wires the JSON API and the websocket endpoint over the
// application service.
type Server struct {
	svc *application.SocialService
	hub *realtime.Hub
}

func NewServer(svc *application.SocialService, hub *realtime.Hub) *Server {
	return &Server{svc: svc, hub: hub}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", s.handleRegister)
		api.Post("/auth/login", s.handleLogin)

		api.Group(func(priv chi.Router) {
			priv.Use(s.requireAuthAPI)

			priv.Get("/auth/whoami", s.handleWhoami)

			priv.Get("/users", s.handleListUsers)
			priv.Get("/users/{id}", s.handleGetUser)
			priv.Post("/users/{id}/follow", s.handleFollow)

			priv.Get("/posts", s.handleListFeed)
			priv.Post("/posts", s.handleCreatePost)
			priv.Post("/posts/{id}/like", s.handleLike)
			priv.Post("/posts/{id}/comments", s.handleComment)

			priv.Get("/notifications", s.handleListNotifications)
			priv.Post("/notifications/{id}/read", s.handleMarkNotificationRead)

			priv.Get("/messages/{peerID}", s.handleListMessages)
			priv.Post("/messages", s.handleSendMessage)
		})
	})

	r.Get("/ws", s.handleWebsocket)

	return r
}

// requireAuthAPI resolves the bearer token and stores the identity in
// the request context. Requests without a valid token get 401.
func (s *Server) requireAuthAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		ident, err := s.svc.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), ident)))
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, token, err := s.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, token, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, ident.User)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	users, err := s.svc.ListUsers(r.Context(), ident.User.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.svc.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	res, err := s.svc.ToggleFollow(r.Context(), ident.User.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListFeed(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	feed, err := s.svc.ListFeed(r.Context(), ident.User.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caption  string `json:"caption"`
		MediaRef string `json:"media_ref"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ident := identityFrom(r.Context())
	post, err := s.svc.CreatePost(r.Context(), ident.User.ID, req.Caption, req.MediaRef)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	post, err := s.svc.ToggleLike(r.Context(), chi.URLParam(r, "id"), ident.User.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ident := identityFrom(r.Context())
	comment, err := s.svc.AddComment(r.Context(), chi.URLParam(r, "id"), ident.User.ID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	notifs, err := s.svc.ListNotifications(r.Context(), ident.User.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifs)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notif, err := s.svc.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notif)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r.Context())
	msgs, err := s.svc.ListMessages(r.Context(), ident.User.ID, chi.URLParam(r, "peerID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReceiverID string `json:"receiver_id"`
		Text       string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	ident := identityFrom(r.Context())
	msg, err := s.svc.SendMessage(r.Context(), ident.User.ID, req.ReceiverID, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidOperation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("http: internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: write response: %v", err)
	}
}
