package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/Eroo144/instaclone/internal/application"
	"github.com/Eroo144/instaclone/internal/domain"
)

// Server exposes the social API as JSON-RPC 2.0 over a unix socket,
// for local tooling that should not go through the HTTP listener.
type Server struct {
	service  *application.SocialService
	listener net.Listener
	path     string
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Start(path string, service *application.SocialService) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := &Server{service: service, listener: ln, path: path}
	go s.serve()
	return s, nil
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			_ = enc.Encode(response{JSONRPC: "2.0", Error: &rpcError{Code: -32700, Message: "parse error"}, ID: nil})
			return
		}

		resp := s.dispatch(context.Background(), req)
		if err := enc.Encode(resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32600, Message: "invalid request"}, ID: req.ID}
	}

	switch req.Method {
	case "auth.register":
		return s.handleAuthRegister(ctx, req)
	case "auth.login":
		return s.handleAuthLogin(ctx, req)
	case "auth.whoami":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		return response{JSONRPC: "2.0", Result: identity.User, ID: req.ID}
	case "feed.list":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		feed, err := s.service.ListFeed(ctx, identity.User.ID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: feed, ID: req.ID}
	case "posts.create":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token    string `json:"token"`
			Caption  string `json:"caption"`
			MediaRef string `json:"media_ref"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		post, err := s.service.CreatePost(ctx, identity.User.ID, p.Caption, p.MediaRef)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: post, ID: req.ID}
	case "posts.like":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token  string `json:"token"`
			PostID string `json:"post_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		post, err := s.service.ToggleLike(ctx, p.PostID, identity.User.ID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: post, ID: req.ID}
	case "posts.comment":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token  string `json:"token"`
			PostID string `json:"post_id"`
			Text   string `json:"text"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		comment, err := s.service.AddComment(ctx, p.PostID, identity.User.ID, p.Text)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: comment, ID: req.ID}
	case "users.list":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		users, err := s.service.ListUsers(ctx, identity.User.ID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: users, ID: req.ID}
	case "users.get":
		_, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token  string `json:"token"`
			UserID string `json:"user_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		user, err := s.service.GetUser(ctx, p.UserID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: user, ID: req.ID}
	case "users.follow":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token  string `json:"token"`
			UserID string `json:"user_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		out, err := s.service.ToggleFollow(ctx, identity.User.ID, p.UserID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: out, ID: req.ID}
	case "notifications.list":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		notifs, err := s.service.ListNotifications(ctx, identity.User.ID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: notifs, ID: req.ID}
	case "notifications.read":
		_, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token          string `json:"token"`
			NotificationID string `json:"notification_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		notif, err := s.service.MarkNotificationRead(ctx, p.NotificationID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: notif, ID: req.ID}
	case "messages.send":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token      string `json:"token"`
			ReceiverID string `json:"receiver_id"`
			Text       string `json:"text"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		msg, err := s.service.SendMessage(ctx, identity.User.ID, p.ReceiverID, p.Text)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: msg, ID: req.ID}
	case "messages.list":
		identity, rpcResp, ok := s.authz(ctx, req)
		if !ok {
			return rpcResp
		}
		var p struct {
			Token  string `json:"token"`
			PeerID string `json:"peer_id"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		msgs, err := s.service.ListMessages(ctx, identity.User.ID, p.PeerID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: msgs, ID: req.ID}
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32601, Message: "method not found"}, ID: req.ID}
	}
}

func (s *Server) handleAuthRegister(ctx context.Context, req request) response {
	var p struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	u, token, err := s.service.Register(ctx, p.Username, p.Email, p.Password)
	if err != nil {
		return appError(req.ID, err)
	}
	return response{JSONRPC: "2.0", Result: map[string]any{"user": u, "token": token}, ID: req.ID}
}

func (s *Server) handleAuthLogin(ctx context.Context, req request) response {
	var p struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeParams(req.Params, &p) {
		return invalidParams(req.ID)
	}
	u, token, err := s.service.Login(ctx, p.Email, p.Password)
	if err != nil {
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40100, Message: "invalid credentials"}, ID: req.ID}
	}
	return response{JSONRPC: "2.0", Result: map[string]any{"user": u, "token": token}, ID: req.ID}
}

func (s *Server) authz(ctx context.Context, req request) (domain.Identity, response, bool) {
	var p struct {
		Token string `json:"token"`
	}
	if !decodeParams(req.Params, &p) {
		return domain.Identity{}, invalidParams(req.ID), false
	}
	identity, err := s.service.Authenticate(ctx, p.Token)
	if err != nil {
		return domain.Identity{}, response{JSONRPC: "2.0", Error: &rpcError{Code: 40100, Message: "unauthorized"}, ID: req.ID}, false
	}
	return identity, response{}, true
}

func decodeParams(raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func invalidParams(id any) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: -32602, Message: "invalid params"}, ID: id}
}

func appError(id any, err error) response {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40400, Message: err.Error()}, ID: id}
	case errors.Is(err, domain.ErrConflict):
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40900, Message: err.Error()}, ID: id}
	case errors.Is(err, domain.ErrInvalidOperation):
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 40000, Message: err.Error()}, ID: id}
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: 50000, Message: fmt.Sprintf("internal error: %v", err)}, ID: id}
	}
}
