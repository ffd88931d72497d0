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

	"github.com/atvirokodosprendimai/realmforge/internal/application"
	"github.com/atvirokodosprendimai/realmforge/internal/domain"
)

// Server exposes game operations over JSON-RPC 2.0 on a unix socket, for
// the CLI running on the same host. All calls act as the seeded local
// user.
type Server struct {
	service  *application.GameService
	listener net.Listener
	path     string
	userID   uint
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  any         `json:"result,omitempty"`
	Error   *rpcError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Start(path string, service *application.GameService, userID uint) (*Server, error) {
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

	s := &Server{service: service, listener: ln, path: path, userID: userID}
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
	case "game.status":
		status, err := s.service.Status(ctx)
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{
			"status":    status.Status,
			"players":   status.Players,
			"uptime":    status.Uptime.Seconds(),
			"aiEnabled": status.AIEnabled,
		}, ID: req.ID}
	case "worlds.list":
		worlds, err := s.service.ListWorlds(ctx, s.userID)
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: worlds, ID: req.ID}
	case "worlds.create":
		var p struct {
			Name string `json:"name"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		world, err := s.service.CreateWorld(ctx, s.userID, p.Name)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: world, ID: req.ID}
	case "worlds.touch":
		var p struct {
			WorldID uint `json:"worldId"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		world, err := s.service.TouchLastPlayed(ctx, p.WorldID, s.userID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: world, ID: req.ID}
	case "worlds.connections.list":
		var p struct {
			WorldID uint `json:"worldId"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		views, err := s.service.ListConnections(ctx, p.WorldID)
		if err != nil {
			return internalError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: views, ID: req.ID}
	case "worlds.connections.create":
		var p struct {
			WorldID uint `json:"worldId"`
			NodeA   uint `json:"nodeA"`
			NodeB   uint `json:"nodeB"`
			DX      int  `json:"dx"`
			DY      int  `json:"dy"`
			DZ      int  `json:"dz"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		connection, err := s.service.ConnectNodes(ctx, p.WorldID, p.NodeA, p.NodeB, p.DX, p.DY, p.DZ)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{
			"connection": connection,
			"direction":  domain.DirectionLabel(connection.DX, connection.DY, connection.DZ),
		}, ID: req.ID}
	case "character.player":
		var p struct {
			WorldID uint `json:"worldId"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		character, created, err := s.service.PlayerCharacter(ctx, p.WorldID, s.userID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"character": character, "created": created}, ID: req.ID}
	case "command.run":
		var p struct {
			WorldID uint   `json:"worldId"`
			Command string `json:"command"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		if application.IsSpecialCommand(p.Command) {
			result, err := s.service.ExecuteSpecial(ctx, p.WorldID, s.userID, p.Command)
			if err != nil {
				return appError(req.ID, err)
			}
			return response{JSONRPC: "2.0", Result: map[string]any{"response": result.Response, "data": result.Data}, ID: req.ID}
		}
		text, err := s.service.ExecuteNarrative(ctx, p.WorldID, s.userID, p.Command)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"response": text}, ID: req.ID}
	case "command.special":
		var p struct {
			WorldID uint   `json:"worldId"`
			Command string `json:"command"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		result, err := s.service.ExecuteSpecial(ctx, p.WorldID, s.userID, p.Command)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"response": result.Response, "data": result.Data}, ID: req.ID}
	case "dialogue.history":
		var p struct {
			WorldID uint `json:"worldId"`
			Limit   int  `json:"limit"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		entries, err := s.service.History(ctx, p.WorldID, s.userID, p.Limit)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: entries, ID: req.ID}
	case "dialogue.log":
		var p struct {
			WorldID uint   `json:"worldId"`
			IsInput bool   `json:"isInput"`
			Text    string `json:"text"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		entry, err := s.service.LogDialogue(ctx, p.WorldID, s.userID, p.IsInput, p.Text)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: entry, ID: req.ID}
	case "dialogue.clear":
		var p struct {
			WorldID uint `json:"worldId"`
		}
		if !decodeParams(req.Params, &p) {
			return invalidParams(req.ID)
		}
		deleted, err := s.service.ClearHistory(ctx, p.WorldID, s.userID)
		if err != nil {
			return appError(req.ID, err)
		}
		return response{JSONRPC: "2.0", Result: map[string]any{"deleted": deleted}, ID: req.ID}
	default:
		return response{JSONRPC: "2.0", Error: &rpcError{Code: -32601, Message: "method not found"}, ID: req.ID}
	}
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
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 40000, Message: err.Error()}, ID: id}
}

func internalError(id any, err error) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: 50000, Message: fmt.Sprintf("internal error: %v", err)}, ID: id}
}
