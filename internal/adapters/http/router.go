package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/atvirokodosprendimai/realmforge/internal/application"
	"github.com/atvirokodosprendimai/realmforge/internal/domain"
	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service *application.GameService
	// userID is the identity every request acts as. Resolved once at
	// startup from the seeded demo user.
	userID uint
}

func NewRouter(service *application.GameService, userID uint) http.Handler {
	h := &Handler{service: service, userID: userID}
	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Get("/hello", h.handleHello)
		api.Get("/game/status", h.handleGameStatus)
		api.Post("/game/command", h.handleGameCommand)
		api.Post("/game/command-stream", h.handleGameCommandStream)

		api.Get("/worlds", h.handleListWorlds)
		api.Post("/worlds", h.handleCreateWorld)
		api.Put("/worlds/{worldID}/last-played", h.handleTouchLastPlayed)
		api.Get("/worlds/{worldID}/connections", h.handleListConnections)
		api.Post("/worlds/{worldID}/connections", h.handleCreateConnection)

		api.Get("/characters/{worldID}/player", h.handlePlayerCharacter)
		api.Post("/commands/{worldID}/special", h.handleSpecialCommand)

		api.Get("/dialogue/{worldID}/history", h.handleDialogueHistory)
		api.Post("/dialogue/{worldID}/log", h.handleDialogueLog)
		api.Post("/dialogue/{worldID}/log-batch", h.handleDialogueLogBatch)
		api.Delete("/dialogue/{worldID}/clear", h.handleDialogueClear)
	})

	return r
}

func (h *Handler) handleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "Hello from the game server!"})
}

func (h *Handler) handleGameStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    status.Status,
		"players":   status.Players,
		"uptime":    status.Uptime.Seconds(),
		"aiEnabled": status.AIEnabled,
	})
}

func (h *Handler) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	worlds, err := h.service.ListWorlds(r.Context(), h.userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"worlds": worlds})
}

type apiCreateWorldRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	var req apiCreateWorldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	world, err := h.service.CreateWorld(r.Context(), h.userID, req.Name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"world": world})
}

func (h *Handler) handleTouchLastPlayed(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	world, err := h.service.TouchLastPlayed(r.Context(), worldID, h.userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"world": world})
}

type apiCreateConnectionRequest struct {
	NodeA uint `json:"nodeA"`
	NodeB uint `json:"nodeB"`
	DX    int  `json:"dx"`
	DY    int  `json:"dy"`
	DZ    int  `json:"dz"`
}

func (h *Handler) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	var req apiCreateConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	connection, err := h.service.ConnectNodes(r.Context(), worldID, req.NodeA, req.NodeB, req.DX, req.DY, req.DZ)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"connection": connection,
		"direction":  domain.DirectionLabel(connection.DX, connection.DY, connection.DZ),
	})
}

func (h *Handler) handleListConnections(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	connections, err := h.service.ListConnections(r.Context(), worldID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": connections})
}

func (h *Handler) handlePlayerCharacter(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	character, created, err := h.service.PlayerCharacter(r.Context(), worldID, h.userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if created {
		writeJSON(w, http.StatusOK, map[string]any{"character": character, "created": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"character": character})
}

type apiCommandRequest struct {
	Command string `json:"command"`
}

func (h *Handler) handleSpecialCommand(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	var req apiCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	result, err := h.service.ExecuteSpecial(r.Context(), worldID, h.userID, req.Command)
	if err != nil {
		if errors.Is(err, application.ErrUnknownCommand) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": result.Response, "data": result.Data})
}

type apiGameCommandRequest struct {
	WorldID uint   `json:"worldId"`
	Command string `json:"command"`
}

// handleGameCommand dispatches a raw command: the fixed special commands
// resolve locally, everything else goes to the text generator.
func (h *Handler) handleGameCommand(w http.ResponseWriter, r *http.Request) {
	var req apiGameCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if req.WorldID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "worldId is required"})
		return
	}

	if application.IsSpecialCommand(req.Command) {
		result, err := h.service.ExecuteSpecial(r.Context(), req.WorldID, h.userID, req.Command)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"response": result.Response, "data": result.Data})
		return
	}

	response, err := h.service.ExecuteNarrative(r.Context(), req.WorldID, h.userID, req.Command)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": response})
}

// handleGameCommandStream is the SSE variant of handleGameCommand. Pre-flight
// failures (bad payload, AI disabled) are plain JSON statuses; the stream only
// opens once the command is accepted. Chunks then go out as
// `data: {"chunk": ...}` events, a successful stream ends with
// `data: {"done": true}`, and a mid-stream failure ends with
// `data: {"error": ...}` instead. Special commands stream as a single
// chunk.
func (h *Handler) handleGameCommandStream(w http.ResponseWriter, r *http.Request) {
	var req apiGameCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	if req.WorldID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "worldId is required"})
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "command is required"})
		return
	}
	if !application.IsSpecialCommand(req.Command) && !h.service.AIEnabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": application.ErrAIDisabled.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if application.IsSpecialCommand(req.Command) {
		result, err := h.service.ExecuteSpecial(r.Context(), req.WorldID, h.userID, req.Command)
		if err != nil {
			_ = emit(map[string]any{"error": err.Error()})
			return
		}
		if err := emit(map[string]any{"chunk": result.Response}); err != nil {
			return
		}
		_ = emit(map[string]any{"done": true})
		return
	}

	_, err := h.service.ExecuteNarrativeStream(r.Context(), req.WorldID, h.userID, req.Command, func(chunk string) error {
		return emit(map[string]any{"chunk": chunk})
	})
	if err != nil {
		_ = emit(map[string]any{"error": err.Error()})
		return
	}
	_ = emit(map[string]any{"done": true})
}

func (h *Handler) handleDialogueHistory(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}
	entries, err := h.service.History(r.Context(), worldID, h.userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

type apiLogDialogueRequest struct {
	IsInput bool   `json:"isInput"`
	Text    string `json:"text"`
}

func (h *Handler) handleDialogueLog(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	var req apiLogDialogueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	entry, err := h.service.LogDialogue(r.Context(), worldID, h.userID, req.IsInput, req.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

type apiLogDialogueBatchRequest struct {
	Entries []apiLogDialogueRequest `json:"entries"`
}

func (h *Handler) handleDialogueLogBatch(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	var req apiLogDialogueBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	inputs := make([]application.DialogueInput, 0, len(req.Entries))
	for _, e := range req.Entries {
		inputs = append(inputs, application.DialogueInput{IsInput: e.IsInput, Text: e.Text})
	}
	entries, err := h.service.LogDialogueBatch(r.Context(), worldID, h.userID, inputs)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entries": entries})
}

func (h *Handler) handleDialogueClear(w http.ResponseWriter, r *http.Request) {
	worldID, err := worldIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	deleted, err := h.service.ClearHistory(r.Context(), worldID, h.userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func worldIDParam(r *http.Request) (uint, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "worldID"))
	if raw == "" {
		return 0, fmt.Errorf("worldID is required")
	}
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("worldID must be an integer")
	}
	return uint(parsed), nil
}

// writeServiceError maps service failures onto HTTP statuses. Unrecognized
// errors default to 400 so validation failures surface as client errors.
func writeServiceError(w http.ResponseWriter, err error) {
	var genErr *domain.GenerationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, application.ErrAccessDenied):
		writeJSON(w, http.StatusForbidden, map[string]any{"error": err.Error()})
	case errors.Is(err, application.ErrAIDisabled):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error()})
	case errors.As(err, &genErr):
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
