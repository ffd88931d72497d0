package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/realmforge/internal/adapters/db/sqlite"
	"github.com/atvirokodosprendimai/realmforge/internal/application"
	"github.com/atvirokodosprendimai/realmforge/internal/domain"
)

type fakeGenerator struct {
	chunks []string
	err    error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return strings.Join(f.chunks, ""), nil
}

func (f *fakeGenerator) GenerateTextStream(ctx context.Context, prompt string, emit func(chunk string) error) error {
	if f.err != nil {
		return f.err
	}
	for _, chunk := range f.chunks {
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

type testEnv struct {
	server  *httptest.Server
	service *application.GameService
	repo    *sqlite.GameRepository
	userID  uint
}

func newTestEnv(t *testing.T, generator domain.TextGenerator) *testEnv {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "realmforge_test.db")

	db, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlite.RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	repo := sqlite.NewGameRepository(db)
	service := application.NewGameService(repo, generator)
	user, err := service.EnsureUser(ctx, "demo_user", "demo")
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}

	server := httptest.NewServer(NewRouter(service, user.ID))
	t.Cleanup(server.Close)
	return &testEnv{server: server, service: service, repo: repo, userID: user.ID}
}

func (e *testEnv) do(t *testing.T, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		body = buf
	}
	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (e *testEnv) createWorld(t *testing.T, name string) domain.World {
	t.Helper()
	resp, data := e.do(t, http.MethodPost, "/api/worlds", map[string]any{"name": name})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create world: status %d, body %s", resp.StatusCode, data)
	}
	var out struct {
		World domain.World `json:"world"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode world: %v", err)
	}
	if out.World.ID == 0 {
		t.Fatalf("world envelope missing: %s", data)
	}
	return out.World
}

func TestGameStatusReportsAIDisabled(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, data := env.do(t, http.MethodGet, "/api/game/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["status"] != "online" {
		t.Fatalf("unexpected status payload: %s", data)
	}
	enabled, ok := out["aiEnabled"]
	if !ok {
		t.Fatalf("aiEnabled key missing: %s", data)
	}
	if enabled != false {
		t.Fatalf("expected aiEnabled false, got %v", enabled)
	}
}

func TestWorldLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	if resp, data := env.do(t, http.MethodPost, "/api/worlds", map[string]any{"name": "  "}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank name: status %d, body %s", resp.StatusCode, data)
	}

	world := env.createWorld(t, "Aldora")

	resp, data := env.do(t, http.MethodGet, "/api/worlds", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list worlds: status %d", resp.StatusCode)
	}
	var listed struct {
		Worlds []domain.World `json:"worlds"`
	}
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("decode worlds: %v", err)
	}
	if len(listed.Worlds) != 1 || listed.Worlds[0].ID != world.ID {
		t.Fatalf("expected world %d, got %s", world.ID, data)
	}

	resp, _ = env.do(t, http.MethodPut, fmt.Sprintf("/api/worlds/%d/last-played", world.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("touch: status %d", resp.StatusCode)
	}
}

func TestTouchLastPlayedForbiddenOnForeignWorld(t *testing.T) {
	env := newTestEnv(t, nil)

	// World without an admin row for the request identity.
	foreign, err := env.repo.CreateWorld(context.Background(), domain.World{Name: "NotMine"})
	if err != nil {
		t.Fatalf("create world: %v", err)
	}

	resp, data := env.do(t, http.MethodPut, fmt.Sprintf("/api/worlds/%d/last-played", foreign.ID), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", resp.StatusCode, data)
	}
}

func TestPlayerCharacterEndpointReportsCreation(t *testing.T) {
	env := newTestEnv(t, nil)
	world := env.createWorld(t, "Aldora")

	resp, data := env.do(t, http.MethodGet, fmt.Sprintf("/api/characters/%d/player", world.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, data)
	}
	var first struct {
		Character domain.Character `json:"character"`
		Created   bool             `json:"created"`
	}
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !first.Created || first.Character.Name != "Player" {
		t.Fatalf("unexpected first contact payload: %s", data)
	}

	_, data = env.do(t, http.MethodGet, fmt.Sprintf("/api/characters/%d/player", world.ID), nil)
	var second struct {
		Character domain.Character `json:"character"`
		Created   bool             `json:"created"`
	}
	if err := json.Unmarshal(data, &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.Created {
		t.Fatalf("second contact must not report created: %s", data)
	}
	if second.Character.ID != first.Character.ID {
		t.Fatalf("character id changed between calls")
	}
}

func TestSpecialCommandEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	world := env.createWorld(t, "Aldora")

	resp, data := env.do(t, http.MethodPost, fmt.Sprintf("/api/commands/%d/special", world.ID), map[string]any{"command": "inventory"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, data)
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Response != "Your inventory is empty." {
		t.Fatalf("unexpected response: %q", out.Response)
	}

	resp, data = env.do(t, http.MethodPost, fmt.Sprintf("/api/commands/%d/special", world.ID), map[string]any{"command": "dance"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown command, got %d: %s", resp.StatusCode, data)
	}
}

func TestGameCommandWithoutAIReturns503(t *testing.T) {
	env := newTestEnv(t, nil)
	world := env.createWorld(t, "Aldora")

	resp, data := env.do(t, http.MethodPost, "/api/game/command", map[string]any{"worldId": world.ID, "command": "look around"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.StatusCode, data)
	}

	// Special commands keep working in degraded mode.
	resp, data = env.do(t, http.MethodPost, "/api/game/command", map[string]any{"worldId": world.ID, "command": "help"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("special command in degraded mode: %d: %s", resp.StatusCode, data)
	}
}

func TestGameCommandForwardsNarrative(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{chunks: []string{"You see ", "a door."}})
	world := env.createWorld(t, "Aldora")

	resp, data := env.do(t, http.MethodPost, "/api/game/command", map[string]any{"worldId": world.ID, "command": "look around"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, data)
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Response != "You see a door." {
		t.Fatalf("unexpected response: %q", out.Response)
	}
}

func TestGameCommandGenerationFailureReturns500(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{err: &domain.GenerationError{Message: "quota exceeded"}})
	world := env.createWorld(t, "Aldora")

	resp, data := env.do(t, http.MethodPost, "/api/game/command", map[string]any{"worldId": world.ID, "command": "look around"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", resp.StatusCode, data)
	}
}

type sseEvent struct {
	Chunk string `json:"chunk"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

func readSSE(t *testing.T, body io.Reader) []sseEvent {
	t.Helper()
	events := make([]sseEvent, 0)
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev sseEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode sse line %q: %v", line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan sse: %v", err)
	}
	return events
}

func TestGameCommandStream(t *testing.T) {
	chunks := []string{"The door ", "creaks ", "open."}
	env := newTestEnv(t, &fakeGenerator{chunks: chunks})
	world := env.createWorld(t, "Aldora")

	payload, _ := json.Marshal(map[string]any{"worldId": world.ID, "command": "open the door"})
	resp, err := http.Post(env.server.URL+"/api/game/command-stream", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post stream: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	events := readSSE(t, resp.Body)
	if len(events) != len(chunks)+1 {
		t.Fatalf("expected %d events, got %d: %+v", len(chunks)+1, len(events), events)
	}
	for i, chunk := range chunks {
		if events[i].Chunk != chunk {
			t.Fatalf("chunk %d: expected %q, got %q", i, chunk, events[i].Chunk)
		}
	}
	if !events[len(events)-1].Done {
		t.Fatalf("stream must end with done event: %+v", events)
	}

	// The persisted response equals the concatenated chunks.
	_, data := env.do(t, http.MethodGet, fmt.Sprintf("/api/dialogue/%d/history", world.ID), nil)
	var out struct {
		History []domain.DialogueEntry `json:"history"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(out.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(out.History))
	}
	if out.History[1].Text != strings.Join(chunks, "") {
		t.Fatalf("persisted text %q does not match stream", out.History[1].Text)
	}
}

func TestGameCommandStreamErrorEvent(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{err: &domain.GenerationError{Message: "quota exceeded"}})
	world := env.createWorld(t, "Aldora")

	payload, _ := json.Marshal(map[string]any{"worldId": world.ID, "command": "open the door"})
	resp, err := http.Post(env.server.URL+"/api/game/command-stream", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("post stream: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	events := readSSE(t, resp.Body)
	if len(events) == 0 {
		t.Fatalf("expected at least one event")
	}
	last := events[len(events)-1]
	if last.Error == "" || last.Done {
		t.Fatalf("expected terminal error event, got %+v", last)
	}
}

func TestGameCommandStreamRejectsBeforeOpening(t *testing.T) {
	env := newTestEnv(t, nil)
	world := env.createWorld(t, "Aldora")

	// Narrative command with no generator: plain 503, no stream.
	resp, data := env.do(t, http.MethodPost, "/api/game/command-stream", map[string]any{"worldId": world.ID, "command": "look around"})
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d: %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("pre-flight failure must not open a stream, got content type %q", ct)
	}
	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error == "" {
		t.Fatalf("expected error body, got %s", data)
	}

	// Blank command: plain 400.
	resp, _ = env.do(t, http.MethodPost, "/api/game/command-stream", map[string]any{"worldId": world.ID, "command": "  "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank command, got %d", resp.StatusCode)
	}

	// Special commands still stream without a generator.
	resp, data = env.do(t, http.MethodPost, "/api/game/command-stream", map[string]any{"worldId": world.ID, "command": "help"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("special stream: status %d: %s", resp.StatusCode, data)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("special stream content type %q", ct)
	}
	events := readSSE(t, bytes.NewReader(data))
	if len(events) != 2 || events[0].Chunk == "" || !events[1].Done {
		t.Fatalf("expected chunk+done events, got %+v", events)
	}
}

func TestDialogueEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	world := env.createWorld(t, "Aldora")

	resp, data := env.do(t, http.MethodPost, fmt.Sprintf("/api/dialogue/%d/log", world.ID), map[string]any{"isInput": true, "text": "hello"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("log: status %d: %s", resp.StatusCode, data)
	}
	var logged struct {
		Entry domain.DialogueEntry `json:"entry"`
	}
	if err := json.Unmarshal(data, &logged); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if logged.Entry.ID == 0 || !logged.Entry.IsInput || logged.Entry.Text != "hello" {
		t.Fatalf("input flag or text lost on log: %s", data)
	}

	resp, data = env.do(t, http.MethodPost, fmt.Sprintf("/api/dialogue/%d/log-batch", world.ID), map[string]any{
		"entries": []map[string]any{
			{"isInput": false, "text": "Greetings."},
			{"isInput": true, "text": "who are you"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("log-batch: status %d: %s", resp.StatusCode, data)
	}

	resp, data = env.do(t, http.MethodPost, fmt.Sprintf("/api/dialogue/%d/log-batch", world.ID), map[string]any{"entries": []map[string]any{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty batch: status %d: %s", resp.StatusCode, data)
	}

	_, data = env.do(t, http.MethodGet, fmt.Sprintf("/api/dialogue/%d/history?limit=2", world.ID), nil)
	var out struct {
		History []domain.DialogueEntry `json:"history"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(out.History) != 2 {
		t.Fatalf("expected limit to apply, got %d entries", len(out.History))
	}

	resp, data = env.do(t, http.MethodDelete, fmt.Sprintf("/api/dialogue/%d/clear", world.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear: status %d: %s", resp.StatusCode, data)
	}
	var cleared struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.Unmarshal(data, &cleared); err != nil {
		t.Fatalf("decode cleared: %v", err)
	}
	if cleared.Deleted != 3 {
		t.Fatalf("expected 3 deletions, got %d", cleared.Deleted)
	}
}

func TestConnectionEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	world := env.createWorld(t, "Aldora")

	ctx := context.Background()
	nodeA, err := env.repo.CreateNode(ctx, domain.Node{WorldID: world.ID, Name: "A", Width: 5, Height: 5})
	if err != nil {
		t.Fatalf("create node: %v", err)
	}
	nodeB, err := env.repo.CreateNode(ctx, domain.Node{WorldID: world.ID, Name: "B", Width: 5, Height: 5})
	if err != nil {
		t.Fatalf("create node: %v", err)
	}

	resp, data := env.do(t, http.MethodPost, fmt.Sprintf("/api/worlds/%d/connections", world.ID), map[string]any{
		"nodeA": nodeA.ID,
		"nodeB": nodeB.ID,
		"dy":    1,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create connection: status %d: %s", resp.StatusCode, data)
	}
	var created struct {
		Direction string `json:"direction"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Direction != "north" {
		t.Fatalf("expected direction north, got %q", created.Direction)
	}

	resp, data = env.do(t, http.MethodGet, fmt.Sprintf("/api/worlds/%d/connections", world.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list connections: status %d", resp.StatusCode)
	}
	var listed struct {
		Connections []application.ConnectionView `json:"connections"`
	}
	if err := json.Unmarshal(data, &listed); err != nil {
		t.Fatalf("decode views: %v", err)
	}
	if len(listed.Connections) != 1 || listed.Connections[0].Direction != "north" {
		t.Fatalf("unexpected connections payload: %s", data)
	}
}
