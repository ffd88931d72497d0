package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/atvirokodosprendimai/realmforge/internal/application"
	"github.com/atvirokodosprendimai/realmforge/internal/domain"
)

type gameStatusPayload struct {
	Status    string  `json:"status"`
	Players   int64   `json:"players"`
	Uptime    float64 `json:"uptime"`
	AIEnabled bool    `json:"aiEnabled"`
}

type playerCharacterPayload struct {
	Character domain.Character `json:"character"`
	Created   bool             `json:"created"`
}

type commandPayload struct {
	Response string `json:"response"`
	Data     any    `json:"data,omitempty"`
}

type connectionPayload struct {
	Connection domain.NodeConnection `json:"connection"`
	Direction  string                `json:"direction"`
}

type clearedPayload struct {
	Deleted int64 `json:"deleted"`
}

func doStatus(ctx context.Context, cfg cliConfig, out *gameStatusPayload) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "game.status", map[string]any{}, out)
	}
	client := newAPIClient(cfg.Server)
	return client.request(ctx, http.MethodGet, "/api/game/status", nil, out)
}

func doWorldsList(ctx context.Context, cfg cliConfig, out *[]domain.World) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "worlds.list", map[string]any{}, out)
	}
	client := newAPIClient(cfg.Server)
	var wrapped struct {
		Worlds []domain.World `json:"worlds"`
	}
	if err := client.request(ctx, http.MethodGet, "/api/worlds", nil, &wrapped); err != nil {
		return err
	}
	*out = wrapped.Worlds
	return nil
}

func doWorldsCreate(ctx context.Context, cfg cliConfig, name string, out *domain.World) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "worlds.create", map[string]any{"name": name}, out)
	}
	client := newAPIClient(cfg.Server)
	var wrapped struct {
		World domain.World `json:"world"`
	}
	if err := client.request(ctx, http.MethodPost, "/api/worlds", map[string]any{"name": name}, &wrapped); err != nil {
		return err
	}
	*out = wrapped.World
	return nil
}

func doWorldsTouch(ctx context.Context, cfg cliConfig, worldID uint, out *domain.World) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "worlds.touch", map[string]any{"worldId": worldID}, out)
	}
	client := newAPIClient(cfg.Server)
	var wrapped struct {
		World domain.World `json:"world"`
	}
	if err := client.request(ctx, http.MethodPut, fmt.Sprintf("/api/worlds/%d/last-played", worldID), nil, &wrapped); err != nil {
		return err
	}
	*out = wrapped.World
	return nil
}

func doConnectionsList(ctx context.Context, cfg cliConfig, worldID uint, out *[]application.ConnectionView) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "worlds.connections.list", map[string]any{"worldId": worldID}, out)
	}
	client := newAPIClient(cfg.Server)
	var wrapped struct {
		Connections []application.ConnectionView `json:"connections"`
	}
	path := fmt.Sprintf("/api/worlds/%d/connections", worldID)
	if err := client.request(ctx, http.MethodGet, path, nil, &wrapped); err != nil {
		return err
	}
	*out = wrapped.Connections
	return nil
}

func doConnectionsCreate(ctx context.Context, cfg cliConfig, worldID, nodeA, nodeB uint, dx, dy, dz int, out *connectionPayload) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "worlds.connections.create", map[string]any{
			"worldId": worldID,
			"nodeA":   nodeA,
			"nodeB":   nodeB,
			"dx":      dx,
			"dy":      dy,
			"dz":      dz,
		}, out)
	}
	client := newAPIClient(cfg.Server)
	return client.request(ctx, http.MethodPost, fmt.Sprintf("/api/worlds/%d/connections", worldID), map[string]any{
		"nodeA": nodeA,
		"nodeB": nodeB,
		"dx":    dx,
		"dy":    dy,
		"dz":    dz,
	}, out)
}

func doPlayerCharacter(ctx context.Context, cfg cliConfig, worldID uint, out *playerCharacterPayload) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "character.player", map[string]any{"worldId": worldID}, out)
	}
	client := newAPIClient(cfg.Server)
	return client.request(ctx, http.MethodGet, fmt.Sprintf("/api/characters/%d/player", worldID), nil, out)
}

func doCommandRun(ctx context.Context, cfg cliConfig, worldID uint, command string, out *commandPayload) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "command.run", map[string]any{"worldId": worldID, "command": command}, out)
	}
	client := newAPIClient(cfg.Server)
	return client.request(ctx, http.MethodPost, "/api/game/command", map[string]any{"worldId": worldID, "command": command}, out)
}

func doDialogueHistory(ctx context.Context, cfg cliConfig, worldID uint, limit int, out *[]domain.DialogueEntry) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "dialogue.history", map[string]any{"worldId": worldID, "limit": limit}, out)
	}
	client := newAPIClient(cfg.Server)
	var wrapped struct {
		History []domain.DialogueEntry `json:"history"`
	}
	path := fmt.Sprintf("/api/dialogue/%d/history?limit=%d", worldID, limit)
	if err := client.request(ctx, http.MethodGet, path, nil, &wrapped); err != nil {
		return err
	}
	*out = wrapped.History
	return nil
}

func doDialogueLog(ctx context.Context, cfg cliConfig, worldID uint, isInput bool, text string, out *domain.DialogueEntry) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "dialogue.log", map[string]any{"worldId": worldID, "isInput": isInput, "text": text}, out)
	}
	client := newAPIClient(cfg.Server)
	var wrapped struct {
		Entry domain.DialogueEntry `json:"entry"`
	}
	payload := map[string]any{"isInput": isInput, "text": text}
	if err := client.request(ctx, http.MethodPost, fmt.Sprintf("/api/dialogue/%d/log", worldID), payload, &wrapped); err != nil {
		return err
	}
	*out = wrapped.Entry
	return nil
}

func doDialogueClear(ctx context.Context, cfg cliConfig, worldID uint, out *clearedPayload) error {
	if cfg.Transport == "uds" {
		client := newRPCClient(cfg.Socket)
		return client.call(ctx, "dialogue.clear", map[string]any{"worldId": worldID}, out)
	}
	client := newAPIClient(cfg.Server)
	return client.request(ctx, http.MethodDelete, fmt.Sprintf("/api/dialogue/%d/clear", worldID), nil, out)
}
