package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/atvirokodosprendimai/realmforge/internal/domain"
)

func TestIsSpecialCommand(t *testing.T) {
	for _, command := range []string{"inventory", "MAP", " Stats ", "help", "  INVENTORY  "} {
		if !IsSpecialCommand(command) {
			t.Fatalf("%q should be special", command)
		}
	}
	for _, command := range []string{"look around", "go north", "", "inventory check"} {
		if IsSpecialCommand(command) {
			t.Fatalf("%q should not be special", command)
		}
	}
}

func TestExecuteSpecialUnknownCommand(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, nil)
	user, world := setupWorld(t, service)

	if _, err := service.ExecuteSpecial(ctx, world.ID, user.ID, "dance"); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteSpecialEmptyInventory(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, nil)
	user, world := setupWorld(t, service)

	result, err := service.ExecuteSpecial(ctx, world.ID, user.ID, "  InVeNtOrY ")
	if err != nil {
		t.Fatalf("execute special: %v", err)
	}
	if result.Response != "Your inventory is empty." {
		t.Fatalf("unexpected response: %q", result.Response)
	}
}

func TestExecuteSpecialInventoryListing(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, nil)
	user, world := setupWorld(t, service)

	character, _, err := service.PlayerCharacter(ctx, world.ID, user.ID)
	if err != nil {
		t.Fatalf("player character: %v", err)
	}
	if _, err := service.GrantItem(ctx, character.ID, domain.Item{Name: "Torch", Description: "A burning torch", Type: "tool"}, 3, false); err != nil {
		t.Fatalf("grant torch: %v", err)
	}
	if _, err := service.GrantItem(ctx, character.ID, domain.Item{Name: "Blade", Type: "weapon"}, 1, true); err != nil {
		t.Fatalf("grant blade: %v", err)
	}

	result, err := service.ExecuteSpecial(ctx, world.ID, user.ID, "inventory")
	if err != nil {
		t.Fatalf("execute special: %v", err)
	}
	if !strings.HasPrefix(result.Response, "=== INVENTORY ===") {
		t.Fatalf("missing header: %q", result.Response)
	}
	if !strings.Contains(result.Response, "• Torch (x3)") {
		t.Fatalf("missing quantity display: %q", result.Response)
	}
	if !strings.Contains(result.Response, "• Blade [EQUIPPED]") {
		t.Fatalf("missing equipped tag: %q", result.Response)
	}
	if !strings.Contains(result.Response, "A burning torch") {
		t.Fatalf("missing description: %q", result.Response)
	}
	if !strings.Contains(result.Response, "Type: weapon") {
		t.Fatalf("missing item type: %q", result.Response)
	}
}

func TestExecuteSpecialMap(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, nil)
	user, world := setupWorld(t, service)

	result, err := service.ExecuteSpecial(ctx, world.ID, user.ID, "map")
	if err != nil {
		t.Fatalf("execute special: %v", err)
	}
	for _, fragment := range []string{
		"=== MAP ===",
		"Current Location: Starting Area",
		"Position: (5, 5)",
		"Area Size: 10x10",
		"[Full map functionality coming soon...]",
	} {
		if !strings.Contains(result.Response, fragment) {
			t.Fatalf("map response missing %q: %q", fragment, result.Response)
		}
	}
}

func TestExecuteSpecialStats(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, nil)
	user, world := setupWorld(t, service)

	result, err := service.ExecuteSpecial(ctx, world.ID, user.ID, "stats")
	if err != nil {
		t.Fatalf("execute special: %v", err)
	}
	for _, fragment := range []string{
		"=== CHARACTER STATS ===",
		"Name: Player",
		"Level: 1",
		"HP: 100/100",
	} {
		if !strings.Contains(result.Response, fragment) {
			t.Fatalf("stats response missing %q: %q", fragment, result.Response)
		}
	}
	if strings.Contains(result.Response, "Strength:") {
		t.Fatalf("absent optional stats must not be printed: %q", result.Response)
	}
}

func TestExecuteSpecialHelp(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, nil)
	user, world := setupWorld(t, service)

	result, err := service.ExecuteSpecial(ctx, world.ID, user.ID, "help")
	if err != nil {
		t.Fatalf("execute special: %v", err)
	}
	for _, fragment := range []string{"=== HELP ===", "INVENTORY", "MAP", "STATS", "HELP"} {
		if !strings.Contains(result.Response, fragment) {
			t.Fatalf("help response missing %q: %q", fragment, result.Response)
		}
	}
}

func TestExecuteSpecialLogsExchange(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, nil)
	user, world := setupWorld(t, service)

	result, err := service.ExecuteSpecial(ctx, world.ID, user.ID, "help")
	if err != nil {
		t.Fatalf("execute special: %v", err)
	}

	history, err := service.History(ctx, world.ID, user.ID, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected input and response logged, got %d entries", len(history))
	}
	if !history[0].IsInput || history[0].Text != "help" {
		t.Fatalf("input not logged: %+v", history[0])
	}
	if history[1].IsInput || history[1].Text != strings.TrimSpace(result.Response) {
		t.Fatalf("response not logged: %+v", history[1])
	}
}

func TestSpecialCommandsWorkWithoutGenerator(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(t, nil)
	user, world := setupWorld(t, service)

	if service.AIEnabled() {
		t.Fatalf("service should report ai disabled")
	}
	for _, command := range []string{"inventory", "map", "stats", "help"} {
		if _, err := service.ExecuteSpecial(ctx, world.ID, user.ID, command); err != nil {
			t.Fatalf("%s failed without generator: %v", command, err)
		}
	}
}
