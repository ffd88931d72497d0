package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atvirokodosprendimai/realmforge/internal/domain"
)

// ErrUnknownCommand marks special-command text outside the fixed set.
var ErrUnknownCommand = errors.New("unknown special command")

// IsSpecialCommand reports whether the normalized command resolves locally
// instead of being forwarded to the text generator.
func IsSpecialCommand(command string) bool {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "inventory", "map", "stats", "help":
		return true
	}
	return false
}

// ExecuteSpecial resolves one of the fixed special commands against local
// game state. Matching is case- and whitespace-insensitive. Input and
// response are appended to the dialogue log; append failures never block
// the response.
func (s *GameService) ExecuteSpecial(ctx context.Context, worldID, userID uint, command string) (domain.CommandResult, error) {
	if strings.TrimSpace(command) == "" {
		return domain.CommandResult{}, errors.New("command is required")
	}
	normalized := strings.ToLower(strings.TrimSpace(command))

	character, _, err := s.PlayerCharacter(ctx, worldID, userID)
	if err != nil {
		return domain.CommandResult{}, err
	}

	var result domain.CommandResult
	switch normalized {
	case "inventory":
		result, err = s.inventoryCommand(ctx, character)
	case "map":
		result, err = s.mapCommand(ctx, character)
	case "stats":
		result = statsCommand(character)
	case "help":
		result = helpCommand()
	default:
		return domain.CommandResult{}, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
	if err != nil {
		return domain.CommandResult{}, err
	}

	s.appendDialogue(ctx, worldID, character.ID, true, command)
	s.appendDialogue(ctx, worldID, character.ID, false, result.Response)
	return result, nil
}

func (s *GameService) inventoryCommand(ctx context.Context, character domain.Character) (domain.CommandResult, error) {
	entries, err := s.repo.ListInventory(ctx, character.ID)
	if err != nil {
		return domain.CommandResult{}, err
	}
	if len(entries) == 0 {
		return domain.CommandResult{
			Response: "Your inventory is empty.",
			Data:     map[string]any{"items": []domain.InventoryEntry{}},
		}, nil
	}

	var b strings.Builder
	b.WriteString("=== INVENTORY ===\n\n")
	for _, entry := range entries {
		equippedTag := ""
		if entry.IsEquipped {
			equippedTag = " [EQUIPPED]"
		}
		quantityDisplay := ""
		if entry.Quantity > 1 {
			quantityDisplay = fmt.Sprintf(" (x%d)", entry.Quantity)
		}
		fmt.Fprintf(&b, "• %s%s%s\n", entry.ItemName, quantityDisplay, equippedTag)
		if entry.ItemDescription != "" {
			fmt.Fprintf(&b, "  %s\n", entry.ItemDescription)
		}
		fmt.Fprintf(&b, "  Type: %s\n\n", entry.ItemType)
	}
	return domain.CommandResult{
		Response: strings.TrimSpace(b.String()),
		Data:     map[string]any{"items": entries},
	}, nil
}

func (s *GameService) mapCommand(ctx context.Context, character domain.Character) (domain.CommandResult, error) {
	node, err := s.repo.GetNodeByID(ctx, character.NodeID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.CommandResult{Response: "Error: Unable to determine your current location."}, nil
	}
	if err != nil {
		return domain.CommandResult{}, err
	}

	var b strings.Builder
	b.WriteString("=== MAP ===\n\n")
	fmt.Fprintf(&b, "Current Location: %s\n", node.Name)
	fmt.Fprintf(&b, "Position: (%d, %d)\n", character.X, character.Y)
	fmt.Fprintf(&b, "Area Size: %dx%d\n\n", node.Width, node.Height)
	b.WriteString("[Full map functionality coming soon...]")

	return domain.CommandResult{
		Response: b.String(),
		Data: map[string]any{
			"node": map[string]any{
				"name":   node.Name,
				"width":  node.Width,
				"height": node.Height,
			},
			"position": map[string]any{
				"x": character.X,
				"y": character.Y,
				"z": character.Z,
			},
		},
	}, nil
}

func statsCommand(character domain.Character) domain.CommandResult {
	attrs := character.Attributes

	var b strings.Builder
	b.WriteString("=== CHARACTER STATS ===\n\n")
	fmt.Fprintf(&b, "Name: %s\n", character.Name)
	fmt.Fprintf(&b, "Level: %d\n", attrs.Level)
	fmt.Fprintf(&b, "HP: %d/%d\n", attrs.HP, attrs.MaxHP)
	if attrs.Strength != nil {
		fmt.Fprintf(&b, "Strength: %d\n", *attrs.Strength)
	}
	if attrs.Dexterity != nil {
		fmt.Fprintf(&b, "Dexterity: %d\n", *attrs.Dexterity)
	}
	if attrs.Intelligence != nil {
		fmt.Fprintf(&b, "Intelligence: %d\n", *attrs.Intelligence)
	}
	if attrs.Experience != nil {
		fmt.Fprintf(&b, "Experience: %d\n", *attrs.Experience)
	}

	return domain.CommandResult{
		Response: b.String(),
		Data: map[string]any{
			"character": map[string]any{
				"name":       character.Name,
				"attributes": attrs,
			},
		},
	}
}

func helpCommand() domain.CommandResult {
	var b strings.Builder
	b.WriteString("=== HELP ===\n\n")
	b.WriteString("Special Commands:\n")
	b.WriteString("• INVENTORY - View your items\n")
	b.WriteString("• MAP - View your current location\n")
	b.WriteString("• STATS - View your character statistics\n")
	b.WriteString("• HELP - Display this help message\n\n")
	b.WriteString("For all other commands, simply type what you want to do and the AI will respond!\n")
	b.WriteString(`Examples: "look around", "go north", "talk to the guard", etc.`)
	return domain.CommandResult{Response: b.String()}
}
