package domain

import (
	"context"
	"errors"
)

// ErrNotFound and ErrConflict are the storage outcomes callers branch on.
// Repositories translate driver-specific errors into these before returning.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type GameRepository interface {
	CreateUser(ctx context.Context, value User) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)

	CreateWorld(ctx context.Context, value World) (World, error)
	GetWorldByID(ctx context.Context, worldID uint) (World, error)
	ListWorldsByAdmin(ctx context.Context, userID uint) ([]World, error)
	TouchWorld(ctx context.Context, worldID uint) (World, error)
	AddWorldAdmin(ctx context.Context, worldID, userID uint) error
	IsWorldAdmin(ctx context.Context, worldID, userID uint) (bool, error)

	CreateNode(ctx context.Context, value Node) (Node, error)
	GetNodeByID(ctx context.Context, nodeID uint) (Node, error)
	FirstNodeInWorld(ctx context.Context, worldID uint) (Node, error)
	CreateConnection(ctx context.Context, value NodeConnection) (NodeConnection, error)
	ListConnections(ctx context.Context, worldID uint) ([]NodeConnection, error)

	GetPlayerCharacter(ctx context.Context, worldID, userID uint) (Character, error)
	CreateCharacter(ctx context.Context, value Character) (Character, error)
	CountPlayerCharacters(ctx context.Context) (int64, error)

	CreateItem(ctx context.Context, value Item) (Item, error)
	AddInventory(ctx context.Context, value CharacterInventory) (CharacterInventory, error)
	ListInventory(ctx context.Context, characterID uint) ([]InventoryEntry, error)

	AppendDialogue(ctx context.Context, value DialogueEntry) (DialogueEntry, error)
	AppendDialogueBatch(ctx context.Context, values []DialogueEntry) ([]DialogueEntry, error)
	ListDialogue(ctx context.Context, worldID, playerCharacterID uint, limit int) ([]DialogueEntry, error)
	ClearDialogue(ctx context.Context, worldID, playerCharacterID uint) (int64, error)

	AppendConversation(ctx context.Context, value ConversationEntry) (ConversationEntry, error)
}

// TextGenerator is the capability interface over a third-party text
// completion provider. GenerateTextStream calls emit once per fragment in
// provider-emission order; a non-nil error from emit stops the stream.
// Implementations must not leak provider error types: every failure is a
// *GenerationError.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateTextStream(ctx context.Context, prompt string, emit func(chunk string) error) error
}

// GenerationError wraps any upstream provider failure behind a single error
// kind with a human-readable message.
type GenerationError struct {
	Message string
}

func (e *GenerationError) Error() string {
	return "text generation failed: " + e.Message
}
