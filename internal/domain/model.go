package domain

import "time"

type User struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

type World struct {
	ID           uint       `json:"id"`
	Name         string     `json:"name"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastPlayedAt *time.Time `json:"lastPlayedAt"`
}

type WorldAdmin struct {
	WorldID uint
	UserID  uint
}

// Terrain is the semi-structured payload of a node grid. It is stored as
// JSON because its shape varies by content, but callers always go through
// this struct rather than raw maps.
type Terrain struct {
	Tiles []TerrainTile `json:"tiles"`
}

type TerrainTile struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Kind string `json:"kind"`
}

type Node struct {
	ID      uint    `json:"id"`
	WorldID uint    `json:"worldId"`
	Name    string  `json:"name"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Terrain Terrain `json:"terrain"`
}

// NodeConnection is a directed spatial edge between two nodes of the same
// world. The (dx, dy, dz) sign pattern encodes the compass/vertical
// direction; direction names are derived, never stored.
type NodeConnection struct {
	ID      uint `json:"id"`
	WorldID uint `json:"worldId"`
	NodeA   uint `json:"nodeA"`
	NodeB   uint `json:"nodeB"`
	DX      int  `json:"dx"`
	DY      int  `json:"dy"`
	DZ      int  `json:"dz"`
}

// CharacterAttributes is the typed view of a character's JSON attributes
// payload. Optional stats are pointers so absent keys stay absent on
// round-trip.
type CharacterAttributes struct {
	Level        int  `json:"level"`
	HP           int  `json:"hp"`
	MaxHP        int  `json:"maxHp"`
	Strength     *int `json:"strength,omitempty"`
	Dexterity    *int `json:"dexterity,omitempty"`
	Intelligence *int `json:"intelligence,omitempty"`
	Experience   *int `json:"experience,omitempty"`
}

// Character is a player character when UserID is set and an NPC when it is
// nil.
type Character struct {
	ID         uint                `json:"id"`
	WorldID    uint                `json:"worldId"`
	UserID     *uint               `json:"userId"`
	Name       string              `json:"name"`
	NodeID     uint                `json:"nodeId"`
	X          int                 `json:"x"`
	Y          int                 `json:"y"`
	Z          int                 `json:"z"`
	Attributes CharacterAttributes `json:"attributes"`
}

// Item is an immutable blueprint describing what an item is, not who owns
// it.
type Item struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	Attributes  map[string]any `json:"attributes"`
}

type CharacterInventory struct {
	ID          uint `json:"id"`
	CharacterID uint `json:"characterId"`
	ItemID      uint `json:"itemId"`
	Quantity    int  `json:"quantity"`
	IsEquipped  bool `json:"isEquipped"`
}

// InventoryEntry is an owned item instance joined to its blueprint, the
// shape the inventory command works with.
type InventoryEntry struct {
	ID              uint   `json:"id"`
	ItemName        string `json:"itemName"`
	ItemDescription string `json:"itemDescription"`
	ItemType        string `json:"itemType"`
	Quantity        int    `json:"quantity"`
	IsEquipped      bool   `json:"isEquipped"`
}

// DialogueEntry is one exchange unit between the system and a player
// character: IsInput marks player input, otherwise it is a system response.
type DialogueEntry struct {
	ID                uint      `json:"id"`
	WorldID           uint      `json:"worldId"`
	PlayerCharacterID uint      `json:"playerCharacterId"`
	IsInput           bool      `json:"isInput"`
	Text              string    `json:"text"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ConversationEntry records one utterance from a speaking character to a
// target character. Reserved for character-to-character dialogue.
type ConversationEntry struct {
	ID                  uint      `json:"id"`
	WorldID             uint      `json:"worldId"`
	SpeakingCharacterID uint      `json:"speakingCharacterId"`
	TargetCharacterID   uint      `json:"targetCharacterId"`
	Text                string    `json:"text"`
	CreatedAt           time.Time `json:"createdAt"`
}

type GameStatus struct {
	Status    string
	Players   int64
	Uptime    time.Duration
	AIEnabled bool
}

// CommandResult is the outcome of a locally resolved special command.
type CommandResult struct {
	Response string
	Data     any
}
