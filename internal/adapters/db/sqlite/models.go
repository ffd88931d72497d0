package sqlite

import "time"

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type WorldModel struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	CreatedAt    time.Time
	LastPlayedAt *time.Time
}

func (WorldModel) TableName() string { return "worlds" }

type WorldAdminModel struct {
	WorldID uint `gorm:"primaryKey"`
	UserID  uint `gorm:"primaryKey"`
}

func (WorldAdminModel) TableName() string { return "world_admins" }

// Terrain is stored as a JSON text column; its shape varies by content.
type NodeModel struct {
	ID      uint   `gorm:"primaryKey"`
	WorldID uint   `gorm:"not null;index"`
	Name    string `gorm:"not null"`
	Width   int    `gorm:"not null"`
	Height  int    `gorm:"not null"`
	Terrain string `gorm:"not null;default:'{}'"`
}

func (NodeModel) TableName() string { return "nodes" }

type NodeConnectionModel struct {
	ID      uint `gorm:"primaryKey"`
	WorldID uint `gorm:"not null;index"`
	NodeA   uint `gorm:"not null;index"`
	NodeB   uint `gorm:"not null;index"`
	DX      int  `gorm:"not null"`
	DY      int  `gorm:"not null"`
	DZ      int  `gorm:"not null"`
}

func (NodeConnectionModel) TableName() string { return "node_connections" }

// UserID NULL marks an NPC. Player characters are unique per
// (world_id, user_id) via a partial index created in the migrations.
type CharacterModel struct {
	ID         uint   `gorm:"primaryKey"`
	WorldID    uint   `gorm:"not null;index"`
	UserID     *uint  `gorm:"index"`
	Name       string `gorm:"not null"`
	NodeID     uint   `gorm:"not null;index"`
	X          int    `gorm:"not null"`
	Y          int    `gorm:"not null"`
	Z          int    `gorm:"not null;default:0"`
	Attributes string `gorm:"not null;default:'{}'"`
}

func (CharacterModel) TableName() string { return "characters" }

type ItemModel struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	Type        string `gorm:"not null"`
	Attributes  string `gorm:"not null;default:'{}'"`
}

func (ItemModel) TableName() string { return "items" }

type CharacterInventoryModel struct {
	ID          uint `gorm:"primaryKey"`
	CharacterID uint `gorm:"not null;index"`
	ItemID      uint `gorm:"not null;index"`
	Quantity    int  `gorm:"not null;default:1"`
	IsEquipped  bool `gorm:"not null;default:false"`
}

func (CharacterInventoryModel) TableName() string { return "character_inventory" }

type SystemDialogueLogModel struct {
	ID                uint      `gorm:"primaryKey"`
	WorldID           uint      `gorm:"not null;index"`
	PlayerCharacterID uint      `gorm:"not null;index:idx_system_dialog_player_time"`
	IsInput           bool      `gorm:"not null"`
	Text              string    `gorm:"not null"`
	CreatedAt         time.Time `gorm:"index:idx_system_dialog_player_time"`
}

func (SystemDialogueLogModel) TableName() string { return "system_dialogue_log" }

type CharacterConversationLogModel struct {
	ID                  uint      `gorm:"primaryKey"`
	WorldID             uint      `gorm:"not null;index"`
	SpeakingCharacterID uint      `gorm:"not null;index:idx_character_convo_pair_time"`
	TargetCharacterID   uint      `gorm:"not null;index:idx_character_convo_pair_time"`
	Text                string    `gorm:"not null"`
	CreatedAt           time.Time `gorm:"index:idx_character_convo_pair_time"`
}

func (CharacterConversationLogModel) TableName() string { return "character_conversation_log" }
