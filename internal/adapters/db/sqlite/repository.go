package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/realmforge/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"
)

type GameRepository struct {
	db *gorm.DB
}

func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        path + "?_pragma=foreign_keys(1)",
	}, &gorm.Config{})
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// translateError maps driver errors onto the domain sentinels the service
// layer branches on.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrConflict
	}
	return err
}

func (r *GameRepository) CreateUser(ctx context.Context, value domain.User) (domain.User, error) {
	m := UserModel{Username: strings.TrimSpace(value.Username), PasswordHash: value.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.User{}, translateError(err)
	}
	return domain.User{ID: m.ID, Username: m.Username, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt}, nil
}

func (r *GameRepository) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&m).Error; err != nil {
		return domain.User{}, translateError(err)
	}
	return domain.User{ID: m.ID, Username: m.Username, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt}, nil
}

func (r *GameRepository) CreateWorld(ctx context.Context, value domain.World) (domain.World, error) {
	m := WorldModel{Name: value.Name, LastPlayedAt: value.LastPlayedAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.World{}, translateError(err)
	}
	return worldFromModel(m), nil
}

func (r *GameRepository) GetWorldByID(ctx context.Context, worldID uint) (domain.World, error) {
	var m WorldModel
	if err := r.db.WithContext(ctx).First(&m, worldID).Error; err != nil {
		return domain.World{}, translateError(err)
	}
	return worldFromModel(m), nil
}

func (r *GameRepository) ListWorldsByAdmin(ctx context.Context, userID uint) ([]domain.World, error) {
	rows := make([]WorldModel, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT w.id,
       w.name,
       w.created_at,
       w.last_played_at
FROM worlds w
INNER JOIN world_admins wa ON wa.world_id = w.id
WHERE wa.user_id = ?
ORDER BY w.last_played_at
`, userID).Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	result := make([]domain.World, 0, len(rows))
	for _, m := range rows {
		result = append(result, worldFromModel(m))
	}
	return result, nil
}

func (r *GameRepository) TouchWorld(ctx context.Context, worldID uint) (domain.World, error) {
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(&WorldModel{}).Where("id = ?", worldID).Update("last_played_at", now).Error; err != nil {
		return domain.World{}, translateError(err)
	}
	return r.GetWorldByID(ctx, worldID)
}

func (r *GameRepository) AddWorldAdmin(ctx context.Context, worldID, userID uint) error {
	m := WorldAdminModel{WorldID: worldID, UserID: userID}
	return translateError(r.db.WithContext(ctx).Create(&m).Error)
}

func (r *GameRepository) IsWorldAdmin(ctx context.Context, worldID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&WorldAdminModel{}).
		Where("world_id = ? AND user_id = ?", worldID, userID).
		Count(&count).Error
	if err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

func (r *GameRepository) CreateNode(ctx context.Context, value domain.Node) (domain.Node, error) {
	terrain, err := json.Marshal(value.Terrain)
	if err != nil {
		return domain.Node{}, err
	}
	m := NodeModel{WorldID: value.WorldID, Name: value.Name, Width: value.Width, Height: value.Height, Terrain: string(terrain)}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Node{}, translateError(err)
	}
	return nodeFromModel(m)
}

func (r *GameRepository) GetNodeByID(ctx context.Context, nodeID uint) (domain.Node, error) {
	var m NodeModel
	if err := r.db.WithContext(ctx).First(&m, nodeID).Error; err != nil {
		return domain.Node{}, translateError(err)
	}
	return nodeFromModel(m)
}

func (r *GameRepository) FirstNodeInWorld(ctx context.Context, worldID uint) (domain.Node, error) {
	var m NodeModel
	if err := r.db.WithContext(ctx).Where("world_id = ?", worldID).Order("id ASC").First(&m).Error; err != nil {
		return domain.Node{}, translateError(err)
	}
	return nodeFromModel(m)
}

func (r *GameRepository) CreateConnection(ctx context.Context, value domain.NodeConnection) (domain.NodeConnection, error) {
	m := NodeConnectionModel{
		WorldID: value.WorldID,
		NodeA:   value.NodeA,
		NodeB:   value.NodeB,
		DX:      value.DX,
		DY:      value.DY,
		DZ:      value.DZ,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.NodeConnection{}, translateError(err)
	}
	return connectionFromModel(m), nil
}

func (r *GameRepository) ListConnections(ctx context.Context, worldID uint) ([]domain.NodeConnection, error) {
	rows := make([]NodeConnectionModel, 0)
	if err := r.db.WithContext(ctx).Where("world_id = ?", worldID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	result := make([]domain.NodeConnection, 0, len(rows))
	for _, m := range rows {
		result = append(result, connectionFromModel(m))
	}
	return result, nil
}

func (r *GameRepository) GetPlayerCharacter(ctx context.Context, worldID, userID uint) (domain.Character, error) {
	var m CharacterModel
	err := r.db.WithContext(ctx).
		Where("world_id = ? AND user_id = ?", worldID, userID).
		First(&m).Error
	if err != nil {
		return domain.Character{}, translateError(err)
	}
	return characterFromModel(m)
}

func (r *GameRepository) CreateCharacter(ctx context.Context, value domain.Character) (domain.Character, error) {
	attrs, err := json.Marshal(value.Attributes)
	if err != nil {
		return domain.Character{}, err
	}
	m := CharacterModel{
		WorldID:    value.WorldID,
		UserID:     value.UserID,
		Name:       value.Name,
		NodeID:     value.NodeID,
		X:          value.X,
		Y:          value.Y,
		Z:          value.Z,
		Attributes: string(attrs),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Character{}, translateError(err)
	}
	return characterFromModel(m)
}

func (r *GameRepository) CountPlayerCharacters(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&CharacterModel{}).Where("user_id IS NOT NULL").Count(&count).Error
	return count, translateError(err)
}

func (r *GameRepository) CreateItem(ctx context.Context, value domain.Item) (domain.Item, error) {
	attrs := value.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}
	payload, err := json.Marshal(attrs)
	if err != nil {
		return domain.Item{}, err
	}
	m := ItemModel{Name: value.Name, Description: value.Description, Type: value.Type, Attributes: string(payload)}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Item{}, translateError(err)
	}
	value.ID = m.ID
	return value, nil
}

func (r *GameRepository) AddInventory(ctx context.Context, value domain.CharacterInventory) (domain.CharacterInventory, error) {
	m := CharacterInventoryModel{
		CharacterID: value.CharacterID,
		ItemID:      value.ItemID,
		Quantity:    value.Quantity,
		IsEquipped:  value.IsEquipped,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.CharacterInventory{}, translateError(err)
	}
	value.ID = m.ID
	return value, nil
}

func (r *GameRepository) ListInventory(ctx context.Context, characterID uint) ([]domain.InventoryEntry, error) {
	type row struct {
		ID              uint
		ItemName        string
		ItemDescription string
		ItemType        string
		Quantity        int
		IsEquipped      bool
	}
	rows := make([]row, 0)
	err := r.db.WithContext(ctx).Raw(`
SELECT ci.id,
       i.name AS item_name,
       COALESCE(i.description, '') AS item_description,
       i.type AS item_type,
       ci.quantity,
       ci.is_equipped
FROM character_inventory ci
INNER JOIN items i ON i.id = ci.item_id
WHERE ci.character_id = ?
ORDER BY i.name ASC
`, characterID).Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	result := make([]domain.InventoryEntry, 0, len(rows))
	for _, m := range rows {
		result = append(result, domain.InventoryEntry{
			ID:              m.ID,
			ItemName:        m.ItemName,
			ItemDescription: m.ItemDescription,
			ItemType:        m.ItemType,
			Quantity:        m.Quantity,
			IsEquipped:      m.IsEquipped,
		})
	}
	return result, nil
}

func (r *GameRepository) AppendDialogue(ctx context.Context, value domain.DialogueEntry) (domain.DialogueEntry, error) {
	m := SystemDialogueLogModel{
		WorldID:           value.WorldID,
		PlayerCharacterID: value.PlayerCharacterID,
		IsInput:           value.IsInput,
		Text:              value.Text,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.DialogueEntry{}, translateError(err)
	}
	return dialogueFromModel(m), nil
}

func (r *GameRepository) AppendDialogueBatch(ctx context.Context, values []domain.DialogueEntry) ([]domain.DialogueEntry, error) {
	models := make([]SystemDialogueLogModel, 0, len(values))
	for _, value := range values {
		models = append(models, SystemDialogueLogModel{
			WorldID:           value.WorldID,
			PlayerCharacterID: value.PlayerCharacterID,
			IsInput:           value.IsInput,
			Text:              value.Text,
		})
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return nil, translateError(err)
	}
	result := make([]domain.DialogueEntry, 0, len(models))
	for _, m := range models {
		result = append(result, dialogueFromModel(m))
	}
	return result, nil
}

func (r *GameRepository) ListDialogue(ctx context.Context, worldID, playerCharacterID uint, limit int) ([]domain.DialogueEntry, error) {
	rows := make([]SystemDialogueLogModel, 0)
	err := r.db.WithContext(ctx).
		Where("world_id = ? AND player_character_id = ?", worldID, playerCharacterID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	result := make([]domain.DialogueEntry, 0, len(rows))
	for _, m := range rows {
		result = append(result, dialogueFromModel(m))
	}
	return result, nil
}

func (r *GameRepository) ClearDialogue(ctx context.Context, worldID, playerCharacterID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("world_id = ? AND player_character_id = ?", worldID, playerCharacterID).
		Delete(&SystemDialogueLogModel{})
	if res.Error != nil {
		return 0, translateError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *GameRepository) AppendConversation(ctx context.Context, value domain.ConversationEntry) (domain.ConversationEntry, error) {
	m := CharacterConversationLogModel{
		WorldID:             value.WorldID,
		SpeakingCharacterID: value.SpeakingCharacterID,
		TargetCharacterID:   value.TargetCharacterID,
		Text:                value.Text,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.ConversationEntry{}, translateError(err)
	}
	return domain.ConversationEntry{
		ID:                  m.ID,
		WorldID:             m.WorldID,
		SpeakingCharacterID: m.SpeakingCharacterID,
		TargetCharacterID:   m.TargetCharacterID,
		Text:                m.Text,
		CreatedAt:           m.CreatedAt,
	}, nil
}

func worldFromModel(m WorldModel) domain.World {
	return domain.World{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt, LastPlayedAt: m.LastPlayedAt}
}

func nodeFromModel(m NodeModel) (domain.Node, error) {
	var terrain domain.Terrain
	if strings.TrimSpace(m.Terrain) != "" && m.Terrain != "{}" {
		if err := json.Unmarshal([]byte(m.Terrain), &terrain); err != nil {
			return domain.Node{}, err
		}
	}
	return domain.Node{
		ID:      m.ID,
		WorldID: m.WorldID,
		Name:    m.Name,
		Width:   m.Width,
		Height:  m.Height,
		Terrain: terrain,
	}, nil
}

func connectionFromModel(m NodeConnectionModel) domain.NodeConnection {
	return domain.NodeConnection{
		ID:      m.ID,
		WorldID: m.WorldID,
		NodeA:   m.NodeA,
		NodeB:   m.NodeB,
		DX:      m.DX,
		DY:      m.DY,
		DZ:      m.DZ,
	}
}

func characterFromModel(m CharacterModel) (domain.Character, error) {
	var attrs domain.CharacterAttributes
	if strings.TrimSpace(m.Attributes) != "" && m.Attributes != "{}" {
		if err := json.Unmarshal([]byte(m.Attributes), &attrs); err != nil {
			return domain.Character{}, err
		}
	}
	return domain.Character{
		ID:         m.ID,
		WorldID:    m.WorldID,
		UserID:     m.UserID,
		Name:       m.Name,
		NodeID:     m.NodeID,
		X:          m.X,
		Y:          m.Y,
		Z:          m.Z,
		Attributes: attrs,
	}, nil
}

func dialogueFromModel(m SystemDialogueLogModel) domain.DialogueEntry {
	return domain.DialogueEntry{
		ID:                m.ID,
		WorldID:           m.WorldID,
		PlayerCharacterID: m.PlayerCharacterID,
		IsInput:           m.IsInput,
		Text:              m.Text,
		CreatedAt:         m.CreatedAt,
	}
}
