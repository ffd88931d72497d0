package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/atvirokodosprendimai/realmforge/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrAIDisabled   = errors.New("ai system is not available")
)

const (
	startingAreaName  = "Starting Area"
	startingAreaSize  = 10
	startingX         = 5
	startingY         = 5
	defaultLevel      = 1
	defaultHP         = 100
	defaultHistoryMax = 100
)

type GameService struct {
	repo      domain.GameRepository
	generator domain.TextGenerator
	startedAt time.Time
}

// NewGameService wires the repository and the text generator. A nil
// generator puts the service in degraded mode: special commands keep
// working, narrative commands report the AI as unavailable.
func NewGameService(repo domain.GameRepository, generator domain.TextGenerator) *GameService {
	return &GameService{repo: repo, generator: generator, startedAt: time.Now()}
}

func (s *GameService) AIEnabled() bool {
	return s.generator != nil
}

func (s *GameService) Status(ctx context.Context) (domain.GameStatus, error) {
	players, err := s.repo.CountPlayerCharacters(ctx)
	if err != nil {
		return domain.GameStatus{}, err
	}
	return domain.GameStatus{
		Status:    "online",
		Players:   players,
		Uptime:    time.Since(s.startedAt),
		AIEnabled: s.generator != nil,
	}, nil
}

// EnsureUser returns the user with the given username, creating it with a
// bcrypt-hashed credential when it does not exist yet. Used for the
// hard-coded demo identity at startup.
func (s *GameService) EnsureUser(ctx context.Context, username, password string) (domain.User, error) {
	if strings.TrimSpace(username) == "" {
		return domain.User{}, errors.New("username is required")
	}

	u, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	created, err := s.repo.CreateUser(ctx, domain.User{Username: username, PasswordHash: string(hash)})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.repo.GetUserByUsername(ctx, username)
		}
		return domain.User{}, err
	}
	return created, nil
}

func (s *GameService) ListWorlds(ctx context.Context, userID uint) ([]domain.World, error) {
	return s.repo.ListWorldsByAdmin(ctx, userID)
}

func (s *GameService) CreateWorld(ctx context.Context, userID uint, name string) (domain.World, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.World{}, errors.New("world name is required")
	}

	now := time.Now().UTC()
	world, err := s.repo.CreateWorld(ctx, domain.World{Name: name, LastPlayedAt: &now})
	if err != nil {
		return domain.World{}, err
	}
	if err := s.repo.AddWorldAdmin(ctx, world.ID, userID); err != nil {
		return domain.World{}, err
	}
	return world, nil
}

// TouchLastPlayed updates a world's last-played timestamp. Callers without
// an admin row on the world get ErrAccessDenied and the timestamp is left
// untouched.
func (s *GameService) TouchLastPlayed(ctx context.Context, worldID, userID uint) (domain.World, error) {
	ok, err := s.repo.IsWorldAdmin(ctx, worldID, userID)
	if err != nil {
		return domain.World{}, err
	}
	if !ok {
		return domain.World{}, ErrAccessDenied
	}
	return s.repo.TouchWorld(ctx, worldID)
}

// PlayerCharacter returns the player's character in a world, creating it on
// first contact. Creation places the character at (5,5,0) in the world's
// first node, creating a default 10x10 starting node when the world has
// none. A concurrent first contact that loses the unique-index race
// re-reads and returns the winner's character.
func (s *GameService) PlayerCharacter(ctx context.Context, worldID, userID uint) (domain.Character, bool, error) {
	c, err := s.repo.GetPlayerCharacter(ctx, worldID, userID)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Character{}, false, err
	}

	node, err := s.repo.FirstNodeInWorld(ctx, worldID)
	if errors.Is(err, domain.ErrNotFound) {
		node, err = s.repo.CreateNode(ctx, domain.Node{
			WorldID: worldID,
			Name:    startingAreaName,
			Width:   startingAreaSize,
			Height:  startingAreaSize,
			Terrain: domain.Terrain{Tiles: []domain.TerrainTile{}},
		})
	}
	if err != nil {
		return domain.Character{}, false, err
	}

	created, err := s.repo.CreateCharacter(ctx, domain.Character{
		WorldID: worldID,
		UserID:  &userID,
		Name:    "Player",
		NodeID:  node.ID,
		X:       startingX,
		Y:       startingY,
		Z:       0,
		Attributes: domain.CharacterAttributes{
			Level: defaultLevel,
			HP:    defaultHP,
			MaxHP: defaultHP,
		},
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			existing, readErr := s.repo.GetPlayerCharacter(ctx, worldID, userID)
			if readErr != nil {
				return domain.Character{}, false, readErr
			}
			return existing, false, nil
		}
		return domain.Character{}, false, err
	}
	return created, true, nil
}

// ExecuteNarrative forwards a free-text command to the text generator and
// returns the whole response. Input and response are appended to the
// dialogue log; a log failure never blocks the response.
func (s *GameService) ExecuteNarrative(ctx context.Context, worldID, userID uint, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", errors.New("command is required")
	}
	if s.generator == nil {
		return "", ErrAIDisabled
	}

	character, _, err := s.PlayerCharacter(ctx, worldID, userID)
	if err != nil {
		return "", err
	}
	s.appendDialogue(ctx, worldID, character.ID, true, command)

	response, err := s.generator.GenerateText(ctx, command)
	if err != nil {
		return "", err
	}
	s.appendDialogue(ctx, worldID, character.ID, false, response)
	return response, nil
}

// ExecuteNarrativeStream streams the generated response through emit,
// passing fragments along in provider-emission order, and returns the
// concatenated text. The persisted system response equals that
// concatenation exactly.
func (s *GameService) ExecuteNarrativeStream(ctx context.Context, worldID, userID uint, command string, emit func(chunk string) error) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", errors.New("command is required")
	}
	if s.generator == nil {
		return "", ErrAIDisabled
	}

	character, _, err := s.PlayerCharacter(ctx, worldID, userID)
	if err != nil {
		return "", err
	}
	s.appendDialogue(ctx, worldID, character.ID, true, command)

	var full strings.Builder
	err = s.generator.GenerateTextStream(ctx, command, func(chunk string) error {
		full.WriteString(chunk)
		return emit(chunk)
	})
	if err != nil {
		return full.String(), err
	}
	s.appendDialogue(ctx, worldID, character.ID, false, full.String())
	return full.String(), nil
}

// History returns the player's dialogue log in a world, oldest first,
// capped at limit. The character is created on first contact like every
// other touch of the world.
func (s *GameService) History(ctx context.Context, worldID, userID uint, limit int) ([]domain.DialogueEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryMax
	}
	if limit > 1000 {
		limit = 1000
	}
	character, _, err := s.PlayerCharacter(ctx, worldID, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDialogue(ctx, worldID, character.ID, limit)
}

func (s *GameService) LogDialogue(ctx context.Context, worldID, userID uint, isInput bool, text string) (domain.DialogueEntry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.DialogueEntry{}, errors.New("text is required")
	}
	character, _, err := s.PlayerCharacter(ctx, worldID, userID)
	if err != nil {
		return domain.DialogueEntry{}, err
	}
	return s.repo.AppendDialogue(ctx, domain.DialogueEntry{
		WorldID:           worldID,
		PlayerCharacterID: character.ID,
		IsInput:           isInput,
		Text:              text,
	})
}

type DialogueInput struct {
	IsInput bool
	Text    string
}

func (s *GameService) LogDialogueBatch(ctx context.Context, worldID, userID uint, inputs []DialogueInput) ([]domain.DialogueEntry, error) {
	if len(inputs) == 0 {
		return nil, errors.New("entries must be a non-empty array")
	}
	for _, in := range inputs {
		if strings.TrimSpace(in.Text) == "" {
			return nil, errors.New("each entry must have text")
		}
	}
	character, _, err := s.PlayerCharacter(ctx, worldID, userID)
	if err != nil {
		return nil, err
	}
	values := make([]domain.DialogueEntry, 0, len(inputs))
	for _, in := range inputs {
		values = append(values, domain.DialogueEntry{
			WorldID:           worldID,
			PlayerCharacterID: character.ID,
			IsInput:           in.IsInput,
			Text:              strings.TrimSpace(in.Text),
		})
	}
	return s.repo.AppendDialogueBatch(ctx, values)
}

// ClearHistory deletes the player's dialogue log in a world. A world the
// player never touched has no character, which counts as zero deletions
// rather than an error, and no character is created.
func (s *GameService) ClearHistory(ctx context.Context, worldID, userID uint) (int64, error) {
	character, err := s.repo.GetPlayerCharacter(ctx, worldID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return s.repo.ClearDialogue(ctx, worldID, character.ID)
}

// ConnectionView is a node connection annotated with its derived direction
// label.
type ConnectionView struct {
	domain.NodeConnection
	Direction string `json:"direction"`
}

func (s *GameService) ConnectNodes(ctx context.Context, worldID, nodeA, nodeB uint, dx, dy, dz int) (domain.NodeConnection, error) {
	if nodeA == 0 || nodeB == 0 {
		return domain.NodeConnection{}, errors.New("nodeA and nodeB are required")
	}
	for _, nodeID := range []uint{nodeA, nodeB} {
		node, err := s.repo.GetNodeByID(ctx, nodeID)
		if err != nil {
			return domain.NodeConnection{}, err
		}
		if node.WorldID != worldID {
			return domain.NodeConnection{}, fmt.Errorf("node %d does not belong to world %d", nodeID, worldID)
		}
	}
	return s.repo.CreateConnection(ctx, domain.NodeConnection{
		WorldID: worldID,
		NodeA:   nodeA,
		NodeB:   nodeB,
		DX:      dx,
		DY:      dy,
		DZ:      dz,
	})
}

func (s *GameService) ListConnections(ctx context.Context, worldID uint) ([]ConnectionView, error) {
	connections, err := s.repo.ListConnections(ctx, worldID)
	if err != nil {
		return nil, err
	}
	views := make([]ConnectionView, 0, len(connections))
	for _, c := range connections {
		views = append(views, ConnectionView{
			NodeConnection: c,
			Direction:      domain.DirectionLabel(c.DX, c.DY, c.DZ),
		})
	}
	return views, nil
}

// GrantItem creates an item blueprint when needed and adds an owned
// instance of it to the character's inventory.
func (s *GameService) GrantItem(ctx context.Context, characterID uint, item domain.Item, quantity int, equipped bool) (domain.CharacterInventory, error) {
	if strings.TrimSpace(item.Name) == "" || strings.TrimSpace(item.Type) == "" {
		return domain.CharacterInventory{}, errors.New("item name and type are required")
	}
	if quantity < 1 {
		quantity = 1
	}
	blueprint := item
	if blueprint.ID == 0 {
		created, err := s.repo.CreateItem(ctx, item)
		if err != nil {
			return domain.CharacterInventory{}, err
		}
		blueprint = created
	}
	return s.repo.AddInventory(ctx, domain.CharacterInventory{
		CharacterID: characterID,
		ItemID:      blueprint.ID,
		Quantity:    quantity,
		IsEquipped:  equipped,
	})
}

func (s *GameService) appendDialogue(ctx context.Context, worldID, characterID uint, isInput bool, text string) {
	_, err := s.repo.AppendDialogue(ctx, domain.DialogueEntry{
		WorldID:           worldID,
		PlayerCharacterID: characterID,
		IsInput:           isInput,
		Text:              strings.TrimSpace(text),
	})
	if err != nil {
		log.Printf("dialogue log append failed (world %d, character %d): %v", worldID, characterID, err)
	}
}
