package data

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Game is a single play-through started from a lobby's membership.
type Game struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	LobbyID   string `gorm:"not null; index"`
	CreatorID string `gorm:"not null"`
	CreatedAt time.Time
	EndedAt   *time.Time
}

// GameMembership snapshots a lobby member into a game at creation time.
type GameMembership struct {
	ID                string `gorm:"primaryKey"`
	GameID            string `gorm:"not null; index"`
	LobbyID           string `gorm:"not null; index"`
	UserID            string `gorm:"not null; index"`
	LobbyMembershipID string `gorm:"not null"`
	CreatedAt         time.Time
}

// Prompts handed to consecutive rounds of a new game.
var defaultRoundPrompts = []string{
	"an unlikely alibi",
	"the worst possible slogan",
	"a rejected invention",
}

// CreateGame persists a game, membership snapshots for every active lobby
// member, and the initial set of rounds with the first round started. The
// whole write happens in one transaction so a failed creation leaves nothing
// behind.
func CreateGame(db *gorm.DB, lobby *Lobby, creatorID string) (*Game, error) {
	members, err := ActiveLobbyMemberships(db, lobby.ID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("lobby %s has no active members", lobby.ID)
	}

	game := &Game{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("%s game", lobby.Name),
		LobbyID:   lobby.ID,
		CreatorID: creatorID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(game).Error; err != nil {
			return err
		}

		for _, member := range members {
			membership := &GameMembership{
				ID:                uuid.NewString(),
				GameID:            game.ID,
				LobbyID:           lobby.ID,
				UserID:            member.UserID,
				LobbyMembershipID: member.ID,
			}
			if err := tx.Create(membership).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		for i, prompt := range defaultRoundPrompts {
			round := &GameRound{
				ID:       uuid.NewString(),
				GameID:   game.ID,
				LobbyID:  lobby.ID,
				Position: i,
				Prompt:   prompt,
			}
			if i == 0 {
				round.StartedAt = &now
			}
			if err := tx.Create(round).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}
	return game, nil
}

// FindGameByID searches for a game with the specified id, returning the *Game
// instance if found or nil if there is no match.
func FindGameByID(db *gorm.DB, id string) (*Game, error) {
	var game Game
	err := db.Where("id = ?", id).First(&game).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &game, nil
}

// FindGameMembership returns the user's membership in a game, or nil when the
// user is not part of it.
func FindGameMembership(db *gorm.DB, gameID, userID string) (*GameMembership, error) {
	var membership GameMembership
	err := db.Where("game_id = ? AND user_id = ?", gameID, userID).First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &membership, nil
}

// GameMemberships returns every member snapshot for a game.
func GameMemberships(db *gorm.DB, gameID string) ([]GameMembership, error) {
	var memberships []GameMembership
	err := db.Where("game_id = ?", gameID).Order("created_at asc").Find(&memberships).Error
	return memberships, err
}

// DeleteGameMembershipsForLobbyMembership removes the game-side snapshots tied
// to a departed lobby membership so fulfillment counts stop waiting on them.
func DeleteGameMembershipsForLobbyMembership(db *gorm.DB, lobbyMembershipID string) error {
	return db.
		Where("lobby_membership_id = ?", lobbyMembershipID).
		Delete(&GameMembership{}).Error
}
