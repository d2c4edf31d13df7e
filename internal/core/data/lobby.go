package data

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lobby is a named gathering place that players join before a game is started
// from its membership.
type Lobby struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	CreatorID string `gorm:"not null"`
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// LobbyMembership ties a user to a lobby. Leaving is a soft operation; the row
// survives with LeftAt set so that game history remains attributable.
type LobbyMembership struct {
	ID        string `gorm:"primaryKey"`
	LobbyID   string `gorm:"not null; index"`
	UserID    string `gorm:"not null; index"`
	CreatedAt time.Time
	LeftAt    *time.Time
}

// CreateLobby persists a new lobby along with a membership for its creator.
func CreateLobby(db *gorm.DB, name, creatorID string) (*Lobby, error) {
	lobby := &Lobby{ID: uuid.NewString(), Name: name, CreatorID: creatorID}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lobby).Error; err != nil {
			return err
		}
		membership := &LobbyMembership{
			ID:      uuid.NewString(),
			LobbyID: lobby.ID,
			UserID:  creatorID,
		}
		return tx.Create(membership).Error
	})

	if err != nil {
		return nil, err
	}
	return lobby, nil
}

// FindLobbyByID searches for a lobby with the specified id, returning the
// *Lobby instance if found or nil if there is no match.
func FindLobbyByID(db *gorm.DB, id string) (*Lobby, error) {
	var lobby Lobby
	err := db.Where("id = ?", id).First(&lobby).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &lobby, nil
}

// FindActiveLobbyMembership returns the caller's live membership in a lobby,
// or nil when the user never joined or already left.
func FindActiveLobbyMembership(db *gorm.DB, lobbyID, userID string) (*LobbyMembership, error) {
	var membership LobbyMembership
	err := db.
		Where("lobby_id = ? AND user_id = ? AND left_at IS NULL", lobbyID, userID).
		First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &membership, nil
}

// FindLobbyMembershipByID looks a membership up by its own id.
func FindLobbyMembershipByID(db *gorm.DB, id string) (*LobbyMembership, error) {
	var membership LobbyMembership
	err := db.Where("id = ?", id).First(&membership).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &membership, nil
}

// ActiveLobbyMemberships returns every live membership for a lobby.
func ActiveLobbyMemberships(db *gorm.DB, lobbyID string) ([]LobbyMembership, error) {
	var memberships []LobbyMembership
	err := db.
		Where("lobby_id = ? AND left_at IS NULL", lobbyID).
		Order("created_at asc").
		Find(&memberships).Error
	return memberships, err
}

// JoinLobby creates a live membership for the user unless one already exists,
// in which case the existing membership is returned unchanged.
func JoinLobby(db *gorm.DB, lobbyID, userID string) (*LobbyMembership, error) {
	existing, err := FindActiveLobbyMembership(db, lobbyID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	membership := &LobbyMembership{ID: uuid.NewString(), LobbyID: lobbyID, UserID: userID}
	if err := db.Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// LeaveLobby marks the membership as departed. Leaving twice is a no-op.
func LeaveLobby(db *gorm.DB, membership *LobbyMembership) error {
	if membership.LeftAt != nil {
		return nil
	}
	now := time.Now()
	membership.LeftAt = &now
	return db.Save(membership).Error
}
