package data

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GameRound is one prompt within a game. Rounds advance through three stamped
// stages: started (accepting entries), fulfilled (every member has entered,
// accepting votes), completed (votes are in).
type GameRound struct {
	ID          string `gorm:"primaryKey"`
	GameID      string `gorm:"not null; index"`
	LobbyID     string `gorm:"not null; index"`
	Position    int    `gorm:"not null"`
	Prompt      string `gorm:"not null"`
	CreatedAt   time.Time
	StartedAt   *time.Time
	FulfilledAt *time.Time
	CompletedAt *time.Time
}

// RoundEntry is a member's submission for a round.
type RoundEntry struct {
	ID               string `gorm:"primaryKey"`
	RoundID          string `gorm:"not null; index"`
	GameID           string `gorm:"not null"`
	LobbyID          string `gorm:"not null"`
	GameMembershipID string `gorm:"not null"`
	UserID           string `gorm:"not null"`
	Entry            string `gorm:"not null"`
	CreatedAt        time.Time
}

// RoundEntryVote is a member's vote for another member's entry.
type RoundEntryVote struct {
	ID               string `gorm:"primaryKey"`
	RoundID          string `gorm:"not null; index"`
	EntryID          string `gorm:"not null; index"`
	GameID           string `gorm:"not null"`
	LobbyID          string `gorm:"not null"`
	GameMembershipID string `gorm:"not null"`
	UserID           string `gorm:"not null"`
	CreatedAt        time.Time
}

// FindRoundByID searches for a round with the specified id, returning the
// *GameRound instance if found or nil if there is no match.
func FindRoundByID(db *gorm.DB, id string) (*GameRound, error) {
	var round GameRound
	err := db.Where("id = ?", id).First(&round).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &round, nil
}

// RoundsForGame returns a game's rounds in play order.
func RoundsForGame(db *gorm.DB, gameID string) ([]GameRound, error) {
	var rounds []GameRound
	err := db.Where("game_id = ?", gameID).Order("position asc").Find(&rounds).Error
	return rounds, err
}

// NextUnstartedRound returns the first round of the game that has not been
// started yet, or nil when every round is underway or done.
func NextUnstartedRound(db *gorm.DB, gameID string) (*GameRound, error) {
	var round GameRound
	err := db.
		Where("game_id = ? AND started_at IS NULL", gameID).
		Order("position asc").
		First(&round).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &round, nil
}

// FindRoundEntryForMembership returns the member's submission for a round, or
// nil when the member has not entered yet.
func FindRoundEntryForMembership(db *gorm.DB, roundID, membershipID string) (*RoundEntry, error) {
	var entry RoundEntry
	err := db.
		Where("round_id = ? AND game_membership_id = ?", roundID, membershipID).
		First(&entry).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &entry, nil
}

// CreateRoundEntry persists a member's submission for a round. A member gets
// one entry per round; submitting again returns the existing entry unchanged.
func CreateRoundEntry(db *gorm.DB, round *GameRound, membership *GameMembership, entry string) (*RoundEntry, error) {
	existing, err := FindRoundEntryForMembership(db, round.ID, membership.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	record := &RoundEntry{
		ID:               uuid.NewString(),
		RoundID:          round.ID,
		GameID:           round.GameID,
		LobbyID:          round.LobbyID,
		GameMembershipID: membership.ID,
		UserID:           membership.UserID,
		Entry:            entry,
	}
	if err := db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// EntriesForRound returns every submission recorded against a round.
func EntriesForRound(db *gorm.DB, roundID string) ([]RoundEntry, error) {
	var entries []RoundEntry
	err := db.Where("round_id = ?", roundID).Order("created_at asc").Find(&entries).Error
	return entries, err
}

// FindRoundEntryByID looks an entry up by id, nil when missing.
func FindRoundEntryByID(db *gorm.DB, id string) (*RoundEntry, error) {
	var entry RoundEntry
	err := db.Where("id = ?", id).First(&entry).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &entry, nil
}

// FindRoundEntryVoteForMembership returns the member's vote within a round,
// or nil when the member has not voted yet.
func FindRoundEntryVoteForMembership(db *gorm.DB, roundID, membershipID string) (*RoundEntryVote, error) {
	var vote RoundEntryVote
	err := db.
		Where("round_id = ? AND game_membership_id = ?", roundID, membershipID).
		First(&vote).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &vote, nil
}

// CreateRoundEntryVote persists a member's vote for an entry. A member gets
// one vote per round; voting again returns the existing vote unchanged.
func CreateRoundEntryVote(db *gorm.DB, entry *RoundEntry, membership *GameMembership) (*RoundEntryVote, error) {
	existing, err := FindRoundEntryVoteForMembership(db, entry.RoundID, membership.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	record := &RoundEntryVote{
		ID:               uuid.NewString(),
		RoundID:          entry.RoundID,
		EntryID:          entry.ID,
		GameID:           entry.GameID,
		LobbyID:          entry.LobbyID,
		GameMembershipID: membership.ID,
		UserID:           membership.UserID,
	}
	if err := db.Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// VotesForRound returns every vote recorded against a round.
func VotesForRound(db *gorm.DB, roundID string) ([]RoundEntryVote, error) {
	var votes []RoundEntryVote
	err := db.Where("round_id = ?", roundID).Order("created_at asc").Find(&votes).Error
	return votes, err
}
