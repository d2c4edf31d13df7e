package jobs

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/ffjson/ffjson"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Statuses a job record moves through. Pending records either complete or
// fail exactly once; both states are terminal and immutable afterward.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotClaimable indicates another worker already claimed the record.
var ErrNotClaimable = errors.New("job record already claimed")

// Record is the persisted form of an enqueued job. The identifier is the
// record's identity; the semantic key (a round id, a lobby id) lives inside
// the payload and may appear in any number of records.
type Record struct {
	ID          string `gorm:"primaryKey"`
	Kind        string `gorm:"not null; index"`
	Payload     []byte `gorm:"not null"`
	Status      string `gorm:"not null; index"`
	Result      []byte
	FailureNote string
	CreatedAt   time.Time
	ClaimedAt   *time.Time
	CompletedAt *time.Time
}

// Store persists job records and hands out their status. It is safe for
// concurrent use; one instance is shared by every connection and the worker.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewStore migrates the job record schema and returns the shared store.
func NewStore(db *gorm.DB, logger *logrus.Logger) (*Store, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("error auto migrating job records: %s", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Enqueue persists a new pending record for the job and returns its freshly
// generated identifier without waiting for the work to run.
func (s *Store) Enqueue(job Job) (string, error) {
	payload, err := ffjson.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encoding %s payload: %w", job.Kind(), err)
	}

	record := &Record{
		ID:      uuid.NewString(),
		Kind:    job.Kind(),
		Payload: payload,
		Status:  StatusPending,
	}

	if err := s.db.Create(record).Error; err != nil {
		return "", fmt.Errorf("persisting %s job: %w", job.Kind(), err)
	}

	s.logger.Debugf("enqueued %s job '%s'", record.Kind, record.ID)
	return record.ID, nil
}

// Find returns the stored record for an identifier, or nil when the store has
// never seen it. An unknown identifier is a valid outcome, not an error.
func (s *Store) Find(id string) (*Record, error) {
	var record Record
	err := s.db.Where("id = ?", id).First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

// Handles resolves a list of identifiers into their wire projections: one
// Handle per requested identifier, with a nil result for anything pending,
// failed, or unknown.
func (s *Store) Handles(ids []string) ([]Handle, error) {
	handles := make([]Handle, 0, len(ids))

	for _, id := range ids {
		record, err := s.Find(id)
		if err != nil {
			return nil, err
		}

		handle := Handle{ID: id}
		if record != nil && record.Status == StatusCompleted {
			handle.Result = record.Result
		}
		handles = append(handles, handle)
	}

	return handles, nil
}

// ClaimNext hands the oldest unclaimed pending record to the caller, marking
// it claimed so that exactly one worker execution processes it. Returns nil
// when there is nothing to do.
func (s *Store) ClaimNext() (*Record, error) {
	var record Record
	err := s.db.
		Where("status = ? AND claimed_at IS NULL", StatusPending).
		Order("created_at asc").
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := time.Now()
	claim := s.db.Model(&Record{}).
		Where("id = ? AND claimed_at IS NULL", record.ID).
		Update("claimed_at", &now)

	if claim.Error != nil {
		return nil, claim.Error
	}
	// Lost the race to another worker; the record is no longer ours.
	if claim.RowsAffected == 0 {
		return nil, nil
	}

	record.ClaimedAt = &now
	return &record, nil
}

// Complete transitions a pending record to completed with the encoded result.
// Terminal records are left untouched.
func (s *Store) Complete(id string, result interface{}) error {
	encoded, err := ffjson.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result for job '%s': %w", id, err)
	}
	return s.finish(id, map[string]interface{}{
		"status": StatusCompleted,
		"result": encoded,
	})
}

// Fail transitions a pending record to failed, retaining a terse note about
// the cause. No result is attached.
func (s *Store) Fail(id string, cause error) error {
	note := ""
	if cause != nil {
		note = cause.Error()
	}
	return s.finish(id, map[string]interface{}{
		"status":       StatusFailed,
		"failure_note": note,
	})
}

// DecodePayload unpacks a record's payload into the kind's payload struct.
func DecodePayload(record *Record, out interface{}) error {
	if err := ffjson.Unmarshal(record.Payload, out); err != nil {
		return fmt.Errorf("decoding %s payload for job '%s': %w", record.Kind, record.ID, err)
	}
	return nil
}

func (s *Store) finish(id string, updates map[string]interface{}) error {
	now := time.Now()
	updates["completed_at"] = &now

	result := s.db.Model(&Record{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job record '%s' is not pending", id)
	}
	return nil
}
