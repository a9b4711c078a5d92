package services

import (
	"strings"

	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"github.com/google/uuid"
)

// MaxIDAttempts bounds the create retry loop on short-ID collisions.
const MaxIDAttempts = 3

// publicIDLength is the length of generated short public identifiers.
const publicIDLength = 8

// NewPublicID generates a short lowercase identifier for client-facing URLs.
// Collisions are possible but rare; creates using these IDs go through
// CreateWithUniqueID.
func NewPublicID() string {
	id := uuid.New()
	// Hex of the random UUID, truncated. 8 hex chars give ~4 billion values,
	// enough that MaxIDAttempts retries make collision failures negligible.
	return strings.ReplaceAll(id.String(), "-", "")[:publicIDLength]
}

// CreateWithUniqueID runs create with a freshly generated public ID and
// retries on a unique violation attributable to idColumn, up to
// MaxIDAttempts attempts in total. Any other error, including a unique
// violation on a different column, propagates immediately. Exhausting all
// attempts surfaces a 500-level error: persistent collisions mean
// something is wrong and must not look like a client mistake.
func CreateWithUniqueID(idColumn string, create func(publicID string) error) (string, error) {
	for attempt := 0; attempt < MaxIDAttempts; attempt++ {
		publicID := NewPublicID()
		err := create(publicID)
		if err == nil {
			return publicID, nil
		}
		if !IsDuplicateOnColumn(err, idColumn) {
			return "", err
		}
	}
	return "", response.NewServerError("could not allocate a unique identifier, please retry")
}

// IsDuplicateOnColumn reports whether err is a unique-constraint violation
// involving the named column. The attribution relies on the constraint or
// index name appearing in the raw driver message (sqlite: "UNIQUE constraint
// failed: projects.public_id", mysql 1062: "Duplicate entry ... for key
// 'idx_projects_public_id'", postgres: `duplicate key value violates unique
// constraint "idx_projects_public_id"`). GORM error translation must stay off
// for these databases: the translated gorm.ErrDuplicatedKey sentinel drops
// the driver message and makes every violation unattributable.
func IsDuplicateOnColumn(err error, column string) bool {
	if err == nil {
		return false
	}
	if !IsDuplicateKey(err) {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), strings.ToLower(column))
}

// IsDuplicateKey reports whether err is any unique-constraint violation,
// matched on the raw message of the three supported drivers.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
