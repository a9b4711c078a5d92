package services

import (
	"errors"
	"testing"

	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
)

func TestNewPublicID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewPublicID()
		if len(id) != publicIDLength {
			t.Fatalf("id %q has length %d, expected %d", id, len(id), publicIDLength)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated within 100 draws: %q", id)
		}
		seen[id] = true
	}
}

func TestCreateWithUniqueID_FirstAttemptSucceeds(t *testing.T) {
	calls := 0
	id, err := CreateWithUniqueID("public_id", func(publicID string) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("CreateWithUniqueID() error = %v", err)
	}
	if id == "" {
		t.Error("expected a non-empty id")
	}
	if calls != 1 {
		t.Errorf("create called %d times, expected 1", calls)
	}
}

func TestCreateWithUniqueID_RetriesOnIDCollision(t *testing.T) {
	calls := 0
	collision := errors.New("UNIQUE constraint failed: projects.public_id")

	id, err := CreateWithUniqueID("public_id", func(publicID string) error {
		calls++
		if calls < 3 {
			return collision
		}
		return nil
	})
	if err != nil {
		t.Fatalf("CreateWithUniqueID() error = %v", err)
	}
	if id == "" {
		t.Error("expected a non-empty id after retries")
	}
	if calls != 3 {
		t.Errorf("create called %d times, expected 3", calls)
	}
}

func TestCreateWithUniqueID_ExhaustsRetries(t *testing.T) {
	calls := 0
	collision := errors.New("UNIQUE constraint failed: projects.public_id")

	_, err := CreateWithUniqueID("public_id", func(publicID string) error {
		calls++
		return collision
	})
	if !response.IsAppError(err, 500) {
		t.Errorf("expected ServerError after exhausting retries, got %v", err)
	}
	if calls != MaxIDAttempts {
		t.Errorf("create called %d times, expected exactly %d", calls, MaxIDAttempts)
	}
}

func TestCreateWithUniqueID_OtherUniqueFieldFailsImmediately(t *testing.T) {
	calls := 0
	conflict := errors.New("UNIQUE constraint failed: projects.created_by, projects.key")

	_, err := CreateWithUniqueID("public_id", func(publicID string) error {
		calls++
		return conflict
	})
	if err == nil {
		t.Fatal("expected the conflict to propagate")
	}
	if response.IsAppError(err, 500) {
		t.Error("a non-ID conflict must not be masked as a ServerError")
	}
	if calls != 1 {
		t.Errorf("create called %d times, expected 1 (no retry)", calls)
	}
}

func TestCreateWithUniqueID_NonDuplicateErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := CreateWithUniqueID("public_id", func(publicID string) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected the original error, got %v", err)
	}
}

func TestIsDuplicateOnColumn(t *testing.T) {
	dup := errors.New("Error 1062 (23000): Duplicate entry 'ab12cd34' for key 'idx_test_runs_public_id'")

	if !IsDuplicateOnColumn(dup, "public_id") {
		t.Error("should attribute the violation to public_id")
	}
	if IsDuplicateOnColumn(dup, "key_column_that_is_absent") {
		t.Error("should not attribute to an unrelated column")
	}
	if IsDuplicateOnColumn(nil, "public_id") {
		t.Error("nil error is not a violation")
	}
	if IsDuplicateOnColumn(errors.New("timeout"), "public_id") {
		t.Error("non-duplicate errors are not violations")
	}
}

func TestIsDuplicateKey_DriverMessages(t *testing.T) {
	for _, msg := range []string{
		"UNIQUE constraint failed: projects.public_id",
		"Error 1062: Duplicate entry 'x' for key 'projects.idx_projects_public_id'",
		`ERROR: duplicate key value violates unique constraint "idx_projects_public_id"`,
	} {
		if !IsDuplicateKey(errors.New(msg)) {
			t.Errorf("message %q should be recognized as a duplicate", msg)
		}
	}
}

// A seeded row occupies the first generated ID so a real driver error flows
// through the classifier: the collision must be attributed to the ID column
// and retried with a fresh ID, not surfaced to the caller.
func TestCreateWithUniqueID_RetriesOnSeededIDCollision(t *testing.T) {
	db := newTestDB(t)
	creator := createUser(t, db, "creator", "member", nil)

	taken := "collide01"
	seed := map[string]interface{}{
		"public_id":  taken,
		"key":        "SEED",
		"name":       "seed",
		"created_by": creator.ID,
	}
	if err := db.Table("projects").Create(seed).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}

	attempts := 0
	id, err := CreateWithUniqueID("public_id", func(publicID string) error {
		attempts++
		if attempts == 1 {
			// Force the first draw onto the occupied ID.
			publicID = taken
		}
		p := map[string]interface{}{
			"public_id":  publicID,
			"key":        "NEW",
			"name":       "proj",
			"created_by": creator.ID,
		}
		return db.Table("projects").Create(p).Error
	})
	if err != nil {
		t.Fatalf("expected the collision to be retried, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("create called %d times, expected 2 (one collision, one retry)", attempts)
	}
	if id == taken {
		t.Errorf("returned id %q must differ from the occupied one", id)
	}

	var count int64
	db.Table("projects").Where("key = ?", "NEW").Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one new row, got %d", count)
	}
}

func TestCreateWithUniqueID_RealDatabaseCollision(t *testing.T) {
	db := newTestDB(t)

	// The human-chosen key path: its violation must propagate immediately.
	creator := createUser(t, db, "creator", "member", nil)

	mk := func(key string) func(string) error {
		return func(publicID string) error {
			p := map[string]interface{}{
				"public_id":  publicID,
				"key":        key,
				"name":       "proj",
				"created_by": creator.ID,
			}
			return db.Table("projects").Create(p).Error
		}
	}

	id1, err := CreateWithUniqueID("public_id", mk("K1"))
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	// Same human-chosen key: unique violation on the key index, no retry.
	_, err = CreateWithUniqueID("public_id", mk("K1"))
	if err == nil {
		t.Fatal("expected a conflict on the duplicate key")
	}
	if response.IsAppError(err, 500) {
		t.Errorf("key conflict must not be retried into a ServerError: %v", err)
	}

	var count int64
	db.Table("projects").Where("public_id = ?", id1).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one row for %s, got %d", id1, count)
	}
}
