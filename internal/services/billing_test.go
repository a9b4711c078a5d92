package services

import (
	"context"
	"testing"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

func newBillingService(db *gorm.DB) *BillingService {
	return NewBillingService(db, newSeatService(db))
}

func TestCheckoutCompleted_CreatesSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingService(db)
	team := &models.Team{Name: "fresh"}
	db.Create(team)
	createUser(t, db, "a", models.RoleOwner, uintPtr(team.ID))

	sub, err := svc.CheckoutCompleted(context.Background(), team.ID, &CheckoutCompletedRequest{Seats: 3, ExternalID: "sub_123"})
	if err != nil {
		t.Fatalf("CheckoutCompleted() error = %v", err)
	}
	if sub.Seats != 3 || sub.Status != models.SubscriptionActive {
		t.Errorf("subscription = %+v, expected 3 active seats", sub)
	}
}

func TestCheckoutCompleted_UpdatesExisting(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingService(db)
	team := createTeam(t, db, "qa", 2)

	_, err := svc.CheckoutCompleted(context.Background(), team.ID, &CheckoutCompletedRequest{Seats: 10})
	if err != nil {
		t.Fatal(err)
	}

	var count int64
	db.Model(&models.Subscription{}).Where("team_id = ?", team.ID).Count(&count)
	if count != 1 {
		t.Errorf("checkout must not create a second subscription, got %d", count)
	}

	var sub models.Subscription
	db.Where("team_id = ?", team.ID).First(&sub)
	if sub.Seats != 10 {
		t.Errorf("seats = %d, expected 10", sub.Seats)
	}
}

func TestCheckoutCompleted_MissingTeam(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingService(db)

	_, err := svc.CheckoutCompleted(context.Background(), 999, &CheckoutCompletedRequest{Seats: 1})
	if !response.IsAppError(err, 404) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestUpdateSeats_ReconcilesFlag(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingService(db)
	team := createTeam(t, db, "qa", 5)
	for _, name := range []string{"a", "b", "c"} {
		createUser(t, db, name, models.RoleMember, uintPtr(team.ID))
	}

	// Shrinking below the member count flags the team.
	if _, err := svc.UpdateSeats(context.Background(), team.ID, 2); err != nil {
		t.Fatal(err)
	}
	var got models.Team
	db.First(&got, team.ID)
	if !got.OverSeatLimit {
		t.Error("shrinking seats below member count should flag the team")
	}

	// Growing back clears it.
	if _, err := svc.UpdateSeats(context.Background(), team.ID, 5); err != nil {
		t.Fatal(err)
	}
	db.First(&got, team.ID)
	if got.OverSeatLimit {
		t.Error("growing seats should clear the flag")
	}
}

func TestUpdateStatus_CancellationRevokesSeats(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingService(db)
	team := createTeam(t, db, "qa", 5)
	createUser(t, db, "a", models.RoleMember, uintPtr(team.ID))

	sub, err := svc.UpdateStatus(context.Background(), team.ID, models.SubscriptionCanceled)
	if err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if sub.IsActive() {
		t.Error("canceled subscription should not be active")
	}
}

func TestUpdateSeats_NoSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := newBillingService(db)
	team := &models.Team{Name: "unbilled"}
	db.Create(team)

	_, err := svc.UpdateSeats(context.Background(), team.ID, 5)
	if !response.IsAppError(err, 400) {
		t.Errorf("expected BadRequest, got %v", err)
	}
}
