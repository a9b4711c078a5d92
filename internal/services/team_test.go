package services

import (
	"context"
	"testing"
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

func newTeamService(db *gorm.DB) *TeamService {
	return NewTeamService(db, newSeatService(db))
}

func TestCreateTeam(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	creator := createUser(t, db, "founder", models.RoleMember, nil)

	team, err := svc.CreateTeam(&CreateTeamRequest{Name: "QA Guild"}, creator.ID)
	if err != nil {
		t.Fatalf("CreateTeam() error = %v", err)
	}

	var got models.User
	db.First(&got, creator.ID)
	if got.TeamID == nil || *got.TeamID != team.ID {
		t.Error("creator should be attached to the new team")
	}
	if got.Role != models.RoleOwner {
		t.Errorf("creator role = %q, expected owner", got.Role)
	}
}

func TestCreateTeam_AlreadyInTeam(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "existing", 5)
	user := createUser(t, db, "u", models.RoleMember, uintPtr(team.ID))

	_, err := svc.CreateTeam(&CreateTeamRequest{Name: "Another"}, user.ID)
	if !response.IsAppError(err, 400) {
		t.Errorf("expected BadRequest, got %v", err)
	}
}

func TestInviteMember(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))

	inv, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "new@example.com", Role: models.RoleTester})
	if err != nil {
		t.Fatalf("InviteMember() error = %v", err)
	}
	if inv.Token == "" {
		t.Error("invitation should carry a token")
	}
	if inv.Status != models.InvitationPending {
		t.Errorf("status = %q, expected pending", inv.Status)
	}

	ttl := time.Until(inv.ExpiresAt)
	if ttl < 6*24*time.Hour || ttl > 7*24*time.Hour {
		t.Errorf("expiry should be ~7 days out, got %v", ttl)
	}
}

func TestInviteMember_BlockedWhenOverLimit(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 1)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))
	db.Model(&models.Team{}).Where("id = ?", team.ID).Update("over_seat_limit", true)

	_, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "x@example.com"})
	if !response.IsAppError(err, 400) {
		t.Errorf("over-limit team should not invite, got %v", err)
	}
}

func TestInviteMember_LapsedSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))
	db.Model(&models.Subscription{}).Where("team_id = ?", team.ID).
		Update("status", models.SubscriptionCanceled)

	_, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "x@example.com"})
	if !response.IsAppError(err, 400) {
		t.Errorf("team with a canceled subscription should not invite, got %v", err)
	}
}

func TestAcceptInvitation_LapsedSubscription(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))
	joiner := createUser(t, db, "joiner", models.RoleMember, nil)

	inv, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "j@example.com"})
	if err != nil {
		t.Fatal(err)
	}

	// The subscription lapses between invite and accept.
	db.Model(&models.Subscription{}).Where("team_id = ?", team.ID).
		Update("status", models.SubscriptionCanceled)

	_, err = svc.AcceptInvitation(context.Background(), inv.Token, joiner.ID)
	if !response.IsAppError(err, 400) {
		t.Errorf("acceptance into a lapsed team should be BadRequest, got %v", err)
	}

	var got models.User
	db.First(&got, joiner.ID)
	if got.TeamID != nil {
		t.Error("joiner must not be attached to the lapsed team")
	}
}

func TestInviteMember_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))

	if _, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "x@example.com", Role: "superuser"}); !response.IsAppError(err, 400) {
		t.Errorf("unknown role should be BadRequest, got %v", err)
	}
	if _, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "x@example.com", Role: models.RoleOwner}); !response.IsAppError(err, 400) {
		t.Errorf("owner role should be BadRequest, got %v", err)
	}

	// Duplicate pending invitation conflicts.
	if _, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "dup@example.com"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "dup@example.com"}); !response.IsAppError(err, 409) {
		t.Errorf("duplicate pending invite should be Conflict, got %v", err)
	}
}

func TestAcceptInvitation(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))
	joiner := createUser(t, db, "joiner", models.RoleMember, nil)

	inv, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "j@example.com", Role: models.RoleTester})
	if err != nil {
		t.Fatal(err)
	}

	accepted, err := svc.AcceptInvitation(context.Background(), inv.Token, joiner.ID)
	if err != nil {
		t.Fatalf("AcceptInvitation() error = %v", err)
	}
	if accepted.Status != models.InvitationAccepted {
		t.Errorf("status = %q, expected accepted", accepted.Status)
	}

	var got models.User
	db.First(&got, joiner.ID)
	if got.TeamID == nil || *got.TeamID != team.ID {
		t.Error("joiner should be a team member")
	}
	if got.Role != models.RoleTester {
		t.Errorf("joiner role = %q, expected tester", got.Role)
	}
}

func TestAcceptInvitation_TerminalStatesAreFinal(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))
	joiner := createUser(t, db, "joiner", models.RoleMember, nil)

	inv, _ := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "j@example.com"})
	if err := svc.DeclineInvitation(inv.Token); err != nil {
		t.Fatal(err)
	}

	_, err := svc.AcceptInvitation(context.Background(), inv.Token, joiner.ID)
	if !response.IsAppError(err, 400) {
		t.Errorf("declined invitation should not be acceptable, got %v", err)
	}
}

func TestAcceptInvitation_Expired(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))
	joiner := createUser(t, db, "joiner", models.RoleMember, nil)

	inv, _ := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "j@example.com"})
	db.Model(&models.Invitation{}).Where("id = ?", inv.ID).
		Update("expires_at", time.Now().Add(-time.Hour))

	_, err := svc.AcceptInvitation(context.Background(), inv.Token, joiner.ID)
	if !response.IsAppError(err, 400) {
		t.Errorf("expired invitation should be BadRequest, got %v", err)
	}

	// The expiry is persisted as a terminal state.
	var got models.Invitation
	db.First(&got, inv.ID)
	if got.Status != models.InvitationExpired {
		t.Errorf("status = %q, expected expired", got.Status)
	}
}

func TestAcceptInvitation_SetsOverLimitFlag(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "tight", 1)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))
	joiner := createUser(t, db, "joiner", models.RoleMember, nil)

	// Team is at capacity (1 member, 1 seat) but not flagged, so the invite
	// goes out; acceptance pushes the count over and must flag the team.
	inv, err := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "j@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AcceptInvitation(context.Background(), inv.Token, joiner.ID); err != nil {
		t.Fatal(err)
	}

	var got models.Team
	db.First(&got, team.ID)
	if !got.OverSeatLimit {
		t.Error("acceptance beyond capacity should set over_seat_limit")
	}
}

func TestCancelInvitation(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))

	inv, _ := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "j@example.com"})
	if err := svc.CancelInvitation(inv.ID, team.ID); err != nil {
		t.Fatalf("CancelInvitation() error = %v", err)
	}

	// Canceling again is NotFound: no longer pending.
	if err := svc.CancelInvitation(inv.ID, team.ID); !response.IsAppError(err, 404) {
		t.Errorf("second cancel should be NotFound, got %v", err)
	}
}

func TestLeaveTeam(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 2)
	createUser(t, db, "owner", models.RoleOwner, uintPtr(team.ID))
	member := createUser(t, db, "member", models.RoleTester, uintPtr(team.ID))

	if err := svc.LeaveTeam(context.Background(), member.ID); err != nil {
		t.Fatalf("LeaveTeam() error = %v", err)
	}

	var got models.User
	db.First(&got, member.ID)
	if got.TeamID != nil {
		t.Error("member should be detached")
	}
	if got.Role != models.RoleMember {
		t.Errorf("role = %q, expected reset to member", got.Role)
	}
}

func TestLeaveTeam_LastOwnerBlocked(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 2)
	owner := createUser(t, db, "owner", models.RoleOwner, uintPtr(team.ID))

	if err := svc.LeaveTeam(context.Background(), owner.ID); !response.IsAppError(err, 400) {
		t.Errorf("last owner leaving should be BadRequest, got %v", err)
	}
}

func TestExpireInvitations(t *testing.T) {
	db := newTestDB(t)
	svc := newTeamService(db)
	team := createTeam(t, db, "qa", 5)
	inviter := createUser(t, db, "inviter", models.RoleAdmin, uintPtr(team.ID))

	fresh, _ := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "fresh@example.com"})
	stale, _ := svc.InviteMember(team.ID, inviter.ID, &InviteMemberRequest{Email: "stale@example.com"})
	db.Model(&models.Invitation{}).Where("id = ?", stale.ID).
		Update("expires_at", time.Now().Add(-time.Hour))

	expired, err := svc.ExpireInvitations()
	if err != nil {
		t.Fatalf("ExpireInvitations() error = %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, expected 1", expired)
	}

	var got models.Invitation
	db.First(&got, fresh.ID)
	if got.Status != models.InvitationPending {
		t.Error("fresh invitation should stay pending")
	}
}
