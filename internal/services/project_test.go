package services

import (
	"testing"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

func newProjectService(db *gorm.DB) *ProjectService {
	return NewProjectService(db, NewAccessService(db))
}

func TestCreateProject(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	user := createUser(t, db, "alice", models.RoleMember, nil)

	project, err := svc.CreateProject(&CreateProjectRequest{Key: "web", Name: "Web App"}, user.ID)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if project.PublicID == "" || len(project.PublicID) != 8 {
		t.Errorf("public ID = %q, expected 8 characters", project.PublicID)
	}
	if project.Key != "WEB" {
		t.Errorf("key = %q, expected upper-cased WEB", project.Key)
	}
	if project.TeamID != nil {
		t.Error("personal project should have no team")
	}
}

func TestCreateProject_KeyConflict(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	user := createUser(t, db, "alice", models.RoleMember, nil)
	other := createUser(t, db, "bob", models.RoleMember, nil)

	if _, err := svc.CreateProject(&CreateProjectRequest{Key: "API", Name: "First"}, user.ID); err != nil {
		t.Fatal(err)
	}

	// Same key, same creator: conflict, not a retry.
	_, err := svc.CreateProject(&CreateProjectRequest{Key: "API", Name: "Second"}, user.ID)
	if !response.IsAppError(err, 409) {
		t.Errorf("duplicate key should be Conflict, got %v", err)
	}

	// Same key, different creator: fine, the key is scoped per creator.
	if _, err := svc.CreateProject(&CreateProjectRequest{Key: "API", Name: "Theirs"}, other.ID); err != nil {
		t.Errorf("key should be unique per creator only, got %v", err)
	}
}

func TestCreateProject_TeamProject(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	team := createTeam(t, db, "qa", 5)
	member := createUser(t, db, "alice", models.RoleMember, uintPtr(team.ID))
	loner := createUser(t, db, "bob", models.RoleMember, nil)

	project, err := svc.CreateProject(&CreateProjectRequest{Key: "TP", Name: "Team", TeamProject: true}, member.ID)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if project.TeamID == nil || *project.TeamID != team.ID {
		t.Error("team project should carry the creator's team")
	}

	if _, err := svc.CreateProject(&CreateProjectRequest{Key: "TP", Name: "Team", TeamProject: true}, loner.ID); !response.IsAppError(err, 400) {
		t.Errorf("teamless user cannot create a team project, got %v", err)
	}
}

func TestListProjects(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	team := createTeam(t, db, "qa", 5)
	alice := createUser(t, db, "alice", models.RoleMember, uintPtr(team.ID))
	bob := createUser(t, db, "bob", models.RoleMember, uintPtr(team.ID))
	carol := createUser(t, db, "carol", models.RoleMember, nil)

	if _, err := svc.CreateProject(&CreateProjectRequest{Key: "OWN", Name: "Mine"}, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateProject(&CreateProjectRequest{Key: "TEAM", Name: "Shared", TeamProject: true}, bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateProject(&CreateProjectRequest{Key: "PRIV", Name: "Private"}, carol.ID); err != nil {
		t.Fatal(err)
	}

	projects, err := svc.ListProjects(alice.ID)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("alice sees %d projects, expected her own + bob's team project", len(projects))
	}

	projects, _ = svc.ListProjects(carol.ID)
	if len(projects) != 1 {
		t.Errorf("carol sees %d projects, expected only her own", len(projects))
	}
}

func TestGetProject_AccessDenied(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	alice := createUser(t, db, "alice", models.RoleMember, nil)
	bob := createUser(t, db, "bob", models.RoleMember, nil)

	project, err := svc.CreateProject(&CreateProjectRequest{Key: "P", Name: "Private"}, alice.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetProject(project.ID, bob.ID); !response.IsAppError(err, 403) {
		t.Errorf("stranger should be Forbidden, got %v", err)
	}
	if _, err := svc.GetProject(999, alice.ID); !response.IsAppError(err, 404) {
		t.Errorf("missing project should be NotFound, got %v", err)
	}
}

func TestGetProjectByPublicID(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	alice := createUser(t, db, "alice", models.RoleMember, nil)

	created, err := svc.CreateProject(&CreateProjectRequest{Key: "P", Name: "Mine"}, alice.ID)
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.GetProjectByPublicID(created.PublicID, alice.ID)
	if err != nil {
		t.Fatalf("GetProjectByPublicID() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("resolved project %d, expected %d", got.ID, created.ID)
	}

	if _, err := svc.GetProjectByPublicID("nope1234", alice.ID); !response.IsAppError(err, 404) {
		t.Errorf("unknown public ID should be NotFound, got %v", err)
	}
}

func TestShareWithTeam(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	team := createTeam(t, db, "qa", 5)
	alice := createUser(t, db, "alice", models.RoleMember, uintPtr(team.ID))
	bob := createUser(t, db, "bob", models.RoleMember, uintPtr(team.ID))

	project, err := svc.CreateProject(&CreateProjectRequest{Key: "P", Name: "Mine"}, alice.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Before sharing, a teammate has no access at all.
	if _, err := svc.GetProject(project.ID, bob.ID); !response.IsAppError(err, 403) {
		t.Errorf("unshared project should deny teammates, got %v", err)
	}

	if _, err := svc.ShareWithTeam(project.ID, alice.ID); err != nil {
		t.Fatalf("ShareWithTeam() error = %v", err)
	}
	if _, err := svc.GetProject(project.ID, bob.ID); err != nil {
		t.Errorf("shared project should admit teammates, got %v", err)
	}

	// Only the creator flips sharing.
	if _, err := svc.UnshareFromTeam(project.ID, bob.ID); !response.IsAppError(err, 403) {
		t.Errorf("non-creator unshare should be Forbidden, got %v", err)
	}
	if _, err := svc.UnshareFromTeam(project.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetProject(project.ID, bob.ID); !response.IsAppError(err, 403) {
		t.Errorf("unshared project should deny teammates again, got %v", err)
	}
}

func TestCreatorAccessSurvivesLeavingTeam(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	team := createTeam(t, db, "qa", 5)
	alice := createUser(t, db, "alice", models.RoleMember, uintPtr(team.ID))

	project, err := svc.CreateProject(&CreateProjectRequest{Key: "P", Name: "Team", TeamProject: true}, alice.ID)
	if err != nil {
		t.Fatal(err)
	}

	db.Model(&models.User{}).Where("id = ?", alice.ID).Update("team_id", nil)

	if _, err := svc.GetProject(project.ID, alice.ID); err != nil {
		t.Errorf("creator access must survive leaving the team, got %v", err)
	}
}

func TestDeleteProject(t *testing.T) {
	db := newTestDB(t)
	svc := newProjectService(db)
	team := createTeam(t, db, "qa", 5)
	alice := createUser(t, db, "alice", models.RoleMember, uintPtr(team.ID))
	bob := createUser(t, db, "bob", models.RoleMember, uintPtr(team.ID))

	project, err := svc.CreateProject(&CreateProjectRequest{Key: "P", Name: "Team", TeamProject: true}, alice.ID)
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteProject(project.ID, bob.ID); !response.IsAppError(err, 403) {
		t.Errorf("teammate delete should be Forbidden, got %v", err)
	}
	if err := svc.DeleteProject(project.ID, alice.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := svc.GetProject(project.ID, alice.ID); !response.IsAppError(err, 404) {
		t.Errorf("deleted project should be NotFound, got %v", err)
	}
}
