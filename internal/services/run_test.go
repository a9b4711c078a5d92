package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/response"
	"gorm.io/gorm"
)

// recordingQueue captures enqueued tasks for assertions.
type recordingQueue struct {
	mu    sync.Mutex
	tasks []string
}

func (q *recordingQueue) Enqueue(_ context.Context, taskType string, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	data, _ := json.Marshal(payload)
	q.tasks = append(q.tasks, taskType+":"+string(data))
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

type runFixture struct {
	svc     *RunService
	queue   *recordingQueue
	project *models.Project
	user    *models.User
	cases   []models.TestCase
}

func newRunFixture(t *testing.T, db *gorm.DB) *runFixture {
	t.Helper()

	user := createUser(t, db, "runner", models.RoleTester, nil)
	project := &models.Project{PublicID: "runproj1", Key: "RUN", Name: "Runs", CreatedBy: user.ID}
	if err := db.Create(project).Error; err != nil {
		t.Fatal(err)
	}
	suite := &models.TestSuite{ProjectID: project.ID, Name: "Smoke"}
	if err := db.Create(suite).Error; err != nil {
		t.Fatal(err)
	}

	var cases []models.TestCase
	for _, title := range []string{"login works", "logout works", "search works"} {
		c := models.TestCase{SuiteID: suite.ID, ProjectID: project.ID, Title: title, CreatedBy: user.ID}
		if err := db.Create(&c).Error; err != nil {
			t.Fatal(err)
		}
		cases = append(cases, c)
	}

	queue := &recordingQueue{}
	return &runFixture{
		svc:     NewRunService(db, NewAccessService(db), queue),
		queue:   queue,
		project: project,
		user:    user,
		cases:   cases,
	}
}

func TestCreateRun(t *testing.T) {
	db := newTestDB(t)
	f := newRunFixture(t, db)

	run, err := f.svc.CreateRun(f.project.ID, f.user.ID, &CreateRunRequest{Name: "Sprint 12"})
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if len(run.PublicID) != 8 {
		t.Errorf("public ID = %q, expected 8 characters", run.PublicID)
	}
	if run.Status != models.RunOpen {
		t.Errorf("status = %q, expected open", run.Status)
	}
}

func TestCreateRun_ForeignMilestoneRejected(t *testing.T) {
	db := newTestDB(t)
	f := newRunFixture(t, db)

	other := &models.Project{PublicID: "otherpr1", Key: "OTH", Name: "Other", CreatedBy: f.user.ID}
	db.Create(other)
	milestone := &models.Milestone{ProjectID: other.ID, Name: "v1"}
	db.Create(milestone)

	_, err := f.svc.CreateRun(f.project.ID, f.user.ID, &CreateRunRequest{Name: "r", MilestoneID: &milestone.ID})
	if !response.IsAppError(err, 400) {
		t.Errorf("foreign milestone should be BadRequest, got %v", err)
	}
}

func TestRecordResult_Upsert(t *testing.T) {
	db := newTestDB(t)
	f := newRunFixture(t, db)
	run, _ := f.svc.CreateRun(f.project.ID, f.user.ID, &CreateRunRequest{Name: "r"})

	first, err := f.svc.RecordResult(run.ID, f.user.ID, &RecordResultRequest{
		CaseID: f.cases[0].ID, Status: models.ResultFailed, Comment: "timeout",
	})
	if err != nil {
		t.Fatalf("RecordResult() error = %v", err)
	}

	// Recording again for the same case overwrites, not duplicates.
	second, err := f.svc.RecordResult(run.ID, f.user.ID, &RecordResultRequest{
		CaseID: f.cases[0].ID, Status: models.ResultPassed,
	})
	if err != nil {
		t.Fatalf("RecordResult() retry error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected upsert onto result %d, got new row %d", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.TestResult{}).Where("run_id = ?", run.ID).Count(&count)
	if count != 1 {
		t.Errorf("result rows = %d, expected 1", count)
	}
	var got models.TestResult
	db.First(&got, first.ID)
	if got.Status != models.ResultPassed {
		t.Errorf("status = %q, expected overwrite to passed", got.Status)
	}
}

func TestRecordResult_Validation(t *testing.T) {
	db := newTestDB(t)
	f := newRunFixture(t, db)
	run, _ := f.svc.CreateRun(f.project.ID, f.user.ID, &CreateRunRequest{Name: "r"})

	if _, err := f.svc.RecordResult(run.ID, f.user.ID, &RecordResultRequest{
		CaseID: f.cases[0].ID, Status: "exploded",
	}); !response.IsAppError(err, 400) {
		t.Errorf("unknown status should be BadRequest, got %v", err)
	}

	if _, err := f.svc.RecordResult(run.ID, f.user.ID, &RecordResultRequest{
		CaseID: 9999, Status: models.ResultPassed,
	}); !response.IsAppError(err, 400) {
		t.Errorf("foreign case should be BadRequest, got %v", err)
	}
}

func TestCloseRun(t *testing.T) {
	db := newTestDB(t)
	f := newRunFixture(t, db)
	run, _ := f.svc.CreateRun(f.project.ID, f.user.ID, &CreateRunRequest{Name: "r"})

	statuses := []string{models.ResultPassed, models.ResultPassed, models.ResultFailed}
	for i, status := range statuses {
		if _, err := f.svc.RecordResult(run.ID, f.user.ID, &RecordResultRequest{
			CaseID: f.cases[i].ID, Status: status,
		}); err != nil {
			t.Fatal(err)
		}
	}

	closed, err := f.svc.CloseRun(context.Background(), run.ID, f.user.ID)
	if err != nil {
		t.Fatalf("CloseRun() error = %v", err)
	}
	if closed.Status != models.RunClosed || closed.ClosedAt == nil {
		t.Error("run should be closed with a timestamp")
	}
	if closed.PassedCount != 2 || closed.FailedCount != 1 {
		t.Errorf("counts = %d passed / %d failed, expected 2/1", closed.PassedCount, closed.FailedCount)
	}
	if f.queue.count() != 1 {
		t.Errorf("enqueued tasks = %d, expected 1 run-closed notification", f.queue.count())
	}

	// Closed runs accept no more results and cannot be closed twice.
	if _, err := f.svc.RecordResult(run.ID, f.user.ID, &RecordResultRequest{
		CaseID: f.cases[0].ID, Status: models.ResultPassed,
	}); !response.IsAppError(err, 400) {
		t.Errorf("closed run should reject results, got %v", err)
	}
	if _, err := f.svc.CloseRun(context.Background(), run.ID, f.user.ID); !response.IsAppError(err, 400) {
		t.Errorf("second close should be BadRequest, got %v", err)
	}
}

func TestRunAccess(t *testing.T) {
	db := newTestDB(t)
	f := newRunFixture(t, db)
	stranger := createUser(t, db, "stranger", models.RoleMember, nil)
	run, _ := f.svc.CreateRun(f.project.ID, f.user.ID, &CreateRunRequest{Name: "r"})

	if _, err := f.svc.GetRun(run.ID, stranger.ID); !response.IsAppError(err, 403) {
		t.Errorf("stranger should be Forbidden, got %v", err)
	}
	if _, err := f.svc.ListRuns(f.project.ID, stranger.ID); !response.IsAppError(err, 403) {
		t.Errorf("stranger list should be Forbidden, got %v", err)
	}
}
