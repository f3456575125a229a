package employee

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

func validInput() Input {
	return Input{
		FirstName:   " John ",
		LastName:    "Doe",
		DateOfBirth: "1990-04-12",
		StartDate:   "2020-01-06T00:00:00.000Z",
		Street:      "1 Main St",
		City:        "Anytown",
		State:       "CA",
		ZipCode:     "90210",
		Department:  "Engineering",
	}
}

func newTestService(clk Clock) (*Service, *fakeRepo) {
	repo := &fakeRepo{}
	store := NewStore(context.Background(), repo, discardLogger())
	return NewService(store, NewTimestampIDGenerator(clk)), repo
}

func TestService_CreateEmployee_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, repo := newTestService(&stubClock{now: now})

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Fields: validInput()})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	if created.ID != "1735689600000" {
		t.Fatalf("expected timestamp id, got %s", created.ID)
	}
	if created.FirstName != "John" {
		t.Fatalf("expected trimmed first name, got %q", created.FirstName)
	}
	if !created.DateOfBirth.Equal(time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date of birth: %v", created.DateOfBirth)
	}
	if !created.StartDate.Equal(time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start date: %v", created.StartDate)
	}
	svc.store.Flush()
	if len(repo.lastSave()) != 1 {
		t.Fatalf("expected record to be persisted")
	}
}

func TestService_CreateEmployee_CallerSuppliedID(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&stubClock{now: time.Now().UTC()})

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{ID: " emp-7 ", Fields: validInput()})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	if created.ID != "emp-7" {
		t.Fatalf("expected caller id, got %s", created.ID)
	}
}

func TestService_CreateEmployee_SameMillisecondGetsUniqueIDs(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(&stubClock{now: time.UnixMilli(1735689600000).UTC()})

	seen := map[string]bool{}
	for i := range 30 {
		created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Fields: validInput()})
		if err != nil {
			t.Fatalf("create %d: unexpected error: %v", i, err)
		}
		if seen[created.ID] {
			t.Fatalf("duplicate id %s", created.ID)
		}
		seen[created.ID] = true
	}
	svc.store.Flush()
	if got := len(repo.lastSave()); got != 30 {
		t.Fatalf("expected 30 persisted records, got %d", got)
	}
}

func TestService_CreateEmployee_RedrawsIDTakenByExistingRecord(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.UnixMilli(1735689600000).UTC()}
	svc, _ := newTestService(clk)

	if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{ID: "1735689600000", Fields: validInput()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Fields: validInput()})
	if err != nil {
		t.Fatalf("expected the generated id to be redrawn, got %v", err)
	}
	if created.ID != "1735689600001" {
		t.Fatalf("unexpected id %s", created.ID)
	}
}

func TestService_CreateEmployee_CallerSuppliedDuplicateID(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&stubClock{now: time.Now().UTC()})

	if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{ID: "emp-1", Fields: validInput()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{ID: "emp-1", Fields: validInput()})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestService_CreateEmployee_ValidationLists(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(&stubClock{now: time.Now().UTC()})

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Fields: Input{FirstName: "Only"}})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Fields) != 8 {
		t.Fatalf("expected 8 missing fields, got %d: %v", len(verr.Fields), verr)
	}
	if msg, _ := verr.Field(FieldCity); msg != RequiredMessage {
		t.Fatalf("unexpected message for city: %q", msg)
	}
	if len(repo.saves) != 0 {
		t.Fatalf("invalid input must not reach the store")
	}
}

func TestService_CreateEmployee_StrictRejectsUnknownEnums(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&stubClock{now: time.Now().UTC()})

	in := validInput()
	in.State = "ZZ"
	in.Department = "IT"
	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Fields: in, Strict: true})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if _, ok := verr.Field(FieldState); !ok {
		t.Errorf("expected state error")
	}
	if _, ok := verr.Field(FieldDepartment); !ok {
		t.Errorf("expected department error")
	}

	// 緩いモードではフォーム層の判断を信用する
	if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Fields: in}); err != nil {
		t.Fatalf("non-strict create should accept, got %v", err)
	}
}

func TestService_UpdateEmployee_Success(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&stubClock{now: time.Now().UTC()})

	created, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{ID: "1", Fields: validInput()})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}

	in := ToInput(*created)
	in.City = "Springfield"
	updated, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{ID: created.ID, Fields: in})
	if err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}
	if updated.City != "Springfield" || updated.ID != "1" {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if !updated.DateOfBirth.Equal(created.DateOfBirth) {
		t.Fatalf("dates must survive the form round trip")
	}
}

func TestService_UpdateEmployee_InvalidID(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&stubClock{now: time.Now().UTC()})

	_, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{ID: "  ", Fields: validInput()})
	if !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestService_SaveEmployee_RoutesByID(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&stubClock{now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)})

	created, err := svc.SaveEmployee(context.Background(), SaveEmployeeInput{Fields: validInput()})
	if err != nil {
		t.Fatalf("SaveEmployee (create) returned error: %v", err)
	}

	in := validInput()
	in.LastName = "Roe"
	if _, err := svc.SaveEmployee(context.Background(), SaveEmployeeInput{ID: created.ID, Fields: in}); err != nil {
		t.Fatalf("SaveEmployee (edit) returned error: %v", err)
	}

	got, err := svc.GetEmployee(context.Background(), GetEmployeeInput{ID: created.ID})
	if err != nil {
		t.Fatalf("GetEmployee returned error: %v", err)
	}
	if got.LastName != "Roe" {
		t.Fatalf("expected edit to apply, got %s", got.LastName)
	}

	_, err = svc.SaveEmployee(context.Background(), SaveEmployeeInput{ID: "unknown", Fields: in})
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound for unknown id, got %v", err)
	}
}

func TestService_DeleteEmployee(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(&stubClock{now: time.Now().UTC()})

	if _, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{ID: "1", Fields: validInput()}); err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{ID: "1"}); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}
	if _, err := svc.GetEmployee(context.Background(), GetEmployeeInput{ID: "1"}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected deleted employee to be gone, got %v", err)
	}
	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{ID: ""}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestValidate_InvalidDate(t *testing.T) {
	t.Parallel()

	in := validInput()
	in.StartDate = "06/01/2020"
	_, err := Validate(in)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if msg, _ := verr.Field(FieldStartDate); msg != "Invalid date" {
		t.Fatalf("unexpected start date message: %q", msg)
	}
}

func TestEmployeeJSON_ISOTimestamps(t *testing.T) {
	t.Parallel()

	e := sampleEmployee("1", "John", "Doe")
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if !strings.Contains(string(b), `"dateOfBirth":"1990-04-12T00:00:00.000Z"`) {
		t.Fatalf("expected ISO-8601 date, got %s", b)
	}

	var decoded Employee
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if decoded != e {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestIDGenerators(t *testing.T) {
	t.Parallel()

	clk := &stubClock{now: time.UnixMilli(1700000000123).UTC()}
	ts := NewIDGenerator("timestamp", clk)
	if got := ts.NewID(); got != "1700000000123" {
		t.Fatalf("unexpected timestamp id %s", got)
	}
	if got := ts.NewID(); got != "1700000000124" {
		t.Fatalf("expected monotonic id within the same millisecond, got %s", got)
	}
	clk.now = time.UnixMilli(1700000000500).UTC()
	if got := ts.NewID(); got != "1700000000500" {
		t.Fatalf("expected the clock to win once it passes the last id, got %s", got)
	}

	a, b := NewIDGenerator("uuid", clk).NewID(), NewIDGenerator("uuid", clk).NewID()
	if len(a) != 36 || a == b {
		t.Fatalf("expected distinct uuids, got %s %s", a, b)
	}
}
