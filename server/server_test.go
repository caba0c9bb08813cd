package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coodecraft "github.com/codebytemirza/coodecraft"
	"github.com/codebytemirza/coodecraft/reconcile"
	"github.com/codebytemirza/coodecraft/remove"
	"github.com/codebytemirza/coodecraft/repository"
)

const testPassword = "secret"

func testServer(repo *repository.MemoryRepository) Server {
	return NewServer(":0", testPassword, repo, reconcile.NewReconciler(repo), remove.NewRemover(repo))
}

func seedCourse(t *testing.T, repo *repository.MemoryRepository, title string, createdAt time.Time, batches []coodecraft.Batch) string {
	t.Helper()

	id, err := repo.InsertCourse(context.Background(), coodecraft.Course{
		Title:     title,
		Duration:  "4 weeks",
		Level:     coodecraft.LevelBeginner,
		Features:  []string{},
		IsActive:  true,
		Batches:   batches,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("failed to seed course: %v", err)
	}
	return id
}

func adminRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("X-Admin-Password", testPassword)
	return req
}

func TestListOrdersNewestFirstWithTextDates(t *testing.T) {
	repo := repository.NewMemoryRepository()
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	batch := coodecraft.Batch{
		StartDate: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		Seats:     30,
		Status:    coodecraft.BatchUpcoming,
		BatchCode: "OLD-202504",
	}
	seedCourse(t, repo, "Oldest", base, []coodecraft.Batch{batch})
	seedCourse(t, repo, "Middle", base.Add(24*time.Hour), nil)
	seedCourse(t, repo, "Newest", base.Add(48*time.Hour), nil)

	w := httptest.NewRecorder()
	testServer(repo).router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var listed []struct {
		ID      string `json:"_id"`
		Title   string `json:"title"`
		Batches []struct {
			StartDate json.RawMessage `json:"startDate"`
		} `json:"batches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(listed) != 3 {
		t.Fatalf("expected three courses, got %d", len(listed))
	}
	for i, want := range []string{"Newest", "Middle", "Oldest"} {
		if listed[i].Title != want {
			t.Errorf("expected course %d to be %q, got %q", i, want, listed[i].Title)
		}
		if listed[i].ID == "" {
			t.Errorf("expected course %d to carry a text identifier", i)
		}
	}

	// batch dates must be ISO-8601 text, not raw timestamp objects
	var startDate string
	if err := json.Unmarshal(listed[2].Batches[0].StartDate, &startDate); err != nil {
		t.Fatalf("expected startDate to be JSON text, got %s", listed[2].Batches[0].StartDate)
	}
	if _, err := time.Parse(time.RFC3339, startDate); err != nil {
		t.Errorf("expected RFC 3339 start date, got %q", startDate)
	}
}

func TestReconcileEndpointReportsPartialFailure(t *testing.T) {
	repo := repository.NewMemoryRepository()
	body := `{"courses":[
		{"title":"Valid Course","price":500},
		{"title":"Broken Course","batches":[{"endDate":"2025-06-30"}]}
	]}`

	w := httptest.NewRecorder()
	testServer(repo).router().ServeHTTP(w, adminRequest(http.MethodPost, "/courses", body))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ReconcileResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Success {
		t.Error("expected success=false when any element fails")
	}
	if resp.Applied != 1 {
		t.Errorf("expected one applied element, got %d", resp.Applied)
	}
	if len(resp.Failures) != 1 || resp.Failures[0].Index != 1 {
		t.Errorf("expected a failure at index 1, got %+v", resp.Failures)
	}
	if len(resp.Courses) != 1 || resp.Courses[0].Title != "Valid Course" {
		t.Errorf("expected the refreshed catalog with the valid course, got %+v", resp.Courses)
	}
}

func TestMutatingRoutesRequireAdminPassword(t *testing.T) {
	repo := repository.NewMemoryRepository()
	srv := testServer(repo)

	w := httptest.NewRecorder()
	srv.router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(`{"courses":[]}`)))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without password, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(`{"courses":[]}`))
	req.Header.Set("X-Admin-Password", "wrong")
	srv.router().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong password, got %d", w.Code)
	}

	// reads stay open
	w = httptest.NewRecorder()
	srv.router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for unauthenticated read, got %d", w.Code)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	repo := repository.NewMemoryRepository()
	srv := testServer(repo)
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	id := seedCourse(t, repo, "Python Basics", now, []coodecraft.Batch{
		{Status: coodecraft.BatchOngoing, EnrolledStudents: 5, Seats: 30},
	})

	w := httptest.NewRecorder()
	srv.router().ServeHTTP(w, adminRequest(http.MethodDelete, "/courses?id="+id, ""))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while enrollment is active, got %d: %s", w.Code, w.Body.String())
	}

	course, err := repo.GetCourse(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to fetch course: %v", err)
	}
	course.Batches[0].EnrolledStudents = 0
	if err := repo.ReplaceCourse(context.Background(), id, course); err != nil {
		t.Fatalf("failed to clear enrollment: %v", err)
	}

	w = httptest.NewRecorder()
	srv.router().ServeHTTP(w, adminRequest(http.MethodDelete, "/courses?id="+id, ""))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 once enrollment cleared, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || !resp["success"] {
		t.Errorf("expected {\"success\":true}, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	srv.router().ServeHTTP(w, adminRequest(http.MethodDelete, "/courses?id="+id, ""))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a deleted course, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.router().ServeHTTP(w, adminRequest(http.MethodDelete, "/courses", ""))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing id, got %d", w.Code)
	}
}

func TestUpdateEndpoint(t *testing.T) {
	repo := repository.NewMemoryRepository()
	srv := testServer(repo)
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	id := seedCourse(t, repo, "Python Basics", now, nil)

	w := httptest.NewRecorder()
	srv.router().ServeHTTP(w, adminRequest(http.MethodPut, "/courses/"+id, `{"title":"Python Basics v2","price":1200}`))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var course coodecraft.Course
	if err := json.Unmarshal(w.Body.Bytes(), &course); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if course.Title != "Python Basics v2" || course.Price != 1200 {
		t.Errorf("expected the updated course back, got %+v", course)
	}

	w = httptest.NewRecorder()
	srv.router().ServeHTTP(w, adminRequest(http.MethodPut, "/courses/"+id, `{"price":1200}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a payload without a title, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.router().ServeHTTP(w, adminRequest(http.MethodPut, "/courses/missing", `{"title":"Ghost"}`))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown course, got %d", w.Code)
	}
}
