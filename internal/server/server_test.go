package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"projecthub/internal/auth"
	"projecthub/internal/models"
	"projecthub/internal/storage"
)

const demoPassword = "Password123!"

type testEnv struct {
	srv   *Server
	store *storage.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	tokens, err := auth.NewTokens("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	return &testEnv{srv: New(store, tokens, zap.NewNop(), Options{}), store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, email string) (string, models.User) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": demoPassword})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decode(t, rec, &resp)
	return resp.Token, resp.User
}

func (e *testEnv) project(t *testing.T, name string) models.Project {
	t.Helper()
	projects, err := e.store.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	for _, p := range projects {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("project %q not seeded", name)
	return models.Project{}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d: %s", rec.Code, want, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/healthz", "", nil)
	expectStatus(t, rec, http.StatusOK)
	if rec.Header().Get(headerRequestID) == "" {
		t.Fatalf("response carries no request id")
	}
}

func TestLoginReturnsTokenAndRole(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "director@example.com",
		"password": demoPassword,
	})
	expectStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "passwordHash") || strings.Contains(rec.Body.String(), "PasswordHash") {
		t.Fatalf("login response leaks the password hash")
	}

	var resp loginResponse
	decode(t, rec, &resp)
	if resp.Token == "" || resp.User.Role != models.RoleDirector {
		t.Fatalf("unexpected login response: %+v", resp)
	}

	rec = env.do(t, http.MethodGet, "/api/auth/me", resp.Token, nil)
	expectStatus(t, rec, http.StatusOK)
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, rec, &me)
	if me.User.Email != "director@example.com" {
		t.Fatalf("me = %+v", me.User)
	}
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []map[string]string{
		{"email": "director@example.com", "password": "wrong-password"},
		{"email": "ghost@example.com", "password": demoPassword},
	} {
		rec := env.do(t, http.MethodPost, "/api/auth/login", "", body)
		expectStatus(t, rec, http.StatusUnauthorized)
		if !strings.Contains(rec.Body.String(), "invalid credentials") {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	}
}

func TestRequiresBearerToken(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodGet, "/api/projects", "", nil), http.StatusUnauthorized)
	expectStatus(t, env.do(t, http.MethodGet, "/api/projects", "not-a-token", nil), http.StatusUnauthorized)

	other, _ := auth.NewTokens("another-secret", time.Hour)
	forged, _, err := other.Issue(&models.User{ID: 1, Role: models.RoleDirector})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/projects", forged, nil), http.StatusUnauthorized)
}

func TestRoleGuards(t *testing.T) {
	env := newTestEnv(t)
	director, _ := env.login(t, "director@example.com")
	manager, _ := env.login(t, "manager@example.com")
	developer, _ := env.login(t, "developer@example.com")
	p := env.project(t, "Internal Wiki")

	cases := []struct {
		name   string
		token  string
		method string
		path   string
		body   any
	}{
		{"developer lists projects", developer, http.MethodGet, "/api/projects", nil},
		{"manager creates project", manager, http.MethodPost, "/api/projects", map[string]string{"name": "X"}},
		{"manager deletes project", manager, http.MethodDelete, "/api/projects/1", nil},
		{"manager assigns manager", manager, http.MethodPut, "/api/projects/1/manager", map[string]int{"managerId": 2}},
		{"director assigns team", director, http.MethodPost, "/api/projects/1/team", map[string][]int{"developerIds": {4}}},
		{"director creates task", director, http.MethodPost, "/api/tasks", map[string]string{"title": "X"}},
		{"developer creates technology", developer, http.MethodPost, "/api/technologies", map[string]string{"name": "Rust"}},
		{"manager creates user", manager, http.MethodPost, "/api/users", map[string]string{"username": "x"}},
		{"developer lists available developers", developer, http.MethodGet, "/api/users/project/1/available-developers", nil},
		{"manager reports progress", manager, http.MethodPost, "/api/tasks/1/progress", map[string]int{"percentageComplete": 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expectStatus(t, env.do(t, tc.method, tc.path, tc.token, tc.body), http.StatusForbidden)
		})
	}

	if _, err := env.store.GetProject(context.Background(), p.ID); err != nil {
		t.Fatalf("forbidden requests changed data: %v", err)
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/projects", manager, nil), http.StatusOK)
}

func TestCreateProjectDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	director, _ := env.login(t, "director@example.com")

	rec := env.do(t, http.MethodPost, "/api/projects", director, map[string]any{
		"name":       "E-Commerce Platform",
		"startDate":  "2025-05-01",
		"deadline":   "2025-10-01",
		"clientName": "Someone",
	})
	expectStatus(t, rec, http.StatusBadRequest)
	if !strings.Contains(rec.Body.String(), "already exists") {
		t.Fatalf("expected duplicate-name message, got %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/projects", director, map[string]any{
		"name":      "Mobile App",
		"startDate": "2025-05-01",
		"deadline":  "2025-10-01T00:00:00Z",
		"status":    "OnHold",
	})
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		Project models.Project `json:"project"`
	}
	decode(t, rec, &created)
	if created.Project.Status == nil || created.Project.Status.Name != models.ProjectOnHold {
		t.Fatalf("status by name not applied: %+v", created.Project.Status)
	}
	if created.Project.Director == nil || created.Project.Director.Email != "director@example.com" {
		t.Fatalf("caller should become director: %+v", created.Project.Director)
	}
}

func TestUpdateProjectCannotReassignManager(t *testing.T) {
	env := newTestEnv(t)
	manager, mgr := env.login(t, "manager@example.com")
	_, mgr2 := env.login(t, "manager2@example.com")
	p := env.project(t, "E-Commerce Platform")
	path := "/api/projects/" + itoa(p.ID)
	before, _ := env.store.UnreadNotifications(context.Background(), mgr2.ID)

	body := map[string]any{
		"name":        p.Name,
		"description": "Checkout rewrite",
		"startDate":   p.StartDate.Format("2006-01-02"),
		"deadline":    p.Deadline.Format("2006-01-02"),
		"clientName":  p.ClientName,
	}
	rec := env.do(t, http.MethodPut, path, manager, body)
	expectStatus(t, rec, http.StatusOK)
	var updated struct {
		Project models.Project `json:"project"`
	}
	decode(t, rec, &updated)
	if updated.Project.ManagerID == nil || *updated.Project.ManagerID != mgr.ID {
		t.Fatalf("manager cleared by update: %v", updated.Project.ManagerID)
	}
	if updated.Project.Status == nil || updated.Project.Status.Name != models.ProjectInProgress {
		t.Fatalf("status reset by update: %+v", updated.Project.Status)
	}

	body["managerId"] = mgr2.ID
	expectStatus(t, env.do(t, http.MethodPut, path, manager, body), http.StatusOK)
	got, err := env.store.GetProject(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get project: %v", err)
	}
	if got.ManagerID == nil || *got.ManagerID != mgr.ID {
		t.Fatalf("manager reassigned through update: %v", got.ManagerID)
	}
	if after, _ := env.store.UnreadNotifications(context.Background(), mgr2.ID); after != before {
		t.Fatalf("manager2 notifications %d -> %d", before, after)
	}
}

func TestProjectStatuses(t *testing.T) {
	env := newTestEnv(t)
	developer, _ := env.login(t, "developer@example.com")

	rec := env.do(t, http.MethodGet, "/api/projects/statuses", developer, nil)
	expectStatus(t, rec, http.StatusOK)
	var resp struct {
		Statuses []models.ProjectStatus `json:"statuses"`
	}
	decode(t, rec, &resp)
	if len(resp.Statuses) != 4 || resp.Statuses[0].Name != models.ProjectPlanning {
		t.Fatalf("unexpected project statuses: %+v", resp.Statuses)
	}
}

func TestProgressByAssigneeNotifiesManager(t *testing.T) {
	env := newTestEnv(t)
	manager, mgr := env.login(t, "manager@example.com")
	developer, dev := env.login(t, "developer@example.com")
	other, _ := env.login(t, "developer2@example.com")
	ctx := context.Background()

	tasks, err := env.store.ListTasksByDeveloper(ctx, dev.ID)
	if err != nil || len(tasks) == 0 {
		t.Fatalf("seeded developer has no tasks: %v", err)
	}
	task := tasks[0]
	before, _ := env.store.ListNotifications(ctx, mgr.ID)

	path := "/api/tasks/" + itoa(task.ID) + "/progress"
	expectStatus(t, env.do(t, http.MethodPost, path, other, map[string]any{"percentageComplete": 40}), http.StatusForbidden)

	rec := env.do(t, http.MethodPost, path, developer, map[string]any{"percentageComplete": 40, "description": "API done"})
	expectStatus(t, rec, http.StatusCreated)

	after, _ := env.store.ListNotifications(ctx, mgr.ID)
	if len(after) != len(before)+1 {
		t.Fatalf("expected one new notification, got %d", len(after)-len(before))
	}

	rec = env.do(t, http.MethodGet, "/api/notifications/user/"+itoa(mgr.ID), manager, nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Notifications []models.Notification `json:"notifications"`
	}
	decode(t, rec, &list)
	if len(list.Notifications) != len(after) || !strings.Contains(list.Notifications[0].Message, "40%") {
		t.Fatalf("newest notification should be the progress report: %+v", list.Notifications[0])
	}
	if list.Notifications[0].ProjectName != "E-Commerce Platform" {
		t.Fatalf("project name missing: %+v", list.Notifications[0])
	}

	rec = env.do(t, http.MethodGet, "/api/tasks/"+itoa(task.ID)+"/progress", developer, nil)
	expectStatus(t, rec, http.StatusOK)
	var progress struct {
		Progress []models.TaskProgress `json:"progress"`
	}
	decode(t, rec, &progress)
	if len(progress.Progress) != 2 || progress.Progress[0].Percentage != 40 {
		t.Fatalf("progress log = %+v", progress.Progress)
	}
}

func TestUpdateTaskStatusOwnership(t *testing.T) {
	env := newTestEnv(t)
	manager, _ := env.login(t, "manager@example.com")
	developer, dev := env.login(t, "developer@example.com")
	director, _ := env.login(t, "director@example.com")

	p := env.project(t, "E-Commerce Platform")
	var mine, theirs int64
	for _, task := range p.Tasks {
		switch {
		case task.AssigneeID != nil && *task.AssigneeID == dev.ID:
			mine = task.ID
		case theirs == 0:
			theirs = task.ID
		}
	}
	if mine == 0 || theirs == 0 {
		t.Fatalf("seed data does not have the expected tasks")
	}

	body := map[string]string{"status": models.TaskReview}
	expectStatus(t, env.do(t, http.MethodPut, "/api/tasks/"+itoa(theirs)+"/status", developer, body), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPut, "/api/tasks/"+itoa(mine)+"/status", director, body), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPut, "/api/tasks/"+itoa(mine)+"/status", developer, body), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPut, "/api/tasks/"+itoa(theirs)+"/status", manager, body), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPut, "/api/tasks/"+itoa(mine)+"/status", manager, map[string]string{"status": "Done"}), http.StatusBadRequest)
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t)
	manager, _ := env.login(t, "manager@example.com")
	_, dev3 := env.login(t, "developer3@example.com")
	p := env.project(t, "Internal Wiki")

	rec := env.do(t, http.MethodPost, "/api/tasks", manager, map[string]any{
		"title":      "Pick a wiki engine",
		"projectId":  p.ID,
		"dueDate":    "2025-05-01",
		"priority":   models.PriorityHigh,
		"assigneeId": dev3.ID,
	})
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		Task models.Task `json:"task"`
	}
	decode(t, rec, &created)
	if created.Task.PriorityLevel != 3 || created.Task.StatusLevel != 1 {
		t.Fatalf("unexpected derived levels: %+v", created.Task)
	}
	id := itoa(created.Task.ID)

	rec = env.do(t, http.MethodPost, "/api/tasks/"+id+"/comments", manager, map[string]string{"content": "Compare three options"})
	expectStatus(t, rec, http.StatusCreated)
	rec = env.do(t, http.MethodGet, "/api/tasks/"+id+"/comments", manager, nil)
	expectStatus(t, rec, http.StatusOK)

	expectStatus(t, env.do(t, http.MethodPut, "/api/tasks/"+id+"/assignee", manager, map[string]any{"assigneeId": nil}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/tasks/"+id, manager, nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, "/api/tasks/"+id, manager, nil), http.StatusNotFound)

	rec = env.do(t, http.MethodGet, "/api/tasks/statuses", manager, nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), models.TaskReview) {
		t.Fatalf("statuses = %s", rec.Body.String())
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	env := newTestEnv(t)
	director, _ := env.login(t, "director@example.com")
	manager, mgr := env.login(t, "manager@example.com")
	p := env.project(t, "E-Commerce Platform")
	path := "/api/projects/" + itoa(p.ID)

	expectStatus(t, env.do(t, http.MethodDelete, path, director, nil), http.StatusOK)
	rec := env.do(t, http.MethodGet, path, director, nil)
	expectStatus(t, rec, http.StatusNotFound)
	if strings.TrimSpace(rec.Body.String()) != `{"error":"not found"}` {
		t.Fatalf("unexpected 404 body: %s", rec.Body.String())
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/tasks/project/"+itoa(p.ID), director, nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodGet, "/api/notifications/user/"+itoa(mgr.ID), manager, nil), http.StatusOK)

	rec = env.do(t, http.MethodGet, "/api/projects/manager/"+itoa(mgr.ID), manager, nil)
	expectStatus(t, rec, http.StatusOK)
	if strings.Contains(rec.Body.String(), "E-Commerce Platform") {
		t.Fatalf("deleted project still listed for its manager")
	}
}

func TestTeamAndAvailableDevelopers(t *testing.T) {
	env := newTestEnv(t)
	manager, _ := env.login(t, "manager@example.com")
	_, dev3 := env.login(t, "developer3@example.com")
	p := env.project(t, "E-Commerce Platform")
	id := itoa(p.ID)

	rec := env.do(t, http.MethodPost, "/api/projects/"+id+"/team", manager, map[string]any{
		"developerIds": []int64{dev3.ID},
		"meetingDate":  "2025-06-02T10:00:00Z",
	})
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, "/api/users/project/"+id+"/developers", manager, nil)
	expectStatus(t, rec, http.StatusOK)
	var team struct {
		Users []models.User `json:"users"`
	}
	decode(t, rec, &team)
	if len(team.Users) != 1 || team.Users[0].ID != dev3.ID {
		t.Fatalf("team = %+v", team.Users)
	}

	rec = env.do(t, http.MethodGet, "/api/users/project/"+id+"/available-developers", manager, nil)
	expectStatus(t, rec, http.StatusOK)
	var available struct {
		Users []models.User `json:"users"`
	}
	decode(t, rec, &available)
	if len(available.Users) != 2 {
		t.Fatalf("available = %+v", available.Users)
	}

	count, _ := env.store.UnreadNotifications(context.Background(), dev3.ID)
	if count != 1 {
		t.Fatalf("team member should get one meeting notification, got %d", count)
	}
}

func TestNotificationsAreRecipientOnly(t *testing.T) {
	env := newTestEnv(t)
	manager, mgr := env.login(t, "manager@example.com")
	developer, _ := env.login(t, "developer@example.com")
	base := "/api/notifications/user/" + itoa(mgr.ID)

	expectStatus(t, env.do(t, http.MethodGet, base, developer, nil), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPut, base+"/read-all", developer, nil), http.StatusForbidden)

	list, err := env.store.ListNotifications(context.Background(), mgr.ID)
	if err != nil || len(list) == 0 {
		t.Fatalf("seeded manager has no notifications: %v", err)
	}
	readPath := "/api/notifications/" + itoa(list[0].ID) + "/read"
	expectStatus(t, env.do(t, http.MethodPut, readPath, developer, nil), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPut, readPath, manager, nil), http.StatusOK)
	rec := env.do(t, http.MethodPut, readPath, manager, nil)
	expectStatus(t, rec, http.StatusOK)
	var marked struct {
		Notification models.Notification `json:"notification"`
	}
	decode(t, rec, &marked)
	if marked.Notification.ID != list[0].ID || !marked.Notification.Read {
		t.Fatalf("unexpected notification: %+v", marked.Notification)
	}

	expectStatus(t, env.do(t, http.MethodPut, base+"/read-all", manager, nil), http.StatusOK)
	rec = env.do(t, http.MethodGet, base+"/unread-count", manager, nil)
	expectStatus(t, rec, http.StatusOK)
	var unread struct {
		Count int64 `json:"count"`
	}
	decode(t, rec, &unread)
	if unread.Count != 0 {
		t.Fatalf("unread after read-all = %d", unread.Count)
	}
}

func TestTechnologyCatalog(t *testing.T) {
	env := newTestEnv(t)
	manager, _ := env.login(t, "manager@example.com")

	expectStatus(t, env.do(t, http.MethodPost, "/api/technologies", manager, map[string]string{"name": "Go"}), http.StatusBadRequest)
	rec := env.do(t, http.MethodPost, "/api/technologies", manager, map[string]string{"name": "Rust", "category": "Backend"})
	expectStatus(t, rec, http.StatusCreated)
	var created struct {
		Technology models.Technology `json:"technology"`
	}
	decode(t, rec, &created)

	path := "/api/technologies/" + itoa(created.Technology.ID)
	expectStatus(t, env.do(t, http.MethodPut, path, manager, map[string]string{"name": "Rust", "category": "Systems"}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodDelete, path, manager, nil), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodGet, path, manager, nil), http.StatusNotFound)
}

func TestUserProfileUpdates(t *testing.T) {
	env := newTestEnv(t)
	director, _ := env.login(t, "director@example.com")
	developer, dev := env.login(t, "developer@example.com")
	_, dev2 := env.login(t, "developer2@example.com")

	self := "/api/users/" + itoa(dev.ID)
	expectStatus(t, env.do(t, http.MethodPut, self, developer, map[string]string{"bio": "Backend developer"}), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodPut, self, developer, map[string]string{"role": "Manager"}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPut, "/api/users/"+itoa(dev2.ID), developer, map[string]string{"bio": "x"}), http.StatusForbidden)
	expectStatus(t, env.do(t, http.MethodPut, self, director, map[string]string{"role": "Directeur"}), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/api/users/role/Directeur", director, nil), http.StatusBadRequest)

	rec := env.do(t, http.MethodGet, "/api/users/role/developer", developer, nil)
	expectStatus(t, rec, http.StatusOK)
	var devs struct {
		Users []models.User `json:"users"`
	}
	decode(t, rec, &devs)
	if len(devs.Users) != 3 {
		t.Fatalf("developers = %d", len(devs.Users))
	}
}

func TestBadIdentifiers(t *testing.T) {
	env := newTestEnv(t)
	director, _ := env.login(t, "director@example.com")

	expectStatus(t, env.do(t, http.MethodGet, "/api/projects/abc", director, nil), http.StatusBadRequest)
	expectStatus(t, env.do(t, http.MethodGet, "/api/projects/9999", director, nil), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodGet, "/api/does-not-exist", director, nil), http.StatusNotFound)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
