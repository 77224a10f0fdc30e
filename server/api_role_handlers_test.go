package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gymstack/rbac/migrate"
	"github.com/gymstack/rbac/models"
	"github.com/gymstack/rbac/store"
)

// recordingCache captures Invalidate calls so tests can assert a handler
// dropped the right org's permission set.
type recordingCache struct {
	mu          sync.Mutex
	invalidated []string
}

func (c *recordingCache) Get(context.Context, string, models.Module) ([]string, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) Put(context.Context, string, models.Module, []string) error { return nil }

func (c *recordingCache) Invalidate(_ context.Context, orgID string, module models.Module) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, orgID+"/"+string(module))
	return nil
}

func (c *recordingCache) Close() {}

func (c *recordingCache) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}

var (
	handlerMigrateOnce sync.Once
	handlerMigrateErr  error
)

// newHandlerTestServer opens the test database behind a Server with a
// recording cache. Handler tests skip individually without a test DSN so the
// pure middleware tests in this package still run.
func newHandlerTestServer(t *testing.T) (*Server, *recordingCache, *gorm.DB) {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("no test DSN available")
	}
	handlerMigrateOnce.Do(func() {
		handlerMigrateErr = migrate.Run(migrate.Options{
			Driver:  "postgres",
			DSN:     dsn,
			Command: "up",
			Logger:  log.New(io.Discard, "", 0),
		})
	})
	if handlerMigrateErr != nil {
		t.Fatalf("handler test migration failed: %v", handlerMigrateErr)
	}
	db, err := store.Open(dsn)
	if err != nil {
		t.Fatal("failed to setup test database:", err)
	}
	for _, table := range []string{"role_users", "role_tasks", "roles", "tasks", "categories"} {
		if err := db.Exec("DELETE FROM "+table+" WHERE module = ?", models.ModuleFOH).Error; err != nil {
			t.Fatalf("wipe %s: %v", table, err)
		}
	}
	cache := &recordingCache{}
	srv := &Server{
		Config: &AppConfig{},
		Logger: log.New(io.Discard, "", 0),
		db:     db,
		cache:  cache,
	}
	return srv, cache, db
}

// invokeHandler drives one handler directly with path params and a JSON body.
func invokeHandler(t *testing.T, handler gin.HandlerFunc, method, path string, params gin.Params, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	handler(c)
	return w
}

func TestRoleMutationsInvalidatePermissionCache(t *testing.T) {
	srv, cache, db := newHandlerTestServer(t)
	ctx := context.Background()

	task, err := store.NewTaskStore(db).Create(ctx, models.ModuleFOH, nil, "Edit Members", "", "")
	if err != nil {
		t.Fatal(err)
	}

	// Create a role.
	w := invokeHandler(t, srv.HandleCreateRoleGin, http.MethodPost, "/orgs/org-a/modules/foh/roles",
		gin.Params{{Key: "orgId", Value: "org-a"}, {Key: "module", Value: "foh"}},
		map[string]interface{}{"name": "Sales"})
	if w.Code != http.StatusOK {
		t.Fatalf("create role: status = %d: %s", w.Code, w.Body.String())
	}
	role, err := store.NewRoleStore(db).GetByName(ctx, "org-a", models.ModuleFOH, "Sales")
	if err != nil || role == nil {
		t.Fatalf("created role not found: %v", err)
	}

	// Toggle a task binding.
	w = invokeHandler(t, srv.HandleSetRoleTaskGin, http.MethodPut, "/roles/"+role.ID+"/tasks/"+task.ID,
		gin.Params{{Key: "id", Value: role.ID}, {Key: "taskId", Value: task.ID}},
		map[string]interface{}{"active": true})
	if w.Code != http.StatusOK {
		t.Fatalf("toggle binding: status = %d: %s", w.Code, w.Body.String())
	}

	// Assign and remove a user.
	w = invokeHandler(t, srv.HandleAssignRoleUserGin, http.MethodPost, "/roles/"+role.ID+"/users",
		gin.Params{{Key: "id", Value: role.ID}},
		map[string]interface{}{"orgId": "org-a", "orgUserId": "user-1", "module": "foh"})
	if w.Code != http.StatusOK {
		t.Fatalf("assign: status = %d: %s", w.Code, w.Body.String())
	}
	w = invokeHandler(t, srv.HandleRemoveRoleUserGin, http.MethodDelete, "/roles/"+role.ID+"/users/user-1",
		gin.Params{{Key: "id", Value: role.ID}, {Key: "userId", Value: "user-1"}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove: status = %d: %s", w.Code, w.Body.String())
	}

	// Delete the role.
	w = invokeHandler(t, srv.HandleDeleteRoleGin, http.MethodDelete, "/roles/"+role.ID,
		gin.Params{{Key: "id", Value: role.ID}}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete role: status = %d: %s", w.Code, w.Body.String())
	}

	// Every mutation above must have dropped the org's cached permissions;
	// otherwise readers serve stale sets until the TTL expires.
	calls := cache.calls()
	if len(calls) != 5 {
		t.Fatalf("invalidations = %v, want one per mutation (5)", calls)
	}
	for i, call := range calls {
		if call != "org-a/foh" {
			t.Errorf("invalidation %d = %q, want org-a/foh", i, call)
		}
	}
}

func TestDeleteRoleMissingReturnsNotFound(t *testing.T) {
	srv, cache, _ := newHandlerTestServer(t)

	w := invokeHandler(t, srv.HandleDeleteRoleGin, http.MethodDelete, "/roles/no-such-role",
		gin.Params{{Key: "id", Value: "no-such-role"}}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
	if calls := cache.calls(); len(calls) != 0 {
		t.Errorf("failed delete must not invalidate, got %v", calls)
	}
}

func TestBindTaskTogglesRolesByName(t *testing.T) {
	srv, cache, db := newHandlerTestServer(t)
	ctx := context.Background()

	taskStore := store.NewTaskStore(db)
	roleStore := store.NewRoleStore(db)
	task, err := taskStore.Create(ctx, models.ModuleFOH, nil, "Refund Invoice", "", "")
	if err != nil {
		t.Fatal(err)
	}
	sales, err := roleStore.Create(ctx, models.Role{OrgID: "org-a", Name: "Sales", Module: models.ModuleFOH, IsActive: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	reception, err := roleStore.Create(ctx, models.Role{OrgID: "org-a", Name: "Reception", Module: models.ModuleFOH, IsActive: true}, []string{task.ID})
	if err != nil {
		t.Fatal(err)
	}

	w := invokeHandler(t, srv.HandleBindTaskGin, http.MethodPut, "/modules/foh/tasks/"+task.ID+"/bindings",
		gin.Params{{Key: "module", Value: "foh"}, {Key: "id", Value: task.ID}},
		map[string]interface{}{"orgId": "org-a", "add": []string{"Sales", "Ghost"}, "remove": []string{"Reception"}})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var out struct {
		Applied int      `json:"applied"`
		Missing []string `json:"missing"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Applied != 2 {
		t.Errorf("applied = %d, want 2", out.Applied)
	}
	if len(out.Missing) != 1 || out.Missing[0] != "Ghost" {
		t.Errorf("missing = %v, want [Ghost]", out.Missing)
	}

	assertBinding := func(roleID string, wantActive bool) {
		t.Helper()
		bindings, err := roleStore.ListTaskBindings(ctx, roleID)
		if err != nil {
			t.Fatal(err)
		}
		if len(bindings) != 1 || bindings[0].TaskID != task.ID || bindings[0].IsActive != wantActive {
			t.Errorf("bindings for %s = %+v, want one for the task with active=%v", roleID, bindings, wantActive)
		}
	}
	assertBinding(sales.ID, true)
	assertBinding(reception.ID, false)

	if calls := cache.calls(); len(calls) != 1 || calls[0] != "org-a/foh" {
		t.Errorf("invalidations = %v, want exactly org-a/foh", calls)
	}
}

func TestBindTaskRejectsFixedRole(t *testing.T) {
	srv, cache, db := newHandlerTestServer(t)
	ctx := context.Background()

	task, err := store.NewTaskStore(db).Create(ctx, models.ModuleFOH, nil, "Close Register", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.NewRoleStore(db).Create(ctx, models.Role{OrgID: "org-a", Name: "Admin", Module: models.ModuleFOH, IsActive: true, IsFixed: true}, nil); err != nil {
		t.Fatal(err)
	}

	w := invokeHandler(t, srv.HandleBindTaskGin, http.MethodPut, "/modules/foh/tasks/"+task.ID+"/bindings",
		gin.Params{{Key: "module", Value: "foh"}, {Key: "id", Value: task.ID}},
		map[string]interface{}{"orgId": "org-a", "add": []string{"Admin"}})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
	if calls := cache.calls(); len(calls) != 0 {
		t.Errorf("rejected edit must not invalidate, got %v", calls)
	}
}
