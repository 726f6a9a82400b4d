package project

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/acadfolio/portfolio-api/database"
	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/utils"
	"github.com/acadfolio/portfolio-api/utils/auth"
	"github.com/acadfolio/portfolio-api/utils/middleware"
	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testStorage satisfies database.Storage over an in-memory sqlite handle.
type testStorage struct {
	db *gorm.DB
}

func (s *testStorage) Init() error        { return nil }
func (s *testStorage) Close() error       { return nil }
func (s *testStorage) HealthCheck() error { return nil }
func (s *testStorage) GetDB() interface{} { return s.db }

type projectFixture struct {
	app *fiber.App
	db  *gorm.DB
	jwt *auth.JWTManager
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        "project-test-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	store := &testStorage{db: db}
	m := middleware.NewAuthMiddleware(jwtManager, db)
	canEdit := m.RequireRole(model.RoleResearcher, model.RoleAdmin, model.RoleSuperAdmin)

	app := fiber.New()
	grp := app.Group("/projects")
	grp.Put("/:id", m.Required(), canEdit, utils.MakeHTTPHandleFunc(Update, store))
	grp.Delete("/:id", m.Required(), canEdit, utils.MakeHTTPHandleFunc(Delete, store))

	return &projectFixture{app: app, db: db, jwt: jwtManager}
}

func (f *projectFixture) createUser(t *testing.T, email, role string) *model.User {
	t.Helper()

	user := &model.User{
		Email:          email,
		HashedPassword: "irrelevant",
		Role:           role,
		Status:         model.StatusActive,
	}
	if err := f.db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func (f *projectFixture) request(t *testing.T, method, path string, actor *model.User) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	token, err := f.jwt.GenerateAccessToken(actor.ID, actor.Role)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestResearcherCannotDeleteAnotherUsersProject(t *testing.T) {
	f := newProjectFixture(t)
	owner := f.createUser(t, "owner@example.org", model.RoleResearcher)
	other := f.createUser(t, "other@example.org", model.RoleResearcher)

	project := &model.Project{UserID: owner.ID, Title: "Archival Pipeline"}
	if err := f.db.Create(project).Error; err != nil {
		t.Fatal(err)
	}

	resp := f.request(t, http.MethodDelete, fmt.Sprintf("/projects/%d", project.ID), other)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("cross-user delete status = %d, want 403", resp.StatusCode)
	}

	var remaining int64
	f.db.Model(&model.Project{}).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("project rows = %d, want 1 (row must survive)", remaining)
	}
}

func TestSuperAdminDeletesAnyProject(t *testing.T) {
	f := newProjectFixture(t)
	owner := f.createUser(t, "owner@example.org", model.RoleResearcher)
	root := f.createUser(t, "root@example.org", model.RoleSuperAdmin)

	project := &model.Project{UserID: owner.ID, Title: "Archival Pipeline"}
	if err := f.db.Create(project).Error; err != nil {
		t.Fatal(err)
	}

	resp := f.request(t, http.MethodDelete, fmt.Sprintf("/projects/%d", project.ID), root)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("super_admin delete status = %d, want 200", resp.StatusCode)
	}

	var remaining int64
	f.db.Model(&model.Project{}).Count(&remaining)
	if remaining != 0 {
		t.Fatalf("project rows = %d, want 0", remaining)
	}
}
