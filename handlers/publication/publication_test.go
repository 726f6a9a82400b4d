package publication

import (
	"bytes"
	"encoding/json"
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

type publicationFixture struct {
	app *fiber.App
	db  *gorm.DB
	jwt *auth.JWTManager
}

func newPublicationFixture(t *testing.T) *publicationFixture {
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
		Secret:        "publication-test-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	store := &testStorage{db: db}
	m := middleware.NewAuthMiddleware(jwtManager, db)
	canEdit := m.RequireRole(model.RoleResearcher, model.RoleAdmin, model.RoleSuperAdmin)

	app := fiber.New()
	grp := app.Group("/publications")
	grp.Get("/", utils.MakeHTTPHandleFunc(List, store))
	grp.Get("/:id", utils.MakeHTTPHandleFunc(Get, store))
	grp.Post("/", m.Required(), canEdit, utils.MakeHTTPHandleFunc(Create, store))
	grp.Put("/:id", m.Required(), canEdit, utils.MakeHTTPHandleFunc(Update, store))
	grp.Delete("/:id", m.Required(), canEdit, utils.MakeHTTPHandleFunc(Delete, store))

	return &publicationFixture{app: app, db: db, jwt: jwtManager}
}

func (f *publicationFixture) createUser(t *testing.T, email, role string) *model.User {
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

func (f *publicationFixture) createPublication(t *testing.T, owner *model.User) *model.Publication {
	t.Helper()

	pub := &model.Publication{
		UserID: owner.ID,
		Year:   2024,
		Title:  "On the Care and Feeding of Test Fixtures",
	}
	if err := f.db.Create(pub).Error; err != nil {
		t.Fatalf("failed to create publication: %v", err)
	}
	return pub
}

func (f *publicationFixture) do(t *testing.T, method, path string, actor *model.User, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := f.jwt.GenerateAccessToken(actor.ID, actor.Role)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestResearcherCannotDeleteAnotherUsersPublication(t *testing.T) {
	f := newPublicationFixture(t)
	owner := f.createUser(t, "owner@example.org", model.RoleResearcher)
	other := f.createUser(t, "other@example.org", model.RoleResearcher)
	pub := f.createPublication(t, owner)

	resp := f.do(t, http.MethodDelete, fmt.Sprintf("/publications/%d", pub.ID), other, nil)
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("cross-user delete status = %d, want 403", resp.StatusCode)
	}

	var remaining int64
	f.db.Model(&model.Publication{}).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("publication rows = %d, want 1 (row must survive)", remaining)
	}

	var audit model.Audit
	path := fmt.Sprintf("unauthorized access attempt to DELETE /publications/%d", pub.ID)
	if err := f.db.Where("action_description = ?", path).First(&audit).Error; err != nil {
		t.Fatalf("denial audit row missing: %v", err)
	}
	if audit.UserID == nil || *audit.UserID != other.ID {
		t.Error("denial audit row must name the acting user")
	}
}

func TestResearcherCannotUpdateAnotherUsersPublication(t *testing.T) {
	f := newPublicationFixture(t)
	owner := f.createUser(t, "owner@example.org", model.RoleResearcher)
	other := f.createUser(t, "other@example.org", model.RoleResearcher)
	pub := f.createPublication(t, owner)

	resp := f.do(t, http.MethodPut, fmt.Sprintf("/publications/%d", pub.ID), other, fiber.Map{
		"year":  2025,
		"title": "Hijacked Title That Must Not Land",
	})
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("cross-user update status = %d, want 403", resp.StatusCode)
	}

	var reloaded model.Publication
	if err := f.db.First(&reloaded, pub.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.Title != pub.Title {
		t.Errorf("title changed to %q, want unchanged", reloaded.Title)
	}
}

func TestOwnerUpdatesOwnPublication(t *testing.T) {
	f := newPublicationFixture(t)
	owner := f.createUser(t, "owner@example.org", model.RoleResearcher)
	pub := f.createPublication(t, owner)

	resp := f.do(t, http.MethodPut, fmt.Sprintf("/publications/%d", pub.ID), owner, fiber.Map{
		"year":  2025,
		"title": "Second Edition",
	})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("owner update status = %d, want 200", resp.StatusCode)
	}

	var reloaded model.Publication
	if err := f.db.First(&reloaded, pub.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.Title != "Second Edition" {
		t.Errorf("title = %q, want Second Edition", reloaded.Title)
	}
}

func TestAdminManagesAnyPublication(t *testing.T) {
	f := newPublicationFixture(t)
	owner := f.createUser(t, "owner@example.org", model.RoleResearcher)
	boss := f.createUser(t, "boss@example.org", model.RoleAdmin)
	pub := f.createPublication(t, owner)

	resp := f.do(t, http.MethodDelete, fmt.Sprintf("/publications/%d", pub.ID), boss, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("admin delete status = %d, want 200", resp.StatusCode)
	}

	var remaining int64
	f.db.Model(&model.Publication{}).Count(&remaining)
	if remaining != 0 {
		t.Fatalf("publication rows = %d, want 0", remaining)
	}
}
