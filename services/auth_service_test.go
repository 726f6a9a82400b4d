package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/utils/auth"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func serviceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.RefreshToken{},
		&model.Audit{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func testAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()

	db := serviceTestDB(t)
	jwt := auth.NewJWTManager(auth.JWTConfig{
		Secret:        "service-test-secret",
		Expiry:        15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "portfolio-api-test",
	})
	return NewAuthService(db, jwt), db
}

func auditCount(t *testing.T, db *gorm.DB, description string) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&model.Audit{}).Where("action_description = ?", description).Count(&n).Error; err != nil {
		t.Fatalf("failed to count audit rows: %v", err)
	}
	return n
}

func TestRegisterCreatesActiveResearcher(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, RegisterInput{
		Email:     "ada@example.org",
		Password:  "strong-password",
		FirstName: "Ada",
		LastName:  "Lovelace",
	}, "10.0.0.1")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.Role != model.RoleResearcher {
		t.Errorf("role = %q, want %q", user.Role, model.RoleResearcher)
	}
	if user.Status != model.StatusActive {
		t.Errorf("status = %q, want %q", user.Status, model.StatusActive)
	}
	if user.HashedPassword == "strong-password" {
		t.Error("password stored in plaintext")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("registration must open a session")
	}
	if pair.ExpiresIn != int((15 * time.Minute).Seconds()) {
		t.Errorf("ExpiresIn = %d, want access token lifetime in seconds", pair.ExpiresIn)
	}

	var profile model.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		t.Fatalf("profile row missing: %v", err)
	}
	if profile.FirstName != "Ada" || profile.LastName != "Lovelace" {
		t.Errorf("profile = %q %q, want Ada Lovelace", profile.FirstName, profile.LastName)
	}

	if n := auditCount(t, db, "new user registered"); n != 1 {
		t.Errorf("registration audit rows = %d, want 1", n)
	}

	var sessions int64
	db.Model(&model.RefreshToken{}).Where("user_id = ?", user.ID).Count(&sessions)
	if sessions != 1 {
		t.Errorf("ledger rows = %d, want 1", sessions)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	in := RegisterInput{Email: "dup@example.org", Password: "strong-password"}
	if _, _, err := svc.Register(ctx, in, "10.0.0.1"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Register(ctx, in, "10.0.0.1"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}

	var users int64
	db.Model(&model.User{}).Where("email = ?", in.Email).Count(&users)
	if users != 1 {
		t.Errorf("user rows = %d, want 1", users)
	}
}

// A soft-deleted account is invisible to the pre-insert lookup but its row
// still occupies the unique email index, the same collision shape as two
// registrations racing. The insert error must come back as ErrEmailTaken,
// not surface as an internal error.
func TestRegisterEmailHeldBySoftDeletedAccount(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	holder := model.User{
		Email:          "held@example.org",
		HashedPassword: "irrelevant",
		Role:           model.RoleResearcher,
		Status:         model.StatusInactive,
	}
	if err := db.Create(&holder).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Delete(&holder).Error; err != nil {
		t.Fatal(err)
	}

	in := RegisterInput{Email: "held@example.org", Password: "strong-password"}
	if _, _, err := svc.Register(ctx, in, "10.0.0.1"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("got %v, want ErrEmailTaken", err)
	}

	// The failed attempt must leave nothing behind.
	if n := auditCount(t, db, "new user registered"); n != 0 {
		t.Errorf("audit rows = %d, want 0 after rolled-back registration", n)
	}
}

func TestLoginSuccessWritesAudit(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterInput{
		Email:    "grace@example.org",
		Password: "strong-password",
	}, "10.0.0.1"); err != nil {
		t.Fatal(err)
	}

	user, pair, err := svc.Login(ctx, "grace@example.org", "strong-password", "10.0.0.2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.Email != "grace@example.org" {
		t.Errorf("unexpected user %q", user.Email)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("login must open a session")
	}

	if n := auditCount(t, db, "successful login"); n != 1 {
		t.Errorf("login audit rows = %d, want 1", n)
	}

	var row model.Audit
	if err := db.Where("action_description = ?", "successful login").First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.UserID == nil || *row.UserID != user.ID {
		t.Error("login audit row must reference the actor")
	}
	if row.IPAddress != "10.0.0.2" {
		t.Errorf("audit IP = %q, want 10.0.0.2", row.IPAddress)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, RegisterInput{
		Email:    "known@example.org",
		Password: "strong-password",
	}, "10.0.0.1"); err != nil {
		t.Fatal(err)
	}

	// Unknown email and wrong password must be indistinguishable.
	_, _, errUnknown := svc.Login(ctx, "nobody@example.org", "whatever", "10.0.0.1")
	_, _, errWrong := svc.Login(ctx, "known@example.org", "wrong-password", "10.0.0.1")

	if !errors.Is(errUnknown, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", errUnknown)
	}
	if !errors.Is(errWrong, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", errWrong)
	}

	// Failed logins leave no session and no success audit row.
	if n := auditCount(t, db, "successful login"); n != 0 {
		t.Errorf("failed logins produced %d success audit rows", n)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterInput{
		Email:    "retired@example.org",
		Password: "strong-password",
	}, "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Model(user).Update("status", model.StatusInactive).Error; err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.Login(ctx, "retired@example.org", "strong-password", "10.0.0.1"); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("got %v, want ErrAccountInactive", err)
	}
}

func TestRefreshAfterLogin(t *testing.T) {
	svc, _ := testAuthService(t)
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, RegisterInput{
		Email:    "refresh@example.org",
		Password: "strong-password",
	}, "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}

	access, user, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if access == "" {
		t.Error("Refresh must return a new access token")
	}
	if user.Email != "refresh@example.org" {
		t.Errorf("unexpected user %q", user.Email)
	}
}

func TestLogoutRevokesAndAudits(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, RegisterInput{
		Email:    "bye@example.org",
		Password: "strong-password",
	}, "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(ctx, pair.RefreshToken, &user.ID, user.Role, "10.0.0.1"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, auth.ErrTokenRevoked) {
		t.Fatalf("refresh after logout: got %v, want ErrTokenRevoked", err)
	}

	// Logging out again is fine and leaves another audit row.
	if err := svc.Logout(ctx, pair.RefreshToken, &user.ID, user.Role, "10.0.0.1"); err != nil {
		t.Fatalf("second Logout failed: %v", err)
	}
	if n := auditCount(t, db, "logout"); n != 2 {
		t.Errorf("logout audit rows = %d, want 2", n)
	}
}

func TestLogoutWithoutIdentity(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	// A logout with no valid session still records who (anonymously) asked.
	if err := svc.Logout(ctx, "some-unknown-token", nil, "", "10.0.0.9"); err != nil {
		t.Fatalf("anonymous Logout failed: %v", err)
	}

	var row model.Audit
	if err := db.Where("action_description = ?", "logout").First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.UserID != nil {
		t.Error("anonymous logout must not claim an actor")
	}
	if row.UserRole != "anonymous" {
		t.Errorf("role = %q, want anonymous", row.UserRole)
	}
}
