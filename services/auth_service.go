package services

import (
	"context"
	"errors"
	"time"

	"github.com/acadfolio/portfolio-api/model"
	"github.com/acadfolio/portfolio-api/utils/auth"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is disabled")
	ErrEmailTaken         = errors.New("email already registered")
)

// TokenPair is what a successful login or registration hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // access token lifetime in seconds
}

// RegisterInput carries the fields a new account may set. Role and status are
// not among them: registration always produces an active researcher.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthService implements the session lifecycle: register, login, refresh,
// logout. Every path that creates a session writes its ledger row and audit
// row in the same transaction as the user-facing effect.
type AuthService struct {
	db     *gorm.DB
	jwt    *auth.JWTManager
	ledger *auth.LedgerService
	audits *AuditService
}

// NewAuthService wires the auth service from its collaborators.
func NewAuthService(db *gorm.DB, jwt *auth.JWTManager) *AuthService {
	return &AuthService{
		db:     db,
		jwt:    jwt,
		ledger: auth.NewLedgerService(db, jwt),
		audits: NewAuditService(db),
	}
}

// Ledger exposes the refresh-token ledger for admin session management.
func (s *AuthService) Ledger() *auth.LedgerService {
	return s.ledger
}

// AccessTTL reports the configured access-token lifetime.
func (s *AuthService) AccessTTL() time.Duration {
	return s.jwt.AccessExpiry()
}

// RefreshTTL reports the configured refresh-token lifetime, used by handlers
// to set cookie expiry.
func (s *AuthService) RefreshTTL() time.Duration {
	return s.jwt.RefreshExpiry()
}

// Register creates an active researcher account with its profile, audit row
// and first session, all in one transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, ip string) (*model.User, *TokenPair, error) {
	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&existing).Error
	if err == nil {
		return nil, nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, nil, err
	}

	user := model.User{
		Email:          in.Email,
		HashedPassword: hashed,
		Role:           model.RoleResearcher,
		Status:         model.StatusActive,
	}

	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		profile := model.Profile{
			UserID:    user.ID,
			FirstName: in.FirstName,
			LastName:  in.LastName,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		if err := s.audits.RecordTx(tx, AuditEntry{
			ActorID:     &user.ID,
			ActorRole:   user.Role,
			Description: "new user registered",
			IP:          ip,
		}); err != nil {
			return err
		}

		p, err := s.issueSession(tx, &user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		// A concurrent registration (or a soft-deleted holder of the same
		// email) slips past the lookup and hits the unique index instead.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}

	return &user, pair, nil
}

// Login checks the credentials and opens a new session. An unknown email and
// a wrong password fail identically: the bcrypt comparison runs either way so
// the two cases cannot be told apart by timing or by message.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*model.User, *TokenPair, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = auth.VerifyPassword(auth.DummyHash, password)
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if err := auth.VerifyPassword(user.HashedPassword, password); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if user.Status != model.StatusActive {
		return nil, nil, ErrAccountInactive
	}

	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.audits.RecordTx(tx, AuditEntry{
			ActorID:     &user.ID,
			ActorRole:   user.Role,
			Description: "successful login",
			IP:          ip,
		}); err != nil {
			return err
		}

		p, err := s.issueSession(tx, &user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &user, pair, nil
}

// Refresh exchanges a refresh token for a new access token. Errors come from
// the ledger: auth.ErrTokenMissing, auth.ErrInvalidToken, auth.ErrTokenRevoked,
// auth.ErrUserNotFound.
func (s *AuthService) Refresh(ctx context.Context, presented string) (string, *model.User, error) {
	return s.ledger.Exchange(ctx, presented)
}

// Logout revokes the presented refresh token and records the event. It is
// idempotent with respect to the ledger; only an audit-write failure is
// surfaced. The actor is nil when the caller's identity is already gone.
func (s *AuthService) Logout(ctx context.Context, presented string, actorID *uint, actorRole, ip string) error {
	if err := s.ledger.Revoke(ctx, presented); err != nil {
		return err
	}

	if actorRole == "" {
		actorRole = "anonymous"
	}
	return s.audits.Record(ctx, AuditEntry{
		ActorID:     actorID,
		ActorRole:   actorRole,
		Description: "logout",
		IP:          ip,
	})
}

func (s *AuthService) issueSession(tx *gorm.DB, user *model.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	refresh, err := s.ledger.IssueAndStore(tx, user)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.jwt.AccessExpiry().Seconds()),
	}, nil
}
