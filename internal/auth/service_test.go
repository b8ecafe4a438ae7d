package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/gbmoto/magazzino-backend/pkg/auth"
	"github.com/gbmoto/magazzino-backend/pkg/auth/session"
	"github.com/gbmoto/magazzino-backend/pkg/config"
	"github.com/gbmoto/magazzino-backend/pkg/db/models"
	"github.com/gbmoto/magazzino-backend/pkg/enums"
	apperrors "github.com/gbmoto/magazzino-backend/pkg/errors"
	"github.com/gbmoto/magazzino-backend/pkg/security"
)

type fakeUserRepo struct {
	byID       map[uuid.UUID]*models.User
	byUsername map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:       map[uuid.UUID]*models.User{},
		byUsername: map[string]*models.User{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if _, exists := f.byUsername[user.Username]; exists {
		return fmt.Errorf(`duplicate key value violates unique constraint "ux_users_username"`)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.byID[user.ID] = user
	f.byUsername[user.Username] = user
	return nil
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return f.byUsername[username], nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.byID[id], nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	if user, ok := f.byID[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

type fakeSessionManager struct {
	refreshByID map[string]string
	revoked     []string
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{refreshByID: map[string]string{}}
}

func (f *fakeSessionManager) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.refreshByID[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.refreshByID[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.refreshByID, oldAccessID)
	newID := session.NewAccessID()
	token := "refresh-" + newID
	f.refreshByID[newID] = token
	return newID, token, nil
}

func (f *fakeSessionManager) Revoke(_ context.Context, accessID string) error {
	delete(f.refreshByID, accessID)
	f.revoked = append(f.revoked, accessID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "magazzino-test",
		ExpirationMinutes: 15,
	}
}

func newTestAuth(t *testing.T) (Service, *fakeUserRepo, *fakeSessionManager) {
	t.Helper()
	repo := newFakeUserRepo()
	sessions := newFakeSessionManager()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}
	return svc, repo, sessions
}

func seedUser(t *testing.T, repo *fakeUserRepo, username, password string, role enums.UserRole) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{ID: uuid.New(), Username: username, PasswordHash: hash, Role: role}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestAuth(t)
	seedUser(t, repo, "mario", "correct horse battery", enums.UserRoleWarehouse)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "Mario", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if resp.User.LastLoginAt == nil {
		t.Fatal("expected last login to be recorded")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Username != "mario" || claims.Role != enums.UserRoleWarehouse {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestAuth(t)
	seedUser(t, repo, "mario", "correct horse battery", enums.UserRoleWarehouse)

	cases := []LoginRequest{
		{Username: "mario", Password: "wrong"},
		{Username: "nobody", Password: "correct horse battery"},
		{Username: "", Password: ""},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		appErr := apperrors.As(err)
		if appErr == nil || appErr.Code() != apperrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestAuth(t)
	seedUser(t, repo, "mario", "correct horse battery", enums.UserRoleWarehouse)

	login, err := svc.Login(context.Background(), LoginRequest{Username: "mario", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Fatal("expected a replacement token pair")
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	// The rotated-out pair is dead.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  login.AccessToken,
		RefreshToken: login.RefreshToken,
	})
	if appErr := apperrors.As(err); appErr == nil || appErr.Code() != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized on replayed refresh, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()
	svc, repo, sessions := newTestAuth(t)
	seedUser(t, repo, "mario", "correct horse battery", enums.UserRoleWarehouse)

	login, err := svc.Login(context.Background(), LoginRequest{Username: "mario", Password: "correct horse battery"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), login.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if err := svc.Logout(context.Background(), claims.ID); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != claims.ID {
		t.Fatalf("expected session %s revoked, got %v", claims.ID, sessions.revoked)
	}
}

func TestRegisterCreatesUser(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		Username: "Luigi",
		Password: "a long password",
		Role:     enums.UserRoleAdmin,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if dto.Username != "luigi" {
		t.Fatalf("usernames are normalized to lowercase, got %q", dto.Username)
	}

	// The new account can log in.
	if _, err := svc.Login(context.Background(), LoginRequest{Username: "luigi", Password: "a long password"}); err != nil {
		t.Fatalf("login after register: %v", err)
	}

	// Duplicate usernames collide.
	_, err = svc.Register(context.Background(), RegisterRequest{Username: "luigi", Password: "another password", Role: enums.UserRoleAdmin})
	if appErr := apperrors.As(err); appErr == nil || appErr.Code() != apperrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestAuth(t)

	cases := []RegisterRequest{
		{Username: "ab", Password: "a long password", Role: enums.UserRoleWarehouse},
		{Username: "luigi", Password: "short", Role: enums.UserRoleWarehouse},
		{Username: "luigi", Password: "a long password", Role: "MANAGER"},
	}
	for _, req := range cases {
		_, err := svc.Register(context.Background(), req)
		appErr := apperrors.As(err)
		if appErr == nil || appErr.Code() != apperrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}
