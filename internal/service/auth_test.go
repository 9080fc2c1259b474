package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sakif/daily-log/internal/apperror"
	"github.com/sakif/daily-log/internal/auth"
	"github.com/sakif/daily-log/internal/model"
)

// mockUserRepo implements repository.UserRepository in memory.
type mockUserRepo struct {
	users  map[string]*model.User // keyed by ID
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == strings.ToLower(user.Email) {
			return apperror.Conflict("user", user.Email)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("mock-%d", m.nextID)
	user.Email = strings.ToLower(user.Email)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) GetByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	for _, u := range m.users {
		if u.GitHubID != 0 && u.GitHubID == githubID {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprint(githubID))
}

func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	policy := auth.NewPolicy(
		[]string{"admin@tie.ust"},
		[]string{"admin@tie.ust", "winnie@tie.ust", "student@tie.ust"},
	)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewAuthService(repo, tokens, auth.NewPasswordServiceWithCost(4), policy, logger)
	return svc, repo
}

// =========================================================================
// SIGN-UP TESTS
// =========================================================================

func TestSignUp_Success(t *testing.T) {
	svc, repo := newTestAuthService(t)

	result, err := svc.SignUp(context.Background(), "Winnie@tie.ust", "secret-password")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if result.Token == "" {
		t.Error("SignUp() did not issue a session token")
	}
	if result.User.Email != "winnie@tie.ust" {
		t.Errorf("Email = %q, want normalized %q", result.User.Email, "winnie@tie.ust")
	}
	if result.User.PasswordHash == "secret-password" {
		t.Error("SignUp() stored the password in plain text")
	}
	if len(repo.users) != 1 {
		t.Errorf("SignUp() created %d users, want 1", len(repo.users))
	}
}

func TestSignUp_RejectsUnlistedEmail(t *testing.T) {
	svc, repo := newTestAuthService(t)

	_, err := svc.SignUp(context.Background(), "stranger@example.com", "password")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("SignUp() error = %v, want ErrForbidden", err)
	}
	// The gate runs before anything is persisted.
	if len(repo.users) != 0 {
		t.Error("SignUp() created an account for an unauthorized email")
	}
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.SignUp(context.Background(), "student@tie.ust", "pw-one"); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}
	_, err := svc.SignUp(context.Background(), "student@tie.ust", "pw-two")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second SignUp() error = %v, want ErrConflict", err)
	}
}

func TestSignUp_MissingFields(t *testing.T) {
	svc, _ := newTestAuthService(t)

	if _, err := svc.SignUp(context.Background(), "", "pw"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SignUp(no email) error = %v, want ErrValidation", err)
	}
	if _, err := svc.SignUp(context.Background(), "winnie@tie.ust", ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SignUp(no password) error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// SIGN-IN TESTS
// =========================================================================

func TestSignIn_Success(t *testing.T) {
	svc, _ := newTestAuthService(t)
	svc.SignUp(context.Background(), "winnie@tie.ust", "correct-password")

	result, err := svc.SignIn(context.Background(), "winnie@tie.ust", "correct-password")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if result.Token == "" {
		t.Error("SignIn() did not issue a session token")
	}
}

func TestSignIn_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	svc.SignUp(context.Background(), "winnie@tie.ust", "correct-password")

	_, err := svc.SignIn(context.Background(), "winnie@tie.ust", "wrong-password")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("SignIn() error = %v, want ErrUnauthorized", err)
	}
}

func TestSignIn_UnknownEmailSameError(t *testing.T) {
	svc, _ := newTestAuthService(t)
	svc.SignUp(context.Background(), "winnie@tie.ust", "correct-password")

	_, errUnknown := svc.SignIn(context.Background(), "nobody@tie.ust", "whatever")
	_, errWrongPw := svc.SignIn(context.Background(), "winnie@tie.ust", "wrong")

	if !errors.Is(errUnknown, apperror.ErrUnauthorized) {
		t.Fatalf("SignIn(unknown email) error = %v, want ErrUnauthorized", errUnknown)
	}
	// Same message for both — the response must not reveal which emails
	// have accounts.
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("unknown-email message %q differs from wrong-password message %q",
			errUnknown.Error(), errWrongPw.Error())
	}
}

// =========================================================================
// SESSION / ROLE TESTS
// =========================================================================

func TestGetSession(t *testing.T) {
	svc, _ := newTestAuthService(t)
	admin, _ := svc.SignUp(context.Background(), "admin@tie.ust", "pw")
	student, _ := svc.SignUp(context.Background(), "student@tie.ust", "pw")

	adminSession, err := svc.GetSession(context.Background(), admin.User.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if !adminSession.IsAdmin {
		t.Error("GetSession() IsAdmin = false for an allow-listed admin")
	}

	studentSession, err := svc.GetSession(context.Background(), student.User.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if studentSession.IsAdmin {
		t.Error("GetSession() IsAdmin = true for a non-admin")
	}
	if studentSession.Email != "student@tie.ust" {
		t.Errorf("session Email = %q, want %q", studentSession.Email, "student@tie.ust")
	}
}

func TestGetSession_DeletedAccount(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.GetSession(context.Background(), "no-such-user")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("GetSession() error = %v, want ErrUnauthorized", err)
	}
}

func TestIsAdmin(t *testing.T) {
	svc, _ := newTestAuthService(t)
	admin, _ := svc.SignUp(context.Background(), "admin@tie.ust", "pw")
	student, _ := svc.SignUp(context.Background(), "student@tie.ust", "pw")

	if got, _ := svc.IsAdmin(context.Background(), admin.User.ID); !got {
		t.Error("IsAdmin() = false for admin")
	}
	if got, _ := svc.IsAdmin(context.Background(), student.User.ID); got {
		t.Error("IsAdmin() = true for student")
	}
}

// =========================================================================
// GITHUB OAUTH TESTS
// =========================================================================

func TestSignInGitHub_FirstSignInCreatesAccount(t *testing.T) {
	svc, repo := newTestAuthService(t)

	result, err := svc.SignInGitHub(context.Background(), &auth.GitHubUser{
		ID:    1234567,
		Login: "winnie",
		Email: "Winnie@tie.ust",
	})
	if err != nil {
		t.Fatalf("SignInGitHub() error = %v", err)
	}
	if result.User.GitHubID != 1234567 {
		t.Errorf("GitHubID = %d, want 1234567", result.User.GitHubID)
	}
	if len(repo.users) != 1 {
		t.Errorf("SignInGitHub() created %d users, want 1", len(repo.users))
	}

	// Second sign-in resolves the same account, no new row.
	again, err := svc.SignInGitHub(context.Background(), &auth.GitHubUser{
		ID: 1234567, Login: "winnie", Email: "winnie@tie.ust",
	})
	if err != nil {
		t.Fatalf("second SignInGitHub() error = %v", err)
	}
	if again.User.ID != result.User.ID {
		t.Error("second SignInGitHub() created a different account")
	}
	if len(repo.users) != 1 {
		t.Errorf("second SignInGitHub() grew users to %d, want 1", len(repo.users))
	}
}

func TestSignInGitHub_AllowListApplies(t *testing.T) {
	svc, repo := newTestAuthService(t)

	_, err := svc.SignInGitHub(context.Background(), &auth.GitHubUser{
		ID: 7654321, Login: "stranger", Email: "stranger@example.com",
	})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("SignInGitHub() error = %v, want ErrForbidden", err)
	}
	if len(repo.users) != 0 {
		t.Error("SignInGitHub() created an account for an unauthorized email")
	}
}

func TestSignIn_OAuthOnlyAccountHasNoPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)
	svc.SignInGitHub(context.Background(), &auth.GitHubUser{
		ID: 1234567, Login: "winnie", Email: "winnie@tie.ust",
	})

	// Password sign-in against an OAuth-only account must fail closed.
	_, err := svc.SignIn(context.Background(), "winnie@tie.ust", "")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("SignIn() error = %v, want ErrUnauthorized", err)
	}
	_, err = svc.SignIn(context.Background(), "winnie@tie.ust", "anything")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("SignIn() error = %v, want ErrUnauthorized", err)
	}
}
