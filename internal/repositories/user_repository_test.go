package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/checklist-rve/checklist-rve/internal/kv"
	"github.com/checklist-rve/checklist-rve/internal/models"
)

// bcrypt's minimum cost keeps the hashing fast in tests
const testBcryptCost = 4

func newUserRepo() (*UserRepository, *kv.MemoryStore) {
	store := kv.NewMemoryStore()
	return NewUserRepository(store, testBcryptCost), store
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegister(t *testing.T) {
	ctx := context.Background()
	repo, store := newUserRepo()

	user, err := repo.Register(ctx, "tecnico@example.com", "secret123", models.RoleUser, "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.Email != "tecnico@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "tecnico@example.com")
	}
	if user.Name != "tecnico" {
		t.Errorf("Name = %q, want local part %q", user.Name, "tecnico")
	}
	if user.Role != models.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, models.RoleUser)
	}
	if !user.IsActive {
		t.Error("IsActive = false, want true")
	}
	if user.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}

	// Email must land in the enumeration index
	emails, _ := store.LRange(ctx, usersIndexKey)
	if len(emails) != 1 || emails[0] != "tecnico@example.com" {
		t.Errorf("index = %v, want [tecnico@example.com]", emails)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	repo, store := newUserRepo()

	tests := []struct {
		name     string
		email    string
		password string
		role     string
	}{
		{"missing email", "", "secret123", models.RoleUser},
		{"missing password", "a@b.com", "", models.RoleUser},
		{"missing role", "a@b.com", "secret123", ""},
		{"short password", "a@b.com", "12345", models.RoleUser},
		{"unknown role", "a@b.com", "secret123", "superuser"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Register(ctx, tt.email, tt.password, tt.role, "")
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Register() error = %v, want ErrInvalidInput", err)
			}
		})
	}

	// No record must have been created by any rejected attempt
	emails, _ := store.LRange(ctx, usersIndexKey)
	if len(emails) != 0 {
		t.Errorf("index = %v, want empty after rejected registrations", emails)
	}
}

func TestRegisterShortPasswordMessage(t *testing.T) {
	ctx := context.Background()
	repo, _ := newUserRepo()

	_, err := repo.Register(ctx, "a@b.com", "12345", models.RoleUser, "")
	if err == nil {
		t.Fatal("Register() error = nil for 5-char password")
	}
	if !strings.Contains(err.Error(), "6") {
		t.Errorf("error %q does not mention the 6-character minimum", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newUserRepo()

	if _, err := repo.Register(ctx, "a@b.com", "secret123", models.RoleAdmin, ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, err := repo.Register(ctx, "a@b.com", "other456", models.RoleUser, "")
	if !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("Register() error = %v, want ErrAlreadyExists", err)
	}
}

// ---------------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------------

func TestAuthenticateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newUserRepo()

	if _, err := repo.Register(ctx, "a@b.com", "secret123", models.RoleUser, "Ana"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, err := repo.Authenticate(ctx, "a@b.com", "secret123")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if user.Email != "a@b.com" || user.Name != "Ana" {
		t.Errorf("Authenticate() = %+v, want registered user", user)
	}

	// The public view must not carry the hash
	raw, err := json.Marshal(user.Public())
	if err != nil {
		t.Fatalf("marshaling public user: %v", err)
	}
	if strings.Contains(string(raw), "password") {
		t.Errorf("public user leaks password field: %s", raw)
	}
}

// Wrong password and unknown email must fail identically so callers cannot
// probe which accounts exist.
func TestAuthenticateConstantShapeFailure(t *testing.T) {
	ctx := context.Background()
	repo, _ := newUserRepo()

	if _, err := repo.Register(ctx, "a@b.com", "secret123", models.RoleUser, ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errWrongPassword := repo.Authenticate(ctx, "a@b.com", "wrong456")
	_, errUnknownEmail := repo.Authenticate(ctx, "nobody@b.com", "secret123")

	if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, ErrInvalidCredentials) {
		t.Errorf("unknown email error = %v, want ErrInvalidCredentials", errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Errorf("failure shapes differ: %q vs %q", errWrongPassword, errUnknownEmail)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newUserRepo()

	if _, err := repo.Register(ctx, "a@b.com", "secret123", models.RoleUser, "Ana"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	name := "Ana María"
	role := models.RoleAdmin
	inactive := false
	user, err := repo.Update(ctx, "a@b.com", UserUpdate{Name: &name, Role: &role, IsActive: &inactive})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if user.Name != name {
		t.Errorf("Name = %q, want %q", user.Name, name)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want %q", user.Role, models.RoleAdmin)
	}
	if user.IsActive {
		t.Error("IsActive = true, want false")
	}
	if user.UpdatedAt == nil {
		t.Error("UpdatedAt not stamped")
	}
}

func TestUpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo, _ := newUserRepo()

	if _, err := repo.Register(ctx, "a@b.com", "secret123", models.RoleUser, ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	short := "12345"
	if _, err := repo.Update(ctx, "a@b.com", UserUpdate{NewPassword: &short}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Update() error = %v, want ErrInvalidInput for short password", err)
	}

	newPassword := "fresh-secret"
	if _, err := repo.Update(ctx, "a@b.com", UserUpdate{NewPassword: &newPassword}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := repo.Authenticate(ctx, "a@b.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still accepted after change")
	}
	if _, err := repo.Authenticate(ctx, "a@b.com", newPassword); err != nil {
		t.Errorf("Authenticate() with new password error = %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newUserRepo()

	name := "Nadie"
	_, err := repo.Update(ctx, "nobody@b.com", UserUpdate{Name: &name})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Delete / List
// ---------------------------------------------------------------------------

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	repo, store := newUserRepo()

	if _, err := repo.Register(ctx, "a@b.com", "secret123", models.RoleUser, ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := repo.Delete(ctx, "a@b.com"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.Get(ctx, "a@b.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	emails, _ := store.LRange(ctx, usersIndexKey)
	if len(emails) != 0 {
		t.Errorf("index after delete = %v, want empty", emails)
	}

	if err := repo.Delete(ctx, "a@b.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() on missing user error = %v, want ErrNotFound", err)
	}
}

func TestListUsers(t *testing.T) {
	ctx := context.Background()
	repo, store := newUserRepo()

	for _, email := range []string{"a@b.com", "c@d.com", "e@f.com"} {
		if _, err := repo.Register(ctx, email, "secret123", models.RoleUser, ""); err != nil {
			t.Fatalf("Register(%s) error = %v", email, err)
		}
	}

	// A dangling index entry must be skipped, not fail the listing
	if err := store.Delete(ctx, userKey("c@d.com")); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("List() returned %d users, want 2", len(users))
	}
	for _, u := range users {
		if u.Email == "c@d.com" {
			t.Error("List() returned user whose record is gone")
		}
	}
}
