package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schedr/schedr-api/internal/domain"
	"github.com/schedr/schedr-api/internal/service/auth"
	"github.com/schedr/schedr-api/internal/store"
)

// fakeUserStore is an in-memory UserStore for testing.
type fakeUserStore struct {
	users map[uuid.UUID]*domain.User
}

var _ store.UserStore = (*fakeUserStore)(nil)

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*domain.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (f *fakeUserStore) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrUserNotFound
	}
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) WithTx(_ *sql.Tx) store.UserStore {
	return f
}

// seedUser stores a user with the given password already hashed.
func seedUser(t *testing.T, users *fakeUserStore, email, password string) *domain.User {
	t.Helper()

	user, err := domain.NewUser(email, "Test User", password)
	require.NoError(t, err)

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	hashed, err := hasher.Hash(password)
	require.NoError(t, err)
	user.HashedPassword = hashed
	user.Password = ""

	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func newTestUserService(users store.UserStore) *UserServiceImpl {
	svc := NewUserService(
		users,
		auth.NewBcryptHasher(bcrypt.MinCost),
		auth.NewBcryptVerifier(),
		nil,
		slog.Default(),
	)
	// No database in these tests; pass the work through without a
	// transaction.
	svc.runInTx = func(ctx context.Context, _ *sql.DB, fn store.TxFn) error {
		return fn(ctx, nil)
	}
	return svc
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seeded := seedUser(t, users, "student@example.com", "correct horse battery")
	svc := newTestUserService(users)

	got, err := svc.Authenticate(context.Background(), "student@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
}

func TestAuthenticateNormalizesEmail(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seeded := seedUser(t, users, "Alice@Example.com", "correct horse battery")
	svc := newTestUserService(users)

	// Registration stores the normalized form; login must accept whatever
	// casing and padding the user typed.
	for _, email := range []string{
		"Alice@Example.com",
		"alice@example.com",
		"  ALICE@EXAMPLE.COM  ",
	} {
		got, err := svc.Authenticate(context.Background(), email, "correct horse battery")
		require.NoError(t, err, "email %q", email)
		assert.Equal(t, seeded.ID, got.ID)
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	svc := newTestUserService(users)

	user, err := svc.Register(context.Background(), "New.Student@Example.com", "New Student", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "new.student@example.com", user.Email)
	assert.Empty(t, user.Password)
	assert.NotEmpty(t, user.HashedPassword)

	// The stored row carries only the hash.
	stored, err := users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(stored.HashedPassword), []byte("correct horse battery")))

	// The new account can log in immediately.
	_, err = svc.Authenticate(context.Background(), "new.student@example.com", "correct horse battery")
	assert.NoError(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seedUser(t, users, "student@example.com", "correct horse battery")
	svc := newTestUserService(users)

	_, err := svc.Register(context.Background(), "Student@Example.com", "Imposter", "another passphrase")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	t.Parallel()

	svc := newTestUserService(newFakeUserStore())

	_, err := svc.Register(context.Background(), "student@example.com", "Student", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}

func TestDeleteAccount(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seeded := seedUser(t, users, "student@example.com", "correct horse battery")
	svc := newTestUserService(users)

	require.NoError(t, svc.DeleteAccount(context.Background(), seeded.ID))

	_, err := users.GetByID(context.Background(), seeded.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	// Deleting again reports not found.
	err = svc.DeleteAccount(context.Background(), seeded.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seedUser(t, users, "student@example.com", "correct horse battery")
	svc := newTestUserService(users)

	// Unknown email and wrong password produce the same error so the
	// response never reveals whether an account exists.
	_, unknownErr := svc.Authenticate(context.Background(), "nobody@example.com", "correct horse battery")
	_, wrongErr := svc.Authenticate(context.Background(), "student@example.com", "wrong password!")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
}

func TestUpdateDisplayName(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seeded := seedUser(t, users, "student@example.com", "correct horse battery")
	svc := newTestUserService(users)

	updated, err := svc.UpdateDisplayName(context.Background(), seeded.ID, "New Name")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.DisplayName)

	stored, err := users.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", stored.DisplayName)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seeded := seedUser(t, users, "student@example.com", "correct horse battery")
	svc := newTestUserService(users)

	err := svc.ChangePassword(context.Background(), seeded.ID,
		"correct horse battery", "new secret phrase!")
	require.NoError(t, err)

	// The old password no longer works, the new one does.
	_, err = svc.Authenticate(context.Background(), "student@example.com", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(context.Background(), "student@example.com", "new secret phrase!")
	assert.NoError(t, err)

	// Plaintext never reaches the store.
	stored, err := users.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Password)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seeded := seedUser(t, users, "student@example.com", "correct horse battery")
	svc := newTestUserService(users)

	err := svc.ChangePassword(context.Background(), seeded.ID, "wrong password!", "new secret phrase!")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestChangePasswordRejectsWeakPassword(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	seeded := seedUser(t, users, "student@example.com", "correct horse battery")
	svc := newTestUserService(users)

	err := svc.ChangePassword(context.Background(), seeded.ID, "correct horse battery", "short")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
}
