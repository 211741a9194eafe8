package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/mentora-service/internal/models"
	"github.com/SAP-F-2025/mentora-service/internal/repositories"
	"github.com/SAP-F-2025/mentora-service/internal/validator"
)

func registerRequest(username, email, role string, interests ...string) *RegisterRequest {
	return &RegisterRequest{
		Username:  username,
		Email:     email,
		Password:  "correct-horse",
		FullName:  "Test " + username,
		Role:      role,
		Interests: interests,
	}
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.users.Register(ctx, registerRequest("grace", "Grace@Example.com", "teacher", "go", "go", "compilers"))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	require.NotNil(t, resp.User)
	assert.Equal(t, "grace@example.com", resp.User.Email)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)
	assert.Equal(t, []string{"go", "compilers"}, []string(resp.User.Interests))

	caller, err := env.tokens.Resolve(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, caller.UserID)
	assert.Equal(t, models.RoleTeacher, caller.Role)

	byName, err := env.users.Login(ctx, &LoginRequest{Login: "grace", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, byName.User.ID)

	byEmail, err := env.users.Login(ctx, &LoginRequest{Login: "GRACE@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, byEmail.User.ID)

	_, err = env.users.Login(ctx, &LoginRequest{Login: "grace", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.users.Login(ctx, &LoginRequest{Login: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	interests, err := env.users.ListInterests(ctx)
	require.NoError(t, err)
	assert.Len(t, interests, 2)
}

func TestUserService_RegisterConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerRequest("alan", "alan@example.com", "student"))
	require.NoError(t, err)

	_, err = env.users.Register(ctx, registerRequest("alan", "other@example.com", "student"))
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = env.users.Register(ctx, registerRequest("alan2", "ALAN@example.com", "student"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.users.Register(ctx, registerRequest("x", "bad-email", "admin"))
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.GreaterOrEqual(t, len(verrs), 3)
}

// racedRegistrations hides existing users from the checks made inside a transaction,
// as if a concurrent registration committed between the check and the insert.
type racedRegistrations struct{ repositories.Repository }

func (r racedRegistrations) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.Repository.WithTransaction(ctx, func(tx repositories.Repository) error {
		return fn(blindUserChecks{tx})
	})
}

type blindUserChecks struct{ repositories.Repository }

func (r blindUserChecks) User() repositories.UserRepository {
	return blindUsers{r.Repository.User()}
}

type blindUsers struct{ repositories.UserRepository }

func (blindUsers) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }
func (blindUsers) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }

func TestUserService_RegisterRaceReportsConflictingField(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, registerRequest("alan", "alan@example.com", "student"))
	require.NoError(t, err)

	users := NewUserService(racedRegistrations{env.repo}, env.cache, env.tokens, env.logger, validator.New())

	_, err = users.Register(ctx, registerRequest("alan2", "alan@example.com", "student"))
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = users.Register(ctx, registerRequest("alan", "new@example.com", "student"))
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = users.Register(ctx, registerRequest("fresh", "fresh@example.com", "student"))
	assert.NoError(t, err)
}

func TestUserService_UpdateInterests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.newUser(t, models.RoleStudent, "old")

	profile, err := env.users.GetProfile(ctx, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, []string(profile.Interests))

	updated, err := env.users.UpdateInterests(ctx, student.UserID, &UpdateInterestsRequest{Interests: []string{"ml", " ml ", "stats"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ml", "stats"}, []string(updated.Interests))

	// The cached profile was dropped on write
	profile, err = env.users.GetProfile(ctx, student.UserID)
	require.NoError(t, err)
	assert.Equal(t, []string{"ml", "stats"}, []string(profile.Interests))

	_, err = env.users.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_LoginDisabledWithoutIssuer(t *testing.T) {
	env := newTestEnv(t)
	users := NewUserService(env.repo, env.cache, nil, env.logger, nil)

	_, err := users.Login(context.Background(), &LoginRequest{Login: "a", Password: "b"})
	assert.ErrorIs(t, err, ErrLocalAuthDisabled)
}
