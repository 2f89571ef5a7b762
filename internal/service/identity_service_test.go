package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdeck/support-portal/internal/auth"
	"github.com/opsdeck/support-portal/internal/domain"
)

func newIdentityFixture() (*IdentityService, *mockUserRepo, *mockRoleRepo, *mockOrgRepo) {
	users := new(mockUserRepo)
	roles := new(mockRoleRepo)
	orgs := new(mockOrgRepo)
	svc := NewIdentityService(IdentityDependencies{
		UserRepo:   users,
		RoleRepo:   roles,
		OrgRepo:    orgs,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, users, roles, orgs
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a hash the login check accepts", func(t *testing.T) {
		svc, users, _, _ := newIdentityFixture()
		users.On("GetByID", ctx, "u1").Return(&domain.User{ID: "u1", IsActive: true}, nil)

		var saved *domain.User
		users.On("Update", ctx, mock.AnythingOfType("*domain.User")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*domain.User)
			}).Return(nil)

		require.NoError(t, svc.SetPassword(ctx, "u1", "correct-horse-battery"))
		require.NotNil(t, saved)
		require.NotNil(t, saved.PasswordHash)
		assert.NotEqual(t, "correct-horse-battery", *saved.PasswordHash)
		assert.NoError(t, auth.ComparePassword(*saved.PasswordHash, "correct-horse-battery"))
	})

	t.Run("short passwords are rejected before any lookup", func(t *testing.T) {
		svc, users, _, _ := newIdentityFixture()
		err := svc.SetPassword(ctx, "u1", "short")
		assertCode(t, err, "VALIDATION_FAILED")
		users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("disabled accounts get no credential", func(t *testing.T) {
		svc, users, _, _ := newIdentityFixture()
		users.On("GetByID", ctx, "u1").Return(&domain.User{ID: "u1", IsActive: false}, nil)

		err := svc.SetPassword(ctx, "u1", "correct-horse-battery")
		assertCode(t, err, "VALIDATION_FAILED")
		users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown user maps to not found", func(t *testing.T) {
		svc, users, _, _ := newIdentityFixture()
		users.On("GetByID", ctx, "ghost").Return(nil, pgx.ErrNoRows)

		err := svc.SetPassword(ctx, "ghost", "correct-horse-battery")
		assertCode(t, err, "NOT_FOUND")
	})
}

func TestListStaff(t *testing.T) {
	ctx := context.Background()
	svc, _, roles, _ := newIdentityFixture()

	// The picker only offers roles Assign accepts, so ops stays out.
	roles.On("ListUsersWithRoles", ctx, []domain.Role{domain.RoleSupport, domain.RoleAdmin}).
		Return([]domain.User{{ID: "support-1"}, {ID: "admin-1"}}, nil)

	users, err := svc.ListStaff(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	roles.AssertExpectations(t)
}
