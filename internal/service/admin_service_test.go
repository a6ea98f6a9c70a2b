package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/campushub/campushub-api/internal/dto"
	"github.com/campushub/campushub-api/internal/models"
)

func newTestAdminService(repo *stubUserRepo) AdminService {
	return NewAdminService(repo, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func seedUser(t *testing.T, repo *stubUserRepo, role models.Role) models.User {
	t.Helper()
	user := models.User{
		Name:       "Seeded " + string(role),
		Email:      string(role) + "@campus.test",
		RollNumber: "RN-" + string(role),
		Role:       role,
	}
	require.NoError(t, repo.Create(context.Background(), &user))
	return user
}

func TestAdminSuspensionToggle(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAdminService(repo)
	admin := seedUser(t, repo, models.RoleAdmin)
	student := seedUser(t, repo, models.RoleStudent)

	response, err := svc.ToggleSuspension(context.Background(), admin, student.ID)
	require.NoError(t, err)
	require.True(t, response.Suspended)

	response, err = svc.ToggleSuspension(context.Background(), admin, student.ID)
	require.NoError(t, err)
	require.False(t, response.Suspended)
}

func TestAdminCannotActOnPeerOrAbove(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAdminService(repo)
	admin := seedUser(t, repo, models.RoleAdmin)
	otherAdmin := seedUser(t, repo, models.RoleStudent)
	otherAdmin.Role = models.RoleAdmin
	repo.users[otherAdmin.ID] = otherAdmin
	superAdmin := seedUser(t, repo, models.RoleSuperAdmin)

	_, err := svc.ToggleSuspension(context.Background(), admin, otherAdmin.ID)
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.DeleteUser(context.Background(), admin, superAdmin.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSuperAdminIsImmune(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAdminService(repo)
	superAdmin := seedUser(t, repo, models.RoleSuperAdmin)

	other := models.User{Name: "Root Two", Email: "root2@campus.test", RollNumber: "RN-root2", Role: models.RoleSuperAdmin}
	require.NoError(t, repo.Create(context.Background(), &other))

	// Not even a super admin can suspend or delete another super admin.
	_, err := svc.ToggleSuspension(context.Background(), superAdmin, other.ID)
	require.ErrorIs(t, err, ErrForbidden)

	err = svc.DeleteUser(context.Background(), superAdmin, other.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestSuperAdminManagesAdmins(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAdminService(repo)
	superAdmin := seedUser(t, repo, models.RoleSuperAdmin)
	admin := seedUser(t, repo, models.RoleAdmin)

	response, err := svc.ToggleSuspension(context.Background(), superAdmin, admin.ID)
	require.NoError(t, err)
	require.True(t, response.Suspended)

	require.NoError(t, svc.DeleteUser(context.Background(), superAdmin, admin.ID))
	_, err = repo.GetByID(context.Background(), admin.ID)
	require.Error(t, err)
}

func TestStudentCannotAdminister(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAdminService(repo)
	student := seedUser(t, repo, models.RoleStudent)
	victim := models.User{Name: "Victim", Email: "victim@campus.test", RollNumber: "RN-victim", Role: models.RoleStudent}
	require.NoError(t, repo.Create(context.Background(), &victim))

	_, err := svc.ToggleSuspension(context.Background(), student, victim.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListUsers(context.Background(), student, 0, 0)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCreateReviewerRequiresSuperAdmin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAdminService(repo)
	superAdmin := seedUser(t, repo, models.RoleSuperAdmin)
	admin := seedUser(t, repo, models.RoleAdmin)

	payload := dto.CreateReviewerRequest{
		Name:       "New Reviewer",
		Email:      "reviewer@campus.test",
		RollNumber: "RN-rev-01",
		Password:   "long enough secret",
	}

	_, err := svc.CreateReviewer(context.Background(), admin, payload)
	require.ErrorIs(t, err, ErrForbidden)

	created, err := svc.CreateReviewer(context.Background(), superAdmin, payload)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, created.Role)

	_, err = svc.CreateReviewer(context.Background(), superAdmin, payload)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestToggleSuspensionUnknownTarget(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAdminService(repo)
	admin := seedUser(t, repo, models.RoleAdmin)

	_, err := svc.ToggleSuspension(context.Background(), admin, 404)
	require.ErrorIs(t, err, ErrNotFound)
}
