package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gin-user-service/internal/domain"
)

func TestMemoryUserRepo(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUserRepo()

	a, err := r.Create(ctx, &domain.User{Email: "a@b.c", Password: "x", Name: domain.Name{FirstName: "A", LastName: "B"}})
	require.NoError(t, err)
	assert.True(t, domain.IsValidID(a.ID))

	_, err = r.Create(ctx, &domain.User{Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	b, err := r.Create(ctx, &domain.User{Email: "d@e.f"})
	require.NoError(t, err)

	all, err := r.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	taken := "d@e.f"
	_, err = r.UpdateByID(ctx, a.ID, domain.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	own := "a@b.c"
	pw := "verbatim"
	u, err := r.UpdateByID(ctx, a.ID, domain.UserPatch{Email: &own, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, "verbatim", u.Password)
	assert.Equal(t, "A", u.Name.FirstName)

	u.Name.FirstName = "mutated"
	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name.FirstName, "returned records are copies")

	del, err := r.DeleteByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "d@e.f", del.Email)

	_, err = r.DeleteByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.FindByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.UpdateByID(ctx, b.ID, domain.UserPatch{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, r.Ping(ctx))
}
