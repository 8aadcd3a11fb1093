package auth_test

import (
	"context"
	"testing"

	"github.com/gestionale-crm/crm-api/internal/auth"
	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerFilter(t *testing.T) {
	sales := &auth.CurrentUser{ID: uuid.New(), Role: domain.UserRoleSales}
	require.NotNil(t, sales.OwnerFilter())
	assert.Equal(t, sales.ID, *sales.OwnerFilter())

	assert.Nil(t, (&auth.CurrentUser{ID: uuid.New(), Role: domain.UserRoleOwner}).OwnerFilter())
	assert.Nil(t, (&auth.CurrentUser{ID: uuid.New(), Role: domain.UserRoleManager}).OwnerFilter())

	assert.Nil(t, auth.EffectiveOwnerFilter(context.Background()))
	ctx := auth.WithUser(context.Background(), sales)
	assert.Equal(t, sales.ID, *auth.EffectiveOwnerFilter(ctx))
}

func TestSessionProviders(t *testing.T) {
	fixed := auth.CurrentUser{ID: uuid.New(), Email: "test@example.com", Role: domain.UserRoleSales}
	static := auth.NewStaticSessionProvider(fixed)

	u, err := static.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixed.ID, u.ID)
	u.Email = "changed"
	again, _ := static.CurrentUser(context.Background())
	assert.Equal(t, "test@example.com", again.Email)

	var fromCtx auth.ContextSessionProvider
	_, err = fromCtx.CurrentUser(context.Background())
	assert.ErrorIs(t, err, auth.ErrNoSession)

	u, err = fromCtx.CurrentUser(auth.WithUser(context.Background(), &fixed))
	require.NoError(t, err)
	assert.Equal(t, fixed.ID, u.ID)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Mario Rossi", (&auth.CurrentUser{FirstName: "Mario", LastName: "Rossi"}).DisplayName())
	assert.Equal(t, "m@r.it", (&auth.CurrentUser{Email: "m@r.it"}).DisplayName())
}
