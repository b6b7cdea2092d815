package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

func TestAdminCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewAdminRepository()

	identity, err := admin.NewIdentity("root", "$2a$04$not-a-real-hash")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, identity))

	assert.ErrorIs(t, repo.Create(ctx, identity), shared.ErrAlreadyExists)

	got, err := repo.GetByUsername(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, identity.ID(), got.ID())

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSessionCreateGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	session := admin.NewSession(shared.NewID(), "session-token", time.Hour)
	require.NoError(t, repo.Create(ctx, session))

	got, err := repo.GetByTokenHash(ctx, session.TokenHash())
	require.NoError(t, err)
	assert.Equal(t, session.AdminID(), got.AdminID())

	require.NoError(t, repo.Delete(ctx, session.TokenHash()))
	_, err = repo.GetByTokenHash(ctx, session.TokenHash())
	assert.ErrorIs(t, err, admin.ErrSessionNotFound)
}

func TestSessionCreateSweepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()

	// Born expired: never presented, so Authenticate will never delete it.
	abandoned := admin.NewSession(shared.NewID(), "abandoned-token", -time.Minute)
	require.NoError(t, repo.Create(ctx, abandoned))

	fresh := admin.NewSession(shared.NewID(), "fresh-token", time.Hour)
	require.NoError(t, repo.Create(ctx, fresh))

	_, err := repo.GetByTokenHash(ctx, abandoned.TokenHash())
	assert.ErrorIs(t, err, admin.ErrSessionNotFound, "expired session survives the sweep")

	got, err := repo.GetByTokenHash(ctx, fresh.TokenHash())
	require.NoError(t, err)
	assert.Equal(t, fresh.AdminID(), got.AdminID())
}
