package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testmatestudio/licensing/pkg/domain/license"
	"github.com/testmatestudio/licensing/pkg/domain/plan"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
)

func newLicense(t *testing.T, holder string) *license.License {
	t.Helper()
	p, err := plan.Default().Get(plan.TierBasic)
	require.NoError(t, err)
	lic, err := license.New(holder, p, 30)
	require.NoError(t, err)
	return lic
}

func TestLicenseCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()

	lic := newLicense(t, "user@example.com")
	require.NoError(t, repo.Create(ctx, lic))

	assert.ErrorIs(t, repo.Create(ctx, lic), shared.ErrAlreadyExists)

	got, err := repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	assert.Equal(t, lic.ID(), got.ID())

	_, err = repo.GetByID(ctx, shared.NewID())
	assert.ErrorIs(t, err, license.ErrNotFound)
}

func TestLicenseGetByHolderReturnsLatest(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()

	first := newLicense(t, "user@example.com")
	second := newLicense(t, "user@example.com")
	other := newLicense(t, "other@example.com")

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	got, err := repo.GetByHolder(ctx, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID(), got.ID(), "most recent issuance wins")

	_, err = repo.GetByHolder(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, license.ErrNotFound)
}

func TestLicenseListMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()

	first := newLicense(t, "a@example.com")
	second := newLicense(t, "b@example.com")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	licenses, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, licenses, 2)
	assert.Equal(t, second.ID(), licenses[0].ID())
	assert.Equal(t, first.ID(), licenses[1].ID())
}

func TestLicenseRevoke(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()

	lic := newLicense(t, "user@example.com")
	require.NoError(t, repo.Create(ctx, lic))

	require.NoError(t, repo.Revoke(ctx, lic.ID()))

	got, err := repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	assert.True(t, got.Revoked())
	revokedAt := got.RevokedAt()

	// Idempotent: a second revoke succeeds and keeps the original timestamp.
	require.NoError(t, repo.Revoke(ctx, lic.ID()))
	got, err = repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	assert.Equal(t, revokedAt, got.RevokedAt())

	assert.ErrorIs(t, repo.Revoke(ctx, shared.NewID()), license.ErrNotFound)
}

func TestLicenseReadsAreSnapshotsOfStoreState(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()

	lic := newLicense(t, "user@example.com")
	require.NoError(t, repo.Create(ctx, lic))

	fetched, err := repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)

	require.NoError(t, repo.Revoke(ctx, lic.ID()))

	// The earlier read must not observe the later revocation.
	assert.False(t, fetched.Revoked())

	current, err := repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	assert.True(t, current.Revoked())
}

func TestLicenseCallerMutationNotVisibleUntilUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()

	lic := newLicense(t, "user@example.com")
	require.NoError(t, repo.Create(ctx, lic))

	fetched, err := repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	originalExpiry := fetched.ExpiresAt()

	require.NoError(t, fetched.Extend(30))

	stored, err := repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	assert.Equal(t, originalExpiry, stored.ExpiresAt(), "extension leaks before Update")

	require.NoError(t, repo.Update(ctx, fetched))
	stored, err = repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	assert.Equal(t, fetched.ExpiresAt(), stored.ExpiresAt())
}

func TestLicenseConcurrentReadersAndRevoke(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()

	lic := newLicense(t, "user@example.com")
	require.NoError(t, repo.Create(ctx, lic))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.GetByID(ctx, lic.ID())
			if err != nil {
				return
			}
			_ = got.Revoked()
			_ = got.IsExpiredAt(time.Now().UTC())
			_ = got.ExpiresAt()
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = repo.Revoke(ctx, lic.ID())
	}()
	wg.Wait()

	got, err := repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	assert.True(t, got.Revoked())
}

func TestLicenseUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewLicenseRepository()

	lic := newLicense(t, "user@example.com")
	require.NoError(t, repo.Create(ctx, lic))

	require.NoError(t, lic.Extend(10))
	require.NoError(t, repo.Update(ctx, lic))

	got, err := repo.GetByID(ctx, lic.ID())
	require.NoError(t, err)
	assert.Equal(t, lic.ExpiresAt(), got.ExpiresAt())

	assert.ErrorIs(t, repo.Update(ctx, newLicense(t, "ghost@example.com")), license.ErrNotFound)
}
