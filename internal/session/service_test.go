package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askwhyharsh/deskfinder/internal/listing"
	"github.com/askwhyharsh/deskfinder/internal/location"
	"github.com/askwhyharsh/deskfinder/internal/storage"
	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := storage.Connect(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewService(client, 30*time.Minute), mr
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
	assert.Nil(t, got.UserLocation)

	exists, err := svc.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, apperrors.ErrInvalidSessionID)

	_, err = svc.Get(ctx, "5b0e5f0e-8f5a-4a59-9d4b-6f1c2f3a4b5c")
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSessionExpires(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "10.0.0.1")
	require.NoError(t, err)

	mr.FastForward(31 * time.Minute)

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestSetUserLocation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "10.0.0.1")
	require.NoError(t, err)

	p := location.Point{Latitude: 28.6139, Longitude: 77.2090}
	require.NoError(t, svc.SetUserLocation(ctx, created.ID, p))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.UserLocation)
	assert.Equal(t, p, *got.UserLocation)
	assert.Equal(t, "ttnfu", got.UserCell)

	err = svc.SetUserLocation(ctx, created.ID, location.Point{Latitude: 200})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)

	require.NoError(t, svc.ClearUserLocation(ctx, created.ID))
	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.UserLocation)
	assert.Empty(t, got.UserCell)
}

func TestTouchKeepsUserLocation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "10.0.0.1")
	require.NoError(t, err)
	id := created.ID
	p := location.Point{Latitude: 28.6139, Longitude: 77.2090}

	for i := 0; i < 200; i++ {
		require.NoError(t, svc.ClearUserLocation(ctx, id))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.UpdateLastSeen(ctx, id))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.SetUserLocation(ctx, id, p))
		}()
		wg.Wait()

		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got.UserLocation, "round %d", i)
		assert.Equal(t, p, *got.UserLocation)
	}

	for i := 0; i < 50; i++ {
		require.NoError(t, svc.SetUserLocation(ctx, id, p))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.UpdateLastSeen(ctx, id))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.ClearUserLocation(ctx, id))
		}()
		wg.Wait()

		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got.UserLocation, "round %d", i)
	}
}

func TestUserLocationRequiresSession(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SetUserLocation(context.Background(), "5b0e5f0e-8f5a-4a59-9d4b-6f1c2f3a4b5c", location.Point{Latitude: 1, Longitude: 2})
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestStreamsAreIndependent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "10.0.0.1")
	require.NoError(t, err)
	id := created.ID

	page, err := svc.BeginFetch(ctx, id, StreamListings)
	require.NoError(t, err)
	view, err := svc.BeginFetch(ctx, id, StreamView)
	require.NoError(t, err)

	require.NoError(t, svc.CommitListings(ctx, id, page, []listing.Listing{{ID: 1}}))

	current, err := svc.IsCurrent(ctx, id, StreamView, view)
	require.NoError(t, err)
	assert.True(t, current)

	_, err = svc.BeginFetch(ctx, id, StreamView)
	require.NoError(t, err)
	current, err = svc.IsCurrent(ctx, id, StreamView, view)
	require.NoError(t, err)
	assert.False(t, current)
}

func TestListingsEmptyBeforeFirstCommit(t *testing.T) {
	svc, _ := newTestService(t)

	created, err := svc.Create(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	listings, err := svc.Listings(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotNil(t, listings)
	assert.Empty(t, listings)
}

func TestCommitListingsLatestGenerationWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "10.0.0.1")
	require.NoError(t, err)
	id := created.ID

	older, err := svc.BeginFetch(ctx, id, StreamListings)
	require.NoError(t, err)
	newer, err := svc.BeginFetch(ctx, id, StreamListings)
	require.NoError(t, err)
	assert.Greater(t, newer, older)

	fresh := []listing.Listing{{ID: 2, Name: "fresh", Latitude: listing.Coord(1), Longitude: listing.Coord(2)}}
	stale := []listing.Listing{{ID: 1, Name: "stale"}}

	require.NoError(t, svc.CommitListings(ctx, id, newer, fresh))

	err = svc.CommitListings(ctx, id, older, stale)
	assert.ErrorIs(t, err, apperrors.ErrSuperseded)

	got, err := svc.Listings(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, fresh, got)

	current, err := svc.IsCurrent(ctx, id, StreamListings, older)
	require.NoError(t, err)
	assert.False(t, current)

	current, err = svc.IsCurrent(ctx, id, StreamListings, newer)
	require.NoError(t, err)
	assert.True(t, current)
}

func TestDeleteRemovesAllKeys(t *testing.T) {
	svc, mr := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "10.0.0.1")
	require.NoError(t, err)
	gen, err := svc.BeginFetch(ctx, created.ID, StreamListings)
	require.NoError(t, err)
	require.NoError(t, svc.CommitListings(ctx, created.ID, gen, []listing.Listing{{ID: 1}}))
	require.NoError(t, svc.SetUserLocation(ctx, created.ID, location.Point{Latitude: 1, Longitude: 2}))

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Empty(t, mr.Keys())
}
