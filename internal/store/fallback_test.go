package store_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"depo-backend/internal/models"
	"depo-backend/internal/store"
	"depo-backend/internal/store/local"
	"depo-backend/internal/store/storetest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

// downRemote fails every call it overrides. Calls it does not override
// panic through the nil embedded Backend.
type downRemote struct {
	store.Backend
	calls   int
	missing bool
}

func (d *downRemote) Name() string { return "down" }

func (d *downRemote) Ping(context.Context) error { return errDown }

func (d *downRemote) ListBoxes(context.Context, models.BoxFilter) ([]*models.Box, error) {
	d.calls++
	return nil, errDown
}

func (d *downRemote) GetBox(context.Context, string) (*models.Box, error) {
	d.calls++
	if d.missing {
		return nil, store.ErrNotFound
	}
	return nil, errDown
}

func (d *downRemote) InsertBox(context.Context, *models.Box) error {
	d.calls++
	return errDown
}

func (d *downRemote) InsertUser(context.Context, *models.User) error {
	d.calls++
	return errDown
}

func (d *downRemote) SaveBanSettings(context.Context, *models.BanSettings) error {
	d.calls++
	return errDown
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newFallback(t *testing.T, remote *downRemote) (*store.Fallback, *local.Backend) {
	t.Helper()
	return newFallbackOver(t, remote)
}

func TestFallbackServesFromLocalWhenRemoteFails(t *testing.T) {
	ctx := context.Background()
	remote := &downRemote{}
	f, _ := newFallback(t, remote)

	box := &models.Box{Code: "BOX-000001", Name: "Koli-A", CreatedAt: time.Now()}
	require.NoError(t, f.InsertBox(ctx, box))

	got, err := f.GetBox(ctx, "BOX-000001")
	require.NoError(t, err)
	assert.Equal(t, "Koli-A", got.Name)

	list, err := f.ListBoxes(ctx, models.BoxFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 3, remote.calls)
}

func TestFallbackTrustsRemoteNotFound(t *testing.T) {
	ctx := context.Background()
	remote := &downRemote{missing: true}
	f, lb := newFallback(t, remote)

	require.NoError(t, lb.InsertBox(ctx, &models.Box{Code: "BOX-000001"}))

	_, err := f.GetBox(ctx, "BOX-000001")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFallbackStrictWritesDoNotDegrade(t *testing.T) {
	ctx := context.Background()
	remote := &downRemote{}
	f, lb := newFallback(t, remote)

	err := f.InsertUser(ctx, &models.User{Username: "ayse", Name: "Ayşe", PasswordHash: "x"})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	_, err = lb.GetUserByUsername(ctx, "ayse")
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = f.SaveBanSettings(ctx, &models.BanSettings{IsActive: true, BannedUsernames: []string{"ali"}})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	ban, err := lb.GetBanSettings(ctx)
	require.NoError(t, err)
	assert.False(t, ban.IsActive)
}

func TestFallbackCooldownSkipsRemote(t *testing.T) {
	ctx := context.Background()
	remote := &downRemote{}
	f, _ := newFallback(t, remote)
	f.Cooldown = time.Hour

	_, err := f.ListBoxes(ctx, models.BoxFilter{})
	require.NoError(t, err)
	assert.False(t, f.RemoteHealthy())

	_, err = f.ListBoxes(ctx, models.BoxFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)
}

func TestFallbackPingUsesLocal(t *testing.T) {
	f, _ := newFallback(t, &downRemote{})
	assert.NoError(t, f.Ping(context.Background()))
}

// newFlakyFallback pairs a working remote that can be switched off with a
// separate local store.
func newFlakyFallback(t *testing.T) (*store.Fallback, *storetest.Flaky, *local.Backend) {
	t.Helper()
	rb, err := local.Open(local.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rb.Close() })
	remote := storetest.NewFlaky(rb)
	f, lb := newFallbackOver(t, remote)
	return f, remote, lb
}

func newFallbackOver(t *testing.T, remote store.Backend) (*store.Fallback, *local.Backend) {
	t.Helper()
	lb, err := local.Open(local.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = lb.Close() })
	return store.NewFallback(remote, lb, quietLog()), lb
}

func TestFallbackUsersSurviveOutage(t *testing.T) {
	ctx := context.Background()
	f, remote, _ := newFlakyFallback(t)

	dept := &models.Department{Name: "Depo", CreatedAt: time.Now()}
	require.NoError(t, f.InsertDepartment(ctx, dept))
	u := &models.User{Username: "ayse", Name: "Ayşe", PasswordHash: "h1", Role: models.RoleUser,
		DepartmentID: &dept.ID, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, f.InsertUser(ctx, u))

	// An update without a hash keeps the old one on both sides.
	require.NoError(t, f.UpdateUser(ctx, &models.User{ID: u.ID, Name: "Ayşe Y", Role: models.RoleAdmin,
		DepartmentID: &dept.ID, IsActive: true}))
	require.NoError(t, f.SaveBanSettings(ctx, &models.BanSettings{IsActive: true, BannedUsernames: []string{"ali"}}))

	remote.SetDown(true)

	got, err := f.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ayse", got.Username)
	assert.Equal(t, "Ayşe Y", got.Name)
	assert.Equal(t, models.RoleAdmin, got.Role)
	assert.Equal(t, "h1", got.PasswordHash)
	assert.Equal(t, "Depo", got.DepartmentName)

	byName, err := f.GetUserByUsername(ctx, "ayse")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	ban, err := f.GetBanSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ali"}, ban.BannedUsernames)
}

func TestFallbackCopiesUsersReadFromRemote(t *testing.T) {
	ctx := context.Background()
	rb, err := local.Open(local.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rb.Close() })

	// Accounts created before this process started only exist remotely.
	existing := &models.User{Username: "mehmet", Name: "Mehmet", PasswordHash: "h", IsActive: true}
	require.NoError(t, rb.InsertUser(ctx, existing))
	gone := &models.User{Username: "eski", Name: "Eski", PasswordHash: "h", IsActive: true}
	require.NoError(t, rb.InsertUser(ctx, gone))

	remote := storetest.NewFlaky(rb)
	f, lb := newFallbackOver(t, remote)

	_, err = f.GetUserByUsername(ctx, "mehmet")
	require.NoError(t, err)
	_, err = f.GetUserByID(ctx, gone.ID)
	require.NoError(t, err)
	_, err = lb.GetUserByID(ctx, gone.ID)
	require.NoError(t, err)

	require.NoError(t, rb.DeleteUser(ctx, gone.ID))
	_, err = f.GetUserByID(ctx, gone.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	remote.SetDown(true)
	got, err := f.GetUserByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "mehmet", got.Username)
	_, err = f.GetUserByID(ctx, gone.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFallbackDeleteUserDropsLocalCopy(t *testing.T) {
	ctx := context.Background()
	f, remote, lb := newFlakyFallback(t)

	u := &models.User{Username: "ayse", Name: "Ayşe", PasswordHash: "h", IsActive: true}
	require.NoError(t, f.InsertUser(ctx, u))
	require.NoError(t, f.DeleteUser(ctx, u.ID))

	remote.SetDown(true)
	_, err := lb.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFallbackReportsDegradedSequence(t *testing.T) {
	ctx := context.Background()
	f, remote, _ := newFlakyFallback(t)

	n, degraded, err := f.NextSequenceDegraded(ctx, "box")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, degraded)

	remote.SetDown(true)
	n, degraded, err = f.NextSequenceDegraded(ctx, "box")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, degraded)
}

func TestIsAuthoritative(t *testing.T) {
	assert.True(t, store.IsAuthoritative(store.ErrNotFound))
	assert.True(t, store.IsAuthoritative(errors.Join(errors.New("box"), store.ErrConflict)))
	assert.False(t, store.IsAuthoritative(errDown))
	assert.False(t, store.IsAuthoritative(store.ErrUnavailable))
}
