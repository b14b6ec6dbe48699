package local

import (
	"context"
	"testing"
	"time"

	"depo-backend/internal/models"
	"depo-backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

var _ store.Backend = (*Backend)(nil)

func TestBoxRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)

	box := &models.Box{
		Code:      "BOX-000001",
		Name:      "Koli-A",
		Status:    models.BoxStatusDraft,
		CreatedBy: "ayse",
		CreatedAt: time.Now().UTC(),
		Lines:     []models.BoxLine{{ProductName: "Vida", Qty: 10}, {ProductName: "Somun", Qty: 5}},
	}
	require.NoError(t, b.InsertBox(ctx, box))
	assert.Equal(t, int64(1), box.ID)
	assert.Equal(t, int64(1), box.Lines[0].ID)
	assert.Equal(t, int64(2), box.Lines[1].ID)

	got, err := b.GetBox(ctx, "BOX-000001")
	require.NoError(t, err)
	assert.Equal(t, "Koli-A", got.Name)
	assert.Equal(t, 15, got.TotalQty())

	err = b.InsertBox(ctx, &models.Box{Code: "BOX-000001"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = b.GetBox(ctx, "BOX-999999")
	assert.ErrorIs(t, err, store.ErrNotFound)

	got.Lines = append(got.Lines, models.BoxLine{ProductName: "Pul", Qty: 1})
	require.NoError(t, b.UpdateBox(ctx, got))
	got, err = b.GetBox(ctx, "BOX-000001")
	require.NoError(t, err)
	require.Len(t, got.Lines, 3)
	assert.Equal(t, int64(3), got.Lines[2].ID)

	require.NoError(t, b.DeleteBox(ctx, "BOX-000001"))
	assert.ErrorIs(t, b.DeleteBox(ctx, "BOX-000001"), store.ErrNotFound)
}

func TestListBoxesFilters(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	palletID := int64(7)

	require.NoError(t, b.InsertBox(ctx, &models.Box{Code: "BOX-000001", Name: "Koli-A", CreatedBy: "ayse", CreatedAt: base}))
	require.NoError(t, b.InsertBox(ctx, &models.Box{Code: "BOX-000002", Name: "Koli-B", CreatedBy: "mehmet", CreatedAt: base.Add(time.Minute), PalletID: &palletID}))
	require.NoError(t, b.InsertBox(ctx, &models.Box{Code: "BOX-000003", Name: "Yedek", CreatedBy: "ayse", CreatedAt: base.Add(2 * time.Minute)}))

	all, err := b.ListBoxes(ctx, models.BoxFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "BOX-000003", all[0].Code)

	mine, err := b.ListBoxes(ctx, models.BoxFilter{CreatedBy: "ayse"})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	loose, err := b.ListBoxes(ctx, models.BoxFilter{Unpalletized: true})
	require.NoError(t, err)
	assert.Len(t, loose, 2)

	onPallet, err := b.ListBoxes(ctx, models.BoxFilter{PalletID: &palletID})
	require.NoError(t, err)
	require.Len(t, onPallet, 1)
	assert.Equal(t, "BOX-000002", onPallet[0].Code)

	found, err := b.ListBoxes(ctx, models.BoxFilter{Search: "koli"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestPalletAndShipmentReferences(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)

	s := &models.Shipment{Code: "SHP-000001", NameOrPlate: "34 ABC 123", CreatedAt: time.Now()}
	require.NoError(t, b.InsertShipment(ctx, s))
	p := &models.Pallet{Code: "PLT-000001", Name: "Palet-1", CreatedAt: time.Now()}
	require.NoError(t, b.InsertPallet(ctx, p))

	require.NoError(t, b.SetPalletShipment(ctx, p.Code, &s.ID))
	assigned, err := b.ListPallets(ctx, models.PalletFilter{ShipmentID: &s.ID})
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	byID, err := b.GetPalletByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Palet-1", byID.Name)

	require.NoError(t, b.SetPalletShipment(ctx, p.Code, nil))
	unassigned, err := b.ListPallets(ctx, models.PalletFilter{Unassigned: true})
	require.NoError(t, err)
	assert.Len(t, unassigned, 1)

	assert.ErrorIs(t, b.SetPalletShipment(ctx, "PLT-404", nil), store.ErrNotFound)
}

func TestNextSequencePerKind(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)

	for want := int64(1); want <= 3; want++ {
		n, err := b.NextSequence(ctx, "box")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}
	n, err := b.NextSequence(ctx, "pallet")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNextSequenceNeverBelowStoredCodes(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)

	for _, code := range []string{"BOX-000007", "BOX-L000009", "BOX-000003"} {
		require.NoError(t, b.InsertBox(ctx, &models.Box{Code: code, Name: code}))
	}
	n, err := b.NextSequence(ctx, "box")
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	n, err = b.NextSequence(ctx, "box")
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)

	n, err = b.NextSequence(ctx, "shipment")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSessionsAndLogs(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := now.Add(-time.Hour)
	require.NoError(t, b.UpsertSession(ctx, &models.ActiveSession{UserID: 1, Username: "ayse", LastActivity: first, CreatedAt: first}))
	require.NoError(t, b.UpsertSession(ctx, &models.ActiveSession{UserID: 1, Username: "ayse", LastActivity: now, CreatedAt: now}))
	require.NoError(t, b.UpsertSession(ctx, &models.ActiveSession{UserID: 2, Username: "mehmet", LastActivity: now.Add(-20 * time.Minute)}))

	active, err := b.ListSessionsSince(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.True(t, first.Equal(active[0].CreatedAt))

	page := "/boxes"
	require.NoError(t, b.TouchSession(ctx, 2, now, &page, nil))
	assert.ErrorIs(t, b.TouchSession(ctx, 99, now, nil, nil), store.ErrNotFound)

	removed, err := b.DeleteSessionsBefore(ctx, now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, removed)

	require.NoError(t, b.DeleteSession(ctx, 1))
	active, err = b.ListSessionsSince(ctx, now.Add(-5*time.Minute))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "/boxes", *active[0].CurrentPage)

	for _, l := range []models.LoginLog{
		{Username: "ayse", Action: models.ActionLogin, CreatedAt: now.Add(-time.Hour)},
		{Username: "ayse", Action: models.ActionLogin, CreatedAt: now.Add(-30 * time.Minute)},
		{Username: "mehmet", Action: models.ActionFailedLogin, CreatedAt: now.Add(-10 * time.Minute)},
		{Username: "eski", Action: models.ActionLogin, CreatedAt: now.Add(-48 * time.Hour)},
	} {
		l := l
		require.NoError(t, b.InsertLoginLog(ctx, &l))
	}

	stats, err := b.LoginStatsSince(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalLogins24h)
	assert.Equal(t, 1, stats.UniqueUsers24h)
	assert.Equal(t, 1, stats.FailedLogins24h)

	logs, err := b.ListLoginLogs(ctx, models.LoginLogFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionFailedLogin, logs[0].Action)

	trimmed, err := b.DeleteLoginLogsBefore(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), trimmed)
}

func TestUsersAndSettings(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)

	d := &models.Department{Name: "Depo"}
	require.NoError(t, b.InsertDepartment(ctx, d))
	u := &models.User{Username: "ayse", Name: "Ayşe", Role: models.RoleUser, DepartmentID: &d.ID, IsActive: true}
	require.NoError(t, b.InsertUser(ctx, u))
	assert.ErrorIs(t, b.InsertUser(ctx, &models.User{Username: "ayse"}), store.ErrConflict)

	got, err := b.GetUserByUsername(ctx, "ayse")
	require.NoError(t, err)
	assert.Equal(t, "Depo", got.DepartmentName)

	lock, err := b.GetSiteLockdown(ctx)
	require.NoError(t, err)
	assert.False(t, lock.IsLocked)
	assert.Equal(t, models.SingletonID, lock.ID)

	require.NoError(t, b.SaveSiteLockdown(ctx, &models.SiteLockdown{IsLocked: true, Message: "Bakım"}))
	lock, err = b.GetSiteLockdown(ctx)
	require.NoError(t, err)
	assert.True(t, lock.IsLocked)

	ban, err := b.GetBanSettings(ctx)
	require.NoError(t, err)
	assert.Empty(t, ban.BannedUsernames)
}

func TestUserPasswordHashIsStored(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)

	u := &models.User{Username: "ayse", Name: "Ayşe", PasswordHash: "$2a$10$hash", IsActive: true}
	require.NoError(t, b.InsertUser(ctx, u))

	got, err := b.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)

	require.NoError(t, b.UpdateUser(ctx, &models.User{ID: u.ID, Name: "Ayşe Y", IsActive: true}))
	got, err = b.GetUserByUsername(ctx, "ayse")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", got.PasswordHash)
	assert.Equal(t, "Ayşe Y", got.Name)
}

func TestPutUserKeepsRemoteIdentity(t *testing.T) {
	ctx := context.Background()
	b := openTest(t)

	dept := &models.Department{ID: 40, Name: "Soğuk Oda"}
	require.NoError(t, b.PutDepartment(ctx, dept))
	remote := &models.User{ID: 17, Username: "mehmet", Name: "Mehmet", PasswordHash: "h1",
		Role: models.RoleAdmin, DepartmentID: &dept.ID, IsActive: true}
	require.NoError(t, b.PutUser(ctx, remote))
	require.NoError(t, b.PutUser(ctx, remote))

	got, err := b.GetUserByID(ctx, 17)
	require.NoError(t, err)
	assert.Equal(t, "mehmet", got.Username)
	assert.Equal(t, "h1", got.PasswordHash)
	assert.Equal(t, "Soğuk Oda", got.DepartmentName)

	// Same username under a new remote ID replaces the stale copy.
	require.NoError(t, b.PutUser(ctx, &models.User{ID: 18, Username: "mehmet", Name: "Mehmet", PasswordHash: "h2"}))
	all, err := b.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(18), all[0].ID)

	require.NoError(t, b.DropUser(ctx, 18))
	require.NoError(t, b.DropUser(ctx, 18))
	_, err = b.GetUserByID(ctx, 18)
	assert.ErrorIs(t, err, store.ErrNotFound)

	depts, err := b.ListDepartments(ctx)
	require.NoError(t, err)
	require.Len(t, depts, 1)
	assert.Equal(t, int64(40), depts[0].ID)
}
