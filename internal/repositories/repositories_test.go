package repositories

import (
	"context"
	"io"
	"testing"
	"time"

	"depo-backend/internal/codegen"
	"depo-backend/internal/models"
	"depo-backend/internal/store"
	"depo-backend/internal/store/local"
	"depo-backend/internal/store/storetest"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = models.Actor{UserID: 1, Username: "admin", Role: models.RoleAdmin}
	ayse  = models.Actor{UserID: 2, Username: "ayse", Role: models.RoleUser}
	ali   = models.Actor{UserID: 3, Username: "ali", Role: models.RoleUser}
)

type repos struct {
	store     store.Backend
	boxes     *BoxRepository
	pallets   *PalletRepository
	shipments *ShipmentRepository
}

func openLocal(t *testing.T) *local.Backend {
	t.Helper()
	b, err := local.Open(local.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newRepos(t *testing.T) repos {
	t.Helper()
	return newReposOver(openLocal(t))
}

// newFlakyRepos runs the repositories over a fallback whose remote can be
// switched off. It returns the local side for direct inspection.
func newFlakyRepos(t *testing.T) (repos, *storetest.Flaky, *local.Backend) {
	t.Helper()
	remote := storetest.NewFlaky(openLocal(t))
	lb := openLocal(t)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return newReposOver(store.NewFallback(remote, lb, logrus.NewEntry(log))), remote, lb
}

func newReposOver(b store.Backend) repos {
	codes := codegen.New(b)
	tick := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	r := repos{
		store:     b,
		boxes:     NewBoxRepository(b, codes),
		pallets:   NewPalletRepository(b, codes),
		shipments: NewShipmentRepository(b, codes),
	}
	r.boxes.Clock, r.pallets.Clock, r.shipments.Clock = clock, clock, clock
	return r
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	box, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{
		Name:  "Koli-A",
		Lines: []models.BoxLineInput{{ProductName: "Vida", Qty: 100}},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^BOX-\d{6}$`, box.Code)
	assert.Equal(t, "ayse", box.CreatedBy)
	assert.Equal(t, models.BoxStatusDraft, box.Status)

	got, err := r.boxes.GetByCode(ctx, box.Code)
	require.NoError(t, err)
	assert.Equal(t, box.Name, got.Name)
	assert.Equal(t, box.CreatedBy, got.CreatedBy)
	assert.Equal(t, 100, got.TotalQty())

	_, err = r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "  "})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestPalletScenario(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	box, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "Koli-A"})
	require.NoError(t, err)
	pallet, err := r.pallets.Create(ctx, ayse, models.CreatePalletRequest{Name: "Palet-1"})
	require.NoError(t, err)
	assert.Regexp(t, `^PLT-\d{6}$`, pallet.Code)

	_, err = r.boxes.AssignToParent(ctx, ayse, box.Code, pallet.Code)
	require.NoError(t, err)

	withBoxes, err := r.pallets.GetByCodeWithChildren(ctx, pallet.Code)
	require.NoError(t, err)
	require.Len(t, withBoxes.Boxes, 1)
	assert.Equal(t, "Koli-A", withBoxes.Boxes[0].Name)

	loose, err := r.boxes.List(ctx, ayse, models.BoxFilter{Unpalletized: true})
	require.NoError(t, err)
	assert.Empty(t, loose)

	require.NoError(t, r.pallets.Delete(ctx, ayse, pallet.Code))

	got, err := r.boxes.GetByCode(ctx, box.Code)
	require.NoError(t, err)
	assert.Nil(t, got.PalletID)
	_, err = r.pallets.GetByCode(ctx, pallet.Code)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestShipmentDeleteUnlinksChildren(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	shipment, err := r.shipments.Create(ctx, admin, models.CreateShipmentRequest{NameOrPlate: "34 ABC 123"})
	require.NoError(t, err)
	pallet, err := r.pallets.Create(ctx, admin, models.CreatePalletRequest{Name: "Palet-1"})
	require.NoError(t, err)
	onPallet, err := r.boxes.Create(ctx, admin, models.CreateBoxRequest{Name: "Koli-A"})
	require.NoError(t, err)
	direct, err := r.boxes.Create(ctx, admin, models.CreateBoxRequest{Name: "Koli-B"})
	require.NoError(t, err)

	_, err = r.boxes.AssignToPallet(ctx, admin, onPallet.Code, pallet.Code)
	require.NoError(t, err)
	_, err = r.pallets.AssignToParent(ctx, admin, pallet.Code, shipment.Code)
	require.NoError(t, err)
	_, err = r.boxes.AssignToParent(ctx, admin, direct.Code, shipment.Code)
	require.NoError(t, err)

	full, err := r.shipments.GetByCodeWithChildren(ctx, shipment.Code)
	require.NoError(t, err)
	assert.Len(t, full.Pallets, 1)
	require.Len(t, full.DirectBoxes, 1)
	assert.Equal(t, direct.Code, full.DirectBoxes[0].Code)

	require.NoError(t, r.shipments.Delete(ctx, admin, shipment.Code))

	p, err := r.pallets.GetByCode(ctx, pallet.Code)
	require.NoError(t, err)
	assert.Nil(t, p.ShipmentID)

	b, err := r.boxes.GetByCode(ctx, direct.Code)
	require.NoError(t, err)
	assert.False(t, b.IsDirectShipment)
	assert.Nil(t, b.ShipmentID)

	b, err = r.boxes.GetByCode(ctx, onPallet.Code)
	require.NoError(t, err)
	require.NotNil(t, b.PalletID)
	assert.Equal(t, pallet.ID, *b.PalletID)
}

func TestNamedParentOperations(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	box, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "Koli-A"})
	require.NoError(t, err)
	pallet, err := r.pallets.Create(ctx, ayse, models.CreatePalletRequest{Name: "Palet-1"})
	require.NoError(t, err)
	shipment, err := r.shipments.Create(ctx, ayse, models.CreateShipmentRequest{NameOrPlate: "06 XY 42"})
	require.NoError(t, err)
	_, err = r.boxes.AssignToPallet(ctx, ayse, box.Code, pallet.Code)
	require.NoError(t, err)

	p, err := r.pallets.AssignToShipment(ctx, ayse, pallet.Code, shipment.Code)
	require.NoError(t, err)
	require.NotNil(t, p.ShipmentID)
	assert.Equal(t, shipment.ID, *p.ShipmentID)

	withBoxes, err := r.pallets.GetByCodeWithBoxes(ctx, pallet.Code)
	require.NoError(t, err)
	require.Len(t, withBoxes.Boxes, 1)
	assert.Equal(t, box.Code, withBoxes.Boxes[0].Code)

	withPallets, err := r.shipments.GetByCodeWithPallets(ctx, shipment.Code)
	require.NoError(t, err)
	require.Len(t, withPallets.Pallets, 1)
	assert.Equal(t, pallet.Code, withPallets.Pallets[0].Code)

	p, err = r.pallets.ClearShipment(ctx, ayse, pallet.Code)
	require.NoError(t, err)
	assert.Nil(t, p.ShipmentID)
	stored, err := r.pallets.GetByCode(ctx, pallet.Code)
	require.NoError(t, err)
	assert.Nil(t, stored.ShipmentID)
}

func TestOutageCodesDoNotReuseRemoteCodes(t *testing.T) {
	ctx := context.Background()
	r, remote, lb := newFlakyRepos(t)

	before, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "Remote box"})
	require.NoError(t, err)
	assert.Equal(t, "BOX-000001", before.Code)

	remote.SetDown(true)
	during, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "Outage box"})
	require.NoError(t, err)
	assert.NotEqual(t, before.Code, during.Code)
	assert.Regexp(t, `^BOX-L\d{6}$`, during.Code)
	stored, err := lb.GetBox(ctx, during.Code)
	require.NoError(t, err)
	assert.Equal(t, "Outage box", stored.Name)

	remote.SetDown(false)
	got, err := r.boxes.GetByCode(ctx, before.Code)
	require.NoError(t, err)
	assert.Equal(t, "Remote box", got.Name)

	after, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "After box"})
	require.NoError(t, err)
	assert.Equal(t, "BOX-000002", after.Code)
	assert.NotEqual(t, during.Code, after.Code)
}

func TestPalletDeleteThroughFallbackUnlinksBoxes(t *testing.T) {
	for _, down := range []bool{false, true} {
		ctx := context.Background()
		r, remote, _ := newFlakyRepos(t)
		remote.SetDown(down)

		pallet, err := r.pallets.Create(ctx, ayse, models.CreatePalletRequest{Name: "Palet-1"})
		require.NoError(t, err)
		var codes []string
		for _, name := range []string{"Koli-A", "Koli-B"} {
			box, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: name})
			require.NoError(t, err)
			_, err = r.boxes.AssignToPallet(ctx, ayse, box.Code, pallet.Code)
			require.NoError(t, err)
			codes = append(codes, box.Code)
		}

		require.NoError(t, r.pallets.Delete(ctx, ayse, pallet.Code), "down=%v", down)

		_, err = r.pallets.GetByCode(ctx, pallet.Code)
		assert.ErrorIs(t, err, store.ErrNotFound, "down=%v", down)
		for _, code := range codes {
			b, err := r.boxes.GetByCode(ctx, code)
			require.NoError(t, err)
			assert.Nil(t, b.PalletID, "down=%v %s", down, code)
		}
	}
}

func TestClearParentIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	box, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "Koli-A"})
	require.NoError(t, err)
	pallet, err := r.pallets.Create(ctx, ayse, models.CreatePalletRequest{Name: "Palet-1"})
	require.NoError(t, err)
	_, err = r.boxes.AssignToPallet(ctx, ayse, box.Code, pallet.Code)
	require.NoError(t, err)

	first, err := r.boxes.ClearParent(ctx, ayse, box.Code)
	require.NoError(t, err)
	second, err := r.boxes.ClearParent(ctx, ayse, box.Code)
	require.NoError(t, err)
	assert.Nil(t, first.PalletID)
	assert.Equal(t, first, second)

	p, err := r.pallets.ClearParent(ctx, ayse, pallet.Code)
	require.NoError(t, err)
	assert.Nil(t, p.ShipmentID)
}

func TestPalletAndDirectShipmentAreExclusive(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	box, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "Koli-A"})
	require.NoError(t, err)
	pallet, err := r.pallets.Create(ctx, ayse, models.CreatePalletRequest{Name: "Palet-1"})
	require.NoError(t, err)
	shipment, err := r.shipments.Create(ctx, ayse, models.CreateShipmentRequest{NameOrPlate: "Tır"})
	require.NoError(t, err)

	_, err = r.boxes.AssignToPallet(ctx, ayse, box.Code, pallet.Code)
	require.NoError(t, err)
	got, err := r.boxes.MarkDirectShipment(ctx, ayse, box.Code, shipment.Code)
	require.NoError(t, err)
	assert.Nil(t, got.PalletID)
	assert.True(t, got.IsDirectShipment)

	got, err = r.boxes.AssignToPallet(ctx, ayse, box.Code, pallet.Code)
	require.NoError(t, err)
	assert.False(t, got.IsDirectShipment)
	assert.Nil(t, got.ShipmentID)

	stored, err := r.boxes.GetByCode(ctx, box.Code)
	require.NoError(t, err)
	assert.NotNil(t, stored.PalletID)
	assert.False(t, stored.IsDirectShipment)

	_, err = r.boxes.AssignToParent(ctx, ayse, box.Code, "BOX-000001")
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestRoleScoping(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	mine, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "Koli-A"})
	require.NoError(t, err)
	_, err = r.boxes.Create(ctx, ali, models.CreateBoxRequest{Name: "Koli-B"})
	require.NoError(t, err)

	list, err := r.boxes.List(ctx, ayse, models.BoxFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.Code, list[0].Code)

	// A non-admin cannot widen the scope through the filter.
	list, err = r.boxes.List(ctx, ayse, models.BoxFilter{CreatedBy: "ali"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	all, err := r.boxes.List(ctx, admin, models.BoxFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, r.boxes.Delete(ctx, ali, mine.Code), store.ErrForbidden)
	require.NoError(t, r.boxes.Delete(ctx, admin, mine.Code))
}

func TestLinesAndSeal(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	box, err := r.boxes.Create(ctx, ayse, models.CreateBoxRequest{Name: "Koli-A"})
	require.NoError(t, err)

	_, err = r.boxes.Seal(ctx, ayse, box.Code)
	assert.ErrorIs(t, err, store.ErrInvalid)

	box, err = r.boxes.AddLine(ctx, ayse, box.Code, models.BoxLineInput{ProductName: "Vida", Qty: 10})
	require.NoError(t, err)
	box, err = r.boxes.AddLine(ctx, ayse, box.Code, models.BoxLineInput{ProductName: "Somun", Qty: 4})
	require.NoError(t, err)
	require.Len(t, box.Lines, 2)

	box, err = r.boxes.RemoveLine(ctx, ayse, box.Code, box.Lines[0].ID)
	require.NoError(t, err)
	require.Len(t, box.Lines, 1)
	assert.Equal(t, "Somun", box.Lines[0].ProductName)

	_, err = r.boxes.RemoveLine(ctx, ayse, box.Code, 999)
	assert.ErrorIs(t, err, store.ErrNotFound)

	box, err = r.boxes.Seal(ctx, ayse, box.Code)
	require.NoError(t, err)
	assert.Equal(t, models.BoxStatusSealed, box.Status)

	_, err = r.boxes.AddLine(ctx, ayse, box.Code, models.BoxLineInput{ProductName: "Pul", Qty: 1})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestSettingsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	settings := NewSettingsRepository(r.store)

	err := settings.UpdateSiteLockdown(ctx, ayse, &models.SiteLockdown{IsLocked: true})
	assert.ErrorIs(t, err, store.ErrForbidden)

	require.NoError(t, settings.UpdateBanSettings(ctx, admin, &models.BanSettings{
		IsActive:        true,
		BannedUsernames: []string{" ali ", "ali", ""},
	}))
	ban, err := settings.BanSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ali"}, ban.BannedUsernames)
	assert.Equal(t, "admin", ban.UpdatedBy)

	err = settings.UpdateBanSettings(ctx, admin, &models.BanSettings{BannedUsernames: []string{"admin"}})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestUserRepositoryValidation(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)
	users := NewUserRepository(r.store)

	assert.ErrorIs(t, users.Create(ctx, &models.User{Username: "x"}), store.ErrInvalid)

	u := &models.User{Username: "ayse", Name: "Ayşe", PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, u))
	assert.Equal(t, models.RoleUser, u.Role)
	assert.True(t, u.IsActive)

	dup := &models.User{Username: "ayse", Name: "Başka", PasswordHash: "hash"}
	assert.ErrorIs(t, users.Create(ctx, dup), store.ErrConflict)
}
