package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"depo-backend/internal/activity"
	"depo-backend/internal/cache"
	"depo-backend/internal/handlers"
	"depo-backend/internal/logger"
	"depo-backend/internal/models"
	"depo-backend/internal/store"
	"depo-backend/internal/store/storetest"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newOutageServer runs the router over a fallback whose remote starts healthy.
func newOutageServer(t *testing.T) (*testServer, *storetest.Flaky) {
	t.Helper()
	remote := storetest.NewFlaky(openLocal(t))
	f := store.NewFallback(remote, openLocal(t), logger.WithComponent("test"))
	return newServerOver(t, f), remote
}

func TestTokensStillWorkDuringOutage(t *testing.T) {
	s, remote := newOutageServer(t)
	remote.SetDown(true)

	rec := s.do(http.MethodGet, "/api/boxes", "ayse", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/admin/users", "admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLoginAndCreateBoxDuringOutage(t *testing.T) {
	s, remote := newOutageServer(t)

	rec := s.do(http.MethodPost, "/api/boxes", "ayse", models.CreateBoxRequest{Name: "Remote box"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	before := decode[models.Box](t, rec)

	remote.SetDown(true)

	rec = s.do(http.MethodPost, "/auth/login", "", models.LoginRequest{Username: "ayse", Password: "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.tokens["ayse"] = decode[models.AuthResponse](t, rec).Token

	rec = s.do(http.MethodPost, "/api/boxes", "ayse", models.CreateBoxRequest{Name: "Outage box"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	during := decode[models.Box](t, rec)
	assert.NotEqual(t, before.Code, during.Code)
	assert.Regexp(t, `^BOX-L\d{6}$`, during.Code)

	rec = s.do(http.MethodGet, "/api/boxes/"+during.Code, "ayse", nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/auth/login", "", models.LoginRequest{Username: "ayse", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPalletDeleteDuringOutageUnlinksBoxes(t *testing.T) {
	s, remote := newOutageServer(t)
	remote.SetDown(true)

	rec := s.do(http.MethodPost, "/api/pallets", "ayse", models.CreatePalletRequest{Name: "Palet-1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pallet := decode[models.Pallet](t, rec)

	var codes []string
	for _, name := range []string{"Koli-A", "Koli-B"} {
		rec = s.do(http.MethodPost, "/api/boxes", "ayse", models.CreateBoxRequest{Name: name})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		code := decode[models.Box](t, rec).Code
		rec = s.do(http.MethodPut, "/api/boxes/"+code+"/parent", "ayse", models.AssignParentRequest{ParentCode: pallet.Code})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		codes = append(codes, code)
	}

	rec = s.do(http.MethodDelete, "/api/pallets/"+pallet.Code, "ayse", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	for _, code := range codes {
		rec = s.do(http.MethodGet, "/api/boxes/"+code, "ayse", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, decode[models.Box](t, rec).PalletID, code)
	}
	rec = s.do(http.MethodGet, "/api/pallets/"+pallet.Code, "ayse", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// commandLog is a go-redis hook that records commands instead of sending them.
// Reads answer redis.Nil so every lookup is a miss.
type commandLog struct {
	mu   sync.Mutex
	cmds []string
}

func (l *commandLog) record(cmd redis.Cmder) {
	args := make([]string, 0, len(cmd.Args()))
	for _, a := range cmd.Args() {
		args = append(args, fmt.Sprint(a))
	}
	l.mu.Lock()
	l.cmds = append(l.cmds, strings.Join(args, " "))
	l.mu.Unlock()
	if cmd.Name() == "get" {
		cmd.SetErr(redis.Nil)
	}
}

func (l *commandLog) DialHook(next redis.DialHook) redis.DialHook { return next }

func (l *commandLog) ProcessHook(redis.ProcessHook) redis.ProcessHook {
	return func(_ context.Context, cmd redis.Cmder) error {
		l.record(cmd)
		return cmd.Err()
	}
}

func (l *commandLog) ProcessPipelineHook(redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(_ context.Context, cmds []redis.Cmder) error {
		for _, cmd := range cmds {
			l.record(cmd)
		}
		return nil
	}
}

func (l *commandLog) reset() {
	l.mu.Lock()
	l.cmds = nil
	l.mu.Unlock()
}

func (l *commandLog) commands() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.cmds...)
}

func recordRedis(t *testing.T) *commandLog {
	t.Helper()
	log := &commandLog{}
	c := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	c.AddHook(log)
	cache.SetClient(c)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = c.Close()
	})
	return log
}

func TestUpdatePalletDropsEveryPublicPage(t *testing.T) {
	s := newServer(t)
	rec := s.do(http.MethodPost, "/api/pallets", "ayse", models.CreatePalletRequest{Name: "Palet-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	pallet := decode[models.Pallet](t, rec)

	redisLog := recordRedis(t)
	name := "Palet-2"
	rec = s.do(http.MethodPut, "/api/pallets/"+pallet.Code, "ayse", models.UpdatePalletRequest{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Contains(t, redisLog.commands(), "scan 0 match public:* count 100")
}

// countingSessions counts session list queries.
type countingSessions struct {
	store.ActivityStore
	mu    sync.Mutex
	lists int
}

func (c *countingSessions) ListSessionsSince(ctx context.Context, since time.Time) ([]*models.ActiveSession, error) {
	c.mu.Lock()
	c.lists++
	c.mu.Unlock()
	return c.ActivityStore.ListSessionsSince(ctx, since)
}

func TestLiveSnapshotQueriesSessionsOnce(t *testing.T) {
	s := newServer(t)
	counting := &countingSessions{ActivityStore: s.tracker.Store}
	tracker := activity.NewTracker(counting, nil, logger.WithComponent("test"))

	snap, err := handlers.NewLiveHandler(tracker, time.Minute).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Sessions, 2)
	assert.Equal(t, 2, snap.Stats.ActiveNow)
	assert.Equal(t, 1, counting.lists)
}
