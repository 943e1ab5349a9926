package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Path: filepath.Join(t.TempDir(), "test.db")}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")

	db, err := Open(context.Background(), Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(context.Background(), Config{Path: path}, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('users','analysis_history','sessions')`).Scan(&n))
	assert.Equal(t, 3, n)
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(setupDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, "farmer@example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	u, err := repo.FindByEmail(ctx, "farmer@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", u.PasswordHash)

	u, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "farmer@example.com", u.Email)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.FindByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := setupDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, "a@example.com", "h1")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "a@example.com", "h2")
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Equal(t, 1, n)
}

func seedUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	id, err := NewUserRepository(db).Create(context.Background(), email, "hash")
	require.NoError(t, err)
	return id
}

func leafBlight() domain.Report {
	return domain.Report{
		DiseaseName:              "Leaf Blight",
		Confidence:               "High",
		Symptoms:                 []string{"brown lesions", "yellow halo"},
		Treatment:                "Apply fungicide",
		FertilizerRecommendation: "Nitrogen boost",
		PreventionTips:           []string{"Avoid overwatering"},
	}
}

func TestHistoryRepository_RoundTrip(t *testing.T) {
	db := setupDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "farmer@example.com")
	ts := time.Date(2026, 4, 2, 9, 30, 15, 123000000, time.UTC)

	rec := &domain.HistoryRecord{UserID: uid, Report: leafBlight(), Timestamp: ts}
	id, err := repo.Insert(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)

	records, err := repo.ListByUser(ctx, uid, domain.HistoryListLimit)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, uid, got.UserID)
	assert.Equal(t, leafBlight(), got.Report)
	assert.True(t, ts.Equal(got.Timestamp), "timestamp %s != %s", got.Timestamp, ts)
}

func TestHistoryRepository_EmptyArrays(t *testing.T) {
	db := setupDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "farmer@example.com")

	_, err := repo.Insert(ctx, &domain.HistoryRecord{
		UserID:    uid,
		Report:    domain.Report{DiseaseName: "Healthy", Confidence: "Medium"},
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	records, err := repo.ListByUser(ctx, uid, domain.HistoryListLimit)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].Report.Symptoms)
	assert.Empty(t, records[0].Report.Symptoms)
	assert.NotNil(t, records[0].Report.PreventionTips)
}

func TestHistoryRepository_ListNewestFirstCapped(t *testing.T) {
	db := setupDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "farmer@example.com")
	other := seedUser(t, db, "other@example.com")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		_, err := repo.Insert(ctx, &domain.HistoryRecord{
			UserID:    uid,
			Report:    leafBlight(),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}
	_, err := repo.Insert(ctx, &domain.HistoryRecord{UserID: other, Report: leafBlight(), Timestamp: base.Add(100 * time.Hour)})
	require.NoError(t, err)

	records, err := repo.ListByUser(ctx, uid, domain.HistoryListLimit)
	require.NoError(t, err)
	require.Len(t, records, 20)
	assert.True(t, records[0].Timestamp.Equal(base.Add(24*time.Hour)))
	assert.True(t, records[19].Timestamp.Equal(base.Add(5*time.Hour)))
	for _, r := range records {
		assert.Equal(t, uid, r.UserID)
	}
}

func TestHistoryRepository_SameTimestampTieBreaksOnID(t *testing.T) {
	db := setupDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()
	uid := seedUser(t, db, "farmer@example.com")
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first, err := repo.Insert(ctx, &domain.HistoryRecord{UserID: uid, Report: leafBlight(), Timestamp: ts})
	require.NoError(t, err)
	second, err := repo.Insert(ctx, &domain.HistoryRecord{UserID: uid, Report: leafBlight(), Timestamp: ts})
	require.NoError(t, err)

	records, err := repo.ListByUser(ctx, uid, domain.HistoryListLimit)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second, records[0].ID)
	assert.Equal(t, first, records[1].ID)
}

func TestHistoryRepository_DeleteScopedToOwner(t *testing.T) {
	db := setupDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()
	owner := seedUser(t, db, "owner@example.com")
	intruder := seedUser(t, db, "intruder@example.com")

	id, err := repo.Insert(ctx, &domain.HistoryRecord{UserID: owner, Report: leafBlight(), Timestamp: time.Now()})
	require.NoError(t, err)

	removed, err := repo.Delete(ctx, intruder, id)
	require.NoError(t, err)
	assert.False(t, removed)

	records, err := repo.ListByUser(ctx, owner, domain.HistoryListLimit)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	removed, err = repo.Delete(ctx, owner, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, owner, id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestHistoryRepository_RejectsUnknownOwner(t *testing.T) {
	repo := NewHistoryRepository(setupDB(t))

	_, err := repo.Insert(context.Background(), &domain.HistoryRecord{UserID: 999, Report: leafBlight(), Timestamp: time.Now()})
	assert.Error(t, err)
}

func TestSessionStore_Lifecycle(t *testing.T) {
	db := setupDB(t)
	store := NewSessionStore(db)
	ctx := context.Background()
	uid := seedUser(t, db, "farmer@example.com")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	live := domain.Session{ID: "live", UserID: uid, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}
	stale := domain.Session{ID: "stale", UserID: uid, CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour)}
	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, stale))

	got, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, uid, got.UserID)
	assert.True(t, got.ExpiresAt.Equal(live.ExpiresAt))

	n, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Get(ctx, "stale")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "live"))
	require.NoError(t, store.Delete(ctx, "live"))
	_, err = store.Get(ctx, "live")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestStringList_Scan(t *testing.T) {
	var l stringList
	require.NoError(t, l.Scan(`["a","b"]`))
	assert.Equal(t, stringList{"a", "b"}, l)

	require.NoError(t, l.Scan([]byte(`null`)))
	assert.Equal(t, stringList{}, l)

	require.NoError(t, l.Scan(nil))
	assert.Equal(t, stringList{}, l)

	assert.Error(t, l.Scan(42))
	assert.Error(t, l.Scan(`{"not":"a list"}`))
}

func TestFormatTime_LexicalOrder(t *testing.T) {
	a := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	b := a.Add(500 * time.Millisecond)
	assert.Less(t, formatTime(a), formatTime(b))
	assert.Len(t, formatTime(a), len(formatTime(b)))
}
