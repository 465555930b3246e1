package leads

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/intakt/hunter/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testUser = "user-1"

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Lead{}))

	return db
}

func ptr[T any](v T) *T { return &v }

type leadOpt func(*models.Lead)

func withWebsite(url string) leadOpt {
	return func(l *models.Lead) { l.Website = ptr(url) }
}

func withFacebook(url string) leadOpt {
	return func(l *models.Lead) { l.Facebook = ptr(url) }
}

func withRating(r float64) leadOpt {
	return func(l *models.Lead) { l.Rating = ptr(r) }
}

func withReviews(n int) leadOpt {
	return func(l *models.Lead) { l.ReviewCount = ptr(n) }
}

func withContacted(v bool) leadOpt {
	return func(l *models.Lead) { l.Contacted = ptr(v) }
}

func withTitle(title string) leadOpt {
	return func(l *models.Lead) { l.Title = ptr(title) }
}

func withCity(city string) leadOpt {
	return func(l *models.Lead) { l.City = ptr(city) }
}

func seedLead(t *testing.T, db *gorm.DB, placeID string, opts ...leadOpt) models.Lead {
	t.Helper()

	lead := models.Lead{
		PlaceID:   placeID,
		UserID:    testUser,
		Title:     ptr("Lead " + placeID),
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&lead)
	}
	require.NoError(t, db.Create(&lead).Error)
	return lead
}

func TestListDefaults(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "a")

	result, err := svc.List(context.Background(), testUser, ListParams{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Page)
	assert.Equal(t, DefaultPageSize, result.PageSize)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, 1, result.PageCount)
	assert.Len(t, result.Rows, 1)
}

func TestListScopesByUser(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "mine")
	other := models.Lead{PlaceID: "theirs", UserID: "user-2"}
	require.NoError(t, db.Create(&other).Error)

	result, err := svc.List(context.Background(), testUser, ListParams{})
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "mine", result.Rows[0].PlaceID)
}

func TestListPagination(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	for i := 0; i < 45; i++ {
		seedLead(t, db, fmt.Sprintf("p-%02d", i))
	}

	result, err := svc.List(context.Background(), testUser, ListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(45), result.Total)
	assert.Equal(t, 3, result.PageCount)
	assert.Len(t, result.Rows, 20)

	last, err := svc.List(context.Background(), testUser, ListParams{Page: 3, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, last.Rows, 5)
}

func TestListClampsPagePastEnd(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	for i := 0; i < 45; i++ {
		seedLead(t, db, fmt.Sprintf("p-%02d", i))
	}

	result, err := svc.List(context.Background(), testUser, ListParams{Page: 99, PageSize: 20})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Page)
	assert.Len(t, result.Rows, 5)
}

func TestListEmptySetIsPageOne(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	result, err := svc.List(context.Background(), testUser, ListParams{Page: 7})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.PageCount)
	assert.Empty(t, result.Rows)
}

func TestListWebsiteFilter(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "with", withWebsite("https://example.com"))
	seedLead(t, db, "without")

	has, err := svc.List(context.Background(), testUser, ListParams{Website: FilterHas})
	require.NoError(t, err)
	require.Len(t, has.Rows, 1)
	assert.Equal(t, "with", has.Rows[0].PlaceID)

	none, err := svc.List(context.Background(), testUser, ListParams{Website: FilterNone})
	require.NoError(t, err)
	require.Len(t, none.Rows, 1)
	assert.Equal(t, "without", none.Rows[0].PlaceID)

	any, err := svc.List(context.Background(), testUser, ListParams{Website: FilterAny})
	require.NoError(t, err)
	assert.Len(t, any.Rows, 2)
}

func TestListSocialsFilter(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "social", withFacebook("https://facebook.com/x"))
	seedLead(t, db, "silent")

	has, err := svc.List(context.Background(), testUser, ListParams{Socials: FilterHas})
	require.NoError(t, err)
	require.Len(t, has.Rows, 1)
	assert.Equal(t, "social", has.Rows[0].PlaceID)

	// none requires every one of the eight columns to be null.
	none, err := svc.List(context.Background(), testUser, ListParams{Socials: FilterNone})
	require.NoError(t, err)
	require.Len(t, none.Rows, 1)
	assert.Equal(t, "silent", none.Rows[0].PlaceID)
}

func TestListContactedFilterTreatsNullAsNo(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "yes", withContacted(true))
	seedLead(t, db, "no", withContacted(false))
	seedLead(t, db, "legacy") // pre-column row, contacted is null

	yes, err := svc.List(context.Background(), testUser, ListParams{Contacted: ContactedYes})
	require.NoError(t, err)
	require.Len(t, yes.Rows, 1)
	assert.Equal(t, "yes", yes.Rows[0].PlaceID)

	no, err := svc.List(context.Background(), testUser, ListParams{Contacted: ContactedNo})
	require.NoError(t, err)
	assert.Len(t, no.Rows, 2)
}

func TestListSearchMatchesAnyTextField(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "t1", withTitle("Blue Bottle Coffee"))
	seedLead(t, db, "t2", withCity("Coffeeville"))
	seedLead(t, db, "t3", withTitle("Bakery"))

	result, err := svc.List(context.Background(), testUser, ListParams{Q: "COFFEE"})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
}

func TestListSortRatingDescNullsFirst(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "high", withRating(4.8))
	seedLead(t, db, "low", withRating(2.1))
	seedLead(t, db, "unrated")

	result, err := svc.List(context.Background(), testUser, ListParams{Sort: SortRatingDesc})
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	assert.Equal(t, "unrated", result.Rows[0].PlaceID)
	assert.Equal(t, "high", result.Rows[1].PlaceID)
	assert.Equal(t, "low", result.Rows[2].PlaceID)
}

func TestListSortReviewsDesc(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "busy", withReviews(900))
	seedLead(t, db, "quiet", withReviews(3))
	seedLead(t, db, "unknown")

	result, err := svc.List(context.Background(), testUser, ListParams{Sort: SortReviewsDesc})
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	assert.Equal(t, "unknown", result.Rows[0].PlaceID)
	assert.Equal(t, "busy", result.Rows[1].PlaceID)
	assert.Equal(t, "quiet", result.Rows[2].PlaceID)
}

func TestListSortRecentNewestFirst(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	old := seedLead(t, db, "old")
	require.NoError(t, db.Model(&old).Update("created_at", time.Now().Add(-48*time.Hour)).Error)
	seedLead(t, db, "new")

	result, err := svc.List(context.Background(), testUser, ListParams{Sort: SortRecent})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "new", result.Rows[0].PlaceID)
}

func TestListNormalizesContacted(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "legacy")

	result, err := svc.List(context.Background(), testUser, ListParams{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.NotNil(t, result.Rows[0].Contacted)
	assert.False(t, *result.Rows[0].Contacted)
}

func TestListRejectsUnknownEnums(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	_, err := svc.List(context.Background(), testUser, ListParams{Sort: "bogus"})
	assert.Error(t, err)

	_, err = svc.List(context.Background(), testUser, ListParams{Website: "maybe"})
	assert.Error(t, err)

	_, err = svc.List(context.Background(), testUser, ListParams{Contacted: "perhaps"})
	assert.Error(t, err)
}

func TestListDegradedModeReturnsEmpty(t *testing.T) {
	svc := NewService(nil)

	result, err := svc.List(context.Background(), testUser, ListParams{})
	require.NoError(t, err)

	assert.True(t, svc.Degraded())
	assert.Empty(t, result.Rows)
	assert.Equal(t, int64(0), result.Total)
	assert.Equal(t, 1, result.PageCount)
}

func TestListDegradedModeStillValidates(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.List(context.Background(), testUser, ListParams{Sort: "bogus"})
	assert.Error(t, err)
}

func TestSetContacted(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "a")

	require.NoError(t, svc.SetContacted(context.Background(), testUser, "a", true))

	lead, err := svc.Get(context.Background(), testUser, "a")
	require.NoError(t, err)
	assert.True(t, lead.IsContacted())

	require.NoError(t, svc.SetContacted(context.Background(), testUser, "a", false))
	lead, err = svc.Get(context.Background(), testUser, "a")
	require.NoError(t, err)
	assert.False(t, lead.IsContacted())
}

func TestSetContactedScopedToUser(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "shared")
	other := models.Lead{PlaceID: "shared", UserID: "user-2"}
	require.NoError(t, db.Create(&other).Error)

	// Toggling through user-2 must not touch user-1's row for the same place.
	require.NoError(t, svc.SetContacted(context.Background(), "user-2", "shared", true))

	mine, err := svc.Get(context.Background(), testUser, "shared")
	require.NoError(t, err)
	assert.False(t, mine.IsContacted())

	theirs, err := svc.Get(context.Background(), "user-2", "shared")
	require.NoError(t, err)
	assert.True(t, theirs.IsContacted())
}

func TestSetContactedDegradedFails(t *testing.T) {
	svc := NewService(nil)
	assert.Error(t, svc.SetContacted(context.Background(), testUser, "a", true))
}

func TestGetScopesByUser(t *testing.T) {
	db := testDB(t)
	svc := NewService(db)

	seedLead(t, db, "mine")

	_, err := svc.Get(context.Background(), "someone-else", "mine")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
