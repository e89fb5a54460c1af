package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/pdxmph/pocket-contacts/internal/contact"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.db")
	require.NoError(t, Initialize("sqlite", path))

	database, err := Open("sqlite", path, WithLogger(zaptest.NewLogger(t)), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

var ignoreTimes = cmpopts.IgnoreFields(contact.Contact{}, "CreatedAt", "UpdatedAt")

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open("sqlite", filepath.Join(t.TempDir(), "nope.db"))
	assert.ErrorContains(t, err, "database not found")
}

func TestUnknownDriver(t *testing.T) {
	err := Initialize("postgres", filepath.Join(t.TempDir(), "x.db"))
	var uerr *UnknownDriverError
	assert.True(t, errors.As(err, &uerr))
}

func TestInitializeRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.db")
	require.NoError(t, Initialize("sqlite", path))
	assert.ErrorContains(t, Initialize("sqlite", path), "already exists")
}

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	created, err := database.Create(ctx, contact.Contact{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "0551234567",
		Email:     "ada@example.com",
		Notes:     "First programmer",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := database.Get(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, got.Company)
	assert.Empty(t, got.Avatar)

	got.Company = "Analytical Engines"
	got.Phone = ""
	updated, err := database.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Analytical Engines", updated.Company)
	assert.Empty(t, updated.Phone)
	assert.WithinDuration(t, created.CreatedAt, updated.CreatedAt, time.Millisecond)

	require.NoError(t, database.Delete(ctx, created.ID))
	_, err = database.Get(ctx, created.ID)
	assert.ErrorIs(t, err, contact.ErrNotFound)

	// Deleting again is fine
	assert.NoError(t, database.Delete(ctx, created.ID))
}

func TestCreateValidates(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	_, err := database.Create(ctx, contact.Contact{FirstName: "Cher"})
	var verr *contact.ValidationError
	require.True(t, errors.As(err, &verr))

	n, err := database.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpdateMissing(t *testing.T) {
	database := newTestDB(t)
	_, err := database.Update(context.Background(), contact.Contact{ID: "missing", FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, contact.ErrNotFound)
}

func TestUpdateKeepsFavorite(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	c, err := database.Create(ctx, contact.Contact{FirstName: "A", LastName: "B", Favorite: true})
	require.NoError(t, err)

	c.Favorite = false
	c.Notes = "edited"
	updated, err := database.Update(ctx, c)
	require.NoError(t, err)
	assert.True(t, updated.Favorite)
	assert.Equal(t, "edited", updated.Notes)
}

func TestListOrder(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	for _, c := range []contact.Contact{
		{FirstName: "Zoe", LastName: "Adams"},
		{FirstName: "Amy", LastName: "Young", Favorite: true},
		{FirstName: "Bob", LastName: "adams"},
	} {
		_, err := database.Create(ctx, c)
		require.NoError(t, err)
	}

	list, err := database.List(ctx)
	require.NoError(t, err)

	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.FirstName
	}
	assert.Equal(t, []string{"Amy", "Bob", "Zoe"}, names)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	for _, c := range Fixtures() {
		_, err := database.Create(ctx, c)
		require.NoError(t, err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"sarah chen", []string{"Sarah"}},
		{"STARTUP", []string{"Sarah", "David"}},
		{"555-0110", []string{"Mike"}},
		{"techrecruit.com", []string{"Amanda"}},
		{"100%", nil},
		{"nobody", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := database.Search(ctx, tt.query)
			require.NoError(t, err)

			var names []string
			for _, c := range got {
				names = append(names, c.FirstName)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}

	all, err := database.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, all, len(Fixtures()))
}

func TestToggleFavorite(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)

	c, err := database.Create(ctx, contact.Contact{FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	database.ToggleFavorite(c.ID)
	database.Flush()
	got, err := database.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Favorite)

	database.ToggleFavorite(c.ID)
	database.ToggleFavorite(c.ID)
	database.ToggleFavorite(c.ID)
	database.Flush()
	got, err = database.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Favorite, "four toggles restore the original flag")
}

func TestToggleFavoriteIsNotAwaited(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	c, err := database.Create(ctx, contact.Contact{FirstName: "A", LastName: "B"})
	require.NoError(t, err)

	events, cancel := database.Subscribe()
	defer cancel()

	database.ToggleFavorite(c.ID)

	select {
	case e := <-events:
		assert.Equal(t, contact.Event{Kind: contact.Updated, ID: c.ID}, e)
	case <-time.After(5 * time.Second):
		t.Fatal("no update event")
	}

	got, err := database.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, got.Favorite)
}

func TestToggleFavoriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.db")
	require.NoError(t, Initialize("sqlite", path))
	database, err := Open("sqlite", path, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	require.NoError(t, database.Close())
	database.ToggleFavorite("whatever")
	assert.NoError(t, database.Close())
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	events, cancel := database.Subscribe()
	defer cancel()

	c, err := database.Create(ctx, contact.Contact{FirstName: "A", LastName: "B"})
	require.NoError(t, err)
	c.Notes = "x"
	_, err = database.Update(ctx, c)
	require.NoError(t, err)
	require.NoError(t, database.Delete(ctx, c.ID))
	require.NoError(t, database.Delete(ctx, c.ID))

	assert.Equal(t, contact.Event{Kind: contact.Created, ID: c.ID}, <-events)
	assert.Equal(t, contact.Event{Kind: contact.Updated, ID: c.ID}, <-events)
	assert.Equal(t, contact.Event{Kind: contact.Deleted, ID: c.ID}, <-events)
	assert.Len(t, events, 0, "deleting a missing contact publishes nothing")
}

func TestFixturesDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fixtures.db")
	require.NoError(t, CreateFixturesDatabase("sqlite", path, WithLogger(zaptest.NewLogger(t))))

	database, err := Open("sqlite", path)
	require.NoError(t, err)
	defer database.Close()

	list, err := database.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(len(Fixtures()), len(list)); diff != "" {
		t.Errorf("count mismatch: %s", diff)
	}
	// Favorites first
	assert.True(t, list[0].Favorite)
	assert.True(t, list[1].Favorite)
	assert.False(t, list[2].Favorite)

	for _, c := range list {
		_, err := contact.Initials(c)
		assert.NoError(t, err, c.FullName())
	}
}

func TestMattnDriver(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cgo.db")
	if err := Initialize("sqlite3", path); err != nil {
		if strings.Contains(err.Error(), "cgo") || strings.Contains(err.Error(), "CGO") {
			t.Skip("go-sqlite3 needs cgo")
		}
		t.Fatal(err)
	}

	database, err := Open("sqlite3", path)
	require.NoError(t, err)
	defer database.Close()

	c, err := database.Create(ctx, contact.Contact{FirstName: "Ada", LastName: "Lovelace", Email: "a@b.com"})
	require.NoError(t, err)
	got, err := database.Get(ctx, c.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(c, got, ignoreTimes); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTime(t *testing.T) {
	tm, err := parseTime(sql.NullString{String: "2024-03-01 10:20:30", Valid: true})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), tm)

	tm, err = parseTime(sql.NullString{})
	require.NoError(t, err)
	assert.True(t, tm.IsZero())

	_, err = parseTime(sql.NullString{String: "yesterday", Valid: true})
	assert.Error(t, err)
}
