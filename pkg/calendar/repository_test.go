package calendar

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/calsync/internal/test_utils"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl) {
	ctx := context.Background()
	db := openDb()
	repository := NewRepository(db)
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, repository
}

func testEvent(externalId string, start time.Time, duration time.Duration) EventRecord {
	return EventRecord{
		ExternalId:           externalId,
		CollectionExternalId: "cal1",
		StartDateTime:        start,
		EndDateTime:          start.Add(duration),
		DisplayLabel:         "Event " + externalId,
		Location:             "Room 1",
	}
}

func TestRepositoryImpl_UpsertCollection(t *testing.T) {
	t.Run("should insert a new collection", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)

		// when
		stored, err := repo.UpsertCollection(ctx, CollectionRecord{
			ExternalId:   "cal1",
			Name:         "Work",
			Color:        "#9fe1e7",
			StorageLabel: GoogleStorageLabel,
		})

		// then
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, stored.Uid)
		fetched, err := repo.GetCollectionByExternalId(ctx, "cal1")
		require.NoError(t, err)
		assert.Equal(t, stored, fetched)
	})

	t.Run("should update an existing collection and keep its uid", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		first, err := repo.UpsertCollection(ctx, CollectionRecord{ExternalId: "cal1", Name: "Work", StorageLabel: GoogleStorageLabel})
		require.NoError(t, err)

		// when
		second, err := repo.UpsertCollection(ctx, CollectionRecord{ExternalId: "cal1", Name: "Office", Color: "#000000", StorageLabel: GoogleStorageLabel})

		// then
		require.NoError(t, err)
		assert.Equal(t, first.Uid, second.Uid)
		collections, err := repo.GetCollections(ctx)
		require.NoError(t, err)
		require.Len(t, collections, 1)
		assert.Equal(t, "Office", collections[0].Name)
		assert.Equal(t, "#000000", collections[0].Color)
	})

	t.Run("should return not found for unknown collection", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)

		// when
		_, err := repo.GetCollectionByExternalId(ctx, "missing")

		// then
		assert.ErrorIs(t, err, ErrCollectionNotFound)
	})
}

func TestRepositoryImpl_UpsertEvent(t *testing.T) {
	t.Run("should merge events with the same external id", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		first, err := repo.UpsertEvent(ctx, testEvent("ev1", start, time.Hour))
		require.NoError(t, err)

		// when
		updated := testEvent("ev1", start.Add(time.Hour), time.Hour)
		updated.DisplayLabel = "Moved"
		second, err := repo.UpsertEvent(ctx, updated)

		// then
		require.NoError(t, err)
		assert.Equal(t, first.Uid, second.Uid)
		events, err := repo.GetEvents(ctx, "cal1", start, start.Add(24*time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Moved", events[0].DisplayLabel)
		assert.True(t, events[0].StartDateTime.Equal(start.Add(time.Hour)))
	})

	t.Run("should always insert events without external id", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

		// when
		_, err := repo.UpsertEvent(ctx, testEvent("", start, time.Hour))
		require.NoError(t, err)
		_, err = repo.UpsertEvent(ctx, testEvent("", start, time.Hour))
		require.NoError(t, err)

		// then
		events, err := repo.GetEvents(ctx, "cal1", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, events, 2)
		assert.Empty(t, events[0].ExternalId)
	})

	t.Run("should store all-day event without end time", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		event := EventRecord{
			ExternalId:           "trip",
			CollectionExternalId: "cal1",
			StartDateTime:        day,
			IsAllDay:             true,
			DisplayLabel:         "Trip",
		}

		// when
		_, err := repo.UpsertEvent(ctx, event)

		// then
		require.NoError(t, err)
		events, err := repo.GetEvents(ctx, "cal1", day, day)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.True(t, events[0].IsAllDay)
		assert.True(t, events[0].EndDateTime.IsZero())
	})
}

func TestRepositoryImpl_DeleteEventsExcept(t *testing.T) {
	t.Run("should delete events not kept and events without external id", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		for _, id := range []string{"a", "b", ""} {
			_, err := repo.UpsertEvent(ctx, testEvent(id, start, time.Hour))
			require.NoError(t, err)
		}
		other := testEvent("a", start, time.Hour)
		other.CollectionExternalId = "cal2"
		_, err := repo.UpsertEvent(ctx, other)
		require.NoError(t, err)

		// when
		deleted, err := repo.DeleteEventsExcept(ctx, "cal1", []string{"b"})

		// then
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)
		events, err := repo.GetEvents(ctx, "cal1", start, start.Add(time.Hour))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "b", events[0].ExternalId)
		otherEvents, err := repo.GetEvents(ctx, "cal2", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Len(t, otherEvents, 1)
	})

	t.Run("should delete every event of the collection when nothing is kept", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		_, err := repo.UpsertEvent(ctx, testEvent("a", start, time.Hour))
		require.NoError(t, err)

		// when
		deleted, err := repo.DeleteEventsExcept(ctx, "cal1", nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
		events, err := repo.GetEvents(ctx, "cal1", start, start.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestRepositoryImpl_GetEvents(t *testing.T) {
	testCases := []struct {
		name          string
		eventStart    time.Duration
		eventEnd      time.Duration
		shouldBeFound bool
	}{
		{name: "Event fully inside query period", eventStart: 30 * time.Minute, eventEnd: 45 * time.Minute, shouldBeFound: true},
		{name: "Event fully contains query period", eventStart: -30 * time.Minute, eventEnd: 2 * time.Hour, shouldBeFound: true},
		{name: "Event ends exactly at query start", eventStart: -30 * time.Minute, eventEnd: 0, shouldBeFound: true},
		{name: "Event starts exactly at query end", eventStart: time.Hour, eventEnd: 2 * time.Hour, shouldBeFound: true},
		{name: "Event entirely before query period", eventStart: -2 * time.Hour, eventEnd: -time.Hour, shouldBeFound: false},
		{name: "Event entirely after query period", eventStart: 2 * time.Hour, eventEnd: 3 * time.Hour, shouldBeFound: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			ctx, repo := setupTestRepository(t)
			base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
			event := testEvent("ev", base.Add(tc.eventStart), tc.eventEnd-tc.eventStart)
			_, err := repo.UpsertEvent(ctx, event)
			require.NoError(t, err)

			// when
			events, err := repo.GetEvents(ctx, "cal1", base, base.Add(time.Hour))

			// then
			require.NoError(t, err)
			if tc.shouldBeFound {
				assert.Len(t, events, 1)
			} else {
				assert.Empty(t, events)
			}
		})
	}

	t.Run("should not return events of other collections", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		other := testEvent("ev", base, time.Hour)
		other.CollectionExternalId = "cal2"
		_, err := repo.UpsertEvent(ctx, other)
		require.NoError(t, err)

		// when
		events, err := repo.GetEvents(ctx, "cal1", base, base.Add(time.Hour))

		// then
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestRepositoryImpl_WithTransaction(t *testing.T) {
	t.Run("should roll back all writes when the function fails", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

		// when
		err := repo.WithTransaction(ctx, func(txRepo Repository) error {
			if _, err := txRepo.UpsertEvent(ctx, testEvent("ev1", base, time.Hour)); err != nil {
				return err
			}
			return ErrRepositoryTestError
		})

		// then
		assert.ErrorIs(t, err, ErrRepositoryTestError)
		events, err := repo.GetEvents(ctx, "cal1", base, base.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
