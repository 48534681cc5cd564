package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	UpsertCollection(ctx context.Context, collection CollectionRecord) (CollectionRecord, error)
	GetCollections(ctx context.Context) ([]CollectionRecord, error)
	GetCollectionByExternalId(ctx context.Context, externalId string) (CollectionRecord, error)
	// UpsertEvent updates the event with the same collection and external id, or
	// inserts a new one. Events without external id are always inserted.
	UpsertEvent(ctx context.Context, event EventRecord) (EventRecord, error)
	// DeleteEventsExcept removes events of a collection whose external id is not in
	// keepExternalIds, including every event without external id.
	DeleteEventsExcept(ctx context.Context, collectionExternalId string, keepExternalIds []string) (int, error)
	// GetEvents returns events of a collection overlapping [from, to], ordered by start.
	GetEvents(ctx context.Context, collectionExternalId string, from, to time.Time) ([]EventRecord, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *RepositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// The Rollback will be a no-op if the transaction was already committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &RepositoryImpl{db: r.db, tx: tx}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) UpsertCollection(ctx context.Context, collection CollectionRecord) (CollectionRecord, error) {
	query := `INSERT INTO calendar_collection (uid, external_id, name, color, storage_label)
			  VALUES ($1, $2, $3, $4, $5)
			  ON CONFLICT (external_id) DO UPDATE
			  SET name = EXCLUDED.name,
			      color = EXCLUDED.color,
			      storage_label = EXCLUDED.storage_label,
			      updated_at = now()
			  RETURNING uid`

	var uid uuid.UUID
	err := r.getQueryer().QueryRow(ctx, query,
		uuid.New(),
		collection.ExternalId,
		collection.Name,
		collection.Color,
		collection.StorageLabel,
	).Scan(&uid)
	if err != nil {
		err := fmt.Errorf("could not upsert calendar collection %s: %w", collection.ExternalId, err)
		log.Error(err)
		return CollectionRecord{}, err
	}

	collection.Uid = uid
	return collection, nil
}

func (r *RepositoryImpl) GetCollections(ctx context.Context) ([]CollectionRecord, error) {
	query := `SELECT uid, external_id, name, color, storage_label
			  FROM calendar_collection
			  ORDER BY name, external_id`

	rows, err := r.getQueryer().Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query calendar collections: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	collections := make([]CollectionRecord, 0)
	for rows.Next() {
		var c CollectionRecord
		if err := rows.Scan(&c.Uid, &c.ExternalId, &c.Name, &c.Color, &c.StorageLabel); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

func (r *RepositoryImpl) GetCollectionByExternalId(ctx context.Context, externalId string) (CollectionRecord, error) {
	query := `SELECT uid, external_id, name, color, storage_label
			  FROM calendar_collection
			  WHERE external_id = $1`

	var c CollectionRecord
	err := r.getQueryer().QueryRow(ctx, query, externalId).
		Scan(&c.Uid, &c.ExternalId, &c.Name, &c.Color, &c.StorageLabel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CollectionRecord{}, ErrCollectionNotFound
		}
		return CollectionRecord{}, fmt.Errorf("could not query calendar collection %s: %w", externalId, err)
	}
	return c, nil
}

func (r *RepositoryImpl) UpsertEvent(ctx context.Context, event EventRecord) (EventRecord, error) {
	query := `INSERT INTO calendar_event (
                            uid,
                            external_id,
                            collection_external_id,
                            start_time,
                            end_time,
                            all_day,
                            display_label,
                            location
						) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (collection_external_id, external_id) WHERE external_id IS NOT NULL DO UPDATE
			  SET start_time = EXCLUDED.start_time,
			      end_time = EXCLUDED.end_time,
			      all_day = EXCLUDED.all_day,
			      display_label = EXCLUDED.display_label,
			      location = EXCLUDED.location,
			      updated_at = now()
			  RETURNING uid`

	var uid uuid.UUID
	err := r.getQueryer().QueryRow(ctx, query,
		uuid.New(),
		nullIfEmpty(event.ExternalId),
		event.CollectionExternalId,
		event.StartDateTime,
		nullIfZero(event.EndDateTime),
		event.IsAllDay,
		event.DisplayLabel,
		event.Location,
	).Scan(&uid)
	if err != nil {
		err := fmt.Errorf("could not upsert calendar event: %w", err)
		log.Error(err)
		return EventRecord{}, err
	}

	event.Uid = uid
	return event, nil
}

func (r *RepositoryImpl) DeleteEventsExcept(ctx context.Context, collectionExternalId string, keepExternalIds []string) (int, error) {
	// a NULL array would make the ANY comparison NULL and keep everything
	if keepExternalIds == nil {
		keepExternalIds = []string{}
	}
	query := `DELETE FROM calendar_event
			  WHERE collection_external_id = $1
			    AND (external_id IS NULL OR NOT (external_id = ANY($2)))`

	tag, err := r.getQueryer().Exec(ctx, query, collectionExternalId, keepExternalIds)
	if err != nil {
		err := fmt.Errorf("could not delete stale events of %s: %w", collectionExternalId, err)
		log.Error(err)
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *RepositoryImpl) GetEvents(ctx context.Context, collectionExternalId string, from, to time.Time) ([]EventRecord, error) {
	// Events overlapping the period: starting before its end and ending after its start.
	// An event without end time is treated as ending when it starts.
	query := `SELECT uid, external_id, collection_external_id, start_time, end_time, all_day, display_label, location
			  FROM calendar_event
			  WHERE collection_external_id = $1
			    AND start_time <= $2
			    AND COALESCE(end_time, start_time) >= $3
			  ORDER BY start_time`

	rows, err := r.getQueryer().Query(ctx, query, collectionExternalId, to, from)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]EventRecord, 0, 10)
	for rows.Next() {
		var e EventRecord
		var externalId *string
		var endTime *time.Time
		if err := rows.Scan(
			&e.Uid,
			&externalId,
			&e.CollectionExternalId,
			&e.StartDateTime,
			&endTime,
			&e.IsAllDay,
			&e.DisplayLabel,
			&e.Location,
		); err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		if externalId != nil {
			e.ExternalId = *externalId
		}
		if endTime != nil {
			e.EndDateTime = *endTime
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullIfZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
