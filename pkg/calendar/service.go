package calendar

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) SaveCollection(ctx context.Context, collection CollectionRecord) (CollectionRecord, error) {
	if collection.ExternalId == "" {
		return CollectionRecord{}, ErrMissingExternalId
	}
	return s.repo.UpsertCollection(ctx, collection)
}

func (s *Service) SaveEvent(ctx context.Context, event EventRecord) (EventRecord, error) {
	if err := validateEvent(event); err != nil {
		return EventRecord{}, err
	}
	return s.repo.UpsertEvent(ctx, event)
}

// ReplaceEvents makes events the complete event set of a collection in one
// transaction. Events with an external id keep their uid, every other stored
// event of the collection is removed.
func (s *Service) ReplaceEvents(ctx context.Context, collectionExternalId string, events []EventRecord) (int, error) {
	if collectionExternalId == "" {
		return 0, ErrMissingCollection
	}
	keep := make([]string, 0, len(events))
	for _, e := range events {
		if err := validateEvent(e); err != nil {
			return 0, err
		}
		if e.CollectionExternalId != collectionExternalId {
			return 0, fmt.Errorf("%w: %s is not %s", ErrForeignEvent, e.CollectionExternalId, collectionExternalId)
		}
		if e.ExternalId != "" {
			keep = append(keep, e.ExternalId)
		}
	}

	stored, removed := 0, 0
	err := s.repo.WithTransaction(ctx, func(repo Repository) error {
		var err error
		if removed, err = repo.DeleteEventsExcept(ctx, collectionExternalId, keep); err != nil {
			return err
		}
		for _, e := range events {
			if _, err := repo.UpsertEvent(ctx, e); err != nil {
				return err
			}
			stored++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("could not replace events of %s: %w", collectionExternalId, err)
	}
	log.Debugf("replaced events of %s: %d stored, %d removed", collectionExternalId, stored, removed)
	return stored, nil
}

func (s *Service) ListCollections(ctx context.Context) ([]CollectionRecord, error) {
	return s.repo.GetCollections(ctx)
}

func (s *Service) GetCollection(ctx context.Context, externalId string) (CollectionRecord, error) {
	return s.repo.GetCollectionByExternalId(ctx, externalId)
}

func (s *Service) ListEvents(ctx context.Context, collectionExternalId string, from, to time.Time) ([]EventRecord, error) {
	return s.repo.GetEvents(ctx, collectionExternalId, from, to)
}

func validateEvent(event EventRecord) error {
	if event.CollectionExternalId == "" {
		return ErrMissingCollection
	}
	if event.StartDateTime.IsZero() {
		return ErrMissingStartTime
	}
	return nil
}
