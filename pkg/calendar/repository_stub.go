package calendar

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrRepositoryTestError = errors.New("repository test error")

type RepositoryStub struct {
	mu          sync.RWMutex
	collections map[string]CollectionRecord // externalId -> collection
	events      []EventRecord
	upsertErr   error
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		collections: make(map[string]CollectionRecord),
	}
}

func (r *RepositoryStub) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	r.mu.Lock()
	originalCollections := make(map[string]CollectionRecord, len(r.collections))
	for k, v := range r.collections {
		originalCollections[k] = v
	}
	originalEvents := make([]EventRecord, len(r.events))
	copy(originalEvents, r.events)
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.collections = originalCollections
		r.events = originalEvents
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *RepositoryStub) UpsertCollection(ctx context.Context, collection CollectionRecord) (CollectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return CollectionRecord{}, r.upsertErr
	}

	if existing, ok := r.collections[collection.ExternalId]; ok {
		collection.Uid = existing.Uid
	} else {
		collection.Uid = uuid.New()
	}
	r.collections[collection.ExternalId] = collection
	return collection, nil
}

func (r *RepositoryStub) GetCollections(ctx context.Context) ([]CollectionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]CollectionRecord, 0, len(r.collections))
	for _, c := range r.collections {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ExternalId < result[j].ExternalId
	})
	return result, nil
}

func (r *RepositoryStub) GetCollectionByExternalId(ctx context.Context, externalId string) (CollectionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collections[externalId]
	if !ok {
		return CollectionRecord{}, ErrCollectionNotFound
	}
	return c, nil
}

func (r *RepositoryStub) UpsertEvent(ctx context.Context, event EventRecord) (EventRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return EventRecord{}, r.upsertErr
	}

	if event.ExternalId != "" {
		for i, existing := range r.events {
			if existing.CollectionExternalId == event.CollectionExternalId && existing.ExternalId == event.ExternalId {
				event.Uid = existing.Uid
				r.events[i] = event
				return event, nil
			}
		}
	}
	event.Uid = uuid.New()
	r.events = append(r.events, event)
	return event, nil
}

func (r *RepositoryStub) DeleteEventsExcept(ctx context.Context, collectionExternalId string, keepExternalIds []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keep := make(map[string]bool, len(keepExternalIds))
	for _, id := range keepExternalIds {
		keep[id] = true
	}

	kept := r.events[:0:0]
	deleted := 0
	for _, e := range r.events {
		if e.CollectionExternalId == collectionExternalId && (e.ExternalId == "" || !keep[e.ExternalId]) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return deleted, nil
}

func (r *RepositoryStub) GetEvents(ctx context.Context, collectionExternalId string, from, to time.Time) ([]EventRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]EventRecord, 0)
	for _, e := range r.events {
		if e.CollectionExternalId != collectionExternalId {
			continue
		}
		end := e.EndDateTime
		if end.IsZero() {
			end = e.StartDateTime
		}
		if !e.StartDateTime.After(to) && !end.Before(from) {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartDateTime.Before(result[j].StartDateTime)
	})
	return result, nil
}

// AllEvents returns every stored event regardless of collection or time.
func (r *RepositoryStub) AllEvents() []EventRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]EventRecord, len(r.events))
	copy(result, r.events)
	return result
}

func (r *RepositoryStub) SetUpsertError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upsertErr = err
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collections = make(map[string]CollectionRecord)
	r.events = nil
	r.upsertErr = nil
}
