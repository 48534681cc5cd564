package calendar

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// GoogleStorageLabel tags collections synchronized from Google Calendar.
const GoogleStorageLabel = "Google"

var (
	ErrCollectionNotFound = errors.New("calendar collection not found")
	ErrMissingExternalId  = errors.New("calendar collection external id is required")
	ErrMissingCollection  = errors.New("event must reference a calendar collection")
	ErrMissingStartTime   = errors.New("event start time is required")
	ErrForeignEvent       = errors.New("event belongs to another calendar collection")
)

// CollectionRecord is the local representation of one remote calendar.
type CollectionRecord struct {
	Uid          uuid.UUID
	ExternalId   string
	Name         string
	Color        string
	StorageLabel string
}

// EventRecord is the local representation of one remote event. ExternalId may
// be empty when the remote did not send an id; such events are never merged.
type EventRecord struct {
	Uid                  uuid.UUID
	ExternalId           string
	CollectionExternalId string
	StartDateTime        time.Time
	EndDateTime          time.Time
	IsAllDay             bool
	DisplayLabel         string
	Location             string
}
