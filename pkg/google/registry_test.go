package google

import (
	"testing"

	"github.com/google/uuid"
	"github.com/klokku/calsync/internal/transport"
	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	t.Run("should return registered intent once", func(t *testing.T) {
		// given
		registry := NewRegistry()
		handle := transport.NewHandle()
		intent := fetchEventsIntent("cal1", uuid.New())
		registry.Register(handle, intent)

		// when
		first, firstOk := registry.Take(handle)
		_, secondOk := registry.Take(handle)

		// then
		assert.True(t, firstOk)
		assert.Equal(t, intent, first)
		assert.False(t, secondOk)
		assert.Equal(t, 0, registry.Len())
	})

	t.Run("should report unknown handle", func(t *testing.T) {
		// given
		registry := NewRegistry()

		// when
		_, ok := registry.Take(transport.NewHandle())

		// then
		assert.False(t, ok)
	})

	t.Run("should keep other entries when one is taken", func(t *testing.T) {
		// given
		registry := NewRegistry()
		first := transport.NewHandle()
		second := transport.NewHandle()
		registry.Register(first, listCalendarsIntent())
		registry.Register(second, fetchEventsIntent("cal1", uuid.Nil))

		// when
		registry.Take(first)

		// then
		assert.Equal(t, 1, registry.Len())
		intent, ok := registry.Take(second)
		assert.True(t, ok)
		assert.Equal(t, "cal1", intent.CalendarID)
	})

	t.Run("should panic on duplicate handle", func(t *testing.T) {
		// given
		registry := NewRegistry()
		handle := transport.NewHandle()
		registry.Register(handle, listCalendarsIntent())

		// when / then
		assert.Panics(t, func() {
			registry.Register(handle, listCalendarsIntent())
		})
	})
}
