package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-qti/internal/db"
	"github.com/mind-engage/mindengage-qti/internal/qti"
	"github.com/mind-engage/mindengage-qti/internal/qti/format"
)

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	mem := NewMemoryStore().(*memoryStore)
	mem.now = tick()

	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	sqlStore := NewSQLStore(conn)
	sqlStore.now = tick()

	return map[string]Store{"memory": mem, "sql": sqlStore}
}

const twoItems = `<assessmentTest xmlns="http://www.imsglobal.org/xsd/imsqti_v3p0" identifier="T">
  <assessmentItem identifier="a"/><assessmentItem identifier="b"/>
</assessmentTest>`

func TestNew(t *testing.T) {
	p := New("  ", "", qti.V30)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Untitled Project", p.Name)
	assert.Equal(t, qti.V30, p.Version)
	assert.Equal(t, format.XML, p.Format)
	assert.Equal(t, 1, p.ItemCount)

	p = New("Quiz", twoItems, qti.V21)
	assert.Equal(t, qti.V30, p.Version)
	assert.Equal(t, 2, p.ItemCount)
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first, err := s.Put(ctx, New("first", "", qti.V21))
			require.NoError(t, err)
			second, err := s.Put(ctx, New("second", twoItems, qti.V21))
			require.NoError(t, err)

			got, err := s.Get(ctx, second.ID)
			require.NoError(t, err)
			assert.Equal(t, "second", got.Name)
			assert.Equal(t, twoItems, got.Content)
			assert.Equal(t, 2, got.ItemCount)
			assert.Equal(t, qti.V30, got.Version)

			list, err := s.List(ctx, ListOpts{})
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, second.ID, list[0].ID)
			assert.Empty(t, list[0].Content)

			// Updating moves the project to the front and keeps its creation time.
			first.SetContent(twoItems)
			updated, err := s.Put(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, first.CreatedAt, updated.CreatedAt)
			assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))
			list, err = s.List(ctx, ListOpts{Limit: 1})
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, first.ID, list[0].ID)

			list, err = s.List(ctx, ListOpts{Offset: 5})
			require.NoError(t, err)
			assert.Empty(t, list)

			require.NoError(t, s.Delete(ctx, first.ID))
			_, err = s.Get(ctx, first.ID)
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, first.ID), ErrNotFound)
		})
	}
}
