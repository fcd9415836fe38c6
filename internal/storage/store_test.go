package storage

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patternlab/internal/genome"
	"patternlab/internal/model"
	"patternlab/internal/pattern"
)

func backends(t *testing.T, r Retention) map[string]Store {
	t.Helper()
	ctx := context.Background()
	stores := map[string]Store{
		"memory": NewMemoryStore(r),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "patternlab.db"), r),
	}
	for name, s := range stores {
		require.NoError(t, s.Init(ctx), name)
		t.Cleanup(func() { _ = s.Close() })
	}
	return stores
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t, DefaultRetention) {
		t.Run(name, func(t *testing.T) {
			session := model.Session{
				ID:        "s1",
				StartedAt: time.Unix(100, 0).UTC(),
				Original:  pattern.New(`sound("bd sd")`),
				Status:    model.StatusRunning,
			}
			require.NoError(t, s.SaveSession(ctx, session))

			session.Status = model.StatusConverged
			session.Generations = append(session.Generations, model.GenerationRecord{Generation: 0, Diversity: 0.4})
			require.NoError(t, s.SaveSession(ctx, session))

			got, ok, err := s.GetSession(ctx, "s1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, model.StatusConverged, got.Status)
			assert.Len(t, got.Generations, 1)
			assert.Equal(t, `sound("bd sd")`, got.Original.Code)

			all, err := s.ListSessions(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)

			_, ok, err = s.GetSession(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSpecimensRoundTrip(t *testing.T) {
	ctx := context.Background()
	sys := genome.NewSystem(rand.New(rand.NewSource(1)))
	for name, s := range backends(t, DefaultRetention) {
		t.Run(name, func(t *testing.T) {
			g := sys.RandomGenome()
			g.Metadata.ParentIDs = []string{"p1"}
			require.NoError(t, s.SaveSpecimens(ctx, []*genome.Genome{g, nil}))

			got, ok, err := s.GetSpecimen(ctx, g.ID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, g.ID, got.ID)
			assert.Equal(t, []string{"p1"}, got.Metadata.ParentIDs)
			assert.InDelta(t, 0.0, sys.GeneticDistance(g, got), 1e-12)

			n, err := s.CountSpecimens(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestBreedingHistoryTrimmed(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t, DefaultRetention) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 101; i++ {
				require.NoError(t, s.SaveBreedingEvent(ctx, model.BreedingEvent{ID: fmt.Sprintf("b%03d", i), Success: true}))
			}
			events, err := s.ListBreedingEvents(ctx)
			require.NoError(t, err)
			require.Len(t, events, 80)
			assert.Equal(t, "b021", events[0].ID)
			assert.Equal(t, "b100", events[79].ID)
		})
	}
}

func TestSessionRetention(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t, Retention{Sessions: 5}) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 6; i++ {
				require.NoError(t, s.SaveSession(ctx, model.Session{ID: fmt.Sprintf("s%d", i)}))
			}
			all, err := s.ListSessions(ctx)
			require.NoError(t, err)
			require.Len(t, all, 4)
			assert.Equal(t, "s2", all[0].ID)
		})
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	sys := genome.NewSystem(rand.New(rand.NewSource(2)))
	for name, s := range backends(t, DefaultRetention) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.SaveSession(ctx, model.Session{ID: "s"}))
			require.NoError(t, s.SaveSpecimens(ctx, []*genome.Genome{sys.RandomGenome()}))
			require.NoError(t, s.SaveBreedingEvent(ctx, model.BreedingEvent{ID: "b"}))
			require.NoError(t, s.Reset(ctx))

			sessions, err := s.ListSessions(ctx)
			require.NoError(t, err)
			assert.Empty(t, sessions)
			n, err := s.CountSpecimens(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
			events, err := s.ListBreedingEvents(ctx)
			require.NoError(t, err)
			assert.Empty(t, events)
		})
	}
}

func TestMemorySpecimenLRU(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Retention{Specimens: 3})
	require.NoError(t, s.Init(ctx))
	sys := genome.NewSystem(rand.New(rand.NewSource(3)))

	var ids []string
	for i := 0; i < 5; i++ {
		g := sys.RandomGenome()
		ids = append(ids, g.ID)
		require.NoError(t, s.SaveSpecimens(ctx, []*genome.Genome{g}))
	}
	n, err := s.CountSpecimens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, ok, _ := s.GetSpecimen(ctx, ids[0])
	assert.False(t, ok)
	_, ok, _ = s.GetSpecimen(ctx, ids[4])
	assert.True(t, ok)
}

func TestUninitializedStore(t *testing.T) {
	ctx := context.Background()
	_, err := NewMemoryStore(DefaultRetention).ListSessions(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = NewSQLiteStore("unused.db", DefaultRetention).ListSessions(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCodecVersion(t *testing.T) {
	data, err := Encode(model.BreedingEvent{ID: "x"})
	require.NoError(t, err)
	ev, err := Decode[model.BreedingEvent](data)
	require.NoError(t, err)
	assert.Equal(t, "x", ev.ID)

	_, err = Decode[model.BreedingEvent]([]byte(`{"schema_version":2,"codec_version":1,"data":{}}`))
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("", "", DefaultRetention)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore("sqlite", "x.db", DefaultRetention)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = NewStore("redis", "", DefaultRetention)
	assert.Error(t, err)
}
