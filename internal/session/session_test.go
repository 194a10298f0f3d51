package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/kmeans-explorer/internal/dataset"
	"github.com/banshee-data/kmeans-explorer/internal/kmeans"
	"github.com/banshee-data/kmeans-explorer/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func testDataset(points ...kmeans.Point) *dataset.Dataset {
	return &dataset.Dataset{Points: points}
}

func TestSession_NotReadyBeforeGenerate(t *testing.T) {
	st := NewStore(time.Minute, time.Minute)
	s := st.Create()

	_, err := s.Points()
	assert.ErrorIs(t, err, ErrDatasetNotReady)

	_, _, err = s.Dataset()
	assert.ErrorIs(t, err, ErrDatasetNotReady)
}

func TestSession_EmptyDatasetIsNotReady(t *testing.T) {
	s := NewStore(time.Minute, time.Minute).Create()
	s.SetDataset(testDataset())

	_, err := s.Points()
	assert.ErrorIs(t, err, ErrDatasetNotReady)
}

func TestSession_PointsAreCopied(t *testing.T) {
	s := NewStore(time.Minute, time.Minute).Create()
	s.SetDataset(testDataset(kmeans.Point{X: 1, Y: 2}, kmeans.Point{X: 3, Y: 4}))

	pts, err := s.Points()
	require.NoError(t, err)
	pts[0] = kmeans.Point{X: 99, Y: 99}

	again, err := s.Points()
	require.NoError(t, err)
	assert.Equal(t, kmeans.Point{X: 1, Y: 2}, again[0])
}

func TestSession_LastWriterWins(t *testing.T) {
	s := NewStore(time.Minute, time.Minute).Create()
	s.SetDataset(testDataset(kmeans.Point{X: 1, Y: 1}))
	s.SetDataset(testDataset(kmeans.Point{X: 2, Y: 2}, kmeans.Point{X: 3, Y: 3}))

	pts, err := s.Points()
	require.NoError(t, err)
	assert.Equal(t, []kmeans.Point{{X: 2, Y: 2}, {X: 3, Y: 3}}, pts)

	ds, at, err := s.Dataset()
	require.NoError(t, err)
	assert.Len(t, ds.Points, 2)
	assert.False(t, at.IsZero())
}

func TestSession_ConcurrentGenerateAndRead(t *testing.T) {
	s := NewStore(time.Minute, time.Minute).Create()

	sizes := []int{1, 5, 9}
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				n := sizes[(w+i)%len(sizes)]
				s.SetDataset(testDataset(make([]kmeans.Point, n)...))
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				pts, err := s.Points()
				if err != nil {
					assert.ErrorIs(t, err, ErrDatasetNotReady)
					continue
				}
				assert.Contains(t, sizes, len(pts))
			}
		}()
	}
	wg.Wait()
}

func TestStore_CreateAndGet(t *testing.T) {
	st := NewStore(time.Minute, time.Minute)
	s := st.Create()

	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)
	assert.False(t, s.CreatedAt.IsZero())

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, st.Len())

	_, ok = st.Get("")
	assert.False(t, ok)
	_, ok = st.Get("unknown")
	assert.False(t, ok)
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	st := NewStore(time.Minute, time.Minute)
	a := st.Create()
	b := st.Create()
	assert.NotEqual(t, a.ID, b.ID)

	a.SetDataset(testDataset(kmeans.Point{X: 1, Y: 1}))
	_, err := b.Points()
	assert.ErrorIs(t, err, ErrDatasetNotReady)
}

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore(time.Minute, time.Minute)

	s, created := st.GetOrCreate("")
	assert.True(t, created)

	again, created := st.GetOrCreate(s.ID)
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := st.GetOrCreate("missing")
	assert.True(t, created)
	assert.NotEqual(t, s.ID, other.ID)
}

func TestStore_Delete(t *testing.T) {
	st := NewStore(time.Minute, time.Minute)
	s := st.Create()
	st.Delete(s.ID)

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())
}

func TestStore_Expiry(t *testing.T) {
	st := NewStore(20*time.Millisecond, 10*time.Millisecond)
	s := st.Create()

	// Get refreshes the expiry, so wait on the janitor instead of polling Get.
	assert.Eventually(t, func() bool {
		return st.Len() == 0
	}, time.Second, 5*time.Millisecond)

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
}

func TestNewStore_Defaults(t *testing.T) {
	st := NewStore(0, -1)
	assert.Equal(t, DefaultTTL, st.TTL())
}
