package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/videocrop/internal/geometry"
)

func TestRecorderCollectsInOrder(t *testing.T) {
	r := NewRecorder()

	assert.False(t, r.Record(geometry.Rect{Width: 1, Height: 1}, 0, 1, 1), "idle recorder ignores changes")
	require.True(t, r.Start())

	const n = 25
	for i := 0; i < n; i++ {
		ok := r.Record(geometry.Rect{X: float64(i), Width: 100, Height: 200}, float64(i)/10, 0.8, 1)
		require.True(t, ok)
	}

	samples := r.Samples()
	require.Len(t, samples, n)
	for i, s := range samples {
		assert.Equal(t, float64(i), s.Coordinates[0])
		if i > 0 {
			assert.Greater(t, s.TimeStamp, samples[i-1].TimeStamp)
		}
	}
}

func TestRecorderStartStop(t *testing.T) {
	r := NewRecorder()
	assert.False(t, r.Stop(), "stop while idle is a no-op")

	require.True(t, r.Start())
	r.Record(geometry.Rect{Width: 1, Height: 1}, 1, 1, 1)
	assert.False(t, r.Start(), "second start is a no-op")
	assert.Equal(t, 1, r.Len(), "second start must not clear samples")

	assert.True(t, r.Stop())
	assert.Equal(t, 1, r.Len(), "samples survive stop")

	require.True(t, r.Start())
	assert.Equal(t, 0, r.Len(), "start clears the previous session")

	r.Record(geometry.Rect{Width: 1, Height: 1}, 1, 1, 1)
	r.Reset()
	assert.False(t, r.Active())
	assert.Equal(t, 0, r.Len())
}

func TestMarshalJSONSchema(t *testing.T) {
	samples := []Sample{{TimeStamp: 1.5, Coordinates: [4]float64{50, 0, 300, 300}, Volume: 0.8, PlaybackRate: 1}}

	data, err := Marshal(samples, FormatJSON)
	require.NoError(t, err)

	want := `[
  {
    "timeStamp": 1.5,
    "coordinates": [
      50,
      0,
      300,
      300
    ],
    "volume": 0.8,
    "playbackRate": 1
  }
]`
	assert.Equal(t, want, string(data))

	empty, err := Marshal(nil, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()
	samples := []Sample{
		{TimeStamp: 0, Coordinates: [4]float64{10, 0, 100, 200}, Volume: 0.8, PlaybackRate: 1},
		{TimeStamp: 2.25, Coordinates: [4]float64{40, 0, 100, 200}, Volume: 0.5, PlaybackRate: 1.5},
	}

	for _, f := range []Format{FormatJSON, FormatYAML} {
		path, err := WriteFile(filepath.Join(dir, "out"), samples, f)
		require.NoError(t, err)
		assert.Equal(t, f.FileName(), filepath.Base(path))

		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, samples, got)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out", YAMLFileName))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "playbackRate: 1.5"))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestTimelineStepHold(t *testing.T) {
	tl := NewTimeline([]Sample{
		{TimeStamp: 2, Coordinates: [4]float64{20, 0, 100, 300}},
		{TimeStamp: 1, Coordinates: [4]float64{10, 0, 100, 300}},
		{TimeStamp: 2, Coordinates: [4]float64{25, 0, 100, 300}},
	}, false)

	assert.Equal(t, 1.0, tl.Start())
	assert.Equal(t, 2.0, tl.End())

	cases := map[float64]float64{0: 10, 1: 10, 1.9: 10, 2: 25, 10: 25}
	for ts, x := range cases {
		r, ok := tl.RectAt(ts)
		require.True(t, ok)
		assert.Equal(t, x, r.X, "t=%v", ts)
	}

	_, ok := NewTimeline(nil, false).RectAt(1)
	assert.False(t, ok)
}

func TestTimelineSmooth(t *testing.T) {
	tl := NewTimeline([]Sample{
		{TimeStamp: 0, Coordinates: [4]float64{0, 0, 100, 300}},
		{TimeStamp: 2, Coordinates: [4]float64{100, 0, 100, 300}},
	}, true)

	mid, ok := tl.RectAt(1)
	require.True(t, ok)
	assert.InDelta(t, 50, mid.X, 1e-9)

	early, _ := tl.RectAt(0.5)
	assert.Less(t, early.X, 25.0, "easing starts slow")

	end, _ := tl.RectAt(5)
	assert.Equal(t, 100.0, end.X)

	s, ok := tl.SampleAt(1.5)
	require.True(t, ok)
	assert.Equal(t, 0.0, s.TimeStamp)
}
