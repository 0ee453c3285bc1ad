package zones

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.json")

	set := ZoneSet{
		{image.Pt(10, 10), image.Pt(200, 10), image.Pt(200, 150), image.Pt(10, 150)},
		{}, // untouched active polygon
	}
	require.NoError(t, Save(path, set))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1, "trailing empty polygon must be stripped")
	assert.Equal(t, set[0], loaded[0])
}

func TestSaveKeepsDegenerateTrailingPolygon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.json")

	set := ZoneSet{
		{image.Pt(0, 0), image.Pt(5, 5), image.Pt(10, 0)},
		{image.Pt(1, 1), image.Pt(2, 2)}, // non-empty, degenerate
	}
	require.NoError(t, Save(path, set))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, set[1], loaded[1])
}

func TestSaveEmptySetPersistsEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.json")

	require.NoError(t, Save(path, ZoneSet{Polygon{}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadTruncatesFloatCoordinates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.json")
	require.NoError(t, os.WriteFile(path, []byte(`[[[10.7, 20.2], [30.0, 40.9], [50.1, 60.5]]]`), 0o644))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, Polygon{image.Pt(10, 20), image.Pt(30, 40), image.Pt(50, 60)}, loaded[0])
}

func TestLoadMalformedGeometry(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"object", `{"zones": []}`},
		{"flat array", `[1, 2, 3]`},
		{"polygon of scalars", `[[1, 2]]`},
		{"three-element point", `[[[1, 2, 3]]]`},
		{"string coordinates", `[[["a", "b"]]]`},
		{"not json", `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.doc), 0o644))

			_, err := Load(path)
			assert.ErrorIs(t, err, ErrMalformedGeometry)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedGeometry)
}

func TestPolygonContains(t *testing.T) {
	square := Polygon{image.Pt(0, 0), image.Pt(100, 0), image.Pt(100, 100), image.Pt(0, 100)}

	assert.True(t, square.Contains(image.Pt(50, 50)))
	assert.True(t, square.Contains(image.Pt(1, 1)))
	assert.False(t, square.Contains(image.Pt(150, 50)))
	assert.False(t, square.Contains(image.Pt(-1, 50)))

	triangle := Polygon{image.Pt(0, 0), image.Pt(100, 0), image.Pt(50, 100)}
	assert.True(t, triangle.Contains(image.Pt(50, 40)))
	assert.False(t, triangle.Contains(image.Pt(5, 90)))

	degenerate := Polygon{image.Pt(0, 0), image.Pt(100, 100)}
	assert.False(t, degenerate.Contains(image.Pt(50, 50)))
}

func TestUpdateCounts(t *testing.T) {
	zs := NewZones(ZoneSet{
		{image.Pt(0, 0), image.Pt(100, 0), image.Pt(100, 100), image.Pt(0, 100)},
		{image.Pt(200, 0), image.Pt(300, 0), image.Pt(300, 100), image.Pt(200, 100)},
	})

	// Anchors are bottom-center: (50,60) inside first, (250,90) inside
	// second, (150,40) inside neither.
	boxes := []image.Rectangle{
		image.Rect(40, 20, 60, 60),
		image.Rect(240, 50, 260, 90),
		image.Rect(140, 10, 160, 40),
	}
	UpdateCounts(zs, boxes)

	assert.Equal(t, 1, zs[0].Count)
	assert.Equal(t, 1, zs[1].Count)

	UpdateCounts(zs, nil)
	assert.Equal(t, 0, zs[0].Count)
	assert.Equal(t, 0, zs[1].Count)
}
