package polyline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segmentscout/segmentscout/pkg/polyline"
)

// Reference path from Google's polyline documentation.
const googleExample = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

var googleExamplePoints = []polyline.Point{
	{Lat: 38.5, Lon: -120.2},
	{Lat: 40.7, Lon: -120.95},
	{Lat: 43.252, Lon: -126.453},
}

func TestDecode_GoogleExample(t *testing.T) {
	points := polyline.Decode(googleExample)
	require.Len(t, points, 3)
	for i, want := range googleExamplePoints {
		assert.InDelta(t, want.Lat, points[i].Lat, 1e-5)
		assert.InDelta(t, want.Lon, points[i].Lon, 1e-5)
	}
}

func TestDecode_Empty(t *testing.T) {
	assert.Nil(t, polyline.Decode(""))
}

func TestEncode_RoundTrip(t *testing.T) {
	encoded := polyline.Encode(googleExamplePoints)
	assert.Equal(t, googleExample, encoded)

	decoded := polyline.Decode(encoded)
	require.Len(t, decoded, len(googleExamplePoints))
	for i, want := range googleExamplePoints {
		assert.InDelta(t, want.Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, want.Lon, decoded[i].Lon, 1e-5)
	}
}

func TestLength(t *testing.T) {
	assert.Zero(t, polyline.Length(nil))
	assert.Zero(t, polyline.Length([]polyline.Point{{Lat: 52.0, Lon: 4.0}}))

	// One degree of latitude is roughly 111 km.
	length := polyline.Length([]polyline.Point{
		{Lat: 52.0, Lon: 4.0},
		{Lat: 53.0, Lon: 4.0},
	})
	assert.InDelta(t, 111195, length, 100)
}

func TestBoundsOf(t *testing.T) {
	_, ok := polyline.BoundsOf(nil)
	assert.False(t, ok)

	box, ok := polyline.BoundsOf([]polyline.Point{
		{Lat: 52.1, Lon: 4.5},
		{Lat: 51.9, Lon: 4.9},
		{Lat: 52.3, Lon: 4.2},
	})
	require.True(t, ok)
	assert.Equal(t, 51.9, box.MinLat)
	assert.Equal(t, 52.3, box.MaxLat)
	assert.Equal(t, 4.2, box.MinLon)
	assert.Equal(t, 4.9, box.MaxLon)
}
