package gpx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpx-speedmap/internal/pkg/errors"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <trk>
    <name>Morning drive</name>
    <trkseg>
      <trkpt lat="48.8580" lon="2.2945"><ele>35.0</ele><time>2024-06-01T08:00:00Z</time></trkpt>
      <trkpt lat="48.8590" lon="2.2955"><ele>36.5</ele><time>2024-06-01T08:00:10Z</time></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="48.8600" lon="2.2965"/>
    </trkseg>
  </trk>
  <trk>
    <trkseg>
      <trkpt lat="48.8610" lon="2.2975"/>
    </trkseg>
  </trk>
</gpx>`

func TestParse(t *testing.T) {
	t.Run("flattens tracks and segments in order", func(t *testing.T) {
		points, err := Parse(strings.NewReader(sampleGPX))
		require.NoError(t, err)
		require.Len(t, points, 4)

		assert.Equal(t, 48.8580, points[0].Lat)
		assert.Equal(t, 2.2945, points[0].Lon)
		assert.Equal(t, 48.8610, points[3].Lat)
		for i, p := range points {
			assert.Equal(t, i, p.Seq)
		}
	})

	t.Run("document without track points fails", func(t *testing.T) {
		empty := `<?xml version="1.0"?><gpx version="1.1"><trk><trkseg></trkseg></trk></gpx>`
		_, err := Parse(strings.NewReader(empty))
		assert.ErrorIs(t, err, errors.ErrInvalidGPX)
	})

	t.Run("out-of-range coordinates fail", func(t *testing.T) {
		bad := `<?xml version="1.0"?><gpx><trk><trkseg><trkpt lat="95.0" lon="2.0"/></trkseg></trk></gpx>`
		_, err := Parse(strings.NewReader(bad))
		assert.ErrorIs(t, err, errors.ErrInvalidCoordinates)
	})

	t.Run("malformed XML fails", func(t *testing.T) {
		_, err := Parse(strings.NewReader("<gpx><trk>"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode GPX")
	})
}

func TestParseFile(t *testing.T) {
	t.Run("missing file fails", func(t *testing.T) {
		_, err := ParseFile("does-not-exist.gpx")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open GPX file")
	})
}
