package renderer

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/gpx-speedmap/internal/domain"
)

// Options controls the rendered artifact.
type Options struct {
	ThresholdKmh int
	Title        string
}

// Marker colors per class, matching the legend.
var classColors = map[domain.ColorClass]string{
	domain.ColorHigh:    "red",
	domain.ColorLow:     "blue",
	domain.ColorUnknown: "gray",
}

type pointView struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Class string  `json:"class"`
	Color string  `json:"color"`
	Label string  `json:"label"`
}

type segmentView struct {
	From  [2]float64 `json:"from"`
	To    [2]float64 `json:"to"`
	Class string     `json:"class"`
	Color string     `json:"color"`
	Label string     `json:"label"`
}

type stationView struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Name  string  `json:"name"`
	SP95  bool    `json:"sp95"`
	SP98  bool    `json:"sp98"`
	Color string  `json:"color"`
}

type pageData struct {
	Title        string
	ThresholdKmh int
	CenterLat    float64
	CenterLon    float64
	PointsJSON   template.JS
	SegmentsJSON template.JS
	StationsJSON template.JS
}

func speedLabel(rec domain.SpeedRecord) string {
	switch {
	case rec.NoLimit:
		return "no limit"
	case rec.MaxSpeedKmh != nil:
		return fmt.Sprintf("%d km/h", *rec.MaxSpeedKmh)
	default:
		return "unknown"
	}
}

// segmentClass colors a route segment by the faster of its two
// endpoints, same rule as the original marker lines: an unrestricted
// endpoint wins outright, two unknowns stay unknown.
func segmentClass(a, b domain.SpeedRecord, threshold int) (domain.ColorClass, string) {
	if a.NoLimit || b.NoLimit {
		return domain.ColorHigh, "no limit"
	}
	var best *int
	if a.MaxSpeedKmh != nil {
		best = a.MaxSpeedKmh
	}
	if b.MaxSpeedKmh != nil && (best == nil || *b.MaxSpeedKmh > *best) {
		best = b.MaxSpeedKmh
	}
	if best == nil {
		return domain.ColorUnknown, "unknown"
	}
	rec := domain.SpeedRecord{MaxSpeedKmh: best}
	return rec.Color(threshold), fmt.Sprintf("%d km/h", *best)
}

// Render writes a self-contained Leaflet HTML page: color-coded speed
// markers and segment lines grouped into toggleable layers, fuel
// station markers with grade popups, and a fixed legend.
func Render(w io.Writer, route *domain.AnnotatedRoute, opts Options) error {
	if route == nil || len(route.Points) == 0 {
		return fmt.Errorf("nothing to render: annotated route is empty")
	}
	if opts.Title == "" {
		opts.Title = "Route speed map"
	}

	points := make([]pointView, 0, len(route.Points))
	for _, ap := range route.Points {
		class := ap.Record.Color(opts.ThresholdKmh)
		points = append(points, pointView{
			Lat:   ap.Record.Lat,
			Lon:   ap.Record.Lon,
			Class: string(class),
			Color: classColors[class],
			Label: speedLabel(ap.Record),
		})
	}

	segments := make([]segmentView, 0, len(route.Points))
	for i := 0; i+1 < len(route.Points); i++ {
		a, b := route.Points[i].Record, route.Points[i+1].Record
		class, label := segmentClass(a, b, opts.ThresholdKmh)
		segments = append(segments, segmentView{
			From:  [2]float64{a.Lat, a.Lon},
			To:    [2]float64{b.Lat, b.Lon},
			Class: string(class),
			Color: classColors[class],
			Label: label,
		})
	}

	stations := make([]stationView, 0, len(route.Stations))
	for _, st := range route.Stations {
		name := st.Name
		if name == "" {
			name = "Fuel station"
		}
		color := "orange"
		if st.HasSP95 && st.HasSP98 {
			color = "green"
		}
		stations = append(stations, stationView{
			Lat:   st.Lat,
			Lon:   st.Lon,
			Name:  name,
			SP95:  st.HasSP95,
			SP98:  st.HasSP98,
			Color: color,
		})
	}

	pointsJSON, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("failed to marshal points: %w", err)
	}
	segmentsJSON, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to marshal segments: %w", err)
	}
	stationsJSON, err := json.Marshal(stations)
	if err != nil {
		return fmt.Errorf("failed to marshal stations: %w", err)
	}

	data := pageData{
		Title:        opts.Title,
		ThresholdKmh: opts.ThresholdKmh,
		CenterLat:    route.Points[0].Record.Lat,
		CenterLon:    route.Points[0].Record.Lon,
		PointsJSON:   template.JS(pointsJSON),
		SegmentsJSON: template.JS(segmentsJSON),
		StationsJSON: template.JS(stationsJSON),
	}
	return pageTemplate.Execute(w, data)
}

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
html, body, #map { height: 100%; margin: 0; }
.legend {
  position: fixed; bottom: 40px; left: 40px; width: 180px;
  background: white; border: 2px solid grey; z-index: 9999;
  font: 14px sans-serif; padding: 10px;
  box-shadow: 2px 2px 6px rgba(0,0,0,0.3);
}
</style>
</head>
<body>
<div id="map"></div>
<div class="legend">
  <b>Speed legend</b><br>
  <span style="color: red;">■</span> ≥ {{.ThresholdKmh}} km/h<br>
  <span style="color: blue;">■</span> &lt; {{.ThresholdKmh}} km/h<br>
  <span style="color: gray;">■</span> Unknown<br>
</div>
<script>
var points = {{.PointsJSON}};
var segments = {{.SegmentsJSON}};
var stations = {{.StationsJSON}};

var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 11);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var groups = {
  high: L.featureGroup(),
  low: L.featureGroup(),
  unknown: L.featureGroup()
};

segments.forEach(function (seg) {
  L.polyline([seg.from, seg.to], { color: seg.color, weight: 4 })
    .bindPopup('Maxspeed: ' + seg.label)
    .addTo(groups[seg.class]);
});

points.forEach(function (pt) {
  L.circleMarker([pt.lat, pt.lon], {
    radius: 5, color: pt.color, fillColor: pt.color, fillOpacity: 0.8
  }).bindPopup('Maxspeed: ' + pt.label).addTo(groups[pt.class]);
});

stations.forEach(function (st) {
  var popup = st.name + '<br>' +
    (st.sp98 ? '&#9989; SP98<br>' : '&#10060; SP98<br>') +
    (st.sp95 ? '&#9989; SP95' : '&#10060; SP95');
  L.circleMarker([st.lat, st.lon], {
    radius: 7, color: st.color, fillColor: st.color, fillOpacity: 0.9
  }).bindPopup(popup).addTo(map);
});

groups.high.addTo(map);
groups.low.addTo(map);
groups.unknown.addTo(map);
L.control.layers(null, {
  'Speed ≥ {{.ThresholdKmh}} km/h': groups.high,
  'Speed < {{.ThresholdKmh}} km/h': groups.low,
  'Unknown speed': groups.unknown
}, { collapsed: false }).addTo(map);
</script>
</body>
</html>
`))
