package domain

// AnnotatedPoint pairs a sampled route point with its speed lookup result.
type AnnotatedPoint struct {
	Seq    int         `json:"seq"`
	Record SpeedRecord `json:"record"`
}

// AnnotatedRoute is the final enrichment artifact handed to the
// renderer. Points are always sorted by Seq ascending, regardless of
// lookup completion order.
type AnnotatedRoute struct {
	Points   []AnnotatedPoint `json:"points"`
	Stations []FuelStation    `json:"stations"`
}
