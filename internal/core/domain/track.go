package domain

// StockCoverURL is the blurred stand-in artwork used for tracks that have no
// resolved catalog artwork yet (or never will).
const StockCoverURL = "https://images.unsplash.com/photo-1470225620780-dba8ba36b745?w=600&q=30&blur=80"

// Track represents one playlist entry. A track starts life as a placeholder
// (no preview, stock cover) and is later overwritten in place by the catalog
// resolution, which either fills in playable metadata or marks it as a
// terminal fallback.
type Track struct {
	ID          string
	Title       string
	Artist      string
	Mood        string
	PreviewURL  string
	CoverURL    string
	ExternalURL string
	IsPlayable  bool    // true iff a non-empty preview URL was resolved
	Resolved    bool    // false while the entry is still awaiting resolution
	Energy      float64 // preview loudness estimate in [0,1], 0 when unknown
}

// NewPlaceholder builds the pending entry for a suggestion awaiting catalog
// resolution.
func NewPlaceholder(id string, s Suggestion) Track {
	return Track{
		ID:       id,
		Title:    s.Title,
		Artist:   s.Artist,
		Mood:     s.Mood,
		CoverURL: StockCoverURL,
	}
}

// NewFallback builds the terminal, non-playable entry used when catalog
// resolution fails or is rate limited. Structurally a placeholder, but marked
// resolved so it will not be retried.
func NewFallback(id string, s Suggestion) Track {
	t := NewPlaceholder(id, s)
	t.Resolved = true
	return t
}
