package itunes

// searchResponse represents the iTunes Search API response envelope.
type searchResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []catalogTrack `json:"results"`
}

// catalogTrack represents one song result from the iTunes Search API.
type catalogTrack struct {
	TrackID       int64  `json:"trackId"`
	TrackName     string `json:"trackName"`
	ArtistName    string `json:"artistName"`
	PreviewURL    string `json:"previewUrl"`
	ArtworkURL100 string `json:"artworkUrl100"`
	TrackViewURL  string `json:"trackViewUrl"`
}
