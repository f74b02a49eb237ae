package itunes

import (
	"strconv"
	"strings"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
)

// mapTrack converts a raw catalog result into a resolved domain track.
// Catalog naming is preferred over the AI-suggested naming when present, as
// it is more consistent; the mood description always comes from the
// suggestion.
func mapTrack(ct catalogTrack, s domain.Suggestion, index int) domain.Track {
	id := strconv.FormatInt(ct.TrackID, 10)
	if ct.TrackID == 0 {
		id = strconv.Itoa(index)
	}

	title := ct.TrackName
	if title == "" {
		title = s.Title
	}
	artist := ct.ArtistName
	if artist == "" {
		artist = s.Artist
	}

	return domain.Track{
		ID:          id,
		Title:       title,
		Artist:      artist,
		Mood:        s.Mood,
		PreviewURL:  ct.PreviewURL,
		CoverURL:    upgradeArtwork(ct.ArtworkURL100),
		ExternalURL: ct.TrackViewURL,
		IsPlayable:  ct.PreviewURL != "",
		Resolved:    true,
	}
}

// upgradeArtwork swaps the 100x100 artwork variant for the 600x600 one the
// catalog also serves. Missing artwork degrades to the stock cover.
func upgradeArtwork(artworkURL string) string {
	if artworkURL == "" {
		return domain.StockCoverURL
	}
	return strings.Replace(artworkURL, "100x100", "600x600", 1)
}
