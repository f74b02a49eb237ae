package domain

import (
	"errors"
	"strings"
)

var ErrEmptyPlaylist = errors.New("domain: empty playlist")

// Playlist is the append-only, ordered track sequence for one session plus
// the playback cursor. The sequence never shrinks and indices are stable once
// assigned: growth happens only past the current end, and background
// resolution overwrites entries in place at fixed indices. Playlist is not
// safe for concurrent use; the owning session serializes access.
type Playlist struct {
	tracks []Track
	cursor int
}

func NewPlaylist() *Playlist {
	return &Playlist{tracks: []Track{}}
}

func (p *Playlist) Len() int { return len(p.tracks) }

func (p *Playlist) Cursor() int { return p.cursor }

// Track returns the entry at index i, reporting whether it exists.
func (p *Playlist) Track(i int) (Track, bool) {
	if i < 0 || i >= len(p.tracks) {
		return Track{}, false
	}
	return p.tracks[i], true
}

// Tracks returns a copy of the track sequence.
func (p *Playlist) Tracks() []Track {
	out := make([]Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// Titles returns the titles of all tracks in playlist order.
func (p *Playlist) Titles() []string {
	out := make([]string, 0, len(p.tracks))
	for _, t := range p.tracks {
		out = append(out, t.Title)
	}
	return out
}

// Append adds a track past the current end.
func (p *Playlist) Append(t Track) {
	p.tracks = append(p.tracks, t)
}

// SetTrack overwrites the entry at index i, preserving any energy reading
// already attached to it. It reports false when no entry exists at i, which
// lets a late background write land harmlessly after the playlist it was
// started against has been replaced.
func (p *Playlist) SetTrack(i int, t Track) bool {
	if i < 0 || i >= len(p.tracks) {
		return false
	}
	if t.Energy == 0 {
		t.Energy = p.tracks[i].Energy
	}
	p.tracks[i] = t
	return true
}

// SetEnergy attaches a preview energy reading to the entry at index i.
func (p *Playlist) SetEnergy(i int, energy float64) bool {
	if i < 0 || i >= len(p.tracks) {
		return false
	}
	p.tracks[i].Energy = energy
	return true
}

// Navigate moves the cursor by direction (+1 next, -1 prev), wrapping at both
// ends, and returns the new cursor position.
func (p *Playlist) Navigate(direction int) (int, error) {
	n := len(p.tracks)
	if n == 0 {
		return 0, ErrEmptyPlaylist
	}
	p.cursor = ((p.cursor+direction)%n + n) % n
	return p.cursor, nil
}

// DedupSuggestions filters a suggestion batch down to the entries not already
// present in the playlist. A suggestion is a duplicate when its trimmed title
// matches an existing title case-insensitively, or when both its title and
// artist overlap an existing entry by case-insensitive substring (catching
// partial or alternate titling of the same song).
func (p *Playlist) DedupSuggestions(batch []Suggestion) []Suggestion {
	unique := make([]Suggestion, 0, len(batch))
	for _, s := range batch {
		dup := false
		for _, t := range p.tracks {
			if suggestionMatchesTrack(s, t) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		for _, accepted := range unique {
			if sameTitle(s.Title, accepted.Title) {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, s)
		}
	}
	return unique
}

func suggestionMatchesTrack(s Suggestion, t Track) bool {
	if sameTitle(s.Title, t.Title) {
		return true
	}

	title := strings.ToLower(strings.TrimSpace(s.Title))
	artist := strings.ToLower(strings.TrimSpace(s.Artist))
	haveTitle := strings.ToLower(strings.TrimSpace(t.Title))
	haveArtist := strings.ToLower(strings.TrimSpace(t.Artist))
	if title == "" || artist == "" || haveTitle == "" || haveArtist == "" {
		return false
	}

	titleOverlap := strings.Contains(haveTitle, title) || strings.Contains(title, haveTitle)
	artistOverlap := strings.Contains(haveArtist, artist) || strings.Contains(artist, haveArtist)
	return titleOverlap && artistOverlap
}

func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
