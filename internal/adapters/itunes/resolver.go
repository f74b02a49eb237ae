package itunes

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/ewilliams-labs/moodmuse/internal/core/domain"
)

const looseSearchLimit = 5

// Resolve turns one suggestion into a usable track. It never fails: every
// error path degrades to a terminal fallback track so the playlist pipeline
// keeps moving.
//
// The primary query searches for "<title> <artist>" with a single result. If
// that comes back empty, a looser secondary query on the title alone fetches
// up to five candidates and picks the first whose catalog artist contains the
// cleaned artist name, recovering cases where the exact title+artist phrasing
// diverges from the catalog's. A rate-limit signal short-circuits straight to
// the fallback without a secondary attempt.
func (c *Client) Resolve(ctx context.Context, s domain.Suggestion, index int) domain.Track {
	title := cleanQuery(s.Title)
	artist := cleanQuery(s.Artist)

	resp, err := c.fetchSearch(ctx, c.searchURL(strings.TrimSpace(title+" "+artist), 1))
	switch {
	case errors.Is(err, ErrRateLimited):
		c.logger.Warn("itunes adapter: rate limited, using fallback", "title", s.Title)
		return fallbackTrack(s, index)
	case err != nil:
		c.logger.Warn("itunes adapter: primary search failed", "title", s.Title, "err", err)
		return fallbackTrack(s, index)
	}

	if resp.ResultCount > 0 && len(resp.Results) > 0 {
		return mapTrack(resp.Results[0], s, index)
	}

	ct, ok := c.looseSearch(ctx, title, artist)
	if !ok {
		c.logger.Debug("itunes adapter: no catalog match", "title", s.Title, "artist", s.Artist)
		return fallbackTrack(s, index)
	}

	return mapTrack(ct, s, index)
}

// looseSearch is the secondary, title-only query with manual artist-match
// filtering over the candidates.
func (c *Client) looseSearch(ctx context.Context, title, artist string) (catalogTrack, bool) {
	resp, err := c.fetchSearch(ctx, c.searchURL(title, looseSearchLimit))
	if err != nil {
		if !errors.Is(err, ErrRateLimited) {
			c.logger.Warn("itunes adapter: secondary search failed", "title", title, "err", err)
		}
		return catalogTrack{}, false
	}

	want := strings.ToLower(artist)
	for _, ct := range resp.Results {
		if want == "" || strings.Contains(strings.ToLower(ct.ArtistName), want) {
			return ct, true
		}
	}

	return catalogTrack{}, false
}

func fallbackTrack(s domain.Suggestion, index int) domain.Track {
	return domain.NewFallback(strconv.Itoa(index), s)
}
