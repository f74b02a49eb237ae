// Package domain holds the core types of the suggestion pipeline: song
// suggestions produced by the image model, tracks resolved against the
// catalog, and the playlist that holds them.
package domain

// Suggestion is one song the model proposed for the current mood. Titles and
// artists are model output, so they arrive untrimmed and in whatever casing
// the model chose.
type Suggestion struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Mood   string `json:"mood_description"`
}

// MoodReading is the model's full take on an uploaded photo: an overall mood
// phrase and the initial suggestion batch.
type MoodReading struct {
	OverallMood string       `json:"overall_mood"`
	Songs       []Suggestion `json:"songs"`
}
