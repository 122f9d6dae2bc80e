package models

import "time"

// Track represents a music track in the library
type Track struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	TrackNumber int    `json:"trackNumber"`
	Duration    int    `json:"duration"` // in seconds
	FilePath    string `json:"filePath"`
	FileSize    int64  `json:"fileSize"`
}

// Playlist represents a user-created playlist
type Playlist struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	TrackIDs    []int     `json:"trackIds"`
}

// Waveform holds the precomputed amplitude envelope for a track,
// normalized to [0, 1] with a fixed number of peaks.
type Waveform struct {
	TrackID int       `json:"trackId"`
	Peaks   []float32 `json:"peaks"`
}
