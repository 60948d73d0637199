// package models defines the data model for the genre organizer
package models

import (
	"fmt"
	"strings"
)

// Track represents a saved track from the streaming service.
type Track struct {
	ID     string `json:"id,omitempty"`
	URI    string `json:"uri,omitempty"`
	Title  string `json:"title"`
	Artist string `json:"artist"` // first credited artist
}

// String renders the track as "<title> by <artist>".
func (t Track) String() string {
	return fmt.Sprintf("%s by %s", t.Title, t.Artist)
}

// Playlist represents a playlist owned by the current user.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
	Public     bool   `json:"public"`
}

// Matches reports whether the playlist is the home of genre, comparing names case-insensitively.
func (p Playlist) Matches(label string) bool {
	return strings.EqualFold(p.Name, label)
}

// Classification pairs a track with the genres extracted from the model's reply.
type Classification struct {
	Track  Track   `json:"track"`
	Genres []Genre `json:"genres"`
	Reply  string  `json:"-"`      // cleaned model reply
	Reused bool    `json:"reused"` // taken from history instead of the model
}

// Unclassified reports whether no vocabulary label was found for the track.
func (c Classification) Unclassified() bool {
	for _, g := range c.Genres {
		if g != Unclassified {
			return false
		}
	}
	return true
}

// Labels returns the display labels of the assigned genres, in order.
func (c Classification) Labels() []string {
	labels := make([]string, 0, len(c.Genres))
	for _, g := range c.Genres {
		labels = append(labels, g.String())
	}
	return labels
}
