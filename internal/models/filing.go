package models

import (
	"encoding/json"
	"fmt"
)

// Outcome is the result of filing one track under one genre.
type Outcome int

const (
	OutcomeAdded          Outcome = iota // appended to the genre playlist
	OutcomeAlreadyPresent                // playlist already contained the track
	OutcomeNotFound                      // catalog search had no match
	OutcomeUnclassified                  // no genre to file under
)

var outcomeNames = [...]string{
	OutcomeAdded:          "added",
	OutcomeAlreadyPresent: "already_present",
	OutcomeNotFound:       "not_found",
	OutcomeUnclassified:   "unclassified",
}

func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// ParseOutcome resolves the name produced by [Outcome.String].
func ParseOutcome(s string) (Outcome, error) {
	for i, name := range outcomeNames {
		if name == s {
			return Outcome(i), nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// Filing records what happened to a track for a single genre.
//
// Tracks that were not found or not classified produce one Filing with
// [Unclassified] as the genre and no playlist.
type Filing struct {
	Track        Track   `json:"track"`
	TrackURI     string  `json:"track_uri,omitempty"` // catalog match used for membership
	Genre        Genre   `json:"genre"`
	PlaylistID   string  `json:"playlist_id,omitempty"`
	PlaylistName string  `json:"playlist_name,omitempty"`
	Outcome      Outcome `json:"outcome"`
}
