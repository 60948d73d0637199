// Package models defines the domain types shared by the fetch, classify and file steps.
//
//   - [Track] : a saved track as (title, artist), plus the service ID/URI when known
//   - [Genre] : tagged enumeration of the 16 controlled-vocabulary labels and [Unclassified]
//   - [Classification] : one track with the genres the model assigned to it
//   - [Playlist] : a streaming-service playlist, matched to genres by case-insensitive name
//
// Tracks and classifications exist only for the duration of a session. Playlists are owned by the streaming service.
package models
