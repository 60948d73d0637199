package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Genre is one label of the fixed 16-entry vocabulary, or [Unclassified].
type Genre int

const (
	Unclassified Genre = iota
	Afrobeats
	Pop
	Rock
	HipHopRap
	RnBSoul
	Country
	ElectronicDance
	Classical
	Jazz
	Blues
	Reggae
	Latin
	Folk
	Metal
	Punk
	IndieAlternative
)

var genreLabels = [...]string{
	Unclassified:     "Unclassified",
	Afrobeats:        "Afrobeats",
	Pop:              "Pop",
	Rock:             "Rock",
	HipHopRap:        "Hip-Hop/Rap",
	RnBSoul:          "R&B/Soul",
	Country:          "Country",
	ElectronicDance:  "Electronic/Dance (EDM)",
	Classical:        "Classical",
	Jazz:             "Jazz",
	Blues:            "Blues",
	Reggae:           "Reggae",
	Latin:            "Latin",
	Folk:             "Folk",
	Metal:            "Metal",
	Punk:             "Punk",
	IndieAlternative: "Indie/Alternative",
}

// Vocabulary returns the 16 classifiable genres in their canonical order.
func Vocabulary() []Genre {
	out := make([]Genre, 0, len(genreLabels)-1)
	for g := Afrobeats; g <= IndieAlternative; g++ {
		out = append(out, g)
	}
	return out
}

func (g Genre) String() string {
	if g < 0 || int(g) >= len(genreLabels) {
		return genreLabels[Unclassified]
	}
	return genreLabels[g]
}

// Valid reports whether g is one of the 16 vocabulary labels.
func (g Genre) Valid() bool {
	return g > Unclassified && g <= IndieAlternative
}

// ParseGenre resolves an exact vocabulary label. Anything else yields [Unclassified] and false.
func ParseGenre(label string) (Genre, bool) {
	for _, g := range Vocabulary() {
		if g.String() == label {
			return g, true
		}
	}
	return Unclassified, false
}

// LookupGenre resolves a label case-insensitively, ignoring surrounding whitespace.
func LookupGenre(label string) (Genre, bool) {
	label = strings.TrimSpace(label)
	for _, g := range Vocabulary() {
		if strings.EqualFold(g.String(), label) {
			return g, true
		}
	}
	return Unclassified, false
}

// MarshalJSON encodes the genre as its label.
func (g Genre) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

// UnmarshalJSON decodes a label produced by [Genre.MarshalJSON].
func (g *Genre) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	if label == genreLabels[Unclassified] {
		*g = Unclassified
		return nil
	}
	parsed, ok := ParseGenre(label)
	if !ok {
		return fmt.Errorf("unknown genre %q", label)
	}
	*g = parsed
	return nil
}

// JoinGenres renders genres as a comma-separated label list.
func JoinGenres(genres []Genre) string {
	labels := make([]string, len(genres))
	for i, g := range genres {
		labels[i] = g.String()
	}
	return strings.Join(labels, ", ")
}

// SplitGenres parses the output of [JoinGenres]. Unknown labels are dropped.
func SplitGenres(s string) []Genre {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []Genre
	for _, part := range strings.Split(s, ", ") {
		if part == genreLabels[Unclassified] {
			out = append(out, Unclassified)
			continue
		}
		if g, ok := ParseGenre(part); ok {
			out = append(out, g)
		}
	}
	return out
}
