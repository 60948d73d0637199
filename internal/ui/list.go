package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/tasks"
	"github.com/samber/lo"
)

var _ list.Item = assignmentItem{}

// assignmentItem wraps a [models.Classification] and where it was filed to implement [list.Item].
type assignmentItem struct {
	assignment models.Classification
	playlists  []string
	notFound   bool
}

func (i assignmentItem) FilterValue() string { return i.assignment.Track.Title }
func (i assignmentItem) Title() string       { return i.assignment.Track.String() }
func (i assignmentItem) Description() string {
	desc := models.JoinGenres(i.assignment.Genres)
	switch {
	case i.notFound:
		desc = fmt.Sprintf("%s • not found on Spotify", desc)
	case len(i.playlists) > 0:
		desc = fmt.Sprintf("%s • %s", desc, strings.Join(i.playlists, ", "))
	}
	if i.assignment.Reused {
		desc += " • from history"
	}
	return desc
}

// assignmentItems builds one list item per assignment of result, in order.
func assignmentItems(result *tasks.SessionResult) []list.Item {
	if result == nil {
		return nil
	}

	return lo.Map(result.Assignments, func(a models.Classification, _ int) list.Item {
		filings := lo.Filter(result.Filings, func(f models.Filing, _ int) bool { return f.Track == a.Track })
		item := assignmentItem{assignment: a}
		for _, f := range filings {
			switch f.Outcome {
			case models.OutcomeAdded, models.OutcomeAlreadyPresent:
				item.playlists = append(item.playlists, f.PlaylistName)
			case models.OutcomeNotFound:
				item.notFound = true
			}
		}
		item.playlists = lo.Uniq(item.playlists)
		return item
	})
}
