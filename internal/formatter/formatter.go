// package formatter renders the genre assignments of a session as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/samber/lo"
)

// Report is the exportable outcome of a session.
type Report struct {
	Assignments []models.Classification `json:"assignments"`
	Filings     []models.Filing         `json:"filings"`
}

// Format identifies an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatText     Format = "txt"
)

// FormatFromPath picks the format matching the extension of path.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unsupported report extension %q (use .csv, .md, .json or .txt)", shared.ErrInvalidArgument, filepath.Ext(path))
	}
}

// playlistsFor returns the playlists a track ended up in, in filing order.
func (r Report) playlistsFor(t models.Track) []string {
	filed := lo.Filter(r.Filings, func(f models.Filing, _ int) bool {
		return f.Track == t && (f.Outcome == models.OutcomeAdded || f.Outcome == models.OutcomeAlreadyPresent)
	})
	return lo.Uniq(lo.Map(filed, func(f models.Filing, _ int) string { return f.PlaylistName }))
}

func (r Report) notFound() []models.Track {
	missing := lo.Filter(r.Filings, func(f models.Filing, _ int) bool { return f.Outcome == models.OutcomeNotFound })
	return lo.Map(missing, func(f models.Filing, _ int) models.Track { return f.Track })
}

// GroupByGenre groups tracks under each assigned genre in vocabulary order, followed by [models.Unclassified].
// A track listed twice for one genre appears once.
func GroupByGenre(assignments []models.Classification) ([]models.Genre, map[models.Genre][]models.Track) {
	groups := map[models.Genre][]models.Track{}
	for _, a := range assignments {
		for _, g := range lo.Uniq(a.Genres) {
			groups[g] = append(groups[g], a.Track)
		}
	}

	order := lo.Filter(append(models.Vocabulary(), models.Unclassified), func(g models.Genre, _ int) bool {
		return len(groups[g]) > 0
	})
	return order, groups
}

// ExportToCSV renders one row per assignment with columns: Title, Artist, Genres, Playlists, Reused
func ExportToCSV(report Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Title", "Artist", "Genres", "Playlists", "Reused"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range report.Assignments {
		record := []string{
			a.Track.Title,
			a.Track.Artist,
			strings.Join(a.Labels(), "; "),
			strings.Join(report.playlistsFor(a.Track), "; "),
			strconv.FormatBool(a.Reused),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a section per genre followed by the tracks missing from the catalog
func ExportToMarkdown(report Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Genre Assignments\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(report.Assignments)))

	order, groups := GroupByGenre(report.Assignments)
	for _, g := range order {
		buf.WriteString(fmt.Sprintf("## %s\n\n", g.String()))
		for i, t := range groups[g] {
			buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, t.Artist, t.Title))
		}
		buf.WriteString("\n")
	}

	if missing := report.notFound(); len(missing) > 0 {
		buf.WriteString("## Not Found On Spotify\n\n")
		for _, t := range missing {
			buf.WriteString(fmt.Sprintf("- %s - %s\n", t.Artist, t.Title))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText renders the assignment list, one track per line
func ExportToText(report Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(report.Assignments)))
	for i, a := range report.Assignments {
		buf.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, a.Track.String(), models.JoinGenres(a.Genres)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the report as indented JSON
func ExportToJSON(report Report) ([]byte, error) {
	return shared.MarshalJSON(report, true)
}

// Export renders report in format.
func Export(report Report, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(report)
	case FormatMarkdown:
		return ExportToMarkdown(report)
	case FormatJSON:
		return ExportToJSON(report)
	case FormatText:
		return ExportToText(report)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport writes report to path in the format implied by its extension.
func WriteReport(report Report, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := Export(report, format)
	if err != nil {
		return fmt.Errorf("failed to generate %s report: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
