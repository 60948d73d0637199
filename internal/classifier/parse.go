package classifier

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/desertthunder/sortify/internal/models"
)

var vocabularyPattern = buildVocabularyPattern()

// buildVocabularyPattern matches any vocabulary label on word boundaries.
//
// Labels ending in punctuation, such as "Electronic/Dance (EDM)", only get a
// leading boundary: a trailing \b after ")" would require a following letter.
func buildVocabularyPattern() *regexp.Regexp {
	var wordEnd, punctEnd []string
	for _, g := range models.Vocabulary() {
		label := g.String()
		quoted := regexp.QuoteMeta(label)
		last := rune(label[len(label)-1])
		if unicode.IsLetter(last) || unicode.IsDigit(last) {
			wordEnd = append(wordEnd, quoted)
		} else {
			punctEnd = append(punctEnd, quoted)
		}
	}

	pattern := `\b(?:` + strings.Join(wordEnd, "|") + `)\b`
	if len(punctEnd) > 0 {
		pattern += `|\b(?:` + strings.Join(punctEnd, "|") + `)`
	}
	return regexp.MustCompile(pattern)
}

// StripFormatting removes terminal escape sequences and surrounding whitespace from a model reply.
func StripFormatting(reply string) string {
	return strings.TrimSpace(ansi.Strip(reply))
}

// ExtractGenres returns every vocabulary label found in text, in order of appearance.
// Matching is case-sensitive and duplicates are kept.
func ExtractGenres(text string) []models.Genre {
	matches := vocabularyPattern.FindAllString(text, -1)
	genres := make([]models.Genre, 0, len(matches))
	for _, m := range matches {
		if g, ok := models.ParseGenre(m); ok {
			genres = append(genres, g)
		}
	}
	return genres
}

// Parse cleans a raw model reply and extracts its genres.
// A reply without any vocabulary label yields a single [models.Unclassified].
func Parse(reply string) []models.Genre {
	genres := ExtractGenres(StripFormatting(reply))
	if len(genres) == 0 {
		return []models.Genre{models.Unclassified}
	}
	return genres
}
