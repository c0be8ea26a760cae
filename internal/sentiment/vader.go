package sentiment

import (
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/calderos/moodlens/internal/models"
)

var analyzer = govader.NewSentimentIntensityAnalyzer()

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1") // Keep only the text
	input = urlPattern.ReplaceAllString(input, "")

	return input
}

// NormalizeText renders markdown, strips the resulting tags and any bare
// links, and collapses whitespace into single spaces.
func NormalizeText(input string) string {
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	stripped := tagPattern.ReplaceAllString(string(output), " ")
	stripped = RemoveLinks(stripped)

	return strings.Join(strings.Fields(stripped), " ")
}

// Scores maps VADER's negative/neutral/positive intensities onto the fixed
// label ordering, so the heuristic path feeds the same decoder as the model.
func Scores(text string) models.ScoreVector {
	polarity := analyzer.PolarityScores(text)
	return models.ScoreVector{polarity.Negative, polarity.Neutral, polarity.Positive}
}
