package airesponder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptIncludesReviewContext(t *testing.T) {
	system, user := buildPrompt(ReviewInput{
		BusinessName: "Cafe Eins",
		ReviewerName: "Pat Example",
		Rating:       2,
		ReviewText:   "The espresso was cold.",
		Tone:         "apologetic",
	})

	assert.Contains(t, system, "apologetic")
	assert.Contains(t, system, "under 120 words")
	assert.Contains(t, user, "Cafe Eins")
	assert.Contains(t, user, "Pat Example")
	assert.Contains(t, user, "Rating: 2/5")
	assert.Contains(t, user, "The espresso was cold.")
}

func TestBuildPromptDefaults(t *testing.T) {
	system, user := buildPrompt(ReviewInput{Rating: 5})

	assert.Contains(t, system, "friendly and professional")
	assert.Contains(t, system, "same language as the review")
	assert.Contains(t, user, "rating only")
}

func TestBuildPromptExplicitLanguage(t *testing.T) {
	system, _ := buildPrompt(ReviewInput{Rating: 4, Language: "German"})
	assert.Contains(t, system, "Reply in German")
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New()
	assert.ErrorIs(t, err, ErrNotConfigured)
}
