package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingFromStar(t *testing.T) {
	assert.Equal(t, 1, RatingFromStar("ONE"))
	assert.Equal(t, 2, RatingFromStar("TWO"))
	assert.Equal(t, 3, RatingFromStar("THREE"))
	assert.Equal(t, 4, RatingFromStar("FOUR"))
	assert.Equal(t, 5, RatingFromStar("FIVE"))

	// Numeric strings clamp into range
	assert.Equal(t, 3, RatingFromStar("3"))
	assert.Equal(t, 1, RatingFromStar("0"))
	assert.Equal(t, 5, RatingFromStar("9"))

	// Unknown representations floor to one star
	assert.Equal(t, 1, RatingFromStar(""))
	assert.Equal(t, 1, RatingFromStar("STAR_RATING_UNSPECIFIED"))
}

func TestStarFromRating(t *testing.T) {
	assert.Equal(t, "ONE", StarFromRating(1))
	assert.Equal(t, "FIVE", StarFromRating(5))

	// Out-of-range values clamp
	assert.Equal(t, "ONE", StarFromRating(0))
	assert.Equal(t, "ONE", StarFromRating(-3))
	assert.Equal(t, "FIVE", StarFromRating(12))
}

func TestRatingRoundTrip(t *testing.T) {
	for r := 1; r <= 5; r++ {
		assert.Equal(t, r, RatingFromStar(StarFromRating(r)))
	}
}

func TestReviewIsAnswered(t *testing.T) {
	r := Review{}
	assert.False(t, r.IsAnswered())

	reply := "Thanks for visiting!"
	r.ReviewReply = &reply
	assert.True(t, r.IsAnswered())
	assert.Equal(t, reply, r.ReplyText())

	empty := ""
	r.ReviewReply = &empty
	assert.False(t, r.IsAnswered())
}
