package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marketdesk/feedsync/internal/model"
)

func TestNormalize_QnA(t *testing.T) {
	rec := Normalize(RawItem{
		Title:    "배송 문의",
		Author:   "김철수",
		Date:     "2024.01.05.",
		Status:   "답변완료",
		Answer:   "내일 도착 예정입니다",
		IsSecret: true,
	}, model.SourceKindQnA)

	assert.Equal(t, model.SourceKindQnA, rec.SourceKind)
	assert.Equal(t, "배송 문의", rec.Title)
	assert.Equal(t, "김철수", rec.AuthorName)
	assert.Equal(t, "내일 도착 예정입니다", rec.BodyText)
	assert.Equal(t, "답변완료", rec.Status)
	assert.True(t, rec.Secret)
}

func TestNormalize_QnA_Defaults(t *testing.T) {
	rec := Normalize(RawItem{Title: "q"}, model.SourceKindQnA)

	assert.Equal(t, "anonymous", rec.AuthorName)
	assert.Equal(t, "no answer yet", rec.BodyText)
	assert.Equal(t, "unknown", rec.SourceTimestamp)
	assert.False(t, rec.Secret)
}

func TestNormalize_Review(t *testing.T) {
	rec := Normalize(RawItem{
		ID:      "8812",
		Rating:  2,
		Content: "포장이 찢어져서 왔어요",
		Author:  "이영희",
		Date:    "24.01.05.",
		Images:  []string{"a.jpg", "b.jpg"},
	}, model.SourceKindReview)

	assert.Equal(t, model.SourceKindReview, rec.SourceKind)
	assert.Equal(t, 2, rec.Rating)
	assert.Equal(t, "8812", rec.SourceID)
	assert.Equal(t, "[Review] 2 - 포장이 찢어져서 왔어요", rec.Title)
	assert.Len(t, rec.Images, 2)
}

func TestNormalize_Review_Defaults(t *testing.T) {
	rec := Normalize(RawItem{}, model.SourceKindReview)

	assert.Equal(t, 5, rec.Rating) // absent rating keeps the historical default
	assert.Equal(t, "no content", rec.BodyText)
	assert.Equal(t, "[Review] 5 - no content", rec.Title)
	assert.Equal(t, "anonymous", rec.AuthorName)
	assert.Empty(t, rec.SourceID)
}

func TestNormalize_Review_TitleTruncatesByRunes(t *testing.T) {
	content := strings.Repeat("가", 40)
	rec := Normalize(RawItem{Rating: 4, Content: content}, model.SourceKindReview)

	assert.Equal(t, "[Review] 4 - "+strings.Repeat("가", 30)+"...", rec.Title)
}

func TestClampRating(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0, 5},
		{-3, 1},
		{0.4, 1},
		{1, 1},
		{2.9, 2},
		{3, 3},
		{5, 5},
		{9, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, clampRating(tc.in), "rating %v", tc.in)
	}
}
