package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ItemsKey(t *testing.T) {
	items, err := Parse([]byte(`{"success":true,"items":[{"title":"배송 문의","author":"kim","status":"답변완료"}]}`))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "배송 문의", items[0].Title)
	assert.Equal(t, "답변완료", items[0].Status)
}

func TestParse_LegacyKeys(t *testing.T) {
	for name, payload := range map[string]string{
		"data":    `{"success":true,"data":[{"title":"a"}],"count":1}`,
		"reviews": `{"success":true,"reviews":[{"id":"8812","rating":4.0,"content":"good"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			items, err := Parse([]byte(payload))
			require.NoError(t, err)
			assert.Len(t, items, 1)
		})
	}
}

func TestParse_SuccessfulEmptyResult(t *testing.T) {
	items, err := Parse([]byte(`{"success":true,"items":[]}`))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParse_DomainFailure(t *testing.T) {
	_, err := Parse([]byte(`{"success":false,"error":"로그인이 필요합니다"}`))
	var domain *DomainError
	require.ErrorAs(t, err, &domain)
	assert.Equal(t, "로그인이 필요합니다", domain.Message)
}

func TestParse_DomainFailureWithoutMessage(t *testing.T) {
	_, err := Parse([]byte(`{"success":false}`))
	var domain *DomainError
	require.ErrorAs(t, err, &domain)
	assert.Equal(t, "crawler reported failure without a message", domain.Message)
}

func TestParse_MalformedPayload(t *testing.T) {
	for name, payload := range map[string]string{
		"empty":     ``,
		"truncated": `{"success":true,"items":[`,
		"not json":  `Traceback (most recent call last): ...`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(payload))
			var parse *ParseError
			assert.ErrorAs(t, err, &parse)
		})
	}
}

func TestParse_IgnoresTrailingNoise(t *testing.T) {
	// Only the first JSON value on stdout is the contract; anything a
	// shutdown hook prints after it is ignored.
	items, err := Parse([]byte(`{"success":true,"items":[{"title":"a"}]}` + "\nclosing browser\n"))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
