package ingest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketdesk/feedsync/internal/model"
	"github.com/marketdesk/feedsync/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestCustomerResolver_CreatesThenReuses(t *testing.T) {
	st := newTestStore(t)
	r := NewCustomerResolver(st, "customer.invalid")
	ctx := context.Background()

	first, err := r.Resolve(ctx, "김철수")
	require.NoError(t, err)
	assert.Equal(t, model.CustomerStatusActive, first.Status)
	assert.Equal(t, "@customer.invalid", first.Email)

	second, err := r.Resolve(ctx, "김철수")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := r.Resolve(ctx, "이영희")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestSynthesizeEmail(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"kim", "kim@customer.invalid"},
		{"Kim Cheolsu", "kimcheolsu@customer.invalid"},
		{"buyer_42!", "buyer42@customer.invalid"},
		{"ｋｉｍ４２", "kim42@customer.invalid"}, // fullwidth folds to ASCII
		{"김철수", "@customer.invalid"},         // no ASCII-representable runes
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SynthesizeEmail(tc.name, "customer.invalid"), "name %q", tc.name)
	}
}
