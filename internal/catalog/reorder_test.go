package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KAYner2/Theame-sub000/internal/model"
	"github.com/KAYner2/Theame-sub000/internal/store"
)

func TestMove(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	cases := []struct {
		from, to int
		want     []string
	}{
		{0, 3, []string{"b", "c", "d", "a"}},
		{3, 0, []string{"d", "a", "b", "c"}},
		{1, 2, []string{"a", "c", "b", "d"}},
		{2, 2, []string{"a", "b", "c", "d"}},
	}
	for _, c := range cases {
		got, err := Move(ids, c.from, c.to)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids, "input untouched")

	_, err := Move(ids, 4, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = Move(nil, 0, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestReordererApply(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	var ids []string
	for _, n := range []string{"Розы", "Тюльпаны", "Пионы"} {
		c, err := mem.SaveCategory(ctx, model.Category{Name: n, Slug: n})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	r := &Reorderer{Store: mem}

	next, err := Move(ids, 2, 0)
	require.NoError(t, err)
	require.NoError(t, r.Apply(ctx, store.KindCategories, next))

	got, err := mem.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Пионы", got[0].Name)
	assert.Equal(t, 0, got[0].SortOrder)
	assert.Equal(t, "Розы", got[1].Name)

	assert.ErrorIs(t, r.Apply(ctx, "orders", ids), store.ErrUnknownKind)
	assert.ErrorIs(t, r.Apply(ctx, store.KindCategories, nil), ErrEmpty)
	assert.ErrorIs(t, r.Apply(ctx, store.KindCategories, []string{ids[0], ids[0]}), ErrDuplicate)
	assert.ErrorIs(t, r.Apply(ctx, store.KindCategories, []string{ids[0], "ghost"}), store.ErrNotFound)
}
