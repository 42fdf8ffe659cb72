package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	cases := []struct {
		name               string
		page, size         int
		total              int64
		wantPages          int
		wantPrev, wantNext bool
	}{
		{"empty", 1, 10, 0, 0, false, false},
		{"single partial page", 1, 10, 3, 1, false, false},
		{"exact multiple", 2, 10, 20, 2, true, false},
		{"first of many", 1, 10, 25, 3, false, true},
		{"remainder page", 3, 10, 25, 3, true, false},
		{"past the end", 5, 10, 25, 3, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPage([]int{}, tc.page, tc.size, tc.total)
			assert.Equal(t, tc.wantPages, p.TotalPages)
			assert.Equal(t, tc.wantPrev, p.HasPreviousPage)
			assert.Equal(t, tc.wantNext, p.HasNextPage)
			assert.Equal(t, tc.total, p.TotalCount)
		})
	}
}

func TestNewPage_NilItemsEncodeAsEmpty(t *testing.T) {
	p := NewPage[string](nil, 1, 10, 0)

	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}

func TestNewPage_NonPositiveSize(t *testing.T) {
	p := NewPage([]int{1}, 1, 0, 5)

	assert.Zero(t, p.TotalPages)
	assert.False(t, p.HasNextPage)
}
