package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		page   int
		size   int
		offset int
	}{
		{"defaults", "", 1, 20, 0},
		{"explicit", "?page=3&size=10", 3, 10, 20},
		{"size above max ignored", "?size=500", 1, 20, 0},
		{"garbage ignored", "?page=abc&size=-1", 1, 20, 0},
		{"zero page ignored", "?page=0&size=5", 1, 5, 0},
		{"huge page clamped", "?page=9223372036854775807&size=100", 100000, 100, 9999900},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/users"+tc.query, nil)
			p := FromRequest(r)
			assert.Equal(t, tc.page, p.Page)
			assert.Equal(t, tc.size, p.Size)
			assert.Equal(t, tc.offset, p.Offset)
		})
	}
}

func TestNewResult(t *testing.T) {
	res := NewResult([]string{"a", "b"}, 21, Params{Page: 1, Size: 10})

	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.Len(t, res.Items, 2)
}

func TestNewResult_LastPage(t *testing.T) {
	res := NewResult([]int{1}, 21, Params{Page: 3, Size: 10})
	assert.False(t, res.HasNext)
}

func TestNewResult_NilItems(t *testing.T) {
	res := NewResult[int](nil, 0, DefaultParams())
	assert.NotNil(t, res.Items)
	assert.Equal(t, 0, res.TotalPages)
	assert.False(t, res.HasNext)
}
