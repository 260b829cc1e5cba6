package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{"defaults", Pagination{}, Pagination{Page: 1, Limit: 10}},
		{"negative page", Pagination{Page: -3, Limit: 5}, Pagination{Page: 1, Limit: 5}},
		{"limit above max", Pagination{Page: 2, Limit: 1000}, Pagination{Page: 2, Limit: 100}},
		{"limit kept", Pagination{Page: 4, Limit: 25}, Pagination{Page: 4, Limit: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(DefaultLimit, MaxLimit))
		})
	}
}

func TestBuildPageInfo(t *testing.T) {
	p := Pagination{Page: 2, Limit: 10}
	info := BuildPageInfo(p, 25, 10)

	assert.Equal(t, int64(25), info.Total)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, 10, info.PerPage)
	assert.Equal(t, 3, info.LastPage)
	if assert.NotNil(t, info.From) && assert.NotNil(t, info.To) {
		assert.Equal(t, 11, *info.From)
		assert.Equal(t, 20, *info.To)
	}
}

func TestBuildPageInfo_Empty(t *testing.T) {
	info := BuildPageInfo(Pagination{Page: 5, Limit: 10}, 0, 0)

	assert.Equal(t, 1, info.LastPage)
	assert.Nil(t, info.From)
	assert.Nil(t, info.To)
}
