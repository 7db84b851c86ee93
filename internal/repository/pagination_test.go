package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{"defaults", Pagination{}, Pagination{Page: 1, Limit: 10}},
		{"negative", Pagination{Page: -3, Limit: -1}, Pagination{Page: 1, Limit: 10}},
		{"kept", Pagination{Page: 4, Limit: 25}, Pagination{Page: 4, Limit: 25}},
		{"clamped", Pagination{Page: 1, Limit: 500}, Pagination{Page: 1, Limit: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 40, Pagination{Page: 5, Limit: 10}.Offset())
}

func TestPages(t *testing.T) {
	assert.Equal(t, 0, Pages(0, 10))
	assert.Equal(t, 1, Pages(1, 10))
	assert.Equal(t, 1, Pages(10, 10))
	assert.Equal(t, 2, Pages(11, 10))
	assert.Equal(t, 0, Pages(5, 0))
}
