package services_test

import (
	"math"
	"testing"

	"mernlog/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name                  string
		total, skip, returned int64
		want                  bool
	}{
		{"empty store", 0, 0, 0, false},
		{"first of two pages", 5, 0, 3, true},
		{"last partial page", 5, 3, 2, false},
		{"exact fit", 6, 3, 3, false},
		{"page past the end", 5, 9, 0, false},
		{"one left", 4, 0, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.Paginate(tt.total, tt.skip, tt.returned))
		})
	}
}

func TestNormalizePage(t *testing.T) {
	page, limit := services.NormalizePage(-2, 0)
	assert.Equal(t, 0, page)
	assert.Equal(t, services.DefaultPageLimit, limit)

	page, limit = services.NormalizePage(4, 1000)
	assert.Equal(t, 4, page)
	assert.Equal(t, services.MaxPageLimit, limit)

	page, limit = services.NormalizePage(1, 10)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		total       int64
		wantSkip    int
		wantOK      bool
	}{
		{"first page", 0, 3, 5, 0, true},
		{"second page", 1, 3, 5, 3, true},
		{"past the end", 2, 3, 5, 0, false},
		{"empty store", 0, 3, 0, 0, false},
		{"offset overflows", math.MaxInt/3 + 1, 3, 5, 0, false},
		{"largest page", math.MaxInt, 1, 5, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, ok := services.PageOffset(tt.page, tt.limit, tt.total)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSkip, skip)
		})
	}
}
