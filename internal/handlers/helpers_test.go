package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanSymbol(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "uppercases", input: "bhp", want: "BHP"},
		{name: "trims whitespace", input: "  AAPL ", want: "AAPL"},
		{name: "keeps exchange prefix", input: "asx:bhp", want: "ASX:BHP"},
		{name: "alphanumeric code", input: "BRK2", want: "BRK2"},
		{name: "empty", input: "", wantErr: true},
		{name: "punctuation", input: "BHP!", wantErr: true},
		{name: "too long", input: "ABCDEFGHIJK", wantErr: true},
		{name: "prefix with bad code", input: "ASX:BHP.AX", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanSymbol(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPaginationParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/reports/BHP", nil)
	page, pageSize := GetPaginationParams(r)
	assert.Equal(t, 0, page)
	assert.Equal(t, 10, pageSize)

	r = httptest.NewRequest("GET", "/api/reports/BHP?page=3&pageSize=25", nil)
	page, pageSize = GetPaginationParams(r)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, pageSize)

	// Oversized and negative values fall back to defaults.
	r = httptest.NewRequest("GET", "/api/reports/BHP?page=-1&pageSize=5000", nil)
	page, pageSize = GetPaginationParams(r)
	assert.Equal(t, 0, page)
	assert.Equal(t, 10, pageSize)
}
