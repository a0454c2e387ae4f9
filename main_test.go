package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskConnectionString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://scraper:s3cret@db:5432/urbania", "postgres://scraper:****@db:5432/urbania"},
		{"postgres://scraper@db/urbania", "postgres://scraper@db/urbania"},
		{"postgres://db/urbania", "postgres://db/urbania"},
		{"host=db user=scraper", "host=db user=scraper"},
		{"postgres://u:p@ss@db/x", "postgres://u:****@db/x"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, maskConnectionString(tt.in), tt.in)
	}
}
