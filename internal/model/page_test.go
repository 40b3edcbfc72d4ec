package model

import "testing"

func TestNewPage(t *testing.T) {
	cases := []struct {
		total   int64
		perPage int
		pages   int
	}{
		{0, 15, 1},
		{1, 15, 1},
		{15, 15, 1},
		{16, 15, 2},
		{30, 15, 2},
		{31, 15, 3},
	}
	for _, tc := range cases {
		p := NewPage[int](nil, 1, tc.perPage, tc.total)
		if p.TotalPages != tc.pages {
			t.Fatalf("total=%d per_page=%d: pages = %d, want %d", tc.total, tc.perPage, p.TotalPages, tc.pages)
		}
		if p.Items == nil {
			t.Fatal("items must never be nil")
		}
	}
}
