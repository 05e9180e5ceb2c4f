package settlement

import (
	"testing"

	"CasinoMassProgram/internal/config"
)

func TestClampPage(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -3, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 7, want: 7},
	}
	for _, tt := range tests {
		if got := clampPage(tt.in); got != tt.want {
			t.Errorf("clampPage(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestClampPageSize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: 0, want: config.DefaultPageSize},
		{in: -1, want: config.MinPageSize},
		{in: 1, want: 1},
		{in: 50, want: 50},
		{in: config.MaxPageSize, want: config.MaxPageSize},
		{in: config.MaxPageSize + 1, want: config.MaxPageSize},
	}
	for _, tt := range tests {
		if got := clampPageSize(tt.in); got != tt.want {
			t.Errorf("clampPageSize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		rows     int
		pageSize int
		want     int
	}{
		{rows: 0, pageSize: 50, want: 0},
		{rows: 1, pageSize: 50, want: 1},
		{rows: 50, pageSize: 50, want: 1},
		{rows: 51, pageSize: 50, want: 2},
		{rows: 120, pageSize: 50, want: 3},
	}
	for _, tt := range tests {
		if got := totalPages(tt.rows, tt.pageSize); got != tt.want {
			t.Errorf("totalPages(%d, %d) = %d, want %d", tt.rows, tt.pageSize, got, tt.want)
		}
	}
}

func TestDecodeRowData(t *testing.T) {
	data, err := decodeRowData([]byte(`{"Member ID":"M-100"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data["Member ID"] != "M-100" {
		t.Errorf("data = %v", data)
	}

	data, err = decodeRowData(nil)
	if err != nil || data == nil || len(data) != 0 {
		t.Errorf("empty raw should yield empty map, got %v, %v", data, err)
	}

	// Corrupt stored bytes must be reported, not silently rendered empty.
	data, err = decodeRowData([]byte(`{"Member ID":`))
	if err == nil {
		t.Error("corrupt raw should return an error")
	}
	if data == nil {
		t.Error("corrupt raw should still yield a usable map")
	}
}

func TestPagingMetadata(t *testing.T) {
	// 120 rows at page size 50: pages hold 50, 50, 20.
	const rows, pageSize = 120, 50
	pages := totalPages(rows, pageSize)
	if pages != 3 {
		t.Fatalf("totalPages = %d, want 3", pages)
	}
	tests := []struct {
		page        int
		hasPrevious bool
		hasNext     bool
	}{
		{page: 1, hasPrevious: false, hasNext: true},
		{page: 2, hasPrevious: true, hasNext: true},
		{page: 3, hasPrevious: true, hasNext: false},
	}
	for _, tt := range tests {
		hasPrevious := tt.page > 1
		hasNext := tt.page < pages
		if hasPrevious != tt.hasPrevious || hasNext != tt.hasNext {
			t.Errorf("page %d: hasPrevious=%v hasNext=%v, want %v %v",
				tt.page, hasPrevious, hasNext, tt.hasPrevious, tt.hasNext)
		}
	}
}
