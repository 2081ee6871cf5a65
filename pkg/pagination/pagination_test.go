package pagination_test

import (
	"encoding/json"
	"net/url"
	"reflect"
	"testing"

	"github.com/arbiterhq/arbiter/pkg/pagination"
)

var testConfig = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		request      pagination.PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero values", pagination.PageRequest{}, 1, 20},
		{"negative page", pagination.PageRequest{Page: -3, PageSize: 10}, 1, 10},
		{"oversized page size", pagination.PageRequest{Page: 2, PageSize: 500}, 2, 100},
		{"within bounds", pagination.PageRequest{Page: 4, PageSize: 50}, 4, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.request.Normalize(testConfig)
			if tt.request.Page != tt.wantPage {
				t.Errorf("page: got %d, want %d", tt.request.Page, tt.wantPage)
			}
			if tt.request.PageSize != tt.wantPageSize {
				t.Errorf("page size: got %d, want %d", tt.request.PageSize, tt.wantPageSize)
			}
		})
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("page", "3")
	values.Set("page_size", "25")
	values.Set("search", "invoice")
	values.Set("sort", "name,-created_at")

	req := pagination.PageRequestFromQuery(values, testConfig)

	if req.Page != 3 || req.PageSize != 25 {
		t.Errorf("got page %d size %d, want 3 25", req.Page, req.PageSize)
	}
	if req.Search == nil || *req.Search != "invoice" {
		t.Errorf("search: got %v, want invoice", req.Search)
	}
	wantSort := pagination.SortFields{
		{Field: "name"},
		{Field: "created_at", Descending: true},
	}
	if !reflect.DeepEqual(req.Sort, wantSort) {
		t.Errorf("sort: got %v, want %v", req.Sort, wantSort)
	}
}

func TestPageRequestFromQueryEmpty(t *testing.T) {
	req := pagination.PageRequestFromQuery(url.Values{}, testConfig)

	if req.Page != 1 || req.PageSize != 20 {
		t.Errorf("got page %d size %d, want defaults 1 20", req.Page, req.PageSize)
	}
	if req.Search != nil {
		t.Errorf("search: got %v, want nil", req.Search)
	}
}

func TestSortFieldsUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  pagination.SortFields
	}{
		{"string form", `"name,-created_at"`, pagination.SortFields{
			{Field: "name"},
			{Field: "created_at", Descending: true},
		}},
		{"array form", `[{"field":"name"},{"field":"created_at","descending":true}]`, pagination.SortFields{
			{Field: "name"},
			{Field: "created_at", Descending: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got pagination.SortFields
			if err := json.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name           string
		data           []string
		total          int
		pageSize       int
		wantTotalPages int
	}{
		{"exact division", []string{"a", "b"}, 40, 20, 2},
		{"partial last page", []string{"a"}, 41, 20, 3},
		{"empty result", nil, 0, 20, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult(tt.data, tt.total, 1, tt.pageSize)
			if result.TotalPages != tt.wantTotalPages {
				t.Errorf("total pages: got %d, want %d", result.TotalPages, tt.wantTotalPages)
			}
			if result.Data == nil {
				t.Error("data must never be nil")
			}
		})
	}
}

func TestConfigFinalize(t *testing.T) {
	var cfg pagination.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultPageSize != 20 || cfg.MaxPageSize != 100 {
		t.Errorf("got %+v, want defaults 20/100", cfg)
	}

	bad := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
	if err := bad.Finalize(nil); err == nil {
		t.Error("expected error when default exceeds max")
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	cfg.Merge(&pagination.Config{MaxPageSize: 250})

	want := pagination.Config{DefaultPageSize: 20, MaxPageSize: 250}
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}
