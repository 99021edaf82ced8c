package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/datenblick/datenblick/pkg/api"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		rows          int
		wantColumns   []string
		wantRowCount  int
		wantTruncated bool
	}{
		{
			name:         "header and rows within limit",
			input:        "a,b\n1,2\n3,4\n",
			rows:         10,
			wantColumns:  []string{"a", "b"},
			wantRowCount: 2,
		},
		{
			name:          "truncated when more rows than requested",
			input:         "a,b\n1,2\n3,4\n5,6\n",
			rows:          2,
			wantColumns:   []string{"a", "b"},
			wantRowCount:  2,
			wantTruncated: true,
		},
		{
			name:         "header only",
			input:        "a,b,c\n",
			rows:         5,
			wantColumns:  []string{"a", "b", "c"},
			wantRowCount: 0,
		},
		{
			name:         "zero rows means default",
			input:        "a\n" + strings.Repeat("x\n", 30),
			rows:         0,
			wantColumns:  []string{"a"},
			wantRowCount: DefaultPreviewRows,
			wantTruncated: true,
		},
		{
			name:         "ragged rows are kept",
			input:        "a,b\n1\n2,3,4\n",
			rows:         10,
			wantColumns:  []string{"a", "b"},
			wantRowCount: 2,
		},
		{
			name:         "quoted fields with commas",
			input:        "name,notes\nwidget,\"cheap, sturdy\"\n",
			rows:         10,
			wantColumns:  []string{"name", "notes"},
			wantRowCount: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Read(strings.NewReader(tc.input), tc.rows)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(p.Columns) != len(tc.wantColumns) {
				t.Fatalf("expected %d columns, got %d", len(tc.wantColumns), len(p.Columns))
			}
			for i, want := range tc.wantColumns {
				if p.Columns[i] != want {
					t.Errorf("column %d: expected %q, got %q", i, want, p.Columns[i])
				}
			}
			if len(p.Rows) != tc.wantRowCount {
				t.Errorf("expected %d rows, got %d", tc.wantRowCount, len(p.Rows))
			}
			if p.Truncated != tc.wantTruncated {
				t.Errorf("expected truncated=%v, got %v", tc.wantTruncated, p.Truncated)
			}
		})
	}
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""), 10)
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) || apiErr.Type != api.ErrorTypeInvalidRequest {
		t.Errorf("expected invalid_request error for empty input, got %v", err)
	}
}

func TestRead_RowsNeverNil(t *testing.T) {
	p, err := Read(strings.NewReader("a,b\n"), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Rows == nil {
		t.Errorf("rows should be an empty slice, not nil")
	}
}

func TestRead_ClampsRowLimit(t *testing.T) {
	input := "a\n" + strings.Repeat("x\n", 200)
	p, err := Read(strings.NewReader(input), 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Rows) != 100 {
		t.Errorf("expected preview clamped to 100 rows, got %d", len(p.Rows))
	}
	if !p.Truncated {
		t.Errorf("expected truncated=true")
	}
}
