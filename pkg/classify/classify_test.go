package classify

import (
	"testing"

	"github.com/datenblick/datenblick/pkg/api"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		artifact api.Artifact
		want     api.Category
	}{
		{
			name:     "png only",
			artifact: api.Artifact{PNG: "aGVsbG8="},
			want:     api.CategoryImage,
		},
		{
			name:     "figure only",
			artifact: api.Artifact{Figure: map[string]any{"axes": 1}},
			want:     api.CategoryFigure,
		},
		{
			name:     "show only",
			artifact: api.Artifact{Show: map[string]any{"data": []any{}}},
			want:     api.CategoryInteractiveChart,
		},
		{
			name:     "table",
			artifact: api.Artifact{Table: &api.Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}}},
			want:     api.CategoryTabular,
		},
		{
			name:     "single-column table is tabular",
			artifact: api.Artifact{Table: &api.Table{Columns: []string{"count"}, Rows: [][]string{{"3"}, {"7"}}}},
			want:     api.CategoryTabular,
		},
		{
			name:     "scalar text",
			artifact: api.Artifact{Text: "42"},
			want:     api.CategoryRaw,
		},
		{
			name:     "empty artifact",
			artifact: api.Artifact{},
			want:     api.CategoryRaw,
		},
		{
			// Priority order: a cached PNG beats the interactive
			// capability, never the other way around.
			name:     "png and show prefers image",
			artifact: api.Artifact{PNG: "aGVsbG8=", Show: map[string]any{"data": []any{}}},
			want:     api.CategoryImage,
		},
		{
			name:     "png and figure prefers image",
			artifact: api.Artifact{PNG: "aGVsbG8=", Figure: map[string]any{}},
			want:     api.CategoryImage,
		},
		{
			name:     "figure and show prefers figure",
			artifact: api.Artifact{Figure: map[string]any{}, Show: map[string]any{}},
			want:     api.CategoryFigure,
		},
		{
			name:     "show and table prefers interactive chart",
			artifact: api.Artifact{Show: map[string]any{}, Table: &api.Table{}},
			want:     api.CategoryInteractiveChart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.artifact)
			if got.Category != tt.want {
				t.Errorf("Classify() category = %q, want %q", got.Category, tt.want)
			}
		})
	}
}

func TestAll_PreservesOrderAndNonNilEmpty(t *testing.T) {
	in := []api.Artifact{
		{Text: "first"},
		{PNG: "aGVsbG8="},
		{Table: &api.Table{Columns: []string{"a"}}},
	}

	got := All(in)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantOrder := []api.Category{api.CategoryRaw, api.CategoryImage, api.CategoryTabular}
	for i, want := range wantOrder {
		if got[i].Category != want {
			t.Errorf("artifact %d category = %q, want %q", i, got[i].Category, want)
		}
	}

	empty := All(nil)
	if empty == nil {
		t.Error("All(nil) must return a non-nil empty slice")
	}
	if len(empty) != 0 {
		t.Errorf("All(nil) len = %d, want 0", len(empty))
	}
}
