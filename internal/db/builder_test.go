package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_Simple(t *testing.T) {
	idx := NewIndex("test-idx").
		Prefix("item:").
		Tag("id").
		Numeric("year").
		MustBuild()

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.Name != "test-idx" {
		t.Errorf("name = %q, want test-idx", idx.Name)
	}
	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	if idx.Fields[0].Name != "id" || idx.Fields[0].Type != IndexFieldTag {
		t.Errorf("field[0] = %+v, want id TAG", idx.Fields[0])
	}
	if idx.Fields[1].Name != "year" || idx.Fields[1].Type != IndexFieldNumeric {
		t.Errorf("field[1] = %+v, want year NUMERIC", idx.Fields[1])
	}
}

func TestIndexBuilder_JSON(t *testing.T) {
	idx := NewIndex("json-idx").
		OnJSON().
		Prefix("item:").
		Text("name").
		MustBuild()

	if idx.StorageType != StorageJSON {
		t.Errorf("storage = %q, want JSON", idx.StorageType)
	}
}

func TestIndexBuilder_TextWithKeyword(t *testing.T) {
	idx := NewIndex("kw-idx").
		TextWithKeyword("name", "name_keyword", true).
		MustBuild()

	if len(idx.Fields) != 2 {
		t.Fatalf("fields count = %d, want 2", len(idx.Fields))
	}
	text, kw := idx.Fields[0], idx.Fields[1]
	if text.Type != IndexFieldText || text.Key() != "name" {
		t.Errorf("text field = %+v", text)
	}
	if kw.Type != IndexFieldTag || kw.Name != "name" || kw.Key() != "name_keyword" {
		t.Errorf("keyword field = %+v", kw)
	}
	if !kw.Sortable || !kw.TagCaseSensitive {
		t.Errorf("keyword options = %+v", kw)
	}
}

func TestIndexBuilder_DateAndSortable(t *testing.T) {
	idx := NewIndex("d-idx").
		SortableNumeric("year").
		Date("created_at").
		MustBuild()

	if !idx.Fields[0].Sortable {
		t.Error("expected sortable year")
	}
	if idx.Fields[1].Type != IndexFieldDate || !idx.Fields[1].Sortable {
		t.Errorf("date field = %+v", idx.Fields[1])
	}
}

func TestIndexBuilder_MultiplePrefixes(t *testing.T) {
	idx := NewIndex("multi-idx").
		Prefix("a:", "b:", "c:").
		Tag("x").
		MustBuild()

	if len(idx.Prefixes) != 3 {
		t.Errorf("prefix count = %d, want 3", len(idx.Prefixes))
	}
}

func TestIndexBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		builder func() (*IndexDefinition, error)
		wantErr string
	}{
		{
			name: "empty name",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("").Tag("x").Build()
			},
			wantErr: "index name is required",
		},
		{
			name: "no fields",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Build()
			},
			wantErr: "at least one field",
		},
		{
			name: "invalid characters",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx with spaces").Tag("x").Build()
			},
			wantErr: "invalid characters",
		},
		{
			name: "duplicate alias",
			builder: func() (*IndexDefinition, error) {
				return NewIndex("idx").Tag("name_keyword").TextWithKeyword("name", "name_keyword", false).Build()
			},
			wantErr: "duplicate field name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx := NewIndex("my-idx").
		Prefix("item:").
		TextWithKeyword("name", "name_keyword", true).
		Date("updated_at").
		MustBuild()

	s := idx.String()
	if !strings.HasPrefix(s, "FT.CREATE ") {
		t.Errorf("expected FT.CREATE prefix, got %q", s)
	}
	if !strings.Contains(s, "name AS name_keyword TAG SORTABLE") {
		t.Errorf("missing keyword sub-field in %q", s)
	}
	if !strings.Contains(s, "updated_at NUMERIC SORTABLE") {
		t.Errorf("missing date field in %q", s)
	}
}

func TestIndexDefinition_SourceFields(t *testing.T) {
	idx := NewIndex("src-idx").
		Tag("id").
		TextWithKeyword("name", "name_keyword", true).
		TextWithKeyword("category", "category_keyword", false).
		Numeric("year").
		MustBuild()

	got := strings.Join(idx.SourceFields(), ",")
	if got != "id,name,category,year" {
		t.Errorf("SourceFields() = %q", got)
	}
}

func TestIndexBuilder_DuplicateFields(t *testing.T) {
	idx := &IndexDefinition{
		Name: "dup-idx",
		Fields: []IndexField{
			{Name: "field1", Type: IndexFieldTag},
			{Name: "field1", Type: IndexFieldNumeric},
		},
	}

	if err := idx.Validate(); err == nil {
		t.Fatal("expected error for duplicate fields")
	}
}
