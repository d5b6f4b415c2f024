package csvutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		content string
		opts    ReadOptions
		want    []map[string]string
	}{
		{
			name:    "header from first line",
			content: "id|name\n1|alpha\n2|beta\n",
			want: []map[string]string{
				{"id": "1", "name": "alpha"},
				{"id": "2", "name": "beta"},
			},
		},
		{
			name:    "explicit header",
			content: "1|alpha\n2|beta\n",
			opts:    ReadOptions{Header: []string{"id", "name"}},
			want: []map[string]string{
				{"id": "1", "name": "alpha"},
				{"id": "2", "name": "beta"},
			},
		},
		{
			name:    "skip leading lines",
			content: "exported by tool\ngenerated today\nid|name\n1|alpha\n",
			opts:    ReadOptions{SkipLines: 2},
			want:    []map[string]string{{"id": "1", "name": "alpha"}},
		},
		{
			name:    "bom stripped",
			content: "\xEF\xBB\xBFid|name\n1|alpha\n",
			want:    []map[string]string{{"id": "1", "name": "alpha"}},
		},
		{
			name:    "nul bytes stripped",
			content: "id|na\x00me\n1|al\x00\x00pha\n",
			want:    []map[string]string{{"id": "1", "name": "alpha"}},
		},
		{
			name:    "custom delimiter",
			content: "id,name\n1,\"a,b\"\n",
			opts:    ReadOptions{Delimiter: ','},
			want:    []map[string]string{{"id": "1", "name": "a,b"}},
		},
		{
			name:    "short row padded",
			content: "id|name|city\n1|alpha\n",
			want:    []map[string]string{{"id": "1", "name": "alpha", "city": ""}},
		},
		{
			name:    "projection",
			content: "id|name|city\n1|alpha|oslo\n",
			opts:    ReadOptions{Fields: []string{"city", "id"}},
			want:    []map[string]string{{"city": "oslo", "id": "1"}},
		},
		{
			name:    "latin1 decoding",
			content: "name\ncaf\xe9\n",
			opts:    ReadOptions{Encoding: "latin1"},
			want:    []map[string]string{{"name": "café"}},
		},
		{
			name:    "empty file",
			content: "",
			want:    nil,
		},
		{
			name:    "header only",
			content: "id|name\n",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTestFile(t, "in.csv", tt.content)
			rows, err := Read(path, tt.opts)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			got := readAll(t, rows)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRead_ColumnOrder(t *testing.T) {
	path := writeTestFile(t, "in.csv", "c|a|b\n1|2|3\n")

	rows, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	rec, err := rows.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if got, want := rec.Names(), []string{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got, want := rows.Header(), []string{"c", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Header() = %v, want %v", got, want)
	}
	if rows.BytesRead() == 0 {
		t.Error("BytesRead() = 0 after reading a record")
	}
}

func TestRead_MissingFileSurfacesOnNext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")

	rows, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v, want nil until iteration starts", err)
	}
	_, err = rows.Next()
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Next() error = %v, want fs.ErrNotExist", err)
	}
}

func TestRead_ProjectionMissingColumn(t *testing.T) {
	path := writeTestFile(t, "in.csv", "id|name\n1|alpha\n")

	rows, err := Read(path, ReadOptions{Fields: []string{"id", "city"}})
	if err != nil {
		t.Fatalf("Read() error = %v, want lazy failure", err)
	}
	_, err = rows.Next()

	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("Next() error = %v, want *MissingColumnError", err)
	}
	if missing.Column != "city" {
		t.Errorf("Column = %q, want %q", missing.Column, "city")
	}
	if !reflect.DeepEqual(missing.Available, []string{"id", "name"}) {
		t.Errorf("Available = %v, want [id name]", missing.Available)
	}
	if _, err := rows.Next(); err != missing {
		t.Errorf("second Next() error = %v, want the same sticky error", err)
	}
}

func TestRead_InvalidProjection(t *testing.T) {
	tests := []struct {
		name   string
		fields []string
	}{
		{name: "empty name", fields: []string{"id", ""}},
		{name: "duplicate", fields: []string{"id", "id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read("unused.csv", ReadOptions{Fields: tt.fields})
			if !errors.Is(err, ErrInvalidProjection) {
				t.Errorf("error = %v, want ErrInvalidProjection", err)
			}
		})
	}
}

func TestRead_OptionErrors(t *testing.T) {
	if _, err := Read("unused.csv", ReadOptions{Encoding: "no-such-encoding"}); !errors.Is(err, ErrUnknownEncoding) {
		t.Errorf("unknown encoding error = %v, want ErrUnknownEncoding", err)
	}
	if _, err := Read("unused.csv", ReadOptions{SkipLines: -1}); err == nil {
		t.Error("negative SkipLines accepted")
	}
}

func TestRead_FieldSizeLimit(t *testing.T) {
	big := strings.Repeat("x", 64)
	path := writeTestFile(t, "in.csv", "id|blob\n1|"+big+"\n")

	rows, err := Read(path, ReadOptions{MaxFieldSize: 32})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	_, err = rows.Next()
	if !errors.Is(err, ErrFieldTooLarge) {
		t.Fatalf("Next() error = %v, want ErrFieldTooLarge", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 || pe.Field != 2 {
		t.Errorf("ParseError = %+v, want line 2 field 2", pe)
	}

	rows, err = Read(path, ReadOptions{MaxFieldSize: 32, UseMaxSize: true})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	rec, err := rows.Next()
	if err != nil {
		t.Fatalf("Next() with UseMaxSize error = %v", err)
	}
	if v, _ := rec.Get("blob"); v.String() != big {
		t.Errorf("blob length = %d, want %d", len(v.String()), len(big))
	}
}

func TestRead_DefaultFieldSizeLimit(t *testing.T) {
	big := strings.Repeat("y", DefaultMaxFieldSize+1)
	path := writeTestFile(t, "in.csv", "blob\n"+big+"\n")

	rows, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if _, err := rows.Next(); !errors.Is(err, ErrFieldTooLarge) {
		t.Errorf("Next() error = %v, want ErrFieldTooLarge", err)
	}
}

func TestRead_TooManyFields(t *testing.T) {
	path := writeTestFile(t, "in.csv", "id|name\n1|alpha|extra\n")

	rows, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if _, err := rows.Next(); !errors.Is(err, ErrTooManyFields) {
		t.Errorf("Next() error = %v, want ErrTooManyFields", err)
	}
}

func TestRows_NotRestartable(t *testing.T) {
	path := writeTestFile(t, "in.csv", "id\n1\n")

	rows, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if _, err := rows.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := rows.Next(); err != io.EOF {
			t.Errorf("Next() after end = %v, want io.EOF", err)
		}
	}
	if got := readAll(t, rows); got != nil {
		t.Errorf("ranging a drained stream yielded %v", got)
	}
}

func TestRows_AllResumes(t *testing.T) {
	path := writeTestFile(t, "in.csv", "id\n1\n2\n3\n")

	rows, err := Read(path, ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	defer rows.Close()

	for rec, err := range rows.All() {
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if v, _ := rec.Get("id"); v.String() != "1" {
			t.Fatalf("first id = %q, want %q", v.String(), "1")
		}
		break
	}

	got := readAll(t, rows)
	want := []map[string]string{{"id": "2"}, {"id": "3"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("resumed = %v, want %v", got, want)
	}
}

func TestRows_CloseBeforeStart(t *testing.T) {
	rows, err := Read(filepath.Join(t.TempDir(), "never-opened.csv"), ReadOptions{})
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := rows.Next(); err != io.EOF {
		t.Errorf("Next() after Close = %v, want io.EOF", err)
	}
}
