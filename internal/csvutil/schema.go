package csvutil

// Schema is the append-only column list of one write. Columns are never
// removed or reordered; rows written before a column appeared are simply
// short and read back as empty for it.
type Schema struct {
	columns []string
	index   map[string]int
	grown   bool
}

// NewSchema starts a schema from the first record's columns.
func NewSchema(columns []string) *Schema {
	s := &Schema{index: make(map[string]int, len(columns))}
	for _, name := range columns {
		s.add(name)
	}
	return s
}

// Observe appends any column of rec not seen before and returns how many
// were added.
func (s *Schema) Observe(rec *Record) int {
	added := 0
	for _, name := range rec.names {
		if _, ok := s.index[name]; !ok {
			s.add(name)
			added++
		}
	}
	if added > 0 {
		s.grown = true
	}
	return added
}

func (s *Schema) add(name string) {
	s.index[name] = len(s.columns)
	s.columns = append(s.columns, name)
}

// Columns returns a copy of the column names in order.
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

func (s *Schema) Len() int { return len(s.columns) }

// Grown reports whether any column was added after the schema was created,
// which means the header already written is stale.
func (s *Schema) Grown() bool { return s.grown }

// Row lays rec out in column order, reusing dst. Columns absent from rec are
// empty strings.
func (s *Schema) Row(rec *Record, dst []string) []string {
	dst = dst[:0]
	for _, name := range s.columns {
		v, ok := rec.values[name]
		if !ok {
			dst = append(dst, "")
			continue
		}
		dst = append(dst, v.String())
	}
	return dst
}
