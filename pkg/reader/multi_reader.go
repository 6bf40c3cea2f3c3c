package reader

// MultiReader concatenates the line sequences of an ordered list of
// files. Line numbers restart at 1 for each file; every line carries
// its originating path. Files are opened lazily as the sequence
// reaches them, so a missing file surfaces at its turn, not before.
type MultiReader struct {
	paths  []string
	index  int
	cur    *LineReader
	line   Line
	err    error
	closed bool
}

// OpenFiles creates a reader over the given files in order. An empty
// list yields an empty sequence.
func OpenFiles(paths []string) *MultiReader {
	return &MultiReader{paths: paths}
}

// Next advances to the next line across file boundaries
func (m *MultiReader) Next() bool {
	if m.err != nil || m.closed {
		return false
	}

	for {
		if m.cur == nil {
			if m.index >= len(m.paths) {
				return false
			}

			cur, err := Open(m.paths[m.index])
			if err != nil {
				m.err = err
				return false
			}
			m.cur = cur
			m.index++
		}

		if m.cur.Next() {
			m.line = m.cur.Line()
			return true
		}

		if err := m.cur.Err(); err != nil {
			m.cur.Close()
			m.cur = nil
			m.err = err
			return false
		}

		if err := m.cur.Close(); err != nil {
			m.cur = nil
			m.err = err
			return false
		}
		m.cur = nil
	}
}

// Line returns the current line
func (m *MultiReader) Line() Line {
	return m.line
}

// Err returns the terminal error, nil after a clean end of input
func (m *MultiReader) Err() error {
	return m.err
}

// Close releases the file currently open, if any
func (m *MultiReader) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	if m.cur != nil {
		cur := m.cur
		m.cur = nil
		return cur.Close()
	}

	return nil
}
