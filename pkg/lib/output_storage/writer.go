package output_storage

// Write implements io.Writer so an OutputStorage can be handed to exec.Cmd
// as Stdout or Stderr. It stores a copy of p since callers may reuse it.
//
// A nil receiver swallows the write and reports success.
func (s *OutputStorage) Write(p []byte) (int, error) {
	if s == nil {
		return len(p), nil
	}
	if len(p) == 0 {
		return 0, nil
	}

	s.Append(append([]byte(nil), p...))

	return len(p), nil
}
