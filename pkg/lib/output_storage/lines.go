package output_storage

import "bytes"

// SubscribeLines follows the stream like Subscribe but re-frames chunks into
// lines. Line terminators ("\n" or "\r\n") are stripped; a trailing partial
// line is delivered when the stream stops.
func (s *OutputStorage) SubscribeLines(capacity int) <-chan string {
	chunks := s.Subscribe(capacity)
	lines := make(chan string, capacity)

	go func() {
		defer close(lines)

		var pending []byte
		for chunk := range chunks {
			pending = append(pending, chunk...)
			for {
				i := bytes.IndexByte(pending, '\n')
				if i < 0 {
					break
				}
				lines <- string(bytes.TrimSuffix(pending[:i], []byte("\r")))
				pending = pending[i+1:]
			}
		}
		if len(pending) > 0 {
			lines <- string(bytes.TrimSuffix(pending, []byte("\r")))
		}
	}()

	return lines
}
