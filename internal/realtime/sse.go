package realtime

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one dispatched server-sent event.
type sseEvent struct {
	Name string
	Data string
}

// sseReader splits a text/event-stream body into events. Comment lines and
// the id and retry fields are ignored; multi-line data is joined with "\n".
type sseReader struct {
	r     *bufio.Reader
	event sseEvent
	err   error
	done  bool
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next reads the next event. It returns false at the end of the stream; Err
// tells a clean end from a failure.
func (s *sseReader) Next() bool {
	if s.done {
		return false
	}

	var (
		name    string
		data    []string
		hasData bool
	)
	flush := func() bool {
		s.event = sseEvent{Name: name, Data: strings.Join(data, "\n")}
		return true
	}

	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			s.done = true
			if err != io.EOF {
				s.err = err
				return false
			}
			// an unterminated last line still counts
			if line = strings.TrimRight(line, "\r\n"); line != "" {
				name, data, hasData = s.field(line, name, data, hasData)
			}
			if hasData {
				return flush()
			}
			return false
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				return flush()
			}
			name = ""
			continue
		}
		name, data, hasData = s.field(line, name, data, hasData)
	}
}

func (s *sseReader) field(line, name string, data []string, hasData bool) (string, []string, bool) {
	if strings.HasPrefix(line, ":") {
		return name, data, hasData
	}
	key, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch key {
	case "event":
		name = value
	case "data":
		data = append(data, value)
		hasData = true
	}
	return name, data, hasData
}

func (s *sseReader) Event() sseEvent { return s.event }

func (s *sseReader) Err() error { return s.err }
