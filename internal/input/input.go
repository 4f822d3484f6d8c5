// Package input turns raw terminal bytes into viewer commands.
package input

import "bufio"

// Input holds the keys pressed since the previous frame.
type Input struct {
	Quit    bool
	Pause   int // Number of pause toggles
	Faster  int // Number of speed-up presses
	Slower  int // Number of slow-down presses
	Restart bool
	Pressed []byte
}

// Stream delivers input bytes via a channel.
type Stream struct {
	ch     chan byte
	closed bool
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r *bufio.Reader) *Stream {
	s := &Stream{ch: make(chan byte, 128)}
	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// ReadInput drains all available bytes from the stream without blocking.
func ReadInput(s *Stream) Input {
	var buf []byte

drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}

	return Parse(buf)
}

// Parse decodes a batch of key bytes. Arrow up/down are handled as
// faster/slower.
func Parse(buf []byte) Input {
	in := Input{Pressed: buf}

	for i := 0; i < len(buf); i++ {
		b := buf[i]

		// CSI sequence: ESC [ <code>
		if b == '\x1b' && i+2 < len(buf) && buf[i+1] == '[' {
			switch buf[i+2] {
			case 'A':
				in.Faster++
			case 'B':
				in.Slower++
			}
			i += 2
			continue
		}

		switch b {
		case 'q', 'Q', '\x03':
			in.Quit = true
		case ' ', 'p', 'P':
			in.Pause++
		case '+', '=':
			in.Faster++
		case '-', '_':
			in.Slower++
		case 'r', 'R':
			in.Restart = true
		}
	}
	return in
}
