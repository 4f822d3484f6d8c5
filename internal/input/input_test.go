package input

import (
	"bufio"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Input
	}{
		{"quit", "q", Input{Quit: true}},
		{"ctrl-c", "\x03", Input{Quit: true}},
		{"pause twice", "  ", Input{Pause: 2}},
		{"speed keys", "++-", Input{Faster: 2, Slower: 1}},
		{"arrows", "\x1b[A\x1b[B\x1b[B", Input{Faster: 1, Slower: 2}},
		{"other arrows ignored", "\x1b[C\x1b[D", Input{}},
		{"restart", "r", Input{Restart: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse([]byte(tt.in))
			if got.Quit != tt.want.Quit || got.Pause != tt.want.Pause || got.Faster != tt.want.Faster ||
				got.Slower != tt.want.Slower || got.Restart != tt.want.Restart {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if string(got.Pressed) != tt.in {
				t.Errorf("expected pressed %q, got %q", tt.in, got.Pressed)
			}
		})
	}
}

func TestReadInputDrainsStream(t *testing.T) {
	s := StartStream(bufio.NewReader(strings.NewReader("+q")))

	var got Input
	deadline := time.Now().Add(time.Second)
	for !s.Closed() && time.Now().Before(deadline) {
		in := ReadInput(s)
		got.Pressed = append(got.Pressed, in.Pressed...)
		got.Faster += in.Faster
		got.Quit = got.Quit || in.Quit
		time.Sleep(time.Millisecond)
	}

	if !s.Closed() {
		t.Fatalf("expected the stream to close at EOF")
	}
	if !got.Quit || got.Faster != 1 || string(got.Pressed) != "+q" {
		t.Errorf("expected quit and one speed-up from %q, got %+v", "+q", got)
	}
}
