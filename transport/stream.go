package transport

import (
	"context"
	"fmt"
	"io"
)

// Stream is a transport over any reader/writer pair (stdio, pipes, sockets).
type Stream struct {
	r io.Reader
	w io.Writer
}

func NewStream(r io.Reader, w io.Writer) *Stream {
	return &Stream{r: r, w: w}
}

func (s *Stream) Receive(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.r.Read(buf)
}

func (s *Stream) Send(ctx context.Context, data []byte) error {
	_, err := s.w.Write(data)
	if err != nil {
		return fmt.Errorf("could not send %d bytes: %w", len(data), err)
	}
	return nil
}
