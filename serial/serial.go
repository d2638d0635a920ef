// Package serial feeds protocol frames from the USB CDC port to a
// protocol.Handler. It is polled from the control loop and never blocks.
package serial

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/protocol"
)

// Port is the byte stream the frames arrive on. machine.Serial satisfies it.
type Port interface {
	io.Writer
	io.ByteReader
	Buffered() int
}

type Serial struct {
	port     Port
	handler  *protocol.Handler
	log      *slog.Logger
	inIndex  int
	inBuffer [protocol.Overhead + 512]byte
}

func NewSerial(port Port, handler *protocol.Handler, log *slog.Logger) *Serial {
	if log == nil {
		log = slog.Default()
	}
	return &Serial{
		port:    port,
		handler: handler,
		log:     log,
	}
}

// Poll consumes every byte currently buffered and answers each complete frame.
// It returns the number of frames handled.
func (s *Serial) Poll() int {
	handled := 0
	for s.port.Buffered() > 0 {
		b, err := s.port.ReadByte()
		if err != nil {
			break
		}
		if s.feed(b) {
			handled++
		}
	}
	return handled
}

func (s *Serial) feed(b byte) bool {
	// Anything before a sync byte is line noise
	if s.inIndex == 0 && b != protocol.SyncByte {
		return false
	}
	s.inBuffer[s.inIndex] = b
	s.inIndex++

	size, ok, err := protocol.FrameSize(s.inBuffer[:s.inIndex])
	if err != nil || (ok && size > len(s.inBuffer)) {
		s.log.Debug("dropping oversized frame", "len", s.inIndex)
		s.reply(&protocol.Response{Status: protocol.StatusInvalidData})
		s.inIndex = 0
		return false
	}
	if !ok || s.inIndex < size {
		return false
	}

	frame, err := protocol.ReadFrame(bytes.NewReader(s.inBuffer[:size]))
	s.inIndex = 0
	if err != nil {
		s.log.Debug("bad frame", "err", err)
		s.reply(&protocol.Response{Status: protocol.StatusCRCError})
		return false
	}
	s.reply(s.handler.Handle(frame))
	return true
}

func (s *Serial) reply(resp *protocol.Response) {
	if err := protocol.WriteResponse(s.port, resp); err != nil {
		s.log.Warn("serial write failed", "err", err)
	}
}
