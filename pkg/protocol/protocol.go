// Package protocol implements the binary serial protocol used by the PC
// companion tool to inspect and drive the calculator.
//
// Frame format:
//
//	[SYNC:1][CMD:1][LEN:2][PAYLOAD:LEN][CRC:2]
//	- SYNC: 0xAA (frame start marker)
//	- CMD: Command byte
//	- LEN: Payload length (uint16, little-endian)
//	- PAYLOAD: Variable length data
//	- CRC: CRC16-CCITT of [CMD][LEN][PAYLOAD]
//
// Response format is identical, with a status byte in place of CMD.
// Text payloads are ASCII; lists are newline-separated.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/storage"
)

const (
	SyncByte = 0xAA

	// MaxPayload bounds the payload length accepted by ReadFrame.
	MaxPayload = 4096
	// HeaderSize is SYNC, CMD and LEN.
	HeaderSize = 4
	// Overhead is the frame size without payload.
	Overhead = HeaderSize + 2

	// Command codes (PC → Device)
	CmdGetHistory      = 0x01
	CmdClearHistory    = 0x02
	CmdGetRegisters    = 0x03
	CmdEvaluate        = 0x04
	CmdSaveHistory     = 0x05
	CmdGetStorageStats = 0x07
	CmdPing            = 0x08
	CmdGetVersion      = 0x10
	CmdDiscover        = 0x11

	// Response status codes (Device → PC)
	StatusOK              = 0x00
	StatusError           = 0x01
	StatusInvalidCmd      = 0x02
	StatusInvalidData     = 0x03
	StatusNotFound        = 0x04
	StatusNoSpace         = 0x05
	StatusVersionMismatch = 0x06
	StatusCRCError        = 0x07

	// Firmware version reported by CmdGetVersion.
	FirmwareMajor = 0
	FirmwareMinor = 2

	discoverReply = "calcpad"
)

var (
	ErrInvalidFrame = errors.New("invalid frame")
	ErrCRCMismatch  = errors.New("CRC mismatch")
)

// Calculator is the part of the application reachable over serial.
type Calculator interface {
	// History returns the non-empty history entries, oldest first.
	History() []string
	ClearHistory() error
	SaveHistory() error
	// Registers returns one formatted line per register.
	Registers() []string
	// Evaluate submits expr as if typed and returns the formatted result.
	Evaluate(expr string) (string, error)
}

// StatsSource reports flash usage.
type StatsSource interface {
	GetStats() (*storage.Stats, error)
}

// Handler processes protocol commands.
type Handler struct {
	calc  Calculator
	stats StatsSource
	log   *slog.Logger
}

// NewHandler creates a new protocol handler. stats may be nil.
func NewHandler(calc Calculator, stats StatsSource, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		calc:  calc,
		stats: stats,
		log:   log,
	}
}

// Frame represents a protocol frame.
type Frame struct {
	Cmd     uint8
	Payload []byte
}

// Response represents a protocol response.
type Response struct {
	Status  uint8
	Payload []byte
}

// FrameSize returns the full size of the frame starting at buf[0], once the
// header is available. ok is false while the header is incomplete.
func FrameSize(buf []byte) (size int, ok bool, err error) {
	if len(buf) < HeaderSize {
		return 0, false, nil
	}
	if buf[0] != SyncByte {
		return 0, false, ErrInvalidFrame
	}
	length := int(binary.LittleEndian.Uint16(buf[2:4]))
	if length > MaxPayload {
		return 0, false, ErrInvalidFrame
	}
	return Overhead + length, true, nil
}

// ReadFrame reads and validates a frame from the reader.
func ReadFrame(r io.Reader) (*Frame, error) {
	sync := make([]byte, 1)
	if _, err := io.ReadFull(r, sync); err != nil {
		return nil, err
	}
	if sync[0] != SyncByte {
		return nil, ErrInvalidFrame
	}

	// cmd + len
	header := make([]byte, 3)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	cmd := header[0]
	length := binary.LittleEndian.Uint16(header[1:])
	if length > MaxPayload {
		return nil, ErrInvalidFrame
	}

	var payload []byte
	if length > 0 {
		payload = make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, err
		}
	}

	crcBytes := make([]byte, 2)
	if _, err := io.ReadFull(r, crcBytes); err != nil {
		return nil, err
	}
	receivedCRC := binary.LittleEndian.Uint16(crcBytes)

	calculatedCRC := calcCRC(append(header, payload...))
	if receivedCRC != calculatedCRC {
		return nil, ErrCRCMismatch
	}

	return &Frame{
		Cmd:     cmd,
		Payload: payload,
	}, nil
}

// WriteResponse writes a response frame to the writer.
func WriteResponse(w io.Writer, resp *Response) error {
	_, err := w.Write(encode(resp.Status, resp.Payload))
	return err
}

// WriteFrame writes a request frame (for testing/PC side).
func WriteFrame(w io.Writer, frame *Frame) error {
	_, err := w.Write(encode(frame.Cmd, frame.Payload))
	return err
}

func encode(code uint8, payload []byte) []byte {
	payloadLen := uint16(len(payload))
	buf := make([]byte, 0, Overhead+int(payloadLen))

	buf = append(buf, SyncByte, code)
	buf = binary.LittleEndian.AppendUint16(buf, payloadLen)
	buf = append(buf, payload...)

	// CRC of code + len + payload
	return binary.LittleEndian.AppendUint16(buf, calcCRC(buf[1:]))
}

// Handle processes a command frame and returns a response.
func (h *Handler) Handle(frame *Frame) *Response {
	var resp *Response
	switch frame.Cmd {
	case CmdPing:
		resp = h.handlePing(frame.Payload)
	case CmdGetHistory:
		resp = h.handleGetHistory()
	case CmdClearHistory:
		resp = h.handleClearHistory()
	case CmdGetRegisters:
		resp = h.handleGetRegisters()
	case CmdEvaluate:
		resp = h.handleEvaluate(frame.Payload)
	case CmdSaveHistory:
		resp = h.handleSaveHistory()
	case CmdGetStorageStats:
		resp = h.handleGetStorageStats()
	case CmdGetVersion:
		resp = h.handleGetVersion()
	case CmdDiscover:
		resp = &Response{Status: StatusOK, Payload: []byte(discoverReply)}
	default:
		resp = &Response{Status: StatusInvalidCmd}
	}
	h.log.Debug("serial command",
		"cmd", CommandName(frame.Cmd),
		"in", len(frame.Payload),
		"status", StatusName(resp.Status),
		"out", len(resp.Payload))
	return resp
}

// handlePing responds with the same payload (echo).
func (h *Handler) handlePing(payload []byte) *Response {
	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleGetHistory returns the history, oldest first, one entry per line.
func (h *Handler) handleGetHistory() *Response {
	return &Response{
		Status:  StatusOK,
		Payload: []byte(strings.Join(h.calc.History(), "\n")),
	}
}

// handleClearHistory empties the history and deletes its file.
func (h *Handler) handleClearHistory() *Response {
	if err := h.calc.ClearHistory(); err != nil {
		h.log.Warn("clear history", "err", err)
		return &Response{Status: StatusError}
	}
	return &Response{Status: StatusOK}
}

// handleGetRegisters returns "M1 = value" lines for M1..M4.
func (h *Handler) handleGetRegisters() *Response {
	return &Response{
		Status:  StatusOK,
		Payload: []byte(strings.Join(h.calc.Registers(), "\n")),
	}
}

// handleEvaluate submits the payload as an input line.
// Payload: [expression:ASCII]
// Response: result text, or the error message with StatusInvalidData.
func (h *Handler) handleEvaluate(payload []byte) *Response {
	if len(payload) == 0 || !isPrintable(payload) {
		return &Response{Status: StatusInvalidData}
	}
	result, err := h.calc.Evaluate(string(payload))
	if err != nil {
		return &Response{Status: StatusInvalidData, Payload: []byte(err.Error())}
	}
	return &Response{Status: StatusOK, Payload: []byte(result)}
}

// handleSaveHistory writes pending history immediately.
func (h *Handler) handleSaveHistory() *Response {
	if err := h.calc.SaveHistory(); err != nil {
		h.log.Warn("save history", "err", err)
		return &Response{Status: StatusError}
	}
	return &Response{Status: StatusOK}
}

// handleGetStorageStats returns storage statistics.
// Response: [Total:4][Used:4][Free:4][FileCount:1]
func (h *Handler) handleGetStorageStats() *Response {
	if h.stats == nil {
		return &Response{Status: StatusNotFound}
	}
	stats, err := h.stats.GetStats()
	if err != nil {
		return &Response{Status: StatusError}
	}

	payload := make([]byte, 13)
	binary.LittleEndian.PutUint32(payload[0:], uint32(stats.TotalSpace))
	binary.LittleEndian.PutUint32(payload[4:], uint32(stats.UsedSpace))
	binary.LittleEndian.PutUint32(payload[8:], uint32(stats.FreeSpace))
	payload[12] = uint8(stats.FileCount)

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleGetVersion returns firmware and settings version info.
// Response: [FirmwareVersionMajor:1][FirmwareVersionMinor:1][SettingsVersion:2]
func (h *Handler) handleGetVersion() *Response {
	payload := make([]byte, 4)
	payload[0] = FirmwareMajor
	payload[1] = FirmwareMinor
	binary.LittleEndian.PutUint16(payload[2:], config.CurrentVersion)

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return false
		}
	}
	return true
}

// CommandName returns a short name for a command code.
func CommandName(cmd uint8) string {
	switch cmd {
	case CmdGetHistory:
		return "GetHist"
	case CmdClearHistory:
		return "ClrHist"
	case CmdGetRegisters:
		return "GetRegs"
	case CmdEvaluate:
		return "Eval"
	case CmdSaveHistory:
		return "SaveHist"
	case CmdGetStorageStats:
		return "GetStor"
	case CmdPing:
		return "Ping"
	case CmdGetVersion:
		return "GetVer"
	case CmdDiscover:
		return "Discvr"
	default:
		return fmt.Sprintf("Cmd%02X", cmd)
	}
}

// StatusName returns a short name for a status code.
func StatusName(status uint8) string {
	switch status {
	case StatusOK:
		return "OK"
	case StatusError:
		return "Err"
	case StatusInvalidCmd:
		return "InvCmd"
	case StatusInvalidData:
		return "InvData"
	case StatusNotFound:
		return "NotFnd"
	case StatusNoSpace:
		return "NoSpace"
	case StatusVersionMismatch:
		return "VerMis"
	case StatusCRCError:
		return "CRC"
	default:
		return fmt.Sprintf("Sts%02X", status)
	}
}

// calcCRC calculates CRC16-CCITT.
// Polynomial: 0x1021, Initial: 0xFFFF
func calcCRC(data []byte) uint16 {
	var crc uint16 = 0xFFFF

	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}

	return crc
}
