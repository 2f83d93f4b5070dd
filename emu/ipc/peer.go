// Package ipc implements the framed half-duplex protocol spoken between the
// audio engine and its controller.
//
// Every message is an 8-byte header, type and payload size as big-endian
// uint32, followed by the payload. Only one side may send at a time: sending
// a TOKEN hands the turn to the other side.
package ipc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"paula/emu/log"
)

const (
	HeaderSize     = 8
	MaxMessageSize = 4096
	MaxPayloadSize = MaxMessageSize - HeaderSize
)

// ErrProtocol is wrapped by all errors reporting a misuse of the protocol,
// by either side. The connection can't be used after such an error.
var ErrProtocol = errors.New("protocol error")

//go:generate go tool stringer -type=State -trimprefix=State

// State is the half-duplex state of a peer.
type State uint8

const (
	StateInitial State = iota
	StateReceive       // waiting for the other side, sending is forbidden.
	StateSend          // owning the token, receiving is forbidden.
)

type Message struct {
	Type MsgType
	Data []byte
}

// A Peer is one end of a connection. A process owns one peer per
// connection, it is not safe for concurrent use.
type Peer struct {
	name  string
	r     io.Reader
	w     io.Writer
	state State

	hdr [HeaderSize]byte
	out [MaxMessageSize]byte
}

func NewPeer(name string, r io.Reader, w io.Writer) *Peer {
	return &Peer{name: name, r: r, w: w}
}

func (p *Peer) State() State { return p.state }

func (p *Peer) protoErr(format string, args ...any) error {
	err := fmt.Errorf("%s: %w: %s", p.name, ErrProtocol, fmt.Sprintf(format, args...))
	log.ModIPC.ErrorZ("protocol violation").String("peer", p.name).Error("err", err).End()
	return err
}

// Send writes a message of type t with the given payload. Oversize messages
// are rejected before anything is written.
func (p *Peer) Send(t MsgType, data []byte) error {
	if p.state == StateReceive {
		return p.protoErr("sending %v in receive state", t)
	}
	if !t.Valid() {
		return p.protoErr("unknown message type %d", uint32(t))
	}
	if len(data) > MaxPayloadSize {
		return p.protoErr("%v message too long: %d bytes", t, len(data))
	}

	msg := p.out[:HeaderSize+len(data)]
	binary.BigEndian.PutUint32(msg[0:], uint32(t))
	binary.BigEndian.PutUint32(msg[4:], uint32(len(data)))
	copy(msg[HeaderSize:], data)

	p.state = StateSend
	if t == MsgToken {
		p.state = StateReceive
	}

	log.ModIPC.DebugZ("send").String("peer", p.name).Stringer("type", t).Int("size", len(data)).End()
	if _, err := p.w.Write(msg); err != nil {
		return fmt.Errorf("%s: send %v: %w", p.name, t, err)
	}
	return nil
}

// SendShort sends a message without payload.
func (p *Peer) SendShort(t MsgType) error {
	return p.Send(t, nil)
}

// SendToken hands the turn to the other side.
func (p *Peer) SendToken() error {
	return p.Send(MsgToken, nil)
}

// SendString sends s as a NUL-terminated string.
func (p *Peer) SendString(t MsgType, s string) error {
	if len(s)+1 > MaxPayloadSize {
		return p.protoErr("%v string too long: %d bytes", t, len(s))
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return p.Send(t, buf)
}

// SendU32 sends a payload made of big-endian uint32 values.
func (p *Peer) SendU32(t MsgType, vals ...uint32) error {
	buf := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		buf = binary.BigEndian.AppendUint32(buf, v)
	}
	return p.Send(t, buf)
}

// Receive blocks until a full message has been read. io.EOF is returned,
// unwrapped, if the other side closed the connection between two messages.
func (p *Peer) Receive() (Message, error) {
	if p.state == StateSend {
		return Message{}, p.protoErr("receiving in send state")
	}
	p.state = StateReceive

	if _, err := io.ReadFull(p.r, p.hdr[:]); err != nil {
		if err == io.EOF {
			return Message{}, io.EOF
		}
		return Message{}, fmt.Errorf("%s: receive header: %w", p.name, err)
	}

	t := MsgType(binary.BigEndian.Uint32(p.hdr[0:]))
	size := binary.BigEndian.Uint32(p.hdr[4:])
	if !t.Valid() {
		return Message{}, p.protoErr("unknown message type %d", uint32(t))
	}
	if size > MaxPayloadSize {
		return Message{}, p.protoErr("%v message too long: %d bytes", t, size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(p.r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Message{}, fmt.Errorf("%s: receive %v payload: %w", p.name, t, err)
	}

	if t == MsgToken {
		p.state = StateSend
	}
	log.ModIPC.DebugZ("receive").String("peer", p.name).Stringer("type", t).Uint32("size", size).End()
	return Message{Type: t, Data: data}, nil
}

// ReceiveShort receives a message and checks its type.
func (p *Peer) ReceiveShort(want MsgType) error {
	m, err := p.Receive()
	if err != nil {
		return err
	}
	if m.Type != want {
		return p.protoErr("got %v, want %v", m.Type, want)
	}
	return nil
}

// Str returns the payload as a string. The payload must be exactly the
// string followed by its NUL terminator.
func (m Message) Str() (string, error) {
	if len(m.Data) == 0 || bytes.IndexByte(m.Data, 0) != len(m.Data)-1 {
		return "", fmt.Errorf("%w: malformed %v string", ErrProtocol, m.Type)
	}
	return string(m.Data[:len(m.Data)-1]), nil
}

// U32 returns the payload as n big-endian uint32 values.
func (m Message) U32(n int) ([]uint32, error) {
	if len(m.Data) != 4*n {
		return nil, fmt.Errorf("%w: %v payload is %d bytes, want %d", ErrProtocol, m.Type, len(m.Data), 4*n)
	}
	vals := make([]uint32, n)
	for i := range vals {
		vals[i] = binary.BigEndian.Uint32(m.Data[4*i:])
	}
	return vals, nil
}

// CheckFixString sanitizes a string payload in place, and returns the string
// without its terminator. The string is truncated to maxLen-1 bytes and the
// payload resized to end right after the first NUL. Fixes are logged.
func CheckFixString(m *Message, maxLen int) string {
	if maxLen < 1 {
		maxLen = 1
	}
	if len(m.Data) == 0 {
		log.ModIPC.WarnZ("zero string detected").Stringer("type", m.Type).End()
		m.Data = []byte{0}
	}

	safe := bytes.IndexByte(m.Data[:min(len(m.Data), maxLen)], 0)
	switch {
	case safe >= 0:
	case len(m.Data) >= maxLen:
		log.ModIPC.WarnZ("too long a string").Stringer("type", m.Type).Int("max", maxLen).End()
		safe = maxLen - 1
	default:
		safe = len(m.Data)
	}

	if len(m.Data) != safe+1 {
		log.ModIPC.WarnZ("string size does not match").Stringer("type", m.Type).
			Int("size", len(m.Data)).Int("len", safe).End()
		fixed := make([]byte, safe+1)
		copy(fixed, m.Data[:safe])
		m.Data = fixed
	}
	return string(m.Data[:safe])
}
