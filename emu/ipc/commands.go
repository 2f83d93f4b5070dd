package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MaxNameLen bounds the strings of informational replies (player, module
// and format names, messages).
const MaxNameLen = 128

// RequestRead asks the other side for n bytes of audio. n is clamped to the
// largest payload and must be a positive multiple of the 4-byte frame size.
func (p *Peer) RequestRead(n int) error {
	n = min(n, MaxPayloadSize)
	if n <= 0 || n%4 != 0 {
		return p.protoErr("invalid read size %d", n)
	}
	return p.SendU32(MsgRead, uint32(n))
}

// ReadSize decodes a READ command.
func ReadSize(m Message) (int, error) {
	vals, err := m.U32(1)
	if err != nil {
		return 0, err
	}
	n := int(vals[0])
	if n <= 0 || n%4 != 0 || n > MaxPayloadSize {
		return 0, fmt.Errorf("%w: invalid read size %d", ErrProtocol, n)
	}
	return n, nil
}

// SongEnd is the payload of a SONG_END reply.
type SongEnd struct {
	TailBytes uint32 // bytes of the next DATA reply still belonging to the song
	Happy     bool   // false if the song ended on an error
	Reason    string
}

// Bytes returns the wire payload of se.
func (se SongEnd) Bytes() []byte {
	status := uint32(1)
	if se.Happy {
		status = 0
	}
	buf := make([]byte, 8, 8+len(se.Reason)+1)
	binary.BigEndian.PutUint32(buf[0:], se.TailBytes)
	binary.BigEndian.PutUint32(buf[4:], status)
	buf = append(buf, se.Reason...)
	return append(buf, 0)
}

func (p *Peer) SendSongEnd(se SongEnd) error {
	return p.Send(MsgReplySongEnd, se.Bytes())
}

func ParseSongEnd(m Message) (SongEnd, error) {
	if len(m.Data) < 9 {
		return SongEnd{}, fmt.Errorf("%w: illegal song end reply (%d bytes)", ErrProtocol, len(m.Data))
	}
	reason := m.Data[8:]
	if bytes.IndexByte(reason, 0) != len(reason)-1 {
		return SongEnd{}, fmt.Errorf("%w: broken reason string with song end notice", ErrProtocol)
	}
	return SongEnd{
		TailBytes: binary.BigEndian.Uint32(m.Data[0:]),
		Happy:     binary.BigEndian.Uint32(m.Data[4:]) == 0,
		Reason:    string(reason[:len(reason)-1]),
	}, nil
}

// SubsongInfo is the payload of a SUBSONG_INFO reply.
type SubsongInfo struct {
	Min, Max, Cur int
}

// Bytes returns the wire payload of si.
func (si SubsongInfo) Bytes() []byte {
	buf := make([]byte, 0, 12)
	for _, v := range []int{si.Min, si.Max, si.Cur} {
		buf = binary.BigEndian.AppendUint32(buf, uint32(v))
	}
	return buf
}

func (p *Peer) SendSubsongInfo(si SubsongInfo) error {
	return p.Send(MsgReplySubsongInfo, si.Bytes())
}

func ParseSubsongInfo(m Message) (SubsongInfo, error) {
	vals, err := m.U32(3)
	if err != nil {
		return SubsongInfo{}, err
	}
	return SubsongInfo{Min: int(vals[0]), Max: int(vals[1]), Cur: int(vals[2])}, nil
}
