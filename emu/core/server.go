// Package core implements the engine side of the IPC connection: it loads
// the songs the controller asks for, runs the emulation and streams the
// audio back, only as much as requested.
package core

import (
	"errors"
	"fmt"
	"io"

	"paula/emu"
	"paula/emu/ipc"
	"paula/emu/log"
	"paula/hw/paula"
	"paula/trace"
)

var modCore = log.NewModule("core")

// Server plays songs on behalf of a controller.
type Server struct {
	peer *ipc.Peer
	cfg  paula.Config

	amiga *emu.Amiga
	sb    SoundBuffer

	score, player, module string

	readSize int // bytes requested and not sent yet
	reboot   bool
	err      error

	replies  []reply        // sent before the next audio data
	deferred []func() error // machine commands, applied between frames
}

// reply sends one queued reply.
type reply func(p *ipc.Peer) error

func NewServer(peer *ipc.Peer) *Server {
	s := &Server{peer: peer}
	s.sb.s = s
	s.cfg, _ = emu.DefaultConfig().Paula()
	return s
}

// Run serves songs until the controller closes the connection, which is not
// an error.
func (s *Server) Run() error {
	for {
		err := s.serveSong()
		if errors.Is(err, io.EOF) {
			modCore.InfoZ("end of input, exiting").End()
			return nil
		}
		if err != nil {
			modCore.ErrorZ("fatal error").Error("err", err).End()
			return err
		}
	}
}

func (s *Server) serveSong() error {
	s.score, s.player, s.module = "", "", ""
	if err := s.handleRState(); err != nil {
		return err
	}

	if err := s.load(); err != nil {
		modCore.WarnZ("can't play").String("module", s.module).String("player", s.player).Error("err", err).End()
		if err := s.peer.SendShort(ipc.MsgReplyCantPlay); err != nil {
			return err
		}
		return s.peer.SendToken()
	}
	defer func() { s.amiga = nil }()

	if err := s.peer.SendShort(ipc.MsgReplyCanPlay); err != nil {
		return err
	}
	if err := s.peer.SendToken(); err != nil {
		return err
	}
	return s.play()
}

// load loads the trace named by the module, or by the player if there is no
// module.
func (s *Server) load() error {
	path := s.module
	if path == "" {
		path = s.player
	}
	if path == "" {
		return fmt.Errorf("no module nor player")
	}
	tr, err := trace.Open(path)
	if err != nil {
		return err
	}

	s.amiga, err = emu.PowerUp(tr, &s.sb, s.cfg)
	if err != nil {
		return err
	}
	s.sb.reset()
	s.readSize = 0
	s.reboot = false
	s.err = nil
	s.deferred = s.deferred[:0]
	s.replies = s.replies[:0]

	s.queueString(ipc.MsgReplyPlayerName, tr.Player)
	s.queueString(ipc.MsgReplyModuleName, tr.Module)
	s.queueString(ipc.MsgReplyFormatName, tr.Format)
	s.queueSubsongInfo()

	modCore.InfoZ("song loaded").String("path", path).String("score", s.score).End()
	return nil
}

func (s *Server) play() error {
	if err := s.handleRState(); err != nil {
		return err
	}
	for {
		if err := s.applyDeferred(); err != nil {
			return err
		}
		if s.reboot {
			break
		}
		if s.amiga.RunOneFrame() {
			s.songEnd()
		}
		if s.err != nil {
			return s.err
		}
	}

	// Audio produced after the reboot request is dropped.
	s.sb.reset()
	s.replies = s.replies[:0]
	modCore.InfoZ("reboot").End()
	return s.peer.SendToken()
}

func (s *Server) applyDeferred() error {
	for _, f := range s.deferred {
		if err := f(); err != nil {
			return err
		}
	}
	s.deferred = s.deferred[:0]
	return nil
}

func (s *Server) songEnd() {
	se := ipc.SongEnd{
		TailBytes: uint32(s.sb.Len()),
		Happy:     true,
		Reason:    "player",
	}
	modCore.InfoZ("song end").Int("subsong", s.amiga.Subsong()).Uint32("tail", se.TailBytes).End()
	s.replies = append(s.replies, func(p *ipc.Peer) error { return p.SendSongEnd(se) })
}

func (s *Server) queueString(t ipc.MsgType, str string) {
	if str == "" {
		return
	}
	if len(str) >= ipc.MaxNameLen {
		str = str[:ipc.MaxNameLen-1]
	}
	s.replies = append(s.replies, func(p *ipc.Peer) error { return p.SendString(t, str) })
}

func (s *Server) queueSubsongInfo() {
	si := ipc.SubsongInfo{Min: 0, Max: s.amiga.NumSubsongs() - 1, Cur: s.amiga.Subsong()}
	s.replies = append(s.replies, func(p *ipc.Peer) error { return p.SendSubsongInfo(si) })
}

// flush sends the pending replies and the buffered audio. Once the
// requested amount has been sent, the token is handed back and the next
// commands are received.
func (s *Server) flush(data []byte) {
	if s.err != nil {
		return
	}
	for _, send := range s.replies {
		if s.err = send(s.peer); s.err != nil {
			return
		}
	}
	s.replies = s.replies[:0]

	if s.err = s.peer.Send(ipc.MsgReplyData, data); s.err != nil {
		return
	}
	s.readSize -= len(data)
	if s.readSize > 0 {
		return
	}
	if s.err = s.peer.SendToken(); s.err != nil {
		return
	}
	s.err = s.handleRState()
}

// handleRState receives and handles commands until the controller hands the
// token back.
func (s *Server) handleRState() error {
	for {
		m, err := s.peer.Receive()
		if err != nil {
			return err
		}
		if m.Type == ipc.MsgToken {
			if s.amiga != nil && s.readSize == 0 && !s.reboot {
				return fmt.Errorf("%w: token without read request", ipc.ErrProtocol)
			}
			return nil
		}
		if err := s.handleCommand(m); err != nil {
			return err
		}
	}
}

func (s *Server) handleCommand(m ipc.Message) error {
	modCore.DebugZ("command").Stringer("type", m.Type).Int("size", len(m.Data)).End()

	if s.amiga == nil {
		return s.handleInitCommand(m)
	}

	switch m.Type {
	case ipc.MsgRead:
		n, err := ipc.ReadSize(m)
		if err != nil {
			return err
		}
		s.readSize = n
		s.sb.setChunk(n)

	case ipc.MsgReboot:
		s.reboot = true

	case ipc.MsgSetSubsong, ipc.MsgChangeSubsong:
		vals, err := m.U32(1)
		if err != nil {
			return err
		}
		sub := int(vals[0])
		s.deferred = append(s.deferred, func() error {
			if err := s.amiga.SetSubsong(sub); err != nil {
				modCore.WarnZ("ignoring subsong change").Error("err", err).End()
				return nil
			}
			s.queueSubsongInfo()
			return nil
		})

	case ipc.MsgSongEndNotPossible:
		s.deferred = append(s.deferred, func() error {
			s.amiga.Loop = true
			return nil
		})

	case ipc.MsgIgnoreCheck:
		modCore.InfoZ("ignoring format check").End()

	case ipc.MsgActivateDebugger:
		modCore.WarnZ("no debugger available").End()

	default:
		return s.handleSetting(m)
	}
	return nil
}

// handleInitCommand handles the commands received before a song starts.
func (s *Server) handleInitCommand(m ipc.Message) error {
	var err error
	switch m.Type {
	case ipc.MsgConfig:
		var path string
		if path, err = m.Str(); err != nil {
			return err
		}
		return s.loadConfig(path)
	case ipc.MsgScore:
		s.score, err = m.Str()
	case ipc.MsgPlayer:
		s.player, err = m.Str()
	case ipc.MsgModule:
		s.module, err = m.Str()
	default:
		return s.handleSetting(m)
	}
	return err
}

func (s *Server) loadConfig(path string) error {
	cfg := emu.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = emu.LoadConfig(path); err != nil {
			return err
		}
	}
	pcfg, err := cfg.Paula()
	if err != nil {
		return err
	}
	s.cfg = pcfg
	modCore.InfoZ("config loaded").String("path", path).End()
	return nil
}

// handleSetting handles the commands changing the audio settings, valid at
// any time. The filter applies at once, the other settings restart the
// current subsong.
func (s *Server) handleSetting(m ipc.Message) error {
	cfg := s.cfg
	switch m.Type {
	case ipc.MsgFilter:
		vals, err := m.U32(2)
		if err != nil {
			return err
		}
		if cfg.Filter, err = paula.FilterModelFromID(vals[0]); err != nil {
			return err
		}
		cfg.LED = vals[1] != 0
		s.cfg = cfg
		if s.amiga != nil {
			s.deferred = append(s.deferred, func() error {
				s.amiga.Paula.SetFilter(cfg.Filter, cfg.LED)
				return nil
			})
		}
		return nil

	case ipc.MsgSetNTSC:
		vals, err := m.U32(1)
		if err != nil {
			return err
		}
		cfg.NTSC = vals[0] != 0
	case ipc.MsgSetFrequency:
		vals, err := m.U32(1)
		if err != nil {
			return err
		}
		cfg.Frequency = int(vals[0])
	case ipc.MsgSetResamplingMode:
		mode, err := m.Str()
		if err != nil {
			return err
		}
		cfg.Interpolator = mode
	default:
		return fmt.Errorf("%w: unexpected %v command", ipc.ErrProtocol, m.Type)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	s.cfg = cfg
	if s.amiga != nil {
		s.deferred = append(s.deferred, func() error {
			if err := s.amiga.Paula.Configure(cfg); err != nil {
				return err
			}
			s.amiga.Reset()
			return nil
		})
	}
	return nil
}
