// Package frontend implements the controller side of the IPC connection. It
// asks the engine for songs, pulls their audio, postprocesses it and decides
// when songs and subsongs end.
package frontend

import (
	"encoding/binary"
	"errors"
	"fmt"

	"paula/emu"
	"paula/emu/effects"
	"paula/emu/ipc"
	"paula/emu/log"
)

var modFront = log.NewModule("frontend")

// ErrCantPlay is returned by Play when the engine refuses a song.
var ErrCantPlay = errors.New("engine can't play the song")

// Writer receives the audio, as interleaved stereo frames.
type Writer interface {
	WriteFrames(frames []int16) error
}

type Song struct {
	Score  string
	Player string
	Module string
}

// SongInfo is what the engine reported about a song.
type SongInfo struct {
	PlayerName string
	ModuleName string
	FormatName string
	Subsongs   ipc.SubsongInfo
	Bytes      int64 // audio bytes played
}

type Frontend struct {
	peer *ipc.Peer
	cfg  emu.Config
	fx   *effects.Chain
	out  Writer

	// Subsong to start playing at, -1 for the song default.
	Subsong int
	// NoSongEnd asks the engine to loop subsongs forever.
	NoSongEnd bool
	// Debug asks the engine to activate its debugger.
	Debug bool

	frames    []int16
	zeroCount int64 // consecutive silent bytes
}

func New(peer *ipc.Peer, cfg emu.Config, out Writer) (*Frontend, error) {
	fx, err := effects.New(effects.Config{
		Gain:       cfg.Effects.Gain,
		UsePanning: cfg.Effects.UsePanning,
		Panning:    cfg.Effects.Panning,
		Headphones: cfg.Effects.Headphones,
	})
	if err != nil {
		return nil, err
	}
	return &Frontend{
		peer:    peer,
		cfg:     cfg,
		fx:      fx,
		out:     out,
		Subsong: -1,
		frames:  make([]int16, ipc.MaxPayloadSize/2),
	}, nil
}

// Configure sends the configuration file and the audio settings to the
// engine. It must be called before the first song.
func (f *Frontend) Configure(path string) error {
	pcfg, err := f.cfg.Paula()
	if err != nil {
		return err
	}
	led := uint32(0)
	if pcfg.LED {
		led = 1
	}
	ntsc := uint32(0)
	if pcfg.NTSC {
		ntsc = 1
	}

	if err := f.peer.SendString(ipc.MsgConfig, path); err != nil {
		return fmt.Errorf("can't send config name: %w", err)
	}
	if err := f.peer.SendU32(ipc.MsgFilter, uint32(pcfg.Filter), led); err != nil {
		return err
	}
	if err := f.peer.SendString(ipc.MsgSetResamplingMode, pcfg.Interpolator); err != nil {
		return err
	}
	if err := f.peer.SendU32(ipc.MsgSetFrequency, uint32(pcfg.Frequency)); err != nil {
		return err
	}
	return f.peer.SendU32(ipc.MsgSetNTSC, ntsc)
}

// Play plays a song, all its subsongs unless configured otherwise.
func (f *Frontend) Play(song Song) (SongInfo, error) {
	if err := f.startSong(song); err != nil {
		return SongInfo{}, err
	}

	if f.cfg.Playback.IgnoreCheck {
		if err := f.peer.SendShort(ipc.MsgIgnoreCheck); err != nil {
			return SongInfo{}, err
		}
	}
	if f.NoSongEnd {
		if err := f.peer.SendShort(ipc.MsgSongEndNotPossible); err != nil {
			return SongInfo{}, err
		}
	}
	if f.Subsong >= 0 {
		if err := f.peer.SendU32(ipc.MsgSetSubsong, uint32(f.Subsong)); err != nil {
			return SongInfo{}, err
		}
	}

	f.fx.Reset()
	f.zeroCount = 0
	return f.playLoop()
}

func (f *Frontend) startSong(song Song) error {
	if err := f.peer.SendString(ipc.MsgScore, song.Score); err != nil {
		return fmt.Errorf("can't send score name: %w", err)
	}
	if err := f.peer.SendString(ipc.MsgPlayer, song.Player); err != nil {
		return fmt.Errorf("can't send player name: %w", err)
	}
	if err := f.peer.SendString(ipc.MsgModule, song.Module); err != nil {
		return fmt.Errorf("can't send module name: %w", err)
	}
	if err := f.peer.SendToken(); err != nil {
		return fmt.Errorf("can't send token after module: %w", err)
	}

	m, err := f.peer.Receive()
	if err != nil {
		return fmt.Errorf("can't receive acknowledgement: %w", err)
	}
	switch m.Type {
	case ipc.MsgReplyCantPlay:
		if err := f.peer.ReceiveShort(ipc.MsgToken); err != nil {
			return err
		}
		modFront.InfoZ("engine refuses to play the song").String("module", song.Module).End()
		return ErrCantPlay
	case ipc.MsgReplyCanPlay:
		return f.peer.ReceiveShort(ipc.MsgToken)
	}
	return fmt.Errorf("%w: unexpected reply %v", ipc.ErrProtocol, m.Type)
}

func (f *Frontend) bytesPerSecond() int64 {
	return int64(f.cfg.Audio.Frequency) * 4
}

func (f *Frontend) playLoop() (SongInfo, error) {
	info := SongInfo{Subsongs: ipc.SubsongInfo{Min: -1, Max: -1, Cur: -1}}
	var (
		songEnd      bool // current subsong has ended
		trigger      bool // the whole song has ended
		tail         int  // bytes of the next data reply still belonging to the subsong
		subsongBytes int64
		debug        = f.Debug
	)
	pb := f.cfg.Playback
	bps := f.bytesPerSecond()

	for {
		if debug {
			if err := f.peer.SendShort(ipc.MsgActivateDebugger); err != nil {
				return info, err
			}
			debug = false
		}

		if songEnd && !trigger {
			sub := &info.Subsongs
			if !pb.OneSubsong && sub.Cur != -1 && sub.Max != -1 && sub.Cur < sub.Max {
				sub.Cur++
				songEnd = false
				subsongBytes = 0
				if err := f.peer.SendU32(ipc.MsgChangeSubsong, uint32(sub.Cur)); err != nil {
					return info, fmt.Errorf("can't change subsong: %w", err)
				}
				modFront.InfoZ("subsong").Int("cur", sub.Cur).Int("min", sub.Min).Int("max", sub.Max).End()
			} else {
				trigger = true
			}
		}

		if trigger {
			return info, f.reboot()
		}

		if err := f.peer.RequestRead(ipc.MaxPayloadSize); err != nil {
			return info, err
		}
		if err := f.peer.SendToken(); err != nil {
			return info, err
		}

		for {
			m, err := f.peer.Receive()
			if err != nil {
				return info, fmt.Errorf("can't receive events: %w", err)
			}
			if m.Type == ipc.MsgToken {
				break
			}

			switch m.Type {
			case ipc.MsgReplyData:
				playbytes := len(m.Data)
				if songEnd {
					playbytes = min(tail, len(m.Data))
					tail = 0
				}
				frames := f.decode(m.Data[:playbytes&^3])
				f.fx.Run(frames)
				if err := f.out.WriteFrames(frames); err != nil {
					return info, err
				}
				info.Bytes += int64(len(frames) * 2)

				if pb.Timeout >= 0 && !trigger && info.Bytes/bps >= int64(pb.Timeout) {
					modFront.InfoZ("song end (timeout)").Int("seconds", pb.Timeout).End()
					trigger = true
				}
				subsongBytes += int64(len(frames) * 2)
				if pb.SubsongTimeout >= 0 && !songEnd && !trigger && subsongBytes/bps >= int64(pb.SubsongTimeout) {
					modFront.InfoZ("song end (subsong timeout)").Int("seconds", pb.SubsongTimeout).End()
					songEnd = true
				}
				if f.silent(frames) {
					if !songEnd && !trigger {
						modFront.InfoZ("silence detected").Int("seconds", pb.SilenceTimeout).End()
					}
					songEnd = true
				}

			case ipc.MsgReplySongEnd:
				se, err := ipc.ParseSongEnd(m)
				if err != nil {
					return info, err
				}
				tail = int(se.TailBytes)
				if se.Happy {
					songEnd = true
				} else {
					trigger = true
				}
				modFront.InfoZ("song end").String("reason", se.Reason).Bool("happy", se.Happy).End()

			case ipc.MsgReplySubsongInfo:
				si, err := ipc.ParseSubsongInfo(m)
				if err != nil {
					return info, err
				}
				info.Subsongs = si
				modFront.InfoZ("subsong info").Int("cur", si.Cur).Int("min", si.Min).Int("max", si.Max).End()

			case ipc.MsgReplyPlayerName:
				info.PlayerName = ipc.CheckFixString(&m, ipc.MaxNameLen)
			case ipc.MsgReplyModuleName:
				info.ModuleName = ipc.CheckFixString(&m, ipc.MaxNameLen)
			case ipc.MsgReplyFormatName:
				info.FormatName = ipc.CheckFixString(&m, ipc.MaxNameLen)
			case ipc.MsgReplyMsg:
				modFront.InfoZ("message").String("msg", ipc.CheckFixString(&m, ipc.MaxNameLen)).End()

			default:
				return info, fmt.Errorf("%w: expected sound data, got %v", ipc.ErrProtocol, m.Type)
			}
		}
	}
}

// reboot ends the song, and waits for the engine to give the token back.
func (f *Frontend) reboot() error {
	if err := f.peer.SendShort(ipc.MsgReboot); err != nil {
		return fmt.Errorf("can't send reboot: %w", err)
	}
	if err := f.peer.SendToken(); err != nil {
		return err
	}
	for {
		m, err := f.peer.Receive()
		if err != nil {
			return fmt.Errorf("can't receive token after reboot: %w", err)
		}
		if m.Type == ipc.MsgToken {
			return nil
		}
	}
}

// decode converts big-endian samples.
func (f *Frontend) decode(data []byte) []int16 {
	frames := f.frames[:len(data)/2]
	for i := range frames {
		frames[i] = int16(binary.BigEndian.Uint16(data[2*i:]))
	}
	return frames
}

// silent reports whether the audio has been silent for long enough. A
// buffer is silent if less than 2% of its samples are above 1% of the full
// scale.
func (f *Frontend) silent(samples []int16) bool {
	timeout := f.cfg.Playback.SilenceTimeout
	if timeout < 0 {
		return false
	}

	size := len(samples) * 2
	loud := 0
	for _, s := range samples {
		if s == -32768 || max(s, -s) >= 32767/100 {
			loud++
			if loud >= size*2/100 {
				f.zeroCount = 0
				return false
			}
		}
	}
	f.zeroCount += int64(size)
	return f.zeroCount/f.bytesPerSecond() >= int64(timeout)
}
