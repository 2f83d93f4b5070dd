package ipc

//go:generate go tool stringer -type=MsgType -trimprefix=Msg

// MsgType identifies a message on the wire. Commands flow from the controller
// to the engine, replies the other way.
type MsgType uint32

const (
	MsgInvalid MsgType = iota
	MsgConfig
	MsgScore
	MsgPlayer
	MsgModule
	MsgRead
	MsgReboot
	MsgSetSubsong
	MsgIgnoreCheck
	MsgSongEndNotPossible
	MsgSetNTSC
	MsgFilter
	MsgChangeSubsong
	MsgActivateDebugger
	MsgToken
	MsgReplyMsg
	MsgReplyCantPlay
	MsgReplyCanPlay
	MsgReplySongEnd
	MsgReplyCrash
	MsgReplySubsongInfo
	MsgReplyPlayerName
	MsgReplyModuleName
	MsgReplyFormatName
	MsgReplyData
	MsgSetFrequency
	MsgSetResamplingMode
)

// Valid reports whether t is a known message type.
func (t MsgType) Valid() bool {
	return t > MsgInvalid && t <= MsgSetResamplingMode
}
