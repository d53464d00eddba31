package protocol

// PacketType identifies the payload carried by a packet.
type PacketType uint16

const (
	PacketHelo         PacketType = 0x01 // Client greeting with device name and icon
	PacketBye          PacketType = 0x02 // Client is going away
	PacketButton       PacketType = 0x03 // Button or axis state change
	PacketMouse        PacketType = 0x04 // Mouse position
	PacketPing         PacketType = 0x05 // Keep-alive
	PacketBroadcast    PacketType = 0x06 // Reserved, not implemented
	PacketNotification PacketType = 0x07 // On-screen notification
	PacketBlob         PacketType = 0x08 // Raw passthrough data
	PacketLog          PacketType = 0x09 // Remote log line
	PacketAction       PacketType = 0x0A // Builtin command or named action
	PacketDebug        PacketType = 0xFF // Reserved, rejected by Parse
)

// packetTypeLast is one past the highest type Parse accepts.
const packetTypeLast = PacketAction + 1

// Valid reports whether Parse accepts the type.
func (pt PacketType) Valid() bool {
	return pt >= PacketHelo && pt < packetTypeLast
}

// String returns the string representation of the packet type.
func (pt PacketType) String() string {
	switch pt {
	case PacketHelo:
		return "HELO"
	case PacketBye:
		return "BYE"
	case PacketButton:
		return "BUTTON"
	case PacketMouse:
		return "MOUSE"
	case PacketPing:
		return "PING"
	case PacketBroadcast:
		return "BROADCAST"
	case PacketNotification:
		return "NOTIFICATION"
	case PacketBlob:
		return "BLOB"
	case PacketLog:
		return "LOG"
	case PacketAction:
		return "ACTION"
	case PacketDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ButtonFlags modify how a BUTTON packet is interpreted.
type ButtonFlags uint16

const (
	ButtonUseName    ButtonFlags = 0x0001 // Map and button names follow the fixed fields
	ButtonDown       ButtonFlags = 0x0002
	ButtonUp         ButtonFlags = 0x0004
	ButtonUseAmount  ButtonFlags = 0x0008 // Amount field is meaningful
	ButtonQueue      ButtonFlags = 0x0010 // Deliver as a queued action
	ButtonNoRepeat   ButtonFlags = 0x0020
	ButtonVKey       ButtonFlags = 0x0040 // Code is a virtual key
	ButtonAxis       ButtonFlags = 0x0080
	ButtonAxisSingle ButtonFlags = 0x0100 // Axis reported once, then cleared
	ButtonUnicode    ButtonFlags = 0x0200
)

// Has returns true if the flags contain the specified flag.
func (bf ButtonFlags) Has(flag ButtonFlags) bool {
	return bf&flag != 0
}

// MouseFlags modify how a MOUSE packet is interpreted.
type MouseFlags uint8

const (
	MouseAbsolute MouseFlags = 0x01
)

// Has returns true if the flags contain the specified flag.
func (mf MouseFlags) Has(flag MouseFlags) bool {
	return mf&flag != 0
}

// IconType identifies the image format of an attached icon.
type IconType uint8

const (
	IconNone IconType = 0x00
	IconJPEG IconType = 0x01
	IconPNG  IconType = 0x02
	IconGIF  IconType = 0x03
)

// String returns the string representation of the icon type.
func (it IconType) String() string {
	switch it {
	case IconNone:
		return "none"
	case IconJPEG:
		return "jpeg"
	case IconPNG:
		return "png"
	case IconGIF:
		return "gif"
	default:
		return "unknown"
	}
}

// LogLevel is the severity carried by a LOG packet.
type LogLevel uint8

const (
	LogDebug   LogLevel = 0
	LogInfo    LogLevel = 1
	LogNotice  LogLevel = 2
	LogWarning LogLevel = 3
	LogError   LogLevel = 4
	LogSevere  LogLevel = 5
	LogFatal   LogLevel = 6
	LogNone    LogLevel = 7
)

// ActionType selects how the message of an ACTION packet is executed.
type ActionType uint8

const (
	ActionExecBuiltin ActionType = 0x01 // Message is a builtin command
	ActionButton      ActionType = 0x02 // Message is a button or action name
)

// String returns the string representation of the action type.
func (at ActionType) String() string {
	switch at {
	case ActionExecBuiltin:
		return "builtin"
	case ActionButton:
		return "button"
	default:
		return "unknown"
	}
}
