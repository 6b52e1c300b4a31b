package messages

// Message is the base interface for everything posted to the display surface.
type Message interface {
	Type() string
}

// MessageType constants for type identification
const (
	TypeShowText     = "ShowText"
	TypeAppendText   = "AppendText"
	TypeSetLoading   = "SetLoading"
	TypeOpenSettings = "OpenSettings"
	TypeShowWindow   = "ShowWindow"
)

// ShowText replaces the window content and brings the window to front.
type ShowText struct {
	Text string
}

func (m ShowText) Type() string { return TypeShowText }

// AppendText appends one streamed fragment (or an error line).
type AppendText struct {
	Text string
}

func (m AppendText) Type() string { return TypeAppendText }

// SetLoading toggles the busy indicator.
type SetLoading struct {
	Loading bool
}

func (m SetLoading) Type() string { return TypeSetLoading }

// OpenSettings asks the surface to open the settings window.
type OpenSettings struct{}

func (m OpenSettings) Type() string { return TypeOpenSettings }

// ShowWindow brings the window to front without touching its content.
type ShowWindow struct{}

func (m ShowWindow) Type() string { return TypeShowWindow }

// TrayAction is a user intent raised from the tray menu.
type TrayAction int

const (
	TrayQuit TrayAction = iota
	TrayOpenSettings
	TrayShowWindow
)

func (a TrayAction) String() string {
	switch a {
	case TrayQuit:
		return "Quit"
	case TrayOpenSettings:
		return "OpenSettings"
	case TrayShowWindow:
		return "ShowWindow"
	}
	return "Unknown"
}

// Sink accepts display messages from any goroutine without blocking.
type Sink interface {
	Post(m Message)
}
