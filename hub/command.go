package hub

import "fmt"

type Action int

const (
	Unrecognized Action = iota
	ClearScreen
	LedOff
	LedOn
	ReadControlReg
	SelectPort
	Scan
	Help
)

func (a Action) String() string {
	switch a {
	case ClearScreen:
		return "clear-screen"
	case LedOff:
		return "led-off"
	case LedOn:
		return "led-on"
	case ReadControlReg:
		return "read-control-reg"
	case SelectPort:
		return "select-port"
	case Scan:
		return "scan"
	case Help:
		return "help"
	default:
		return "unrecognized"
	}
}

// Command is a decoded console command. Port is only meaningful for SelectPort,
// where 0 disables all ports.
type Command struct {
	Action Action
	Port   int
}

func (c Command) String() string {
	if c.Action == SelectPort {
		return fmt.Sprintf("%s(%d)", c.Action, c.Port)
	}
	return c.Action.String()
}

// ParseCommand maps every possible input byte to a command. Bytes without a
// meaning yield Unrecognized.
func ParseCommand(b byte) Command {
	switch b {
	case 'c':
		return Command{Action: ClearScreen}
	case 'o':
		return Command{Action: LedOff}
	case 'O':
		return Command{Action: LedOn}
	case 'r':
		return Command{Action: ReadControlReg}
	case '0', '1', '2', '3', '4':
		return Command{Action: SelectPort, Port: int(b - '0')}
	case 'l':
		return Command{Action: Scan}
	case '?':
		return Command{Action: Help}
	default:
		return Command{Action: Unrecognized}
	}
}
