package hub

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/i2chub"
	"github.com/mklimuk/i2chub/expander"
	"github.com/mklimuk/i2chub/scan"
	"github.com/mklimuk/i2chub/sim"
)

// scriptedTransport replays receive bursts and collects everything sent.
type scriptedTransport struct {
	bursts [][]byte
	err    error
	out    bytes.Buffer
}

func (t *scriptedTransport) Receive(ctx context.Context, buf []byte) (int, error) {
	if len(t.bursts) == 0 {
		if t.err != nil {
			return 0, t.err
		}
		return 0, io.EOF
	}
	n := copy(buf, t.bursts[0])
	t.bursts = t.bursts[1:]
	return n, nil
}

func (t *scriptedTransport) Send(ctx context.Context, data []byte) error {
	t.out.Write(data)
	return nil
}

type MockIndicator struct {
	mock.Mock
}

func (m *MockIndicator) Set(ctx context.Context, on bool) error {
	return m.Called(ctx, on).Error(0)
}

func newConsole(bursts ...string) (*Console, *scriptedTransport, *sim.Bus, *sim.Switch) {
	t := &scriptedTransport{}
	for _, b := range bursts {
		t.bursts = append(t.bursts, []byte(b))
	}
	bus := sim.NewBus()
	sw := sim.NewSwitch(0)
	bus.Attach(expander.DefaultAddress, sw)
	return NewConsole(t, bus), t, bus, sw
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		given    byte
		expected Command
	}{
		{'c', Command{Action: ClearScreen}},
		{'o', Command{Action: LedOff}},
		{'O', Command{Action: LedOn}},
		{'r', Command{Action: ReadControlReg}},
		{'0', Command{Action: SelectPort, Port: 0}},
		{'1', Command{Action: SelectPort, Port: 1}},
		{'4', Command{Action: SelectPort, Port: 4}},
		{'5', Command{Action: Unrecognized}},
		{'l', Command{Action: Scan}},
		{'L', Command{Action: Unrecognized}},
		{'R', Command{Action: Unrecognized}},
		{'?', Command{Action: Help}},
		{'\n', Command{Action: Unrecognized}},
	}
	for _, test := range tests {
		t.Run(string(test.given), func(t *testing.T) {
			assert.Equal(t, test.expected, ParseCommand(test.given))
		})
	}
}

func TestConsole_UnrecognizedIsInert(t *testing.T) {
	known := "coOr01234l?"
	for b := 0; b < 256; b++ {
		if strings.IndexByte(known, byte(b)) >= 0 {
			continue
		}
		c, tr, bus, _ := newConsole()
		c.Dispatch(context.Background(), byte(b))
		assert.Empty(t, tr.out.String(), "byte %#x produced output", b)
		assert.Empty(t, bus.Events(), "byte %#x touched the bus", b)
	}
}

func TestConsole_SelectPort(t *testing.T) {
	c, tr, bus, sw := newConsole()
	c.Dispatch(context.Background(), '1')
	assert.Equal(t, "I2C Expander Control Reg = 1\n", tr.out.String())
	assert.Equal(t, byte(0x01), sw.Control())

	events := bus.Events()
	require.Len(t, events, 6)
	// write transaction with the mask is stopped before the read starts
	assert.Equal(t, sim.EventStart, events[0].Kind)
	assert.Equal(t, i2chub.Write, events[0].Dir)
	assert.Equal(t, sim.EventWrite, events[1].Kind)
	assert.Equal(t, byte(0x01), events[1].Data)
	assert.Equal(t, sim.EventStop, events[2].Kind)
	assert.Equal(t, sim.EventStart, events[3].Kind)
	assert.Equal(t, i2chub.Read, events[3].Dir)
	assert.Equal(t, sim.EventRead, events[4].Kind)
	assert.Equal(t, sim.EventStop, events[5].Kind)
	assert.Empty(t, bus.Violations())
}

func TestConsole_AllPorts(t *testing.T) {
	tests := []struct {
		given    byte
		expected string
	}{
		{'0', "I2C Expander Control Reg = 0\n"},
		{'1', "I2C Expander Control Reg = 1\n"},
		{'2', "I2C Expander Control Reg = 2\n"},
		{'3', "I2C Expander Control Reg = 4\n"},
		{'4', "I2C Expander Control Reg = 8\n"},
	}
	for _, test := range tests {
		t.Run(string(test.given), func(t *testing.T) {
			c, tr, _, _ := newConsole()
			c.Dispatch(context.Background(), '3')
			tr.out.Reset()
			c.Dispatch(context.Background(), test.given)
			assert.Equal(t, test.expected, tr.out.String())
		})
	}
}

func TestConsole_ReadWithoutExpander(t *testing.T) {
	tr := &scriptedTransport{}
	c := NewConsole(tr, sim.NewBus())
	c.Dispatch(context.Background(), 'r')
	c.Dispatch(context.Background(), '2')
	assert.Equal(t, "I2C Expander Control Reg = ff\nI2C Expander Control Reg = ff\n", tr.out.String())
}

func TestConsole_ExpanderAddress(t *testing.T) {
	tr := &scriptedTransport{}
	bus := sim.NewBus()
	bus.Attach(0x70, sim.NewSwitch(0x02))
	c := NewConsole(tr, bus, WithExpanderAddress(0x70))
	c.Dispatch(context.Background(), 'r')
	assert.Equal(t, "I2C Expander Control Reg = 2\n", tr.out.String())
}

func TestConsole_ClearAndHelp(t *testing.T) {
	c, tr, bus, _ := newConsole()
	c.Dispatch(context.Background(), 'c')
	assert.Equal(t, "\033[2J\033[H", tr.out.String())

	tr.out.Reset()
	c.Dispatch(context.Background(), '?')
	lines := strings.Split(strings.TrimSuffix(tr.out.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"c - Clear Screen",
		"l - I2C List Devices",
		"o - LED Off",
		"O - LED On",
		"r - Read I2C Expander Control",
		"0 - Toogle Port 1",
		"1 - Toogle Port 1",
		"2 - Toogle Port 2",
		"3 - Toogle Port 3",
	}, lines)
	assert.Empty(t, bus.Events())
}

func TestConsole_Scan(t *testing.T) {
	tr := &scriptedTransport{}
	bus := sim.NewBus()
	bus.Attach(0x50, sim.Responder{})
	c := NewConsole(tr, bus)
	c.Dispatch(context.Background(), 'l')

	lines := strings.Split(tr.out.String(), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, strings.TrimSuffix(scan.Header, "\n"), lines[0])
	for i, line := range lines[1:9] {
		if i == 5 {
			assert.Equal(t, "50:  50"+strings.Repeat(" --", 15), line)
			continue
		}
		assert.Equal(t, 16, strings.Count(line, " --"), line)
	}
	assert.Equal(t, "", lines[9])
}

func TestConsole_Indicator(t *testing.T) {
	ctx := context.Background()
	led := &MockIndicator{}
	led.On("Set", ctx, true).Return(nil).Once()
	led.On("Set", ctx, false).Return(errors.New("pin unavailable")).Once()

	tr := &scriptedTransport{}
	bus := sim.NewBus()
	c := NewConsole(tr, bus, WithIndicator(led))
	c.Dispatch(ctx, 'O')
	c.Dispatch(ctx, 'o')
	led.AssertExpectations(t)
	assert.Empty(t, tr.out.String())
	assert.Empty(t, bus.Events())
}

func TestConsole_IndicatorMissing(t *testing.T) {
	c, tr, _, _ := newConsole()
	c.Dispatch(context.Background(), 'O')
	assert.Empty(t, tr.out.String())
}

func TestConsole_ServeDispatchesFirstByte(t *testing.T) {
	c, tr, _, sw := newConsole("2r?", "x", "c")
	require.NoError(t, c.Serve(context.Background()))
	// only '2', 'x' and 'c' are dispatched
	assert.Equal(t, "I2C Expander Control Reg = 2\n\033[2J\033[H", tr.out.String())
	assert.Equal(t, byte(0x02), sw.Control())
}

func TestConsole_ServeTransportError(t *testing.T) {
	c, tr, _, _ := newConsole("r")
	tr.err = errors.New("device unplugged")
	err := c.Serve(context.Background())
	assert.ErrorContains(t, err, "device unplugged")
	assert.Equal(t, "I2C Expander Control Reg = 0\n", tr.out.String())
}

func TestConsole_ServeCanceled(t *testing.T) {
	c, tr, _, _ := newConsole("r", "r")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Serve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.out.String())
}
