package sim

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DeviceSwitch    = "pca9546"
	DeviceRegister  = "register"
	DeviceResponder = "responder"
)

type DeviceConfig struct {
	Address uint8  `yaml:"address"`
	Type    string `yaml:"type"`
	Value   uint8  `yaml:"value"`
}

// Config describes the devices attached to a simulated bus.
//
//	devices:
//	  - address: 0x73
//	    type: pca9546
//	  - address: 0x50
//	    type: responder
type Config struct {
	Devices []DeviceConfig `yaml:"devices"`
}

func DecodeConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&cfg)
	if err != nil && err != io.EOF {
		return cfg, fmt.Errorf("could not decode simulation config: %w", err)
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("could not read simulation config: %w", err)
	}
	return DecodeConfig(bytes.NewReader(data))
}

// Build attaches the configured devices to a new bus.
func (c Config) Build() (*Bus, error) {
	bus := NewBus()
	for i, d := range c.Devices {
		if d.Address > 0x7F {
			return nil, fmt.Errorf("device %d: address %#x is not a 7-bit address", i, d.Address)
		}
		switch d.Type {
		case DeviceSwitch:
			bus.Attach(d.Address, NewSwitch(d.Value))
		case DeviceRegister:
			bus.Attach(d.Address, NewRegister(d.Value))
		case DeviceResponder, "":
			bus.Attach(d.Address, Responder{})
		default:
			return nil, fmt.Errorf("device %d: unknown type %q", i, d.Type)
		}
	}
	return bus, nil
}

// DefaultConfig is a bus with just the expander at its factory address.
func DefaultConfig(expander byte) Config {
	return Config{Devices: []DeviceConfig{{Address: expander, Type: DeviceSwitch}}}
}
