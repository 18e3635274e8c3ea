// Package config loads daemon configuration from command-line flags and an
// optional TOML settings file. Flags given explicitly override the file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/sweeney/door-sensor/internal/gpio"
	"github.com/sweeney/door-sensor/internal/notify"
)

const (
	defaultDescription  = "door"
	defaultNotifyDelay  = 5
	defaultBroker       = "tcp://localhost:1883"
	defaultMQTTClientID = "door-sensor"
)

// options are the command-line flags.
type options struct {
	ConfigFile string `long:"config" description:"Path to a TOML settings file"`
	Debug      bool   `long:"debug" description:"Enable debug logging"`
	PrintState bool   `long:"print-state" description:"Print the current sensor reading and exit"`

	Description string   `long:"description" description:"Name of the monitored door used in notifications"`
	NotifyDelay int      `long:"notify-delay" description:"Minutes the door must stay open before notifying"`
	Methods     []string `long:"notify" description:"Notification method, LOG or MQTT (repeatable)"`

	Broker      string `long:"broker" description:"MQTT broker address"`
	ClientID    string `long:"client-id" description:"MQTT client id"`
	Topic       string `long:"topic" description:"MQTT topic for door events"`
	SystemTopic string `long:"system-topic" description:"MQTT topic for lifecycle events"`

	Chip      string `long:"chip" description:"GPIO chip"`
	PinSensor int    `long:"pin-sensor" description:"BCM pin number of the door contact"`
	PinButton int    `long:"pin-button" description:"BCM pin number of the pause button (-1 to disable)"`
	PinLED    int    `long:"pin-led" description:"BCM pin number of the indicator LED (-1 to disable)"`

	Poll       time.Duration `long:"poll" default:"50ms" description:"Driver loop interval while awake"`
	Debounce   time.Duration `long:"debounce" default:"100ms" description:"Debounce window for the contact and button"`
	ShortSleep time.Duration `long:"short-sleep" default:"1s" description:"Loop interval while sleep is allowed (0 to disable)"`
	Heartbeat  time.Duration `long:"heartbeat" default:"15m" description:"Heartbeat interval (0 to disable)"`

	HTTPAddr string `long:"http" default:":8080" description:"HTTP status address (empty to disable)"`
}

// fileSettings is the layout of the TOML settings file.
type fileSettings struct {
	Description            string   `toml:"description"`
	NotifyOpenDelayMinutes *int     `toml:"notify_open_delay_minutes"`
	NotificationMethods    []string `toml:"notification_methods"`
	MQTT                   struct {
		Broker      string `toml:"broker"`
		ClientID    string `toml:"client_id"`
		Topic       string `toml:"topic"`
		SystemTopic string `toml:"system_topic"`
	} `toml:"mqtt"`
}

// Settings is the monitoring configuration. It is a value object; copies
// are independent.
type Settings struct {
	Description        string
	NotifyDelayMinutes int
	Methods            []notify.Method
}

// NotifyOpenDelayMinutes returns the open notification delay.
func (s Settings) NotifyOpenDelayMinutes() int {
	return s.NotifyDelayMinutes
}

// HasMethod reports whether m is among the configured methods.
func (s Settings) HasMethod(m notify.Method) bool {
	for _, have := range s.Methods {
		if have == m {
			return true
		}
	}
	return false
}

// GPIO holds the pin assignment.
type GPIO struct {
	Chip      string
	PinSensor int
	PinButton int
	PinLED    int
}

// Timing holds loop and debounce intervals.
type Timing struct {
	Poll       time.Duration
	Debounce   time.Duration
	ShortSleep time.Duration
	Heartbeat  time.Duration
}

// MQTT holds broker settings.
type MQTT struct {
	Broker      string
	ClientID    string
	Topic       string
	SystemTopic string
}

// Config is the fully resolved daemon configuration.
type Config struct {
	Debug      bool
	PrintState bool
	ConfigFile string
	Settings   Settings
	GPIO       GPIO
	Timing     Timing
	MQTT       MQTT
	HTTPAddr   string

	unknownMethods []string
}

// Load parses args (without the program name) and the settings file they
// name. A help request is returned as a *flags.Error with Type ErrHelp.
func Load(args []string) (*Config, error) {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	setDefault(parser, "chip", gpio.DefaultChip)
	setDefault(parser, "pin-sensor", strconv.Itoa(gpio.DefaultPinSensor))
	setDefault(parser, "pin-button", strconv.Itoa(gpio.DefaultPinButton))
	setDefault(parser, "pin-led", strconv.Itoa(gpio.DefaultPinLED))
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	var file fileSettings
	if opts.ConfigFile != "" {
		data, err := os.ReadFile(opts.ConfigFile)
		if err != nil {
			return nil, errors.Wrap(err, "read settings file")
		}
		if file, err = parseFile(data); err != nil {
			return nil, err
		}
	}

	isSet := func(long string) bool {
		o := parser.FindOptionByLongName(long)
		return o != nil && o.IsSet()
	}

	cfg := merge(opts, file, isSet)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefault fills a flag default from a constant before parsing.
func setDefault(parser *flags.Parser, long, value string) {
	if o := parser.FindOptionByLongName(long); o != nil {
		o.Default = []string{value}
	}
}

func parseFile(data []byte) (fileSettings, error) {
	var file fileSettings
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSettings{}, errors.Wrap(err, "parse settings file")
	}
	return file, nil
}

// merge resolves the final configuration: explicit flags, then the file,
// then built-in defaults.
func merge(opts options, file fileSettings, isSet func(long string) bool) *Config {
	pick := func(long, flagValue, fileValue, def string) string {
		if isSet(long) {
			return flagValue
		}
		if fileValue != "" {
			return fileValue
		}
		return def
	}

	delay := defaultNotifyDelay
	switch {
	case isSet("notify-delay"):
		delay = opts.NotifyDelay
	case file.NotifyOpenDelayMinutes != nil:
		delay = *file.NotifyOpenDelayMinutes
	}

	rawMethods := []string{string(notify.MethodLog)}
	switch {
	case len(opts.Methods) > 0:
		rawMethods = opts.Methods
	case len(file.NotificationMethods) > 0:
		rawMethods = file.NotificationMethods
	}
	var unknown []string
	methods := make([]notify.Method, 0, len(rawMethods))
	for _, m := range rawMethods {
		if !notify.KnownMethod(m) {
			unknown = append(unknown, m)
			continue
		}
		methods = append(methods, notify.ParseMethod(m))
	}

	return &Config{
		Debug:      opts.Debug,
		PrintState: opts.PrintState,
		ConfigFile: opts.ConfigFile,
		Settings: Settings{
			Description:        pick("description", opts.Description, file.Description, defaultDescription),
			NotifyDelayMinutes: delay,
			Methods:            methods,
		},
		GPIO: GPIO{
			Chip:      opts.Chip,
			PinSensor: opts.PinSensor,
			PinButton: opts.PinButton,
			PinLED:    opts.PinLED,
		},
		Timing: Timing{
			Poll:       opts.Poll,
			Debounce:   opts.Debounce,
			ShortSleep: opts.ShortSleep,
			Heartbeat:  opts.Heartbeat,
		},
		MQTT: MQTT{
			Broker:      pick("broker", opts.Broker, file.MQTT.Broker, defaultBroker),
			ClientID:    pick("client-id", opts.ClientID, file.MQTT.ClientID, defaultMQTTClientID),
			Topic:       pick("topic", opts.Topic, file.MQTT.Topic, ""),
			SystemTopic: pick("system-topic", opts.SystemTopic, file.MQTT.SystemTopic, ""),
		},
		HTTPAddr:       opts.HTTPAddr,
		unknownMethods: unknown,
	}
}

// Validate checks the resolved configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Settings.NotifyDelayMinutes < 0 {
		return errors.Errorf("notify delay must not be negative, got %d", c.Settings.NotifyDelayMinutes)
	}
	if len(c.unknownMethods) > 0 {
		return errors.Errorf("unknown notification method %q", c.unknownMethods[0])
	}
	if len(c.Settings.Methods) == 0 {
		return errors.New("at least one notification method is required")
	}
	for _, m := range c.Settings.Methods {
		if !notify.KnownMethod(string(m)) {
			return errors.Errorf("unknown notification method %q", m)
		}
	}
	if c.Settings.HasMethod(notify.MethodMQTT) && c.MQTT.Broker == "" {
		return errors.New("mqtt notification requires a broker")
	}
	if c.Timing.Poll <= 0 {
		return errors.Errorf("poll interval must be positive, got %v", c.Timing.Poll)
	}
	if c.Timing.Debounce <= 0 {
		return errors.Errorf("debounce window must be positive, got %v", c.Timing.Debounce)
	}
	if c.Timing.ShortSleep < 0 || c.Timing.Heartbeat < 0 {
		return errors.New("short-sleep and heartbeat intervals must not be negative")
	}
	if c.GPIO.PinSensor < 0 {
		return errors.Errorf("sensor pin must not be negative, got %d", c.GPIO.PinSensor)
	}
	return nil
}

// MethodNames returns the configured methods as strings.
func (s Settings) MethodNames() []string {
	names := make([]string, len(s.Methods))
	for i, m := range s.Methods {
		names[i] = string(m)
	}
	return names
}

// IsHelp reports whether err is a go-flags help request.
func IsHelp(err error) bool {
	e, ok := err.(*flags.Error)
	return ok && e.Type == flags.ErrHelp
}
