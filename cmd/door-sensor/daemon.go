package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/door-sensor/internal/clock"
	"github.com/sweeney/door-sensor/internal/debounce"
	"github.com/sweeney/door-sensor/internal/gpio"
	"github.com/sweeney/door-sensor/internal/indicator"
	"github.com/sweeney/door-sensor/internal/mqtt"
	"github.com/sweeney/door-sensor/internal/power"
	"github.com/sweeney/door-sensor/internal/sensor"
	"github.com/sweeney/door-sensor/internal/status"
)

// daemonConfig holds everything the driver loop needs. Button, LED,
// Publisher and ConnStatus are optional.
type daemonConfig struct {
	Settings   sensor.Settings
	Door       gpio.Input
	Button     gpio.Input
	LED        gpio.Output
	Notifier   sensor.Notifier
	Publisher  mqtt.Publisher
	ConnStatus mqtt.ConnectionStatus
	Tracker    *status.Tracker
	Clock      clock.Clock
	Start      time.Time
	Debounce   time.Duration
	Poll       time.Duration
	ShortSleep time.Duration
	Heartbeat  time.Duration
	Logger     logrus.FieldLogger
}

// daemon runs the per-cycle driver: debounce, button edge, state machine,
// indicator, status and heartbeat, in that order.
type daemon struct {
	log        logrus.FieldLogger
	door       *debounce.Input
	button     *debounce.Input
	machine    *sensor.Machine
	indicator  *indicator.Indicator
	tracker    *status.Tracker
	publisher  mqtt.Publisher
	connStatus mqtt.ConnectionStatus
	scheduler  power.Scheduler
	heartbeat  time.Duration
	now        func() time.Time

	buttonHeld    bool
	sleeping      bool
	lastHeartbeat time.Time
}

type noLED struct{}

func (noLED) Set(bool) {}

func newDaemon(cfg daemonConfig) *daemon {
	log := cfg.Logger
	window := clock.Duration(cfg.Debounce)

	d := &daemon{
		log:        log.WithField("system", "driver"),
		tracker:    cfg.Tracker,
		publisher:  cfg.Publisher,
		connStatus: cfg.ConnStatus,
		heartbeat:  cfg.Heartbeat,
		now:        wallClock(cfg.Start, cfg.Clock),
	}
	d.lastHeartbeat = d.now()

	// The contact is closed to ground while the door is shut.
	doorOpen := gpio.NewSampler(gpio.Invert(cfg.Door), log.WithField("system", "gpio").WithField("line", "door"))
	d.door = debounce.New(doorOpen, cfg.Clock, window)
	gates := []power.Gate{d.door}

	if cfg.Button != nil {
		pressed := gpio.NewSampler(cfg.Button, log.WithField("system", "gpio").WithField("line", "button"))
		d.button = debounce.New(pressed, cfg.Clock, window)
		gates = append(gates, d.button)
	}

	var out indicator.Output = noLED{}
	if cfg.LED != nil {
		out = gpio.NewLED(cfg.LED, log.WithField("system", "gpio").WithField("line", "led"))
	}
	d.indicator = indicator.New(out, cfg.Clock)

	d.machine = sensor.NewMachine(sensor.Config{
		Settings: cfg.Settings,
		Notifier: cfg.Notifier,
		Display:  d.indicator,
		Clock:    cfg.Clock,
		Logger:   log.WithField("system", "sensor"),
	})
	gates = append(gates, d.machine)

	d.scheduler = power.Scheduler{
		Poll:       cfg.Poll,
		ShortSleep: cfg.ShortSleep,
		Gates:      gates,
	}
	return d
}

// cycle runs one pass of the driver and returns how long to wait before
// the next one.
func (d *daemon) cycle() time.Duration {
	d.door.Update()

	if d.button != nil {
		d.button.Update()
		pressed := d.button.State()
		if pressed && !d.buttonHeld {
			d.log.Info("pause button pressed")
			d.machine.TogglePause()
		}
		d.buttonHeld = pressed
	}

	open := d.door.State()
	d.machine.Update(open)
	d.indicator.Pulse()

	wait, sleeping := d.scheduler.Next()
	if sleeping != d.sleeping {
		d.log.WithField("sleeping", sleeping).Debug("sleep eligibility changed")
		d.sleeping = sleeping
	}

	d.updateStatus(open, sleeping)
	d.checkHeartbeat()
	return wait
}

func (d *daemon) updateStatus(open, sleeping bool) {
	if d.tracker == nil {
		return
	}
	d.tracker.Update(status.Sensor{
		Phase:        d.machine.Phase(),
		Display:      d.indicator.State(),
		Open:         d.machine.Open(),
		Paused:       d.machine.Paused(),
		Input:        open,
		SleepAllowed: sleeping,
		Counts:       d.machine.CountsSnapshot(),
	})
	if d.connStatus != nil {
		d.tracker.SetMQTTConnected(d.connStatus.IsConnected())
	}
}

func (d *daemon) checkHeartbeat() {
	if d.heartbeat <= 0 {
		return
	}
	t := d.now()
	if t.Sub(d.lastHeartbeat) < d.heartbeat {
		return
	}
	d.lastHeartbeat = t

	counts := d.machine.CountsSnapshot()
	d.log.WithFields(logrus.Fields{
		"phase":          d.machine.Phase(),
		"opened":         counts.Opened,
		"notified_open":  counts.NotifiedOpen,
		"notified_close": counts.NotifiedClose,
	}).Info("heartbeat")
	d.publishSystem("HEARTBEAT", "", false)
}

func (d *daemon) startup() {
	d.publishSystem("STARTUP", "", true)
}

func (d *daemon) shutdown(reason string) {
	d.indicator.SetState(indicator.Closed)
	d.indicator.Pulse()
	d.publishSystem("SHUTDOWN", reason, true)
}

func (d *daemon) publishSystem(event, reason string, retained bool) {
	if d.publisher == nil {
		return
	}
	e := mqtt.SystemEvent{
		Timestamp: d.now(),
		Event:     event,
		Reason:    reason,
		Retained:  retained,
	}
	if d.tracker != nil {
		e.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), event, reason)
	}
	err := d.publisher.PublishSystem(e)
	switch {
	case mqtt.IsQueued(err):
		d.log.WithField("event", event).Info("system event queued until the broker reconnects")
		return
	case err != nil:
		d.log.WithError(err).WithField("event", event).Warn("failed to publish system event")
		return
	}
	d.log.WithField("event", event).Debug("published system event")
}

// loop drives cycles until a signal arrives. after supplies the wait
// between cycles.
func (d *daemon) loop(after func(time.Duration) <-chan time.Time, sig <-chan os.Signal) error {
	for {
		wait := d.cycle()
		select {
		case s := <-sig:
			name := signalName(s)
			d.log.WithField("signal", name).Info("shutting down")
			d.shutdown(name)
			return nil
		case <-after(wait):
		}
	}
}
