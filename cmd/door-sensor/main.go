// Command door-sensor watches a door contact on GPIO, drives the status LED
// and notifies when the door has been left open.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sweeney/door-sensor/internal/clock"
	"github.com/sweeney/door-sensor/internal/config"
	"github.com/sweeney/door-sensor/internal/gpio"
	"github.com/sweeney/door-sensor/internal/mqtt"
	"github.com/sweeney/door-sensor/internal/notify"
	"github.com/sweeney/door-sensor/internal/status"
	"github.com/sweeney/door-sensor/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("fatal")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	chip, err := gpio.OpenChip(cfg.GPIO.Chip)
	if err != nil {
		return errors.Wrap(err, "init gpio")
	}
	defer chip.Close()

	door, err := chip.Input(cfg.GPIO.PinSensor)
	if err != nil {
		return errors.Wrap(err, "open sensor line")
	}
	defer door.Close()

	var button gpio.Input
	if cfg.GPIO.PinButton >= 0 {
		line, err := chip.Input(cfg.GPIO.PinButton)
		if err != nil {
			return errors.Wrap(err, "open button line")
		}
		defer line.Close()
		button = line
	}

	if cfg.PrintState {
		return printState(os.Stdout, door, button)
	}

	var led gpio.Output
	if cfg.GPIO.PinLED >= 0 {
		line, err := chip.Output(cfg.GPIO.PinLED)
		if err != nil {
			return errors.Wrap(err, "open led line")
		}
		defer line.Close()
		led = line
	}

	clk := clock.NewSystem()
	start := time.Now()
	now := wallClock(start, clk)

	var (
		publisher  mqtt.Publisher
		connStatus mqtt.ConnectionStatus
	)
	notifiers := notify.Multi{}
	for _, method := range cfg.Settings.Methods {
		switch method {
		case notify.MethodMQTT:
			if publisher == nil {
				rp, err := mqtt.NewRealPublisher(mqtt.Options{
					Broker:      cfg.MQTT.Broker,
					ClientID:    cfg.MQTT.ClientID,
					Topic:       cfg.MQTT.Topic,
					SystemTopic: cfg.MQTT.SystemTopic,
					Logger:      log.WithField("system", "mqtt"),
				})
				if err != nil {
					return errors.Wrap(err, "init mqtt")
				}
				defer rp.Close()
				publisher, connStatus = rp, rp
			}
			notifiers = append(notifiers, notify.NewMQTT(publisher, cfg.Settings.Description, now, log.WithField("system", "notify")))
		default:
			notifiers = append(notifiers, notify.NewLog(log.WithField("system", "notify")))
		}
	}

	tracker := status.NewTracker(start, status.Config{
		Description:        cfg.Settings.Description,
		PollMs:             cfg.Timing.Poll.Milliseconds(),
		DebounceMs:         cfg.Timing.Debounce.Milliseconds(),
		ShortSleepMs:       cfg.Timing.ShortSleep.Milliseconds(),
		HeartbeatMs:        cfg.Timing.Heartbeat.Milliseconds(),
		NotifyDelayMinutes: cfg.Settings.NotifyDelayMinutes,
		Methods:            cfg.Settings.MethodNames(),
		Broker:             cfg.MQTT.Broker,
		HTTPAddr:           cfg.HTTPAddr,
	})
	tracker.SetClock(now)

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).WithField("system", "web").Error("http server error")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.WithField("addr", cfg.HTTPAddr).Info("http status server listening")
	}

	d := newDaemon(daemonConfig{
		Settings:   cfg.Settings,
		Door:       door,
		Button:     button,
		LED:        led,
		Notifier:   notifiers,
		Publisher:  publisher,
		ConnStatus: connStatus,
		Tracker:    tracker,
		Clock:      clk,
		Start:      start,
		Debounce:   cfg.Timing.Debounce,
		Poll:       cfg.Timing.Poll,
		ShortSleep: cfg.Timing.ShortSleep,
		Heartbeat:  cfg.Timing.Heartbeat,
		Logger:     log,
	})

	log.WithFields(logrus.Fields{
		"description": cfg.Settings.Description,
		"delay_min":   cfg.Settings.NotifyDelayMinutes,
		"methods":     cfg.Settings.MethodNames(),
		"poll":        cfg.Timing.Poll,
		"debounce":    cfg.Timing.Debounce,
		"short_sleep": cfg.Timing.ShortSleep,
		"heartbeat":   cfg.Timing.Heartbeat,
		"http":        cfg.HTTPAddr,
	}).Info("started")
	d.startup()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return d.loop(time.After, sigCh)
}

// wallClock maps the monotonic clock onto wall time for event timestamps.
func wallClock(start time.Time, clk clock.Clock) func() time.Time {
	return func() time.Time {
		return start.Add(time.Duration(clk.Now()) * time.Millisecond)
	}
}

func printState(w io.Writer, door, button gpio.Input) error {
	contact, err := door.Read()
	if err != nil {
		return errors.Wrap(err, "read sensor")
	}
	state := "OPEN"
	if contact {
		state = "CLOSED"
	}
	fmt.Fprintf(w, "door: %s\n", state)

	if button != nil {
		pressed, err := button.Read()
		if err != nil {
			return errors.Wrap(err, "read button")
		}
		state = "RELEASED"
		if pressed {
			state = "PRESSED"
		}
		fmt.Fprintf(w, "button: %s\n", state)
	}
	return nil
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
