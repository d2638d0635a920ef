//go:build tinygo

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/app"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/config"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/display"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/keypad"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/protocol"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/storage"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/pkg/usbkeypad"
	"github.com/tuffrabit/tinygo-calcpad-rp2040/serial"
)

const resetDelay = 5 * time.Second

var (
	colPins = []machine.Pin{
		machine.GPIO10, machine.GPIO11, machine.GPIO12,
		machine.GPIO13, machine.GPIO14, machine.GPIO15,
	}
	rowPins = []machine.Pin{
		machine.GPIO16, machine.GPIO17, machine.GPIO18,
		machine.GPIO19, machine.GPIO20,
	}
)

// MAIN THREAD DUTIES
//
// Everything runs on this loop: matrix scan, serial protocol, timers.

type firmware struct {
	dev    *app.Device
	serial *serial.Serial
	scan   time.Duration
	tick   time.Duration
}

func main() {
	log := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	fw := supervise(log)
	fw.run()
}

// supervise boots the firmware. Any boot failure, including a panic, is
// logged and followed by a reset.
func supervise(log *slog.Logger) (fw *firmware) {
	defer func() {
		if r := recover(); r != nil {
			reset(log, fmt.Errorf("panic: %v", r))
		}
	}()

	fw, err := boot(log)
	if err != nil {
		reset(log, err)
	}
	return fw
}

func reset(log *slog.Logger, err error) {
	log.Error("boot failed, resetting", "err", err, "delay", resetDelay)
	time.Sleep(resetDelay)
	machine.CPUReset()
}

func boot(log *slog.Logger) (*firmware, error) {
	store, err := storage.New(machine.Flash, true, log)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	settings, err := store.LoadSettings()
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		settings = config.Default()
		if err := store.SaveSettings(settings); err != nil {
			log.Warn("settings not saved", "err", err)
		}
	default:
		log.Warn("settings ignored, using defaults", "err", err)
		settings = config.Default()
	}

	panel, err := display.NewST7789(settings.Display.Width, settings.Display.Height, log)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}

	dev := app.NewDevice(app.Parts{
		Settings: settings,
		History:  store.Lines(settings.History.Path),
		Renderer: panel,
		USB:      usbkeypad.NewHID(),
		Scanner:  keypad.NewMatrix(colPins, rowPins),
		Logger:   log,
	})

	handler := protocol.NewHandler(dev.App, store, log)
	log.Info("calcpad ready",
		"version", fmt.Sprintf("%d.%d", protocol.FirmwareMajor, protocol.FirmwareMinor),
		"history", settings.History.Path)

	return &firmware{
		dev:    dev,
		serial: serial.NewSerial(machine.Serial, handler, log),
		scan:   settings.Keypad.ScanInterval.Std(),
		tick:   settings.Keypad.Tick.Std(),
	}, nil
}

func (fw *firmware) run() {
	lastTick := time.Now()
	for {
		fw.dev.Scan()
		fw.serial.Poll()

		if time.Since(lastTick) >= fw.tick {
			lastTick = time.Now()
			fw.dev.Tick()
		}
		time.Sleep(fw.scan)
	}
}
