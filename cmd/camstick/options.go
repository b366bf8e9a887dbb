package main

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"

	"github.com/ayusman/camstick/internal/detector"
	"github.com/ayusman/camstick/internal/joystick"
	"github.com/ayusman/camstick/internal/store"
)

// options are the command line settings. Those not given on the command
// line fall back to the values remembered from the previous run.
type options struct {
	camera   int
	strategy string
	preview  bool
	addr     string
	db       string
	tick     time.Duration
	tray     bool
}

func defaultOptions() *options {
	return &options{
		strategy: string(detector.StrategyMotion),
		preview:  true,
		tick:     joystick.DefaultTick,
	}
}

func (o *options) register(fs *flag.FlagSet) {
	fs.IntVar(&o.camera, "camera", o.camera, "camera device index")
	fs.StringVar(&o.strategy, "strategy", o.strategy, "detection strategy: motion or object")
	fs.BoolVar(&o.preview, "preview", o.preview, "show the debug preview window")
	fs.StringVar(&o.addr, "addr", o.addr, "debug HTTP listen address, empty to disable")
	fs.StringVar(&o.db, "db", o.db, "settings database path (default ~/.camstick/camstick.db)")
	fs.DurationVar(&o.tick, "tick", o.tick, "poll period")
	fs.BoolVar(&o.tray, "tray", o.tray, "control play from the system tray")
}

// useWindow reports whether the OpenCV preview window can be shown. With
// the tray holding the main thread, rounds run on other goroutines and the
// window is left out.
func (o *options) useWindow() bool {
	return o.preview && !o.tray
}

// explicitFlags returns the names of the flags set on the command line.
func explicitFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// load fills every option not in explicit from settings and validates the
// result.
func (o *options) load(settings *store.SettingsRepository, explicit map[string]bool) error {
	if !explicit["camera"] {
		if n, err := settings.GetInt(store.SettingCamera); err == nil {
			o.camera = n
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}

	if !explicit["strategy"] {
		if err := loadString(settings, store.SettingStrategy, &o.strategy); err != nil {
			return err
		}
	}

	if !explicit["addr"] {
		if err := loadString(settings, store.SettingAddr, &o.addr); err != nil {
			return err
		}
	}

	if !explicit["preview"] {
		var v string
		if err := loadString(settings, store.SettingPreview, &v); err != nil {
			return err
		}
		if v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("setting %q: %w", store.SettingPreview, err)
			}
			o.preview = b
		}
	}

	if !explicit["tick"] {
		var v string
		if err := loadString(settings, store.SettingTick, &v); err != nil {
			return err
		}
		if v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("setting %q: %w", store.SettingTick, err)
			}
			o.tick = d
		}
	}

	strategy, err := detector.ParseStrategy(o.strategy)
	if err != nil {
		return err
	}
	o.strategy = string(strategy)

	if o.camera < 0 {
		return fmt.Errorf("camera index %d is negative", o.camera)
	}
	if o.tick <= 0 {
		return fmt.Errorf("tick %v must be positive", o.tick)
	}
	return nil
}

func loadString(settings *store.SettingsRepository, key string, dst *string) error {
	v, err := settings.Get(key)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// save remembers the chosen options for the next run.
func (o *options) save(settings *store.SettingsRepository) error {
	values := map[string]string{
		store.SettingCamera:   strconv.Itoa(o.camera),
		store.SettingStrategy: o.strategy,
		store.SettingAddr:     o.addr,
		store.SettingPreview:  strconv.FormatBool(o.preview),
		store.SettingTick:     o.tick.String(),
	}

	var errs []error
	for k, v := range values {
		if err := settings.Set(k, v); err != nil {
			errs = append(errs, fmt.Errorf("save %q: %w", k, err))
		}
	}
	return errors.Join(errs...)
}
