// Command inputprocsim wires a small fleet of instance.Instance values
// from a TOML config and feeds them a synthetic device stream, printing
// the transformed events. It stands in for the firmware host process
// (spec §1: this module is the pipeline core, not the host).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dshills/inputproc/internal/configsrc"
	"github.com/dshills/inputproc/internal/instance"
	"github.com/dshills/inputproc/internal/ioevent"
	"github.com/dshills/inputproc/internal/keybind"
	"github.com/dshills/inputproc/internal/keymap"
	"github.com/dshills/inputproc/internal/plog"
	"github.com/dshills/inputproc/internal/registry"
	"github.com/dshills/inputproc/internal/sched"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	log := plog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(opts.LogLevel)}))

	cfgs, err := configsrc.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if len(cfgs) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no [[instance]] tables in %s\n", opts.ConfigPath)
		return 1
	}

	exec, err := sched.NewGocronExecutor(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to start scheduler: %v\n", err)
		return 1
	}
	defer exec.Shutdown()

	layers := newFakeLayerAPI()
	store := newMemStore()
	bindings := newLogRegistry(log)
	reg := registry.New[*instance.Instance]()

	for _, cfg := range cfgs {
		in := instance.New(cfg, instance.Deps{
			LayerAPI:   layers,
			BindingReg: bindings,
			Executor:   exec,
			Store:      store,
			Log:        log,
		})
		if _, err := reg.Register(cfg.Name, in); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	log.Info("inputprocsim: fleet ready", "instances", reg.Len())

	feed := syntheticFeed()
	now := time.Now()
	reg.ForEach(func(name string, in *instance.Instance) bool {
		for _, ev := range feed {
			out, emit := in.Process(ev, now)
			if !emit {
				log.Info("event consumed", "instance", name, "in", ev)
				continue
			}
			log.Info("event forwarded", "instance", name, "in", ev, "out", out)
			now = now.Add(time.Millisecond)
		}
		return false
	})

	return 0
}

type options struct {
	ConfigPath string
	LogLevel   string
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.ConfigPath, "config", "", "Path to instance fleet TOML file")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "inputprocsim - runtime-configurable input pipeline simulator\n\n")
		fmt.Fprintf(os.Stderr, "Usage: inputprocsim -config fleet.toml\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if opts.ConfigPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	return opts
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// syntheticFeed produces a small fixed stream of relative-motion events
// for the demo: some X/Y pairs, then a burst large enough to fire a
// keybind direction if the fleet's first instance has one configured.
func syntheticFeed() []ioevent.Event {
	events := []ioevent.Event{
		{Type: ioevent.TypeRelative, Code: 0x00, Value: 5},
		{Type: ioevent.TypeRelative, Code: 0x01, Value: 3},
	}
	for i := 0; i < 4; i++ {
		events = append(events, ioevent.Event{Type: ioevent.TypeRelative, Code: 0x00, Value: 4})
	}
	return events
}

// logRegistry is a demo keybind.Registry that logs every invocation
// instead of driving real hardware.
type logRegistry struct {
	log plog.Logger
}

func newLogRegistry(log plog.Logger) *logRegistry {
	return &logRegistry{log: log}
}

func (r *logRegistry) Lookup(name string) (keybind.Handler, bool) {
	return name, true
}

func (r *logRegistry) Invoke(_ context.Context, h keybind.Handler, params keybind.InvokeParams, pressed bool) error {
	r.log.Info("binding invoked", "name", h, "pressed", pressed, "layer", params.Layer)
	return nil
}

// memStore is an in-memory settings.Store for the demo, standing in for
// the firmware host's persistent key-value store.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Save(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[key] = cp
	return nil
}

func (s *memStore) Load(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key]
	return data, ok, nil
}

// fakeLayerAPI is a minimal keymap.LayerAPI for the demo: a fixed set of
// layers with no real bindings, enough for the pipeline to run end to
// end without a host firmware attached.
type fakeLayerAPI struct {
	mu     sync.Mutex
	active map[int]bool
}

func newFakeLayerAPI() *fakeLayerAPI {
	return &fakeLayerAPI{active: make(map[int]bool)}
}

func (l *fakeLayerAPI) Activate(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active[i] = true
	return nil
}

func (l *fakeLayerAPI) Deactivate(i int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, i)
	return nil
}

func (l *fakeLayerAPI) Active(i int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[i]
}

func (l *fakeLayerAPI) HighestActive() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	highest := -1
	for i := range l.active {
		if i > highest {
			highest = i
		}
	}
	return highest
}

func (l *fakeLayerAPI) BindingAt(layer int, pos keymap.Position) (keymap.Binding, bool) {
	return keymap.Binding{}, false
}

func (l *fakeLayerAPI) IsModifier(page uint8, usageID uint16) bool {
	return false
}
