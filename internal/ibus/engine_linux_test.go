//go:build linux

package ibus

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"halfqwerty/internal/config"
	"halfqwerty/internal/metrics"
)

type exportKey struct {
	path  dbus.ObjectPath
	iface string
}

// fakeBus records exports and fails the interfaces listed in fail.
type fakeBus struct {
	exported map[exportKey]any
	fail     map[string]bool
}

func newFakeBus(fail ...string) *fakeBus {
	b := &fakeBus{exported: map[exportKey]any{}, fail: map[string]bool{}}
	for _, iface := range fail {
		b.fail[iface] = true
	}
	return b
}

func (b *fakeBus) Export(v any, path dbus.ObjectPath, iface string) error {
	key := exportKey{path, iface}
	if v == nil {
		delete(b.exported, key)
		return nil
	}
	if b.fail[iface] {
		return errors.New("export refused")
	}
	b.exported[key] = v
	return nil
}

func (b *fakeBus) Emit(dbus.ObjectPath, string, ...any) error { return nil }

func TestCreateEngineExportsBothInterfaces(t *testing.T) {
	bus := newFakeBus()
	cfg := config.DefaultConfig()
	m := metrics.NewEngine(nil)
	f := NewFactory(bus, cfg, nil, nil, m)

	path, derr := f.CreateEngine(cfg.IBus.EngineName)
	require.Nil(t, derr)
	assert.Contains(t, bus.exported, exportKey{path, EngineInterface})
	assert.Contains(t, bus.exported, exportKey{path, ServiceInterface})
	assert.Len(t, f.snapshot(), 1)

	require.Nil(t, f.snapshot()[0].Destroy())
	assert.Empty(t, bus.exported)
	assert.Empty(t, f.snapshot())
}

func TestCreateEngineUnexportsOnServiceFailure(t *testing.T) {
	bus := newFakeBus(ServiceInterface)
	cfg := config.DefaultConfig()
	f := NewFactory(bus, cfg, nil, nil, nil)

	path, derr := f.CreateEngine(cfg.IBus.EngineName)
	require.NotNil(t, derr)
	assert.Empty(t, path)
	assert.Empty(t, bus.exported, "engine interface left exported")
	assert.Empty(t, f.snapshot())
}

func TestCreateEngineUnknownName(t *testing.T) {
	bus := newFakeBus()
	f := NewFactory(bus, config.DefaultConfig(), nil, nil, nil)

	_, derr := f.CreateEngine("something-else")
	require.NotNil(t, derr)
	assert.Empty(t, bus.exported)
}
