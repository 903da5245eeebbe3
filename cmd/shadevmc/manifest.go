package main

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/shadevm/wasm"
)

// Manifest is the sidecar a runtime loader reads to size its memory regions
// before instantiating the module.
type Manifest struct {
	Name        string            `msgpack:"name"`
	ByteSize    int               `msgpack:"byte_size"`
	EntryPoints map[string]uint32 `msgpack:"entry_points"`
	Regions     wasm.RegionSizes  `msgpack:"regions"`
	BuiltAt     time.Time         `msgpack:"built_at"`
}

func writeManifest(path, name string, out *wasm.CompiledModule) error {
	data, err := msgpack.Marshal(Manifest{
		Name:        name,
		ByteSize:    len(out.Bytes),
		EntryPoints: out.EntryPoints,
		Regions:     out.Regions,
		BuiltAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}
