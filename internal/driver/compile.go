// Package driver orchestrates the backend: it reads typed-program files,
// runs the assembler and manages the compilation cache.
package driver

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"dol/internal/diag"
	"dol/internal/hir"
	"dol/internal/project"
	"dol/internal/wasm"
)

// Options tunes one compilation.
type Options struct {
	Config         wasm.Config
	Cache          *DiskCache // nil disables caching
	MaxDiagnostics int
}

// Result is the outcome of compiling one input file. Bag carries whatever
// diagnostics the backend reported, also on success.
type Result struct {
	ModuleName string
	Wasm       []byte
	Exports    []string
	Bag        *diag.Bag
	CacheHit   bool
}

// ConfigFromManifest maps the manifest's [memory] section onto the
// assembler configuration, filling defaults for absent fields.
func ConfigFromManifest(m *project.Manifest) wasm.Config {
	cfg := wasm.DefaultConfig()
	if m == nil {
		return cfg
	}
	if m.Config.Memory.Pages != 0 {
		cfg.InitialPages = m.Config.Memory.Pages
	}
	if m.Config.Memory.MaxPages != 0 {
		cfg.MaxPages = m.Config.Memory.MaxPages
	}
	if m.Config.Memory.DataBase != 0 {
		cfg.DataBase = m.Config.Memory.DataBase
	}
	return cfg
}

// CompileFile compiles one .dolh input to a binary module. Cache hits skip
// decoding entirely; the key covers the input bytes, the memory
// configuration and the cache schema.
func CompileFile(path string, opts Options) (*Result, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: reading %s: %w", path, err)
	}
	if opts.MaxDiagnostics == 0 {
		opts.MaxDiagnostics = 100
	}
	key := cacheKey(input, opts.Config)

	if opts.Cache != nil {
		var payload DiskPayload
		hit, err := opts.Cache.Get(key, &payload)
		if err != nil {
			return nil, fmt.Errorf("driver: cache read for %s: %w", path, err)
		}
		if hit {
			return &Result{
				ModuleName: payload.ModuleName,
				Wasm:       payload.Wasm,
				Exports:    payload.Exports,
				Bag:        diag.NewBag(opts.MaxDiagnostics),
				CacheHit:   true,
			}, nil
		}
	}

	in, m, err := hir.DecodeModule(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("driver: %s: %w", path, err)
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	asm := wasm.NewAssembler(in, diag.BagReporter{Bag: bag}, opts.Config)
	bin, err := asm.Build(m)
	res := &Result{ModuleName: m.Name, Bag: bag}
	if err != nil {
		return res, err
	}
	res.Wasm = bin
	res.Exports = asm.Exports()

	if opts.Cache != nil {
		payload := &DiskPayload{
			Schema:     diskCacheSchemaVersion,
			ModuleName: res.ModuleName,
			InputHash:  project.HashBytes(input),
			Wasm:       bin,
			Exports:    res.Exports,
		}
		if err := opts.Cache.Put(key, payload); err != nil {
			return res, fmt.Errorf("driver: cache write for %s: %w", path, err)
		}
	}
	return res, nil
}

// cacheKey combines the input digest with everything else that shapes the
// output bytes.
func cacheKey(input []byte, cfg wasm.Config) project.Digest {
	var cfgBytes [14]byte
	binary.BigEndian.PutUint16(cfgBytes[0:], diskCacheSchemaVersion)
	binary.BigEndian.PutUint32(cfgBytes[2:], cfg.InitialPages)
	binary.BigEndian.PutUint32(cfgBytes[6:], cfg.MaxPages)
	binary.BigEndian.PutUint32(cfgBytes[10:], cfg.DataBase)
	return project.Combine(project.HashBytes(input), project.HashBytes(cfgBytes[:]))
}
