package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dol/internal/diag"
	"dol/internal/driver"
	"dol/internal/project"
)

const noDolTomlMessage = "no dol.toml found\nplease specify the input explicitly, e.g.:\n  dol build path/to/module.dolh"

var buildOutput string

func init() {
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output file (defaults next to the input)")
}

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Build a DOL project",
	Long:  "Build a DOL project to a WebAssembly module, using dol.toml as the entrypoint definition.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	opts, err := driverOptions(cmd)
	if err != nil {
		return err
	}

	input, outName, err := resolveBuildTarget(args, &opts)
	if err != nil {
		return err
	}

	info, err := os.Stat(input)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return buildDir(cmd, input, opts)
	}

	res, err := driver.CompileFile(input, opts)
	reportDiagnostics(cmd, res)
	if err != nil {
		return err
	}

	out := buildOutput
	if out == "" {
		out = outName
	}
	if err := os.WriteFile(out, res.Wasm, 0o644); err != nil {
		return err
	}
	if !quietMode(cmd) {
		if res.CacheHit {
			cmd.Printf("%s (cached, %d bytes)\n", out, len(res.Wasm))
		} else {
			cmd.Printf("%s (%d bytes)\n", out, len(res.Wasm))
		}
	}
	return nil
}

func buildDir(cmd *cobra.Command, dir string, opts driver.Options) error {
	results, err := driver.CompileDir(cmd.Context(), dir, opts)
	if err != nil {
		return err
	}
	failed := 0
	for _, r := range results {
		reportDiagnostics(cmd, r.Result)
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", r.Path, r.Err)
			continue
		}
		out := strings.TrimSuffix(r.Path, ".dolh") + ".wasm"
		if err := os.WriteFile(out, r.Result.Wasm, 0o644); err != nil {
			return err
		}
		if !quietMode(cmd) {
			cmd.Printf("%s (%d bytes)\n", out, len(r.Result.Wasm))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d modules failed", failed, len(results))
	}
	return nil
}

// resolveBuildTarget picks the input path from the argument or the nearest
// manifest, and derives the default output name.
func resolveBuildTarget(args []string, opts *driver.Options) (input, outName string, err error) {
	if len(args) > 0 && filepath.Clean(args[0]) != "." {
		input = args[0]
		stem := strings.TrimSuffix(filepath.Base(input), ".dolh")
		// an explicit input can still sit inside a project
		if manifest, found, mErr := project.LoadManifest(filepath.Dir(input)); mErr == nil && found {
			opts.Config = driver.ConfigFromManifest(manifest)
		}
		return input, stem + ".wasm", nil
	}
	manifest, found, err := project.LoadManifest(".")
	if err != nil {
		return "", "", err
	}
	if !found {
		return "", "", errors.New(noDolTomlMessage)
	}
	opts.Config = driver.ConfigFromManifest(manifest)
	return manifest.MainPath(), manifest.Config.Package.Name + ".wasm", nil
}

// driverOptions assembles the compilation options shared by build and
// inspect from the persistent flags.
func driverOptions(cmd *cobra.Command) (driver.Options, error) {
	var opts driver.Options
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	noCache, err := cmd.Root().PersistentFlags().GetBool("no-cache")
	if err != nil {
		return opts, fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	opts.MaxDiagnostics = maxDiagnostics
	if !noCache {
		cache, err := driver.OpenDiskCache("dol")
		if err != nil {
			if !quietMode(cmd) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: cache disabled: %v\n", err)
			}
		} else {
			opts.Cache = cache
		}
	}
	return opts, nil
}

// reportDiagnostics renders whatever the backend collected. Spans point
// into frontend sources this process never loaded, so rendering falls back
// to the positionless form.
func reportDiagnostics(cmd *cobra.Command, res *driver.Result) {
	if res == nil || res.Bag == nil || len(res.Bag.Items()) == 0 {
		return
	}
	res.Bag.Sort()
	stderr := cmd.ErrOrStderr()
	colorize := false
	if f, ok := stderr.(*os.File); ok {
		colorize = useColor(cmd, f)
	}
	diag.Render(stderr, res.Bag, nil, diag.RenderOpts{Color: colorize})
}
