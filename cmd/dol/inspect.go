package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"dol/internal/diag"
	"dol/internal/driver"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Show computed layouts and exports for a module",
	Long:  "Compile a typed-program file and print its gene layouts, function signatures and exports without writing the binary.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	opts, err := driverOptions(cmd)
	if err != nil {
		return err
	}
	opts.Cache = nil // inspection always recompiles

	rep, bag, err := driver.InspectFile(args[0], opts)
	if bag != nil && len(bag.Items()) > 0 {
		bag.Sort()
		stderr := cmd.ErrOrStderr()
		colorize := false
		if f, ok := stderr.(*os.File); ok {
			colorize = useColor(cmd, f)
		}
		diag.Render(stderr, bag, nil, diag.RenderOpts{Color: colorize})
	}
	if err != nil {
		return err
	}

	heading := func(s string) string { return s }
	if f, ok := cmd.OutOrStdout().(*os.File); ok && useColor(cmd, f) {
		bold := color.New(color.Bold)
		heading = func(s string) string { return bold.Sprint(s) }
	}

	cmd.Printf("module %s (%d bytes)\n", rep.ModuleName, rep.WasmSize)
	for _, g := range rep.Genes {
		cmd.Printf("\n%s\n", heading(fmt.Sprintf("gene %s: size=%d align=%d", g.Name, g.Size, g.Align)))
		for _, f := range g.Fields {
			ref := ""
			if f.ByRef {
				ref = " by-ref"
			}
			cmd.Printf("  %-16s %-12s offset=%-4d size=%-2d align=%d%s\n",
				f.Name, f.Type, f.Offset, f.Size, f.Align, ref)
		}
		if len(g.PointerOffsets) > 0 {
			cmd.Printf("  pointers at %v\n", g.PointerOffsets)
		}
	}
	if len(rep.Funcs) > 0 {
		cmd.Printf("\n%s\n", heading("functions"))
		for _, f := range rep.Funcs {
			vis := "private"
			if f.Public {
				vis = "public"
			}
			cmd.Printf("  %s(%s) -> %s  [%s]\n", f.Name, joinParams(f.Params), f.Ret, vis)
		}
	}
	cmd.Printf("\n%s %v\n", heading("exports"), rep.Exports)
	return nil
}

func joinParams(params []string) string {
	out := ""
	for i, p := range params {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
