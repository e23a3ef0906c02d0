// Command diskplan materializes a filesystem subtree from a textual
// schema. See diskplan.toml for stem configuration and spec.md for the
// schema grammar.
//
// Grounded on the teacher's cmd/mount.go and cmd/agent.go: package-level
// flag variables populated in an init() via cobra.Command.Flags(), a
// single rootCmd with an exported Execute, github.com/spf13/cobra kept
// as the CLI dependency carried over from the teacher's own stack.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/diskplan/internal/config"
	"github.com/agentic-research/diskplan/internal/dfs"
	"github.com/agentic-research/diskplan/internal/dlog"
	"github.com/agentic-research/diskplan/internal/dpath"
	"github.com/agentic-research/diskplan/internal/traverse"
)

var (
	configFile   string
	apply        bool
	verboseCount int
	usermapFlag  string
	groupmapFlag string
	varsFlag     string
)

func init() {
	rootCmd.Flags().StringVar(&configFile, "config-file", "diskplan.toml", "Path to the stem configuration file")
	rootCmd.Flags().BoolVar(&apply, "apply", false, "Apply changes to the real filesystem (default: simulate in memory)")
	rootCmd.Flags().CountVarP(&verboseCount, "verbose", "v", "Increase logging verbosity (repeatable: warn, info, debug, trace)")
	rootCmd.Flags().StringVar(&usermapFlag, "usermap", "", "Owner name overrides, k:v,k:v")
	rootCmd.Flags().StringVar(&groupmapFlag, "groupmap", "", "Group name overrides, k:v,k:v")
	rootCmd.Flags().StringVar(&varsFlag, "vars", "", "Top-level variable overrides, k:v,k:v")
}

var rootCmd = &cobra.Command{
	Use:   "diskplan <target>",
	Short: "Materialize a filesystem subtree from a textual schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := args[0]
		if !dpath.IsNormalized(target) {
			return fmt.Errorf("target %q must be an absolute, normalized path", target)
		}

		log := dlog.New(os.Stderr, dlog.LevelFromCount(verboseCount))

		cfg, err := config.Load(configFile, config.Options{
			Vars:     parseKV(varsFlag),
			UserMap:  parseKV(usermapFlag),
			GroupMap: parseKV(groupmapFlag),
		})
		if err != nil {
			return err
		}

		stem, ok := cfg.StemFor(target)
		if !ok {
			return fmt.Errorf("no configured stem contains %q", target)
		}
		log.Infof("resolved %s to stem %s (schema %s)", target, stem.Root, stem.SchemaPath)

		rootNode, root, err := cfg.SchemaFor(target)
		if err != nil {
			return err
		}
		plantedRoot, err := dpath.New(root, "")
		if err != nil {
			return err
		}
		plantedTarget, err := dpath.New(root, target)
		if err != nil {
			return err
		}

		var fs dfs.Filesystem
		var mem *dfs.Memory
		if apply {
			fs = dfs.NewPhysical()
		} else {
			mem = dfs.NewMemory()
			fs = mem
		}

		stack := traverse.NewStack(cfg, cfg.Owner, cfg.Group, uint16(dfs.DefaultDirMode))
		stack = stack.Push(traverse.MapSource(cfg.Vars), stack.Owner(), stack.Group(), stack.Mode())
		if err := traverse.Traverse(fs, stack, rootNode, plantedRoot, plantedTarget.Relative(), traverse.ExtentFull); err != nil {
			return err
		}

		if mem != nil {
			printDryRunSummary(mem)
		}
		log.Infof("materialized %s", target)
		return nil
	},
}

// printDryRunSummary renders the in-memory filesystem's full set of
// materialized paths, since --apply's absence would otherwise produce no
// observable output at all. Grounded on moby-moby's --dry-run summary
// conventions and original_source's src/apply.rs, which prints created
// paths during a non-applying run.
func printDryRunSummary(mem *dfs.Memory) {
	paths := mem.Paths()
	fmt.Printf("dry run: %d path(s) would be materialized\n", len(paths))
	for _, p := range paths {
		switch {
		case mem.IsDirectory(p):
			fmt.Printf("  dir   %s\n", p)
		case mem.IsLink(p):
			target, _ := mem.ReadLink(p)
			fmt.Printf("  link  %s -> %s\n", p, target)
		default:
			fmt.Printf("  file  %s\n", p)
		}
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
