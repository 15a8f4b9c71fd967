package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePool/pkg/kicad/modimport"
	"github.com/OpenTraceLab/OpenTracePool/pkg/pool"
)

var (
	importDryRun bool
	importForce  bool
)

var importKicadCmd = &cobra.Command{
	Use:   "import-kicad <file.kicad_mod>...",
	Short: "Import KiCad footprints into the pool",
	Long: `Converts KiCad footprints into pool packages. Each distinct pad
geometry becomes a padstack; padstacks already in the pool are reused.
Packages are written to <packages>/<name>/package.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImportKicad,
}

func init() {
	rootCmd.AddCommand(importKicadCmd)
	importKicadCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "convert but do not write")
	importKicadCmd.Flags().BoolVarP(&importForce, "force", "f", false, "overwrite existing packages")
}

func runImportKicad(cmd *cobra.Command, args []string) error {
	m, err := pool.ReadManifest(cfg.PoolPath)
	if err != nil {
		return err
	}
	padstackDir := filepath.Join(cfg.PoolPath, m.Padstacks)
	packageDir := filepath.Join(cfg.PoolPath, m.Packages)

	out := cmd.OutOrStdout()
	for _, src := range args {
		sink := pool.NewMemory()
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		p, err := modimport.Import(f, sink)
		f.Close()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s, %d pad(s), %d padstack(s)\n", src, p.Name, len(p.Pads), len(sink.PadstackIDs()))
		if importDryRun {
			continue
		}

		for _, id := range sink.PadstackIDs() {
			ps, err := sink.GetPadstack(id)
			if err != nil {
				return err
			}
			path := filepath.Join(padstackDir, fmt.Sprintf("%s-%s.json", slug(ps.Name), id.String()[:8]))
			written, err := writeNew(path, false, ps.Encode)
			if err != nil {
				return err
			}
			if written {
				fmt.Fprintf(out, "  + %s\n", path)
			}
		}

		path := filepath.Join(packageDir, slug(p.Name), "package.json")
		written, err := writeNew(path, importForce, p.Encode)
		if err != nil {
			return err
		}
		if !written {
			return fmt.Errorf("%s exists (use --force to overwrite)", path)
		}
		fmt.Fprintf(out, "  + %s\n", path)
	}
	return nil
}

// writeNew writes path with encode. An existing file is kept unless
// overwrite is set; written reports whether anything was written.
func writeNew(path string, overwrite bool, encode func(w io.Writer) error) (written bool, err error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	f, err := os.Create(path)
	if err != nil {
		return false, err
	}
	if err := encode(f); err != nil {
		f.Close()
		return false, err
	}
	return true, f.Close()
}

// slug turns a name into a file name.
func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, name)
	if s == "" {
		return "unnamed"
	}
	return s
}
