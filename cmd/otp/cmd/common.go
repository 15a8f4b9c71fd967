package cmd

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/pool"
)

// openPool opens the configured pool directory.
func openPool() (*pool.Dir, error) {
	dir, err := pool.OpenDir(cfg.PoolPath)
	if err != nil {
		return nil, fmt.Errorf("open pool %s: %w", cfg.PoolPath, err)
	}
	return dir, nil
}

// loadPackage loads a package given as a file path or as a pool id. The
// result is a private copy the caller may modify.
func loadPackage(dir *pool.Dir, arg string) (*footprint.Package, error) {
	if id, err := ident.Parse(arg); err == nil {
		p, err := dir.GetPackage(id)
		if err != nil {
			return nil, err
		}
		return p.Clone(), nil
	}
	return footprint.Load(arg, dir)
}

func mm(nm int64) string {
	return fmt.Sprintf("%.3f", float64(nm)/1e6)
}
