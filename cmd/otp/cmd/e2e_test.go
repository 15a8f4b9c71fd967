package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/pool"
)

const testPool = "../../../pkg/pool/testdata/pool"

var testPackage = filepath.Join(testPool, "packages", "sot23", "package.json")

const kicadFile = "../../../pkg/kicad/modimport/testdata/SOT-23.kicad_mod"

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// Reset flags to prevent accumulation between tests
	outputJSON = false
	applyOutput = ""
	importDryRun = false
	importForce = false
	searchLimit = 20

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// copyPool copies the test pool into a temporary directory.
func copyPool(t *testing.T) string {
	t.Helper()
	dst := t.TempDir()
	err := filepath.Walk(testPool, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(testPool, path)
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		t.Fatalf("copy pool: %v", err)
	}
	return dst
}

func TestCommandsE2E(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantContain []string
	}{
		{
			name: "info by path",
			args: []string{"info", "--pool", testPool, testPackage},
			wantContain: []string{
				"Package: SOT-23",
				"Manufacturer: JEDEC",
				"pads:",
				"Warnings:",
				"missing parameter pad_height",
			},
		},
		{
			name:        "info by id",
			args:        []string{"info", "--pool", testPool, "bbbbbbbb-0000-4000-8000-000000000001"},
			wantContain: []string{"Package: SOT-23"},
		},
		{
			name:    "info unknown id",
			args:    []string{"info", "--pool", testPool, "bbbbbbbb-0000-4000-8000-0000000000ff"},
			wantErr: true,
		},
		{
			name:        "check reports warnings",
			args:        []string{"check", "--pool", testPool},
			wantErr:     true,
			wantContain: []string{"✗ SOT-23", "missing parameter pad_height"},
		},
		{
			name:        "apply",
			args:        []string{"apply", "--pool", testPool, testPackage, "courtyard_expansion=0.5mm"},
			wantContain: []string{"Applied 1 parameter(s) to SOT-23", "BBox:"},
		},
		{
			name:    "apply unknown parameter",
			args:    []string{"apply", "--pool", testPool, testPackage, "bogus=1"},
			wantErr: true,
		},
		{
			name:        "import dry run",
			args:        []string{"import-kicad", "--pool", testPool, "--dry-run", kicadFile},
			wantContain: []string{"SOT-23, 3 pad(s), 1 padstack(s)"},
		},
		{
			name:    "export needs xlsx",
			args:    []string{"export-pads", "--pool", testPool, testPackage, "pads.csv"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := execute(t, tt.args...)

			if tt.wantErr && err == nil {
				t.Errorf("Expected error but got none\nOutput: %s", output)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v\nOutput: %s", err, output)
				return
			}

			for _, want := range tt.wantContain {
				if !strings.Contains(output, want) {
					t.Errorf("Output missing expected string: %q\nGot:\n%s", want, output)
				}
			}
		})
	}
}

func TestInfoJSON(t *testing.T) {
	output, err := execute(t, "info", "--pool", testPool, "--json", testPackage)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var info PackageInfo
	if err := json.Unmarshal([]byte(output), &info); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if info.Name != "SOT-23" || info.Counts["pads"] != 3 || len(info.Pads) != 3 {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestImportKicadE2E(t *testing.T) {
	dir := copyPool(t)

	output, err := execute(t, "import-kicad", "--pool", dir, kicadFile)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, output)
	}
	pkgPath := filepath.Join(dir, "packages", "SOT-23", "package.json")
	if _, err := os.Stat(pkgPath); err != nil {
		t.Fatalf("package not written: %v", err)
	}

	output, err = execute(t, "check", "--pool", dir, pkgPath)
	if err != nil {
		t.Fatalf("check imported package: %v\n%s", err, output)
	}
	if !strings.Contains(output, "✓ SOT-23") {
		t.Errorf("unexpected check output:\n%s", output)
	}

	if _, err := execute(t, "import-kicad", "--pool", dir, kicadFile); err == nil {
		t.Error("expected error when the package exists")
	}
	if _, err := execute(t, "import-kicad", "--pool", dir, "--force", kicadFile); err != nil {
		t.Errorf("forced import: %v", err)
	}
}

func TestExportPadsE2E(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "pads.xlsx")
	output, err := execute(t, "export-pads", "--pool", testPool, testPackage, dst)
	if err != nil {
		t.Fatalf("export: %v\n%s", err, output)
	}
	if !strings.Contains(output, "Wrote 3 pad(s)") {
		t.Errorf("unexpected output:\n%s", output)
	}
	if fi, err := os.Stat(dst); err != nil || fi.Size() == 0 {
		t.Errorf("workbook not written: %v", err)
	}
}

func TestPoolCommandsE2E(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("OTP_INDEX_PATH", filepath.Join(tmp, "pool.bleve"))
	t.Setenv("OTP_STORE_PATH", filepath.Join(tmp, "pool.db"))

	output, err := execute(t, "pool", "index", "--pool", testPool)
	if err != nil || !strings.Contains(output, "Indexed 1 package(s)") {
		t.Fatalf("index: %v\n%s", err, output)
	}

	output, err = execute(t, "pool", "search", "--pool", testPool, "sot")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(output, "Found 1 package(s)") || !strings.Contains(output, "SOT-23") {
		t.Errorf("unexpected search output:\n%s", output)
	}

	output, err = execute(t, "pool", "pack", "--pool", testPool)
	if err != nil || !strings.Contains(output, "Packed 1 padstack(s) and 1 package(s)") {
		t.Fatalf("pack: %v\n%s", err, output)
	}

	store, err := pool.OpenStore(filepath.Join(tmp, "pool.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if ids := store.PackageIDs(); len(ids) != 1 {
		t.Errorf("store has %d packages", len(ids))
	}
}

func TestSession(t *testing.T) {
	dir, err := pool.OpenDir(testPool)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	defer dir.Close()
	p, err := footprint.Load(testPackage, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var out bytes.Buffer
	s := newSession(p, dir, &out)

	steps := []struct {
		line string
		want string
	}{
		{"1mm 2mm + print", "[3000000]"},
		{":set courtyard_expansion=1mm", ""},
		{":params", "1.000 mm"},
		{"get-parameter [ courtyard_expansion ] print", "[1000000]"},
		{":apply", "ok, bbox"},
		{":polygons", "courtyard"},
		{"bogus", "error:"},
		{":set nothing=1", "error: unknown parameter"},
		{":nope", "error: unknown command :nope"},
		{":reload", "ok"},
	}
	for _, st := range steps {
		out.Reset()
		s.execute(st.line)
		if !strings.Contains(out.String(), st.want) {
			t.Errorf("%q: output %q does not contain %q", st.line, out.String(), st.want)
		}
	}

	s.execute(":reset")
	if len(s.params) != 0 {
		t.Errorf("reset kept %d parameters", len(s.params))
	}
}

func TestSuggestions(t *testing.T) {
	var texts []string
	for _, s := range suggestions() {
		texts = append(texts, s.Text)
	}
	joined := strings.Join(texts, " ")
	for _, want := range []string{":apply", "expand-polygon", "get-parameter", "print", "courtyard_expansion"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing suggestion %q", want)
		}
	}
}
