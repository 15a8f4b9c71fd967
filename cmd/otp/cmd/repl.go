package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
	"github.com/OpenTraceLab/OpenTracePool/pkg/paramprog"
)

var replCmd = &cobra.Command{
	Use:   "repl <package>",
	Short: "Interactive parameter program shell",
	Long: `Runs parameter program statements against a working copy of a
package. Lines starting with ':' are shell commands; everything else is
program text. "print" shows the stack.

Commands:
  :set name=value   set a session parameter
  :unset name       remove a session parameter
  :params           show the effective parameters
  :apply            apply the session parameters to the package and pads
  :polygons         list the package polygons
  :reload           refresh pads from the pool
  :reset            discard all changes
  :quit             leave the shell`,
	Args: cobra.ExactArgs(1),
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command, args []string) error {
	dir, err := openPool()
	if err != nil {
		return err
	}
	defer dir.Close()
	if cfg.WatchPool {
		if err := dir.Watch(); err != nil {
			return err
		}
	}

	p, err := loadPackage(dir, args[0])
	if err != nil {
		return err
	}
	s := newSession(p, dir, cmd.OutOrStdout())

	fmt.Fprintf(s.out, "%s: %d pad(s), %d polygon(s). Type :quit to leave.\n", p.Name, len(p.Pads), len(p.Polygons))
	prompt.New(
		s.execute,
		s.complete,
		prompt.OptionPrefix(p.Name+"> "),
		prompt.OptionTitle("otp repl"),
		prompt.OptionSetExitCheckerOnInput(func(in string, breakline bool) bool {
			return breakline && strings.TrimSpace(in) == ":quit"
		}),
	).Run()
	return nil
}

// session is the state of one shell.
type session struct {
	base   *footprint.Package
	work   *footprint.Package
	pool   footprint.Pool
	params parameter.Set
	out    io.Writer
}

func newSession(p *footprint.Package, pool footprint.Pool, out io.Writer) *session {
	return &session{
		base:   p,
		work:   p.Clone(),
		pool:   pool,
		params: make(parameter.Set),
		out:    out,
	}
}

// effective returns the package defaults overlaid with the session set.
func (s *session) effective() parameter.Set {
	eff := s.work.ParameterSet.Clone()
	for id, v := range s.params {
		eff[id] = v
	}
	return eff
}

func (s *session) execute(line string) {
	line = strings.TrimSpace(line)
	switch {
	case line == "", line == ":quit":
	case strings.HasPrefix(line, ":"):
		s.command(line[1:])
	default:
		s.run(line)
	}
}

func (s *session) command(line string) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "set":
		id, v, err := parameter.ParseAssignment(arg)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		s.params[id] = v
	case "unset":
		id := parameter.IDFromName(arg)
		if id == parameter.Invalid {
			fmt.Fprintf(s.out, "error: unknown parameter %q\n", arg)
			return
		}
		delete(s.params, id)
	case "params":
		eff := s.effective()
		for _, id := range eff.IDs() {
			fmt.Fprintf(s.out, "  %-28s %s mm\n", id.String(), mm(eff[id]))
		}
	case "apply":
		if err := s.work.ApplyParameterSet(s.params); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		bb := s.work.BBox()
		fmt.Fprintf(s.out, "ok, bbox (%s, %s) - (%s, %s) mm\n", mm(bb.Min.X), mm(bb.Min.Y), mm(bb.Max.X), mm(bb.Max.Y))
	case "polygons":
		s.listPolygons()
	case "reload":
		if err := s.work.UpdateRefsFromPool(s.pool); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		fmt.Fprintln(s.out, "ok")
	case "reset":
		s.work = s.base.Clone()
		s.params = make(parameter.Set)
	default:
		fmt.Fprintf(s.out, "error: unknown command :%s\n", name)
	}
}

// run executes program text against the working package.
func (s *session) run(code string) {
	prog := paramprog.New(code)
	prog.Extend(func() paramprog.CommandTable {
		t := paramprog.PolygonCommands(s.work)
		t["print"] = func(m *paramprog.Machine, _ []paramprog.Argument) error {
			fmt.Fprintf(s.out, "%v\n", m.Stack)
			return nil
		}
		return t
	})
	if err := prog.Run(s.effective()); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	slog.Debug("program ran", "package", s.work.Name, "statements", len(prog.Statements()))
}

func (s *session) listPolygons() {
	for _, id := range ident.SortedKeys(s.work.Polygons) {
		p := s.work.Polygons[id]
		bb := p.BBox()
		class := p.ParameterClass
		if class == "" {
			class = "-"
		}
		fmt.Fprintf(s.out, "  %-12s layer %-5d %2d vertices  (%s, %s) - (%s, %s)\n",
			class, p.Layer, len(p.Vertices), mm(bb.Min.X), mm(bb.Min.Y), mm(bb.Max.X), mm(bb.Max.Y))
	}
}

func (s *session) complete(d prompt.Document) []prompt.Suggest {
	return prompt.FilterHasPrefix(suggestions(), d.GetWordBeforeCursor(), true)
}

func suggestions() []prompt.Suggest {
	var out []prompt.Suggest
	for _, c := range []string{":set", ":unset", ":params", ":apply", ":polygons", ":reload", ":reset", ":quit"} {
		out = append(out, prompt.Suggest{Text: c})
	}
	names := append(paramprog.BaseCommandNames(), paramprog.PolygonCommandNames()...)
	names = append(names, "print")
	sort.Strings(names)
	for _, n := range names {
		out = append(out, prompt.Suggest{Text: n, Description: "command"})
	}
	for _, id := range parameter.All() {
		out = append(out, prompt.Suggest{Text: id.String(), Description: id.Description()})
	}
	return out
}
