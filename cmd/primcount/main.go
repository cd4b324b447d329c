// primcount is a CLI utility that counts, bounds and generates the
// primitives of the demo shape scene without opening a window.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/scene"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/engine/window"
	"github.com/Faultbox/shapekit/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "count", "c":
		cmdCount(args)
	case "bounds", "bbox":
		cmdBounds(args)
	case "generate", "gen":
		cmdGenerate(args)
	case "markers":
		cmdMarkers(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`primcount - shape primitive counting utility

Usage:
  primcount <command> [options]

Commands:
  count [-report file.yaml] [-style s] [-offscreen] [name...]
                                     Count primitives per demo item
  bounds [name...]                   Print item bounding boxes
  generate [-offscreen] <name>       Print every generated primitive
  markers [index...]                 Print built-in marker glyphs

Examples:
  primcount count
  primcount count -report counts.yaml quadmesh faceset
  primcount count -style vertexarray -offscreen
  primcount generate lineset
  primcount markers 0 90`)
}

// commonFlags are shared by the traversal commands.
type commonFlags struct {
	style     *string
	offscreen *bool
	precise   *bool
	debug     *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		style:     fs.String("style", "", "Comma separated shape style flags"),
		offscreen: fs.Bool("offscreen", false, "Make a hidden GL context current while tessellating NURBS"),
		precise:   fs.Bool("precise-lighting", false, "Split QuadMesh quads into centroid fans"),
		debug:     fs.Bool("debug", false, "Enable debug logging"),
	}
}

// session is one demo scene with an action ready to traverse it.
type session struct {
	scene *scene.Scene
	act   *shape.Action
	close func()
}

func newSession(t shape.ActionType, f commonFlags) (*session, error) {
	level := "warn"
	if *f.debug {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := config.Default().Render
	if *f.precise {
		cfg.QuadMeshPreciseLighting = 1
	}
	svc := cache.NewService(cfg)
	sc := scene.Demo(svc, scene.DemoOptions{})

	if *f.style != "" {
		st, unknown := state.ParseStyle(strings.Split(*f.style, ","))
		if len(unknown) > 0 {
			return nil, fmt.Errorf("unknown style flags: %s", strings.Join(unknown, ", "))
		}
		sc.SetStyle(st)
	}

	s := &session{scene: sc, act: shape.NewAction(t, state.New(), svc), close: logger.Sync}
	if *f.offscreen {
		off := window.NewOffscreen()
		s.act.Offscreen = off.MakeCurrent
		s.close = func() {
			off.Close()
			logger.Sync()
		}
	}
	return s, nil
}

// filter keeps the counts of the named items, or all of them when names
// is empty.
func filter(counts []scene.Count, names []string) ([]scene.Count, error) {
	if len(names) == 0 {
		return counts, nil
	}
	byName := make(map[string]scene.Count, len(counts))
	for _, c := range counts {
		byName[c.Name] = c
	}
	out := make([]scene.Count, 0, len(names))
	for _, n := range names {
		c, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("no item named %q", n)
		}
		out = append(out, c)
	}
	return out, nil
}

func cmdCount(args []string) {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	report := fs.String("report", "", "Write a YAML report to this file")
	common := addCommonFlags(fs)
	fs.Parse(args)

	s, err := newSession(shape.CountAction, common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.close()

	counts, err := filter(s.scene.Counts(s.act), fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	writeTable(os.Stdout, counts)

	if *report != "" {
		rep := buildReport(counts, s.scene.Style())
		if err := writeReport(*report, rep); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "\nReport written to %s\n", *report)
	}
}

func writeTable(w io.Writer, counts []scene.Count) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Name\tKind\tTriangles\tLines\tPoints\tImages\t")
	var total primitive.Counter
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t\n",
			c.Name, c.Kind, c.Counter.Triangles, c.Counter.Lines, c.Counter.Points, c.Counter.Images)
		total.Add(c.Counter)
	}
	fmt.Fprintf(tw, "total\t\t%d\t%d\t%d\t%d\t\n", total.Triangles, total.Lines, total.Points, total.Images)
	tw.Flush()
}

// Report is the YAML form of a count run.
type Report struct {
	Generated time.Time     `yaml:"generated"`
	Style     string        `yaml:"style,omitempty"`
	Shapes    []ShapeReport `yaml:"shapes"`
	Total     ShapeReport   `yaml:"total"`
}

// ShapeReport holds the counts of one item.
type ShapeReport struct {
	Name      string `yaml:"name,omitempty"`
	Kind      string `yaml:"kind,omitempty"`
	Triangles int    `yaml:"triangles"`
	Lines     int    `yaml:"lines"`
	Points    int    `yaml:"points"`
	Images    int    `yaml:"images"`
}

func buildReport(counts []scene.Count, st state.Style) Report {
	rep := Report{Generated: time.Now().UTC()}
	if st != 0 {
		rep.Style = st.String()
	}
	var total primitive.Counter
	for _, c := range counts {
		rep.Shapes = append(rep.Shapes, ShapeReport{
			Name:      c.Name,
			Kind:      c.Kind.String(),
			Triangles: c.Counter.Triangles,
			Lines:     c.Counter.Lines,
			Points:    c.Counter.Points,
			Images:    c.Counter.Images,
		})
		total.Add(c.Counter)
	}
	rep.Total = ShapeReport{
		Triangles: total.Triangles,
		Lines:     total.Lines,
		Points:    total.Points,
		Images:    total.Images,
	}
	return rep
}

func writeReport(path string, rep Report) error {
	data, err := yaml.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func cmdBounds(args []string) {
	fs := flag.NewFlagSet("bounds", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	s, err := newSession(shape.BoundingBoxAction, common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.close()

	want := make(map[string]bool, fs.NArg())
	for _, n := range fs.Args() {
		want[n] = true
	}
	s.scene.Visit(s.act.State, func(it *scene.Item) {
		if len(want) > 0 && !want[it.Name] {
			return
		}
		box, center, ok := shape.BoundingBox(s.act, it.Shape)
		if !ok {
			fmt.Printf("%-22s empty\n", it.Name)
			return
		}
		fmt.Printf("%-22s min=(%.3f %.3f %.3f) max=(%.3f %.3f %.3f) center=(%.3f %.3f %.3f)\n",
			it.Name,
			box.Min.X, box.Min.Y, box.Min.Z,
			box.Max.X, box.Max.Y, box.Max.Z,
			center.X, center.Y, center.Z)
	})
	all := s.scene.Bounds(s.act)
	if len(want) == 0 && !all.IsEmpty() {
		fmt.Printf("\nscene min=(%.3f %.3f %.3f) max=(%.3f %.3f %.3f)\n",
			all.Min.X, all.Min.Y, all.Min.Z, all.Max.X, all.Max.Y, all.Max.Z)
	}
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	limit := fs.Int("limit", 0, "Maximum primitives to print (0 = all)")
	common := addCommonFlags(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: primcount generate [-limit n] <name>")
		os.Exit(1)
	}

	s, err := newSession(shape.GenerateAction, common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer s.close()

	name := fs.Arg(0)
	found := false
	s.scene.Visit(s.act.State, func(it *scene.Item) {
		if it.Name != name {
			return
		}
		found = true
		var col primitive.Collector
		status := shape.GeneratePrimitives(s.act, it.Shape, &col)
		printed := printCollected(os.Stdout, &col, *limit)
		fmt.Fprintf(os.Stderr, "\n%s: %s, %d triangles, %d lines, %d points (%d printed)\n",
			name, status, len(col.Triangles), len(col.Lines), len(col.Points), printed)
	})
	if !found {
		fmt.Fprintf(os.Stderr, "No item named %q\n", name)
		os.Exit(1)
	}
}

func printCollected(w io.Writer, col *primitive.Collector, limit int) int {
	n := 0
	emit := func(kind string, c primitive.Collected, verts int) bool {
		if limit > 0 && n >= limit {
			return false
		}
		fmt.Fprintf(w, "%-8s face=%d part=%d line=%d", kind, c.Detail.Face, c.Detail.Part, c.Detail.Line)
		for i := 0; i < verts; i++ {
			p := c.V[i].Point
			fmt.Fprintf(w, " (%.3f %.3f %.3f)", p.X, p.Y, p.Z)
		}
		fmt.Fprintln(w)
		n++
		return true
	}
	for _, c := range col.Triangles {
		if !emit("triangle", c, 3) {
			return n
		}
	}
	for _, c := range col.Lines {
		if !emit("line", c, 2) {
			return n
		}
	}
	for _, c := range col.Points {
		if !emit("point", c, 1) {
			return n
		}
	}
	return n
}

func cmdMarkers(args []string) {
	fs := flag.NewFlagSet("markers", flag.ExitOnError)
	fs.Parse(args)

	reg := shape.DefaultMarkers
	var indices []int
	if fs.NArg() == 0 {
		for i := 0; i < shape.NumBuiltinMarkers; i++ {
			indices = append(indices, i)
		}
	} else {
		for _, a := range fs.Args() {
			var idx int
			if _, err := fmt.Sscan(a, &idx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: bad marker index %q\n", a)
				os.Exit(1)
			}
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	for _, idx := range indices {
		img, ok := reg.Marker(idx)
		if !ok {
			fmt.Fprintf(os.Stderr, "marker %d: not registered\n", idx)
			continue
		}
		fmt.Printf("marker %d (%dx%d)\n%s\n", idx, img.Width, img.Height, img)
	}
}
