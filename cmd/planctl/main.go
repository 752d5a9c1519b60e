package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"plan-kernel/internal/converter/mapper"
	"plan-kernel/internal/kernel/catalog"
	"plan-kernel/internal/kernel/joinery"
	"plan-kernel/internal/kernel/models"
	"plan-kernel/internal/kernel/service"
	"plan-kernel/internal/kernel/store"

	"github.com/alecthomas/kong"
)

// ============================================================
// planctl: офлайн-утилита над ядром в памяти
// ============================================================

type CLI struct {
	Catalog string `short:"c" help:"YAML file with extra materials and wall templates" type:"existingfile"`
	Out     string `short:"o" help:"Output file (stdout if empty)"`
	Verbose bool   `short:"v" help:"Log kernel activity to stderr"`

	Joinery   JoineryCmd   `cmd:"" help:"Run a joinery pass over a saved plan and print adjusted elements"`
	Import    ImportCmd    `cmd:"" help:"Import an SVG floor plan into plan JSON"`
	Render    RenderCmd    `cmd:"" help:"Render plan JSON as an SVG floor plan"`
	Templates TemplatesCmd `cmd:"" help:"List available wall templates"`
}

type JoineryCmd struct {
	Plan      string  `arg:"" help:"Plan JSON file" type:"existingfile"`
	Tolerance float64 `help:"Junction detection tolerance, m (0 means default)"`
	Style     string  `help:"Joint style: auto, butt, miter, overlap"`
}

type ImportCmd struct {
	SVG        string  `arg:"" name:"svg" help:"SVG floor plan" type:"existingfile"`
	Scale      float64 `help:"Meters per SVG unit" default:"0.01"`
	WallHeight float64 `help:"Wall height, m" default:"3"`
	Template   string  `help:"Wall template id for imported walls"`
	FlipY      bool    `name:"flip-y" help:"Flip the Y axis (SVG y grows down)"`
}

type TemplatesCmd struct{}

type RenderCmd struct {
	Plan  string  `arg:"" help:"Plan JSON file" type:"existingfile"`
	Scale float64 `help:"SVG units per meter" default:"100"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("planctl"),
		kong.Description("Wall assembly and joinery kernel tools."),
		kong.UsageOnError(),
	)

	if !cli.Verbose {
		log.SetOutput(io.Discard)
	}

	cat, err := loadCatalog(cli.Catalog)
	ctx.FatalIfErrorf(err)

	out, closeOut, err := openOutput(cli.Out)
	ctx.FatalIfErrorf(err)
	defer closeOut()

	switch ctx.Command() {
	case "joinery <plan>":
		err = cli.Joinery.Run(cat, out)
	case "import <svg>":
		err = cli.Import.Run(cat, out)
	case "render <plan>":
		err = cli.Render.Run(cat, out)
	case "templates":
		err = cli.Templates.Run(cat, out)
	default:
		err = fmt.Errorf("unknown command %q", ctx.Command())
	}
	ctx.FatalIfErrorf(err)
}

// ============================================================
// Commands
// ============================================================

func (c *JoineryCmd) Run(cat *catalog.Catalog, out io.Writer) error {
	style, err := joinery.ParseStyle(c.Style)
	if err != nil {
		return err
	}

	k := newKernel(cat)
	if err := loadPlan(k, c.Plan); err != nil {
		return err
	}

	res, err := k.RunJoinery(context.Background(), c.Tolerance, style)
	if err != nil {
		return err
	}
	for _, conflict := range res.Conflicts {
		fmt.Fprintf(os.Stderr, "conflict: %v\n", conflict.Err())
	}
	return writeJSON(out, k.Export())
}

func (c *ImportCmd) Run(cat *catalog.Catalog, out io.Writer) error {
	f, err := os.Open(c.SVG)
	if err != nil {
		return err
	}
	defer f.Close()

	k := newKernel(cat)
	im := mapper.NewImporter(k, mapper.ImportOptions{
		Scale:      c.Scale,
		WallHeight: c.WallHeight,
		TemplateID: c.Template,
		FlipY:      c.FlipY,
	})
	report, err := im.Import(f)
	if err != nil {
		return err
	}
	for _, s := range report.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.SourceID, s.Reason)
	}

	if _, err := k.Flush(context.Background()); err != nil {
		return err
	}
	return writeJSON(out, k.Export())
}

func (c *RenderCmd) Run(cat *catalog.Catalog, out io.Writer) error {
	k := newKernel(cat)
	scene := mapper.NewScene(c.Scale)
	k.Store().Subscribe(store.NewBackendObserver(scene))

	if err := loadPlan(k, c.Plan); err != nil {
		return err
	}
	if _, err := k.Flush(context.Background()); err != nil {
		return err
	}
	_, err := io.WriteString(out, scene.Render())
	return err
}

func (c *TemplatesCmd) Run(cat *catalog.Catalog, out io.Writer) error {
	return writeJSON(out, cat.Templates())
}

// ============================================================
// Helpers
// ============================================================

func newKernel(cat *catalog.Catalog) *service.Kernel {
	return service.New(store.New(nil), cat, service.Options{})
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.LoadFile(path)
}

// loadPlan читает массив снимков элементов и заменяет им состояние ядра.
func loadPlan(k *service.Kernel, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snaps []models.Snapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return fmt.Errorf("parse plan %s: %w", path, err)
	}
	return k.Import(snaps, true)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
