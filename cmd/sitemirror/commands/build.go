package commands

import (
	"fmt"
	"time"

	"git.home.luguber.info/inful/sitemirror/internal/mirror"
)

// BuildCmd runs one full build into <dir>/_build.
type BuildCmd struct {
	Dir string `arg:"" optional:"" default:"." type:"existingdir" help:"Project directory containing config.json"`
}

func (b *BuildCmd) Run(g *Global, _ *CLI) error {
	report, err := mirror.Build(mirror.Options{
		SourceDir: b.Dir,
		Mode:      mirror.ModeBuild,
		Logger:    g.logger(),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(g.out(), "Built %d files (%d transformed, %d skipped) into %s in %s\n",
		report.Files, report.Transformed, report.Skipped, report.OutputDir, report.Duration().Round(time.Millisecond))
	return err
}
