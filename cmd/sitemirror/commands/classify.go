package commands

import (
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	"git.home.luguber.info/inful/sitemirror/internal/transform"
)

// ClassifyCmd prints how file names would be treated by a build using the
// built-in transforms.
type ClassifyCmd struct {
	Files []string `arg:"" name:"file" help:"File names to classify"`
}

func (c *ClassifyCmd) Run(g *Global, _ *CLI) error {
	registry, err := transform.Defaults(transform.Options{})
	if err != nil {
		return err
	}
	classifier := classify.New("", "", registry)

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "FILE\tROLE\tTRANSFORM\tOUTPUT")
	for _, name := range c.Files {
		d := classifier.Classify(name, "")
		id := "-"
		if d.NeedsTransform {
			id = d.TransformID
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, d.Role, id, d.OutputName())
	}
	return tw.Flush()
}
