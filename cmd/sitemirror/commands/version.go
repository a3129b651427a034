package commands

import (
	"fmt"

	"git.home.luguber.info/inful/sitemirror/internal/version"
)

// VersionCmd prints build information.
type VersionCmd struct{}

func (v *VersionCmd) Run(g *Global, _ *CLI) error {
	_, err := fmt.Fprintln(g.out(), version.String())
	return err
}
