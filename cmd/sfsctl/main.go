// Command sfsctl formats and inspects sfs disk images from the command
// line.
package main

import (
	"github.com/chzyer/flagly"
	"github.com/chzyer/flow"
	"github.com/chzyer/logex"
)

// Config is the top-level command tree, dispatched by flagly.
type Config struct {
	Format *FormatCmd `flagly:"handler"`
	Shell  *ShellCmd  `flagly:"handler"`
}

var defaults = loadEnvDefaults()

func main() {
	cfg := new(Config)
	f := flow.New()

	flagly.Run(cfg, f)

	if err := f.Wait(); err != nil {
		logex.Fatal(err)
	}
}
