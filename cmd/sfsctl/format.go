package main

import (
	"fmt"

	"github.com/chzyer/flow"

	"github.com/chzyer/sfs"
	"github.com/chzyer/sfs/internal/blockdev"
)

// FormatCmd initializes a new disk image on the filesystem, sized to
// hold the requested number of BlockSize blocks.
type FormatCmd struct {
	Path   string `type:"[0]" desc:"disk image path" default:"sfs.img"`
	Blocks int    `name:"blocks" desc:"number of blocks in the new image" default:"1024"`
}

func (cfg *FormatCmd) FlaglyDesc() string {
	return "initialize a new disk image"
}

func (cfg *FormatCmd) FlaglyHandle(f *flow.Flow) error {
	defer f.Close()

	path := cfg.Path
	if path == "" {
		path = defaults.DiskPath
	}
	blocks := cfg.Blocks
	if blocks == 0 {
		blocks = defaults.Blocks
	}

	dev, err := blockdev.OpenFileDevice(path, sfs.BlockSize, blocks)
	if err != nil {
		return err
	}
	defer dev.Close()

	ok, err := sfs.Format(dev)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("format: %s is already mounted", path)
	}
	fmt.Printf("formatted %s: %d blocks\n", path, blocks)
	return nil
}
