package sfs

import (
	"fmt"
	"io"

	"github.com/chzyer/logex"
	"github.com/chzyer/sfs/internal/blockdev"
)

// Debug performs a read-only inspection of dev — mounted or not — and
// writes a human-readable report of the superblock and every valid
// inode to w.
func Debug(dev blockdev.Device, w io.Writer) error {
	buf := make([]byte, BlockSize)
	if err := dev.ReadBlock(0, buf); err != nil {
		return logex.Trace(err)
	}
	var sb Superblock
	if err := sb.UnmarshalBinary(buf); err != nil {
		return logex.Trace(err)
	}

	valid := "invalid"
	if sb.MagicNumber == MagicNumber {
		valid = "valid"
	}
	fmt.Fprintf(w, "SuperBlock:\n")
	fmt.Fprintf(w, "    magic number is %s\n", valid)
	fmt.Fprintf(w, "    %d blocks\n", sb.Blocks)
	fmt.Fprintf(w, "    %d inode blocks\n", sb.InodeBlocks)
	fmt.Fprintf(w, "    %d inodes\n", sb.Inodes)

	if sb.InodeBlocks == 0 {
		return nil
	}

	inodeBuf := make([]byte, BlockSize)
	for block := 1; block <= int(sb.InodeBlocks); block++ {
		if err := dev.ReadBlock(block, inodeBuf); err != nil {
			return logex.Trace(err)
		}
		for slot := 0; slot < InodesPerBlock; slot++ {
			var rec InodeRecord
			off := slot * InodeSize
			if err := rec.UnmarshalBinary(inodeBuf[off : off+InodeSize]); err != nil {
				return logex.Trace(err)
			}
			if rec.Valid == 0 {
				continue
			}
			inumber := (block-1)*InodesPerBlock + slot
			fmt.Fprintf(w, "Inode %d:\n", inumber)
			fmt.Fprintf(w, "    size: %d bytes\n", rec.Size)
			fmt.Fprintf(w, "    direct blocks:")
			for _, d := range rec.Direct {
				if d != 0 {
					fmt.Fprintf(w, " %d", d)
				}
			}
			fmt.Fprintf(w, "\n")

			if rec.Indirect != 0 {
				var ib indirectBlock
				ibuf := make([]byte, BlockSize)
				if err := dev.ReadBlock(int(rec.Indirect), ibuf); err != nil {
					return logex.Trace(err)
				}
				if err := ib.UnmarshalBinary(ibuf); err != nil {
					return logex.Trace(err)
				}
				fmt.Fprintf(w, "    indirect block: %d\n", rec.Indirect)
				fmt.Fprintf(w, "    indirect data blocks:")
				for _, p := range ib.Pointers {
					if p != 0 {
						fmt.Fprintf(w, " %d", p)
					}
				}
				fmt.Fprintf(w, "\n")
			}
		}
	}
	return nil
}
