package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/flow"
	"github.com/chzyer/readline"

	"github.com/chzyer/sfs"
	"github.com/chzyer/sfs/internal/blockdev"
)

// ShellCmd opens an interactive session against a disk image: a small
// line-based command loop rather than a full flag surface per
// operation.
type ShellCmd struct {
	Path string `type:"[0]" desc:"disk image path" default:"sfs.img"`
}

func (cfg *ShellCmd) FlaglyDesc() string {
	return "open an interactive session against a disk image"
}

func (cfg *ShellCmd) FlaglyHandle(f *flow.Flow) error {
	defer f.Close()

	path := cfg.Path
	if path == "" {
		path = defaults.DiskPath
	}

	dev, err := blockdev.OpenExistingFileDevice(path, sfs.BlockSize)
	if err != nil {
		return fmt.Errorf("open %s: %v (did you run 'sfsctl format' first?)", path, err)
	}
	defer dev.Close()

	sh := &shell{dev: dev, path: path}
	return sh.run()
}

type shell struct {
	dev  *blockdev.FileDevice
	path string
	fs   *sfs.FileSystem
}

func (sh *shell) run() error {
	rl, err := readline.New(sh.path + "> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line := rl.Line()
		if line.CanBreak() {
			break
		} else if line.CanContinue() {
			continue
		}
		sh.dispatch(strings.Fields(line.Line))
	}
	if sh.fs != nil {
		sh.fs.Unmount()
	}
	return nil
}

func (sh *shell) dispatch(args []string) {
	if len(args) == 0 {
		return
	}
	cmd, rest := args[0], args[1:]

	if cmd != "mount" && cmd != "help" && cmd != "quit" && sh.fs == nil {
		fmt.Println("not mounted, run 'mount' first")
		return
	}

	var err error
	switch cmd {
	case "mount":
		err = sh.cmdMount()
	case "debug":
		err = sfs.Debug(sh.dev, os.Stdout)
	case "create":
		err = sh.cmdCreate()
	case "remove":
		err = sh.cmdRemove(rest)
	case "stat":
		err = sh.cmdStat(rest)
	case "cat":
		err = sh.cmdCat(rest)
	case "copyin":
		err = sh.cmdCopyin(rest)
	case "copyout":
		err = sh.cmdCopyout(rest)
	case "fsck":
		err = sh.cmdFsck(rest)
	case "help":
		sh.cmdHelp()
	case "quit", "exit":
		os.Exit(0)
	default:
		fmt.Println("unknown command:", cmd, "(try 'help')")
	}
	if err != nil {
		fmt.Println("error:", err)
	}
}

func (sh *shell) cmdMount() error {
	if sh.fs != nil {
		fmt.Println("already mounted")
		return nil
	}
	fs, err := sfs.Mount(sh.dev)
	if err != nil {
		return err
	}
	if fs == nil {
		return fmt.Errorf("mount rejected: bad superblock or already mounted")
	}
	sh.fs = fs
	fmt.Printf("mounted: %d blocks, %d inodes\n", fs.Blocks(), fs.Inodes())
	return nil
}

func (sh *shell) cmdCreate() error {
	n, err := sh.fs.Create()
	if err != nil {
		return err
	}
	if n == -1 {
		fmt.Println("create failed: inode table is full")
		return nil
	}
	fmt.Println("created inode", n)
	return nil
}

func parseInumber(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("usage: <command> <inumber>")
	}
	return strconv.Atoi(args[0])
}

func (sh *shell) cmdRemove(args []string) error {
	n, err := parseInumber(args)
	if err != nil {
		return err
	}
	ok, err := sh.fs.Remove(n)
	if err != nil {
		return err
	}
	fmt.Println("removed:", ok)
	return nil
}

func (sh *shell) cmdStat(args []string) error {
	n, err := parseInumber(args)
	if err != nil {
		return err
	}
	size, err := sh.fs.Stat(n)
	if err != nil {
		return err
	}
	if size == -1 {
		fmt.Println("no such inode")
		return nil
	}
	fmt.Printf("inode %d: %d bytes\n", n, size)
	return nil
}

func (sh *shell) cmdCat(args []string) error {
	n, err := parseInumber(args)
	if err != nil {
		return err
	}
	size, err := sh.fs.Stat(n)
	if err != nil {
		return err
	}
	if size == -1 {
		return fmt.Errorf("no such inode")
	}
	buf := make([]byte, size)
	read, err := sh.fs.Read(n, buf, size, 0)
	if err != nil {
		return err
	}
	os.Stdout.Write(buf[:read])
	fmt.Println()
	return nil
}

func (sh *shell) cmdCopyin(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: copyin <src> <inumber>")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return err
	}
	data, err := ioutil.ReadFile(args[0])
	if err != nil {
		return err
	}
	written, err := sh.fs.Write(n, data, len(data), 0)
	if err != nil {
		return err
	}
	if written < len(data) {
		fmt.Printf("short write: %d of %d bytes\n", written, len(data))
	} else {
		fmt.Printf("wrote %d bytes\n", written)
	}
	return nil
}

func (sh *shell) cmdCopyout(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: copyout <inumber> <dst>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	size, err := sh.fs.Stat(n)
	if err != nil {
		return err
	}
	if size == -1 {
		return fmt.Errorf("no such inode")
	}
	var buf bytes.Buffer
	buf.Grow(size)
	chunk := make([]byte, size)
	read, err := sh.fs.Read(n, chunk, size, 0)
	if err != nil {
		return err
	}
	buf.Write(chunk[:read])
	return ioutil.WriteFile(args[1], buf.Bytes(), 0644)
}

func (sh *shell) cmdFsck(args []string) error {
	verbose := len(args) > 0 && (args[0] == "-v" || args[0] == "--verbose")
	report, err := sh.fs.Fsck(verbose)
	if err != nil {
		return err
	}
	fmt.Println(report)
	if verbose {
		for idx, sum := range report.Checksums {
			fmt.Printf("  block %d: crc32=%08x\n", idx, sum)
		}
	}
	return nil
}

func (sh *shell) cmdHelp() {
	fmt.Println(`commands:
  mount                    mount the disk image
  debug                    dump superblock and inode table
  create                   create a new inode
  remove <n>               remove inode n
  stat <n>                 print inode n's size
  cat <n>                  print inode n's contents to stdout
  copyin <src> <n>         copy a host file into inode n
  copyout <n> <dst>        copy inode n's contents to a host file
  fsck [-v]                run a consistency scrub
  quit                     exit the shell`)
}
