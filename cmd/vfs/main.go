// Command vfs manipulates a namespace snapshot from the shell. Every
// invocation loads the state file, applies one operation and saves the state
// back, so a sequence of invocations behaves like one long session. The repl
// subcommand keeps the namespace in memory and saves once on exit.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/akulagin/indexfs/internal/bench"
	"github.com/akulagin/indexfs/internal/index"
	"github.com/akulagin/indexfs/internal/snapshot"
	"github.com/akulagin/indexfs/internal/vfs"
)

func main() {
	statePath := flag.String("s", ".vfs_state.bin.gz", "path to the state file")
	order := flag.Int("order", 0, "B-tree order for a fresh state (0 = default)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ctx := context.Background()
	store := snapshot.NewFileStore(*statePath, effectiveOrder(*order))

	ns, err := store.Load(ctx)
	if err != nil {
		fail(err)
	}

	cmd, cmdArgs := args[0], args[1:]
	switch cmd {
	case "repl":
		if err := repl(ctx, ns, store); err != nil {
			fail(err)
		}
		return
	case "bench":
		if err := runBench(ns); err != nil {
			fail(err)
		}
		return
	}

	if err := apply(ns, cmd, cmdArgs); err != nil {
		fail(err)
	}
	if err := store.Save(ctx, ns); err != nil {
		fail(err)
	}
}

func effectiveOrder(order int) int {
	if order > 0 {
		return order
	}
	return index.DefaultOrder
}

// apply runs a single verb against the namespace.
func apply(ns *vfs.Namespace, cmd string, args []string) error {
	switch cmd {
	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("usage: mkdir <path>")
		}
		return ns.Mkdir(args[0])
	case "touch":
		if len(args) != 1 {
			return fmt.Errorf("usage: touch <path>")
		}
		return ns.Touch(args[0])
	case "write":
		if len(args) < 1 {
			return fmt.Errorf("usage: write <path> [content]")
		}
		return ns.Write(args[0], []byte(strings.Join(args[1:], " ")))
	case "read":
		if len(args) != 1 {
			return fmt.Errorf("usage: read <path>")
		}
		data, err := ns.Read(args[0])
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		fmt.Println()
		return nil
	case "ls":
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		names, err := ns.Ls(path)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	case "rm":
		if len(args) != 1 {
			return fmt.Errorf("usage: rm <path>")
		}
		return ns.Rm(args[0])
	case "stat":
		path := "/"
		if len(args) == 1 {
			path = args[0]
		}
		meta, err := ns.Stat(path)
		if err != nil {
			return err
		}
		fmt.Printf("ino:    %d\n", meta.Ino)
		fmt.Printf("parent: %d\n", meta.ParentIno)
		fmt.Printf("type:   %s\n", meta.Type)
		fmt.Printf("mode:   %o\n", meta.Mode)
		fmt.Printf("size:   %d\n", meta.Size)
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// repl reads verbs line by line and saves the namespace once on exit.
func repl(ctx context.Context, ns *vfs.Namespace, store snapshot.Store) error {
	prompt := color.New(color.FgGreen, color.Bold)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		prompt.Print("vfs> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "exit", "quit":
			return store.Save(ctx, ns)
		case "save":
			if err := store.Save(ctx, ns); err != nil {
				printError(err)
			}
			continue
		}
		if err := apply(ns, cmd, args); err != nil {
			printError(err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return store.Save(ctx, ns)
}

func runBench(ns *vfs.Namespace) error {
	const (
		dirs        = 16
		filesPerDir = 256
		reads       = 10000
	)

	fmt.Printf("populating %d directories x %d files\n", dirs, filesPerDir)
	paths, err := bench.Populate(ns, dirs, filesPerDir)
	if err != nil {
		return err
	}

	samples, dropped, err := bench.TimeRandomReads(ns, paths, reads)
	if err != nil {
		return err
	}
	bench.Report(os.Stdout, samples, dropped)
	return nil
}

func printError(err error) {
	color.New(color.FgRed).Fprintf(os.Stderr, "error: %v\n", err)
}

func fail(err error) {
	printError(err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vfs [-s state] [-order n] <command> [args]")
	fmt.Fprintln(os.Stderr, "commands: mkdir touch write read ls rm stat repl bench")
}
