// bundlectl is a developer CLI for putting and reading blobs against a
// bundlestore storage root, and for inspecting bundle files directly. It is
// operator tooling, not part of the bundlestore library's contract.
//
// Usage:
//
//	bundlectl put <storage-root> <prefix> <postfix> <file>
//	bundlectl get <storage-root> <url>
//	bundlectl inspect <storage-root> <prefix> <bid>
//	bundlectl repl <storage-root>
//
// bundlectl reads optional Settings overrides from .bundlectl.jsonc in the
// working directory, if present.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/fileslot/bundlestore"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bundlectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	settings, err := loadToolConfig()
	if err != nil {
		return err
	}

	bundlestore.SetSettings(settings)

	if len(args) < 1 {
		printUsage()
		return errors.New("missing command")
	}

	switch args[0] {
	case "put":
		return runPut(args[1:])
	case "get":
		return runGet(args[1:])
	case "inspect":
		return runInspect(args[1:])
	case "repl":
		return runRepl(args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  bundlectl put <storage-root> <prefix> <postfix> <file>")
	fmt.Fprintln(os.Stderr, "  bundlectl get <storage-root> <url>")
	fmt.Fprintln(os.Stderr, "  bundlectl inspect <storage-root> <prefix> <bid>")
	fmt.Fprintln(os.Stderr, "  bundlectl repl <storage-root>")
}

func runPut(args []string) error {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	userData := fs.StringP("user-data", "u", "", "user data to embed in the record")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bundlectl put [flags] <storage-root> <prefix> <postfix> <file>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 4 {
		fs.Usage()
		return errors.New("missing arguments")
	}

	storageRoot, prefix, postfix, file := fs.Arg(0), fs.Arg(1), fs.Arg(2), fs.Arg(3)

	payload, err := os.ReadFile(file) //nolint:gosec // file is intentionally user-controlled
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	alloc := bundlestore.NewAllocator()

	w, err := alloc.Allocate(prefix, postfix, uint64(len(payload)), storageRoot, "")
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}
	defer w.Release()

	_, url, err := w.Write(payload, bundlestore.WriteOptions{UserData: []byte(*userData)})
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	fmt.Println(url)

	return nil
}

func runGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bundlectl get <storage-root> <url>")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("missing arguments")
	}

	storageRoot, url := fs.Arg(0), fs.Arg(1)

	reader := bundlestore.NewReader()

	payload, _, err := reader.Read(url, storageRoot)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	_, err = os.Stdout.Write(payload)

	return err
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bundlectl inspect <storage-root> <prefix> <bid>")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 3 {
		fs.Usage()
		return errors.New("missing arguments")
	}

	storageRoot, prefix := fs.Arg(0), fs.Arg(1)

	bid, err := strconv.ParseUint(fs.Arg(2), 10, 32)
	if err != nil {
		return fmt.Errorf("bad bid %q: %w", fs.Arg(2), err)
	}

	return inspectBundle(storageRoot, prefix, uint32(bid))
}

func runRepl(args []string) error {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: bundlectl repl <storage-root>")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("missing storage root")
	}

	repl := &REPL{storageRoot: fs.Arg(0), alloc: bundlestore.NewAllocator(), reader: bundlestore.NewReader()}

	return repl.Run()
}
