package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"github.com/fileslot/bundlestore"
)

// REPL is an interactive put/get/inspect loop against a single storage
// root, mirroring the teacher's sloty REPL structure.
type REPL struct {
	storageRoot string
	alloc       *bundlestore.Allocator
	reader      *bundlestore.Reader
	liner       *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".bundlectl_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("bundlectl - bundlestore CLI (storage-root=%s)\n", r.storageRoot)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("bundlectl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "exit", "quit", "q":
			fmt.Println("Bye!")
			r.saveHistory()

			return nil

		case "help", "?":
			r.printHelp()

		case "put":
			r.cmdPut(args)

		case "get":
			r.cmdGet(args)

		case "inspect":
			r.cmdInspect(args)

		default:
			fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}

	r.saveHistory()

	return nil
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	commands := []string{"put", "get", "inspect", "help", "exit", "quit", "q"}

	var completions []string

	lower := strings.ToLower(line)
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, lower) {
			completions = append(completions, cmd)
		}
	}

	return completions
}

func (r *REPL) printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  put <prefix> <postfix> <file>   Write a file's contents as a blob")
	fmt.Println("  get <url> <out-file>             Read a blob to a file")
	fmt.Println("  inspect <prefix> <bid>           Show a bundle's header and record count")
	fmt.Println("  help                             Show this help")
	fmt.Println("  exit / quit / q                  Exit")
}

func (r *REPL) cmdPut(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: put <prefix> <postfix> <file>")
		return
	}

	prefix, postfix, file := args[0], args[1], args[2]

	payload, err := os.ReadFile(file) //nolint:gosec // file is intentionally user-controlled
	if err != nil {
		fmt.Printf("Error reading %s: %v\n", file, err)
		return
	}

	w, err := r.alloc.Allocate(prefix, postfix, uint64(len(payload)), r.storageRoot, "")
	if err != nil {
		fmt.Printf("Error allocating: %v\n", err)
		return
	}
	defer w.Release()

	_, url, err := w.Write(payload, bundlestore.WriteOptions{})
	if err != nil {
		fmt.Printf("Error writing: %v\n", err)
		return
	}

	fmt.Println(url)
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: get <url> <out-file>")
		return
	}

	url, outFile := args[0], args[1]

	payload, _, err := r.reader.Read(url, r.storageRoot)
	if err != nil {
		fmt.Printf("Error reading: %v\n", err)
		return
	}

	if err := os.WriteFile(outFile, payload, 0o644); err != nil { //nolint:gosec // operator-supplied output path
		fmt.Printf("Error writing %s: %v\n", outFile, err)
		return
	}

	fmt.Printf("OK: wrote %d bytes to %s\n", len(payload), outFile)
}

func (r *REPL) cmdInspect(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: inspect <prefix> <bid>")
		return
	}

	bid, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		fmt.Printf("Error parsing bid: %v\n", err)
		return
	}

	if err := inspectBundle(r.storageRoot, args[0], uint32(bid)); err != nil {
		fmt.Printf("Error: %v\n", err)
	}
}
