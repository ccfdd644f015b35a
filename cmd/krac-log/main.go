// Command krac-log is a tool for viewing and analyzing protocol log files.
//
// Log files are created by krac-device and krac-bridge when running with
// the -protocol-log flag.
//
// Usage:
//
//	krac-log <command> [flags] <file.klog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	krac-log view device.klog
//
//	# View only wire-layer events
//	krac-log view --layer wire device.klog
//
//	# View only incoming notifications
//	krac-log view --direction in --category message device.klog
//
//	# Export to JSONL
//	krac-log export --format jsonl device.klog
//
//	# Filter by capability and save to new file
//	krac-log filter --capability switch -o filtered.klog bridge.klog
//
//	# Show statistics
//	krac-log stats device.klog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/krac-home/krac-go/cmd/krac-log/commands"
)

const usage = `krac-log - KRAC Protocol Log Analyzer

Usage:
  krac-log <command> [flags] <file.klog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "krac-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `krac-log view - View log file in human-readable format

Usage:
  krac-log view [flags] <file.klog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (transport, wire, service)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error, snapshot)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	var filter commands.ViewFilter

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `krac-log export - Export log file to JSON or CSV format

Usage:
  krac-log export [flags] <file.klog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `krac-log filter - Filter log file and write to new file

Usage:
  krac-log filter [flags] <file.klog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	deviceID := fs.String("device-id", "", "Filter by device ID")
	capability := fs.String("capability", "", "Filter by capability ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, service)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, state, error, snapshot)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	opts := commands.FilterOptions{
		Output:     *output,
		ConnID:     *connID,
		DeviceID:   *deviceID,
		Capability: *capability,
		TimeStart:  *timeStart,
		TimeEnd:    *timeEnd,
		Layer:      *layer,
		Direction:  *direction,
		Category:   *category,
	}

	if err := commands.RunFilter(path, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `krac-log stats - Show statistics about the log file

Usage:
  krac-log stats <file.klog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
