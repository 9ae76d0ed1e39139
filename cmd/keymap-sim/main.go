// Command keymap-sim is a host simulator for the keymap engine: it builds
// a small demonstration layout, drives it from a text trace of input
// events (or an interactive TUI), and prints the resulting HID reports.
//
// Trace file format, one instruction per line:
//
//	press <index>
//	release <index>
//	wait <ms>
//	# comment
//
// Blank lines and lines starting with '#' are ignored.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgoulter/smart-keymap-go/hidreport"
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/internal/chime"
	"github.com/rgoulter/smart-keymap-go/internal/config"
	"github.com/rgoulter/smart-keymap-go/internal/tui"
	"github.com/rgoulter/smart-keymap-go/keymap"
)

type traceOp struct {
	kind  string // "press", "release", "wait"
	value uint32
}

func parseTrace(r io.Reader) ([]traceOp, error) {
	var ops []traceOp
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("trace line %d: expected \"<op> <value>\", got %q", lineNo, line)
		}
		n, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("trace line %d: %w", lineNo, err)
		}
		switch fields[0] {
		case "press", "release", "wait":
			ops = append(ops, traceOp{kind: fields[0], value: uint32(n)})
		default:
			return nil, fmt.Errorf("trace line %d: unknown op %q", lineNo, fields[0])
		}
	}
	return ops, scanner.Err()
}

func printReport(r hidreport.Report) {
	fmt.Printf("kbd % x  cons % x  cust % x  mouse btn=%02x x=%d y=%d\n",
		r.Keyboard, r.Consumer, r.Custom, r.Mouse.Buttons, r.Mouse.X, r.Mouse.Y)
}

func run() error {
	tracePath := flag.String("trace", "", "path to a trace file (omit for interactive TUI only)")
	interactive := flag.Bool("tui", false, "run the interactive bubbletea visualizer")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	var dbg *log.Logger
	if *debug {
		dbg = log.New(os.Stderr, "[DEBUG] ", log.Ltime|log.Lmicroseconds)
	} else {
		dbg = log.New(io.Discard, "", 0)
	}

	cfgPath := config.DefaultPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	layout, keys, layerNames := demoLayout()
	km := keymap.New(layout, keys, cfg.Timing.MsPerTick, dbg)

	chimePlayer := chime.New(cfg.Chime.TapHz, cfg.Chime.HoldHz, cfg.Chime.CapsWordHz, cfg.Chime.DurationMs, cfg.Chime.Enabled, dbg)

	if *interactive || *tracePath == "" {
		model := tui.NewModel(km, layerNames, chimePlayer, dbg, *debug)
		p := tea.NewProgram(model, tea.WithAltScreen())
		if *debug {
			dbg.SetOutput(tui.NewLogWriter(p))
		}
		_, err := p.Run()
		return err
	}

	f, err := os.Open(*tracePath)
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()

	ops, err := parseTrace(f)
	if err != nil {
		return fmt.Errorf("parse trace: %w", err)
	}

	for _, op := range ops {
		switch op.kind {
		case "press":
			report, _ := km.RegisterInputAfterMs(0, input.NewPress(uint16(op.value)))
			printReport(report)
		case "release":
			report, _ := km.RegisterInputAfterMs(0, input.NewRelease(uint16(op.value)))
			printReport(report)
		case "wait":
			remaining := op.value
			for remaining > 0 {
				step := uint32(cfg.Timing.MsPerTick)
				if step == 0 || step > remaining {
					step = remaining
				}
				report := km.Tick()
				printReport(report)
				remaining -= step
			}
		}
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "keymap-sim:", err)
		os.Exit(1)
	}
}
