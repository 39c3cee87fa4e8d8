// Command shmdemo drives a real terminal against the shared-region
// engine: it puts the terminal into raw mode, builds a small
// declarative tree, starts the engine's renderer thread, and feeds
// decoded stdin bytes into the engine's input queue until the user
// quits. Grounded on app.go's Run loop, generalized from a direct
// re-render call to the wake-driven region.Region contract.
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/germtb/gox"

	"github.com/shmtui/tui"
	"github.com/shmtui/tui/declarative"
	"github.com/shmtui/tui/region"
)

func main() {
	fd := Stdin()
	state, err := MakeRaw(fd)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shmdemo: raw mode:", err)
		os.Exit(1)
	}
	defer Restore(fd, state)

	width, height, err := GetSize(Stdout())
	if err != nil || width == 0 || height == 0 {
		width, height = 80, 24
	}

	cfg := region.Config{
		MaxNodes:          4096,
		TextPoolCapacity:  64 * 1024,
		MaxViewportW:      uint32(width),
		MaxViewportH:      uint32(height),
		EventRingCapacity: 256,
	}
	r, err := region.Create(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "shmdemo: create region:", err)
		os.Exit(1)
	}

	builder := declarative.NewBuilder(r)
	tree := declarative.Box(gox.Props{"width": width, "height": height, "direction": "column", "padding": 1},
		declarative.Text("shmdemo -- press q to quit"),
		declarative.Box(gox.Props{"direction": "row", "gap": 2, "margin": 1},
			declarative.Text("left pane"),
			declarative.Text("right pane"),
		),
	)
	if _, err := builder.Commit(tree); err != nil {
		fmt.Fprintln(os.Stderr, "shmdemo: commit tree:", err)
		os.Exit(1)
	}

	engine, err := tui.EngineInit(r.Bytes(), os.Stdout, tui.DefaultWakeWatcherConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "shmdemo: engine init:", err)
		os.Exit(1)
	}
	engine.EngineWake()

	stdin := bufio.NewReader(os.Stdin)
	for {
		b, err := stdin.ReadByte()
		if err != nil {
			break
		}
		if b == 'q' || b == 0x03 { // q or Ctrl+C
			break
		}
		key, ok := decodeKey(stdin, b)
		if !ok {
			continue
		}
		engine.PushInput(region.Event{
			Kind:        region.EventKeyPress,
			Key:         key,
			TimestampNs: time.Now().UnixNano(),
		})
	}

	engine.EngineCleanup()
}

// decodeKey turns a raw stdin byte (and, for CSI sequences, the bytes
// that follow it) into a region.Event key value. Printable bytes pass
// through as their own rune; a handful of escape sequences map onto
// the tui package's reserved navigation key constants. Unrecognized
// escape sequences are dropped rather than guessed at.
func decodeKey(r *bufio.Reader, first byte) (rune, bool) {
	if first != 0x1b {
		return rune(first), true
	}
	b2, err := r.ReadByte()
	if err != nil {
		return 0, false
	}
	if b2 == '\t' {
		return tui.KeyShiftTab, true
	}
	if b2 != '[' {
		return 0, false
	}
	b3, err := r.ReadByte()
	if err != nil {
		return 0, false
	}
	switch b3 {
	case 'A':
		return tui.KeyArrowUp, true
	case 'B':
		return tui.KeyArrowDown, true
	case 'C':
		return tui.KeyArrowRight, true
	case 'D':
		return tui.KeyArrowLeft, true
	case 'Z':
		return tui.KeyShiftTab, true
	case '5', '6':
		tilde, err := r.ReadByte()
		if err != nil || tilde != '~' {
			return 0, false
		}
		if b3 == '5' {
			return tui.KeyPageUp, true
		}
		return tui.KeyPageDown, true
	}
	return 0, false
}
