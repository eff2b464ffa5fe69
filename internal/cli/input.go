// Package cli handles cmd line input and searches for testing and debugging various features
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/splitsearch/internal/logger"
	"github.com/bastiangx/splitsearch/pkg/dict"
	"github.com/charmbracelet/log"
)

// InputHandler processes user input from stdin, running ranked searches
// against a dictionary. Besides plain queries it understands a few mutation
// commands so feedback and removal can be exercised without the IPC server.
type InputHandler struct {
	dict         *dict.Dict
	last         *dict.Matches
	log          *log.Logger
	limit        int
	delimiter    byte
	requestCount int
}

// NewInputHandler handles initialization of the InputHandler with basic parameters
func NewInputHandler(d *dict.Dict, limit int, delimiter byte) *InputHandler {
	return &InputHandler{
		dict:      d,
		log:       logger.New("cli"),
		limit:     limit,
		delimiter: delimiter,
	}
}

// Start begins the interface loop.
// It continuously prompts for input, reads a line from stdin, and passes the
// trimmed input to handleInput() for processing. Words on a line are the
// needle segments; lines starting with '+' or '-' add or remove a delimited
// path, and ':N' selects entry N of the last result set.
// Loop terminates when stdin is drained or errors.
func (h *InputHandler) Start() error {
	h.log.Print("SplitSearch CLI")
	reader := bufio.NewReader(os.Stdin)
	h.log.Print("type query segments and press Enter (+path to add, -path to remove, :N to select, Ctrl+C to exit):")

	for {
		h.log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			h.release()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

func (h *InputHandler) release() {
	if h.last != nil {
		h.last.Release()
		h.last = nil
	}
}

// handleInput processes a single line: a command or a query.
func (h *InputHandler) handleInput(line string) {
	h.requestCount++

	switch {
	case strings.HasPrefix(line, "+"):
		path := strings.TrimSpace(line[1:])
		if ok := h.dict.AddDelimited(path, h.delimiter, path, 0, 0); !ok {
			h.log.Warnf("Different entry already registered at: %s", path)
			return
		}
		h.log.Printf("Added %s", path)
	case strings.HasPrefix(line, "-"):
		path := strings.TrimSpace(line[1:])
		if ok := h.dict.RemoveDelimited(path, h.delimiter, path); !ok {
			h.log.Warnf("No such entry: %s", path)
			return
		}
		h.log.Printf("Removed %s", path)
	case strings.HasPrefix(line, ":"):
		index, err := strconv.Atoi(line[1:])
		if err != nil {
			h.log.Errorf("Bad select index: %s", line[1:])
			return
		}
		if h.last == nil {
			h.log.Warn("Nothing to select from, run a query first")
			return
		}
		h.last.Select(index)
		h.log.Printf("Selected %d", index)
	default:
		h.handleQuery(strings.Fields(line))
	}
}

// handleQuery runs one ranked search and prints the results.
func (h *InputHandler) handleQuery(needle []string) {
	start := time.Now()
	matches := h.dict.Search(needle)
	elapsed := time.Since(start)

	if matches == nil {
		h.log.Warn("Empty query")
		return
	}
	matches.KeepFirst(h.limit)

	h.release()
	h.last = matches

	h.log.Debugf("Took [ %v ] for query %v", elapsed, needle)

	if matches.Size() == 0 {
		h.log.Warnf("No matches for query: %v", needle)
		return
	}

	h.log.Printf("Found %d matches for query %v:", matches.Size(), needle)
	for i := 0; i < matches.Size(); i++ {
		match, _ := matches.At(i)
		data := fmt.Sprintf("%v", match.Userdata())
		clData := fmt.Sprintf("\033[38;5;75m%s\033[0m", data)
		h.log.Printf("%2d. %-40s (e: %d, sc: %d, pts: %d, pen: %d)",
			i, clData, match.Echelon(), match.SelectCount(),
			match.Score().Points, match.Score().Penalty)
	}
}
