package analytics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AnishMulay/sandtrap/internal/event_log"
)

const maxLine = 1 << 20

// Load reads events.jsonl content. Lines that do not decode are counted in
// skipped and otherwise ignored.
func Load(r io.Reader) (events []event_log.Event, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e event_log.Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			skipped++
			continue
		}
		events = append(events, e)
	}
	return events, skipped, sc.Err()
}

func LoadFile(path string) ([]event_log.Event, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNoEvents, err)
	}
	defer f.Close()
	return Load(f)
}
