package logs

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tokenpace/tokenpace/internal/engine"
)

// rawRecord maps the JSONL fields we care about; unknown fields are
// ignored for forward compatibility.
type rawRecord struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	SessionID string `json:"sessionId"`
	RequestID string `json:"requestId"`
	Message   *struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Usage *struct {
			InputTokens              int64 `json:"input_tokens"`
			OutputTokens             int64 `json:"output_tokens"`
			CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// DefaultRoot returns the Claude Code projects directory.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// Reader locates and parses usage logs under one or more roots.
type Reader struct {
	roots []string
}

// NewReader creates a reader over the given roots. Roots that do not
// exist are tolerated; a refresh with no readable files reports
// NoData instead of failing.
func NewReader(roots []string) *Reader {
	return &Reader{roots: roots}
}

// ReadAll walks every root, parses all .jsonl files, and returns the
// combined normalized events plus ingest diagnostics. Malformed lines
// (including a partial trailing line of a file being appended to) are
// skipped and counted, never propagated.
func (r *Reader) ReadAll() ([]engine.Event, engine.SourceStats) {
	var stats engine.SourceStats
	var paths []string
	for _, root := range r.roots {
		_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() || filepath.Ext(path) != ".jsonl" {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
	}
	if len(paths) == 0 {
		stats.NoData = true
		return nil, stats
	}

	events := make([]engine.Event, 0, len(paths)*50)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		stats.Files++
		project := filepath.Base(filepath.Dir(path))
		session := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		parseFile(f, project, session, &events, &stats)
		_ = f.Close()
	}
	if stats.Files == 0 {
		stats.NoData = true
	}
	return events, stats
}

func parseFile(f *os.File, project, session string, events *[]engine.Event, stats *engine.SourceStats) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		stats.Records++

		ev, ok := normalize(line, project, session)
		if !ok {
			stats.Malformed++
			continue
		}
		if ev == nil {
			continue // not a usage record
		}
		*events = append(*events, *ev)
	}
	if err := scanner.Err(); err != nil {
		stats.Malformed++
	}
}

// normalize turns one raw line into a typed event. Returns (nil, true)
// for well-formed records that simply carry no usage, and ok=false for
// records the contract rejects: unparseable JSON, missing timestamps,
// negative token counts. Absent token keys default to zero.
func normalize(line []byte, project, session string) (*engine.Event, bool) {
	var rec rawRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, false
	}
	if rec.Type != "assistant" || rec.Message == nil || rec.Message.Usage == nil {
		return nil, true
	}
	if rec.Timestamp == "" {
		return nil, false
	}
	ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	if err != nil {
		ts, err = time.Parse("2006-01-02T15:04:05.000Z", rec.Timestamp)
		if err != nil {
			return nil, false
		}
	}
	u := rec.Message.Usage
	if u.InputTokens < 0 || u.OutputTokens < 0 || u.CacheCreationInputTokens < 0 || u.CacheReadInputTokens < 0 {
		return nil, false
	}

	if rec.SessionID != "" {
		session = rec.SessionID
	}
	ev := &engine.Event{
		Timestamp:           ts.UTC(),
		Model:               rec.Message.Model,
		Project:             project,
		Session:             session,
		InputTokens:         u.InputTokens,
		OutputTokens:        u.OutputTokens,
		CacheCreationTokens: u.CacheCreationInputTokens,
		CacheReadTokens:     u.CacheReadInputTokens,
	}
	if rec.Message.ID != "" || rec.RequestID != "" {
		ev.ID = rec.Message.ID + ":" + rec.RequestID
	}
	return ev, true
}
