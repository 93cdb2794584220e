package journal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/ryanreadbooks/tokkichat/conversation"
)

const filename = "frames.jsonl"

// Journal records the frames of every thread in an append only file
//
// - <root>/threads/<agent_id>/<thread_id>/frames.jsonl
//
// One line is one frame, the same format inspect reads. Nothing is read back
// into a live session.
type Journal struct {
	root string

	mu    sync.Mutex
	files map[conversation.Scope]*os.File
}

func New(root string) *Journal {
	return &Journal{
		root:  root,
		files: make(map[conversation.Scope]*os.File),
	}
}

// Path is the file holding the frames of scope.
func (j *Journal) Path(scope conversation.Scope) string {
	agent := scope.AgentId
	if agent == "" {
		agent = "_"
	}
	return filepath.Join(j.root, "threads", url.PathEscape(agent), url.PathEscape(scope.Thread.String()), filename)
}

// Append writes one frame as a single line.
func (j *Journal) Append(scope conversation.Scope, data []byte) error {
	var line bytes.Buffer
	if err := json.Compact(&line, data); err != nil {
		return fmt.Errorf("failed to compact frame: %w", err)
	}
	line.WriteByte('\n')

	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := j.file(scope)
	if err != nil {
		return err
	}
	_, err = f.Write(line.Bytes())
	return err
}

func (j *Journal) file(scope conversation.Scope) (*os.File, error) {
	if f, ok := j.files[scope]; ok {
		return f, nil
	}

	path := j.Path(scope)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	j.files[scope] = f
	return f, nil
}

func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	var errs []error
	for scope, f := range j.files {
		errs = append(errs, f.Close())
		delete(j.files, scope)
	}
	return errors.Join(errs...)
}
