package poller

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/paperdesk/paperdesk/interfaces"
	"github.com/paperdesk/paperdesk/internal/utils"
)

// fileLedger is the durable processed-id set, stored as a single JSON array
// and fully rewritten on each Mark. The in-memory view is loaded once at
// startup and is the single source of truth afterwards. Single-writer: one
// poller per ledger file.
type fileLedger struct {
	path string

	mu    sync.Mutex
	ids   map[string]struct{}
	order []string
}

func NewFileLedger(path string) (interfaces.Ledger, error) {
	ledger := &fileLedger{
		path: path,
		ids:  make(map[string]struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create ledger directory")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ledger, nil
		}
		return nil, errors.Wrap(err, "failed to read ledger")
	}

	var stored []string
	if err = json.Unmarshal(raw, &stored); err != nil {
		return nil, errors.Wrap(err, "ledger file is corrupt")
	}
	for _, id := range stored {
		if _, seen := ledger.ids[id]; !seen {
			ledger.ids[id] = struct{}{}
			ledger.order = append(ledger.order, id)
		}
	}

	return ledger, nil
}

func (l *fileLedger) Contains(messageID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.ids[messageID]
	return ok
}

// Mark records the id and flushes the whole array to disk before returning.
// Marking an already recorded id is a no-op.
func (l *fileLedger) Mark(messageID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[messageID]; ok {
		return nil
	}
	l.ids[messageID] = struct{}{}
	l.order = append(l.order, messageID)

	raw, err := json.Marshal(l.order)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(l.path, raw)
}

func (l *fileLedger) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ids)
}
