package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	timerout "pomoguard/internal/modules/timer/port/out"
)

// Badge is the on-disk indicator that status bars and shell prompts read.
type Badge struct {
	Text      string    `json:"text"`
	Color     string    `json:"color"`
	UpdatedAt time.Time `json:"updated_at"`
}

type FileBadge struct {
	path string
	now  func() time.Time
}

func NewFileBadge(path string) timerout.Badge {
	return &FileBadge{path: path, now: func() time.Time { return time.Now().UTC() }}
}

// Update replaces the badge file atomically so readers never see a torn write.
func (b *FileBadge) Update(_ context.Context, text, color string) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create badge dir: %w", err)
	}
	payload, err := json.MarshalIndent(Badge{Text: text, Color: color, UpdatedAt: b.now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal badge: %w", err)
	}
	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write badge: %w", err)
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return fmt.Errorf("replace badge: %w", err)
	}
	return nil
}

func ReadBadge(path string) (Badge, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Badge{}, fmt.Errorf("read badge: %w", err)
	}
	out := Badge{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return Badge{}, fmt.Errorf("decode badge: %w", err)
	}
	return out, nil
}
