package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store writes transcripts as plain-text files under one directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Filename is derived only from the channel, so re-archiving the same
// channel overwrites its previous file.
func Filename(channelName, channelID string) string {
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '-'
		}
		return r
	}, channelName)
	return fmt.Sprintf("transcript-%s-%s.txt", safe, channelID)
}

// Save writes t and returns the path written.
func (s *Store) Save(t *Transcript) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}
	path := filepath.Join(s.dir, Filename(t.Header.ChannelName, t.Header.ChannelID))
	if err := os.WriteFile(path, []byte(t.String()), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
