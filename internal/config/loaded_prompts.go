package config

import (
	"slices"
	"sync"
)

// LoadedPrompts holds the content of an operation's prompts loaded from files
type LoadedPrompts struct {
	System string
	User   string
}

// promptFile binds a prompt file on disk to the slot it fills
type promptFile struct {
	Path      string
	Operation string
	Type      string // "system" or "user"
}

// PromptStore holds prompts loaded from files. It is safe for concurrent use
// and can be reloaded while the server is running.
type PromptStore struct {
	mu     sync.RWMutex
	files  []promptFile
	loaded map[string]LoadedPrompts
}

// NewPromptStore creates a store for the given files without reading them.
func NewPromptStore(files []promptFile) *PromptStore {
	return &PromptStore{
		files:  files,
		loaded: make(map[string]LoadedPrompts),
	}
}

// Get returns a copy of the prompts loaded for an operation.
func (s *PromptStore) Get(operation string) LoadedPrompts {
	if s == nil {
		return LoadedPrompts{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded[operation]
}

// Files returns the prompt file paths backing the store.
func (s *PromptStore) Files() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for _, f := range s.files {
		paths = append(paths, f.Path)
	}
	slices.Sort(paths)
	return slices.Compact(paths)
}

// Reload re-reads every prompt file. On error the previous prompts stay in effect.
func (s *PromptStore) Reload() error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	files := slices.Clone(s.files)
	s.mu.RUnlock()

	next := make(map[string]LoadedPrompts)
	for _, f := range files {
		content, err := loadPromptFromFile(f.Path, f.Type, f.Operation)
		if err != nil {
			return err
		}
		p := next[f.Operation]
		if f.Type == "system" {
			p.System = content
		} else {
			p.User = content
		}
		next[f.Operation] = p
	}

	s.mu.Lock()
	s.loaded = next
	s.mu.Unlock()
	return nil
}

// Count returns how many prompts are currently loaded from files.
func (s *PromptStore) Count() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.loaded {
		if p.System != "" {
			count++
		}
		if p.User != "" {
			count++
		}
	}
	return count
}
