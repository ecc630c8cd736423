package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/policybot/internal/core/ports/driven"
	"github.com/custodia-labs/policybot/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for
// new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are a company policy assistant.
You MUST answer strictly using the provided policy context.
Do NOT invent policy details.
If the policy context does not clearly contain the answer, say:
  'I can't find this explicitly in the provided policy documents.'
and suggest contacting HR / the policy owner.
When you provide an answer, reference the relevant Source labels.`,

	driven.PromptAnswerUser: `Company Policy Context:
{context}

Employee Question:
{question}

Instructions:
- Answer using ONLY the Company Policy Context.
- If the answer is not clearly present, say you can't find it in the provided docs.
- Include 1-3 short citations like: (Source: <doc_name> | chunk <idx>)`,
}

// PromptStore loads LLM prompts from user-editable files on disk, with
// fallback to embedded defaults.
//
// Files are created lazily on first Load, not in the constructor. A filesystem
// watcher invalidates cached prompts when their files change, so long-running
// surfaces (the MCP server) pick up edits without a restart.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	watcher   *fsnotify.Watcher
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.policybot/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".policybot", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory, creates default files and
// starts the change watcher. Falls back to the embedded default if the file
// can't be read.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		// Another goroutine loaded it first, use their value.
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Close stops the change watcher.
func (s *PromptStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}

// initialise creates the prompt directory, default files and the watcher.
// Called once via sync.Once on first Load.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		// Hot reload is best-effort; cached prompts still work.
		logger.Warn("prompt watcher unavailable: %v", err)
		return
	}
	if err := watcher.Add(s.promptDir); err != nil {
		logger.Warn("prompt watcher failed for %s: %v", s.promptDir, err)
		watcher.Close()
		return
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	go s.watch(watcher)
}

// watch invalidates cached prompts when their files change.
func (s *PromptStore) watch(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), ".txt")
			s.mu.Lock()
			delete(s.cache, name)
			s.mu.Unlock()
			logger.Debug("prompt %q changed, cache invalidated", name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("prompt watcher error: %v", err)
		}
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
