package watchfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
)

// Sentinel errors surfaced by the store.
var (
	// ErrMissing indicates the topics file does not exist yet.
	ErrMissing = errors.New("topics file does not exist")
	// ErrCorrupt indicates the topics file exists but cannot be parsed.
	ErrCorrupt = errors.New("topics file is corrupt")
	// ErrLockTimeout indicates the advisory lock could not be acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for topics file lock")
	// ErrTopicNotFound indicates a lookup for an unknown topic name.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrDuplicateName indicates two topics share the same name.
	ErrDuplicateName = errors.New("duplicate topic name")
)

const (
	lockRetryDelay  = 50 * time.Millisecond
	defaultLockWait = 10 * time.Second
)

// Store reads and writes the shared topics file.
type Store struct {
	path     string
	lockPath string
	lockWait time.Duration
}

// NewStore builds a store for the topics file at path. The advisory lock
// uses a .lock sidecar so lock acquisition never races the atomic rename.
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		lockPath: path + ".lock",
		lockWait: defaultLockWait,
	}
}

// Path returns the topics file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the topics file is present.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Load reads and validates the topics file without taking the lock.
// Readers tolerate a concurrent atomic rename: a parse failure is retried
// once before being reported as corruption.
func (s *Store) Load() (Config, error) {
	cfg, err := s.loadOnce()
	if err != nil && errors.Is(err, ErrCorrupt) {
		time.Sleep(lockRetryDelay)
		cfg, err = s.loadOnce()
	}
	return cfg, err
}

func (s *Store) loadOnce() (Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w at %s", ErrMissing, s.path)
		}
		return Config{}, fmt.Errorf("read topics file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return cfg, nil
}

// Save writes the document atomically: marshal to a temp file in the same
// directory, fsync, then rename over the topics file. Callers that follow a
// read-modify-write pattern must hold the lock (see WithLock).
func (s *Store) Save(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate topics: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create topics directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".topics-*.toml")
	if err != nil {
		return fmt.Errorf("create temp topics file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp topics file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp topics file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp topics file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp topics file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace topics file: %w", err)
	}
	return nil
}

// WithLock runs fn while holding the advisory lock. The lock acquisition is
// bounded by the context and the store's lock wait; exceeding either yields
// ErrLockTimeout.
func (s *Store) WithLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	lock := flock.New(s.lockPath)
	ok, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return ErrLockTimeout
		}
		return fmt.Errorf("acquire topics lock: %w", err)
	}
	if !ok {
		return ErrLockTimeout
	}
	defer func() {
		_ = lock.Unlock()
	}()

	return fn()
}

// Mutate loads the document under the lock, applies fn, and saves the result
// when fn reports a change. An absent file starts from DefaultConfig so first
// mutations bootstrap the file.
func (s *Store) Mutate(ctx context.Context, fn func(cfg *Config) (bool, error)) error {
	return s.WithLock(ctx, func() error {
		cfg, err := s.Load()
		if err != nil {
			if errors.Is(err, ErrMissing) {
				cfg = DefaultConfig()
			} else {
				return err
			}
		}
		changed, err := fn(&cfg)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		return s.Save(cfg)
	})
}

// Init writes a fresh default topics file. It refuses to overwrite an
// existing file.
func (s *Store) Init(ctx context.Context) error {
	return s.WithLock(ctx, func() error {
		if s.Exists() {
			return fmt.Errorf("topics file already exists at %s", s.path)
		}
		return s.Save(DefaultConfig())
	})
}

// ResolveTopicName maps a user-supplied name to the stored topic name using
// Unicode case folding, so 'watchdog check go releases' matches a topic
// saved as "Go Releases". An exact match always wins over a folded one.
func ResolveTopicName(cfg Config, name string) (string, error) {
	if cfg.FindTopic(name) != nil {
		return name, nil
	}
	folder := cases.Fold()
	want := folder.String(name)
	for _, topic := range cfg.Topics {
		if folder.String(topic.Name) == want {
			return topic.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrTopicNotFound, name)
}
