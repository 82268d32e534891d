package portal

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v2"
)

// CredentialSource supplies the opaque cookie set required by every
// portal call. The portal expires sessions on its own schedule, so the
// source exposes Renew to pick up fresh cookies without a restart.
type CredentialSource interface {
	Cookies() map[string]string
	Renew() error
}

// StaticCredentials wraps a fixed cookie map, typically supplied by
// configuration. Renew is a no-op.
type StaticCredentials struct {
	cookies map[string]string
}

func NewStaticCredentials(cookies map[string]string) *StaticCredentials {
	return &StaticCredentials{cookies: cookies}
}

func (s *StaticCredentials) Cookies() map[string]string { return s.cookies }

func (s *StaticCredentials) Renew() error { return nil }

// FileCredentials reads the cookie map from a YAML file of
// cookie-name: cookie-value pairs. Renew re-reads the file, so cookies
// pasted in from a fresh browser session take effect immediately.
type FileCredentials struct {
	path string

	mu      sync.RWMutex
	cookies map[string]string
}

func NewFileCredentials(path string) (*FileCredentials, error) {
	f := &FileCredentials{path: path}
	if err := f.Renew(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *FileCredentials) Cookies() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]string, len(f.cookies))
	for name, value := range f.cookies {
		out[name] = value
	}
	return out
}

func (f *FileCredentials) Renew() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read cookie file: %w", err)
	}
	cookies := map[string]string{}
	if err := yaml.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("parse cookie file %s: %w", f.path, err)
	}
	f.mu.Lock()
	f.cookies = cookies
	f.mu.Unlock()
	return nil
}
