package config

import (
	"fmt"
	"os"
	"path/filepath"

	terrors "git.home.luguber.info/inful/tn/internal/errors"
)

const exampleConfig = `# tn project configuration
name: notes
src: ./notes
# assets: ./assets
# storage_dir: ~/.tn
log_format: text

server:
  host: 127.0.0.1
  port: 8080
  live_reload: true

daemon:
  queue_size: 64
  debounce: 200ms
  rescan_interval: 0s
  continue_after_navigation: false

metrics:
  enabled: false
  path: /metrics

journal:
  enabled: false

nats:
  enabled: false
  url: ${TN_NATS_URL}
  subject: tn.pages
`

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return terrors.ValidationFailed("config", fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", path))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return terrors.ConfigInvalid(path, err)
		}
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return terrors.ConfigInvalid(path, fmt.Errorf("failed to write config file: %w", err))
	}
	return nil
}
