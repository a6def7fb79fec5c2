package detectors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Overrides holds the static per-username submitter identity tables used by
// the content classifier: username -> source IP and username -> user agent.
// Both tables are optional; a nil Overrides behaves as empty.
type Overrides struct {
	ips        map[string]string
	userAgents map[string]string
}

// LoadOverrides reads the optional override tables from JSON files. An empty
// path yields an empty table for that dimension.
func LoadOverrides(ipPath, userAgentPath string) (*Overrides, error) {
	ips, err := loadOverrideTable(ipPath)
	if err != nil {
		return nil, fmt.Errorf("load ip overrides: %w", err)
	}
	userAgents, err := loadOverrideTable(userAgentPath)
	if err != nil {
		return nil, fmt.Errorf("load user agent overrides: %w", err)
	}
	return &Overrides{ips: ips, userAgents: userAgents}, nil
}

func loadOverrideTable(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return map[string]string{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	table := map[string]string{}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := make(map[string]string, len(table))
	for k, v := range table {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	return out, nil
}

// IPFor returns the configured source IP override for a username.
func (o *Overrides) IPFor(username string) (string, bool) {
	if o == nil || o.ips == nil {
		return "", false
	}
	ip, ok := o.ips[username]
	return ip, ok
}

// UserAgentFor returns the configured user agent override for a username.
func (o *Overrides) UserAgentFor(username string) (string, bool) {
	if o == nil || o.userAgents == nil {
		return "", false
	}
	ua, ok := o.userAgents[username]
	return ua, ok
}
