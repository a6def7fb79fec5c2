package detectors

import "strings"

// ConfigString returns the trimmed string value for key from detector.Config or a fallback.
func ConfigString(cfg DetectorConfig, key, fallback string) string {
	if cfg.Config != nil {
		if raw, ok := cfg.Config[key]; ok {
			if val, ok := raw.(string); ok {
				if trimmed := strings.TrimSpace(val); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return fallback
}

// ConfigBool returns the boolean value for key from detector.Config or a fallback.
func ConfigBool(cfg DetectorConfig, key string, fallback bool) bool {
	if cfg.Config != nil {
		if raw, ok := cfg.Config[key]; ok {
			switch val := raw.(type) {
			case bool:
				return val
			case string:
				switch strings.ToLower(strings.TrimSpace(val)) {
				case "true", "yes", "1":
					return true
				case "false", "no", "0":
					return false
				}
			}
		}
	}
	return fallback
}

const (
	ConfigAPIKeyKey      = "api_key"
	ConfigEndpointKey    = "endpoint"
	ConfigChannelIDKey   = "channel_id"
	ConfigIsTestKey      = "is_test"
	ConfigCommentTypeKey = "comment_type"
	ConfigStripHTMLKey   = "strip_html"
)
