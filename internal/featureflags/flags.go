package featureflags

// Flags read by the services.
const (
	// ChannelProfileEmail exposes a channel's email to callers other than its owner.
	ChannelProfileEmail = "channel_profile_email"
	// RecordViews appends to watch history and counts a view when an
	// authenticated caller fetches a video. Defaults to on.
	RecordViews = "record_views"
)

// Defaults are applied for flags missing from FEATURE_FLAGS.
var Defaults = map[string]string{
	RecordViews: "on",
}

// NewManagerWithDefaults is NewManager with Defaults filled in for unset flags.
func NewManagerWithDefaults(raw string) *Manager {
	m := NewManager(raw)
	for name, value := range Defaults {
		if _, ok := m.rules[name]; ok {
			continue
		}
		if r, ok := parseRule(value); ok {
			m.rules[name] = r
		}
	}
	return m
}
