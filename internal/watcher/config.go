package watcher

// DefaultRetentionLimit bounds how many ChangeRecords are kept per URL.
const DefaultRetentionLimit = 10

// Config carries watcher tuning knobs.
type Config struct {
	// RetentionLimit is the maximum number of change records kept per URL.
	// Zero or negative means DefaultRetentionLimit.
	RetentionLimit int `yaml:"retention_limit" json:"retention_limit"`
}
