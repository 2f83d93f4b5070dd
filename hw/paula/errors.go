package paula

import "fmt"

// ConfigError reports an unknown configuration value, such as a filter model
// or an interpolator name.
type ConfigError struct {
	What  string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.What, e.Value)
}
