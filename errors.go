package peripheral

import "fmt"

// ConfigError reports an unreadable, unwritable or malformed configuration
// value or file. It always aborts the current action.
type ConfigError struct {
	Path string // file, or "section.option" for a single value
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DataFormatError reports an input (file or scraped page) that does not have
// the expected structure.
type DataFormatError struct {
	Source string
	Err    error
}

func (e *DataFormatError) Error() string {
	return fmt.Sprintf("unexpected data format in %s: %v", e.Source, e.Err)
}

func (e *DataFormatError) Unwrap() error { return e.Err }
