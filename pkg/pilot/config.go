// Package pilot holds the configuration of worker side pilot processes.
package pilot

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

const (
	filePerms = 0644
)

// Config is a flat key/value document backed by a JSON file.
//
// There's no merging & no file locking; Write() replaces whatever is on disk.
type Config struct {
	path   string
	values map[string]interface{}
}

// New loads the config at path, or starts an empty one if the file doesn't exist yet.
func New(path string) (*Config, error) {
	c := &Config{path: path, values: map[string]interface{}{}}

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return c, nil
	} else if err != nil {
		return nil, err
	}

	err = c.Read()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Path of the backing file.
func (c *Config) Path() string {
	return c.path
}

// Read replaces the in memory values with the contents of the file.
func (c *Config) Read() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return err
	}

	values := map[string]interface{}{}
	err = json.Unmarshal(data, &values)
	if err != nil {
		return fmt.Errorf("failed to parse pilot config %s: %w", c.path, err)
	}

	c.values = values
	return nil
}

// Write persists the current values to the file, indented by two spaces.
func (c *Config) Write() error {
	data, err := json.MarshalIndent(c.values, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, filePerms)
}

// Get returns the value of key, if set.
func (c *Config) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value of key as a string, or "" if it isn't a set string.
func (c *Config) GetString(key string) string {
	s, _ := c.values[key].(string)
	return s
}

// Set key to value (in memory only until Write()).
func (c *Config) Set(key string, value interface{}) {
	c.values[key] = value
}

// Delete key (in memory only until Write()).
func (c *Config) Delete(key string) {
	delete(c.values, key)
}

// Keys returns all keys, sorted.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
