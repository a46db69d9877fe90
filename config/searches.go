package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Search is one watched saved search. Fields left zero fall back to the
// corresponding Config defaults at run time.
type Search struct {
	URL               string `yaml:"url"`
	MaxLatest         int    `yaml:"max_latest"`
	NotifyMode        string `yaml:"notify_mode"`
	FilteredMode      string `yaml:"filtered_mode"`
	DistanceThreshold int    `yaml:"distance_threshold_m"`
}

// WatchList is the set of searches the watcher runs per invocation.
type WatchList struct {
	Searches []Search `yaml:"searches"`
}

// LoadWatchList parses the YAML watch-list file.
func LoadWatchList(path string) (*WatchList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watch list: %w", err)
	}

	var list WatchList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse watch list %q: %w", path, err)
	}
	if len(list.Searches) == 0 {
		return nil, fmt.Errorf("watch list %q contains no searches", path)
	}
	for i, s := range list.Searches {
		if s.URL == "" {
			return nil, fmt.Errorf("watch list %q: search %d has no url", path, i)
		}
	}
	return &list, nil
}
