package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempWatchList(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "searches.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp watch list: %v", err)
	}
	return path
}

func TestLoadWatchList(t *testing.T) {
	path := writeTempWatchList(t, `
searches:
  - url: "https://suumo.jp/search/?region=13&station=4232,4233"
    notify_mode: filtered
    filtered_mode: silent
    distance_threshold_m: 800
  - url: "https://suumo.jp/search/?region=14"
    max_latest: 10
`)

	list, err := LoadWatchList(path)
	if err != nil {
		t.Fatalf("LoadWatchList: %v", err)
	}
	if len(list.Searches) != 2 {
		t.Fatalf("got %d searches; want 2", len(list.Searches))
	}

	first := list.Searches[0]
	if first.NotifyMode != "filtered" || first.FilteredMode != "silent" || first.DistanceThreshold != 800 {
		t.Errorf("first search = %+v", first)
	}
	if list.Searches[1].MaxLatest != 10 {
		t.Errorf("second search maxLatest = %d; want 10", list.Searches[1].MaxLatest)
	}
}

func TestLoadWatchListRejectsEmpty(t *testing.T) {
	path := writeTempWatchList(t, "searches: []\n")
	if _, err := LoadWatchList(path); err == nil {
		t.Error("empty watch list accepted")
	}
}

func TestLoadWatchListRejectsMissingURL(t *testing.T) {
	path := writeTempWatchList(t, `
searches:
  - notify_mode: all
`)
	if _, err := LoadWatchList(path); err == nil {
		t.Error("search without url accepted")
	}
}

func TestLoadWatchListMissingFile(t *testing.T) {
	if _, err := LoadWatchList(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
