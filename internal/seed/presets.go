package seed

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yml
var builtInPresets []byte

// Preset is a named seeding profile. Zero fields keep the Options value.
type Preset struct {
	Users            int     `yaml:"users"`
	VideosPerUser    int     `yaml:"videos_per_user"`
	CommentsPerVideo int     `yaml:"comments_per_video"`
	TweetsPerUser    int     `yaml:"tweets_per_user"`
	LikeRatio        float64 `yaml:"like_ratio"`
	SubscribeRatio   float64 `yaml:"subscribe_ratio"`
	MaxDays          int     `yaml:"max_days"`
}

// ParsePresets decodes a YAML document mapping preset names to presets.
func ParsePresets(raw []byte) (map[string]Preset, error) {
	presets := map[string]Preset{}
	if err := yaml.Unmarshal(raw, &presets); err != nil {
		return nil, fmt.Errorf("parse seed presets: %w", err)
	}
	for name, p := range presets {
		if p.Users < 0 || p.VideosPerUser < 0 || p.CommentsPerVideo < 0 || p.TweetsPerUser < 0 {
			return nil, fmt.Errorf("preset %q: counts must not be negative", name)
		}
		if p.LikeRatio < 0 || p.LikeRatio > 1 || p.SubscribeRatio < 0 || p.SubscribeRatio > 1 {
			return nil, fmt.Errorf("preset %q: ratios must be within [0, 1]", name)
		}
	}
	return presets, nil
}

// LoadPresets returns the built-in presets merged with those in path, if set.
func LoadPresets(path string) (map[string]Preset, error) {
	presets, err := ParsePresets(builtInPresets)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return presets, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed presets: %w", err)
	}
	custom, err := ParsePresets(raw)
	if err != nil {
		return nil, err
	}
	for name, p := range custom {
		presets[name] = p
	}
	return presets, nil
}

// PresetNames lists preset names in sorted order.
func PresetNames(presets map[string]Preset) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply overlays the preset's non-zero fields onto opts.
func (p Preset) Apply(opts Options) Options {
	if p.Users > 0 {
		opts.Users = p.Users
	}
	if p.VideosPerUser > 0 {
		opts.VideosPerUser = p.VideosPerUser
	}
	if p.CommentsPerVideo > 0 {
		opts.CommentsPerVideo = p.CommentsPerVideo
	}
	if p.TweetsPerUser > 0 {
		opts.TweetsPerUser = p.TweetsPerUser
	}
	if p.LikeRatio > 0 {
		opts.LikeRatio = p.LikeRatio
	}
	if p.SubscribeRatio > 0 {
		opts.SubscribeRatio = p.SubscribeRatio
	}
	if p.MaxDays > 0 {
		opts.MaxDays = p.MaxDays
	}
	return opts
}

// ApplyPreset looks up name (case-insensitive) and overlays it onto opts.
func ApplyPreset(presets map[string]Preset, name string, opts Options) (Options, error) {
	p, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return opts, fmt.Errorf("unknown seed preset %q (available: %s)", name, strings.Join(PresetNames(presets), ", "))
	}
	return p.Apply(opts), nil
}
