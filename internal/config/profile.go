package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultProfilePath is where client repos keep their publish profile.
const DefaultProfilePath = ".publisher/publish.yaml"

// Profile is the optional per-repo tuning file. Absent file or absent
// keys fall back to the long-form defaults.
type Profile struct {
	MinImages        int    `yaml:"minImages"`
	MaxImages        int    `yaml:"maxImages"`
	TOCWordThreshold int    `yaml:"tocWordThreshold"`
	FaqCountExact    int    `yaml:"faqCountExact"`
	BackupDir        string `yaml:"backupDir"`
	ContentDir       string `yaml:"contentDir"`
}

func defaultProfile() *Profile {
	return &Profile{
		MinImages:        2,
		MaxImages:        4,
		TOCWordThreshold: 1500,
		BackupDir:        "work/wp_backups",
		ContentDir:       "content",
	}
}

// LoadProfile reads the publish profile at path. A missing file yields
// the defaults; a malformed file is an error.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		path = DefaultProfilePath
	}
	p := defaultProfile()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	if p.MinImages <= 0 {
		p.MinImages = 2
	}
	if p.MaxImages < p.MinImages {
		p.MaxImages = p.MinImages
	}
	if p.TOCWordThreshold <= 0 {
		p.TOCWordThreshold = 1500
	}
	if p.BackupDir == "" {
		p.BackupDir = "work/wp_backups"
	}
	if p.ContentDir == "" {
		p.ContentDir = "content"
	}
	return p, nil
}
