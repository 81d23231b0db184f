// Package config loads the runtime settings for one publishing run:
// site credentials from the environment (with .env support, the way
// client repos ship them) and the optional per-repo publish profile.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Site identifies one WordPress install and how to authenticate.
type Site struct {
	URL         string
	Username    string
	AppPassword string
}

// Settings is everything environment-driven. Constructed once and
// passed explicitly; nothing reads ambient globals after Load.
type Settings struct {
	Site     Site
	DryRun   bool
	LogLevel string
	Timeout  time.Duration
}

// MissingEnvError lists the required environment variables that are
// unset.
type MissingEnvError struct {
	Vars []string
}

func (e *MissingEnvError) Error() string {
	return "missing required environment variables: " + strings.Join(e.Vars, ", ")
}

// Load reads settings from the environment. When envPath names an
// existing dotenv file (default .env in the working directory), it is
// loaded first without overriding variables already set.
func Load(envPath string) (*Settings, error) {
	if envPath == "" {
		envPath = ".env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envPath, err)
		}
	}

	v := viper.New()
	for key, env := range map[string]string{
		"site_url":     "WP_SITE_URL",
		"username":     "WP_USERNAME",
		"app_password": "WP_APP_PASSWORD",
		"dry_run":      "DRY_RUN",
		"log_level":    "LOG_LEVEL",
		"timeout":      "WP_TIMEOUT",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	v.SetDefault("log_level", "info")
	v.SetDefault("timeout", "30s")

	s := &Settings{
		Site: Site{
			URL:         strings.TrimRight(v.GetString("site_url"), "/"),
			Username:    v.GetString("username"),
			AppPassword: v.GetString("app_password"),
		},
		DryRun:   v.GetBool("dry_run"),
		LogLevel: strings.ToLower(v.GetString("log_level")),
		Timeout:  v.GetDuration("timeout"),
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	return s, nil
}

// Validate checks that the credentials needed to reach the site are
// present. All missing variables are reported together.
func (s *Settings) Validate() error {
	var missing []string
	if s.Site.URL == "" {
		missing = append(missing, "WP_SITE_URL")
	}
	if s.Site.Username == "" {
		missing = append(missing, "WP_USERNAME")
	}
	if s.Site.AppPassword == "" {
		missing = append(missing, "WP_APP_PASSWORD")
	}
	if len(missing) > 0 {
		return &MissingEnvError{Vars: missing}
	}
	return nil
}
