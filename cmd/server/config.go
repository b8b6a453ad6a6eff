package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// ServerConfig holds everything the HTTP server needs. Values are
// layered: defaults, then config.toml, then environment variables, then
// flags.
type ServerConfig struct {
	Port           int
	DataDir        string
	MediaDir       string
	SiteDir        string
	AdminUser      string
	AdminPass      string
	AllowedOrigins []string
}

func defaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           3000,
		DataDir:        "data",
		MediaDir:       ".",
		SiteDir:        "site",
		AdminUser:      "blunt",
		AdminPass:      "198801",
		AllowedOrigins: []string{"*"},
	}
}

// fileConfig is the config.toml shape.
type fileConfig struct {
	Server struct {
		Port    int      `toml:"port"`
		SiteDir string   `toml:"site_dir"`
		Origins []string `toml:"origins"`
	} `toml:"server"`
	Admin struct {
		User string `toml:"user"`
		Pass string `toml:"pass"`
	} `toml:"admin"`
	Paths struct {
		DataDir  string `toml:"data_dir"`
		MediaDir string `toml:"media_dir"`
	} `toml:"paths"`
}

// applyFile overlays settings from a TOML config file. A missing file
// is not an error; a malformed one is.
func (c *ServerConfig) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if fc.Server.Port != 0 {
		c.Port = fc.Server.Port
	}
	if fc.Server.SiteDir != "" {
		c.SiteDir = fc.Server.SiteDir
	}
	if len(fc.Server.Origins) > 0 {
		c.AllowedOrigins = fc.Server.Origins
	}
	if fc.Admin.User != "" {
		c.AdminUser = fc.Admin.User
	}
	if fc.Admin.Pass != "" {
		c.AdminPass = fc.Admin.Pass
	}
	if fc.Paths.DataDir != "" {
		c.DataDir = fc.Paths.DataDir
	}
	if fc.Paths.MediaDir != "" {
		c.MediaDir = fc.Paths.MediaDir
	}
	return nil
}

// applyEnv overlays environment variables, including any loaded from a
// .env file beforehand.
func (c *ServerConfig) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("ADMIN_USER"); v != "" {
		c.AdminUser = v
	}
	if v := os.Getenv("ADMIN_PASS"); v != "" {
		c.AdminPass = v
	}
	if v := os.Getenv("UNDERGROUND_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("UNDERGROUND_MEDIA_DIR"); v != "" {
		c.MediaDir = v
	}
	if v := os.Getenv("UNDERGROUND_SITE_DIR"); v != "" {
		c.SiteDir = v
	}
}
