// Package config loads runtime configuration for the book management CLI.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. An optional dotenv file (default ".env"), loaded with godotenv. Values
//     already present in the process environment are not overwritten.
//  3. Environment variables BMS_DB_PATH, BMS_LOG_LEVEL, BMS_USERS_FILE and
//     BMS_BOOKS_FILE.
//  4. Command-line flags, applied by the caller (cobra) after Load returns.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvDBPath    = "BMS_DB_PATH"
	EnvLogLevel  = "BMS_LOG_LEVEL"
	EnvUsersFile = "BMS_USERS_FILE"
	EnvBooksFile = "BMS_BOOKS_FILE"
)

// Config holds runtime settings.
type Config struct {
	DBPath    string
	LogLevel  string
	UsersFile string
	BooksFile string
}

const (
	DefaultDBPath    = "book_management.db"
	DefaultLogLevel  = "warn"
	DefaultUsersFile = "Users.txt"
	DefaultBooksFile = "Books.txt"
)

// LoadDefaults populates c with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = DefaultDBPath
	c.LogLevel = DefaultLogLevel
	c.UsersFile = DefaultUsersFile
	c.BooksFile = DefaultBooksFile
}

// Load builds a Config from defaults, the dotenv file at envFile (skipped
// when it does not exist) and the process environment.
func Load(envFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.DBPath, EnvDBPath)
	set(&c.LogLevel, EnvLogLevel)
	set(&c.UsersFile, EnvUsersFile)
	set(&c.BooksFile, EnvBooksFile)
}
