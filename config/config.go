// Package config resolves where labcalc keeps its files and reads settings
// from the environment.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	appName = "labcalc"

	EnvCacheDir   = "LABCALC_CACHE_DIR"
	EnvConfigDir  = "LABCALC_CONFIG_DIR"
	EnvPubChemURL = "LABCALC_PUBCHEM_URL"
	EnvPubChemRPS = "LABCALC_PUBCHEM_RATE"
	EnvVerbose    = "LABCALC_VERBOSE"
)

func dir(env string, user func() (string, error), fallback string, subs []string) (string, error) {
	root := os.Getenv(env)
	if root == "" {
		base, err := user()
		if err != nil {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			base = filepath.Join(home, fallback)
		}
		root = filepath.Join(base, appName)
	}

	j := make([]string, 1+len(subs))
	copy(j[1:], subs)
	j[0] = root
	return filepath.Join(j...), nil
}

func CacheDir(subs ...string) (string, error) {
	return dir(EnvCacheDir, os.UserCacheDir, ".cache", subs)
}

func ConfigDir(subs ...string) (string, error) {
	return dir(EnvConfigDir, os.UserConfigDir, ".config", subs)
}

// LoadEnv reads .env files from the working directory and the config
// directory. Variables already set take precedence and missing files are
// ignored.
func LoadEnv() error {
	files := []string{".env"}
	if p, err := ConfigDir(".env"); err == nil {
		files = append(files, p)
	}

	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

type Settings struct {
	PubChemURL    string
	RatePerSecond float64
	Verbose       bool
}

func FromEnv() (Settings, error) {
	s := Settings{PubChemURL: os.Getenv(EnvPubChemURL), RatePerSecond: 5}

	if v := strings.TrimSpace(os.Getenv(EnvPubChemRPS)); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return s, fmt.Errorf("invalid %s: '%s': %w", EnvPubChemRPS, v, err)
		}
		s.RatePerSecond = r
	}

	if v := strings.TrimSpace(os.Getenv(EnvVerbose)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s, fmt.Errorf("invalid %s: '%s': %w", EnvVerbose, v, err)
		}
		s.Verbose = b
	}

	return s, nil
}

func tmpFile(file string) string {
	stamp := strconv.FormatInt(time.Now().UnixNano(), 36)
	rnd := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, rnd)
	if err != nil {
		panic(err)
	}

	return fmt.Sprintf(
		"%s.%s-%s.tmp",
		file,
		stamp,
		base64.RawURLEncoding.EncodeToString(rnd),
	)
}
