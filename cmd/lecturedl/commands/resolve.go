package commands

import (
	"math"
	"os"
	"strconv"
	"strings"

	"lecturedl/lib/configutil"

	"github.com/spf13/cobra"
)

const (
	defaultUsername = "changeme"
	defaultPassword = "changeme"
	defaultCourse   = "https://learn.vcs.net/course/view.php?id=3084"
	defaultLectures = "[]"
)

// fileConfig is the optional config.json5 next to the binary, the
// usual place to keep credentials out of the shell history.
type fileConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Course   string `json:"course"`
}

// RunConfig is the resolved configuration of one run, immutable once
// built.
type RunConfig struct {
	Username string
	Password string
	Course   string
	Lectures string
	Headless bool
	SlowMoMs float64
}

// resolveConfig merges, per option: the CLI flag, then the uppercased
// environment variable, then config.json5 (credentials only), then the
// hardcoded default. Flags win only when actually set.
func resolveConfig(cmd *cobra.Command) RunConfig {
	var file fileConfig
	if cfg, err := configutil.ReadConfig[fileConfig]("config.json5"); err == nil {
		file = cfg
	}

	return RunConfig{
		Username: resolveString(cmd, "username", file.Username, defaultUsername),
		Password: resolveString(cmd, "password", file.Password, defaultPassword),
		Course:   resolveString(cmd, "course", file.Course, defaultCourse),
		Lectures: resolveString(cmd, "lectures", "", defaultLectures),
		Headless: parseBool(resolveString(cmd, "headless", "", ""), false),
		SlowMoMs: parseMillis(resolveString(cmd, "slowmo", "", ""), 0),
	}
}

func resolveString(cmd *cobra.Command, name, fileValue, fallback string) string {
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		return flag.Value.String()
	}
	if v, ok := os.LookupEnv(strings.ToUpper(name)); ok && v != "" {
		return v
	}
	if fileValue != "" {
		return fileValue
	}
	return fallback
}

// parseBool accepts a fixed vocabulary and falls back on anything else.
func parseBool(raw string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return fallback
	}
}

// parseMillis parses permissively, falling back on anything that is
// not a finite number.
func parseMillis(raw string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return f
}
