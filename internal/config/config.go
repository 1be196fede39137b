package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Lupicald/Accesspro/internal/attend/types"
)

type DeviceConfig struct {
	// AgentURL is the base URL of the device-agent bridge that fronts
	// the terminal. The wire protocol to the terminal itself lives in
	// the agent, not here.
	AgentURL string        `yaml:"agent_url"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ScheduleConfig struct {
	Entry            string `yaml:"entry"`
	Exit             string `yaml:"exit"`
	ToleranceMinutes int    `yaml:"tolerance_minutes"`
}

type OverstayConfig struct {
	Threshold     time.Duration `yaml:"threshold"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type ReplicaConfig struct {
	URL     string        `yaml:"url"`
	Sheet   string        `yaml:"sheet"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	Branch   string `yaml:"branch"`

	DBPath       string `yaml:"db_path"`
	ProfilesPath string `yaml:"profiles_path"`
	StatePath    string `yaml:"state_path"`

	PollInterval time.Duration `yaml:"poll_interval"`
	Backoff      time.Duration `yaml:"backoff"`

	Device   DeviceConfig   `yaml:"device"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Overstay OverstayConfig `yaml:"overstay"`
	Replica  ReplicaConfig  `yaml:"replica"`
}

// Load reads the YAML config at path, applies environment overrides and
// fills defaults. A missing file is not an error — the daemon runs on
// defaults plus environment, same as a first run on a fresh machine.
func Load(path string) (Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to defaults
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	c.applyEnv()
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getenvDefault("ACCESSPRO_HTTP_ADDR", c.HTTPAddr)
	c.Branch = getenvDefault("ACCESSPRO_BRANCH", c.Branch)
	c.DBPath = getenvDefault("ACCESSPRO_DB_PATH", c.DBPath)
	c.ProfilesPath = getenvDefault("ACCESSPRO_PROFILES_PATH", c.ProfilesPath)
	c.StatePath = getenvDefault("ACCESSPRO_STATE_PATH", c.StatePath)
	c.Device.AgentURL = getenvDefault("ACCESSPRO_DEVICE_AGENT_URL", c.Device.AgentURL)
	c.Replica.URL = getenvDefault("ACCESSPRO_REPLICA_URL", c.Replica.URL)
	c.Replica.Token = getenvDefault("ACCESSPRO_REPLICA_TOKEN", c.Replica.Token)
	if n := getenvInt("ACCESSPRO_TOLERANCE_MINUTES", -1); n >= 0 {
		c.Schedule.ToleranceMinutes = n
	}
}

func (c *Config) applyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.Branch == "" {
		c.Branch = "main"
	}
	if c.DBPath == "" {
		c.DBPath = "./data/accesspro.db"
	}
	if c.ProfilesPath == "" {
		c.ProfilesPath = "./data/profiles.json"
	}
	if c.StatePath == "" {
		c.StatePath = "./data/states.json"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 60 * time.Second
	}
	if c.Backoff <= 0 {
		c.Backoff = 20 * time.Second
	}
	if c.Device.Timeout <= 0 {
		c.Device.Timeout = 10 * time.Second
	}
	if c.Schedule.Entry == "" {
		c.Schedule.Entry = "09:00"
	}
	if c.Schedule.Exit == "" {
		c.Schedule.Exit = "18:00"
	}
	if c.Schedule.ToleranceMinutes <= 0 {
		c.Schedule.ToleranceMinutes = 15
	}
	if c.Overstay.Threshold <= 0 {
		c.Overstay.Threshold = 4 * time.Hour
	}
	if c.Overstay.SweepInterval <= 0 {
		c.Overstay.SweepInterval = 60 * time.Second
	}
	if c.Replica.Sheet == "" {
		c.Replica.Sheet = "attendance"
	}
	if c.Replica.Timeout <= 0 {
		c.Replica.Timeout = 15 * time.Second
	}
}

// Resolve turns the schedule section into a types.Schedule. Malformed
// entry/exit fields fall back per-field to the built-in defaults; the
// returned errors describe what fell back so the caller can log them.
// Never fatal.
func (s ScheduleConfig) Resolve() (types.Schedule, []error) {
	out := types.Schedule{
		Entry:     types.ClockTime{Hour: 9},
		Exit:      types.ClockTime{Hour: 18},
		Tolerance: time.Duration(s.ToleranceMinutes) * time.Minute,
	}

	var errs []error
	if t, err := types.ParseClockTime(s.Entry); err != nil {
		errs = append(errs, fmt.Errorf("schedule.entry: %w", err))
	} else {
		out.Entry = t
	}
	if t, err := types.ParseClockTime(s.Exit); err != nil {
		errs = append(errs, fmt.Errorf("schedule.exit: %w", err))
	} else {
		out.Exit = t
	}
	return out, errs
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
