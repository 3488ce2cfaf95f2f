// Package config resolves the runtime settings from a .env file, LIVEBOARD_*
// environment variables and command line flags, in increasing priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	ModeClient = "client"
	ModeRelay  = "relay"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Mode      string
	ServerURL string
	Room      string
	Name      string

	CanvasWidth    float64
	CanvasHeight   float64
	DrawInterval   time.Duration
	CursorInterval time.Duration

	ListenAddr string
	Advertise  bool
	Discover   bool

	LogFile  string
	LogLevel string
}

func defaults() Config {
	return Config{
		Mode:           ModeClient,
		ServerURL:      "http://localhost:5000",
		Name:           "User-" + uuid.NewString()[:4],
		CanvasWidth:    4000,
		CanvasHeight:   3000,
		DrawInterval:   20 * time.Millisecond,
		CursorInterval: 100 * time.Millisecond,
		ListenAddr:     ":5000",
		LogLevel:       "info",
	}
}

// Load reads ./.env when present and then the environment and args.
func Load(args []string) (Config, error) {
	return LoadFrom(".env", args)
}

func LoadFrom(envFile string, args []string) (Config, error) {
	if envFile != "" {
		// variables already set in the environment win over the file
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c := defaults()
	if err := c.fromEnv(); err != nil {
		return Config{}, err
	}

	fset := flag.NewFlagSet("liveboard", flag.ContinueOnError)
	fset.StringVar(&c.Mode, "mode", c.Mode, "client or relay")
	fset.StringVar(&c.ServerURL, "server", c.ServerURL, "relay base URL")
	fset.StringVar(&c.Room, "room", c.Room, "room id to join")
	fset.StringVar(&c.Name, "name", c.Name, "display name")
	fset.Float64Var(&c.CanvasWidth, "canvas-width", c.CanvasWidth, "logical canvas width")
	fset.Float64Var(&c.CanvasHeight, "canvas-height", c.CanvasHeight, "logical canvas height")
	fset.DurationVar(&c.DrawInterval, "draw-interval", c.DrawInterval, "draw-move throttle interval")
	fset.DurationVar(&c.CursorInterval, "cursor-interval", c.CursorInterval, "cursor-move throttle interval")
	fset.StringVar(&c.ListenAddr, "listen", c.ListenAddr, "relay listen address")
	fset.BoolVar(&c.Advertise, "advertise", c.Advertise, "announce the relay over mDNS")
	fset.BoolVar(&c.Discover, "discover", c.Discover, "find a relay over mDNS")
	fset.StringVar(&c.LogFile, "log-file", c.LogFile, "rotating log file")
	fset.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	if c.Room == "" && fset.NArg() > 0 {
		c.Room = fset.Arg(0)
	}
	return c, c.Validate()
}

func (c *Config) fromEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv("LIVEBOARD_" + key); ok {
			*dst = v
		}
	}
	str("MODE", &c.Mode)
	str("SERVER_URL", &c.ServerURL)
	str("ROOM", &c.Room)
	str("NAME", &c.Name)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_FILE", &c.LogFile)
	str("LOG_LEVEL", &c.LogLevel)

	var errs []error
	num := func(key string, dst *float64) {
		if v, ok := os.LookupEnv("LIVEBOARD_" + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("LIVEBOARD_%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv("LIVEBOARD_" + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("LIVEBOARD_%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv("LIVEBOARD_" + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("LIVEBOARD_%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	num("CANVAS_WIDTH", &c.CanvasWidth)
	num("CANVAS_HEIGHT", &c.CanvasHeight)
	dur("DRAW_INTERVAL", &c.DrawInterval)
	dur("CURSOR_INTERVAL", &c.CursorInterval)
	boolean("ADVERTISE", &c.Advertise)
	boolean("DISCOVER", &c.Discover)
	return errors.Join(errs...)
}

func (c Config) Validate() error {
	switch {
	case c.Mode != ModeClient && c.Mode != ModeRelay:
		return fmt.Errorf("%w: mode %q", ErrInvalid, c.Mode)
	case c.CanvasWidth <= 0 || c.CanvasHeight <= 0:
		return fmt.Errorf("%w: canvas %vx%v", ErrInvalid, c.CanvasWidth, c.CanvasHeight)
	case c.DrawInterval <= 0 || c.CursorInterval <= 0:
		return fmt.Errorf("%w: throttle intervals must be positive", ErrInvalid)
	case c.Mode == ModeClient && c.ServerURL == "" && !c.Discover:
		return fmt.Errorf("%w: no server URL", ErrInvalid)
	}
	return nil
}
