package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/folio/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-r", "-s", "-i", "-d", "-l"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string   backend API base URL
//	-t int      request timeout (seconds)
//	-r float    outbound requests per second (0 disables limiting)
//	-s string   path of the local sqlite store
//	-i int      token expiry check interval (seconds)
//	-d string   debug server listen address
//	-l string   log level
//
// Arguments are filtered through flagx.FilterArgs first so the config file
// flag and unknown flags do not cause parse errors. Only flags present in
// args are applied; the whole-second -t and -i never round down a
// sub-second value that came from the environment or the JSON file.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("folio", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "backend API base URL")
	timeout := fs.Int("t", 0, "request timeout (in seconds)")
	fs.Float64Var(&cfg.RequestsPerSecond, "r", cfg.RequestsPerSecond, "outbound requests per second")
	fs.StringVar(&cfg.StorePath, "s", cfg.StorePath, "path of the local store")
	interval := fs.Int("i", 0, "token expiry check interval (in seconds)")
	fs.StringVar(&cfg.DebugAddr, "d", cfg.DebugAddr, "debug server listen address")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		case "i":
			cfg.ExpiryCheckInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
