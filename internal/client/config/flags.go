package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/taskmark/internal/flagx"
)

// parseFlags populates Config fields from command-line flags. Only the flags
// listed in the package doc are considered; the rest of os.Args is ignored.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-d", "-i", "-t", "-p", "-f", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.RealtimeURL, "w", cfg.RealtimeURL, "realtime websocket base URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database file")
	fs.StringVar(&cfg.InsertPolicy, "p", cfg.InsertPolicy, "insert policy (response, realtime)")
	fs.StringVar(&cfg.FilterMode, "f", cfg.FilterMode, "filter mode (client, server)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
