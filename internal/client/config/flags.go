package config

import (
	"flag"
	"os"
	"time"

	"github.com/YaniYesh22/snot/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the notebook API (default from Config)
//	-r string   AWS region of the identity provider
//	-u string   Cognito app client id
//	-d string   path to the local database file
//	-t int      request timeout in seconds
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-r", "-u", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the notebook API")
	fs.StringVar(&cfg.AWSRegion, "r", cfg.AWSRegion, "AWS region of the identity provider")
	fs.StringVar(&cfg.CognitoClientID, "u", cfg.CognitoClientID, "Cognito app client id")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database file")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
