package main

import (
	"errors"
	"flag"
	"io"
	"time"

	"github.com/and161185/vesting-engine/internal/events"
)

// config is the server configuration, taken from command-line flags.
type config struct {
	Addr     string
	HTTPAddr string
	DSN      string

	RedisAddr    string
	Stream       string
	StreamMaxLen int64

	JWTKey    string
	AccessTTL time.Duration
	CertFile  string
	KeyFile   string

	RelayInterval time.Duration
	RelayBatch    int

	DisableRevocation bool
	Dev               bool
}

func parseConfig(args []string, out io.Writer) (config, error) {
	var c config
	fs := flag.NewFlagSet("vestd", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&c.Addr, "addr", ":8443", "gRPC listen address")
	fs.StringVar(&c.HTTPAddr, "http-addr", "", "read-only HTTP API listen address (disabled when empty)")
	fs.StringVar(&c.DSN, "dsn", "", "PostgreSQL DSN (in-memory store when empty, -dev only)")
	fs.StringVar(&c.RedisAddr, "redis-addr", "", "Redis address for login limits and the event stream")
	fs.StringVar(&c.Stream, "redis-stream", events.DefaultStream, "Redis stream events are published to")
	fs.Int64Var(&c.StreamMaxLen, "stream-maxlen", 1_000_000, "approximate cap of the event stream (0: unbounded)")
	fs.StringVar(&c.JWTKey, "jwt-key", "", "HS256 signing key (required)")
	fs.DurationVar(&c.AccessTTL, "access-ttl", 15*time.Minute, "access token TTL")
	fs.StringVar(&c.CertFile, "tls-cert", "", "TLS certificate (PEM)")
	fs.StringVar(&c.KeyFile, "tls-key", "", "TLS private key (PEM)")
	fs.DurationVar(&c.RelayInterval, "relay-interval", time.Second, "event relay poll interval")
	fs.IntVar(&c.RelayBatch, "relay-batch", 100, "events forwarded per relay round")
	fs.BoolVar(&c.DisableRevocation, "disable-revocation", false, "do not serve the Revocation service")
	fs.BoolVar(&c.Dev, "dev", false, "development mode: plaintext gRPC, in-memory store allowed, console logs")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	return c, c.validate()
}

func (c config) validate() error {
	switch {
	case c.JWTKey == "":
		return errors.New("missing jwt signing key (-jwt-key)")
	case (c.CertFile == "") != (c.KeyFile == ""):
		return errors.New("-tls-cert and -tls-key go together")
	case !c.Dev && c.CertFile == "":
		return errors.New("TLS is required outside -dev")
	case !c.Dev && c.DSN == "":
		return errors.New("-dsn is required outside -dev")
	case c.AccessTTL <= 0:
		return errors.New("-access-ttl must be positive")
	case c.RelayInterval <= 0:
		return errors.New("-relay-interval must be positive")
	case c.RelayBatch <= 0:
		return errors.New("-relay-batch must be positive")
	}
	return nil
}
