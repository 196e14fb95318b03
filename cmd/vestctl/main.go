// Command vestctl is a CLI client for the vesting engine.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/errs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// errUsage makes main print usage and exit 2.
var errUsage = errors.New("usage")

type cli struct {
	addr       string
	caPath     string
	skipVerify bool
	plaintext  bool
	out        io.Writer
	now        func() time.Time
}

func usage(w io.Writer) {
	fmt.Fprint(w, `vestctl CLI
Usage:
  vestctl -addr HOST:PORT [-cacert file | -insecure | -plaintext] <cmd> [args]

Commands:
  version
  register          -u <name> -p <password>
  login             -u <name> -p <password>            (saves token)
  authority create  -asset <id> -tenant <key>
  authority get     -id <uuid> | -tenant <key>
  authority list    [-owner <uuid>]
  fund              -authority <uuid> -amount <n>
  schedule create   -authority <uuid> -beneficiary <uuid> -amount <n> -start <t> -end <t> [-cliff <t>]
  schedule get      -id <uuid> [-at <t>]
  schedule list     [-authority <uuid> | -beneficiary <uuid>]
  claim             -schedule <uuid>
  balance           -asset <id> [-account <uuid>]
  revoke            -authority <uuid> -schedule <uuid>

Times are unix seconds, RFC 3339, "now" or an offset like +720h.
`)
}

// main dispatches subcommands and configures TLS/auth for RPC calls.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := run(ctx, os.Args[1:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		usage(os.Stderr)
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	c := &cli{out: out, now: time.Now}
	fs := flag.NewFlagSet("vestctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&c.addr, "addr", "localhost:8443", "server addr")
	fs.StringVar(&c.caPath, "cacert", "", "CA cert (PEM)")
	fs.BoolVar(&c.skipVerify, "insecure", false, "skip cert verify (dev)")
	fs.BoolVar(&c.plaintext, "plaintext", false, "no TLS (vestd -dev)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errUsage
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "version":
		fmt.Fprintf(c.out, "vestctl %s (%s)\n", version, buildDate)
		return nil
	case "register":
		return c.register(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "authority":
		return c.sub(ctx, rest, map[string]func(context.Context, []string) error{
			"create": c.createAuthority,
			"get":    c.getAuthority,
			"list":   c.listAuthorities,
		})
	case "fund":
		return c.fund(ctx, rest)
	case "schedule":
		return c.sub(ctx, rest, map[string]func(context.Context, []string) error{
			"create": c.createSchedule,
			"get":    c.getSchedule,
			"list":   c.listSchedules,
		})
	case "claim":
		return c.claim(ctx, rest)
	case "balance":
		return c.balance(ctx, rest)
	case "revoke":
		return c.revoke(ctx, rest)
	default:
		return errUsage
	}
}

func (c *cli) sub(ctx context.Context, args []string, cmds map[string]func(context.Context, []string) error) error {
	if len(args) == 0 {
		return errUsage
	}
	fn, ok := cmds[args[0]]
	if !ok {
		return errUsage
	}
	return fn(ctx, args[1:])
}

// describe renders an RPC error with its stable code when the server sent one.
func describe(err error) string {
	if code := api.CodeFromError(err); code != errs.CodeInternal {
		return fmt.Sprintf("%s: %v", code, api.AsSentinel(err))
	}
	return err.Error()
}

func (c *cli) printJSON(v any) {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func required(fs *flag.FlagSet, names ...string) error {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, n := range names {
		if !set[n] {
			return fmt.Errorf("%s: need -%s", fs.Name(), n)
		}
	}
	return nil
}
