package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"

	"github.com/and161185/vesting-engine/internal/api"
)

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// authed dials with the saved token.
func (c *cli) authed() (*grpc.ClientConn, error) {
	tf, err := loadToken()
	if err != nil {
		return nil, err
	}
	return c.dial(tf.AccessToken)
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	u := fs.String("u", "", "account name")
	p := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *u == "" || *p == "" {
		return errors.New("need -u and -p")
	}
	cc, err := c.dial("")
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := api.NewIdentityClient(cc).Register(ctx, &api.RegisterRequest{Name: *u, Password: *p})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, resp.AccountID)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	u := fs.String("u", "", "account name")
	p := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *u == "" || *p == "" {
		return errors.New("need -u and -p")
	}
	cc, err := c.dial("")
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := api.NewIdentityClient(cc).Login(ctx, &api.LoginRequest{Name: *u, Password: *p})
	if err != nil {
		return err
	}
	if err := saveToken(tokenFile{
		AccountID:   resp.AccountID,
		AccessToken: resp.AccessToken,
		ExpiresAt:   time.Unix(resp.ExpiresAt, 0),
	}); err != nil {
		return err
	}
	fmt.Fprintln(c.out, resp.AccountID)
	return nil
}

func (c *cli) createAuthority(ctx context.Context, args []string) error {
	fs := newFlags("authority create")
	asset := fs.String("asset", "", "asset id")
	tenant := fs.String("tenant", "", "tenant key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "asset", "tenant"); err != nil {
		return err
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	a, err := api.NewVestingClient(cc).CreateAuthority(ctx, &api.CreateAuthorityRequest{AssetID: *asset, TenantKey: *tenant})
	if err != nil {
		return err
	}
	c.printJSON(a)
	return nil
}

func (c *cli) getAuthority(ctx context.Context, args []string) error {
	fs := newFlags("authority get")
	id := fs.String("id", "", "authority id")
	tenant := fs.String("tenant", "", "tenant key")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" && *tenant == "" {
		return errors.New("need -id or -tenant")
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	a, err := api.NewVestingClient(cc).GetAuthority(ctx, &api.GetAuthorityRequest{ID: *id, TenantKey: *tenant})
	if err != nil {
		return err
	}
	c.printJSON(a)
	return nil
}

func (c *cli) listAuthorities(ctx context.Context, args []string) error {
	fs := newFlags("authority list")
	owner := fs.String("owner", "", "owner account id (default: you)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := api.NewVestingClient(cc).ListAuthorities(ctx, &api.ListAuthoritiesRequest{Owner: *owner})
	if err != nil {
		return err
	}
	c.printJSON(resp.Authorities)
	return nil
}

func (c *cli) fund(ctx context.Context, args []string) error {
	fs := newFlags("fund")
	authority := fs.String("authority", "", "authority id")
	amount := fs.Uint64("amount", 0, "amount in base units")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "authority", "amount"); err != nil {
		return err
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := api.NewVestingClient(cc).FundTreasury(ctx, &api.FundTreasuryRequest{AuthorityID: *authority, Amount: *amount})
	if err != nil {
		return err
	}
	c.printJSON(resp)
	return nil
}

func (c *cli) createSchedule(ctx context.Context, args []string) error {
	fs := newFlags("schedule create")
	authority := fs.String("authority", "", "authority id")
	ben := fs.String("beneficiary", "", "beneficiary account id")
	amount := fs.Uint64("amount", 0, "total amount in base units")
	start := fs.String("start", "", "vesting start")
	end := fs.String("end", "", "vesting end")
	cliff := fs.String("cliff", "", "cliff (defaults to start)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "authority", "beneficiary", "amount", "start", "end"); err != nil {
		return err
	}
	now := c.now()
	req := &api.CreateScheduleRequest{AuthorityID: *authority, Beneficiary: *ben, TotalAmount: *amount}
	var err error
	if req.StartTime, err = parseWhen(*start, now); err != nil {
		return err
	}
	if req.EndTime, err = parseWhen(*end, now); err != nil {
		return err
	}
	req.CliffTime = req.StartTime
	if *cliff != "" {
		if req.CliffTime, err = parseWhen(*cliff, now); err != nil {
			return err
		}
	}

	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	sc, err := api.NewVestingClient(cc).CreateSchedule(ctx, req)
	if err != nil {
		return err
	}
	c.printJSON(sc)
	return nil
}

func (c *cli) getSchedule(ctx context.Context, args []string) error {
	fs := newFlags("schedule get")
	id := fs.String("id", "", "schedule id")
	at := fs.String("at", "", "evaluate at (defaults to server time)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "id"); err != nil {
		return err
	}
	req := &api.GetScheduleRequest{ID: *id}
	if *at != "" {
		v, err := parseWhen(*at, c.now())
		if err != nil {
			return err
		}
		req.At = &v
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	view, err := api.NewVestingClient(cc).GetSchedule(ctx, req)
	if err != nil {
		return err
	}
	c.printJSON(view)
	return nil
}

// listSchedules lists an authority's schedules, a beneficiary's grants, or
// with no flags the caller's own grants.
func (c *cli) listSchedules(ctx context.Context, args []string) error {
	fs := newFlags("schedule list")
	authority := fs.String("authority", "", "authority id")
	beneficiary := fs.String("beneficiary", "", "beneficiary account id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *authority != "" && *beneficiary != "" {
		return errors.New("-authority and -beneficiary are exclusive")
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := api.NewVestingClient(cc).ListSchedules(ctx, &api.ListSchedulesRequest{
		AuthorityID: *authority,
		Beneficiary: *beneficiary,
	})
	if err != nil {
		return err
	}
	c.printJSON(resp.Schedules)
	return nil
}

func (c *cli) claim(ctx context.Context, args []string) error {
	fs := newFlags("claim")
	schedule := fs.String("schedule", "", "schedule id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "schedule"); err != nil {
		return err
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := api.NewVestingClient(cc).Claim(ctx, &api.ClaimRequest{ScheduleID: *schedule})
	if err != nil {
		return err
	}
	c.printJSON(resp)
	return nil
}

func (c *cli) balance(ctx context.Context, args []string) error {
	fs := newFlags("balance")
	asset := fs.String("asset", "", "asset id")
	account := fs.String("account", "", "account id (defaults to the logged-in account)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "asset"); err != nil {
		return err
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := api.NewVestingClient(cc).GetBalance(ctx, &api.GetBalanceRequest{AccountID: *account, AssetID: *asset})
	if err != nil {
		return err
	}
	c.printJSON(resp)
	return nil
}

func (c *cli) revoke(ctx context.Context, args []string) error {
	fs := newFlags("revoke")
	authority := fs.String("authority", "", "authority id")
	schedule := fs.String("schedule", "", "schedule id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := required(fs, "authority", "schedule"); err != nil {
		return err
	}
	cc, err := c.authed()
	if err != nil {
		return err
	}
	defer cc.Close()

	resp, err := api.NewRevocationClient(cc).Revoke(ctx, &api.RevokeRequest{AuthorityID: *authority, ScheduleID: *schedule})
	if err != nil {
		return err
	}
	c.printJSON(resp)
	return nil
}
