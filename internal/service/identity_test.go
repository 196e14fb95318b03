package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/and161185/vesting-engine/internal/crypto"
	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/limiter"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository"
)

type fakeAccounts struct {
	byName map[string]*model.Account

	createErr error
	getErr    error
}

var _ repository.AccountRepository = (*fakeAccounts)(nil)

func (f *fakeAccounts) Create(_ context.Context, a *model.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byName == nil {
		f.byName = map[string]*model.Account{}
	}
	if _, exists := f.byName[a.Name]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *a
	f.byName[a.Name] = &cpy
	return nil
}
func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	for _, a := range f.byName {
		if a.ID == id {
			c := *a
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeAccounts) GetByName(_ context.Context, name string) (*model.Account, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byName[name]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *a
	return &c, nil
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successErr error

	allowCalls   int
	failureCalls int
	successCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	l.allowCalls++
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return l.successErr
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

func TestIdentity_Register_Basics(t *testing.T) {
	t.Parallel()
	accounts := &fakeAccounts{byName: map[string]*model.Account{}}
	s := NewIdentityService(accounts, []byte("k"), time.Minute, &fakeLimiter{})

	if _, err := s.Register(context.Background(), "", ""); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument on empty name/password, got %v", err)
	}

	id, err := s.Register(context.Background(), "alice", "pwd")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id == uuid.Nil {
		t.Fatalf("nil account id")
	}
	if sec := accounts.byName["alice"].Secret; sec == "" || sec == "pwd" {
		t.Fatalf("password must be stored as a verifier, got %q", sec)
	}

	if _, err := s.Register(context.Background(), "alice", "pwd2"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate name, got %v", err)
	}

	accounts.createErr = errors.New("boom")
	if _, err := s.Register(context.Background(), "bob", "pwd"); err == nil {
		t.Fatalf("want propagated repo error")
	}
}

func TestIdentity_Login_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()

	secret, err := pkgcrypto.HashPassword("correct")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	a := &model.Account{ID: uuid.Must(uuid.NewV4()), Name: "alice", Secret: secret}

	accounts := &fakeAccounts{byName: map[string]*model.Account{"alice": a}}
	lim := &fakeLimiter{allowOK: true}
	s := NewIdentityService(accounts, []byte("secret"), 2*time.Minute, lim)

	lim.allowErr = errors.New("lim-err")
	if _, _, err := s.Login(context.Background(), "alice", "correct", "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, _, err := s.Login(context.Background(), "alice", "correct", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	lim.allowOK = true

	if _, _, err := s.Login(context.Background(), "nope", "x", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on missing account, got %v", err)
	}

	lim.failBlocked = true
	if _, _, err := s.Login(context.Background(), "alice", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited on blocked after failure, got %v", err)
	}

	lim.failBlocked = false
	if _, _, err := s.Login(context.Background(), "alice", "wrong", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on wrong password, got %v", err)
	}

	accounts.byName["broken"] = &model.Account{ID: uuid.Must(uuid.NewV4()), Name: "broken", Secret: "garbage"}
	if _, _, err := s.Login(context.Background(), "broken", "x", ""); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on malformed verifier, got %v", err)
	}

	tok, got, err := s.Login(context.Background(), "alice", "correct", "127.0.0.1:123")
	if err != nil {
		t.Fatalf("Login success: %v", err)
	}
	if tok.AccessToken == "" || tok.ExpiresAt.Before(time.Now()) {
		t.Fatalf("bad token: %+v", tok)
	}
	if got.ID != a.ID {
		t.Fatalf("bad account returned: %+v", got)
	}
	if lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}
}

func TestIdentity_TokenSubjectAndTTL(t *testing.T) {
	t.Parallel()

	accounts := &fakeAccounts{}
	s := NewIdentityService(accounts, []byte("k"), time.Minute, &fakeLimiter{allowOK: true})
	fixed := time.Now().Truncate(time.Second)
	s.now = func() time.Time { return fixed }

	id, err := s.Register(context.Background(), "bob", "p")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	tk, _, err := s.Login(context.Background(), "bob", "p", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !tk.ExpiresAt.Equal(fixed.Add(time.Minute)) {
		t.Fatalf("expiry = %v, want %v", tk.ExpiresAt, fixed.Add(time.Minute))
	}

	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(tk.AccessToken, &claims, func(*jwt.Token) (any, error) { return []byte("k"), nil })
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != id.String() {
		t.Fatalf("subject = %q, want %q", claims.Subject, id)
	}
}
