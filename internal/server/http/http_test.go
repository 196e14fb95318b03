package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/events"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/repository/memory"
	"github.com/and161185/vesting-engine/internal/service"
	"github.com/and161185/vesting-engine/internal/treasury"
)

type fakeAuthorities struct {
	service.AuthorityService
	a       model.Authority
	balance uint64
}

func (f *fakeAuthorities) GetAuthority(_ context.Context, id uuid.UUID) (model.Authority, error) {
	if id != f.a.ID {
		return model.Authority{}, errs.ErrNotFound
	}
	return f.a, nil
}

func (f *fakeAuthorities) GetAuthorityByTenant(_ context.Context, key string) (model.Authority, error) {
	if key != f.a.TenantKey {
		return model.Authority{}, errs.ErrNotFound
	}
	return f.a, nil
}

func (f *fakeAuthorities) ListAuthorities(_ context.Context, owner uuid.UUID) ([]model.Authority, error) {
	if owner != f.a.Owner {
		return nil, nil
	}
	return []model.Authority{f.a}, nil
}

func (f *fakeAuthorities) TreasuryBalance(context.Context, uuid.UUID) (uint64, error) {
	return f.balance, nil
}

type fakeSchedules struct {
	service.ScheduleService
	sc     model.Schedule
	lastAt *int64
}

func (f *fakeSchedules) ListSchedules(_ context.Context, id uuid.UUID) ([]model.Schedule, error) {
	if id != f.sc.AuthorityID {
		return nil, errs.ErrNotFound
	}
	return []model.Schedule{f.sc}, nil
}

func (f *fakeSchedules) ListGrants(_ context.Context, ben uuid.UUID) ([]model.Schedule, error) {
	if ben != f.sc.Beneficiary {
		return nil, nil
	}
	return []model.Schedule{f.sc}, nil
}

func (f *fakeSchedules) Preview(ctx context.Context, id uuid.UUID) (model.Schedule, model.Snapshot, error) {
	f.lastAt = nil
	return f.sc, model.Snapshot{At: 1, Vested: 10}, nil
}

func (f *fakeSchedules) PreviewAt(_ context.Context, id uuid.UUID, at int64) (model.Schedule, model.Snapshot, error) {
	f.lastAt = &at
	return f.sc, model.Snapshot{At: at, Vested: 500, Claimable: 400}, nil
}

type fakeClaims struct{ service.ClaimService }

func (fakeClaims) Balance(_ context.Context, id uuid.UUID, asset string) (uint64, error) {
	if asset == "BROKEN" {
		return 0, errors.New("ledger unavailable")
	}
	return 42, nil
}

type fixture struct {
	auth  *fakeAuthorities
	sched *fakeSchedules
	do    func(t *testing.T, path string) (int, []byte)
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	a := model.Authority{ID: uuid.Must(uuid.NewV4()), Owner: uuid.Must(uuid.NewV4()), AssetID: "MESG", TenantKey: "acme"}
	f := fixture{
		auth:  &fakeAuthorities{a: a, balance: 5000},
		sched: &fakeSchedules{sc: model.Schedule{
			ID: uuid.Must(uuid.NewV4()), AuthorityID: a.ID, Beneficiary: uuid.Must(uuid.NewV4()), TotalAmount: 1000, EndTime: 1000,
		}},
	}
	app := New(Services{Authorities: f.auth, Schedules: f.sched, Claims: fakeClaims{}}, zaptest.NewLogger(t))
	f.do = func(t *testing.T, path string) (int, []byte) {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, body
	}
	return f
}

func TestAuthority(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, body := f.do(t, "/v1/authorities/"+f.auth.a.ID.String())
	require.Equal(t, http.StatusOK, code)
	var got api.Authority
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "acme", got.TenantKey)
	require.Equal(t, uint64(5000), got.TreasuryBalance)

	code, body = f.do(t, "/v1/tenants/acme")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, f.auth.a.ID.String(), got.ID)

	code, body = f.do(t, "/v1/authorities/"+uuid.Must(uuid.NewV4()).String())
	require.Equal(t, http.StatusNotFound, code)
	require.JSONEq(t, `{"code":"NotFound","error":"not found"}`, string(body))

	code, body = f.do(t, "/v1/authorities/not-a-uuid")
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Contains(t, string(body), `"code":"InvalidArgument"`)
}

func TestSchedules(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, body := f.do(t, "/v1/authorities/"+f.auth.a.ID.String()+"/schedules")
	require.Equal(t, http.StatusOK, code)
	var list api.ListSchedulesResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Schedules, 1)
	require.Equal(t, uint64(1000), list.Schedules[0].TotalAmount)

	code, body = f.do(t, "/v1/schedules/"+f.sched.sc.ID.String()+"?at=500")
	require.Equal(t, http.StatusOK, code)
	var view api.ScheduleView
	require.NoError(t, json.Unmarshal(body, &view))
	require.Equal(t, uint64(400), view.Snapshot.Claimable)
	require.NotNil(t, f.sched.lastAt)
	require.Equal(t, int64(500), *f.sched.lastAt)

	code, _ = f.do(t, "/v1/schedules/"+f.sched.sc.ID.String())
	require.Equal(t, http.StatusOK, code)
	require.Nil(t, f.sched.lastAt)

	code, _ = f.do(t, "/v1/schedules/"+f.sched.sc.ID.String()+"?at=soon")
	require.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestAccountListings(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, body := f.do(t, "/v1/accounts/"+f.auth.a.Owner.String()+"/authorities")
	require.Equal(t, http.StatusOK, code)
	var owned api.ListAuthoritiesResponse
	require.NoError(t, json.Unmarshal(body, &owned))
	require.Len(t, owned.Authorities, 1)
	require.Equal(t, "acme", owned.Authorities[0].TenantKey)

	code, body = f.do(t, "/v1/accounts/"+uuid.Must(uuid.NewV4()).String()+"/authorities")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"authorities":[]}`, string(body))

	code, body = f.do(t, "/v1/accounts/"+f.sched.sc.Beneficiary.String()+"/schedules")
	require.Equal(t, http.StatusOK, code)
	var grants api.ListSchedulesResponse
	require.NoError(t, json.Unmarshal(body, &grants))
	require.Len(t, grants.Schedules, 1)
	require.Equal(t, f.sched.sc.ID.String(), grants.Schedules[0].ID)

	code, _ = f.do(t, "/v1/accounts/nope/schedules")
	require.Equal(t, http.StatusUnprocessableEntity, code)
}

// Tenant keys travel percent-encoded in the path.
func TestTenant_EscapedKey(t *testing.T) {
	t.Parallel()

	store := memory.New()
	repos := store.Repos()
	keeper := treasury.NewKeeper(memory.NewLedgerRepo(store))
	authorities := service.NewAuthorityService(repos, keeper, events.NewOutbox(repos.Events))
	app := New(Services{Authorities: authorities}, zaptest.NewLogger(t))

	for _, key := range []string{"Mesgari Inc", "ж фонд", "50% off"} {
		a, err := authorities.CreateAuthority(context.Background(), uuid.Must(uuid.NewV4()), "MESG", key)
		require.NoError(t, err)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/tenants/"+url.PathEscape(key), nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, "%q: %s", key, body)

		var got api.Authority
		require.NoError(t, json.Unmarshal(body, &got))
		require.Equal(t, a.ID.String(), got.ID)
		require.Equal(t, key, got.TenantKey)
	}
}

func TestBalance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	id := uuid.Must(uuid.NewV4())

	code, body := f.do(t, "/v1/accounts/"+id.String()+"/balances/MESG")
	require.Equal(t, http.StatusOK, code)
	require.JSONEq(t, `{"account_id":"`+id.String()+`","asset_id":"MESG","balance":42}`, string(body))

	code, body = f.do(t, "/v1/accounts/"+id.String()+"/balances/BROKEN")
	require.Equal(t, http.StatusInternalServerError, code)
	require.NotContains(t, string(body), "ledger unavailable")
}

func TestHealthAndUnknownRoute(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	code, body := f.do(t, "/health")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(body), `"ok":true`)

	code, body = f.do(t, "/v1/nothing")
	require.Equal(t, http.StatusNotFound, code)
	require.Contains(t, string(body), `"code":"NotFound"`)
}
