// Package httpserver serves a read-only JSON view of the vesting engine for
// indexers and dashboards. Every write goes through gRPC.
package httpserver

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/and161185/vesting-engine/internal/api"
	"github.com/and161185/vesting-engine/internal/convert"
	"github.com/and161185/vesting-engine/internal/errs"
	"github.com/and161185/vesting-engine/internal/model"
	"github.com/and161185/vesting-engine/internal/service"
)

// Error is the JSON body of every failed request.
type Error struct {
	Status  int       `json:"-"`
	Code    errs.Code `json:"code"`
	Message string    `json:"error"`
}

func (e Error) Error() string { return e.Message }

func httpStatus(c errs.Code) int {
	switch c {
	case errs.CodeInvalidArgument, errs.CodeInvalidVestingPeriod, errs.CodeInvalidCliffTime, errs.CodeZeroAmount:
		return fiber.StatusUnprocessableEntity
	case errs.CodeNotFound:
		return fiber.StatusNotFound
	case errs.CodeCalculationOverflow:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler renders domain errors as Error bodies.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code := errs.CodeInvalidArgument
			if fe.Code == fiber.StatusNotFound {
				code = errs.CodeNotFound
			}
			return c.Status(fe.Code).JSON(Error{Code: code, Message: fe.Message})
		}
		code := errs.CodeOf(err)
		e := Error{Status: httpStatus(code), Code: code, Message: err.Error()}
		if code == errs.CodeInternal {
			log.Error("http", zap.String("path", c.Path()), zap.Error(err))
			e.Message = "internal server error"
		}
		return c.Status(e.Status).JSON(e)
	}
}

// Services are the read paths the HTTP API needs.
type Services struct {
	Authorities service.AuthorityService
	Schedules   service.ScheduleService
	Claims      service.ClaimService
}

type handler struct {
	Services
}

// New builds the fiber app.
func New(s Services, log *zap.Logger) *fiber.App {
	if log == nil {
		log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		ErrorHandler:          errorHandler(log),
		DisableStartupMessage: true,
		UnescapePath:          true, // tenant keys may hold spaces and non-ASCII text
		ReadTimeout:           10 * time.Second,
	})
	h := handler{s}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "now": time.Now().Unix()})
	})
	v1 := app.Group("/v1")
	v1.Get("/authorities/:id", h.authority)
	v1.Get("/tenants/:key", h.tenant)
	v1.Get("/authorities/:id/schedules", h.schedules)
	v1.Get("/schedules/:id", h.schedule)
	v1.Get("/accounts/:id/authorities", h.owned)
	v1.Get("/accounts/:id/schedules", h.grants)
	v1.Get("/accounts/:id/balances/:asset", h.balance)
	return app
}

func (h handler) withBalance(c *fiber.Ctx, a model.Authority) error {
	bal, err := h.Authorities.TreasuryBalance(c.UserContext(), a.ID)
	if err != nil {
		return err
	}
	out := convert.ToAuthority(a)
	out.TreasuryBalance = bal
	return c.JSON(out)
}

func (h handler) authority(c *fiber.Ctx) error {
	id, err := convert.ParseID("id", c.Params("id"))
	if err != nil {
		return err
	}
	a, err := h.Authorities.GetAuthority(c.UserContext(), id)
	if err != nil {
		return err
	}
	return h.withBalance(c, a)
}

func (h handler) tenant(c *fiber.Ctx) error {
	a, err := h.Authorities.GetAuthorityByTenant(c.UserContext(), c.Params("key"))
	if err != nil {
		return err
	}
	return h.withBalance(c, a)
}

func (h handler) schedules(c *fiber.Ctx) error {
	id, err := convert.ParseID("id", c.Params("id"))
	if err != nil {
		return err
	}
	list, err := h.Schedules.ListSchedules(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(api.ListSchedulesResponse{Schedules: convert.ToSchedules(list)})
}

// owned lists the authorities an account owns.
func (h handler) owned(c *fiber.Ctx) error {
	id, err := convert.ParseID("id", c.Params("id"))
	if err != nil {
		return err
	}
	list, err := h.Authorities.ListAuthorities(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(api.ListAuthoritiesResponse{Authorities: convert.ToAuthorities(list)})
}

// grants lists the schedules granted to an account.
func (h handler) grants(c *fiber.Ctx) error {
	id, err := convert.ParseID("id", c.Params("id"))
	if err != nil {
		return err
	}
	list, err := h.Schedules.ListGrants(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(api.ListSchedulesResponse{Schedules: convert.ToSchedules(list)})
}

// schedule returns a schedule with its figures now, or at ?at=<unix seconds>.
func (h handler) schedule(c *fiber.Ctx) error {
	id, err := convert.ParseID("id", c.Params("id"))
	if err != nil {
		return err
	}
	var (
		sc   model.Schedule
		snap model.Snapshot
	)
	if raw := c.Query("at"); raw != "" {
		at, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			return fmt.Errorf("%w: bad at %q", errs.ErrInvalidArgument, raw)
		}
		sc, snap, err = h.Schedules.PreviewAt(c.UserContext(), id, at)
	} else {
		sc, snap, err = h.Schedules.Preview(c.UserContext(), id)
	}
	if err != nil {
		return err
	}
	return c.JSON(convert.ToScheduleView(sc, snap))
}

func (h handler) balance(c *fiber.Ctx) error {
	id, err := convert.ParseID("id", c.Params("id"))
	if err != nil {
		return err
	}
	asset := c.Params("asset")
	bal, err := h.Claims.Balance(c.UserContext(), id, asset)
	if err != nil {
		return err
	}
	return c.JSON(api.GetBalanceResponse{AccountID: id.String(), AssetID: asset, Balance: bal})
}
