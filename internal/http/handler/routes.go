package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"deedapi/internal/model"
	"deedapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, deedSvc service.DeedService, tokenSvc service.TokenService) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/mortgage-deeds", CreateDeed(deedSvc))
	app.Get("/mortgage-deeds", ListDeeds(deedSvc))
	app.Get("/mortgage-deeds/:id", GetDeed(deedSvc))

	app.Get("/sign/:secret", VerifySigningToken(tokenSvc))
	app.Post("/sign", SignDeed(tokenSvc))

	app.Get("/statistics/summary", StatisticsSummary(deedSvc))
}

// HealthCheck reports readiness: checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a backward-compatible simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// actorFromHeaders builds the acting bank user from request headers. The
// gateway in front of this service authenticates and injects them.
func actorFromHeaders(c *fiber.Ctx) (service.Actor, bool) {
	id := c.Get("X-Actor-ID")
	bankID, err := strconv.ParseInt(c.Get("X-Bank-ID"), 10, 64)
	if id == "" || err != nil {
		return service.Actor{}, false
	}
	return service.Actor{
		ID:     id,
		BankID: bankID,
		Email:  c.Get("X-Actor-Email"),
	}, true
}

// CreateDeed handles deed creation with its full party roster.
func CreateDeed(svc service.DeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := actorFromHeaders(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", "X-Actor-ID and X-Bank-ID headers are required")
		}

		var req service.CreateDeedRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", "invalid request body")
		}

		res, err := svc.Create(c.UserContext(), req, actor)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

// GetDeed returns a single deed with all relations.
func GetDeed(svc service.DeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", "invalid id format")
		}
		deed, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(deed)
	}
}

// ListDeeds returns a filtered, paginated deed list.
func ListDeeds(svc service.DeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", "invalid offset")
		}

		f, err := filterFromQuery(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", err.Error())
		}

		res, err := svc.List(c.UserContext(), f, limit, offset)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(res)
	}
}

func filterFromQuery(c *fiber.Ctx) (service.DeedFilter, error) {
	var f service.DeedFilter

	if s := c.Query("status"); s != "" {
		status := model.DeedStatus(s)
		if !status.Valid() {
			return f, errors.New("unknown status " + s)
		}
		f.Status = &status
	}
	if v := c.Query("housing_cooperative_id"); v != "" {
		f.HousingCooperativeID = &v
	}
	if v := c.Query("bank_id"); v != "" {
		bankID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid bank_id")
		}
		f.BankID = &bankID
	}
	if v := c.Query("created_after"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("created_after must be RFC 3339")
		}
		f.CreatedAfter = &ts
	}
	if v := c.Query("created_before"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("created_before must be RFC 3339")
		}
		f.CreatedBefore = &ts
	}
	if v := c.Query("credit_numbers"); v != "" {
		for _, cn := range strings.Split(v, ",") {
			if cn = strings.TrimSpace(cn); cn != "" {
				f.CreditNumbers = append(f.CreditNumbers, cn)
			}
		}
	}
	f.BorrowerPersonNumber = c.Query("borrower_person_number")

	return f, nil
}

// VerifySigningToken validates a signing link without consuming it.
func VerifySigningToken(svc service.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		v, err := svc.Verify(c.UserContext(), c.Params("secret"))
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(v)
	}
}

type signRequest struct {
	Token string `json:"token"`
}

// SignDeed consumes a signing token and records the signature.
func SignDeed(svc service.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req signRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", "invalid request body")
		}
		if req.Token == "" {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_FAILURE", "token is required")
		}

		out, err := svc.Consume(c.UserContext(), req.Token)
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(out)
	}
}

// StatisticsSummary returns aggregate deed statistics.
func StatisticsSummary(svc service.DeedService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Summary(c.UserContext())
		if err != nil {
			return mapServiceError(c, err)
		}
		return c.JSON(res)
	}
}
