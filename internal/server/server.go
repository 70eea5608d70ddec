package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/homegrid-labs/mobile-gateway/internal/capability"
	"github.com/homegrid-labs/mobile-gateway/internal/config"
	"github.com/homegrid-labs/mobile-gateway/internal/model"
	"github.com/homegrid-labs/mobile-gateway/internal/registry"
	"github.com/homegrid-labs/mobile-gateway/internal/service"
	"github.com/homegrid-labs/mobile-gateway/internal/webhook"
	"go.uber.org/zap"
)

// Server wires HTTP handlers.
type Server struct {
	app        *fiber.App
	cfg        *config.Config
	registry   *registry.Registry
	dispatcher *webhook.Dispatcher
	authSvc    *service.AuthService
	cloudhooks capability.CloudhookProvisioner
	logger     *zap.Logger
}

// New builds a server instance.
func New(cfg *config.Config, reg *registry.Registry, dispatcher *webhook.Dispatcher, authSvc *service.AuthService, cloudhooks capability.CloudhookProvisioner, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		IdleTimeout:  cfg.HTTP.ReadTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		AppName:      "mobile-gateway",
	})
	s := &Server{
		app:        app,
		cfg:        cfg,
		registry:   reg,
		dispatcher: dispatcher,
		authSvc:    authSvc,
		cloudhooks: cloudhooks,
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

// Start listens and serves HTTP traffic.
func (s *Server) Start() error {
	return s.app.Listen(s.cfg.HTTP.Addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", s.handleHealth)

	s.app.Post("/auth/login", s.handleLogin)

	// Device-facing endpoints
	s.app.Post("/api/registrations", s.handleRegister)
	s.app.Post("/api/webhook/:webhook_id", s.handleWebhook)

	// Management API
	admin := s.app.Group("/admin", s.requireAuth)
	admin.Get("/registrations", s.handleListRegistrations)
	admin.Get("/registrations/:webhook_id", s.handleGetRegistration)
	admin.Delete("/registrations/:webhook_id", s.handleDeleteRegistration)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// handleWebhook bridges the transport to the dispatcher. The request is
// bounded by the configured timeout so a disconnected or slow device cannot
// leak long-running capability calls.
func (s *Server) handleWebhook(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), s.cfg.Webhook.RequestTimeout)
	defer cancel()

	// Fiber reuses the body and param buffers after the handler returns.
	body := make([]byte, len(c.Body()))
	copy(body, c.Body())
	webhookID := strings.Clone(c.Params("webhook_id"))

	result := s.dispatcher.Handle(ctx, webhookID, body)
	for key, value := range result.Headers {
		c.Set(key, value)
	}
	if result.Body == nil {
		// Not SendStatus: these responses carry no body at all.
		return c.Status(result.Status).Send(nil)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(result.Status).Send(result.Body)
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req model.RegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if err := req.Validate(); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	device, err := s.registry.Register(c.UserContext(), req, c.Get("X-User-ID"))
	if err != nil {
		s.logger.Error("device registration failed", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}

	resp := model.RegistrationResponse{
		SafeDevice: device.Safe(),
		WebhookID:  device.WebhookID,
		Secret:     device.Secret,
	}
	if s.cloudhooks != nil {
		hookID, hookURL, err := s.cloudhooks.CreateCloudhook(c.UserContext(), device.WebhookID)
		if err != nil {
			s.logger.Error("cloudhook provisioning failed",
				zap.String("device_name", device.DeviceName), zap.Error(err))
		} else {
			if err := s.registry.SetCloudhook(c.UserContext(), device.WebhookID, hookID, hookURL); err != nil {
				s.logger.Error("storing cloudhook failed", zap.Error(err))
			}
			resp.CloudhookID = hookID
			resp.CloudhookURL = hookURL
		}
	}
	return c.Status(http.StatusCreated).JSON(resp)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}
	if s.authSvc == nil || !s.authSvc.Enabled() {
		return c.JSON(fiber.Map{"token": "", "enabled": false})
	}
	token, err := s.authSvc.Authenticate(req.Username, req.Password)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"token": token, "enabled": true})
}

// adminRegistration is the management view of a device: the safe projection
// plus the webhook ID and component binding, never the secret.
type adminRegistration struct {
	model.SafeDevice
	WebhookID    string `json:"webhook_id"`
	AppComponent string `json:"app_component,omitempty"`
	UserID       string `json:"user_id,omitempty"`
}

func adminView(device *model.Device) adminRegistration {
	return adminRegistration{
		SafeDevice:   device.Safe(),
		WebhookID:    device.WebhookID,
		AppComponent: device.AppComponent,
		UserID:       device.UserID,
	}
}

func (s *Server) handleListRegistrations(c *fiber.Ctx) error {
	devices := s.registry.List(registry.Filter{
		AppComponent: c.Query("app_component"),
		UserID:       c.Query("user_id"),
		AppDataKey:   c.Query("app_data_key"),
	})
	views := make([]adminRegistration, 0, len(devices))
	for _, device := range devices {
		views = append(views, adminView(device))
	}
	return c.JSON(views)
}

func (s *Server) handleGetRegistration(c *fiber.Ctx) error {
	device, err := s.registry.Get(c.Params("webhook_id"))
	if err != nil {
		status := http.StatusNotFound
		if s.registry.IsDeleted(c.Params("webhook_id")) {
			status = http.StatusGone
		}
		return c.Status(status).JSON(fiber.Map{"error": "registration not found"})
	}
	return c.JSON(adminView(device))
}

func (s *Server) handleDeleteRegistration(c *fiber.Ctx) error {
	// Fiber reuses the param buffer after the handler returns; the registry
	// keeps the ID in its burned-ID set.
	webhookID := strings.Clone(c.Params("webhook_id"))
	if err := s.registry.Delete(c.UserContext(), webhookID); err != nil {
		s.logger.Error("delete registration failed",
			zap.String("webhook_id", webhookID), zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "delete failed"})
	}
	if _, err := s.registry.PruneOrphans(c.UserContext()); err != nil {
		s.logger.Error("pruning orphaned sensors failed", zap.Error(err))
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) requireAuth(c *fiber.Ctx) error {
	if s.authSvc == nil || !s.authSvc.Enabled() {
		return c.Next()
	}
	token := extractBearerToken(c.Get("Authorization"))
	if token == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}
	claims, err := s.authSvc.Validate(token)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	c.Locals("username", claims.Username)
	return c.Next()
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
