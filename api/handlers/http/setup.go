package http

import (
	"crypto/tls"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/clearpath-sec/cloudscan/app"
	"github.com/clearpath-sec/cloudscan/config"
)

func Run(appContainer app.AppContainer, cfg config.ServerConfig) error {
	router := fiber.New(fiber.Config{
		AppName: "CloudScan",
	})
	router.Use(helmet.New())
	router.Use(TraceMiddleware())
	router.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} TraceID: ${locals:traceID}\n",
		Output: os.Stdout,
	}))

	router.Get("/", func(c *fiber.Ctx) error {
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		return c.SendString("Secure HTTPS server")
	})

	api := router.Group("/api/v1", setUserContext)

	registerAuthAPI(appContainer, cfg, api)

	secured := api.Group("", newAuthMiddleware([]byte(cfg.Secret)))
	registerCredentialAPI(appContainer, secured.Group("/credentials"))
	registerPolicyAPI(appContainer, secured.Group("/policies"))
	registerScanAPI(appContainer, secured.Group("/scans"))
	registerScheduleAPI(appContainer, secured.Group("/schedules"))
	registerEventsAPI(appContainer, secured)

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12, // Set minimum TLS version (TLS 1.2)
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
		PreferServerCipherSuites: true, // Server prefers its cipher suites
	}

	router.Server().TLSConfig = tlsConfig
	if !cfg.SslEnabled {
		return router.Listen(fmt.Sprintf(":%d", cfg.HttpPort))
	}
	return router.ListenTLS(fmt.Sprintf(":%d", cfg.HttpPort), cfg.Cert, cfg.Key)

}

func registerAuthAPI(appContainer app.AppContainer, cfg config.ServerConfig, router fiber.Router) {
	userSvcGetter := userServiceGetter(appContainer, cfg)
	router.Post("/sign-up", setTransaction(appContainer.DB()), SignUp(userSvcGetter))
	router.Post("/sign-in", setTransaction(appContainer.DB()), SignIn(userSvcGetter, cfg))
	router.Post("/sign-out", setTransaction(appContainer.DB()), SignOut(userSvcGetter))
}

func registerCredentialAPI(appContainer app.AppContainer, router fiber.Router) {
	credentialSvcGetter := credentialServiceGetter(appContainer)
	router.Post("/", setTransaction(appContainer.DB()), CreateCredential(credentialSvcGetter))
	router.Get("/", ListCredentials(credentialSvcGetter))
	router.Get("/:id", GetCredential(credentialSvcGetter))
	router.Put("/:id", setTransaction(appContainer.DB()), UpdateCredential(credentialSvcGetter))
	router.Delete("/:id", setTransaction(appContainer.DB()), DeleteCredential(credentialSvcGetter))
}

func registerPolicyAPI(appContainer app.AppContainer, router fiber.Router) {
	policySvcGetter := policyServiceGetter(appContainer)
	router.Post("/", setTransaction(appContainer.DB()), CreatePolicy(policySvcGetter))
	router.Get("/", ListPolicies(policySvcGetter))
	router.Get("/:id", GetPolicy(policySvcGetter))
	router.Put("/:id", setTransaction(appContainer.DB()), UpdatePolicy(policySvcGetter))
	router.Delete("/:id", setTransaction(appContainer.DB()), DeletePolicy(policySvcGetter))
}

func registerScanAPI(appContainer app.AppContainer, router fiber.Router) {
	scanSvcGetter := scanServiceGetter(appContainer)
	router.Post("/", setTransaction(appContainer.DB()), SubmitScan(scanSvcGetter))
	router.Get("/", ListScans(scanSvcGetter))
	router.Get("/:id", GetScan(scanSvcGetter))
	router.Get("/:id/findings", GetScanFindings(scanSvcGetter))
}

func registerScheduleAPI(appContainer app.AppContainer, router fiber.Router) {
	scheduleSvcGetter := scheduleServiceGetter(appContainer)
	router.Post("/", setTransaction(appContainer.DB()), CreateSchedule(scheduleSvcGetter))
	router.Get("/", ListSchedules(scheduleSvcGetter))
	router.Get("/:id", GetSchedule(scheduleSvcGetter))
	router.Put("/:id", setTransaction(appContainer.DB()), UpdateSchedule(scheduleSvcGetter))
	router.Delete("/:id", setTransaction(appContainer.DB()), DeleteSchedule(scheduleSvcGetter))

	router.Post("/:id/enable", setTransaction(appContainer.DB()), SetScheduleEnabled(scheduleSvcGetter, true))
	router.Post("/:id/disable", setTransaction(appContainer.DB()), SetScheduleEnabled(scheduleSvcGetter, false))
}

func registerEventsAPI(appContainer app.AppContainer, router fiber.Router) {
	router.Get("/ws", requireWebSocketUpgrade, ScanEvents(appContainer.EventHub()))
}
