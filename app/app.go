package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/config"
	"github.com/clearpath-sec/cloudscan/internal/credential"
	credentialPort "github.com/clearpath-sec/cloudscan/internal/credential/port"
	"github.com/clearpath-sec/cloudscan/internal/events"
	"github.com/clearpath-sec/cloudscan/internal/policy"
	policyPort "github.com/clearpath-sec/cloudscan/internal/policy/port"
	"github.com/clearpath-sec/cloudscan/internal/queue"
	queueDomain "github.com/clearpath-sec/cloudscan/internal/queue/domain"
	"github.com/clearpath-sec/cloudscan/internal/scan"
	scanPort "github.com/clearpath-sec/cloudscan/internal/scan/port"
	"github.com/clearpath-sec/cloudscan/internal/scanner"
	"github.com/clearpath-sec/cloudscan/internal/schedule"
	schedulePort "github.com/clearpath-sec/cloudscan/internal/schedule/port"
	"github.com/clearpath-sec/cloudscan/internal/user"
	userDomain "github.com/clearpath-sec/cloudscan/internal/user/domain"
	userPort "github.com/clearpath-sec/cloudscan/internal/user/port"
	"github.com/clearpath-sec/cloudscan/internal/worker"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/artifacts"
	"github.com/clearpath-sec/cloudscan/pkg/adapter/storage"
	appCtx "github.com/clearpath-sec/cloudscan/pkg/context"
	"github.com/clearpath-sec/cloudscan/pkg/logger"
	"github.com/clearpath-sec/cloudscan/pkg/mysql"
)

type app struct {
	db            *gorm.DB
	cfg           config.Config
	encryptionKey []byte

	userService       userPort.Service
	credentialService credentialPort.Service
	policyService     policyPort.Service
	scanService       scanPort.Service
	scheduleService   schedulePort.Service

	scannerRegistry  *scanner.Registry
	processor        *worker.Processor
	dispatcher       *queue.Dispatcher
	scheduleRegistry *schedule.Registry
	hub              *events.Hub
}

func (a *app) DB() *gorm.DB {
	return a.db
}

func (a *app) Config() config.Config {
	return a.cfg
}

func (a *app) EventHub() *events.Hub {
	return a.hub
}

func (a *app) userServiceWithDB(db *gorm.DB) userPort.Service {
	return user.NewUserService(storage.NewUserRepo(db))
}

func (a *app) UserService(ctx context.Context) userPort.Service {
	db := appCtx.GetDB(ctx)
	if db == nil {
		if a.userService == nil {
			a.userService = a.userServiceWithDB(a.db)
		}
		return a.userService
	}

	return a.userServiceWithDB(db)
}

func (a *app) credentialServiceWithDB(db *gorm.DB) credentialPort.Service {
	return credential.NewCredentialService(storage.NewCredentialRepo(db), a.encryptionKey)
}

func (a *app) CredentialService(ctx context.Context) credentialPort.Service {
	db := appCtx.GetDB(ctx)
	if db == nil {
		if a.credentialService == nil {
			a.credentialService = a.credentialServiceWithDB(a.db)
		}
		return a.credentialService
	}

	return a.credentialServiceWithDB(db)
}

func (a *app) policyServiceWithDB(db *gorm.DB) policyPort.Service {
	return policy.NewPolicyService(storage.NewPolicyRepo(db))
}

func (a *app) PolicyService(ctx context.Context) policyPort.Service {
	db := appCtx.GetDB(ctx)
	if db == nil {
		if a.policyService == nil {
			a.policyService = a.policyServiceWithDB(a.db)
		}
		return a.policyService
	}

	return a.policyServiceWithDB(db)
}

func (a *app) scanServiceWithDB(db *gorm.DB) scanPort.Service {
	return scan.NewScanService(
		storage.NewScanRepo(db),
		a.credentialServiceWithDB(db),
		a.policyServiceWithDB(db),
		a.dispatcher,
	)
}

func (a *app) ScanService(ctx context.Context) scanPort.Service {
	db := appCtx.GetDB(ctx)
	if db == nil {
		if a.scanService == nil {
			a.scanService = a.scanServiceWithDB(a.db)
		}
		return a.scanService
	}

	return a.scanServiceWithDB(db)
}

func (a *app) scheduleServiceWithDB(db *gorm.DB) schedulePort.Service {
	svc := schedule.NewScheduleService(
		storage.NewScheduleRepo(db),
		a.credentialServiceWithDB(db),
	)
	schedule.SetTrigger(svc, a.scheduleRegistry)
	return svc
}

func (a *app) ScheduleService(ctx context.Context) schedulePort.Service {
	db := appCtx.GetDB(ctx)
	if db == nil {
		if a.scheduleService == nil {
			a.scheduleService = a.scheduleServiceWithDB(a.db)
		}
		return a.scheduleService
	}

	return a.scheduleServiceWithDB(db)
}

func (a *app) setDB() error {
	db, err := mysql.NewMysqlConnection(mysql.DBConnOptions{
		Host:     a.cfg.DB.Host,
		Port:     a.cfg.DB.Port,
		Username: a.cfg.DB.Username,
		Password: a.cfg.DB.Password,
		Database: a.cfg.DB.Database,
	})
	if err != nil {
		return err
	}
	mysql.GormMigrations(db)
	mysql.SeedData(db, userDomain.HashPassword)
	a.db = db
	return nil
}

func NewApp(cfg config.Config) (AppContainer, error) {
	a := &app{
		cfg:           cfg,
		encryptionKey: []byte(cfg.Encryption.Key),
	}
	if err := a.setDB(); err != nil {
		return nil, err
	}

	a.hub = events.NewHub()

	// One adapter per supported scanner backend.
	a.scannerRegistry = scanner.NewRegistry(
		scanner.NewProwlerScanner(cfg.Scanner),
		scanner.NewCloudSploitScanner(cfg.Scanner),
		scanner.NewGCPSCCScanner(cfg.Scanner),
	)

	// The dispatcher and the scan service depend on each other: scans are
	// enqueued through the dispatcher, and dispatched jobs run through the
	// processor, which drives the scan service. The handler closure breaks
	// the cycle.
	a.dispatcher = queue.NewDispatcher(
		a.db,
		storage.NewQueueRepo(a.db),
		func(ctx context.Context, payload queueDomain.ScanJobPayload) error {
			return a.processor.Process(ctx, payload)
		},
		cfg.Queue,
	)

	a.userService = a.userServiceWithDB(a.db)
	a.credentialService = a.credentialServiceWithDB(a.db)
	a.policyService = a.policyServiceWithDB(a.db)
	a.scanService = a.scanServiceWithDB(a.db)

	var artifactStore worker.ArtifactStore
	if cfg.Artifacts.Enabled {
		store, err := artifacts.NewMinioStore(context.Background(), cfg.Artifacts)
		if err != nil {
			logger.Warn("artifact store unavailable, raw reports will not be archived: %v", err)
		} else {
			artifactStore = store
		}
	}

	a.processor = worker.NewProcessor(
		a.scanService,
		a.credentialService,
		a.policyService,
		a.scannerRegistry,
		a.hub,
		artifactStore,
		cfg.Scanner.OutputDir,
	)

	a.scheduleService = schedule.NewScheduleService(
		storage.NewScheduleRepo(a.db),
		a.credentialService,
	)
	a.scheduleRegistry = schedule.NewRegistry(a.db, a.scanService, a.scheduleService)
	schedule.SetTrigger(a.scheduleService, a.scheduleRegistry)

	return a, nil
}

func NewMustApp(cfg config.Config) AppContainer {
	a, err := NewApp(cfg)
	if err != nil {
		panic(err)
	}
	return a
}

// StartQueue brings up the event hub and the job dispatcher.
func (a *app) StartQueue() {
	a.hub.Start()
	a.dispatcher.Start()
}

// StopQueue drains in-flight jobs, then stops the hub.
func (a *app) StopQueue() {
	a.dispatcher.Stop()
	a.hub.Stop()
}

// StartScheduler loads enabled schedules and begins firing them.
func (a *app) StartScheduler() error {
	return a.scheduleRegistry.Start()
}

// StopScheduler halts the cron runner.
func (a *app) StopScheduler() {
	a.scheduleRegistry.Stop()
}
