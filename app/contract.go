package app

import (
	"context"

	"gorm.io/gorm"

	"github.com/clearpath-sec/cloudscan/config"
	CredentialPort "github.com/clearpath-sec/cloudscan/internal/credential/port"
	"github.com/clearpath-sec/cloudscan/internal/events"
	PolicyPort "github.com/clearpath-sec/cloudscan/internal/policy/port"
	ScanPort "github.com/clearpath-sec/cloudscan/internal/scan/port"
	SchedulePort "github.com/clearpath-sec/cloudscan/internal/schedule/port"
	UserPort "github.com/clearpath-sec/cloudscan/internal/user/port"
)

type AppContainer interface {
	UserService(ctx context.Context) UserPort.Service
	CredentialService(ctx context.Context) CredentialPort.Service
	PolicyService(ctx context.Context) PolicyPort.Service
	ScanService(ctx context.Context) ScanPort.Service
	ScheduleService(ctx context.Context) SchedulePort.Service

	EventHub() *events.Hub

	StartQueue()
	StopQueue()
	StartScheduler() error
	StopScheduler()

	Config() config.Config
	DB() *gorm.DB
}
