package http

import (
	"context"

	"github.com/clearpath-sec/cloudscan/api/service"
	"github.com/clearpath-sec/cloudscan/app"
	"github.com/clearpath-sec/cloudscan/config"
)

// user service transient instance handler
func userServiceGetter(appContainer app.AppContainer, cfg config.ServerConfig) ServiceGetter[*service.UserService] {
	return func(ctx context.Context) *service.UserService {
		return service.NewUserService(appContainer.UserService(ctx), cfg.Secret, cfg.AuthExpMinute, cfg.AuthRefreshMinute)
	}
}

// credential service transient instance handler
func credentialServiceGetter(appContainer app.AppContainer) ServiceGetter[*service.CredentialService] {
	return func(ctx context.Context) *service.CredentialService {
		return service.NewCredentialService(appContainer.CredentialService(ctx))
	}
}

// policy service transient instance handler
func policyServiceGetter(appContainer app.AppContainer) ServiceGetter[*service.PolicyService] {
	return func(ctx context.Context) *service.PolicyService {
		return service.NewPolicyService(appContainer.PolicyService(ctx))
	}
}

// scan service transient instance handler
func scanServiceGetter(appContainer app.AppContainer) ServiceGetter[*service.ScanService] {
	return func(ctx context.Context) *service.ScanService {
		return service.NewScanService(appContainer.ScanService(ctx))
	}
}

// schedule service transient instance handler
func scheduleServiceGetter(appContainer app.AppContainer) ServiceGetter[*service.ScheduleService] {
	return func(ctx context.Context) *service.ScheduleService {
		return service.NewScheduleService(appContainer.ScheduleService(ctx))
	}
}
