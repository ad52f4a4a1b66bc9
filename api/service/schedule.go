package service

import (
	"context"
	"time"

	scanDomain "github.com/clearpath-sec/cloudscan/internal/scan/domain"
	"github.com/clearpath-sec/cloudscan/internal/schedule"
	"github.com/clearpath-sec/cloudscan/internal/schedule/domain"
	schedulePort "github.com/clearpath-sec/cloudscan/internal/schedule/port"
)

var (
	ErrScheduleOnCreate     = schedule.ErrScheduleOnCreate
	ErrScheduleOnUpdate     = schedule.ErrScheduleOnUpdate
	ErrScheduleOnDelete     = schedule.ErrScheduleOnDelete
	ErrScheduleNotFound     = schedule.ErrScheduleNotFound
	ErrInvalidScheduleInput = schedule.ErrInvalidScheduleInput
	ErrInvalidCronExpr      = schedule.ErrInvalidCronExpr
)

type ScheduleRequest struct {
	Name         string `json:"name"`
	CredentialID int64  `json:"credentialId"`
	PolicyID     *int64 `json:"policyId,omitempty"`
	Tool         string `json:"tool"`
	Target       string `json:"target,omitempty"`
	CronExpr     string `json:"cronExpr"`
	IsEnabled    *bool  `json:"isEnabled,omitempty"`
}

type ScheduleResponse struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	CredentialID int64      `json:"credentialId"`
	PolicyID     *int64     `json:"policyId,omitempty"`
	Tool         string     `json:"tool"`
	Target       string     `json:"target,omitempty"`
	CronExpr     string     `json:"cronExpr"`
	IsEnabled    bool       `json:"isEnabled"`
	LastRunAt    *time.Time `json:"lastRunAt,omitempty"`
	NextRunAt    *time.Time `json:"nextRunAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

type ScheduleListResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
}

type ScheduleService struct {
	service schedulePort.Service
}

func NewScheduleService(srv schedulePort.Service) *ScheduleService {
	return &ScheduleService{service: srv}
}

func (s *ScheduleService) Create(ctx context.Context, userID string, req *ScheduleRequest) (*ScheduleResponse, error) {
	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}
	id, err := s.service.CreateSchedule(ctx, domain.ScheduledScan{
		UserID:       userID,
		Name:         req.Name,
		CredentialID: req.CredentialID,
		PolicyID:     req.PolicyID,
		Tool:         scanDomain.NormalizeTool(req.Tool),
		Target:       req.Target,
		CronExpr:     req.CronExpr,
		IsEnabled:    enabled,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.service.GetSchedule(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return scheduleToResponse(created), nil
}

func (s *ScheduleService) Get(ctx context.Context, scheduleID int64, userID string) (*ScheduleResponse, error) {
	sched, err := s.service.GetSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	return scheduleToResponse(sched), nil
}

func (s *ScheduleService) List(ctx context.Context, userID string, isEnabled *bool) (*ScheduleListResponse, error) {
	schedules, err := s.service.ListSchedules(ctx, domain.ScheduleFilter{
		UserID:    userID,
		IsEnabled: isEnabled,
	})
	if err != nil {
		return nil, err
	}

	resp := &ScheduleListResponse{Schedules: make([]ScheduleResponse, 0, len(schedules))}
	for i := range schedules {
		resp.Schedules = append(resp.Schedules, *scheduleToResponse(&schedules[i]))
	}
	return resp, nil
}

func (s *ScheduleService) Update(ctx context.Context, scheduleID int64, userID string, req *ScheduleRequest) (*ScheduleResponse, error) {
	enabled := true
	if req.IsEnabled != nil {
		enabled = *req.IsEnabled
	}
	err := s.service.UpdateSchedule(ctx, domain.ScheduledScan{
		ID:           scheduleID,
		UserID:       userID,
		Name:         req.Name,
		CredentialID: req.CredentialID,
		PolicyID:     req.PolicyID,
		Tool:         scanDomain.NormalizeTool(req.Tool),
		Target:       req.Target,
		CronExpr:     req.CronExpr,
		IsEnabled:    enabled,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.service.GetSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	return scheduleToResponse(updated), nil
}

func (s *ScheduleService) Delete(ctx context.Context, scheduleID int64, userID string) error {
	return s.service.DeleteSchedule(ctx, scheduleID, userID)
}

func (s *ScheduleService) SetEnabled(ctx context.Context, scheduleID int64, userID string, enabled bool) (*ScheduleResponse, error) {
	if err := s.service.SetScheduleEnabled(ctx, scheduleID, userID, enabled); err != nil {
		return nil, err
	}

	updated, err := s.service.GetSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	return scheduleToResponse(updated), nil
}

func scheduleToResponse(sched *domain.ScheduledScan) *ScheduleResponse {
	return &ScheduleResponse{
		ID:           sched.ID,
		Name:         sched.Name,
		CredentialID: sched.CredentialID,
		PolicyID:     sched.PolicyID,
		Tool:         string(sched.Tool),
		Target:       sched.Target,
		CronExpr:     sched.CronExpr,
		IsEnabled:    sched.IsEnabled,
		LastRunAt:    sched.LastRunAt,
		NextRunAt:    sched.NextRunAt,
		CreatedAt:    sched.CreatedAt,
	}
}
