package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/notify"
)

// PunchService 考勤服务
type PunchService struct {
	client *erp.Client
	hub    *notify.Hub
	logger *zap.Logger
}

// NewPunchService 创建考勤服务
func NewPunchService(client *erp.Client, hub *notify.Hub, logger *zap.Logger) *PunchService {
	return &PunchService{client: client, hub: hub, logger: logger}
}

// List 打卡列表
func (s *PunchService) List(ctx context.Context, token string, employeeID int, from, to time.Time) ([]erp.Punch, error) {
	return s.client.ListPunches(ctx, token, employeeID, from, to)
}

// Create 单条打卡
func (s *PunchService) Create(ctx context.Context, token, userID string, payload erp.PunchPayload) (*erp.Punch, error) {
	if payload.EmployeeID <= 0 {
		return nil, &ValidationError{Message: "Selecciona un empleado"}
	}
	if payload.Direction != "in" && payload.Direction != "out" {
		return nil, &ValidationError{Message: "El fichaje debe ser de entrada o de salida"}
	}

	punch, err := s.client.CreatePunch(ctx, token, payload)
	if s.hub != nil {
		if err != nil {
			s.hub.PublishMutationResult(userID, "punches", "create", false, displayMessage(err))
		} else {
			s.hub.PublishMutationResult(userID, "punches", "create", true, "")
		}
	}
	return punch, err
}

// BulkImport 批量导入打卡
// 部分失败不是单个异常：201返回逐行汇总；200回滚和422校验失败
// 以类型化错误返回，由处理器按Kind翻译
func (s *PunchService) BulkImport(ctx context.Context, token, userID string, payloads []erp.PunchPayload) (*erp.BulkPunchResult, error) {
	if len(payloads) == 0 {
		return nil, &ValidationError{Message: "No hay fichajes que importar"}
	}
	for _, p := range payloads {
		if p.EmployeeID <= 0 || p.Timestamp.IsZero() {
			return nil, &ValidationError{Message: "Hay filas de fichaje incompletas"}
		}
	}

	result, err := s.client.BulkCreatePunches(ctx, token, payloads)
	if s.hub != nil {
		if err != nil {
			s.hub.PublishMutationResult(userID, "punches", "bulk_import", false, displayMessage(err))
		} else {
			s.hub.PublishMutationResult(userID, "punches", "bulk_import", true, "")
		}
	}
	return result, err
}

// WorkerStats 工人统计
func (s *PunchService) WorkerStats(ctx context.Context, token string, from, to time.Time) ([]erp.WorkerStats, error) {
	return s.client.GetWorkerStats(ctx, token, from, to)
}
