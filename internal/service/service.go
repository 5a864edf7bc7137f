package service

import (
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/config"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/notify"
)

// Services 服务集合
type Services struct {
	Production *ProductionService
	Order      *OrderService
	Punch      *PunchService
	Export     *ExportService
	Analysis   *AnalysisService
}

// NewServices 创建服务集合
// rdb可为nil（此时资源仓退回进程内共享缓存），minioClient可为nil（导出不归档）
func NewServices(
	client *erp.Client,
	rdb *redis.Client,
	minioClient *minio.Client,
	hub *notify.Hub,
	cfg *config.Config,
	logger *zap.Logger,
) *Services {
	production := NewProductionService(client, rdb, hub, cfg, logger)
	order := NewOrderService(client, rdb, hub, cfg, logger)
	export := NewExportService(client, minioClient, cfg.MinIO.Bucket, logger)

	return &Services{
		Production: production,
		Order:      order,
		Punch:      NewPunchService(client, hub, logger),
		Export:     export,
		Analysis:   NewAnalysisService(client, minioClient, hub, cfg, logger),
	}
}

// ValidationError 本地校验错误，不触网，同步上报
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidation 是否为本地校验错误
func IsValidation(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}
