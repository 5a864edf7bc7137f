package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/config"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/erp"
	"github.com/JoseLopezGonzalez/lapesquerapp-ops/internal/notify"
)

// AnalysisService 交货单PDF分析服务
// 上传的PDF先暂存到对象存储，提交给ERP分析端点后按固定间隔轮询。
// 轮询绑定请求context：浏览器断开即取消，且有尝试次数上限
type AnalysisService struct {
	client       *erp.Client
	minioClient  *minio.Client
	hub          *notify.Hub
	bucketName   string
	pollInterval time.Duration
	maxAttempts  int
	logger       *zap.Logger
}

// NewAnalysisService 创建分析服务
func NewAnalysisService(client *erp.Client, minioClient *minio.Client, hub *notify.Hub, cfg *config.Config, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{
		client:       client,
		minioClient:  minioClient,
		hub:          hub,
		bucketName:   cfg.MinIO.Bucket,
		pollInterval: cfg.Backend.PollInterval,
		maxAttempts:  cfg.Backend.PollMaxAttempts,
		logger:       logger,
	}
}

// AnalyzeDeliveryNote 分析交货单PDF并等待终态
func (s *AnalysisService) AnalyzeDeliveryNote(ctx context.Context, token, userID string, pdf io.Reader, size int64, filename string) (*erp.AnalysisResult, error) {
	if s.minioClient == nil {
		return nil, &ValidationError{Message: "El análisis de albaranes no está configurado"}
	}
	if size <= 0 {
		return nil, &ValidationError{Message: "El archivo PDF está vacío"}
	}

	objectKey := fmt.Sprintf("analysis/%s/%s-%s", time.Now().Format("2006-01-02"), uuid.New().String()[:8], filename)
	if _, err := s.minioClient.PutObject(ctx, s.bucketName, objectKey, pdf, size, minio.PutObjectOptions{
		ContentType: "application/pdf",
	}); err != nil {
		return nil, fmt.Errorf("stage pdf: %w", err)
	}

	op, err := s.client.SubmitAnalysis(ctx, token, objectKey)
	if err != nil {
		return nil, err
	}

	s.logger.Info("analysis submitted",
		zap.String("object", objectKey),
		zap.String("location", op.Location),
	)

	result, err := s.client.PollAnalysis(ctx, token, op.Location, s.pollInterval, s.maxAttempts)
	if err != nil {
		if s.hub != nil {
			s.hub.PublishAnalysisDone(userID, erp.AnalysisFailed, 0)
		}
		return nil, err
	}

	if s.hub != nil {
		s.hub.PublishAnalysisDone(userID, result.Status, len(result.Lines))
	}
	return result, nil
}
