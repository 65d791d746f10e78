package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Endry199/jpstore/apperrors"
	"github.com/Endry199/jpstore/models"
	awspkg "github.com/Endry199/jpstore/pkg/aws"
	"github.com/Endry199/jpstore/repository"
)

type ProductService interface {
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
}

type productService struct {
	repo    repository.ProductRepository
	cache   *redis.Client
	ttl     time.Duration
	metrics *awspkg.MetricsClient
	logger  *zap.Logger
}

// NewProductService serves catalog reads, through Redis when cache is non-nil.
// A nil repo means the store is not configured.
func NewProductService(repo repository.ProductRepository, cache *redis.Client, ttl time.Duration, metrics *awspkg.MetricsClient, logger *zap.Logger) ProductService {
	return &productService{repo: repo, cache: cache, ttl: ttl, metrics: metrics, logger: logger}
}

func productCacheKey(slug string) string {
	return "product:slug:" + slug
}

func (s *productService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	if p := s.fromCache(ctx, slug); p != nil {
		return p, nil
	}
	if s.repo == nil {
		return nil, apperrors.Configuration(errors.New("product store not configured"))
	}

	p, err := s.repo.FindBySlug(ctx, slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Product not found.")
	}
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, slug, p)
	return p, nil
}

func (s *productService) fromCache(ctx context.Context, slug string) *models.Product {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, productCacheKey(slug)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("product cache read failed", zap.String("slug", slug), zap.Error(err))
		}
		s.record(ctx, awspkg.MetricCacheMisses)
		return nil
	}

	var p models.Product
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("product cache entry corrupt", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	s.record(ctx, awspkg.MetricCacheHits)
	return &p
}

func (s *productService) toCache(ctx context.Context, slug string, p *models.Product) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, productCacheKey(slug), data, s.ttl).Err(); err != nil {
		s.logger.Warn("product cache write failed", zap.String("slug", slug), zap.Error(err))
	}
}

func (s *productService) record(ctx context.Context, metric string) {
	if s.metrics.IsEnabled() {
		_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Cache": "product"})
	}
}
