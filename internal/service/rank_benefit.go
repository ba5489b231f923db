package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"zhongdao/internal/model"
	"zhongdao/internal/repository"
	"zhongdao/pkg/logger"
)

// RankBenefitService 等级权益服务，权益表变动极少，读取走Redis缓存
type RankBenefitService struct {
	benefitRepo repository.RankBenefitRepository
	redisClient *redis.Client
	logger      *logger.Logger
}

// NewRankBenefitService 创建等级权益服务实例
func NewRankBenefitService(benefitRepo repository.RankBenefitRepository, redisClient *redis.Client, logger *logger.Logger) *RankBenefitService {
	return &RankBenefitService{
		benefitRepo: benefitRepo,
		redisClient: redisClient,
		logger:      logger,
	}
}

// GetByRank 获取等级权益配置
func (s *RankBenefitService) GetByRank(ctx context.Context, rank model.Rank) (*repository.RankBenefit, error) {
	// 尝试从缓存获取
	cacheKey := fmt.Sprintf("rank_benefits:%d", rank)
	cachedData, err := s.redisClient.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var benefit repository.RankBenefit
		if err := json.Unmarshal(cachedData, &benefit); err == nil {
			return &benefit, nil
		}
	}

	// 缓存未命中，从数据库获取
	benefit, err := s.benefitRepo.GetByRank(ctx, rank)
	if err != nil {
		s.logger.Error("获取等级权益失败", "rank", int(rank), "error", err)
		return nil, err
	}

	// 将结果存入缓存
	if data, err := json.Marshal(benefit); err == nil {
		s.redisClient.Set(ctx, cacheKey, data, 5*time.Minute)
	}

	return benefit, nil
}

// List 获取所有等级权益配置
func (s *RankBenefitService) List(ctx context.Context) ([]*repository.RankBenefit, error) {
	return s.benefitRepo.List(ctx)
}

// InvalidateCache 使权益缓存失效
func (s *RankBenefitService) InvalidateCache(ctx context.Context) error {
	pattern := "rank_benefits:*"
	iter := s.redisClient.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Error("删除缓存失败", "key", iter.Val(), "error", err)
		}
	}
	return iter.Err()
}
