package analytics

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/plms/lab-api/internal/model"
	"github.com/plms/lab-api/internal/repository"
	apperrors "github.com/plms/lab-api/pkg/errors"
)

const dashboardCacheKey = "dashboard"

// statusColors are the chart colors the dashboard uses per order status.
var statusColors = map[model.OrderStatus]string{
	model.StatusSamplePending:    "#f59e0b",
	model.StatusSampleProcessing: "#3b82f6",
	model.StatusReportProcessing: "#8b5cf6",
	model.StatusVerified:         "#10b981",
}

type Service struct {
	repo      repository.AnalyticsRepository
	orderRepo repository.OrderRepository
	cache     *cache.Cache
}

func NewService(repo repository.AnalyticsRepository, orderRepo repository.OrderRepository) *Service {
	return &Service{
		repo:      repo,
		orderRepo: orderRepo,
		cache:     cache.New(30*time.Second, time.Minute),
	}
}

// Dashboard assembles the landing-page aggregates. The result is cached
// briefly since the page polls and the queries touch every order.
func (s *Service) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	if cached, ok := s.cache.Get(dashboardCacheKey); ok {
		return cached.(*model.Dashboard), nil
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := today.AddDate(0, 0, -7)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totalPatients, err := s.repo.CountPatients(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	totalOrders, err := s.repo.CountOrders(ctx, nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	todayOrders, err := s.repo.CountOrders(ctx, &today)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	weekOrders, err := s.repo.CountOrders(ctx, &weekAgo)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	monthOrders, err := s.repo.CountOrders(ctx, &monthStart)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	totalRevenue, err := s.repo.Revenue(ctx, nil)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	monthRevenue, err := s.repo.Revenue(ctx, &monthStart)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	distribution := make([]model.StatusCount, 0, len(model.OrderStatuses))
	for _, status := range model.OrderStatuses {
		count, err := s.repo.CountOrdersByStatus(ctx, status)
		if err != nil {
			return nil, apperrors.Internal(err)
		}
		distribution = append(distribution, model.StatusCount{
			Status: string(status),
			Count:  count,
			Color:  statusColors[status],
		})
	}

	dailyOrders, err := s.repo.DailyOrderCounts(ctx, 7)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	topTests, err := s.repo.TopTests(ctx, 5)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	recentParams := &model.OrderListParams{}
	recentParams.Page = 1
	recentParams.Limit = 10
	recentOrders, _, err := s.orderRepo.List(ctx, recentParams)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if recentOrders == nil {
		recentOrders = []*model.Order{}
	}

	dashboard := &model.Dashboard{
		Summary: model.DashboardSummary{
			TotalPatients: totalPatients,
			TotalOrders:   totalOrders,
			TodayOrders:   todayOrders,
			WeekOrders:    weekOrders,
			MonthOrders:   monthOrders,
			TotalRevenue:  totalRevenue,
			MonthRevenue:  monthRevenue,
		},
		StatusDistribution: distribution,
		DailyOrders:        dailyOrders,
		TopTests:           topTests,
		RecentOrders:       recentOrders,
	}
	s.cache.SetDefault(dashboardCacheKey, dashboard)
	return dashboard, nil
}

// Revenue returns daily verified-order revenue for the given period:
// "week", "month" (default), or "year".
func (s *Service) Revenue(ctx context.Context, period string) ([]model.RevenuePoint, error) {
	now := time.Now()
	var since time.Time
	switch period {
	case "week":
		since = now.AddDate(0, 0, -7)
	case "", "month":
		since = now.AddDate(0, -1, 0)
	case "year":
		since = now.AddDate(-1, 0, 0)
	default:
		return nil, apperrors.Validation("Invalid period")
	}

	points, err := s.repo.RevenueByDay(ctx, since)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if points == nil {
		points = []model.RevenuePoint{}
	}
	return points, nil
}
