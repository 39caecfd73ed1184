package service

import (
	"context"
	"time"

	"panjar/internal/model"
	"panjar/internal/repository"
	"panjar/internal/workflow"

	"github.com/shopspring/decimal"
)

const topBudgetItems = 5

// StatisticsFilter is the dashboard query. Dates are YYYY-MM-DD and inclusive;
// an empty StartDate means the first day of the current month, an empty EndDate today.
type StatisticsFilter struct {
	UnitID    string
	StartDate string
	EndDate   string
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, filter StatisticsFilter, actor Actor) (model.PanjarStatistics, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
	now  func() time.Time
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo, now: time.Now}
}

// GetStatistics summarises requests by status and ranks budget items. Actors
// below the principal only ever see their own unit.
func (s *statisticsService) GetStatistics(ctx context.Context, filter StatisticsFilter, actor Actor) (model.PanjarStatistics, error) {
	var res model.PanjarStatistics

	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var err error
	if filter.StartDate != "" {
		if start, err = time.Parse(dateLayout, filter.StartDate); err != nil {
			return res, invalidf("invalid start_date, expected YYYY-MM-DD")
		}
	}
	if filter.EndDate != "" {
		if end, err = time.Parse(dateLayout, filter.EndDate); err != nil {
			return res, invalidf("invalid end_date, expected YYYY-MM-DD")
		}
	}
	if end.Before(start) {
		return res, invalidf("end_date is before start_date")
	}

	repoFilter := repository.StatisticsFilter{Start: start, End: end.Add(24*time.Hour - time.Second)}
	if filter.UnitID != "" {
		unitID, err := parseID(filter.UnitID, "unit_id")
		if err != nil {
			return res, err
		}
		repoFilter.UnitID = &unitID
	}
	if !actor.IsAdmin() && !actor.Roles.Has(workflow.RoleApprover) {
		if actor.UnitID == nil {
			return res, ErrForbidden
		}
		repoFilter.UnitID = actor.UnitID
	}

	rows, err := s.repo.SummaryByStatus(ctx, repoFilter)
	if err != nil {
		return res, err
	}
	byStatus := make(map[string]model.StatusSummary, len(rows))
	for _, r := range rows {
		byStatus[r.Status] = r
	}

	total := decimal.Zero
	for _, st := range workflow.AllStatuses {
		row, ok := byStatus[string(st)]
		if !ok {
			row = model.StatusSummary{Status: string(st), Amount: "0"}
		}
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			amount = decimal.Zero
		}
		row.Amount = amount.StringFixed(2)

		res.ByStatus = append(res.ByStatus, row)
		res.TotalRequests += row.Count
		total = total.Add(amount)
		if st == workflow.StatusApproved {
			res.ApprovedAmount = row.Amount
		}
	}
	res.TotalAmount = total.StringFixed(2)

	top, err := s.repo.TopBudgetItems(ctx, repoFilter, topBudgetItems)
	if err != nil {
		return res, err
	}
	for i := range top {
		if d, err := decimal.NewFromString(top[i].TotalAmount); err == nil {
			top[i].TotalAmount = d.StringFixed(2)
		}
	}
	res.TopBudgetItems = top

	if repoFilter.UnitID != nil {
		id := repoFilter.UnitID.String()
		res.UnitID = &id
	}
	res.StartDate = start.Format(dateLayout)
	res.EndDate = end.Format(dateLayout)
	return res, nil
}
