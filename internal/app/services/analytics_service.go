package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/campusmesh/internal/app/auth"
	"github.com/yigit/campusmesh/internal/app/models"
	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/app/repositories"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
	"github.com/yigit/campusmesh/internal/pkg/helpers"
)

const topActionsLimit = 10

// AnalyticsService defines the interface for activity tracking and reporting
type AnalyticsService interface {
	TrackActivity(ctx context.Context, caller auth.Caller, req *dto.TrackActivityRequest, userAgent, ipAddress string) (*models.UserActivity, error)
	GenerateReport(ctx context.Context, caller auth.Caller, req *dto.GenerateReportRequest) (*dto.Report, error)
}

// analyticsServiceImpl implements AnalyticsService
type analyticsServiceImpl struct {
	activityRepo repositories.ActivityRepository
	noticeRepo   repositories.NoticeRepository
	messageRepo  repositories.MessageRepository
	logger       zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	activityRepo repositories.ActivityRepository,
	noticeRepo repositories.NoticeRepository,
	messageRepo repositories.MessageRepository,
	logger zerolog.Logger,
) AnalyticsService {
	return &analyticsServiceImpl{
		activityRepo: activityRepo,
		noticeRepo:   noticeRepo,
		messageRepo:  messageRepo,
		logger:       logger,
	}
}

// TrackActivity records an action performed by the caller
func (s *analyticsServiceImpl) TrackActivity(ctx context.Context, caller auth.Caller, req *dto.TrackActivityRequest, userAgent, ipAddress string) (*models.UserActivity, error) {
	if err := auth.Require(caller, auth.ActionTrackActivity, auth.OwnedBy(caller.ID)); err != nil {
		return nil, err
	}

	action := strings.TrimSpace(req.Action)
	if action == "" {
		return nil, apperrors.NewBadRequestError("action is required")
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = models.JSONMap{}
	}

	activity := &models.UserActivity{
		ID:       uuid.New().String(),
		UserID:   caller.ID,
		Action:   action,
		Metadata: metadata,
	}
	if userAgent != "" {
		activity.UserAgent = &userAgent
	}
	if ipAddress != "" {
		activity.IPAddress = &ipAddress
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, internalError("tracking activity", err)
	}
	return activity, nil
}

// GenerateReport aggregates one report type over an inclusive time range
func (s *analyticsServiceImpl) GenerateReport(ctx context.Context, caller auth.Caller, req *dto.GenerateReportRequest) (*dto.Report, error) {
	if err := auth.Require(caller, auth.ActionGenerateAnalyticsReport, nil); err != nil {
		return nil, err
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, apperrors.NewBadRequestError("startDate and endDate are required")
	}
	if req.StartDate.After(req.EndDate) {
		return nil, apperrors.NewBadRequestError("startDate must not be after endDate")
	}

	window := models.TimeRange{Start: req.StartDate, End: req.EndDate}

	var data interface{}
	switch req.ReportType {
	case dto.ReportUserActivity:
		activities, err := s.activityRepo.ListCreatedBetween(ctx, window)
		if err != nil {
			return nil, internalError("loading activities", err)
		}
		data = aggregateUserActivity(activities)
	case dto.ReportNotices:
		notices, err := s.noticeRepo.ListCreatedBetween(ctx, window)
		if err != nil {
			return nil, internalError("loading notices", err)
		}
		data = aggregateNotices(notices)
	case dto.ReportMessages:
		messages, err := s.messageRepo.ListCreatedBetween(ctx, window)
		if err != nil {
			return nil, internalError("loading messages", err)
		}
		data = aggregateMessages(messages)
	default:
		return nil, apperrors.NewBadRequestError("invalid report type")
	}

	s.logger.Info().
		Str("reportType", req.ReportType).
		Time("start", req.StartDate).
		Time("end", req.EndDate).
		Str("requestedBy", caller.ID).
		Msg("Analytics report generated")

	return &dto.Report{
		ReportType:  req.ReportType,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		GeneratedAt: time.Now().UTC(),
		Data:        data,
	}, nil
}

// aggregateUserActivity expects rows in createdAt order; equal counts keep the
// order in which the action was first seen.
func aggregateUserActivity(activities []*models.UserActivity) dto.UserActivityReport {
	report := dto.UserActivityReport{
		TotalActivities: len(activities),
		TopActions:      []dto.ActionCount{},
		DailyBreakdown:  map[string]int{},
	}

	users := make(map[string]struct{})
	counts := make(map[string]int)
	var order []string
	for _, a := range activities {
		users[a.UserID] = struct{}{}
		if _, seen := counts[a.Action]; !seen {
			order = append(order, a.Action)
		}
		counts[a.Action]++
		report.DailyBreakdown[helpers.DayKey(a.CreatedAt)]++
	}
	report.UniqueUsers = len(users)

	ranked := make([]dto.ActionCount, 0, len(order))
	for _, action := range order {
		ranked = append(ranked, dto.ActionCount{Action: action, Count: counts[action]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if len(ranked) > topActionsLimit {
		ranked = ranked[:topActionsLimit]
	}
	report.TopActions = ranked
	return report
}

func aggregateNotices(notices []*models.Notice) dto.NoticesReport {
	report := dto.NoticesReport{
		TotalNotices: len(notices),
		ByType:       map[string]int{},
		ByAuthor:     map[string]int{},
	}
	for _, n := range notices {
		if n.IsActive {
			report.ActiveNotices++
		}
		report.ByType[string(n.Type)]++
		report.ByAuthor[n.AuthorID]++
	}
	return report
}

func aggregateMessages(messages []*models.Message) dto.MessagesReport {
	report := dto.MessagesReport{
		TotalMessages: len(messages),
		ByType:        map[string]int{},
	}
	for _, m := range messages {
		if m.IsRead {
			report.ReadMessages++
		}
		report.ByType[string(m.Type)]++
	}
	return report
}
