package services

import (
	"context"

	"task-points-market/models"
	"task-points-market/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Workflows are the services the admin surface drives.
type Workflows struct {
	Submissions *SubmissionService
	Recharges   *RechargeService
	Withdrawals *WithdrawalService
	Tasks       *MarketplaceService
	Audit       *AuditService
}

// ReviewService is the admin-only surface over every approval workflow.
// Each method checks the caller against the allow-list before touching state.
type ReviewService struct {
	DB *gorm.DB
	Workflows

	admins map[int64]struct{}
	log    *logrus.Entry
}

func NewReviewService(db *gorm.DB, admins []int64, wf Workflows) *ReviewService {
	set := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		set[id] = struct{}{}
	}
	return &ReviewService{
		DB:        db,
		Workflows: wf,
		admins:    set,
		log:       utils.NewLogger("review"),
	}
}

func (s *ReviewService) IsAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

func (s *ReviewService) authorize(callerID int64, action string) error {
	if s.IsAdmin(callerID) {
		return nil
	}
	s.log.WithFields(logrus.Fields{"caller_id": callerID, "action": action}).Warn("non-admin review attempt")
	return newError(KindUnauthorized, "admin", callerID, action)
}

func (s *ReviewService) PendingSubmissions(ctx context.Context, callerID int64) ([]models.Submission, error) {
	if err := s.authorize(callerID, "pending submissions"); err != nil {
		return nil, err
	}
	return s.Submissions.listPending(ctx)
}

func (s *ReviewService) PendingRecharges(ctx context.Context, callerID int64) ([]models.RechargeRequest, error) {
	if err := s.authorize(callerID, "pending recharges"); err != nil {
		return nil, err
	}
	return s.Recharges.listPending(ctx)
}

func (s *ReviewService) PendingWithdrawals(ctx context.Context, callerID int64) ([]models.WithdrawalRequest, error) {
	if err := s.authorize(callerID, "pending withdrawals"); err != nil {
		return nil, err
	}
	return s.Withdrawals.listPending(ctx)
}

func (s *ReviewService) ReviewSubmission(ctx context.Context, callerID int64, id uint, approve bool) (*models.Submission, error) {
	if err := s.authorize(callerID, "review submission"); err != nil {
		return nil, err
	}
	return s.Submissions.reviewSubmission(ctx, callerID, id, approve)
}

func (s *ReviewService) VerifyRecharge(ctx context.Context, callerID int64, id uint) (*models.RechargeRequest, error) {
	if err := s.authorize(callerID, "verify recharge"); err != nil {
		return nil, err
	}
	return s.Recharges.verifyRecharge(ctx, callerID, id)
}

func (s *ReviewService) VerifyWithdrawal(ctx context.Context, callerID int64, id uint) (*models.WithdrawalRequest, error) {
	if err := s.authorize(callerID, "verify withdrawal"); err != nil {
		return nil, err
	}
	return s.Withdrawals.verifyWithdrawal(ctx, callerID, id)
}

// HideTask pulls a task from the public list without refunding its escrow.
func (s *ReviewService) HideTask(ctx context.Context, callerID int64, taskID uint, hidden bool) (*models.Task, error) {
	if err := s.authorize(callerID, "hide task"); err != nil {
		return nil, err
	}
	return s.Tasks.SetTaskHidden(ctx, taskID, hidden)
}

// RunAudit runs the ledger audit on demand.
func (s *ReviewService) RunAudit(ctx context.Context, callerID int64) (*AuditReport, error) {
	if err := s.authorize(callerID, "audit"); err != nil {
		return nil, err
	}
	return s.Audit.Run(ctx)
}

// Dashboard is the admin panel summary.
type Dashboard struct {
	Users               int64 `json:"users"`
	ActiveTasks         int64 `json:"active_tasks"`
	PendingSubmissions  int64 `json:"pending_submissions"`
	PendingRecharges    int64 `json:"pending_recharges"`
	PendingWithdrawals  int64 `json:"pending_withdrawals"`
	PointsInCirculation int64 `json:"points_in_circulation"`
}

func (s *ReviewService) Dashboard(ctx context.Context, callerID int64) (*Dashboard, error) {
	if err := s.authorize(callerID, "dashboard"); err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var d Dashboard
	counts := []struct {
		model interface{}
		where string
		args  []interface{}
		dst   *int64
	}{
		{&models.Account{}, "", nil, &d.Users},
		{&models.Task{}, "is_hidden = ? AND completed < total_workers", []interface{}{false}, &d.ActiveTasks},
		{&models.Submission{}, "status = ?", []interface{}{models.SubmissionPending}, &d.PendingSubmissions},
		{&models.RechargeRequest{}, "verified = ?", []interface{}{false}, &d.PendingRecharges},
		{&models.WithdrawalRequest{}, "verified = ?", []interface{}{false}, &d.PendingWithdrawals},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, storageError("dashboard", err)
		}
	}
	if err := db.Model(&models.Account{}).
		Select("COALESCE(SUM(points), 0)").
		Scan(&d.PointsInCirculation).Error; err != nil {
		return nil, storageError("dashboard", err)
	}
	return &d, nil
}
