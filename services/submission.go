package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"task-points-market/metrics"
	"task-points-market/models"
	"task-points-market/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Proof is what a worker sends for a task. Payload is free text for text proofs
// and a stored file reference for photo and video proofs.
type Proof struct {
	Kind    models.ProofKind `json:"kind"`
	Payload string           `json:"payload"`
}

type SubmissionService struct {
	DB    *gorm.DB
	Rules Rules
	log   *logrus.Entry
}

func NewSubmissionService(db *gorm.DB, rules Rules) *SubmissionService {
	return &SubmissionService{DB: db, Rules: rules, log: utils.NewLogger("submission")}
}

// acceptsProof reports whether a proof of the given shape satisfies a task.
// A video task also takes a text link that contains one of the video markers.
func (s *SubmissionService) acceptsProof(want models.ProofKind, p Proof) bool {
	if p.Kind == want {
		if want == models.ProofText {
			return true
		}
		return s.isFileRef(p.Payload)
	}
	if want == models.ProofVideo && p.Kind == models.ProofText {
		payload := strings.ToLower(p.Payload)
		for _, marker := range s.Rules.VideoLinkMarkers {
			if marker != "" && strings.Contains(payload, strings.ToLower(marker)) {
				return true
			}
		}
	}
	return false
}

// isFileRef reports whether a photo or video payload points at a stored file: a URL or
// path under the proof store, or a bare file id. Free text never qualifies.
func (s *SubmissionService) isFileRef(payload string) bool {
	if payload == "" || strings.IndexFunc(payload, unicode.IsSpace) >= 0 {
		return false
	}
	if !strings.ContainsAny(payload, "/:") {
		return true
	}
	if len(s.Rules.ProofRefPrefixes) == 0 {
		return strings.HasPrefix(payload, "/") || strings.Contains(payload, "://")
	}
	for _, prefix := range s.Rules.ProofRefPrefixes {
		if prefix != "" && strings.HasPrefix(payload, prefix) {
			return true
		}
	}
	return false
}

// SubmitProof records a pending submission. Balances are untouched until review.
func (s *SubmissionService) SubmitProof(ctx context.Context, taskID uint, workerID int64, p Proof) (*models.Submission, error) {
	p.Payload = strings.TrimSpace(p.Payload)

	var sub models.Submission
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := getAccount(tx, workerID); err != nil {
			return err
		}

		task, err := getTask(tx, taskID, false)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return newError(KindInvalidTask, "task", taskID, "unknown task")
			}
			return err
		}
		if !task.Active() {
			return newError(KindInvalidTask, "task", taskID, "hidden or full")
		}

		if p.Payload == "" || !p.Kind.Valid() || !s.acceptsProof(task.ProofKind, p) {
			return newError(KindInvalidProof, "task", taskID, "expected "+string(task.ProofKind))
		}

		sub = models.Submission{
			TaskID:    taskID,
			WorkerID:  workerID,
			Proof:     p.Payload,
			ProofKind: p.Kind,
			Status:    models.SubmissionPending,
		}
		return tx.Create(&sub).Error
	})
	if err != nil {
		return nil, asCoreError("submit proof", err)
	}

	s.log.WithFields(logrus.Fields{
		"submission_id": sub.ID,
		"task_id":       taskID,
		"worker_id":     workerID,
	}).Info("proof submitted")
	return &sub, nil
}

// ListByWorker returns a worker's submissions, newest first.
func (s *SubmissionService) ListByWorker(ctx context.Context, workerID int64) ([]models.Submission, error) {
	var subs []models.Submission
	if err := s.DB.WithContext(ctx).
		Where("worker_id = ?", workerID).
		Order("id DESC").
		Find(&subs).Error; err != nil {
		return nil, storageError("list submissions", err)
	}
	return subs, nil
}

func (s *SubmissionService) listPending(ctx context.Context) ([]models.Submission, error) {
	var subs []models.Submission
	if err := s.DB.WithContext(ctx).
		Where("status = ?", models.SubmissionPending).
		Order("id ASC").
		Find(&subs).Error; err != nil {
		return nil, storageError("pending submissions", err)
	}
	return subs, nil
}

// reviewSubmission settles a pending submission. Approval flips the status, takes a
// slot on the task and pays the worker in one transaction; if the task is already
// full the whole thing rolls back and the submission stays pending.
func (s *SubmissionService) reviewSubmission(ctx context.Context, adminID int64, id uint, approve bool) (*models.Submission, error) {
	var sub models.Submission
	var payout int64
	err := inLedgerTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sub, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("submission", id)
			}
			return err
		}
		if sub.Status != models.SubmissionPending {
			return newError(KindAlreadyProcessed, "submission", id, string(sub.Status))
		}

		next := models.SubmissionRejected
		if approve {
			next = models.SubmissionApproved
		}
		now := time.Now()
		res := tx.Model(&models.Submission{}).
			Where("id = ? AND status = ?", id, models.SubmissionPending).
			Updates(map[string]interface{}{
				"status":      next,
				"reviewed_by": adminID,
				"reviewed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(KindAlreadyProcessed, "submission", id, "")
		}
		sub.Status = next
		sub.ReviewedBy = &adminID
		sub.ReviewedAt = &now

		if !approve {
			return nil
		}

		task, err := getTask(tx, sub.TaskID, true)
		if err != nil {
			return err
		}
		res = tx.Model(&models.Task{}).
			Where("id = ? AND completed < total_workers", task.ID).
			Update("completed", gorm.Expr("completed + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return newError(KindTaskSaturated, "task", task.ID, "")
		}

		payout = s.Rules.Payout(task.Reward)
		if payout <= 0 {
			return nil
		}
		ref := entryRef{Type: "submission", ID: sub.ID}
		if _, err := applyCredit(tx, sub.WorkerID, payout, models.EntryTaskPayout, ref); err != nil {
			return err
		}
		return addEarnings(tx, sub.WorkerID, payout)
	})
	if err != nil {
		return nil, asCoreError("review submission", err)
	}

	metrics.RecordReview("submission", string(sub.Status))
	s.log.WithFields(logrus.Fields{
		"submission_id": id,
		"admin_id":      adminID,
		"status":        sub.Status,
		"payout":        payout,
	}).Info("submission reviewed")
	return &sub, nil
}
