package services

import (
	"context"
	"errors"
	"strings"

	"task-points-market/models"
	"task-points-market/utils"

	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostTaskInput struct {
	OwnerID      int64            `json:"-"`
	Type         models.TaskType  `json:"task_type"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	ProofKind    models.ProofKind `json:"proof_kind"`
	TotalWorkers int              `json:"total_workers"`
	Reward       int64            `json:"reward"`
}

func (in PostTaskInput) validate() error {
	if !in.Type.Valid() {
		return invalidInput("task_type", "unknown task type")
	}
	if strings.TrimSpace(in.Title) == "" {
		return invalidInput("title", "is required")
	}
	if len(in.Title) > 200 {
		return invalidInput("title", "too long (max 200 characters)")
	}
	if !in.ProofKind.Valid() {
		return invalidInput("proof_kind", "must be text, photo or video")
	}
	if in.TotalWorkers <= 0 {
		return invalidInput("total_workers", "must be positive")
	}
	if in.Reward <= 0 {
		return invalidInput("reward", "must be positive")
	}
	return nil
}

// MarketplaceService posts and lists tasks. Posting escrows the full cost from the owner.
type MarketplaceService struct {
	DB  *gorm.DB
	log *logrus.Entry
}

func NewMarketplaceService(db *gorm.DB) *MarketplaceService {
	return &MarketplaceService{DB: db, log: utils.NewLogger("marketplace")}
}

// PostTask debits reward*total_workers from the owner and creates the task in the same transaction.
func (s *MarketplaceService) PostTask(ctx context.Context, in PostTaskInput) (*models.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := in.validate(); err != nil {
		return nil, err
	}
	cost, ok := mulChecked(int64(in.TotalWorkers), in.Reward)
	if !ok {
		return nil, invalidInput("reward", "total cost overflows")
	}

	task := models.Task{
		OwnerID:      in.OwnerID,
		TaskType:     in.Type,
		Title:        in.Title,
		Slug:         slug.Make(in.Title),
		Description:  in.Description,
		ProofKind:    in.ProofKind,
		TotalWorkers: in.TotalWorkers,
		Reward:       in.Reward,
	}
	err := inLedgerTx(ctx, s.DB, func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		_, err := applyDebit(tx, in.OwnerID, cost, models.EntryTaskEscrow, entryRef{Type: "task", ID: task.ID})
		return err
	})
	if err != nil {
		return nil, asCoreError("post task", err)
	}

	s.log.WithFields(logrus.Fields{
		"task_id":  task.ID,
		"owner_id": task.OwnerID,
		"cost":     cost,
	}).Info("task posted")
	return &task, nil
}

// ListActiveTasks returns visible tasks with open slots, oldest first.
func (s *MarketplaceService) ListActiveTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := s.DB.WithContext(ctx).
		Where("is_hidden = ? AND completed < total_workers", false).
		Order("id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, storageError("list tasks", err)
	}
	return tasks, nil
}

func (s *MarketplaceService) GetTask(ctx context.Context, id uint) (*models.Task, error) {
	task, err := getTask(s.DB.WithContext(ctx), id, false)
	if err != nil {
		return nil, asCoreError("get task", err)
	}
	return task, nil
}

// SetTaskHidden takes a task off (or back onto) the public list. Escrow stays where it is.
func (s *MarketplaceService) SetTaskHidden(ctx context.Context, id uint, hidden bool) (*models.Task, error) {
	var task *models.Task
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		task, err = getTask(tx, id, true)
		if err != nil {
			return err
		}
		if task.IsHidden == hidden {
			return nil
		}
		if err := tx.Model(task).Update("is_hidden", hidden).Error; err != nil {
			return err
		}
		task.IsHidden = hidden
		return nil
	})
	if err != nil {
		return nil, asCoreError("hide task", err)
	}

	s.log.WithFields(logrus.Fields{"task_id": id, "hidden": hidden}).Info("task visibility changed")
	return task, nil
}

func getTask(db *gorm.DB, id uint, lock bool) (*models.Task, error) {
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var task models.Task
	if err := db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("task", id)
		}
		return nil, err
	}
	return &task, nil
}
