package models

// TaskType is the category a poster picks for a task
type TaskType string

const (
	TaskTypeFacebookPage  TaskType = "Facebook Page Follow + Invite Friends"
	TaskTypeFacebookGroup TaskType = "Facebook Group Member Invite"
	TaskTypeYouTube       TaskType = "YouTube Subscribe"
)

// TaskTypes lists the categories offered to posters, in display order.
var TaskTypes = []TaskType{TaskTypeFacebookPage, TaskTypeFacebookGroup, TaskTypeYouTube}

func (t TaskType) Valid() bool {
	for _, known := range TaskTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ProofKind is what a worker has to send to prove a task was done
type ProofKind string

const (
	ProofText  ProofKind = "text"
	ProofPhoto ProofKind = "photo"
	ProofVideo ProofKind = "video"
)

func (k ProofKind) Valid() bool {
	switch k {
	case ProofText, ProofPhoto, ProofVideo:
		return true
	}
	return false
}

// Task is a funded job. Reward*TotalWorkers was escrowed from the owner when it was posted.
type Task struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OwnerID      int64     `gorm:"index;not null" json:"owner_id"`
	TaskType     TaskType  `gorm:"type:varchar(64);not null" json:"task_type"`
	Title        string    `gorm:"not null" json:"title"`
	Slug         string    `gorm:"index" json:"slug"`
	Description  string    `gorm:"type:text" json:"description"`
	ProofKind    ProofKind `gorm:"type:varchar(16);not null" json:"proof_kind"`
	TotalWorkers int       `gorm:"not null" json:"total_workers"`
	Completed    int       `gorm:"not null;default:0" json:"completed"`
	Reward       int64     `gorm:"not null" json:"reward"`
	IsHidden     bool      `gorm:"not null;default:false;index" json:"is_hidden"`

	Timestamps
}

// Active reports whether workers can still submit proof for the task.
func (t *Task) Active() bool {
	return !t.IsHidden && t.Completed < t.TotalWorkers
}

// RemainingSlots is the number of approvals the task can still take.
func (t *Task) RemainingSlots() int {
	if t.Completed >= t.TotalWorkers {
		return 0
	}
	return t.TotalWorkers - t.Completed
}
