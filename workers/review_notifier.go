package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"task-points-market/models"
	"task-points-market/utils"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewNotice tells the chat gateway that something is waiting on an admin.
// Commands are the admin commands that settle it.
type ReviewNotice struct {
	Kind      string    `json:"kind"` // submission | recharge | withdrawal
	ID        uint      `json:"id"`
	UserID    int64     `json:"user_id"`
	Summary   string    `json:"summary"`
	Commands  []string  `json:"commands"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewNotifier pushes newly created pending items to the gateway's notify endpoint.
type ReviewNotifier struct {
	URL        string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
	log        *logrus.Entry
}

func NewReviewNotifier(db *gorm.DB, url, token string) *ReviewNotifier {
	return &ReviewNotifier{
		URL:   url,
		Token: token,
		DB:    db,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: utils.NewLogger("review_notifier"),
	}
}

// CollectPending returns items still pending that were created in (since, until], oldest first.
func (n *ReviewNotifier) CollectPending(ctx context.Context, since, until time.Time) ([]ReviewNotice, error) {
	db := n.DB.WithContext(ctx)
	window := "created_at > ? AND created_at <= ?"
	var notices []ReviewNotice

	var subs []models.Submission
	if err := db.Where("status = ?", models.SubmissionPending).
		Where(window, since, until).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to load submissions: %w", err)
	}
	for _, s := range subs {
		notices = append(notices, ReviewNotice{
			Kind:      "submission",
			ID:        s.ID,
			UserID:    s.WorkerID,
			Summary:   fmt.Sprintf("task #%d: %s proof %s", s.TaskID, s.ProofKind, s.Proof),
			Commands:  []string{fmt.Sprintf("/approve_%d", s.ID), fmt.Sprintf("/reject_%d", s.ID)},
			CreatedAt: s.CreatedAt,
		})
	}

	var recharges []models.RechargeRequest
	if err := db.Where("verified = ?", false).
		Where(window, since, until).Find(&recharges).Error; err != nil {
		return nil, fmt.Errorf("failed to load recharges: %w", err)
	}
	for _, r := range recharges {
		notices = append(notices, ReviewNotice{
			Kind:      "recharge",
			ID:        r.ID,
			UserID:    r.UserID,
			Summary:   fmt.Sprintf("%d via %s, trx %s", r.Amount, r.Method, r.TrxID),
			Commands:  []string{fmt.Sprintf("/approve_recharge_%d", r.ID)},
			CreatedAt: r.CreatedAt,
		})
	}

	var withdrawals []models.WithdrawalRequest
	if err := db.Where("verified = ?", false).
		Where(window, since, until).Find(&withdrawals).Error; err != nil {
		return nil, fmt.Errorf("failed to load withdrawals: %w", err)
	}
	for _, w := range withdrawals {
		notices = append(notices, ReviewNotice{
			Kind:      "withdrawal",
			ID:        w.ID,
			UserID:    w.UserID,
			Summary:   fmt.Sprintf("%d via %s to %s", w.Amount, w.Method, w.Number),
			Commands:  []string{fmt.Sprintf("/approve_withdraw_%d", w.ID)},
			CreatedAt: w.CreatedAt,
		})
	}

	sort.SliceStable(notices, func(i, j int) bool {
		return notices[i].CreatedAt.Before(notices[j].CreatedAt)
	})
	return notices, nil
}

// Send posts one batch to the gateway.
func (n *ReviewNotifier) Send(ctx context.Context, notices []ReviewNotice) error {
	body, err := json.Marshal(map[string]interface{}{"notices": notices})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", n.Token)

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call notify endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notify endpoint returned status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}

// Tick runs one poll over (since, now] and returns the cursor for the next one.
// The cursor only moves when the batch was delivered, so a failed window is retried.
func (n *ReviewNotifier) Tick(ctx context.Context, since time.Time) (time.Time, int, error) {
	now := time.Now()
	notices, err := n.CollectPending(ctx, since, now)
	if err != nil {
		return since, 0, err
	}
	if len(notices) == 0 {
		return now, 0, nil
	}
	if err := n.Send(ctx, notices); err != nil {
		return since, 0, err
	}
	return now, len(notices), nil
}

// PollPendingReviews notifies the gateway about new pending items every interval until ctx is done.
func PollPendingReviews(ctx context.Context, n *ReviewNotifier, pollInterval time.Duration) {
	n.log.Info("Starting review notifications...")
	cursor := time.Now()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.log.Info("Review notifications stopped.")
			return
		case <-ticker.C:
			next, sent, err := n.Tick(ctx, cursor)
			if err != nil {
				n.log.WithError(err).Error("❌ review notification failed, retrying window")
				continue
			}
			if sent > 0 {
				n.log.WithField("count", sent).Info("📤 pending reviews announced")
			}
			cursor = next
		}
	}
}
