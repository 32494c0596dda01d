package services

import (
	"context"
	"sync"
	"testing"

	"task-points-market/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitProofMatching(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.fund(t, 1, 10000)
	env.register(t, 2, nil)

	textTask := env.postTask(t, 1, models.ProofText, 5, 10)
	photoTask := env.postTask(t, 1, models.ProofPhoto, 5, 10)
	videoTask := env.postTask(t, 1, models.ProofVideo, 5, 10)

	cases := []struct {
		name  string
		task  uint
		proof Proof
		kind  Kind
	}{
		{"text ok", textTask.ID, Proof{models.ProofText, "done, my handle is @rahim"}, ""},
		{"photo ok", photoTask.ID, Proof{models.ProofPhoto, "https://cdn.example/proofs/1.jpg"}, ""},
		{"video file ok", videoTask.ID, Proof{models.ProofVideo, "https://cdn.example/proofs/1.mp4"}, ""},
		{"video link ok", videoTask.ID, Proof{models.ProofText, "https://youtu.be/abc123"}, ""},
		{"video link upper case", videoTask.ID, Proof{models.ProofText, "https://www.YOUTUBE.com/watch?v=x"}, ""},
		{"text for photo", photoTask.ID, Proof{models.ProofText, "trust me"}, KindInvalidProof},
		{"plain text for video", videoTask.ID, Proof{models.ProofText, "I watched it"}, KindInvalidProof},
		{"photo kind with free-text payload", photoTask.ID, Proof{models.ProofPhoto, "trust me, I did it"}, KindInvalidProof},
		{"video kind with free-text payload", videoTask.ID, Proof{models.ProofVideo, "I watched it"}, KindInvalidProof},
		{"photo file id", photoTask.ID, Proof{models.ProofPhoto, "AgACAgUAAxkBAAIB"}, ""},
		{"photo for text", textTask.ID, Proof{models.ProofPhoto, "https://cdn.example/x.jpg"}, KindInvalidProof},
		{"empty payload", textTask.ID, Proof{models.ProofText, "   "}, KindInvalidProof},
		{"unknown task", 999, Proof{models.ProofText, "hi"}, KindInvalidTask},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub, err := env.Submissions.SubmitProof(ctx, tc.task, 2, tc.proof)
			if tc.kind == "" {
				require.NoError(t, err)
				assert.Equal(t, models.SubmissionPending, sub.Status)
				return
			}
			assert.Equal(t, tc.kind, KindOf(err))
		})
	}

	assert.Equal(t, int64(200), env.points(t, 2), "submitting never moves points")
}

func TestSubmitProofRequiresStoreReference(t *testing.T) {
	rules := DefaultRules()
	rules.ProofRefPrefixes = []string{"https://cdn.tasks.test/"}
	env := newTestEnv(t, rules)
	ctx := context.Background()
	env.fund(t, 1, 1000)
	env.register(t, 2, nil)
	photoTask := env.postTask(t, 1, models.ProofPhoto, 5, 10)
	videoTask := env.postTask(t, 1, models.ProofVideo, 5, 10)

	_, err := env.Submissions.SubmitProof(ctx, photoTask.ID, 2, Proof{models.ProofPhoto, "https://cdn.tasks.test/proofs/1/a.jpg"})
	require.NoError(t, err)

	for _, payload := range []string{"https://elsewhere.test/a.jpg", "/tmp/a.jpg"} {
		_, err = env.Submissions.SubmitProof(ctx, photoTask.ID, 2, Proof{models.ProofPhoto, payload})
		assert.Equal(t, KindInvalidProof, KindOf(err), payload)
	}

	// links in text proofs are not file references and keep working for video tasks
	_, err = env.Submissions.SubmitProof(ctx, videoTask.ID, 2, Proof{models.ProofText, "https://youtu.be/abc123"})
	require.NoError(t, err)
	_, err = env.Submissions.SubmitProof(ctx, videoTask.ID, 2, Proof{models.ProofVideo, "https://youtu.be/abc123"})
	assert.Equal(t, KindInvalidProof, KindOf(err))
}

func TestSubmitProofRequiresActiveTaskAndWorker(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.fund(t, 1, 1000)
	env.register(t, 2, nil)
	task := env.postTask(t, 1, models.ProofText, 1, 10)

	_, err := env.Submissions.SubmitProof(ctx, task.ID, 3, Proof{models.ProofText, "x"})
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = env.Market.SetTaskHidden(ctx, task.ID, true)
	require.NoError(t, err)
	_, err = env.Submissions.SubmitProof(ctx, task.ID, 2, Proof{models.ProofText, "x"})
	assert.Equal(t, KindInvalidTask, KindOf(err))
}

func TestApproveSubmissionPaysWorker(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.fund(t, 1, 1000)
	env.register(t, 2, nil)
	task := env.postTask(t, 1, models.ProofText, 2, 15)

	sub, err := env.Submissions.SubmitProof(ctx, task.ID, 2, Proof{models.ProofText, "done"})
	require.NoError(t, err)

	got, err := env.Submissions.reviewSubmission(ctx, testAdmin, sub.ID, true)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionApproved, got.Status)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, testAdmin, *got.ReviewedBy)

	// floor(15 * 0.9) = 13
	worker, err := env.Ledger.GetAccount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(213), worker.Points)
	assert.Equal(t, int64(13), worker.Earnings)

	updated, err := env.Market.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Completed)
	assert.Equal(t, int64(970), env.points(t, 1), "owner is not refunded the margin")
}

func TestRejectSubmission(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.fund(t, 1, 1000)
	env.register(t, 2, nil)
	task := env.postTask(t, 1, models.ProofText, 2, 15)
	sub, err := env.Submissions.SubmitProof(ctx, task.ID, 2, Proof{models.ProofText, "done"})
	require.NoError(t, err)

	got, err := env.Submissions.reviewSubmission(ctx, testAdmin, sub.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionRejected, got.Status)
	assert.Equal(t, int64(200), env.points(t, 2))

	updated, err := env.Market.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Completed)
}

func TestReviewSubmissionOnlyOnce(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.fund(t, 1, 1000)
	env.register(t, 2, nil)
	task := env.postTask(t, 1, models.ProofText, 5, 10)
	sub, err := env.Submissions.SubmitProof(ctx, task.ID, 2, Proof{models.ProofText, "done"})
	require.NoError(t, err)

	_, err = env.Submissions.reviewSubmission(ctx, testAdmin, sub.ID, true)
	require.NoError(t, err)

	_, err = env.Submissions.reviewSubmission(ctx, testAdmin, sub.ID, true)
	assert.Equal(t, KindAlreadyProcessed, KindOf(err))
	_, err = env.Submissions.reviewSubmission(ctx, testAdmin, sub.ID, false)
	assert.Equal(t, KindAlreadyProcessed, KindOf(err))

	assert.Equal(t, int64(209), env.points(t, 2))

	_, err = env.Submissions.reviewSubmission(ctx, testAdmin, 999, true)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestConcurrentApprovalsPayOnce(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.fund(t, 1, 1000)
	env.register(t, 2, nil)
	task := env.postTask(t, 1, models.ProofText, 5, 100)
	sub, err := env.Submissions.SubmitProof(ctx, task.ID, 2, Proof{models.ProofText, "done"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Submissions.reviewSubmission(ctx, testAdmin, sub.ID, true)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, KindAlreadyProcessed, KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(290), env.points(t, 2))
}

func TestApprovalOnFullTaskRollsBack(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.fund(t, 1, 1000)
	env.register(t, 2, nil)
	env.register(t, 3, nil)
	task := env.postTask(t, 1, models.ProofText, 1, 100)

	first, err := env.Submissions.SubmitProof(ctx, task.ID, 2, Proof{models.ProofText, "done"})
	require.NoError(t, err)
	second, err := env.Submissions.SubmitProof(ctx, task.ID, 3, Proof{models.ProofText, "me too"})
	require.NoError(t, err)

	_, err = env.Submissions.reviewSubmission(ctx, testAdmin, first.ID, true)
	require.NoError(t, err)

	_, err = env.Submissions.reviewSubmission(ctx, testAdmin, second.ID, true)
	assert.Equal(t, KindTaskSaturated, KindOf(err))

	var stored models.Submission
	require.NoError(t, env.DB.First(&stored, second.ID).Error)
	assert.Equal(t, models.SubmissionPending, stored.Status)
	assert.Nil(t, stored.ReviewedBy)
	assert.Equal(t, int64(200), env.points(t, 3))

	full, err := env.Market.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, full.Completed)
	assert.False(t, full.Active())

	_, err = env.Submissions.SubmitProof(ctx, task.ID, 3, Proof{models.ProofText, "late"})
	assert.Equal(t, KindInvalidTask, KindOf(err))

	// a saturated submission can still be rejected
	_, err = env.Submissions.reviewSubmission(ctx, testAdmin, second.ID, false)
	require.NoError(t, err)
}

func TestListByWorker(t *testing.T) {
	env := newTestEnv(t, DefaultRules())
	ctx := context.Background()
	env.fund(t, 1, 1000)
	env.register(t, 2, nil)
	task := env.postTask(t, 1, models.ProofText, 5, 10)

	for _, p := range []string{"one", "two"} {
		_, err := env.Submissions.SubmitProof(ctx, task.ID, 2, Proof{models.ProofText, p})
		require.NoError(t, err)
	}

	subs, err := env.Submissions.ListByWorker(ctx, 2)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "two", subs[0].Proof)

	subs, err = env.Submissions.ListByWorker(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, subs)
}
