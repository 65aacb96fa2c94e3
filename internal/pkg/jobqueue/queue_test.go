package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, workers int) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewQueue(client, workers), mr
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// TestNewQueue tests the queue constructor
func TestNewQueue(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, 3},
		{"Negative workers", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueue(nil, tt.workers)

			assert.NotNil(t, queue)
			assert.Equal(t, tt.expectedWorkers, queue.workers)
			assert.False(t, queue.running)
		})
	}
}

func TestEnqueueJob_WithoutClient(t *testing.T) {
	q := NewQueue(nil, 1)
	_, err := q.EnqueueJob(context.Background(), JobTypeRefundReview, nil)
	assert.ErrorIs(t, err, errNotConfigured)

	_, err = q.Stats(context.Background())
	assert.ErrorIs(t, err, errNotConfigured)

	q.Start()
	assert.False(t, q.running, "a queue without a client never starts")
	q.Stop()
}

func TestQueue_EnqueueAndProcess(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	mailer := &recordingMailer{}
	RegisterMailHandlers(q, mailer, "office@example.com", "https://club.example/")
	ctx := context.Background()

	require.NoError(t, q.EnqueuePurchaseConfirmation(ctx, PurchaseConfirmationPayload{
		Kind: "ticket", Reference: "cs_1", UserID: 7, Email: "fan@example.com", Name: "Fan",
		MatchTitle: "Club vs Rivals", Quantity: 2, Category: "vip", AmountCents: 12000,
	}))

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Pending)

	job, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, JobTypePurchaseConfirmation, job.Type)
	q.processJob(ctx, job)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "fan@example.com", mailer.sent[0].to)
	assert.Equal(t, "Your tickets for Club vs Rivals", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "120.00")
	assert.Contains(t, mailer.sent[0].body, "https://club.example/orders")

	_, err = q.GetJob(ctx, job.ID)
	assert.ErrorIs(t, err, redis.Nil, "completed jobs are removed")

	st, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Completed: 1}, st)
}

func TestQueue_FailedJobIsRetried(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	mailer := &recordingMailer{err: errors.New("smtp down")}
	RegisterMailHandlers(q, mailer, "office@example.com", "")
	ctx := context.Background()

	require.NoError(t, q.EnqueueRefundReview(ctx, RefundReviewPayload{CheckoutSessionID: "cs_2", Quantity: 1}))
	job, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	q.processJob(ctx, job)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, stored.Status)
	assert.Equal(t, 1, stored.RetryCount)
	assert.Equal(t, "smtp down", stored.ErrorMsg)

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Delayed: 1}, st)

	moved, err := q.promoteDue(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, moved, "retry is not due yet")

	moved, err = q.promoteDue(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	st, err = q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Pending: 1}, st)
}

func TestQueue_PermanentFailure(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	q.Handle(JobTypeRefundReview, func(context.Context, *Job) error { return errors.New("boom") })
	ctx := context.Background()

	_, err := q.EnqueueJob(ctx, JobTypeRefundReview, map[string]interface{}{})
	require.NoError(t, err)
	for attempt := 0; attempt < DefaultMaxRetries; attempt++ {
		_, err := q.promoteDue(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		job, err := q.dequeueJob(ctx)
		require.NoError(t, err)
		q.processJob(ctx, job)
	}

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Failed: 1}, st)
}

func TestQueue_Backoff(t *testing.T) {
	q := NewQueue(nil, 1)
	q.retryDelay = time.Minute
	q.maxRetryDelay = 5 * time.Minute

	assert.Equal(t, time.Minute, q.backoff(1))
	assert.Equal(t, 2*time.Minute, q.backoff(2))
	assert.Equal(t, 4*time.Minute, q.backoff(3))
	assert.Equal(t, 5*time.Minute, q.backoff(4))
	assert.Equal(t, 5*time.Minute, q.backoff(10))
}

func TestQueue_RecoverStuck(t *testing.T) {
	q, mr := newTestQueue(t, 1)
	ctx := context.Background()

	job, err := q.EnqueueJob(ctx, JobTypeRefundReview, map[string]interface{}{})
	require.NoError(t, err)
	dequeued, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	dequeued.MarkAsProcessing()
	q.updateJob(ctx, dequeued)
	mr.RPush(JobProcessingKey, "ghost")

	recovered, err := q.recoverStuck(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, recovered, "fresh jobs are left alone")

	recovered, err = q.recoverStuck(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, recovered)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, stored.Status)

	st, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Pending)
	assert.Zero(t, st.Processing, "ghost entries are dropped")
}

func TestQueue_UnknownJobTypeFails(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	ctx := context.Background()

	job, err := q.EnqueueJob(ctx, JobType("nope"), map[string]interface{}{})
	require.NoError(t, err)
	dequeued, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	q.processJob(ctx, dequeued)

	stored, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.ErrorMsg, "unknown job type")
}

func TestQueue_StartProcessesInBackground(t *testing.T) {
	q, _ := newTestQueue(t, 2)
	mailer := &recordingMailer{}
	RegisterMailHandlers(q, mailer, "office@example.com", "")
	ctx := context.Background()

	q.Start()
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.EnqueueRefundReview(ctx, RefundReviewPayload{CheckoutSessionID: "cs", Quantity: i + 1}))
	}
	assert.Eventually(t, func() bool { return mailer.count() == 3 }, 5*time.Second, 20*time.Millisecond)
}

func TestRefundReview_NoOfficeAddressIsDropped(t *testing.T) {
	q, _ := newTestQueue(t, 1)
	mailer := &recordingMailer{}
	RegisterMailHandlers(q, mailer, "", "")
	ctx := context.Background()

	require.NoError(t, q.EnqueueRefundReview(ctx, RefundReviewPayload{CheckoutSessionID: "cs_3"}))
	job, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	q.processJob(ctx, job)
	assert.Zero(t, mailer.count())
}
