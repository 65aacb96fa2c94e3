package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis keys, namespaced so the queue can share a server with the cache.
	JobKeyPrefix     = "clubhouse:job:"
	JobQueueKey      = "clubhouse:jobs:pending"
	JobProcessingKey = "clubhouse:jobs:processing"
	JobDelayedKey    = "clubhouse:jobs:delayed"
	JobStatsKey      = "clubhouse:jobs:stats"

	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour
)

var errNotConfigured = errors.New("job queue not configured")

// Handler runs one job. A returned error marks the job failed and schedules
// a retry while attempts remain.
type Handler func(ctx context.Context, job *Job) error

// Queue is a Redis list backed job queue. Jobs waiting for a retry sit in a
// sorted set scored by their due time, so a restart does not lose them.
type Queue struct {
	client  *redis.Client
	workers int

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	handlers map[JobType]Handler

	retryDelay    time.Duration
	maxRetryDelay time.Duration
	stuckAfter    time.Duration
	sweepInterval time.Duration
}

// QueueStats is a point-in-time view of the queue.
type QueueStats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// NewQueue creates a queue on client with the given number of workers.
func NewQueue(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = 3
	}
	return &Queue{
		client:        client,
		workers:       workers,
		handlers:      make(map[JobType]Handler),
		retryDelay:    time.Minute,
		maxRetryDelay: 30 * time.Minute,
		stuckAfter:    10 * time.Minute,
		sweepInterval: 5 * time.Second,
	}
}

// Handle registers the handler for a job type. Register before Start.
func (q *Queue) Handle(jobType JobType, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = h
}

func (q *Queue) handler(jobType JobType) (Handler, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	h, ok := q.handlers[jobType]
	return h, ok
}

// Start launches the workers and the sweeper. Calling it twice is a no-op.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running || q.client == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.running = true
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	q.wg.Add(1)
	go q.sweeper(ctx)
}

// Stop cancels in-flight handlers and waits for every goroutine to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	log.Info("[JobQueue] Stopping workers...")
	q.cancel()
	q.running = false
	q.mu.Unlock()

	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	log.Infof("[JobQueue] Worker %d started", id)

	for ctx.Err() == nil {
		job, err := q.dequeueJob(ctx)
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Errorf("[JobQueue] Worker %d: Error dequeuing job: %v", id, err)
				sleep(ctx, time.Second)
			}
			continue
		}
		log.Infof("[JobQueue] Worker %d processing job %s (Type: %s)", id, job.ID, job.Type)
		q.processJob(ctx, job)
	}
	log.Infof("[JobQueue] Worker %d stopping", id)
}

// sweeper moves due retries back to the pending list and recovers jobs a
// crashed worker left in processing.
func (q *Queue) sweeper(ctx context.Context) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			if _, err := q.promoteDue(ctx, now); err != nil {
				log.Errorf("[JobQueue] Promoting delayed jobs: %v", err)
			}
			if _, err := q.recoverStuck(ctx, now); err != nil {
				log.Errorf("[JobQueue] Recovering stuck jobs: %v", err)
			}
		}
	}
}

// promoteDue moves every delayed job whose retry time has come to the
// pending list. ZRem decides ownership when several instances sweep at once.
func (q *Queue) promoteDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.ZRangeByScore(ctx, JobDelayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, JobDelayedKey, id).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, JobQueueKey, id).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// recoverStuck requeues jobs that have been processing for longer than
// stuckAfter and drops processing entries whose job data is gone.
func (q *Queue) recoverStuck(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.LRange(ctx, JobProcessingKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, id := range ids {
		job, err := q.GetJob(ctx, id)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorf("[JobQueue] Sweeper could not read job %s: %v", id, err)
			}
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}
		if job.Status != JobStatusProcessing {
			_ = q.client.LRem(ctx, JobProcessingKey, 1, id).Err()
			continue
		}
		started := job.UpdatedAt
		if job.ProcessedAt != nil && !job.ProcessedAt.IsZero() {
			started = *job.ProcessedAt
		}
		if now.Sub(started) <= q.stuckAfter {
			continue
		}

		log.Warnf("[JobQueue] Recovering stuck job %s (type=%s), age=%s", job.ID, job.Type, now.Sub(started))
		job.Status = JobStatusPending
		job.ErrorMsg = "recovered by sweeper"
		job.UpdatedAt = now
		q.updateJob(ctx, job)
		pipe := q.client.TxPipeline()
		pipe.LRem(ctx, JobProcessingKey, 1, id)
		pipe.RPush(ctx, JobQueueKey, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

// EnqueueJob stores a new pending job and pushes it onto the queue.
func (q *Queue) EnqueueJob(ctx context.Context, jobType JobType, payload map[string]interface{}) (*Job, error) {
	if q == nil || q.client == nil {
		return nil, errNotConfigured
	}

	now := time.Now()
	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}
	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Infof("[JobQueue] Enqueued job %s (Type: %s)", job.ID, job.Type)
	return job, nil
}

// dequeueJob blocks up to a second for the next job and moves it to the
// processing list in the same step.
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	jobID, err := q.client.BLMove(ctx, JobQueueKey, JobProcessingKey, "RIGHT", "LEFT", time.Second).Result()
	if err != nil {
		return nil, err
	}
	job, err := q.GetJob(ctx, jobID)
	if err != nil {
		q.removeFromProcessing(ctx, jobID)
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	return job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	var err error
	if h, ok := q.handler(job.Type); ok {
		err = h(ctx, job)
	} else {
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	switch {
	case err == nil:
		log.Infof("[JobQueue] Job %s completed successfully", job.ID)
		q.incrStat(ctx, JobStatusCompleted)
		if derr := q.client.Del(ctx, JobKeyPrefix+job.ID).Err(); derr != nil {
			log.Errorf("[JobQueue] Failed to remove completed job %s: %v", job.ID, derr)
		}
	default:
		log.Errorf("[JobQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())
		if job.IsRetryable() {
			job.MarkAsRetrying()
			due := time.Now().Add(q.backoff(job.RetryCount))
			log.Infof("[JobQueue] Retrying job %s at %s (Attempt %d/%d)", job.ID, due.Format(time.RFC3339), job.RetryCount, job.MaxRetries)
			if zerr := q.client.ZAdd(ctx, JobDelayedKey, redis.Z{Score: float64(due.Unix()), Member: job.ID}).Err(); zerr != nil {
				log.Errorf("[JobQueue] Failed to schedule retry for %s: %v", job.ID, zerr)
			}
		} else {
			log.Errorf("[JobQueue] Job %s permanently failed after %d retries", job.ID, job.RetryCount)
			q.incrStat(ctx, JobStatusFailed)
		}
		q.updateJob(ctx, job)
	}
	q.removeFromProcessing(ctx, job.ID)
}

// backoff doubles the retry delay per attempt, up to maxRetryDelay.
func (q *Queue) backoff(attempt int) time.Duration {
	d := q.retryDelay
	for i := 1; i < attempt && d < q.maxRetryDelay; i++ {
		d *= 2
	}
	if d > q.maxRetryDelay {
		d = q.maxRetryDelay
	}
	return d
}

func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job %s: %v", job.ID, err)
	}
}

func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, JobProcessingKey, 1, jobID).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to remove job %s from processing queue: %v", jobID, err)
	}
}

func (q *Queue) incrStat(ctx context.Context, status JobStatus) {
	if err := q.client.HIncrBy(ctx, JobStatsKey, string(status), 1).Err(); err != nil {
		log.Errorf("[JobQueue] Failed to update job stats: %v", err)
	}
}

// GetJob returns the stored job. A missing job yields redis.Nil.
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// Stats reads the list sizes and the completed/failed totals.
func (q *Queue) Stats(ctx context.Context) (QueueStats, error) {
	if q == nil || q.client == nil {
		return QueueStats{}, errNotConfigured
	}
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, JobQueueKey)
	processing := pipe.LLen(ctx, JobProcessingKey)
	delayed := pipe.ZCard(ctx, JobDelayedKey)
	totals := pipe.HGetAll(ctx, JobStatsKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return QueueStats{}, err
	}

	st := QueueStats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Delayed:    delayed.Val(),
	}
	for status, raw := range totals.Val() {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		switch JobStatus(status) {
		case JobStatusCompleted:
			st.Completed = n
		case JobStatusFailed:
			st.Failed = n
		}
	}
	return st, nil
}

// EnqueuePurchaseConfirmation queues the buyer's receipt email.
func (q *Queue) EnqueuePurchaseConfirmation(ctx context.Context, p PurchaseConfirmationPayload) error {
	_, err := q.EnqueueJob(ctx, JobTypePurchaseConfirmation, p.ToMap())
	return err
}

// EnqueueRefundReview queues the refund notice for the club office.
func (q *Queue) EnqueueRefundReview(ctx context.Context, p RefundReviewPayload) error {
	_, err := q.EnqueueJob(ctx, JobTypeRefundReview, p.ToMap())
	return err
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
