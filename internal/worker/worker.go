package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"taskboard/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type JobType string

const (
	JobTypeTaskReminder JobType = "task_reminder"
)

// DefaultQueue is the queue reminder jobs land on unless configured
// otherwise.
const DefaultQueue = "reminders"

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
	ProcessAt time.Time              `json:"process_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

type Worker struct {
	client       *redis.Client
	log          *logrus.Logger
	handlers     map[JobType]JobHandler
	queues       []string
	pollInterval time.Duration
	mu           sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

type WorkerConfig struct {
	RedisClient  *redis.Client
	Logger       *logrus.Logger
	PollInterval time.Duration
	Queues       []string
}

func NewWorker(config WorkerConfig) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	queues := config.Queues
	if len(queues) == 0 {
		queues = []string{DefaultQueue}
	}
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &Worker{
		client:       config.RedisClient,
		log:          log,
		handlers:     make(map[JobType]JobHandler),
		queues:       queues,
		pollInterval: pollInterval,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (w *Worker) RegisterHandler(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

func (w *Worker) Start(concurrency int) {
	w.log.WithField("concurrency", concurrency).Info("starting reminder worker")

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop()
	}
}

func (w *Worker) Stop() {
	w.log.Info("stopping reminder worker")
	w.cancel()
	w.wg.Wait()
	w.log.Info("reminder worker stopped")
}

func (w *Worker) workerLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			if err := w.processNextJob(); err != nil {
				w.log.WithError(err).Error("processing job")
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) processNextJob() error {
	result, err := w.client.BLPop(w.ctx, 5*time.Second, w.queues...).Result()
	if err != nil {
		if err == redis.Nil || w.ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to pop job: %w", err)
	}

	if len(result) < 2 {
		return fmt.Errorf("invalid job result")
	}

	queue := result[0]
	jobData := result[1]

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	// Not due yet: put it back and hold off until the next poll, so a
	// far-future job does not spin the queue at Redis round-trip speed.
	if time.Now().Before(job.ProcessAt) {
		if err := w.enqueueJob(queue, &job); err != nil {
			return err
		}
		w.waitUntilNextPoll(job.ProcessAt)
		return nil
	}

	return w.executeJob(&job)
}

func (w *Worker) waitUntilNextPoll(processAt time.Time) {
	delay := w.pollInterval
	if until := time.Until(processAt); until < delay {
		delay = until
	}
	if delay <= 0 {
		return
	}
	select {
	case <-w.ctx.Done():
	case <-time.After(delay):
	}
}

func (w *Worker) executeJob(job *Job) error {
	w.mu.RLock()
	handler, exists := w.handlers[job.Type]
	w.mu.RUnlock()

	if !exists {
		return fmt.Errorf("no handler registered for job type: %s", job.Type)
	}

	ctx, cancel := context.WithTimeout(w.ctx, 30*time.Second)
	defer cancel()

	err := handler(ctx, job)
	if err != nil {
		job.Attempts++
		if job.Attempts < job.MaxTries {
			w.log.WithError(err).WithFields(logrus.Fields{
				"job_id":  job.ID,
				"attempt": job.Attempts,
			}).Warn("job failed, retrying")
			return w.retryJob(job)
		}

		w.log.WithError(err).WithField("job_id", job.ID).Error("job failed permanently")
		return w.moveToDeadQueue(job, err)
	}

	w.log.WithField("job_id", job.ID).Info("job completed")
	return nil
}

func (w *Worker) retryJob(job *Job) error {
	delay := time.Duration(1<<job.Attempts) * time.Minute
	job.ProcessAt = time.Now().Add(delay)

	return w.enqueueJob("retry_queue", job)
}

func (w *Worker) enqueueJob(queue string, job *Job) error {
	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	return w.client.RPush(w.ctx, queue, jobData).Err()
}

func (w *Worker) moveToDeadQueue(job *Job, jobErr error) error {
	deadJob := map[string]interface{}{
		"original_job": job,
		"error":        jobErr.Error(),
		"failed_at":    time.Now(),
	}

	deadJobData, err := json.Marshal(deadJob)
	if err != nil {
		return fmt.Errorf("failed to marshal dead job: %w", err)
	}

	return w.client.RPush(w.ctx, "dead_queue", deadJobData).Err()
}

// JobQueue enqueues reminder jobs. It satisfies the handler layer's
// ReminderScheduler.
type JobQueue struct {
	client *redis.Client
	queue  string
}

func NewJobQueue(client *redis.Client, queue string) *JobQueue {
	if queue == "" {
		queue = DefaultQueue
	}
	return &JobQueue{client: client, queue: queue}
}

// ScheduleReminder enqueues a task_reminder job that becomes due at the
// task's due date.
func (q *JobQueue) ScheduleReminder(task models.Task) error {
	return q.EnqueueAt(JobTypeTaskReminder, map[string]interface{}{
		"task_id":  task.ID.String(),
		"title":    task.Title,
		"due_date": task.DueDate,
	}, task.DueDate)
}

func (q *JobQueue) EnqueueAt(jobType JobType, payload map[string]interface{}, processAt time.Time) error {
	job := &Job{
		ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		Type:      jobType,
		Payload:   payload,
		Attempts:  0,
		MaxTries:  3,
		CreatedAt: time.Now(),
		ProcessAt: processAt,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return q.client.RPush(ctx, q.queue, jobData).Err()
}

func (q *JobQueue) Size() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return q.client.LLen(ctx, q.queue).Result()
}

// LogReminder is the default reminder handler: it announces the due task
// in the service log. The store is never mutated from here.
func LogReminder(log *logrus.Logger) JobHandler {
	return func(ctx context.Context, job *Job) error {
		log.WithFields(logrus.Fields{
			"task_id": job.Payload["task_id"],
			"title":   job.Payload["title"],
		}).Info("task due")
		return nil
	}
}
