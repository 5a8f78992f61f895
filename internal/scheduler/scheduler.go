// Package scheduler implements the cognitive scheduler: idle detection over
// the host agent's state store, a mode machine, a priority queue of cognitive
// jobs, and a worker pool that dispatches jobs to the retrospection engine
// and the knowledge explorer. User-directed explorations preempt autonomous
// work through a head splice at priority 10.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindloop/internal/config"
	"mindloop/internal/explorer"
	"mindloop/internal/logging"
	"mindloop/internal/retrospect"
	"mindloop/internal/state"
	"mindloop/internal/types"
)

// dequeueWait bounds how long a worker blocks on an empty queue.
const dequeueWait = 5 * time.Second

// joinWait bounds how long Stop waits for each goroutine.
const joinWait = 5 * time.Second

// historyCap soft-caps the job result history.
const historyCap = 200

// activeJob tracks a running job for timeout eviction.
type activeJob struct {
	job       types.CognitiveJob
	worker    int
	startedAt time.Time
}

// Scheduler is the long-lived cognitive supervisor.
type Scheduler struct {
	cfg      *config.Config
	store    state.Store
	engine   *retrospect.Engine
	explorer *explorer.Explorer

	queue *jobQueue

	mu                 sync.Mutex
	mode               types.CognitiveMode
	active             map[string]activeJob
	history            []types.JobResult
	lastActivity       time.Time
	lastCompletion     time.Time
	lastIdeation       time.Time
	lastExploration    time.Time
	completedJobs      int
	timeoutEvictions   int
	activeUserDirected int
	activeAutonomous   int
	idleRetroScheduled bool

	stopCh  chan struct{}
	stopped chan struct{}
	wg      sync.WaitGroup
	started bool
}

// New creates a scheduler. engine and exp handle retrospection and
// exploration jobs; either may be nil, in which case those jobs record an
// error result instead of running.
func New(cfg *config.Config, store state.Store, engine *retrospect.Engine, exp *explorer.Explorer) *Scheduler {
	now := time.Now()
	s := &Scheduler{
		cfg:             cfg,
		store:           store,
		engine:          engine,
		explorer:        exp,
		queue:           newJobQueue(),
		mode:            types.ModeTaskDriven,
		active:          make(map[string]activeJob),
		lastActivity:    now,
		lastCompletion:  now,
		lastIdeation:    now,
		lastExploration: now,
		stopCh:          make(chan struct{}),
		stopped:         make(chan struct{}),
	}
	return s
}

// Start launches the supervisor and worker goroutines. The state-store
// listener keeps lastActivity fresh; lost events are tolerated because the
// supervisor re-checks state on each tick.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}
	s.started = true
	s.mu.Unlock()

	s.store.AddListener(func(ev state.Event) {
		s.mu.Lock()
		s.lastActivity = ev.Timestamp
		if ev.Kind == state.EventTurnCompleted {
			s.lastCompletion = ev.Timestamp
			s.idleRetroScheduled = false
		}
		s.mu.Unlock()
	})

	cfg := s.config()
	workers := cfg.Scheduler.CognitiveTasks.MaxConcurrentTasks
	if workers < 1 {
		workers = 2
	}

	s.wg.Add(1 + workers)
	go s.supervise()
	for i := 0; i < workers; i++ {
		go s.work(i)
	}

	logging.Scheduler("started: %d workers, check interval %s", workers, cfg.GetCheckInterval())
	return nil
}

// ApplyConfig swaps in a new validated configuration. Idle thresholds,
// cadences, timeouts and track bounds take effect on the next tick; the
// worker count and check interval apply on the next Start.
func (s *Scheduler) ApplyConfig(next *config.Config) {
	if next == nil {
		return
	}
	s.mu.Lock()
	s.cfg = next
	s.mu.Unlock()
	logging.Scheduler("configuration reloaded")
}

// config returns the live configuration pointer under the lock so that hot
// reloads do not race readers.
func (s *Scheduler) config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Stop signals shutdown and joins the supervisor and workers with a bounded
// wait. Jobs still queued are discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	close(s.stopCh)
	s.queue.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Scheduler("stopped cleanly")
	case <-time.After(joinWait):
		logging.SchedulerWarn("stop: workers still running after %s", joinWait)
	}
	close(s.stopped)
}

// =============================================================================
// SUPERVISOR
// =============================================================================

func (s *Scheduler) supervise() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config().GetCheckInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// tick runs idle detection, cadence scheduling and timeout eviction.
func (s *Scheduler) tick(now time.Time) {
	snapshot := s.store.CurrentState()
	idle := snapshot.CurrentPhase == state.PhaseCompletion ||
		snapshot.GoalStatus == state.GoalAchieved ||
		snapshot.GoalStatus == state.GoalFailed

	s.mu.Lock()
	if !idle {
		s.lastActivity = now
		if s.mode != types.ModeTaskDriven {
			logging.Scheduler("mode %s -> %s (external activity)", s.mode, types.ModeTaskDriven)
			s.mode = types.ModeTaskDriven
		}
		s.evictTimedOutLocked(now)
		s.mu.Unlock()
		return
	}

	idleFor := now.Sub(s.lastCompletion)
	var toSchedule []types.CognitiveJob

	if idleFor >= s.cfg.GetMinIdleDuration() {
		if s.mode == types.ModeTaskDriven {
			logging.Scheduler("mode %s -> %s (idle %s)", s.mode, types.ModeCognitiveIdle, idleFor.Round(time.Second))
			s.mode = types.ModeCognitiveIdle
		}
		if !s.idleRetroScheduled {
			s.idleRetroScheduled = true
			toSchedule = append(toSchedule, newJob(types.JobRetrospection, types.PriorityRetro, nil))
		}
		if now.Sub(s.lastIdeation) >= s.cfg.GetIdeationInterval() {
			s.lastIdeation = now
			toSchedule = append(toSchedule, newJob(types.JobIdeation, types.PriorityIdeation, nil))
		}
		if now.Sub(s.lastExploration) >= s.cfg.GetExplorationInterval() {
			s.lastExploration = now
			toSchedule = append(toSchedule, newJob(types.JobExploration, types.PriorityAutonomous, map[string]interface{}{
				"exploration_mode": string(types.ModeAutonomous),
			}))
		}
	}

	s.evictTimedOutLocked(now)
	s.mu.Unlock()

	for _, job := range toSchedule {
		logging.SchedulerDebug("scheduling %s job %s (priority %d)", job.Kind, job.JobID, job.Priority)
		s.queue.Enqueue(job)
	}
}

// evictTimedOutLocked drops active entries older than the task timeout.
// Caller holds s.mu.
func (s *Scheduler) evictTimedOutLocked(now time.Time) {
	timeout := s.cfg.GetTaskTimeout()
	for id, entry := range s.active {
		if now.Sub(entry.startedAt) > timeout {
			logging.SchedulerWarn("job %s (%s) exceeded %s on worker %d; evicting",
				id, entry.job.Kind, timeout, entry.worker)
			delete(s.active, id)
			s.timeoutEvictions++
			s.releaseTrackLocked(&entry.job)
		}
	}
}

func newJob(kind types.JobKind, priority int, ctx map[string]interface{}) types.CognitiveJob {
	return types.CognitiveJob{
		JobID:     string(kind) + "_" + uuid.NewString()[:8],
		Kind:      kind,
		Priority:  priority,
		Context:   ctx,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// WORKERS
// =============================================================================

func (s *Scheduler) work(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		job, ok := s.queue.Dequeue(dequeueWait)
		if !ok {
			continue
		}

		if !s.acquireTrack(&job) {
			// Track at capacity; put the job back and let another worker
			// or a later pass pick it up.
			s.queue.Enqueue(job)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		s.runJob(id, job)
	}
}

// acquireTrack enforces the dual-track concurrency bounds for exploration
// jobs. Non-exploration jobs always pass.
func (s *Scheduler) acquireTrack(job *types.CognitiveJob) bool {
	if job.Kind != types.JobExploration {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	maxUser := s.cfg.Explorer.DualTrack.MaxConcurrentUserTasks
	if maxUser < 1 {
		maxUser = 3
	}
	maxAuto := s.cfg.Explorer.DualTrack.MaxConcurrentAutonomous
	if maxAuto < 1 {
		maxAuto = 1
	}
	if isUserDirected(job) {
		if s.activeUserDirected >= maxUser {
			return false
		}
		s.activeUserDirected++
	} else {
		if s.activeAutonomous >= maxAuto {
			return false
		}
		s.activeAutonomous++
	}
	return true
}

// releaseTrackLocked undoes acquireTrack. Caller holds s.mu.
func (s *Scheduler) releaseTrackLocked(job *types.CognitiveJob) {
	if job.Kind != types.JobExploration {
		return
	}
	if isUserDirected(job) {
		if s.activeUserDirected > 0 {
			s.activeUserDirected--
		}
	} else if s.activeAutonomous > 0 {
		s.activeAutonomous--
	}
}

func isUserDirected(job *types.CognitiveJob) bool {
	if job.Context == nil {
		return false
	}
	mode, _ := job.Context["exploration_mode"].(string)
	return mode == string(types.ModeUserDirected)
}

// runJob executes one job end to end: mode switch, dispatch, history append.
func (s *Scheduler) runJob(worker int, job types.CognitiveJob) {
	start := time.Now()

	s.mu.Lock()
	s.active[job.JobID] = activeJob{job: job, worker: worker, startedAt: start}
	previousMode := s.mode
	s.mode = modeForJob(job.Kind)
	s.mu.Unlock()

	logging.SchedulerDebug("worker %d: running %s job %s", worker, job.Kind, job.JobID)

	timer := logging.StartTimer(logging.CategoryScheduler, string(job.Kind))
	payload, err := s.dispatch(job)
	timer.StopWithThreshold(30 * time.Second)

	result := types.JobResult{
		JobID:         job.JobID,
		Kind:          job.Kind,
		Result:        payload,
		ExecutionTime: time.Since(start),
		Worker:        worker,
		Timestamp:     time.Now(),
	}
	if err != nil {
		result.Err = err.Error()
		logging.SchedulerWarn("worker %d: job %s failed: %v", worker, job.JobID, err)
	}

	var synthesis *types.CognitiveJob
	s.mu.Lock()
	// The supervisor may have evicted the job on timeout; its result is
	// recorded either way, but an evicted job does not count as completed.
	if _, stillActive := s.active[job.JobID]; stillActive {
		delete(s.active, job.JobID)
		s.releaseTrackLocked(&job)
		s.completedJobs++
		if job.Kind != types.JobSynthesis && s.completedJobs%5 == 0 {
			j := newJob(types.JobSynthesis, types.PrioritySynthesis, nil)
			synthesis = &j
		}
	}
	s.history = append(s.history, result)
	if len(s.history) > historyCap {
		s.history = s.history[len(s.history)-historyCap/2:]
	}
	if s.mode == modeForJob(job.Kind) {
		if previousMode == types.ModeTaskDriven {
			s.mode = types.ModeTaskDriven
		} else {
			s.mode = types.ModeCognitiveIdle
		}
	}
	s.mu.Unlock()

	if synthesis != nil {
		logging.SchedulerDebug("scheduling synthesis job %s after %d completions", synthesis.JobID, s.CompletedJobs())
		s.queue.Enqueue(*synthesis)
	}
}

func modeForJob(kind types.JobKind) types.CognitiveMode {
	switch kind {
	case types.JobRetrospection:
		return types.ModeDeepReflection
	case types.JobIdeation, types.JobSynthesis:
		return types.ModeCreativeIdeation
	case types.JobExploration:
		return types.ModeKnowledgeExploration
	}
	return types.ModeCognitiveIdle
}

// =============================================================================
// PUBLIC SURFACE
// =============================================================================

// ScheduleUserDirectedExploration enqueues a priority-10 exploration job at
// the head of the queue.
func (s *Scheduler) ScheduleUserDirectedExploration(userQuery string, extra map[string]interface{}) string {
	jobCtx := map[string]interface{}{
		"exploration_mode": string(types.ModeUserDirected),
		"user_query":       userQuery,
	}
	for k, v := range extra {
		jobCtx[k] = v
	}

	job := newJob(types.JobExploration, types.PriorityUserDirected, jobCtx)
	s.queue.Splice(job)
	logging.Scheduler("user-directed exploration %s spliced to head: %q", job.JobID, userQuery)
	return job.JobID
}

// PerformRetrospection runs one synchronous retrospection session outside
// the job queue. Options may pin the session to a strategy or a specific
// turn; the zero value uses the configured defaults.
func (s *Scheduler) PerformRetrospection(ctx context.Context, opts ...retrospect.RunOptions) types.RetrospectionResult {
	if s.engine == nil {
		return types.RetrospectionResult{Status: types.StatusError, Error: "no retrospection engine configured"}
	}
	var o retrospect.RunOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return s.engine.Run(ctx, s.store.History(), o)
}

// Status is the scheduler snapshot returned by GetStatus.
type Status struct {
	Mode             types.CognitiveMode `json:"mode"`
	Idle             bool                `json:"idle"`
	QueueDepth       int                 `json:"queue_depth"`
	ActiveJobs       []string            `json:"active_jobs"`
	CompletedJobs    int                 `json:"completed_jobs"`
	TimeoutEvictions int                 `json:"timeout_evictions"`
	HistorySize      int                 `json:"history_size"`
}

// GetStatus returns a snapshot of scheduler state.
func (s *Scheduler) GetStatus() Status {
	depth := s.queue.Len()

	s.mu.Lock()
	defer s.mu.Unlock()
	activeIDs := make([]string, 0, len(s.active))
	for id := range s.active {
		activeIDs = append(activeIDs, id)
	}
	return Status{
		Mode:             s.mode,
		Idle:             s.mode != types.ModeTaskDriven,
		QueueDepth:       depth,
		ActiveJobs:       activeIDs,
		CompletedJobs:    s.completedJobs,
		TimeoutEvictions: s.timeoutEvictions,
		HistorySize:      len(s.history),
	}
}

// CompletedJobs returns the completed job counter.
func (s *Scheduler) CompletedJobs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completedJobs
}

// JobHistory returns a snapshot of recorded job results, oldest first.
func (s *Scheduler) JobHistory() []types.JobResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.JobResult, len(s.history))
	copy(out, s.history)
	return out
}
