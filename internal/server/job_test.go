package server

import (
	"sync"
	"testing"
	"time"
)

func testJobConfig() JobConfig {
	return JobConfig{
		LeftPath:  "assets/left.png",
		RightPath: "assets/right.png",
		MaxDisp:   16,
		P1:        8,
		P2:        128,
		Paths:     4,
		Engine:    "stream",
	}
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testJobConfig())
	if job.ID == "" {
		t.Error("Expected non-empty job ID")
	}
	if job.State != StatePending {
		t.Errorf("State = %s, want %s", job.State, StatePending)
	}
	if job.Config.MaxDisp != 16 {
		t.Errorf("MaxDisp = %d, want 16", job.Config.MaxDisp)
	}

	// IDs must be unique.
	other := jm.CreateJob(testJobConfig())
	if other.ID == job.ID {
		t.Error("Expected distinct job IDs")
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testJobConfig())

	got, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Expected job to exist")
	}
	if got.ID != job.ID {
		t.Errorf("ID = %s, want %s", got.ID, job.ID)
	}

	if _, exists := jm.GetJob("nonexistent"); exists {
		t.Error("Expected nonexistent job to not exist")
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if jobs := jm.ListJobs(); len(jobs) != 0 {
		t.Errorf("Expected empty list, got %d jobs", len(jobs))
	}

	jm.CreateJob(testJobConfig())
	jm.CreateJob(testJobConfig())
	if jobs := jm.ListJobs(); len(jobs) != 2 {
		t.Errorf("Expected 2 jobs, got %d", len(jobs))
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testJobConfig())

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.RowsDone = 42
	})
	if err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	got, _ := jm.GetJob(job.ID)
	if got.State != StateRunning {
		t.Errorf("State = %s, want %s", got.State, StateRunning)
	}
	if got.RowsDone != 42 {
		t.Errorf("RowsDone = %d, want 42", got.RowsDone)
	}

	if err := jm.UpdateJob("nonexistent", func(j *Job) {}); err == nil {
		t.Error("Expected error for nonexistent job")
	}
}

func TestJobManager_GetRunningJobs(t *testing.T) {
	jm := NewJobManager()

	running := jm.CreateJob(testJobConfig())
	jm.CreateJob(testJobConfig()) // stays pending
	done := jm.CreateJob(testJobConfig())

	jm.UpdateJob(running.ID, func(j *Job) { j.State = StateRunning })
	jm.UpdateJob(done.ID, func(j *Job) { j.State = StateCompleted })

	got := jm.GetRunningJobs()
	if len(got) != 1 {
		t.Fatalf("Expected 1 running job, got %d", len(got))
	}
	if got[0].ID != running.ID {
		t.Errorf("Running job = %s, want %s", got[0].ID, running.ID)
	}
}

func TestEventBroadcaster_BroadcastAndReceive(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch)

	event := ProgressEvent{
		JobID:     "job-1",
		State:     StateRunning,
		RowsDone:  8,
		TotalRows: 240,
		Timestamp: time.Now(),
	}
	eb.Broadcast(event)

	select {
	case got := <-ch:
		if got.RowsDone != 8 {
			t.Errorf("RowsDone = %d, want 8", got.RowsDone)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestEventBroadcaster_ReplaysLastEventToNewClients(t *testing.T) {
	eb := NewEventBroadcaster()

	eb.Broadcast(ProgressEvent{JobID: "job-1", State: StateRunning, RowsDone: 16})

	// A client subscribing after the broadcast still sees the last event.
	ch := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch)

	select {
	case got := <-ch:
		if got.RowsDone != 16 {
			t.Errorf("RowsDone = %d, want 16", got.RowsDone)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for replayed event")
	}
}

func TestEventBroadcaster_IsolatesJobs(t *testing.T) {
	eb := NewEventBroadcaster()

	ch1 := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch1)
	ch2 := eb.Subscribe("job-2")
	defer eb.Unsubscribe("job-2", ch2)

	eb.Broadcast(ProgressEvent{JobID: "job-1", RowsDone: 1})

	select {
	case <-ch1:
	case <-time.After(time.Second):
		t.Fatal("job-1 client did not receive its event")
	}

	select {
	case got := <-ch2:
		t.Errorf("job-2 client received foreign event: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBroadcaster_ConcurrentBroadcasts(t *testing.T) {
	eb := NewEventBroadcaster()

	// Two workers broadcasting for distinct jobs in parallel, as happens
	// whenever two jobs run at once. Must not corrupt the last-event cache.
	var wg sync.WaitGroup
	for _, jobID := range []string{"job-1", "job-2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				eb.Broadcast(ProgressEvent{JobID: id, State: StateRunning, RowsDone: i + 1})
			}
		}(jobID)
	}
	wg.Wait()

	// Each job's final event must be intact and replayed to a new client.
	for _, jobID := range []string{"job-1", "job-2"} {
		ch := eb.Subscribe(jobID)
		select {
		case got := <-ch:
			if got.JobID != jobID || got.RowsDone != 1000 {
				t.Errorf("Last event for %s = %+v, want RowsDone 1000", jobID, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("No replayed event for %s", jobID)
		}
		eb.Unsubscribe(jobID, ch)
	}
}

func TestJobManager_ReturnsSnapshots(t *testing.T) {
	jm := NewJobManager()
	created := jm.CreateJob(testJobConfig())

	// Mutating any returned job must not touch the stored one.
	created.State = StateFailed

	got, _ := jm.GetJob(created.ID)
	if got.State != StatePending {
		t.Errorf("Stored state = %s after mutating CreateJob result, want %s",
			got.State, StatePending)
	}

	got.RowsDone = 99
	listed := jm.ListJobs()
	if len(listed) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(listed))
	}
	if listed[0].RowsDone != 0 {
		t.Errorf("Stored RowsDone = %d after mutating GetJob result, want 0",
			listed[0].RowsDone)
	}

	listed[0].Error = "scribbled"
	again, _ := jm.GetJob(created.ID)
	if again.Error != "" {
		t.Errorf("Stored Error = %q after mutating ListJobs result, want empty",
			again.Error)
	}
}

func TestEventBroadcaster_CleanupJob(t *testing.T) {
	eb := NewEventBroadcaster()

	ch := eb.Subscribe("job-1")
	eb.Broadcast(ProgressEvent{JobID: "job-1", RowsDone: 1})
	<-ch

	eb.CleanupJob("job-1")

	// Channel must be closed.
	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed after cleanup")
	}

	// No replay after cleanup.
	ch2 := eb.Subscribe("job-1")
	defer eb.Unsubscribe("job-1", ch2)
	select {
	case got := <-ch2:
		t.Errorf("Received stale event after cleanup: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}
