package task

import (
	"context"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a unit of work to be processed by a WorkerPool.
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic
	Execute(ctx context.Context) error
}

// TaskQueueReader provides read-only access to the task channel
// allowing workers to consume tasks without the ability to enqueue
type TaskQueueReader interface {
	// GetChannel returns a read-only channel for consuming tasks
	GetChannel() <-chan Task
}

// TaskQueueWriter provides write access to the task queue
type TaskQueueWriter interface {
	// Enqueue adds a task to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(task Task) error

	// Close closes the task queue, preventing further task submission
	Close()
}

// Func adapts a function to the Task interface.
type Func struct {
	id       uuid.UUID
	taskType string
	fn       func(ctx context.Context) error
}

// NewFunc wraps fn as a Task of the given type with a fresh ID.
func NewFunc(taskType string, fn func(ctx context.Context) error) *Func {
	return &Func{id: uuid.New(), taskType: taskType, fn: fn}
}

func (f *Func) ID() uuid.UUID                     { return f.id }
func (f *Func) Type() string                      { return f.taskType }
func (f *Func) Execute(ctx context.Context) error { return f.fn(ctx) }
