package usecase

import (
	"context"

	"github.com/runoshun/boardsync/internal/domain"
)

// DragState is the phase of a drag gesture.
type DragState int

// Drag states.
const (
	DragIdle DragState = iota
	DragDragging
	DragDropped
)

func (s DragState) String() string {
	switch s {
	case DragDragging:
		return "dragging"
	case DragDropped:
		return "dropped"
	default:
		return "idle"
	}
}

// DragController tracks one drag gesture at a time:
// Idle -> Dragging -> Dropped -> Idle.
// It is not safe for concurrent use; the UI goroutine owns it.
type DragController struct {
	drop   *DropTask
	taskID string
	source Location
	state  DragState
}

// NewDragController creates a DragController that hands drops to drop.
func NewDragController(drop *DropTask) *DragController {
	return &DragController{drop: drop}
}

// State returns the current phase.
func (d *DragController) State() DragState {
	return d.state
}

// TaskID returns the dragged task, or "" when idle.
func (d *DragController) TaskID() string {
	return d.taskID
}

// Source returns where the current drag started.
func (d *DragController) Source() Location {
	return d.source
}

// Begin starts dragging taskID from source.
func (d *DragController) Begin(taskID string, source Location) error {
	if d.state != DragIdle {
		return domain.ErrDragInProgress
	}
	if taskID == "" {
		return domain.ErrTaskNotFound
	}
	d.state = DragDragging
	d.taskID = taskID
	d.source = source
	return nil
}

// Cancel abandons the current drag without side effects.
func (d *DragController) Cancel() {
	d.reset()
}

// End drops the dragged card at dest (nil for outside any column) and
// returns to Idle. The status edit, if any, continues in the background.
func (d *DragController) End(ctx context.Context, dest *Location) (*DropTaskOutput, error) {
	if d.state != DragDragging {
		return nil, domain.ErrNoDragInProgress
	}
	d.state = DragDropped
	defer d.reset()

	return d.drop.Execute(ctx, DropTaskInput{
		Destination: dest,
		TaskID:      d.taskID,
		Source:      d.source,
	})
}

func (d *DragController) reset() {
	d.state = DragIdle
	d.taskID = ""
	d.source = Location{}
}
