package testutil

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomsync/roomsync-client/types"
)

func (b *Backend) findTask(id string) (int, *types.Task) {
	for i, t := range b.tasks {
		if t.ID == id {
			return i, t
		}
	}
	return -1, nil
}

func (b *Backend) groupTasks(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Task{}
	for _, t := range b.tasks {
		if t.GroupID == c.Param("id") {
			out = append(out, *t)
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) myTasks(c *gin.Context) {
	me := currentUser(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Task{}
	for _, t := range b.tasks {
		if t.AssignedTo == me {
			out = append(out, *t)
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) createTask(c *gin.Context) {
	var req types.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fields := required([2]string{"title", req.Title}, [2]string{"group_id", req.GroupID}); len(fields) > 0 {
		fail(c, http.StatusBadRequest, "Validation failed", fields...)
		return
	}
	if req.Priority == "" {
		req.Priority = types.TaskPriorityMedium
	}

	me := currentUser(c)
	if req.AssignedTo == "" {
		req.AssignedTo = me
	}

	b.mu.Lock()
	if b.findGroup(req.GroupID) == nil {
		b.mu.Unlock()
		fail(c, http.StatusNotFound, "Group not found")
		return
	}
	t := &types.Task{
		ID:          b.nextID("task"),
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   me,
		GroupID:     req.GroupID,
		CreatedAt:   now(),
	}
	b.tasks = append(b.tasks, t)
	var pushed []pendingPush
	if t.AssignedTo != me {
		pushed = append(pushed, b.notifyLocked(t.AssignedTo, &me, types.NotificationTaskAssigned,
			fmt.Sprintf("You were assigned %s", t.Title), &types.EntityRef{Kind: "task", ID: t.ID}))
	}
	out := *t
	b.mu.Unlock()

	b.deliver(pushed)
	ok(c, http.StatusCreated, "Task created", out)
}

func (b *Backend) updateTask(c *gin.Context) {
	var req types.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, t := b.findTask(c.Param("id"))
	if t == nil {
		fail(c, http.StatusNotFound, "Task not found")
		return
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		t.DueDate = req.DueDate
	}
	if req.AssignedTo != nil {
		t.AssignedTo = *req.AssignedTo
	}
	ok(c, http.StatusOK, "Task updated", *t)
}

func (b *Backend) toggleTask(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, t := b.findTask(c.Param("id"))
	if t == nil {
		fail(c, http.StatusNotFound, "Task not found")
		return
	}
	t.Completed = !t.Completed
	ok(c, http.StatusOK, "", *t)
}

func (b *Backend) deleteTask(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, t := b.findTask(c.Param("id"))
	if t == nil {
		fail(c, http.StatusNotFound, "Task not found")
		return
	}
	b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
	ok(c, http.StatusOK, "Task deleted", nil)
}
