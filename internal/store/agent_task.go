package store

import (
	"context"

	"archieos.app/intake/core/db/sqlc"
	"archieos.app/intake/internal/model"
)

type agentTaskStore struct {
	queries *sqlc.Queries
}

func newAgentTaskStore(queries *sqlc.Queries) AgentTaskStore {
	return &agentTaskStore{queries: queries}
}

func (s *agentTaskStore) Create(ctx context.Context, task *model.AgentTask) (*model.AgentTask, error) {
	inputs := []byte(task.Inputs)
	if len(inputs) == 0 {
		inputs = []byte("{}")
	}

	row, err := s.queries.CreateAgentTask(ctx, sqlc.CreateAgentTaskParams{
		TaskID:       task.ID,
		RealtorID:    task.RealtorID,
		ListingID:    task.ListingID,
		Name:         task.Name,
		Description:  task.Description,
		Status:       string(task.Status),
		Priority:     int32(task.Priority),
		DueDate:      toTimestamptz(task.DueDate),
		TaskCategory: string(task.TaskCategory),
		TaskKey:      task.TaskKey,
		Inputs:       inputs,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return toAgentTaskModel(row), nil
}

func toAgentTaskModel(row sqlc.AgentTask) *model.AgentTask {
	return &model.AgentTask{
		ID:           row.TaskID,
		RealtorID:    row.RealtorID,
		ListingID:    row.ListingID,
		Name:         row.Name,
		Description:  row.Description,
		Status:       model.TaskStatus(row.Status),
		Priority:     int(row.Priority),
		DueDate:      timePtr(row.DueDate),
		TaskCategory: model.TaskCategory(row.TaskCategory),
		TaskKey:      row.TaskKey,
		Inputs:       row.Inputs,
		CreatedAt:    timeOrZero(row.CreatedAt),
		UpdatedAt:    timeOrZero(row.UpdatedAt),
	}
}
