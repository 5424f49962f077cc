package domain

import "time"

// Project is the unit of collaboration and the broadcast room key.
//
// CreatorID is immutable after creation and is never a member of
// Collaborators. Tasks holds the ordered ids of the project's tasks and
// mirrors each Task.ProjectID back-reference.
type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Client        string    `json:"client"`
	DueDate       time.Time `json:"due_date"`
	CreatorID     string    `json:"creator"`
	Collaborators []string  `json:"collaborators"`
	Tasks         []string  `json:"tasks"`
	Version       int64     `json:"version"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsCreator reports whether userID is the project's sole owner.
func (p *Project) IsCreator(userID string) bool {
	return userID != "" && p.CreatorID == userID
}

// IsCollaborator reports whether userID is in the collaborator set.
func (p *Project) IsCollaborator(userID string) bool {
	for _, id := range p.Collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

// CanView grants read access to the project's detail (tasks and
// collaborator roster): creator or collaborator.
func (p *Project) CanView(userID string) bool {
	return p.IsCreator(userID) || p.IsCollaborator(userID)
}

// CanEdit grants write access (edit and delete): creator only. No
// collaborator ever passes this check.
func (p *Project) CanEdit(userID string) bool {
	return p.IsCreator(userID)
}

// CanManageCollaborators grants collaborator add/remove: creator only.
func (p *Project) CanManageCollaborators(userID string) bool {
	return p.IsCreator(userID)
}

// AddCollaborator appends userID to the collaborator set, enforcing the
// set invariants. Callers must already have passed CanManageCollaborators;
// this method only guards the resource invariants themselves.
func (p *Project) AddCollaborator(userID string) error {
	if p.IsCreator(userID) {
		return ErrCreatorCollaborator
	}
	if p.IsCollaborator(userID) {
		return ErrAlreadyCollaborator
	}
	p.Collaborators = append(p.Collaborators, userID)
	return nil
}

// RemoveCollaborator removes userID from the collaborator set. Removing an
// absent id is a no-op.
func (p *Project) RemoveCollaborator(userID string) {
	for i, id := range p.Collaborators {
		if id == userID {
			p.Collaborators = append(p.Collaborators[:i], p.Collaborators[i+1:]...)
			return
		}
	}
}

// AppendTask records a task id in the project's ordered task list.
func (p *Project) AppendTask(taskID string) {
	p.Tasks = append(p.Tasks, taskID)
}

// RemoveTask drops a task id from the task list. Absent ids are a no-op.
func (p *Project) RemoveTask(taskID string) {
	for i, id := range p.Tasks {
		if id == taskID {
			p.Tasks = append(p.Tasks[:i], p.Tasks[i+1:]...)
			return
		}
	}
}
