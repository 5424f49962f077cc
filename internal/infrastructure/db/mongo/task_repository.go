package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/uptask/project-system/internal/core/domain"
)

const collectionTasks = "tasks"

type taskDoc struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Name        string              `bson:"name"`
	Description string              `bson:"description"`
	Priority    string              `bson:"priority"`
	DueDate     time.Time           `bson:"due_date"`
	Completed   bool                `bson:"completed"`
	CompletedBy *primitive.ObjectID `bson:"completed_by,omitempty"`
	ProjectID   primitive.ObjectID  `bson:"project"`
	Version     int64               `bson:"version"`
	CreatedAt   time.Time           `bson:"created_at"`
	UpdatedAt   time.Time           `bson:"updated_at"`
}

func (d *taskDoc) toDomain() *domain.Task {
	t := &domain.Task{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Priority:    domain.Priority(d.Priority),
		DueDate:     d.DueDate,
		Completed:   d.Completed,
		ProjectID:   d.ProjectID.Hex(),
		Version:     d.Version,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.CompletedBy != nil {
		t.CompletedBy = d.CompletedBy.Hex()
	}
	return t
}

type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(collectionTasks)}
}

// Create inserts a new task document at version 1.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	project, err := objectID(t.ProjectID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := taskDoc{
		ID:          primitive.NewObjectID(),
		Name:        t.Name,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Completed:   t.Completed,
		ProjectID:   project,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc taskDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// FindByProject returns all tasks of one project in creation order.
func (r *TaskRepository) FindByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	oid, err := objectID(projectID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"project": oid})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domain.Task
	for cur.Next(ctx) {
		var doc taskDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

// Update persists the task with an optimistic version check, mirroring the
// project repository semantics.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	oid, err := objectID(t.ID)
	if err != nil {
		return err
	}

	set := bson.M{
		"name":        t.Name,
		"description": t.Description,
		"priority":    string(t.Priority),
		"due_date":    t.DueDate,
		"completed":   t.Completed,
		"updated_at":  time.Now().UTC(),
	}
	if t.CompletedBy != "" {
		by, err := objectID(t.CompletedBy)
		if err != nil {
			return err
		}
		set["completed_by"] = by
	} else {
		set["completed_by"] = nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "version": t.Version},
		bson.M{"$set": set, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrConflict
		}
		return domain.ErrTaskNotFound
	}

	t.Version++
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// DeleteByProject removes every task of a project. Used when the parent
// project is deleted.
func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID string) error {
	oid, err := objectID(projectID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = r.col.DeleteMany(ctx, bson.M{"project": oid})
	return err
}

// EnsureIndexes creates the project membership index.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project", Value: 1}},
	})
	return err
}
