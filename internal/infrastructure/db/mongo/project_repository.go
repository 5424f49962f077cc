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

const collectionProjects = "projects"

type projectDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Name          string               `bson:"name"`
	Description   string               `bson:"description"`
	Client        string               `bson:"client"`
	DueDate       time.Time            `bson:"due_date"`
	CreatorID     primitive.ObjectID   `bson:"creator"`
	Collaborators []primitive.ObjectID `bson:"collaborators"`
	Tasks         []primitive.ObjectID `bson:"tasks"`
	Version       int64                `bson:"version"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (d *projectDoc) toDomain() *domain.Project {
	return &domain.Project{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Description:   d.Description,
		Client:        d.Client,
		DueDate:       d.DueDate,
		CreatorID:     d.CreatorID.Hex(),
		Collaborators: hexIDs(d.Collaborators),
		Tasks:         hexIDs(d.Tasks),
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type ProjectRepository struct {
	col *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{col: db.Collection(collectionProjects)}
}

// Create inserts a new project document at version 1.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	creator, err := objectID(p.CreatorID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	doc := projectDoc{
		ID:            primitive.NewObjectID(),
		Name:          p.Name,
		Description:   p.Description,
		Client:        p.Client,
		DueDate:       p.DueDate,
		CreatorID:     creator,
		Collaborators: []primitive.ObjectID{},
		Tasks:         []primitive.ObjectID{},
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*domain.Project, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc projectDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// ListForUser returns every project the user created or collaborates on.
func (r *ProjectRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Project, error) {
	oid, err := objectID(userID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"creator": oid},
		bson.M{"collaborators": oid},
	}}

	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domain.Project
	for cur.Next(ctx) {
		var doc projectDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toDomain())
	}
	return out, cur.Err()
}

// Update persists the project with an optimistic version check. The write
// only matches when the stored version equals the caller's; a miss against
// an existing document reports domain.ErrConflict.
func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	oid, err := objectID(p.ID)
	if err != nil {
		return err
	}
	collaborators, err := objectIDs(p.Collaborators)
	if err != nil {
		return err
	}
	tasks, err := objectIDs(p.Tasks)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"name":          p.Name,
			"description":   p.Description,
			"client":        p.Client,
			"due_date":      p.DueDate,
			"collaborators": collaborators,
			"tasks":         tasks,
			"updated_at":    time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid, "version": p.Version}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		exists, err := r.exists(ctx, oid)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrConflict
		}
		return domain.ErrProjectNotFound
	}

	p.Version++
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
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
		return domain.ErrProjectNotFound
	}
	return nil
}

// EnsureIndexes creates the membership lookup indexes.
func (r *ProjectRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "creator", Value: 1}}},
		{Keys: bson.D{{Key: "collaborators", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *ProjectRepository) exists(ctx context.Context, oid primitive.ObjectID) (bool, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}

func objectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}
