package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirpyerre/payroll-api/internal/core/domain"
)

const collectionEmployees = "employees"

// EmployeeRepository implements ports.EmployeeRepository using MongoDB.
type EmployeeRepository struct {
	col *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) *EmployeeRepository {
	return &EmployeeRepository{col: db.Collection(collectionEmployees)}
}

type employeeDocument struct {
	ID         string                `bson:"_id"`
	Name       string                `bson:"name"`
	Role       string                `bson:"role"`
	Salary     *primitive.Decimal128 `bson:"salary,omitempty"`
	Department string                `bson:"department"`
	HiringDate *time.Time            `bson:"hiring_date,omitempty"`
	CreatedAt  time.Time             `bson:"created_at"`
	UpdatedAt  time.Time             `bson:"updated_at"`
}

// FindAll returns every employee in insertion order.
func (r *EmployeeRepository) FindAll(ctx context.Context) ([]*domain.Employee, error) {
	return r.find(ctx, bson.M{})
}

// FindByDepartment returns employees whose department matches exactly.
func (r *EmployeeRepository) FindByDepartment(ctx context.Context, department string) ([]*domain.Employee, error) {
	return r.find(ctx, bson.M{"department": department})
}

func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc employeeDocument
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, err
	}
	return fromDocument(&doc)
}

// Create assigns a UUID and inserts the employee.
func (r *EmployeeRepository) Create(ctx context.Context, e *domain.Employee) (*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stored := e.Clone()
	stored.ID = uuid.NewString()

	doc, err := toDocument(stored)
	if err != nil {
		return nil, err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert employee: %w", err)
	}
	return stored, nil
}

// Update replaces the mutable fields of an existing employee. The department
// and creation time are never written.
func (r *EmployeeRepository) Update(ctx context.Context, e *domain.Employee) (*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toDocument(e)
	if err != nil {
		return nil, err
	}

	set := bson.M{
		"name":       doc.Name,
		"role":       doc.Role,
		"updated_at": doc.UpdatedAt,
	}
	unset := bson.M{}
	if doc.Salary != nil {
		set["salary"] = *doc.Salary
	} else {
		unset["salary"] = ""
	}
	if doc.HiringDate != nil {
		set["hiring_date"] = *doc.HiringDate
	} else {
		unset["hiring_date"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var updated employeeDocument
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": e.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return fromDocument(&updated)
}

func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the employees collection.
func (r *EmployeeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "department", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *EmployeeRepository) find(ctx context.Context, filter bson.M) ([]*domain.Employee, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find employees: %w", err)
	}
	defer cur.Close(ctx)

	employees := make([]*domain.Employee, 0)
	for cur.Next(ctx) {
		var doc employeeDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode employee: %w", err)
		}
		e, err := fromDocument(&doc)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}
	return employees, nil
}

func toDocument(e *domain.Employee) (*employeeDocument, error) {
	doc := &employeeDocument{
		ID:         e.ID,
		Name:       e.Name,
		Role:       e.Role,
		Department: e.Department,
		HiringDate: domain.NormalizeDate(e.HiringDate),
		CreatedAt:  e.CreatedAt.UTC(),
		UpdatedAt:  e.UpdatedAt.UTC(),
	}
	if e.Salary != nil {
		d, err := primitive.ParseDecimal128(e.Salary.String())
		if err != nil {
			return nil, fmt.Errorf("encode salary %s: %w", e.Salary, err)
		}
		doc.Salary = &d
	}
	return doc, nil
}

// fromDocument maps a stored document back to the domain. A salary that does
// not parse is reported as a malformed record.
func fromDocument(doc *employeeDocument) (*domain.Employee, error) {
	e := &domain.Employee{
		ID:         doc.ID,
		Name:       doc.Name,
		Role:       doc.Role,
		Department: doc.Department,
		HiringDate: domain.NormalizeDate(doc.HiringDate),
		CreatedAt:  doc.CreatedAt.UTC(),
		UpdatedAt:  doc.UpdatedAt.UTC(),
	}
	if doc.Salary != nil {
		d, err := decimal.NewFromString(doc.Salary.String())
		if err != nil {
			return nil, fmt.Errorf("employee %s salary %q: %w", doc.ID, doc.Salary.String(), domain.ErrInvalidState)
		}
		e.Salary = &d
	}
	return e, nil
}
