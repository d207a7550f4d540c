package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogem/entrylog/database"
	"github.com/blogem/entrylog/models"
)

// entryDocument is the BSON shape of an entry in the items collection
type entryDocument struct {
	ID          primitive.ObjectID  `bson:"_id"`
	Name        string              `bson:"name,omitempty"`
	Description string              `bson:"description,omitempty"`
	ImageURL    string              `bson:"imageURL,omitempty"`
	Date        int64               `bson:"date"`
	TypeOfEnter string              `bson:"typeOfEnter"`
	Tags        []string            `bson:"tags"`
	ResidentID  *primitive.ObjectID `bson:"residentId,omitempty"`
	Extra       bson.M              `bson:",inline"`
}

// mongoEntryRepository implements EntryRepository over a MongoDB collection
type mongoEntryRepository struct {
	items *mongo.Collection
}

// NewMongoEntryRepository creates a new MongoDB-backed entry repository
func NewMongoEntryRepository(db *mongo.Database) EntryRepository {
	return &mongoEntryRepository{items: db.Collection(database.ItemsCollection)}
}

// Create inserts a new entry
func (r *mongoEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	doc, err := toDocument(entry)
	if err != nil {
		return err
	}

	if _, err := r.items.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// List returns a window of entries, most recent first
func (r *mongoEntryRepository) List(ctx context.Context, offset int64, limit int) ([]models.Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: models.FieldDate, Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(offset).
		SetLimit(int64(limit))

	cursor, err := r.items.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.Entry{}
	for cursor.Next(ctx) {
		var doc entryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode entry: %w", err)
		}
		entries = append(entries, *fromDocument(&doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

// Count returns the total number of entries
func (r *mongoEntryRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.items.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Update overwrites the fields in patch and returns the updated entry
func (r *mongoEntryRepository) Update(ctx context.Context, id string, patch map[string]json.RawMessage) (*models.Entry, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	update, err := buildUpdate(patch)
	if err != nil {
		return nil, err
	}

	filter := bson.D{{Key: "_id", Value: oid}}
	var result *mongo.SingleResult
	if len(update) == 0 {
		result = r.items.FindOne(ctx, filter)
	} else {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		result = r.items.FindOneAndUpdate(ctx, filter, update, opts)
	}

	var doc entryDocument
	if err := result.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	return fromDocument(&doc), nil
}

// Delete deletes an entry by ID
func (r *mongoEntryRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	result, err := r.items.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// buildUpdate turns a JSON patch into $set/$unset operators. Known fields are
// type-checked by applying the patch to a probe entry first.
func buildUpdate(patch map[string]json.RawMessage) (bson.D, error) {
	probe := models.Entry{TypeOfEnter: models.EntryTypeGuest}
	if err := probe.ApplyPatch(patch); err != nil {
		return nil, err
	}

	set := bson.M{}
	unset := bson.M{}
	for key, raw := range patch {
		if key == models.FieldID || key == "id" {
			continue
		}

		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) && key != models.FieldTags {
			unset[key] = ""
			continue
		}

		switch key {
		case models.FieldName:
			set[key] = probe.Name
		case models.FieldDescription:
			set[key] = probe.Description
		case models.FieldImageURL:
			set[key] = probe.ImageURL
		case models.FieldDate:
			set[key] = probe.Date
		case models.FieldTypeOfEnter:
			set[key] = string(probe.TypeOfEnter)
		case models.FieldTags:
			tags := probe.Tags
			if tags == nil {
				tags = []string{}
			}
			set[key] = tags
		case models.FieldResidentID:
			if probe.ResidentID == "" {
				unset[key] = ""
				continue
			}
			oid, err := primitive.ObjectIDFromHex(probe.ResidentID)
			if err != nil {
				return nil, fmt.Errorf("%w: residentId: %v", models.ErrInvalidEntry, err)
			}
			set[key] = oid
		default:
			set[key] = probe.Extra[key]
		}
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update, nil
}

func toDocument(entry *models.Entry) (*entryDocument, error) {
	oid, err := primitive.ObjectIDFromHex(entry.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, entry.ID)
	}

	doc := &entryDocument{
		ID:          oid,
		Name:        entry.Name,
		Description: entry.Description,
		ImageURL:    entry.ImageURL,
		Date:        entry.Date,
		TypeOfEnter: string(entry.TypeOfEnter),
		Tags:        entry.Tags,
		Extra:       bson.M{},
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	if entry.ResidentID != "" {
		resident, err := primitive.ObjectIDFromHex(entry.ResidentID)
		if err != nil {
			return nil, fmt.Errorf("%w: residentId: %v", models.ErrInvalidEntry, err)
		}
		doc.ResidentID = &resident
	}

	for k, v := range entry.Extra {
		doc.Extra[k] = v
	}

	return doc, nil
}

func fromDocument(doc *entryDocument) *models.Entry {
	entry := &models.Entry{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Description: doc.Description,
		ImageURL:    doc.ImageURL,
		Date:        doc.Date,
		TypeOfEnter: models.EntryType(doc.TypeOfEnter),
		Tags:        doc.Tags,
	}
	if doc.ResidentID != nil {
		entry.ResidentID = doc.ResidentID.Hex()
	}

	if len(doc.Extra) > 0 {
		entry.Extra = make(map[string]any, len(doc.Extra))
		for k, v := range doc.Extra {
			entry.Extra[k] = plainValue(v)
		}
	}

	return entry
}

// plainValue converts nested BSON containers into JSON-friendly maps and slices
func plainValue(v any) any {
	switch val := v.(type) {
	case primitive.D:
		m := make(map[string]any, len(val))
		for _, e := range val {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = plainValue(e)
		}
		return m
	case primitive.A:
		s := make([]any, len(val))
		for i, e := range val {
			s[i] = plainValue(e)
		}
		return s
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return int64(val)
	default:
		return v
	}
}
