package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"daily-scripture/internal/model"
)

const (
	DefaultCollection = "daily_scripture"

	batchSize = 250 // Stay well under Firestore's 500 operation limit

	recordTitle = "Daily Scripture"
	videoTitle  = "Daily Reading"
)

// Document field names per section.
var (
	verseFields = map[model.SectionKind]string{
		model.FirstReading:      "first_reading_verse",
		model.SecondReading:     "second_reading_verse",
		model.ResponsorialPsalm: "responsorial_psalm_verse",
		model.Gospel:            "gospel_verse",
	}
	textFields = map[model.SectionKind]string{
		model.FirstReading:      "first_reading",
		model.SecondReading:     "second_reading",
		model.ResponsorialPsalm: "responsorial_psalm",
		model.Gospel:            "gospel",
	}
)

const psalmResponseField = "responsorial_psalm_response"

// Client wraps the Firestore client for daily reading documents.
type Client struct {
	client     *firestore.Client
	collection string
	projectID  string
}

// New creates a new Firestore client.
func New(ctx context.Context, projectID, collection string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	if collection == "" {
		collection = DefaultCollection
	}
	return &Client{
		client:     client,
		collection: collection,
		projectID:  projectID,
	}, nil
}

// Close closes the Firestore client.
func (c *Client) Close() error {
	return c.client.Close()
}

// Name identifies the project and collection the client writes to.
func (c *Client) Name() string {
	return c.projectID + "/" + c.collection
}

// UpsertReading merges a reading record into its date's document. Only the
// fields present in the record are written.
func (c *Client) UpsertReading(ctx context.Context, rec model.DailyReadingRecord) error {
	doc := c.client.Collection(c.collection).Doc(rec.Date)
	if _, err := doc.Set(ctx, readingToMap(rec), firestore.MergeAll); err != nil {
		return fmt.Errorf("upserting %s: %w", rec.Date, err)
	}
	return nil
}

// GetReading retrieves the document for a date. found is false when the
// document does not exist.
func (c *Client) GetReading(ctx context.Context, date string) (reading model.StoredReading, found bool, err error) {
	snap, err := c.client.Collection(c.collection).Doc(date).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return model.StoredReading{}, false, nil
	}
	if err != nil {
		return model.StoredReading{}, false, fmt.Errorf("getting %s: %w", date, err)
	}
	return mapToReading(snap.Ref.ID, snap.Data()), true, nil
}

// ListReadings retrieves all documents whose date id lies in [from, to].
func (c *Client) ListReadings(ctx context.Context, from, to string) ([]model.StoredReading, error) {
	var readings []model.StoredReading

	iter := c.client.Collection(c.collection).
		OrderBy(firestore.DocumentID, firestore.Asc).
		StartAt(from).
		EndAt(to).
		Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating documents: %w", err)
		}
		readings = append(readings, mapToReading(doc.Ref.ID, doc.Data()))
	}

	return readings, nil
}

// DeleteReadings deletes the documents for the given dates.
func (c *Client) DeleteReadings(ctx context.Context, dates []string) error {
	coll := c.client.Collection(c.collection)

	for i := 0; i < len(dates); i += batchSize {
		end := min(i+batchSize, len(dates))
		batch := c.client.Batch()

		for _, date := range dates[i:end] {
			batch.Delete(coll.Doc(date))
		}

		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("committing delete batch: %w", err)
		}
	}

	return nil
}

// SetVideoURL records a reflection video link on a date's document,
// creating a minimal document when none exists yet.
func (c *Client) SetVideoURL(ctx context.Context, date, field, url string) error {
	doc := c.client.Collection(c.collection).Doc(date)

	_, err := doc.Update(ctx, []firestore.Update{
		{Path: field, Value: url},
		{Path: "updatedAt", Value: firestore.ServerTimestamp},
	})
	if status.Code(err) == codes.NotFound {
		_, err = doc.Set(ctx, map[string]interface{}{
			"title":     videoTitle,
			"reference": date,
			field:       url,
			"updatedAt": firestore.ServerTimestamp,
		})
	}
	if err != nil {
		return fmt.Errorf("setting %s on %s: %w", field, date, err)
	}
	return nil
}

// readingToMap converts a record to a Firestore document map. Absent
// sections and texts are left out so a merge never clears stored values.
func readingToMap(rec model.DailyReadingRecord) map[string]interface{} {
	m := map[string]interface{}{
		"id":        rec.Date,
		"title":     recordTitle,
		"updatedAt": firestore.ServerTimestamp,
	}
	if rec.SourceURL != "" {
		m["usccb_link"] = rec.SourceURL
	}
	if !rec.FetchedAt.IsZero() {
		m["fetchedAt"] = rec.FetchedAt
	}
	if rec.Strategy != "" {
		m["extraction_strategy"] = rec.Strategy
	}

	for _, kind := range model.Sections {
		sec, ok := rec.Section(kind)
		if !ok || sec.Reference == "" {
			continue
		}
		m[verseFields[kind]] = sec.Reference
		if sec.Text != nil {
			m[textFields[kind]] = *sec.Text
		}
		if kind == model.ResponsorialPsalm && sec.Response != nil {
			m[psalmResponseField] = *sec.Response
		}
	}

	if gospel, ok := rec.Section(model.Gospel); ok && gospel.Reference != "" {
		m["reference"] = gospel.Reference
		m["body"] = "Gospel: " + gospel.Reference
	}

	return m
}

// mapToReading converts a Firestore document map to a StoredReading.
func mapToReading(id string, m map[string]interface{}) model.StoredReading {
	r := model.StoredReading{
		ID:     id,
		Verses: make(map[model.SectionKind]string),
		Texts:  make(map[model.SectionKind]string),
		Videos: make(map[string]string),
	}

	if v, ok := m["title"].(string); ok {
		r.Title = v
	}
	if v, ok := m["reference"].(string); ok {
		r.Reference = v
	}
	if v, ok := m["body"].(string); ok {
		r.Body = v
	}
	if v, ok := m["usccb_link"].(string); ok {
		r.USCCBLink = v
	}
	if v, ok := m["extraction_strategy"].(string); ok {
		r.Strategy = v
	}
	if v, ok := m[psalmResponseField].(string); ok {
		r.PsalmResponse = v
	}
	for kind, field := range verseFields {
		if v, ok := m[field].(string); ok && v != "" {
			r.Verses[kind] = v
		}
	}
	for kind, field := range textFields {
		if v, ok := m[field].(string); ok && v != "" {
			r.Texts[kind] = v
		}
	}
	for _, field := range model.VideoFields {
		if v, ok := m[field].(string); ok && v != "" {
			r.Videos[field] = v
		}
	}

	return r
}
