package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	journaldomain "github.com/smallbiznis/dropin/internal/journal/domain"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestInsertAndFindByEnvelope(t *testing.T) {
	db := setupJournalTestDB(t)
	repo := Provide()
	node := newTestNode(t)

	record := &journaldomain.ResultRecord{
		ID:          node.Generate(),
		AppID:       "com.example.shop",
		EnvelopeID:  node.Generate(),
		RequestType: "payments_request",
		ResultType:  "finished",
		Result:      datatypes.JSON(`{"type":"finished","payload":"Authorised"}`),
		DeliveredAt: time.Now().UTC(),
	}
	if err := repo.Insert(context.Background(), db, record); err != nil {
		t.Fatalf("insert: %v", err)
	}

	found, err := repo.FindByEnvelope(context.Background(), db, record.EnvelopeID)
	if err != nil {
		t.Fatalf("find by envelope: %v", err)
	}
	if found.ID != record.ID || found.ResultType != "finished" {
		t.Fatalf("unexpected record: %+v", found)
	}
	if string(found.Result) != string(record.Result) {
		t.Fatalf("result payload mismatch: %s", found.Result)
	}
}

func TestFindByEnvelopeNotFound(t *testing.T) {
	db := setupJournalTestDB(t)
	repo := Provide()

	_, err := repo.FindByEnvelope(context.Background(), db, 12345)
	if !errors.Is(err, journaldomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLatestForApp(t *testing.T) {
	db := setupJournalTestDB(t)
	repo := Provide()
	node := newTestNode(t)

	for _, resultType := range []string{"error", "finished"} {
		record := &journaldomain.ResultRecord{
			ID:          node.Generate(),
			AppID:       "com.example.shop",
			EnvelopeID:  node.Generate(),
			RequestType: "payments_request",
			ResultType:  resultType,
			Result:      datatypes.JSON(`{"type":"` + resultType + `"}`),
			DeliveredAt: time.Now().UTC(),
		}
		if err := repo.Insert(context.Background(), db, record); err != nil {
			t.Fatalf("insert %s: %v", resultType, err)
		}
	}

	latest, err := repo.LatestForApp(context.Background(), db, "com.example.shop")
	if err != nil {
		t.Fatalf("latest for app: %v", err)
	}
	if latest.ResultType != "finished" {
		t.Fatalf("expected most recent record, got %+v", latest)
	}

	if _, err := repo.LatestForApp(context.Background(), db, "com.other.shop"); !errors.Is(err, journaldomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other app, got %v", err)
	}
}

func TestInsertRejectsInvalidRecord(t *testing.T) {
	db := setupJournalTestDB(t)
	repo := Provide()

	err := repo.Insert(context.Background(), db, &journaldomain.ResultRecord{})
	if !errors.Is(err, journaldomain.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func setupJournalTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new snowflake node: %v", err)
	}
	return node
}
