package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
)

func makeRecord(i int, typ model.PredictionType) model.PredictionRecord {
	record := model.PredictionRecord{
		ID:        fmt.Sprintf("rec-%02d", i),
		Type:      typ,
		Result:    fmt.Sprintf("result %d", i),
		Timestamp: time.Date(2025, 3, 1, 10, i, 0, 0, time.UTC),
	}
	if typ == model.PredictionTabular {
		record.Data = &model.TabularSample{
			MaximumTemperature: 34,
			MinimumTemperature: 22,
			Temperature:        28,
			Precipitation:      float64(i),
			SoilPH:             6.5,
			RelativeHumidity:   80,
		}
	}
	return record
}

func TestSQLiteStorage_AppendAndFetchAll(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	want := []model.PredictionRecord{
		makeRecord(1, model.PredictionImage),
		makeRecord(2, model.PredictionTabular),
		makeRecord(3, model.PredictionImage),
	}
	for _, rec := range want {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append(%s) failed: %v", rec.ID, err)
		}
	}

	got, err := store.FetchAll(ctx)
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("FetchAll returned %d records, want %d", len(got), len(want))
	}

	for i := range want {
		if got[i].ID != want[i].ID || got[i].Type != want[i].Type || got[i].Result != want[i].Result {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("record %d timestamp = %v, want %v", i, got[i].Timestamp, want[i].Timestamp)
		}
	}

	if got[0].Data != nil {
		t.Error("image record should have no tabular data")
	}
	if got[1].Data == nil || got[1].Data.Precipitation != 2 || got[1].Data.SoilPH != 6.5 {
		t.Errorf("tabular data not round-tripped: %+v", got[1].Data)
	}

	count, err := store.CountPredictions(ctx)
	if err != nil {
		t.Fatalf("CountPredictions failed: %v", err)
	}
	if count != 3 {
		t.Errorf("CountPredictions = %d, want 3", count)
	}
}

func TestSQLiteStorage_FetchAllEmpty(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	got, err := store.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no records, got %d", len(got))
	}
}

func TestSQLiteStorage_AppendInvalid(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		name   string
		record model.PredictionRecord
	}{
		{
			name:   "missing id",
			record: model.PredictionRecord{Type: model.PredictionImage, Result: "Healthy", Timestamp: time.Now()},
		},
		{
			name:   "unknown type",
			record: model.PredictionRecord{ID: "x", Type: "Audio", Result: "Healthy", Timestamp: time.Now()},
		},
		{
			name:   "missing timestamp",
			record: model.PredictionRecord{ID: "x", Type: model.PredictionImage, Result: "Healthy"},
		},
		{
			name: "image with data",
			record: model.PredictionRecord{
				ID: "x", Type: model.PredictionImage, Result: "Healthy", Timestamp: time.Now(),
				Data: &model.TabularSample{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Append(ctx, tt.record)
			if !errors.Is(err, common.ErrPersistence) {
				t.Errorf("Append error = %v, want ErrPersistence", err)
			}
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Append error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestSQLiteStorage_AppendDuplicateID(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rec := makeRecord(1, model.PredictionImage)
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("first Append failed: %v", err)
	}
	if err := store.Append(ctx, rec); !errors.Is(err, common.ErrPersistence) {
		t.Errorf("duplicate Append error = %v, want ErrPersistence", err)
	}
}

func TestSQLiteStorage_ClosedDatabase(t *testing.T) {
	store, cleanup := createTestStorage(t)
	cleanup()

	if err := store.Append(context.Background(), makeRecord(1, model.PredictionImage)); !errors.Is(err, common.ErrPersistence) {
		t.Errorf("Append on closed db error = %v, want ErrPersistence", err)
	}
	if _, err := store.FetchAll(context.Background()); !errors.Is(err, common.ErrPersistence) {
		t.Errorf("FetchAll on closed db error = %v, want ErrPersistence", err)
	}
}
