package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"template_purifier/internal/models"
	"template_purifier/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
)

var stateCols = []string{"entity_id", "state", "attributes", "last_changed", "last_updated"}

func newStateRepo(t *testing.T) (*repository.StateSQLite, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return repository.NewStateSQLite(db), mock
}

func TestStateSQLite_Get_FoundParsesAttributes(t *testing.T) {
	repo, mock := newStateRepo(t)

	ts := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM entity_states WHERE entity_id=?")).
		WithArgs("sensor.bedroom_pm25").
		WillReturnRows(sqlmock.NewRows(stateCols).
			AddRow("sensor.bedroom_pm25", "12", `{"unit_of_measurement":"µg/m³"}`, ts, ts))

	got, ok, err := repo.Get(context.Background(), "sensor.bedroom_pm25")
	if err != nil || !ok {
		t.Fatalf("Get() = ok=%v err=%v", ok, err)
	}
	want := models.EntityState{
		EntityID:    "sensor.bedroom_pm25",
		State:       "12",
		Attributes:  map[string]any{"unit_of_measurement": "µg/m³"},
		LastChanged: ts,
		LastUpdated: ts,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Get() mismatch (-want +got):\n%s", diff)
	}
}

func TestStateSQLite_Get_NotFound(t *testing.T) {
	repo, mock := newStateRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM entity_states WHERE entity_id=?")).
		WithArgs("sensor.missing").
		WillReturnError(sql.ErrNoRows)

	_, ok, err := repo.Get(context.Background(), "sensor.missing")
	if err != nil {
		t.Fatalf("Get() unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("Get() expected ok=false for missing entity")
	}
}

func TestStateSQLite_List_InvalidAttributesReturnsError(t *testing.T) {
	repo, mock := newStateRepo(t)

	ts := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM entity_states ORDER BY entity_id ASC")).
		WillReturnRows(sqlmock.NewRows(stateCols).
			AddRow("input_boolean.purifier_switch", "on", nil, ts, ts).
			AddRow("sensor.broken", "1", `[not json`, ts, ts))

	if _, err := repo.List(context.Background()); err == nil {
		t.Fatalf("List() expected error for malformed attributes")
	}
}

func TestStateSQLite_List_Ordered(t *testing.T) {
	repo, mock := newStateRepo(t)

	ts := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM entity_states ORDER BY entity_id ASC")).
		WillReturnRows(sqlmock.NewRows(stateCols).
			AddRow("input_boolean.purifier_switch", "on", nil, ts, ts).
			AddRow("sensor.room_humidity", "41", nil, ts, ts))

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 2 || got[0].EntityID != "input_boolean.purifier_switch" || got[1].State != "41" {
		t.Fatalf("List() unexpected rows: %+v", got)
	}
	if got[0].Attributes != nil {
		t.Fatalf("expected nil attributes for NULL column, got %#v", got[0].Attributes)
	}
}

func TestStateSQLite_Set_NewEntityStampsBothTimes(t *testing.T) {
	repo, mock := newStateRepo(t)

	now := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM entity_states WHERE entity_id=?")).
		WithArgs("input_boolean.purifier_switch").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entity_states")).
		WithArgs("input_boolean.purifier_switch", "on", sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := repo.Set(context.Background(), models.EntityState{
		EntityID:    " input_boolean.purifier_switch ",
		State:       "on",
		LastUpdated: now,
	})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if !got.LastChanged.Equal(now) || !got.LastUpdated.Equal(now) {
		t.Fatalf("Set() timestamps: changed=%v updated=%v", got.LastChanged, got.LastUpdated)
	}
}

func TestStateSQLite_Set_SameStateKeepsLastChanged(t *testing.T) {
	repo, mock := newStateRepo(t)

	changed := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	now := changed.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM entity_states WHERE entity_id=?")).
		WithArgs("sensor.room_temperature").
		WillReturnRows(sqlmock.NewRows(stateCols).
			AddRow("sensor.room_temperature", "21.5", nil, changed, changed))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entity_states")).
		WithArgs("sensor.room_temperature", "21.5", `{"unit_of_measurement":"°C"}`, changed, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := repo.Set(context.Background(), models.EntityState{
		EntityID:    "sensor.room_temperature",
		State:       "21.5",
		Attributes:  map[string]any{"unit_of_measurement": "°C"},
		LastUpdated: now,
	})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if !got.LastChanged.Equal(changed) {
		t.Fatalf("expected last_changed preserved at %v, got %v", changed, got.LastChanged)
	}
	if !got.LastUpdated.Equal(now) {
		t.Fatalf("expected last_updated %v, got %v", now, got.LastUpdated)
	}
}

func TestStateSQLite_Set_ChangedStateMovesLastChanged(t *testing.T) {
	repo, mock := newStateRepo(t)

	changed := time.Date(2025, 6, 1, 7, 0, 0, 0, time.UTC)
	now := changed.Add(time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM entity_states WHERE entity_id=?")).
		WithArgs("input_boolean.purifier_switch").
		WillReturnRows(sqlmock.NewRows(stateCols).
			AddRow("input_boolean.purifier_switch", "off", nil, changed, changed))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entity_states")).
		WithArgs("input_boolean.purifier_switch", "on", sqlmock.AnyArg(), now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	got, err := repo.Set(context.Background(), models.EntityState{
		EntityID:    "input_boolean.purifier_switch",
		State:       "on",
		LastUpdated: now,
	})
	if err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if !got.LastChanged.Equal(now) {
		t.Fatalf("expected last_changed moved to %v, got %v", now, got.LastChanged)
	}
}

func TestStateSQLite_Set_ExecErrorRollsBack(t *testing.T) {
	repo, mock := newStateRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM entity_states WHERE entity_id=?")).
		WithArgs("input_number.purifier_fan_speed").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entity_states")).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := repo.Set(context.Background(), models.EntityState{
		EntityID: "input_number.purifier_fan_speed",
		State:    "40",
	})
	if err == nil {
		t.Fatalf("Set() expected error, got nil")
	}
}

func TestStateSQLite_Set_EmptyIDRejected(t *testing.T) {
	repo, _ := newStateRepo(t)

	if _, err := repo.Set(context.Background(), models.EntityState{EntityID: "  ", State: "on"}); err == nil {
		t.Fatalf("Set() expected error for empty entity id")
	}
}
