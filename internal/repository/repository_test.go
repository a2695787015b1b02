package repository

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/Eursukkul/ewm-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// --- Dry-run gorm ---

type statement struct {
	SQL  string
	Vars []any
}

// dryRunDB builds statements against the postgres dialector without a server
// and records every create and query statement it generates.
func dryRunDB(t *testing.T) (*gorm.DB, *[]statement) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=postgres dbname=ewm_db sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	var captured []statement
	capture := func(tx *gorm.DB) {
		captured = append(captured, statement{
			SQL:  tx.Statement.SQL.String(),
			Vars: slices.Clone(tx.Statement.Vars),
		})
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	return db, &captured
}

// insertedValues pairs the column list of a single-row INSERT with its vars.
func insertedValues(t *testing.T, st statement) map[string]any {
	t.Helper()
	open := strings.Index(st.SQL, "(")
	end := strings.Index(st.SQL, ")")
	require.True(t, open >= 0 && end > open, "not an insert: %s", st.SQL)

	columns := strings.Split(st.SQL[open+1:end], ",")
	require.GreaterOrEqual(t, len(st.Vars), len(columns))

	values := make(map[string]any, len(columns))
	for i, col := range columns {
		values[strings.Trim(col, `" `)] = st.Vars[i]
	}
	return values
}

// --- Tests ---

func TestEventRepository_CreateKeepsFalseFlags(t *testing.T) {
	db, captured := dryRunDB(t)
	repo := NewEventRepository(db)
	event := &models.Event{
		Title:             "Go Meetup",
		Annotation:        "Monthly meetup of the Bangkok Go community",
		Description:       "Talks about generics, iterators and the new http router",
		CategoryID:        1,
		InitiatorID:       1,
		EventDate:         time.Date(2030, 5, 1, 18, 0, 0, 0, time.UTC),
		Paid:              false,
		ParticipantLimit:  0,
		RequestModeration: false,
		State:             models.EventPending,
		CreatedOn:         time.Date(2030, 4, 1, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, repo.Create(context.Background(), event))

	assert.False(t, event.RequestModeration)
	require.Len(t, *captured, 1)
	st := (*captured)[0]
	assert.Contains(t, st.SQL, `INSERT INTO "events"`)

	values := insertedValues(t, st)
	assert.Equal(t, false, values["request_moderation"])
	assert.Equal(t, false, values["paid"])
	assert.Equal(t, 0, values["participant_limit"])
	assert.Equal(t, models.EventPending, values["state"])
}

func TestEventRepository_FindByIDForUpdateLocksRow(t *testing.T) {
	db, captured := dryRunDB(t)
	repo := NewEventRepository(db)

	_, err := repo.FindByIDForUpdate(context.Background(), db, 5)

	require.NoError(t, err)
	require.Len(t, *captured, 1)
	st := (*captured)[0]
	assert.Contains(t, st.SQL, `FROM "events"`)
	assert.True(t, strings.HasSuffix(st.SQL, "FOR UPDATE"), st.SQL)
	assert.Contains(t, st.Vars, uint(5))
}

func TestLedgerRepository_AddUpsertsIncrement(t *testing.T) {
	db, captured := dryRunDB(t)
	repo := NewLedgerRepository(db)

	require.NoError(t, repo.Add(context.Background(), db, 7, -1))

	require.Len(t, *captured, 1)
	st := (*captured)[0]
	assert.Contains(t, st.SQL, `INSERT INTO "participation_ledger"`)
	assert.Contains(t, st.SQL, `ON CONFLICT ("event_id") DO UPDATE SET`)
	assert.Contains(t, st.SQL, "participation_ledger.confirmed + ")

	values := insertedValues(t, st)
	assert.Equal(t, uint(7), values["event_id"])
	assert.Equal(t, -1, values["confirmed"])
}

func TestLedgerRepository_AddZeroIsNoop(t *testing.T) {
	db, captured := dryRunDB(t)

	require.NoError(t, NewLedgerRepository(db).Add(context.Background(), db, 7, 0))

	assert.Empty(t, *captured)
}

func TestLedgerRepository_SetOverwritesCount(t *testing.T) {
	db, captured := dryRunDB(t)

	require.NoError(t, NewLedgerRepository(db).Set(context.Background(), db, 3, 12))

	require.Len(t, *captured, 1)
	st := (*captured)[0]
	assert.Contains(t, st.SQL, `"confirmed"="excluded"."confirmed"`)
	assert.Equal(t, 12, insertedValues(t, st)["confirmed"])
}

func TestRequestRepository_FindActiveIgnoresCanceled(t *testing.T) {
	db, captured := dryRunDB(t)

	_, err := NewRequestRepository(db).FindActiveByRequesterAndEvent(context.Background(), db, 2, 7)

	require.NoError(t, err)
	require.Len(t, *captured, 1)
	st := (*captured)[0]
	assert.Contains(t, st.SQL, `FROM "requests"`)
	assert.Contains(t, st.SQL, "requester_id = $1 AND event_id = $2 AND status <> $3")
	require.GreaterOrEqual(t, len(st.Vars), 3)
	assert.Equal(t, []any{uint(2), uint(7), models.RequestCanceled}, st.Vars[:3])
}
