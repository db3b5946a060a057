package iocache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
)

// Table names for analysis history.
const (
	analysisRunsTable    = "docudash_analysis_runs"
	metricSnapshotsTable = "docudash_metric_snapshots"
)

// historyTables lists the history tables in creation order.
var historyTables = []string{analysisRunsTable, metricSnapshotsTable}

// HistoryStoreImpl records analysis runs and the datasets they produced.
// Times are stored as Unix milliseconds so every backend shares one column type.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore opens the history tables on the backend, creating them if needed.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}

	stmts, err := upStatements(backend)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create history tables: %w", err)
		}
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

func (hs *HistoryStoreImpl) table(name string) string {
	return quoteTableName(name, hs.backend)
}

// BeginRun inserts a run in the starting phase and returns its ID.
func (hs *HistoryStoreImpl) BeginRun(runUUID string, path string, startTime time.Time) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	ph := placeholders(hs.backend, 4)
	query := fmt.Sprintf(`INSERT INTO %s (run_uuid, path, start_time, phase) VALUES (%s)`,
		hs.table(analysisRunsTable), strings.Join(ph, ", "))
	args := []any{runUUID, path, startTime.UnixMilli(), string(schema.StartingPhase)}

	var runID int64
	if hs.backend == schema.PostgreSQLBackend {
		if err := hs.db.QueryRow(query+" RETURNING run_id", args...).Scan(&runID); err != nil {
			return 0, fmt.Errorf("failed to insert analysis run: %w", err)
		}
		return runID, nil
	}

	result, err := hs.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	if runID, err = result.LastInsertId(); err != nil {
		return 0, fmt.Errorf("failed to read analysis run id: %w", err)
	}
	return runID, nil
}

// EndRun stores the final phase of a run along with its duration.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, phase schema.Phase, message string, attempts int) error {
	if hs.disabled() {
		return nil
	}

	ph := placeholders(hs.backend, 2)
	var startMs int64
	selectQuery := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, hs.table(analysisRunsTable), ph[0])
	if err := hs.db.QueryRow(selectQuery, runID).Scan(&startMs); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	var msg any
	if message != "" {
		msg = message
	}
	endMs := endTime.UnixMilli()

	ph = placeholders(hs.backend, 6)
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, duration_ms = %s, phase = %s, message = %s, attempts = %s WHERE run_id = %s`,
		hs.table(analysisRunsTable), ph[0], ph[1], ph[2], ph[3], ph[4], ph[5])
	if _, err := hs.db.Exec(updateQuery, endMs, endMs-startMs, string(phase), msg, attempts, runID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordSnapshot stores every record of a loaded dataset against runID in one transaction.
func (hs *HistoryStoreImpl) RecordSnapshot(runID int64, records []schema.MetricRecord) error {
	if hs.disabled() || len(records) == 0 {
		return nil
	}

	ph := placeholders(hs.backend, 11)
	query := fmt.Sprintf(`INSERT INTO %s (run_id, row_num, identifier, level, doc_type, line_count,
		comment_density, completeness, conciseness, accuracy, overall_score) VALUES (%s)`,
		hs.table(metricSnapshotsTable), strings.Join(ph, ", "))

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		if _, err := stmt.Exec(runID, i, r.Identifier, string(r.Level), r.DocType, r.LineCount,
			r.CommentDensity, r.Completeness, r.Conciseness, r.Accuracy, r.OverallScore); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert snapshot row %q: %w", r.Identifier, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns run counts and table sizes.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.disabled() {
		return status, nil
	}

	runs := hs.table(analysisRunsTable)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastMs, oldestMs int64
		lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runs)
		if err := hs.db.QueryRow(lastQuery).Scan(&status.LastRunID, &lastMs); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runs)
		if err := hs.db.QueryRow(oldestQuery).Scan(&oldestMs); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.LastRunTime = time.UnixMilli(lastMs)
		status.OldestRunTime = time.UnixMilli(oldestMs)

		succeededQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE phase = %s", runs, placeholders(hs.backend, 1)[0])
		if err := hs.db.QueryRow(succeededQuery, string(schema.SucceededPhase)).Scan(&status.SucceededRuns); err != nil {
			return status, fmt.Errorf("failed to count succeeded runs: %w", err)
		}
	}

	for _, table := range historyTables {
		var count int64
		if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", hs.table(table))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalSnapshots = int(status.TableSizes[metricSnapshotsTable])

	return status, nil
}

// GetAllRuns retrieves every run ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.AnalysisRunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, run_uuid, path, start_time, end_time, duration_ms, phase, message, attempts
		FROM %s ORDER BY run_id`, hs.table(analysisRunsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		var startMs int64
		var endMs, durationMs sql.NullInt64
		var message sql.NullString
		if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Path, &startMs, &endMs,
			&durationMs, &record.Phase, &message, &record.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		record.StartTime = time.UnixMilli(startMs)
		if endMs.Valid {
			end := time.UnixMilli(endMs.Int64)
			record.EndTime = &end
		}
		if durationMs.Valid {
			d := durationMs.Int64
			record.DurationMs = &d
		}
		if message.Valid {
			m := message.String
			record.Message = &m
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllSnapshots retrieves every stored metric row ordered by run and row number.
func (hs *HistoryStoreImpl) GetAllSnapshots() ([]schema.MetricSnapshotRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, identifier, level, doc_type, line_count,
		comment_density, completeness, conciseness, accuracy, overall_score
		FROM %s ORDER BY run_id, row_num`, hs.table(metricSnapshotsTable))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.MetricSnapshotRecord
	for rows.Next() {
		var r schema.MetricSnapshotRecord
		if err := rows.Scan(&r.RunID, &r.Identifier, &r.Level, &r.DocType, &r.LineCount,
			&r.CommentDensity, &r.Completeness, &r.Conciseness, &r.Accuracy, &r.OverallScore); err != nil {
			return nil, fmt.Errorf("failed to scan metric snapshot: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metric snapshots: %w", err)
	}
	return results, nil
}
