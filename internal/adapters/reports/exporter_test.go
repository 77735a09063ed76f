package reports

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/jpong0810/fund-review-tracker/internal/blob"
	"github.com/jpong0810/fund-review-tracker/internal/core"
	"github.com/jpong0810/fund-review-tracker/pkg/domain"
)

func memoryStoreWithRules(t *testing.T, cfg domain.PipelineConfig) domain.PersistentStore {
	t.Helper()
	t.Setenv("FUNDREVIEW_STORAGE_DRIVER", "memory")
	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine(cfg))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func newReportService(t *testing.T) *core.Service {
	t.Helper()
	cfg := domain.DefaultPipelineConfig()
	store := memoryStoreWithRules(t, cfg)
	now, err := time.Parse(domain.DateLayout, "2024-05-10")
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	return core.NewService(store, cfg, core.WithClock(func() time.Time { return now }))
}

func seedPortfolio(t *testing.T, svc *core.Service) {
	t.Helper()
	ctx := context.Background()
	seeds := []struct {
		input core.NewFundInput
		stage domain.Stage
	}{
		{core.NewFundInput{FundName: "Acme Fund III", FundID: "ACME-3", Analyst: "Jordan", AssignedDate: "2024-05-01", Ord: 1}, domain.StageAnalystReview},
		{core.NewFundInput{FundName: "Borealis Growth II", FundID: "BOR-2", Analyst: "Riley", AssignedDate: "2024-05-03", Ord: 2}, domain.StageRejected},
	}
	for _, seed := range seeds {
		created, err := svc.AddFund(ctx, seed.input)
		if err != nil {
			t.Fatalf("seed %s: %v", seed.input.FundName, err)
		}
		if _, err := svc.AdvanceStage(ctx, created.ID, seed.stage); err != nil {
			t.Fatalf("stage %s: %v", seed.input.FundName, err)
		}
	}
}

func waitForExport(t *testing.T, worker *Worker, id string) ExportRecord {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		record, ok := worker.GetExport(id)
		if !ok {
			t.Fatalf("export %s vanished", id)
		}
		if record.Status == ExportStatusSucceeded || record.Status == ExportStatusFailed {
			return record
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("export %s did not finish", id)
	return ExportRecord{}
}

func TestWorkerExportsFilteredViews(t *testing.T) {
	svc := newReportService(t)
	seedPortfolio(t, svc)
	store := blob.NewMemory()
	audit := &MemoryAuditLog{}
	worker := NewWorker(svc, store, audit, nil)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	queued, err := worker.EnqueueExport(context.Background(), ExportInput{
		Filter:      core.FilterSpec{Analyst: "Jordan"},
		RequestedBy: "jordan",
		Reason:      "weekly pipeline report",
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if queued.Status != ExportStatusQueued {
		t.Fatalf("status: %s", queued.Status)
	}

	record := waitForExport(t, worker, queued.ID)
	if record.Status != ExportStatusSucceeded {
		t.Fatalf("export failed: %s", record.Error)
	}
	if len(record.Artifacts) != 2 {
		t.Fatalf("expected csv and json artifacts, got %d", len(record.Artifacts))
	}

	var csvArtifact, jsonArtifact *ExportArtifact
	for i := range record.Artifacts {
		switch record.Artifacts[i].Format {
		case FormatCSV:
			csvArtifact = &record.Artifacts[i]
		case FormatJSON:
			jsonArtifact = &record.Artifacts[i]
		}
	}
	if csvArtifact == nil || jsonArtifact == nil {
		t.Fatalf("artifact formats missing: %+v", record.Artifacts)
	}

	_, rc, err := store.Get(context.Background(), csvArtifact.Key)
	if err != nil {
		t.Fatalf("fetch csv: %v", err)
	}
	rows, err := csv.NewReader(rc).ReadAll()
	_ = rc.Close()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	// Header plus the single Jordan-owned record.
	if len(rows) != 2 {
		t.Fatalf("csv rows: %d", len(rows))
	}
	if len(rows[0]) != len(core.ExportColumns) {
		t.Fatalf("header width: %d", len(rows[0]))
	}

	_, rc, err = store.Get(context.Background(), jsonArtifact.Key)
	if err != nil {
		t.Fatalf("fetch json: %v", err)
	}
	payload, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var decoded struct {
		Summary core.Summary        `json:"summary"`
		Reviews []domain.FundReview `json:"reviews"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if decoded.Summary.Count != 1 || len(decoded.Reviews) != 1 {
		t.Fatalf("unexpected json payload: %+v", decoded.Summary)
	}
	if decoded.Reviews[0].FundName != "Acme Fund III" {
		t.Fatalf("wrong record exported: %s", decoded.Reviews[0].FundName)
	}

	// Audit trail covers queued, running and succeeded transitions.
	statuses := make(map[ExportStatus]bool)
	for _, entry := range audit.Entries() {
		if entry.ExportID == queued.ID {
			statuses[entry.Status] = true
		}
		if entry.Actor != "jordan" {
			t.Fatalf("actor not carried: %+v", entry)
		}
	}
	for _, want := range []ExportStatus{ExportStatusQueued, ExportStatusRunning, ExportStatusSucceeded} {
		if !statuses[want] {
			t.Fatalf("missing audit status %s", want)
		}
	}
}

func TestEnqueueExportRejectsUnknownFormat(t *testing.T) {
	worker := NewWorker(newReportService(t), blob.NewMemory(), nil, nil)
	_, err := worker.EnqueueExport(context.Background(), ExportInput{Formats: []Format{"parquet"}})
	if err == nil {
		t.Fatalf("expected format error")
	}
}

func TestEnqueueExportDeduplicatesFormats(t *testing.T) {
	svc := newReportService(t)
	worker := NewWorker(svc, blob.NewMemory(), nil, nil)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	queued, err := worker.EnqueueExport(context.Background(), ExportInput{Formats: []Format{FormatCSV, FormatCSV}})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(queued.Formats) != 1 || queued.Formats[0] != FormatCSV {
		t.Fatalf("formats not deduplicated: %v", queued.Formats)
	}
	record := waitForExport(t, worker, queued.ID)
	if record.Status != ExportStatusSucceeded || len(record.Artifacts) != 1 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" CSV "); err != nil || f != FormatCSV {
		t.Fatalf("csv: %v %v", f, err)
	}
	if f, err := ParseFormat("json"); err != nil || f != FormatJSON {
		t.Fatalf("json: %v %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ParseFormat(""); err == nil {
		t.Fatalf("expected error for empty format")
	}
}
