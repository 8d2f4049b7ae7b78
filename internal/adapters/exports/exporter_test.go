package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lostfound/internal/blob"
	"lostfound/internal/core"
	"lostfound/pkg/domain"
)

var cst = time.FixedZone("CST", 8*3600)

var exportedAt = time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)

func testQuery(t *testing.T) *core.QueryFacade {
	t.Helper()
	snap := domain.DefaultSnapshot()
	snap.Categories = []domain.EncodingRule{{ID: "c1", Label: "文具", Code: "W"}}
	found := time.Date(2024, 5, 1, 14, 30, 0, 0, cst).UnixMilli()
	claimed := time.Date(2024, 5, 1, 16, 0, 0, 0, cst).UnixMilli()
	snap.LostItems = []domain.LostItem{
		{
			ID: "i2", TypeID: "c1", LocID: "l_court", ItemName: "水杯 <蓝>", Floor: "0",
			Timestamp: found, Finder: "1年01班 01号", Grade: "1", ClassNum: "01", StudentID: "01",
			GeneratedCode: "W-C0-2405011430-10101", Status: domain.StatusClaimed,
			ClaimedBy: "张三", ClaimTimestamp: &claimed,
		},
		{
			ID: "i1", TypeID: "gone", LocID: "l_spring", ItemName: "黑色钢笔", Floor: "3",
			Timestamp: found, Finder: "2年03班 07号", Grade: "2", ClassNum: "03", StudentID: "07",
			GeneratedCode: "W-A3-2405011430-20307", Status: domain.StatusLost,
		},
	}
	return core.NewQueryFacade(snap, cst)
}

func newTestExporter(t *testing.T) (*Exporter, blob.Store) {
	t.Helper()
	store := blob.NewMemory()
	e, err := NewExporter(store, WithClock(func() time.Time { return exportedAt }))
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	return e, store
}

func readBlob(t *testing.T, store blob.Store, key string) (blob.Info, []byte) {
	t.Helper()
	info, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return info, data
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatCSV, " JSONL ": FormatJSONL, "html": FormatHTML, "json": FormatJSON}
	for raw, want := range cases {
		got, err := ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %s %v", raw, got, err)
		}
	}
	if _, err := ParseFormat("parquet"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestRowsResolveLabels(t *testing.T) {
	rows := Rows(testQuery(t))
	want := []Row{
		{
			Code: "W-C0-2405011430-10101", Item: "水杯 <蓝>", Category: "文具", Location: "篮球场",
			Floor: "0", FoundAt: "2024-05-01 14:30:00", Finder: "1年01班 01号", Status: "claimed",
			ClaimedBy: "张三", ClaimedAt: "2024-05-01 16:00:00",
		},
		{
			Code: "W-A3-2405011430-20307", Item: "黑色钢笔", Category: core.UnknownLabel, Location: "春楼",
			Floor: "3", FoundAt: "2024-05-01 14:30:00", Finder: "2年03班 07号", Status: "lost",
		},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExportItemsCSV(t *testing.T) {
	e, store := newTestExporter(t)
	art, err := e.ExportItems(context.Background(), testQuery(t), FormatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if art.Key != "exports/items-20240502T090000.csv" || art.Rows != 2 || art.ContentType != "text/csv" {
		t.Fatalf("unexpected artifact %+v", art)
	}
	info, data := readBlob(t, store, art.Key)
	if info.Metadata["rows"] != "2" || info.Size != art.SizeBytes {
		t.Fatalf("unexpected blob info %+v", info)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 || records[0][0] != "code" || records[2][0] != "W-A3-2405011430-20307" {
		t.Fatalf("unexpected csv %v", records)
	}
	if _, err := e.ExportItems(context.Background(), testQuery(t), FormatCSV); !errors.Is(err, blob.ErrExists) {
		t.Fatalf("expected second export at same instant to collide, got %v", err)
	}
}

func TestExportItemsJSONLAndHTML(t *testing.T) {
	e, store := newTestExporter(t)
	art, err := e.ExportItems(context.Background(), testQuery(t), FormatJSONL)
	if err != nil {
		t.Fatalf("export jsonl: %v", err)
	}
	_, data := readBlob(t, store, art.Key)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 jsonl lines, got %d", len(lines))
	}
	var first Row
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil || first.ClaimedBy != "张三" {
		t.Fatalf("unexpected first line %q %v", lines[0], err)
	}
	if !strings.Contains(lines[0], "<蓝>") {
		t.Fatalf("jsonl should not html-escape: %s", lines[0])
	}

	payload, err := Render(FormatHTML, Rows(testQuery(t)))
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.Contains(string(payload), "水杯 &lt;蓝&gt;") || !strings.Contains(string(payload), "<th>claimed_at</th>") {
		t.Fatalf("unexpected html %s", payload)
	}
	empty, err := Render(FormatJSON, nil)
	if err != nil || string(empty) != "[]" {
		t.Fatalf("expected empty json array, got %q %v", empty, err)
	}
}

func TestExportLabelOverwrites(t *testing.T) {
	e, store := newTestExporter(t)
	view, err := testQuery(t).Label("i1")
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	first, err := e.ExportLabel(context.Background(), view)
	if err != nil {
		t.Fatalf("export label: %v", err)
	}
	if first.Key != "labels/QR-W-A3-2405011430-20307.json" || first.Key != LabelKey(view.Item.GeneratedCode) {
		t.Fatalf("unexpected label key %s", first.Key)
	}
	view.CategoryLabel = "笔"
	second, err := e.ExportLabel(context.Background(), view)
	if err != nil {
		t.Fatalf("re-export label: %v", err)
	}
	if second.ETag == first.ETag {
		t.Fatalf("expected overwrite to change etag")
	}
	info, data := readBlob(t, store, first.Key)
	var got core.LabelView
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode label: %v", err)
	}
	if got.CategoryLabel != "笔" || info.Metadata["filename"] != "QR-W-A3-2405011430-20307.png" {
		t.Fatalf("unexpected stored label %+v %+v", got, info)
	}
	list, err := e.List(context.Background(), LabelsPrefix)
	if err != nil || len(list) != 1 {
		t.Fatalf("list labels: %v %+v", err, list)
	}
	if _, err := e.ExportLabel(context.Background(), core.LabelView{}); err == nil {
		t.Fatalf("expected error for label without code")
	}
}

func TestNewExporterRequiresStore(t *testing.T) {
	if _, err := NewExporter(nil); err == nil {
		t.Fatalf("expected error")
	}
}
