// Package exports renders item tables and label documents and stores them
// in the configured blob store.
package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"lostfound/internal/blob"
	"lostfound/internal/core"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
	FormatJSON  Format = "json"
	FormatHTML  Format = "html"
)

// Blob key prefixes.
const (
	ItemsPrefix  = "exports/"
	LabelsPrefix = "labels/"
)

const rowTimeLayout = "2006-01-02 15:04:05"

// ParseFormat validates a format name. Empty selects csv.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSONL, FormatJSON, FormatHTML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %s", raw)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatJSONL:
		return "application/x-ndjson"
	case FormatHTML:
		return "text/html"
	default:
		return "application/json"
	}
}

// Columns is the item table schema, in output order.
var Columns = []string{
	"code", "item", "category", "location", "floor", "found_at",
	"finder", "status", "claimed_by", "claimed_at",
}

// Row is one item rendered with resolved labels and local times.
type Row struct {
	Code      string `json:"code"`
	Item      string `json:"item"`
	Category  string `json:"category"`
	Location  string `json:"location"`
	Floor     string `json:"floor"`
	FoundAt   string `json:"found_at"`
	Finder    string `json:"finder"`
	Status    string `json:"status"`
	ClaimedBy string `json:"claimed_by,omitempty"`
	ClaimedAt string `json:"claimed_at,omitempty"`
}

func (r Row) values() []string {
	return []string{
		r.Code, r.Item, r.Category, r.Location, r.Floor, r.FoundAt,
		r.Finder, r.Status, r.ClaimedBy, r.ClaimedAt,
	}
}

// Rows renders the items of q, most recent first.
func Rows(q *core.QueryFacade) []Row {
	items := q.Items()
	out := make([]Row, 0, len(items))
	for _, item := range items {
		row := Row{
			Code:      item.GeneratedCode,
			Item:      item.ItemName,
			Category:  q.CategoryLabel(item.TypeID),
			Location:  q.LocationLabel(item.LocID),
			Floor:     item.Floor,
			FoundAt:   item.FoundAt(q.Location()).Format(rowTimeLayout),
			Finder:    item.Finder,
			Status:    string(item.Status),
			ClaimedBy: item.ClaimedBy,
		}
		if at, ok := item.ClaimedAt(q.Location()); ok {
			row.ClaimedAt = at.Format(rowTimeLayout)
		}
		out = append(out, row)
	}
	return out
}

// Render encodes rows in format.
func Render(format Format, rows []Row) ([]byte, error) {
	switch format {
	case FormatCSV:
		buf := &bytes.Buffer{}
		writer := csv.NewWriter(buf)
		if err := writer.Write(Columns); err != nil {
			return nil, err
		}
		for _, row := range rows {
			if err := writer.Write(row.values()); err != nil {
				return nil, err
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSONL:
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		for _, row := range rows {
			if err := enc.Encode(row); err != nil {
				return nil, fmt.Errorf("marshal jsonl: %w", err)
			}
		}
		return buf.Bytes(), nil
	case FormatJSON:
		if rows == nil {
			rows = []Row{}
		}
		payload, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return payload, nil
	case FormatHTML:
		return buildHTML(rows), nil
	default:
		return nil, fmt.Errorf("unsupported export format %s", format)
	}
}

func buildHTML(rows []Row) []byte {
	buf := &strings.Builder{}
	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>失物招领</title></head><body><table>")
	buf.WriteString("<thead><tr>")
	for _, column := range Columns {
		buf.WriteString("<th>")
		buf.WriteString(column)
		buf.WriteString("</th>")
	}
	buf.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		buf.WriteString("<tr>")
		for _, value := range row.values() {
			buf.WriteString("<td>")
			buf.WriteString(html.EscapeString(value))
			buf.WriteString("</td>")
		}
		buf.WriteString("</tr>")
	}
	buf.WriteString("</tbody></table></body></html>")
	return []byte(buf.String())
}

// Artifact describes a stored export.
type Artifact struct {
	Key         string    `json:"key"`
	Format      Format    `json:"format"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Rows        int       `json:"rows"`
	ETag        string    `json:"etag,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Exporter writes exports into a blob store.
type Exporter struct {
	blobs  blob.Store
	now    func() time.Time
	logger *zap.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithClock overrides the clock used for export keys.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the exporter logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExporter constructs an exporter over blobs.
func NewExporter(blobs blob.Store, opts ...Option) (*Exporter, error) {
	if blobs == nil {
		return nil, errors.New("export blob store required")
	}
	e := &Exporter{blobs: blobs, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExportItems renders the item table of q and stores it under
// exports/items-<timestamp>.<format>. An existing key is never replaced.
func (e *Exporter) ExportItems(ctx context.Context, q *core.QueryFacade, format Format) (Artifact, error) {
	rows := Rows(q)
	payload, err := Render(format, rows)
	if err != nil {
		return Artifact{}, err
	}
	created := e.now().UTC()
	key := fmt.Sprintf("%sitems-%s.%s", ItemsPrefix, created.Format("20060102T150405"), format)
	info, err := e.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: format.ContentType(),
		Metadata:    map[string]string{"rows": fmt.Sprint(len(rows))},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("store export %s: %w", key, err)
	}
	e.logger.Info("items exported", zap.String("key", key), zap.String("format", string(format)), zap.Int("rows", len(rows)))
	return artifact(info, format, len(rows), created), nil
}

// ExportLabel stores the label document as labels/QR-<code>.json,
// replacing a previous export of the same item.
func (e *Exporter) ExportLabel(ctx context.Context, view core.LabelView) (Artifact, error) {
	if view.Item.GeneratedCode == "" {
		return Artifact{}, errors.New("label has no generated code")
	}
	payload, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("marshal label: %w", err)
	}
	key := LabelKey(view.Item.GeneratedCode)
	info, err := e.blobs.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: FormatJSON.ContentType(),
		Metadata:    map[string]string{"item": view.Item.ID, "filename": view.Filename},
		Overwrite:   true,
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("store label %s: %w", key, err)
	}
	e.logger.Info("label exported", zap.String("key", key), zap.String("item", view.Item.ID))
	return artifact(info, FormatJSON, 1, e.now().UTC()), nil
}

// List returns stored artifacts under prefix ordered by key.
func (e *Exporter) List(ctx context.Context, prefix string) ([]blob.Info, error) {
	return e.blobs.List(ctx, prefix)
}

// LabelKey is the blob key of an item label document.
func LabelKey(code string) string {
	return LabelsPrefix + strings.TrimSuffix(core.LabelFilename(code), ".png") + ".json"
}

func artifact(info blob.Info, format Format, rows int, created time.Time) Artifact {
	out := Artifact{
		Key:         info.Key,
		Format:      format,
		ContentType: info.ContentType,
		SizeBytes:   info.Size,
		Rows:        rows,
		ETag:        info.ETag,
		URL:         info.URL,
		CreatedAt:   created,
	}
	if out.ContentType == "" {
		out.ContentType = format.ContentType()
	}
	return out
}
