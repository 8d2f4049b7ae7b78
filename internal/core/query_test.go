package core

import (
	"context"
	"slices"
	"strings"
	"testing"

	"lostfound/internal/itemstore"
	"lostfound/pkg/domain"
)

func seededQuery(t *testing.T) (*Service, EncodingRule, []LostItem) {
	t.Helper()
	ctx := context.Background()
	svc, _ := newTestService(t)
	cat := seedRules(t, svc)
	bag, _, err := svc.AddCategory(ctx, "背包", "B")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	var items []LostItem
	for _, d := range []ItemDraft{
		draftFor(cat.ID),
		{TypeID: bag.ID, LocID: "l_court", ItemName: "蓝色书包", Grade: "5", ClassNum: "12", StudentID: "44"},
		{TypeID: cat.ID, LocID: "l_spring", ItemName: "Ruler", Floor: "1", Grade: "1", ClassNum: "01", StudentID: "01"},
	} {
		item, _, err := svc.RegisterItem(ctx, d)
		if err != nil {
			t.Fatalf("register %s: %v", d.ItemName, err)
		}
		items = append(items, item)
	}
	if _, _, err := svc.ClaimItem(ctx, items[1].ID, "王五", fixedNow); err != nil {
		t.Fatalf("claim: %v", err)
	}
	return svc, cat, items
}

func TestQueryCountsAndClaimRate(t *testing.T) {
	empty := NewQueryFacade(domain.DefaultSnapshot(), nil)
	if empty.ClaimRate() != 0 || empty.ClaimRatePercent() != 0 || empty.Total() != 0 {
		t.Fatalf("empty snapshot should have zero claim rate")
	}

	svc, _, _ := seededQuery(t)
	q, err := svc.Query(context.Background())
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if q.Total() != 3 || q.CountByStatus(StatusLost) != 2 || q.CountByStatus(StatusClaimed) != 1 {
		t.Fatalf("unexpected counts total=%d lost=%d claimed=%d", q.Total(), q.CountByStatus(StatusLost), q.CountByStatus(StatusClaimed))
	}
	if rate := q.ClaimRate(); rate < 0.333 || rate > 0.334 {
		t.Fatalf("unexpected claim rate %f", rate)
	}
	if q.ClaimRatePercent() != 33 {
		t.Fatalf("unexpected percent %d", q.ClaimRatePercent())
	}
}

func TestQueryDistributions(t *testing.T) {
	ctx := context.Background()
	svc, cat, _ := seededQuery(t)
	q, _ := svc.Query(ctx)

	byCat := q.DistributionByCategory()
	if len(byCat) != 2 || byCat[0].Label != "文具" || byCat[0].Count != 2 || byCat[1].Count != 1 {
		t.Fatalf("unexpected category distribution %+v", byCat)
	}
	byLoc := q.DistributionByLocation()
	if len(byLoc) != len(domain.FixedLocations()) {
		t.Fatalf("location distribution must include every location, got %d", len(byLoc))
	}
	total := 0
	for _, b := range byLoc {
		total += b.Count
	}
	if total != 3 || byLoc[0].ID != "l_spring" || byLoc[0].Count != 2 {
		t.Fatalf("unexpected location distribution %+v", byLoc)
	}

	if _, err := svc.RemoveCategory(ctx, cat.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	q, _ = svc.Query(ctx)
	byCat = q.DistributionByCategory()
	last := byCat[len(byCat)-1]
	if len(byCat) != 2 || last.Label != UnknownLabel || last.Count != 2 {
		t.Fatalf("expected trailing unknown bucket, got %+v", byCat)
	}
}

func TestQuerySearch(t *testing.T) {
	svc, cat, items := seededQuery(t)
	q, _ := svc.Query(context.Background())
	ids := func(term, category string) []string {
		var out []string
		for item := range q.Search(term, category) {
			out = append(out, item.ID)
		}
		return out
	}
	if got := ids("ruler", ""); !slices.Equal(got, []string{items[2].ID}) {
		t.Fatalf("case-insensitive name search failed: %v", got)
	}
	if got := ids("王五", itemstore.AllCategories); !slices.Equal(got, []string{items[1].ID}) {
		t.Fatalf("claimer search failed: %v", got)
	}
	if got := ids("5年12班", ""); len(got) != 1 {
		t.Fatalf("finder search failed: %v", got)
	}
	if got := ids("w-a", cat.ID); len(got) != 2 {
		t.Fatalf("code search scoped to category failed: %v", got)
	}
	if got := ids("", ""); len(got) != 3 || got[0] != items[2].ID {
		t.Fatalf("blank search should list everything most recent first: %v", got)
	}
	lost := itemstore.Count(q.Filter(itemstore.WithStatus(StatusLost)))
	if lost != 2 {
		t.Fatalf("unexpected lost count %d", lost)
	}
}

func TestLabelView(t *testing.T) {
	svc, _, items := seededQuery(t)
	label, err := svc.Label(context.Background(), items[0].ID)
	if err != nil {
		t.Fatalf("label: %v", err)
	}
	if label.CategoryLabel != "文具" || label.LocationLabel != "春楼" {
		t.Fatalf("unexpected labels %+v", label)
	}
	if label.Segments.TypePart != "W" || label.Segments.LocPart != "A3" || label.Segments.PersonPart != "20307" {
		t.Fatalf("unexpected segments %+v", label.Segments)
	}
	want := "物品ID: W-A3-2405011430-20307\n物品: 黑色钢笔\n位置: 春楼 (3层)\n时间: 2024/5/1 14:30:00\n拾获: 2年03班 07号"
	if label.QRPayload != want {
		t.Fatalf("unexpected payload:\n%s", label.QRPayload)
	}
	if label.Filename != "QR-W-A3-2405011430-20307.png" {
		t.Fatalf("unexpected filename %s", label.Filename)
	}
	if !strings.HasPrefix(label.QRImageURL, QRImageEndpoint+"?size=300x300&data=") || strings.Contains(label.QRImageURL, "+") {
		t.Fatalf("unexpected url %s", label.QRImageURL)
	}
	if _, err := svc.Label(context.Background(), "missing"); !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found, got %v", err)
	}
}
