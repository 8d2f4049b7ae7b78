package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"lostfound/pkg/domain"
)

func TestAddCategoryNormalizesAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, notes := newTestService(t)

	rule, _, err := svc.AddCategory(ctx, "文具", "w")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if rule.Code != "W" {
		t.Fatalf("expected normalized code W, got %q", rule.Code)
	}
	if got := notes.last(); got.severity != domain.NotifySuccess || got.message != "已成功添加规则：文具 -> [W]" {
		t.Fatalf("unexpected notification %+v", got)
	}

	if _, _, err := svc.AddCategory(ctx, "武器", "W"); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code, got %v", err)
	}
	if got := notes.last(); got.severity != domain.NotifyError || got.message != `添加失败：代码 "W" 已经被使用，请更换其他字符。` {
		t.Fatalf("unexpected notification %+v", got)
	}
	if n := len(svc.ExportSnapshot().Categories); n != 1 {
		t.Fatalf("duplicate add must not grow the table, got %d rules", n)
	}
}

func TestUpdateCodeConflictsLeaveTableUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, notes := newTestService(t)
	w, _, _ := svc.AddCategory(ctx, "文具", "W")
	e, _, _ := svc.AddCategory(ctx, "电子产品", "E")
	before := svc.ExportSnapshot()

	if _, _, err := svc.UpdateCategoryCode(ctx, e.ID, "w"); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected duplicate code, got %v", err)
	}
	if got := notes.last().message; got != `规则冲突：代码 "W" 已被其他分类占用！` {
		t.Fatalf("unexpected message %q", got)
	}
	if after := svc.ExportSnapshot(); after.Categories[1].Code != before.Categories[1].Code {
		t.Fatalf("failed update changed the table")
	}
	if _, _, err := svc.UpdateCategoryCode(ctx, w.ID, "W"); err != nil {
		t.Fatalf("re-setting own code should succeed: %v", err)
	}
	cleared, _, err := svc.UpdateCategoryCode(ctx, w.ID, "")
	if err != nil || cleared.Code != "" {
		t.Fatalf("clearing own code should succeed: %+v %v", cleared, err)
	}

	if _, _, err := svc.UpdateLocationCode(ctx, "l_spring", "A"); err != nil {
		t.Fatalf("code location: %v", err)
	}
	if _, _, err := svc.UpdateLocationCode(ctx, "l_summer", "a"); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("expected location duplicate, got %v", err)
	}
	if got := notes.last().message; got != `规则冲突：地点代码 "A" 已存在！` {
		t.Fatalf("unexpected message %q", got)
	}
	if _, _, err := svc.UpdateLocationCode(ctx, "l_summer", "W"); err != nil {
		t.Fatalf("namespaces are independent: %v", err)
	}
}

func TestRegisterItemComposesCode(t *testing.T) {
	ctx := context.Background()
	svc, notes := newTestService(t)
	cat := seedRules(t, svc)

	item, _, err := svc.RegisterItem(ctx, draftFor(cat.ID))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if item.GeneratedCode != "W-A3-2405011430-20307" {
		t.Fatalf("unexpected code %s", item.GeneratedCode)
	}
	if item.Finder != "2年03班 07号" || item.Status != domain.StatusLost {
		t.Fatalf("unexpected item %+v", item)
	}
	if got := notes.last().message; got != "物品登记成功！已生成编码：W-A3-2405011430-20307" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestRegisterItemRejectsUnconfiguredRule(t *testing.T) {
	ctx := context.Background()
	svc, notes := newTestService(t)
	seedRules(t, svc)
	bare, _, err := svc.AddCategory(ctx, "电子产品", "")
	if err != nil {
		t.Fatalf("add unconfigured: %v", err)
	}

	_, _, err = svc.RegisterItem(ctx, draftFor(bare.ID))
	if !errors.Is(err, domain.ErrUnconfiguredRule) {
		t.Fatalf("expected unconfigured rule, got %v", err)
	}
	if got := notes.last(); got.severity != domain.NotifyError || got.message != msgUnconfiguredRule {
		t.Fatalf("unexpected notification %+v", got)
	}
	if n := len(svc.ExportSnapshot().LostItems); n != 0 {
		t.Fatalf("rejected entry must not be stored, got %d items", n)
	}
}

func TestGeneratedCodeIsFrozen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	cat := seedRules(t, svc)
	first, _, err := svc.RegisterItem(ctx, draftFor(cat.ID))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, _, err := svc.UpdateCategoryCode(ctx, cat.ID, "X"); err != nil {
		t.Fatalf("recode: %v", err)
	}
	second, _, err := svc.RegisterItem(ctx, draftFor(cat.ID))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	q, err := svc.Query(ctx)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	stored, _ := q.Find(first.ID)
	if stored.GeneratedCode != "W-A3-2405011430-20307" {
		t.Fatalf("existing code changed to %s", stored.GeneratedCode)
	}
	if second.GeneratedCode != "X-A3-2405011430-20307" {
		t.Fatalf("new item should use the new code, got %s", second.GeneratedCode)
	}
	if items := q.Items(); items[0].ID != second.ID {
		t.Fatalf("most recent item should be first")
	}
}

func TestClaimLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, notes := newTestService(t)
	cat := seedRules(t, svc)
	item, _, _ := svc.RegisterItem(ctx, draftFor(cat.ID))
	claimAt := fixedNow.Add(26 * time.Hour)

	claimed, _, err := svc.ClaimItem(ctx, item.ID, "张三", claimAt)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	at, ok := claimed.ClaimedAt(cst)
	if claimed.Status != domain.StatusClaimed || claimed.ClaimedBy != "张三" || !ok || !at.Equal(claimAt) {
		t.Fatalf("unexpected claimed item %+v", claimed)
	}
	if claimed.GeneratedCode != item.GeneratedCode {
		t.Fatalf("claim must not touch the generated code")
	}
	if got := notes.last().message; got != "物品 黑色钢笔 已成功认领！" {
		t.Fatalf("unexpected message %q", got)
	}

	if _, _, err := svc.ClaimItem(ctx, item.ID, "李四", time.Time{}); !errors.Is(err, domain.ErrAlreadyClaimed) {
		t.Fatalf("expected already claimed, got %v", err)
	}
	q, _ := svc.Query(ctx)
	stored, _ := q.Find(item.ID)
	if stored.ClaimedBy != "张三" || *stored.ClaimTimestamp != domain.ToMillis(claimAt) {
		t.Fatalf("second claim changed fields: %+v", stored)
	}

	if _, err := svc.RemoveItem(ctx, item.ID); !errors.Is(err, domain.ErrAlreadyClaimed) {
		t.Fatalf("claimed items cannot be removed, got %v", err)
	}
	if got := notes.last().message; got != msgClaimedLocked {
		t.Fatalf("unexpected message %q", got)
	}
	if _, _, err := svc.ClaimItem(ctx, "missing", "张三", claimAt); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClaimDefaultsToClock(t *testing.T) {
	ctx := context.Background()
	later := fixedNow.Add(time.Hour)
	svc, _ := newTestService(t, WithClock(ClockFunc(func() time.Time { return later })))
	cat := seedRules(t, svc)
	item, _, _ := svc.RegisterItem(ctx, draftFor(cat.ID))
	claimed, _, err := svc.ClaimItem(ctx, item.ID, "张三", time.Time{})
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if *claimed.ClaimTimestamp != later.UnixMilli() {
		t.Fatalf("expected claim at service clock, got %d", *claimed.ClaimTimestamp)
	}
}

func TestRemoveItemAndCategory(t *testing.T) {
	ctx := context.Background()
	svc, notes := newTestService(t)
	cat := seedRules(t, svc)
	item, _, _ := svc.RegisterItem(ctx, draftFor(cat.ID))

	res, err := svc.RemoveCategory(ctx, cat.ID)
	if err != nil {
		t.Fatalf("remove category: %v", err)
	}
	if warnings := res.Warnings(); len(warnings) != 1 || warnings[0].Rule != "dangling_reference" {
		t.Fatalf("expected dangling reference warning, got %+v", res)
	}
	if got := notes.seen[len(notes.seen)-2]; got.severity != domain.NotifyInfo {
		t.Fatalf("expected warning as info notification, got %+v", got)
	}
	if got := notes.last().message; got != "已删除分类：文具" {
		t.Fatalf("unexpected message %q", got)
	}
	q, _ := svc.Query(ctx)
	if q.CategoryLabel(cat.ID) != UnknownLabel {
		t.Fatalf("removed category should render as unknown")
	}

	if _, err := svc.RemoveItem(ctx, item.ID); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if got := notes.last().message; got != "已删除物品：黑色钢笔 (W-A3-2405011430-20307)" {
		t.Fatalf("unexpected message %q", got)
	}
	before := len(notes.seen)
	if _, err := svc.RemoveItem(ctx, item.ID); err != nil {
		t.Fatalf("removing an unknown item is a no-op: %v", err)
	}
	if _, err := svc.RemoveCategory(ctx, "missing"); err != nil {
		t.Fatalf("removing an unknown category is a no-op: %v", err)
	}
	if len(notes.seen) != before {
		t.Fatalf("no-op removals should not notify")
	}
}

func TestFixedLocationsRejectRelabel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	if _, err := svc.Store().RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateRuleLabel(NamespaceLocation, "l_spring", "新楼")
		return err
	}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	cat, _, _ := svc.AddCategory(ctx, "文具", "W")
	renamed, _, err := svc.UpdateCategoryLabel(ctx, cat.ID, "文具用品")
	if err != nil || renamed.Label != "文具用品" || renamed.Code != "W" {
		t.Fatalf("relabel category: %+v %v", renamed, err)
	}
}

func TestPreviewCode(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	cat := seedRules(t, svc)

	code, err := svc.PreviewCode(ctx, ItemDraft{Grade: "1", ClassNum: "01", StudentID: "01"})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if code != "?-?1-0000000000-10101" {
		t.Fatalf("unexpected empty preview %s", code)
	}
	draft := draftFor(cat.ID)
	draft.LocID, draft.Floor = "l_court", ""
	code, _ = svc.PreviewCode(ctx, draft)
	if code != "W-C0-2405011430-20307" {
		t.Fatalf("unexpected preview %s", code)
	}
	if n := len(svc.ExportSnapshot().LostItems); n != 0 {
		t.Fatalf("preview must not store anything")
	}
}

func TestImportSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	snap := domain.DefaultSnapshot()
	snap.Categories = []EncodingRule{{ID: "c1", Label: "书籍", Code: "B"}, {ID: "c2", Label: "包", Code: "B"}}
	if err := svc.ImportSnapshot(snap); err == nil {
		t.Fatalf("expected duplicate codes to be rejected")
	}
	snap.Categories = snap.Categories[:1]
	if err := svc.ImportSnapshot(snap); err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := svc.ExportSnapshot().Categories; len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("unexpected categories %+v", got)
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewInMemoryService(NewRulesEngine())
	if svc.Location() == nil || svc.now == nil {
		t.Fatalf("expected defaulted clock and location")
	}
	if _, _, err := svc.AddCategory(context.Background(), "文具", "W"); err != nil {
		t.Fatalf("noop collaborators should be installed: %v", err)
	}
	svc = NewService(NewMemoryStore(nil), WithLocation(cst), WithLogger(nil), WithTracer(nil))
	if svc.Location() != cst {
		t.Fatalf("WithLocation should override the store zone")
	}
}
