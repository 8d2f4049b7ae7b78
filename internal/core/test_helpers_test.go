package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"lostfound/internal/infra/persistence/memory"
	"lostfound/pkg/domain"
)

var cst = time.FixedZone("CST", 8*3600)

var fixedNow = time.Date(2024, 5, 1, 14, 30, 0, 0, cst)

type notification struct {
	severity domain.NotificationSeverity
	message  string
}

type captureNotifier struct {
	mu   sync.Mutex
	seen []notification
}

func (c *captureNotifier) Notify(severity domain.NotificationSeverity, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, notification{severity, message})
}

func (c *captureNotifier) last() notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.seen) == 0 {
		return notification{}
	}
	return c.seen[len(c.seen)-1]
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id%d", n)
	}
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, *captureNotifier) {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine(),
		memory.WithClock(func() time.Time { return fixedNow }),
		memory.WithLocation(cst),
		memory.WithIDGenerator(sequentialIDs()),
	)
	notes := &captureNotifier{}
	return NewService(store, append([]ServiceOption{WithNotifier(notes)}, opts...)...), notes
}

// seedRules adds category 文具 [W] and codes 春楼 A and 篮球场 C.
func seedRules(t *testing.T, svc *Service) EncodingRule {
	t.Helper()
	ctx := context.Background()
	cat, _, err := svc.AddCategory(ctx, "文具", "w")
	if err != nil {
		t.Fatalf("add category: %v", err)
	}
	if _, _, err := svc.UpdateLocationCode(ctx, "l_spring", "a"); err != nil {
		t.Fatalf("code location: %v", err)
	}
	if _, _, err := svc.UpdateLocationCode(ctx, "l_court", "c"); err != nil {
		t.Fatalf("code location: %v", err)
	}
	return cat
}

func draftFor(typeID string) ItemDraft {
	return ItemDraft{
		TypeID:    typeID,
		LocID:     "l_spring",
		ItemName:  "黑色钢笔",
		Floor:     "3",
		FoundAt:   fixedNow,
		Grade:     "2",
		ClassNum:  "03",
		StudentID: "07",
	}
}
