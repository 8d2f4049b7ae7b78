package domain

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"testing"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, Message: "code taken"}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if !strings.Contains(err.Error(), "code taken") {
		t.Fatalf("expected blocking message in error, got %q", err.Error())
	}
	if got := len(result.Warnings()); got != 1 {
		t.Fatalf("expected 1 warning, got %d", got)
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected violation")
	}
	if names := engine.Names(); !slices.Equal(names, []string{"warn"}) {
		t.Fatalf("unexpected rule names %v", names)
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type emptyView struct{}

func (emptyView) ListCategories() []EncodingRule            { return nil }
func (emptyView) ListLocations() []EncodingRule             { return nil }
func (emptyView) ListItems() []LostItem                     { return nil }
func (emptyView) FindCategory(string) (EncodingRule, bool)  { return EncodingRule{}, false }
func (emptyView) FindLocation(string) (EncodingRule, bool)  { return EncodingRule{}, false }
func (emptyView) FindItem(string) (LostItem, bool)          { return LostItem{}, false }
func (emptyView) FilterItems(func(LostItem) bool) iter.Seq[LostItem] {
	return func(func(LostItem) bool) {}
}

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(errorRule{})
	if _, err := engine.Evaluate(context.Background(), emptyView{}, nil); err == nil {
		t.Fatalf("expected evaluation error")
	}
}

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, fmt.Errorf("boom")
}

func TestChangePayloadRoundTrip(t *testing.T) {
	rule := EncodingRule{ID: "c-1", Label: "文具", Code: "W"}
	payload := PayloadOf(rule)
	if !payload.Defined() {
		t.Fatalf("expected defined payload")
	}
	decoded, ok := DecodePayload[EncodingRule](payload)
	if !ok || decoded != rule {
		t.Fatalf("expected %+v, got %+v (ok=%v)", rule, decoded, ok)
	}
	raw := payload.Raw()
	raw[0] = 'x'
	if again, ok := DecodePayload[EncodingRule](payload); !ok || again != rule {
		t.Fatalf("payload mutated through Raw copy")
	}
	if _, ok := DecodePayload[EncodingRule](ChangePayload{}); ok {
		t.Fatalf("expected undefined payload to fail decoding")
	}
}

func TestLostItemClone(t *testing.T) {
	ts := int64(42)
	item := LostItem{ID: "i", Status: StatusClaimed, ClaimTimestamp: &ts}
	cp := item.Clone()
	*cp.ClaimTimestamp = 7
	if *item.ClaimTimestamp != 42 {
		t.Fatalf("clone shares claim timestamp pointer")
	}
}

func TestParseNamespace(t *testing.T) {
	for raw, want := range map[string]Namespace{"category": NamespaceCategory, " Location ": NamespaceLocation} {
		got, err := ParseNamespace(raw)
		if err != nil || got != want {
			t.Fatalf("ParseNamespace(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseNamespace("floor"); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if NamespaceLocation.Entity() != EntityLocation || NamespaceCategory.Entity() != EntityCategory {
		t.Fatalf("unexpected namespace entity mapping")
	}
}
