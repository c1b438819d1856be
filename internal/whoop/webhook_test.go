package whoop

import "testing"

func TestParseEventTopLevelID(t *testing.T) {
	event, err := ParseEvent([]byte(`{"user_id":10129,"id":"ecfc6a15","type":"sleep.updated","trace_id":"d3709ee7"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if event.UserID != "10129" {
		t.Errorf("expected UserID 10129, got %s", event.UserID)
	}
	if event.ID != "ecfc6a15" {
		t.Errorf("expected ID ecfc6a15, got %s", event.ID)
	}
	if event.Resource() != "sleep" || event.Action() != "updated" {
		t.Errorf("expected sleep/updated, got %s/%s", event.Resource(), event.Action())
	}
}

func TestParseEventNestedNumericID(t *testing.T) {
	event, err := ParseEvent([]byte(`{"user_id":"10129","type":"cycle.updated","data":{"id":93845}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != "93845" {
		t.Errorf("expected ID 93845, got %s", event.ID)
	}
}

func TestParseEventErrors(t *testing.T) {
	if _, err := ParseEvent([]byte(`{invalid`)); err == nil {
		t.Error("expected error for invalid json")
	}
	if _, err := ParseEvent([]byte(`{"user_id":1,"id":2}`)); err == nil {
		t.Error("expected error for missing type")
	}
	if _, err := ParseEvent([]byte(`{"user_id":true,"type":"sleep.updated"}`)); err == nil {
		t.Error("expected error for boolean user id")
	}
}
