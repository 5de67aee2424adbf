package llm

import (
	"testing"

	"github.com/zhaowei/shopmate/internal/model/chat"
)

func TestDecodeJSONObjectExtractsBracePair(t *testing.T) {
	var payload struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	content := "Sure, here is the result:\n{\"intent\": \"order_tracking\", \"confidence\": 0.9}\nHope that helps."
	if err := decodeJSONObject(content, &payload); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if payload.Intent != "order_tracking" || payload.Confidence != 0.9 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDecodeJSONObjectRejectsMissingObject(t *testing.T) {
	var payload map[string]any
	if err := decodeJSONObject("no json here", &payload); err == nil {
		t.Fatal("expected error for content without a json object")
	}
}

func TestFormatHistory(t *testing.T) {
	turns := []chat.Turn{
		{Role: chat.RoleUser, Content: "Track ORD-1234"},
		{Role: chat.RoleAssistant, Content: "It is shipped."},
	}
	got := formatHistory(turns)
	want := "user: Track ORD-1234\nassistant: It is shipped."
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}

	if formatHistory(nil) != "no prior conversation" {
		t.Fatal("empty history should render the placeholder")
	}
}
