package hook

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValidateAcceptsMinimalEnvelope(t *testing.T) {
	env, errs := Validate([]byte(`{"type":"session.start","projectName":"demo"}`))
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if env.Type != SessionStart || env.ProjectName != "demo" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not an object", `[1,2,3]`},
		{"null", `null`},
		{"missing type", `{"projectName":"p"}`},
		{"empty type", `{"type":"","projectName":"p"}`},
		{"missing project", `{"type":"session.start"}`},
		{"non-string text", `{"type":"t","projectName":"p","text":7}`},
		{"non-string instanceId", `{"type":"t","projectName":"p","instanceId":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, errs := Validate([]byte(tt.payload)); errs == nil {
				t.Error("expected validation errors")
			}
		})
	}
}

func TestValidateToleratesUnknownType(t *testing.T) {
	env, errs := Validate([]byte(`{"type":"future.event","projectName":"p"}`))
	if errs != nil {
		t.Fatalf("unknown type should pass validation: %v", errs)
	}
	if env.Type.Known() {
		t.Error("future.event should not be a known type")
	}
}

func TestValidateRoundTrip(t *testing.T) {
	orig := &Envelope{
		Type:        ThinkingStart,
		ProjectName: "demo",
		AgentType:   "claude",
		InstanceID:  "2",
		Text:        "hello",
		Timestamp:   "2026-01-02T03:04:05Z",
		TurnID:      "t-1",
	}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}
	got, errs := Validate(data)
	if errs != nil {
		t.Fatalf("validate: %v", errs)
	}
	got.Extra = nil
	if !reflect.DeepEqual(got, orig) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestValidatePassesUnknownFieldsThrough(t *testing.T) {
	env, errs := Validate([]byte(`{"type":"tool.activity","projectName":"p","customField":{"a":1}}`))
	if errs != nil {
		t.Fatalf("validate: %v", errs)
	}
	if _, ok := env.Extra["customField"]; !ok {
		t.Error("unknown field dropped")
	}
}
