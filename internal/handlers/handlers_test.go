package handlers

import (
	"errors"
	"testing"

	"github.com/deploypilot/node-agent/internal/agenterrors"
	"github.com/deploypilot/node-agent/internal/shellrunner"
)

func TestUnmarshalPayloadRejectsEmpty(t *testing.T) {
	var dst struct{}
	if err := unmarshalPayload(nil, &dst); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestUnmarshalPayloadRejectsInvalidJSON(t *testing.T) {
	var dst appRefPayload
	if err := unmarshalPayload([]byte("{not json"), &dst); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestUnmarshalPayloadDecodesValidJSON(t *testing.T) {
	var dst appRefPayload
	if err := unmarshalPayload([]byte(`{"userId":"u1","appName":"app1"}`), &dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dst.UserID != "u1" || dst.AppName != "app1" {
		t.Errorf("decoded = %+v", dst)
	}
}

func TestFromShellResultSuccess(t *testing.T) {
	res := fromShellResult(shellrunner.Result{Success: true, Stdout: "ok"})
	if !res.Success || res.Logs != "ok" {
		t.Errorf("got %+v", res)
	}
}

func TestFromShellResultFailure(t *testing.T) {
	res := fromShellResult(shellrunner.Result{Success: false, Error: "boom", Stdout: "out", Stderr: "err"})
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != "boom" {
		t.Errorf("Error = %q", res.Error)
	}
	if res.Logs != "outerr" {
		t.Errorf("Logs = %q", res.Logs)
	}
}

func TestFailResultClassifiesUnclassifiedErrors(t *testing.T) {
	res := failResult(errors.New("plain error"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if want := "ExternalToolFailure: plain error"; res.Error != want {
		t.Errorf("Error = %q, want %q", res.Error, want)
	}
}

func TestFailResultPreservesClassifiedErrors(t *testing.T) {
	classified := agenterrors.Classify(agenterrors.InputValidation, errors.New("bad input"))
	res := failResult(classified)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error != classified.Error() {
		t.Errorf("Error = %q, want %q", res.Error, classified.Error())
	}
}
