package agenterrors

import (
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	if Classify(Timeout, nil) != nil {
		t.Error("Classify with nil err should return nil")
	}

	err := Classify(ExternalToolFailure, fmt.Errorf("exit status 1"))
	class, ok := ClassOf(err)
	if !ok {
		t.Fatal("expected a class on the wrapped error")
	}
	if class != ExternalToolFailure {
		t.Errorf("class = %v, want %v", class, ExternalToolFailure)
	}
	if err.Error() != "ExternalToolFailure: exit status 1" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClassOfUnclassified(t *testing.T) {
	if _, ok := ClassOf(fmt.Errorf("plain")); ok {
		t.Error("plain error should not have a class")
	}
}
