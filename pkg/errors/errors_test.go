package errors

import (
	"strings"
	"testing"
)

func TestNotFittedError(t *testing.T) {
	err := NewNotFittedError("MEstimateEncoder", "Transform")
	if err == nil {
		t.Fatal("NewNotFittedError() returned nil")
	}

	var notFitted *NotFittedError
	if !As(err, &notFitted) {
		t.Fatalf("As() failed to extract *NotFittedError from %v", err)
	}
	if notFitted.ModelName != "MEstimateEncoder" {
		t.Errorf("ModelName = %q, want %q", notFitted.ModelName, "MEstimateEncoder")
	}
	if !strings.Contains(err.Error(), "not fitted yet") {
		t.Errorf("Error() = %q, want mention of unfitted state", err.Error())
	}
}

func TestDimensionError(t *testing.T) {
	tests := []struct {
		name     string
		axis     int
		wantWord string
	}{
		{name: "row axis", axis: 0, wantWord: "rows"},
		{name: "feature axis", axis: 1, wantWord: "features"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDimensionError("Transform", 10, 7, tt.axis)

			var dim *DimensionError
			if !As(err, &dim) {
				t.Fatalf("As() failed to extract *DimensionError from %v", err)
			}
			if dim.Expected != 10 || dim.Got != 7 {
				t.Errorf("Expected/Got = %d/%d, want 10/7", dim.Expected, dim.Got)
			}
			if !strings.Contains(err.Error(), tt.wantWord) {
				t.Errorf("Error() = %q, want axis name %q", err.Error(), tt.wantWord)
			}
		})
	}
}

func TestModelErrorUnwrap(t *testing.T) {
	cause := New("csv parse failed")
	err := NewModelError("Pipeline.LoadData", "load", cause)

	if !Is(err, cause) {
		t.Errorf("Is() did not find the wrapped cause in %v", err)
	}
}

func TestWarningHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(func(w error) {})

	w := NewUnseenCategoryWarning("MEstimateEncoder", "Neighborhood", "Landmark")
	Warn(w)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "Landmark") {
		t.Errorf("warning = %q, want category name included", captured.Error())
	}
}

func TestRecover(t *testing.T) {
	fn := func() (err error) {
		defer Recover(&err, "TestOp")
		panic("index out of range")
	}

	err := fn()
	if err == nil {
		t.Fatal("Recover() did not convert the panic into an error")
	}

	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("As() failed to extract *PanicError from %v", err)
	}
	if panicErr.Operation != "TestOp" {
		t.Errorf("Operation = %q, want %q", panicErr.Operation, "TestOp")
	}
	if panicErr.StackTrace == "" {
		t.Error("StackTrace is empty")
	}
}
