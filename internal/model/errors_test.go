package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsInvalidParams(t *testing.T) {
	pe := &ParamsError{Field: "span", Reason: "spans must be > 0"}
	if !IsInvalidParams(pe) {
		t.Error("ParamsError should be recognized")
	}
	if !IsInvalidParams(fmt.Errorf("wrapped: %w", pe)) {
		t.Error("wrapped ParamsError should be recognized")
	}
	if IsInvalidParams(errors.New("boom")) {
		t.Error("plain error should not be recognized")
	}
	if IsInvalidParams(&ComputeError{Fingerprint: "abc", Reason: "overflow"}) {
		t.Error("ComputeError is not a params rejection")
	}
}

func TestErrorTaxonomyDistinct(t *testing.T) {
	if errors.Is(ErrNotFound, ErrCacheIO) {
		t.Error("not-found and cache i/o must stay distinguishable")
	}
	wrapped := fmt.Errorf("%w: get map: connection refused", ErrCacheIO)
	if !errors.Is(wrapped, ErrCacheIO) {
		t.Error("wrapped cache error lost its sentinel")
	}
}

func TestTaskStateTerminal(t *testing.T) {
	if TaskPending.Terminal() || TaskRunning.Terminal() {
		t.Error("pending and running are not terminal")
	}
	if !TaskSucceeded.Terminal() || !TaskFailed.Terminal() {
		t.Error("succeeded and failed are terminal")
	}
}
