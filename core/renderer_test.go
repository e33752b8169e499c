package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestRebuildStepsDependencyOrder(t *testing.T) {
	v := &VulkanRenderer{}

	want := []string{
		"swapchain",
		"viewport",
		"image views",
		"render pass",
		"pipeline layout",
		"pipeline",
		"framebuffers",
		"uniform buffers",
		"descriptor pool",
		"descriptor sets",
		"command buffers",
		"command recording",
	}

	var got []string
	for _, step := range v.rebuildSteps() {
		got = append(got, step.name)
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected rebuild order %v, got %v", want, got)
	}
}

func TestRunRebuildStepsRunsEachStepOnce(t *testing.T) {
	var ran []string
	record := func(name string) rebuildStep {
		return rebuildStep{name: name, run: func() error {
			ran = append(ran, name)
			return nil
		}}
	}

	steps := []rebuildStep{record("first"), record("second"), record("third")}
	if err := runRebuildSteps(steps); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(ran, []string{"first", "second", "third"}) {
		t.Errorf("expected each step once in order, got %v", ran)
	}
}

func TestRunRebuildStepsStopsAtFirstFailure(t *testing.T) {
	var ran []string
	steps := []rebuildStep{
		{name: "swapchain", run: func() error {
			ran = append(ran, "swapchain")
			return nil
		}},
		{name: "image views", run: func() error {
			ran = append(ran, "image views")
			return errors.New("vk.CreateImageView(): device lost")
		}},
		{name: "render pass", run: func() error {
			ran = append(ran, "render pass")
			return nil
		}},
	}

	err := runRebuildSteps(steps)
	if err == nil {
		t.Fatal("expected the failing step's error")
	}
	if !strings.Contains(err.Error(), "image views") {
		t.Errorf("expected the error to name the failing step, got %q", err)
	}
	if !reflect.DeepEqual(ran, []string{"swapchain", "image views"}) {
		t.Errorf("expected no step after the failure, got %v", ran)
	}
}

func TestRebuiltRingStartsAtSlotZero(t *testing.T) {
	ring := newFrameRing(2, 3)
	ring.Acquire(0)
	ring.Advance()
	ring.Acquire(1)

	// Recreation replaces the ring with a fresh one of the same
	// slot count, dropping the image ownership history.
	ring = newFrameRing(ring.Slots(), 3)

	if ring.Current() != 0 {
		t.Errorf("expected the fresh ring on slot 0, got %d", ring.Current())
	}
	for image := 0; image < 3; image++ {
		if prev := ring.Acquire(image); prev != -1 {
			t.Errorf("image %d: expected no prior owner after rebuild, got slot %d", image, prev)
		}
	}
}
