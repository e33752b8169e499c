package core

import "testing"

func TestFrameRingRotation(t *testing.T) {
	ring := newFrameRing(2, 3)

	if ring.Current() != 0 {
		t.Fatalf("expected to start on slot 0, got %d", ring.Current())
	}
	ring.Advance()
	if ring.Current() != 1 {
		t.Errorf("expected slot 1, got %d", ring.Current())
	}
	ring.Advance()
	if ring.Current() != 0 {
		t.Errorf("expected to wrap back to slot 0, got %d", ring.Current())
	}
}

func TestFrameRingFreshImageHasNoOwner(t *testing.T) {
	ring := newFrameRing(2, 3)

	for image := 0; image < 3; image++ {
		ring := newFrameRing(2, 3)
		if prev := ring.Acquire(image); prev != -1 {
			t.Errorf("image %d: expected no prior owner, got slot %d", image, prev)
		}
	}

	if prev := ring.Acquire(0); prev != -1 {
		t.Errorf("expected no prior owner, got %d", prev)
	}
}

func TestFrameRingImageAliasingAcrossSlots(t *testing.T) {
	// Three images, two slots. When the presentation engine hands
	// image 0 out again on the fourth frame, the submission that
	// last touched it belongs to the other slot and must be waited
	// out.
	ring := newFrameRing(2, 3)

	frames := []struct {
		image    int
		wantPrev int
	}{
		{image: 0, wantPrev: -1},
		{image: 1, wantPrev: -1},
		{image: 2, wantPrev: -1},
		{image: 0, wantPrev: 0},
	}

	for i, f := range frames {
		if prev := ring.Acquire(f.image); prev != f.wantPrev {
			t.Errorf("frame %d image %d: expected prior owner %d, got %d", i, f.image, f.wantPrev, prev)
		}
		ring.Advance()
	}
}

func TestFrameRingSameSlotReacquire(t *testing.T) {
	ring := newFrameRing(1, 2)

	ring.Acquire(0)
	ring.Advance()
	// One slot only, so reacquiring the image reports the same
	// slot; the caller already waited that fence out.
	if prev := ring.Acquire(0); prev != 0 {
		t.Errorf("expected prior owner 0, got %d", prev)
	}
}

func TestFrameRingTenFrameScenario(t *testing.T) {
	const slots = 2
	const images = 3
	ring := newFrameRing(slots, images)

	owners := make([]int, images)
	for i := range owners {
		owners[i] = -1
	}

	for frame := 0; frame < 10; frame++ {
		wantSlot := frame % slots
		if ring.Current() != wantSlot {
			t.Fatalf("frame %d: expected slot %d, got %d", frame, wantSlot, ring.Current())
		}

		image := frame % images
		if prev := ring.Acquire(image); prev != owners[image] {
			t.Errorf("frame %d image %d: expected prior owner %d, got %d", frame, image, owners[image], prev)
		}
		owners[image] = wantSlot
		ring.Advance()
	}
}
