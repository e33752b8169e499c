package core

import (
	"math"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestChooseSurfaceFormatPrefersSrgbBGRA(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	got := chooseSurfaceFormat(formats)
	if got.Format != vk.FormatB8g8r8a8Srgb || got.ColorSpace != vk.ColorSpaceSrgbNonlinear {
		t.Errorf("expected BGRA sRGB, got format %d colorspace %d", got.Format, got.ColorSpace)
	}
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatR5g6b5UnormPack16, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}

	got := chooseSurfaceFormat(formats)
	if got.Format != formats[0].Format {
		t.Errorf("expected the first supported format, got %d", got.Format)
	}
}

func TestChoosePresentModePrefersMailbox(t *testing.T) {
	modes := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate}
	if got := choosePresentMode(modes); got != vk.PresentModeMailbox {
		t.Errorf("expected mailbox, got %d", got)
	}
}

func TestChoosePresentModeFallsBackToFifo(t *testing.T) {
	if got := choosePresentMode([]vk.PresentMode{vk.PresentModeImmediate}); got != vk.PresentModeFifo {
		t.Errorf("expected fifo, got %d", got)
	}
	if got := choosePresentMode(nil); got != vk.PresentModeFifo {
		t.Errorf("expected fifo for empty list, got %d", got)
	}
}

func TestChooseImageCountOneOverMinimum(t *testing.T) {
	if got := chooseImageCount(2, 0); got != 3 {
		t.Errorf("expected 3 with unbounded maximum, got %d", got)
	}
}

func TestChooseImageCountClampsToMaximum(t *testing.T) {
	if got := chooseImageCount(3, 3); got != 3 {
		t.Errorf("expected clamp to 3, got %d", got)
	}
}

func TestChooseSwapExtentVerbatim(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 800, Height: 600},
	}

	got := chooseSwapExtent(caps, 123, 456)
	if got.Width != 800 || got.Height != 600 {
		t.Errorf("expected the surface extent verbatim, got %dx%d", got.Width, got.Height)
	}
}

func TestChooseSwapExtentSentinelClampsFramebufferSize(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1000, Height: 1000},
	}

	got := chooseSwapExtent(caps, 2000, 50)
	if got.Width != 1000 || got.Height != 100 {
		t.Errorf("expected componentwise clamp to 1000x100, got %dx%d", got.Width, got.Height)
	}

	got = chooseSwapExtent(caps, 640, 480)
	if got.Width != 640 || got.Height != 480 {
		t.Errorf("expected framebuffer size 640x480, got %dx%d", got.Width, got.Height)
	}
}

// fakeSurfacer plays back a scripted sequence of framebuffer sizes,
// advancing only when the renderer blocks on window events.
type fakeSurfacer struct {
	sizes [][2]int
	waits int
}

func (f *fakeSurfacer) FramebufferSize() (int, int) {
	s := f.sizes[0]
	return s[0], s[1]
}

func (f *fakeSurfacer) WaitEvents() {
	f.waits++
	if len(f.sizes) > 1 {
		f.sizes = f.sizes[1:]
	}
}

func TestWaitForNonZeroExtentBlocksWhileMinimised(t *testing.T) {
	s := &fakeSurfacer{sizes: [][2]int{{0, 0}, {0, 600}, {800, 600}}}

	w, h := waitForNonZeroExtent(s)
	if w != 800 || h != 600 {
		t.Errorf("expected to unblock at 800x600, got %dx%d", w, h)
	}
	if s.waits != 2 {
		t.Errorf("expected 2 event waits before the window regained area, got %d", s.waits)
	}
}

func TestWaitForNonZeroExtentPassesThrough(t *testing.T) {
	s := &fakeSurfacer{sizes: [][2]int{{800, 600}}}

	if w, h := waitForNonZeroExtent(s); w != 800 || h != 600 {
		t.Errorf("expected 800x600, got %dx%d", w, h)
	}
	if s.waits != 0 {
		t.Errorf("expected no waits for a live window, got %d", s.waits)
	}
}
