package core

import (
	"reflect"
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestResolveQueueFamiliesFirstFit(t *testing.T) {
	caps := []queueFamilyCaps{
		{Graphics: false, Present: false, Transfer: true},
		{Graphics: true, Present: false, Transfer: true},
		{Graphics: true, Present: true, Transfer: true},
	}

	fi := resolveQueueFamilies(caps)
	if !fi.complete() {
		t.Fatal("expected all roles resolved")
	}
	if fi.graphics.index != 1 {
		t.Errorf("graphics: expected family 1, got %d", fi.graphics.index)
	}
	if fi.present.index != 2 {
		t.Errorf("present: expected family 2, got %d", fi.present.index)
	}
	if fi.transfer.index != 0 {
		t.Errorf("transfer: expected family 0, got %d", fi.transfer.index)
	}
}

func TestResolveQueueFamiliesKeepsFirstMatch(t *testing.T) {
	// A later, equally capable family must never displace an
	// earlier resolution.
	caps := []queueFamilyCaps{
		{Graphics: true, Present: true, Transfer: true},
		{Graphics: true, Present: true, Transfer: true},
	}

	fi := resolveQueueFamilies(caps)
	if fi.graphics.index != 0 || fi.present.index != 0 || fi.transfer.index != 0 {
		t.Errorf("expected every role on family 0, got %d/%d/%d",
			fi.graphics.index, fi.present.index, fi.transfer.index)
	}
}

func TestResolveQueueFamiliesIdempotent(t *testing.T) {
	caps := []queueFamilyCaps{
		{Graphics: true, Transfer: true},
		{Present: true, Transfer: true},
	}

	first := resolveQueueFamilies(caps)
	second := resolveQueueFamilies(caps)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolution not deterministic: %+v vs %+v", first, second)
	}
}

func TestResolveQueueFamiliesIncomplete(t *testing.T) {
	caps := []queueFamilyCaps{
		{Graphics: true, Transfer: true},
	}

	if resolveQueueFamilies(caps).complete() {
		t.Error("expected incomplete resolution without a present family")
	}
}

func TestFamilyIndicesUnique(t *testing.T) {
	fi := familyIndices{}
	fi.graphics.resolve(0)
	fi.present.resolve(1)
	fi.transfer.resolve(0)

	got := fi.unique()
	if !reflect.DeepEqual(got, []uint32{0, 1}) {
		t.Errorf("expected [0 1], got %v", got)
	}
}

func TestMissingFeatures(t *testing.T) {
	var features vk.PhysicalDeviceFeatures
	if missing := missingFeatures(features, requiredDeviceFeatures); len(missing) != 1 || missing[0] != "samplerAnisotropy" {
		t.Errorf("expected samplerAnisotropy to be reported missing, got %v", missing)
	}

	features.SamplerAnisotropy = vk.True
	if missing := missingFeatures(features, requiredDeviceFeatures); len(missing) != 0 {
		t.Errorf("expected no missing features, got %v", missing)
	}
}

func TestMissingExtensions(t *testing.T) {
	supported := map[string]bool{
		"VK_KHR_swapchain": true,
	}

	if missing := missingExtensions(supported, []string{"VK_KHR_swapchain"}); len(missing) != 0 {
		t.Errorf("expected no missing extensions, got %v", missing)
	}
	if missing := missingExtensions(supported, []string{"VK_KHR_swapchain", "VK_EXT_imaginary"}); len(missing) != 1 || missing[0] != "VK_EXT_imaginary" {
		t.Errorf("expected VK_EXT_imaginary missing, got %v", missing)
	}
}
