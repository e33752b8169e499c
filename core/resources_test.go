package core

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestChooseMemoryTypeFirstMatchWins(t *testing.T) {
	hostVisible := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	types := []vk.MemoryType{
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)},
		{PropertyFlags: hostVisible},
		{PropertyFlags: hostVisible},
	}

	idx, err := chooseMemoryType(types, 0b111, hostVisible)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Errorf("expected the first matching index 1, got %d", idx)
	}
}

func TestChooseMemoryTypeHonorsTypeFilter(t *testing.T) {
	flags := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	types := []vk.MemoryType{
		{PropertyFlags: flags},
		{PropertyFlags: flags},
	}

	// Bit 0 excluded by the filter, so index 1 must win even though
	// index 0 has the right properties.
	idx, err := chooseMemoryType(types, 0b10, flags)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Errorf("expected index 1, got %d", idx)
	}
}

func TestChooseMemoryTypeNotFound(t *testing.T) {
	types := []vk.MemoryType{
		{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)},
	}

	if _, err := chooseMemoryType(types, 0b1, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)); err == nil {
		t.Error("expected an error when no memory type satisfies the request")
	}
}
