package core

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestLayoutTransitionMasksUploadPath(t *testing.T) {
	masks, err := layoutTransitionMasks(vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if masks.srcAccess != 0 {
		t.Errorf("expected no source access before the copy, got %d", masks.srcAccess)
	}
	if masks.dstAccess != vk.AccessFlags(vk.AccessTransferWriteBit) {
		t.Errorf("expected transfer write access, got %d", masks.dstAccess)
	}
	if masks.srcStage != vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit) ||
		masks.dstStage != vk.PipelineStageFlags(vk.PipelineStageTransferBit) {
		t.Errorf("unexpected stages %d -> %d", masks.srcStage, masks.dstStage)
	}
}

func TestLayoutTransitionMasksSamplingPath(t *testing.T) {
	masks, err := layoutTransitionMasks(vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		t.Fatal(err)
	}
	if masks.srcAccess != vk.AccessFlags(vk.AccessTransferWriteBit) ||
		masks.dstAccess != vk.AccessFlags(vk.AccessShaderReadBit) {
		t.Errorf("unexpected accesses %d -> %d", masks.srcAccess, masks.dstAccess)
	}
	if masks.srcStage != vk.PipelineStageFlags(vk.PipelineStageTransferBit) ||
		masks.dstStage != vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit) {
		t.Errorf("unexpected stages %d -> %d", masks.srcStage, masks.dstStage)
	}
}

func TestLayoutTransitionMasksUnknownPair(t *testing.T) {
	if _, err := layoutTransitionMasks(vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutTransferDstOptimal); err == nil {
		t.Error("expected an error for an unsupported transition pair")
	}
}
