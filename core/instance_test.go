package core

import (
	"reflect"
	"testing"
)

func TestInstanceDestroyUsesPointerReceiver(t *testing.T) {
	// Destroy clears the cached device list; with a value receiver
	// that write would land on a copy and silently vanish.
	if _, ok := reflect.TypeOf(VulkanInstance{}).MethodByName("Destroy"); ok {
		t.Error("Destroy must take a pointer receiver so it mutates the instance, not a copy")
	}
	if _, ok := reflect.TypeOf(&VulkanInstance{}).MethodByName("Destroy"); !ok {
		t.Error("expected Destroy on *VulkanInstance")
	}
}
