package core

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// familyIndex is an optional queue family index. The zero value
// means "not resolved yet".
type familyIndex struct {
	index uint32
	found bool
}

func (f *familyIndex) resolve(i uint32) {
	if !f.found {
		f.index = i
		f.found = true
	}
}

// queueFamilyCaps is what a single queue family can do, flattened
// out of the Vulkan property structs so resolution stays testable.
type queueFamilyCaps struct {
	Graphics bool
	Present  bool
	Transfer bool
}

// familyIndices holds the resolved queue family for every role the
// renderer needs. Roles may alias the same family.
type familyIndices struct {
	graphics familyIndex
	present  familyIndex
	transfer familyIndex
}

// complete reports whether every role found a family.
func (fi familyIndices) complete() bool {
	return fi.graphics.found && fi.present.found && fi.transfer.found
}

// unique returns the distinct family indices in resolution order.
func (fi familyIndices) unique() []uint32 {
	var out []uint32
	seen := map[uint32]bool{}
	for _, f := range []familyIndex{fi.graphics, fi.present, fi.transfer} {
		if f.found && !seen[f.index] {
			seen[f.index] = true
			out = append(out, f.index)
		}
	}
	return out
}

// resolveQueueFamilies assigns each role the first capable family in
// enumeration order and short-circuits once all roles are resolved.
// Greedy first-fit, no backtracking.
func resolveQueueFamilies(caps []queueFamilyCaps) familyIndices {
	var fi familyIndices
	for i, c := range caps {
		if c.Graphics {
			fi.graphics.resolve(uint32(i))
		}
		if c.Present {
			fi.present.resolve(uint32(i))
		}
		if c.Transfer {
			fi.transfer.resolve(uint32(i))
		}
		if fi.complete() {
			break
		}
	}
	return fi
}

// requiredFeature names a device feature the pipeline depends on,
// checked by name instead of poking at struct memory.
type requiredFeature struct {
	name    string
	enabled func(vk.PhysicalDeviceFeatures) bool
}

var requiredDeviceFeatures = []requiredFeature{
	{"samplerAnisotropy", func(f vk.PhysicalDeviceFeatures) bool { return f.SamplerAnisotropy == vk.True }},
}

// missingFeatures lists required features the given set does not enable.
func missingFeatures(features vk.PhysicalDeviceFeatures, required []requiredFeature) []string {
	var missing []string
	for _, r := range required {
		if !r.enabled(features) {
			missing = append(missing, r.name)
		}
	}
	return missing
}

// missingExtensions lists required extensions absent from supported.
func missingExtensions(supported map[string]bool, required []string) []string {
	var missing []string
	for _, ext := range required {
		if !supported[ext] {
			missing = append(missing, ext)
		}
	}
	return missing
}

func (v *VulkanRenderer) queryQueueFamilyCaps(device vk.PhysicalDevice) ([]queueFamilyCaps, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return nil, errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queue families on GPU")
	}
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	caps := make([]queueFamilyCaps, queueFamilyCount)
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		flags := queueFamilies[i].QueueFlags

		caps[i].Graphics = flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
		// Graphics queues can always transfer, even when the bit
		// is not reported separately.
		caps[i].Transfer = caps[i].Graphics || flags&vk.QueueFlags(vk.QueueTransferBit) != 0

		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(device, i, v.surface, &supportsPresent)
		caps[i].Present = supportsPresent.B()
	}
	return caps, nil
}

func (v *VulkanRenderer) supportedExtensions(device vk.PhysicalDevice) (map[string]bool, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	props := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &count, props)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	supported := make(map[string]bool, count)
	for i := range props {
		props[i].Deref()
		supported[vk.ToString(props[i].ExtensionName[:])] = true
	}
	return supported, nil
}

// DeviceIsSuitable implements interface
func (v *VulkanRenderer) DeviceIsSuitable(device vk.PhysicalDevice) (bool, string) {
	caps, err := v.queryQueueFamilyCaps(device)
	if err != nil {
		return false, err.Error()
	}
	if !resolveQueueFamilies(caps).complete() {
		return false, "missing a graphics, presentation or transfer queue family"
	}

	supported, err := v.supportedExtensions(device)
	if err != nil {
		return false, err.Error()
	}
	if missing := missingExtensions(supported, v.configuration.DeviceExtensions); len(missing) > 0 {
		return false, fmt.Sprintf("missing device extensions: %v", missing)
	}

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(device, &features)
	features.Deref()
	if missing := missingFeatures(features, requiredDeviceFeatures); len(missing) > 0 {
		return false, fmt.Sprintf("missing device features: %v", missing)
	}

	support := v.querySwapchainSupport(device)
	if len(support.formats) == 0 || len(support.presentModes) == 0 {
		return false, "surface reports no formats or present modes"
	}

	return true, ""
}

// pickPhysicalDevice selects the first device that satisfies every
// predicate, in enumeration order.
func (v *VulkanRenderer) pickPhysicalDevice(available []vk.PhysicalDevice) error {
	if len(available) == 0 {
		return errors.New("no Vulkan capable devices present")
	}

	for _, device := range available {
		suitable, _ := v.DeviceIsSuitable(device)
		if !suitable {
			continue
		}
		caps, err := v.queryQueueFamilyCaps(device)
		if err != nil {
			return err
		}
		v.physicalDevice = device
		v.queueIndices = resolveQueueFamilies(caps)
		return nil
	}
	return errors.New("no suitable GPU found")
}

func (v *VulkanRenderer) createLogicalDevice() error {
	var queueInfos []vk.DeviceQueueCreateInfo
	for _, family := range v.queueIndices.unique() {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(v.configuration.DeviceExtensions)),
		PpEnabledExtensionNames: safeStrings(v.configuration.DeviceExtensions),
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vk.True,
		}},
	}

	var vkDevice vk.Device
	if err := vk.Error(vk.CreateDevice(v.physicalDevice, &dci, nil, &vkDevice)); err != nil {
		return errors.New("vk.CreateDevice(): " + err.Error())
	}
	v.logicalDevice = vkDevice

	vk.GetDeviceQueue(v.logicalDevice, v.queueIndices.graphics.index, 0, &v.graphicsQueue)
	vk.GetDeviceQueue(v.logicalDevice, v.queueIndices.present.index, 0, &v.presentQueue)
	vk.GetDeviceQueue(v.logicalDevice, v.queueIndices.transfer.index, 0, &v.transferQueue)
	return nil
}
