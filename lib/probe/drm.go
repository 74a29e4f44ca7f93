// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"github.com/bureau-foundation/envdump/lib/loader"
	"github.com/bureau-foundation/envdump/lib/sysfs"
)

// drmVersion mirrors libdrm's drmVersion on LP64.
type drmVersion struct {
	Major   int32
	Minor   int32
	Patch   int32
	NameLen int32
	Name    uintptr
	DateLen int32
	Date    uintptr
	DescLen int32
	Desc    uintptr
}

// libdrm entry points used by the DRM probe. All four must resolve for
// the probe to run.
const (
	symbolPrimaryName = "drmGetPrimaryDeviceNameFromFd"
	symbolGetVersion  = "drmGetVersion"
	symbolLibVersion  = "drmGetLibVersion"
	symbolFreeVersion = "drmFreeVersion"
)

// DRM describes DRM devices the first time the program issues an
// ioctl on them. It calls the program's own libdrm, so nothing is
// written for programs that never loaded it.
type DRM struct {
	recorder Recorder
	resolver Resolver
	invoker  Invoker
	sysRoot  string
}

// NewDRM returns the DRM probe.
func NewDRM(recorder Recorder, resolver Resolver, invoker Invoker, sysRoot string) *DRM {
	return &DRM{recorder: recorder, resolver: resolver, invoker: invoker, sysRoot: sysRoot}
}

// Describe writes LIBDRM, DRM and, for i915, INTEL_DRM for the device
// node at path opened as fd. Paths outside /dev/dri are ignored.
func (d *DRM) Describe(path string, fd int) {
	if !sysfs.IsDRMNode(path) {
		return
	}

	primaryName := d.resolver.ResolveByName(symbolPrimaryName)
	getVersion := d.resolver.ResolveByName(symbolGetVersion)
	libVersion := d.resolver.ResolveByName(symbolLibVersion)
	freeVersion := d.resolver.ResolveByName(symbolFreeVersion)
	if primaryName == 0 || getVersion == 0 || libVersion == 0 || freeVersion == 0 {
		return
	}

	primary := d.invoker.Invoke(primaryName, uintptr(fd))
	if primary == 0 {
		return
	}
	defer d.free(primary)

	primaryPath := loader.GoString(primary)
	if !strings.Contains(primaryPath, "/") {
		return
	}

	library := d.invoker.Invoke(libVersion, uintptr(fd))
	if library != 0 {
		defer d.invoker.Invoke(freeVersion, library)
	}
	driver := d.invoker.Invoke(getVersion, uintptr(fd))
	if driver != 0 {
		defer d.invoker.Invoke(freeVersion, driver)
	}
	if library == 0 || driver == 0 {
		return
	}

	libraryVersion := (*drmVersion)(unsafe.Pointer(library))
	driverVersion := (*drmVersion)(unsafe.Pointer(driver))

	node := filepath.Base(path)
	deviceDirectory := filepath.Join(d.sysRoot, "class", "drm", node, "device")
	vendor := sysfs.ReadString(filepath.Join(deviceDirectory, "vendor"))
	device := sysfs.ReadString(filepath.Join(deviceDirectory, "device"))

	d.recorder.Record("LIBDRM", versionFields(libraryVersion)...)

	driverName := loader.GoString(driverVersion.Name)
	fields := append(versionFields(driverVersion),
		driverName,
		loader.GoString(driverVersion.Date),
		loader.GoString(driverVersion.Desc),
		vendor,
		device)
	d.recorder.Record("DRM", fields...)

	if driverName == "i915" {
		d.describeIntel(filepath.Base(primaryPath))
	}
}

func versionFields(version *drmVersion) []string {
	return []string{
		strconv.Itoa(int(version.Major)),
		strconv.Itoa(int(version.Minor)),
		strconv.Itoa(int(version.Patch)),
	}
}

// describeIntel writes the GT frequency limits of an i915 primary
// node. Missing files read as -1.
func (d *DRM) describeIntel(primaryNode string) {
	directory := filepath.Join(d.sysRoot, "class", "drm", primaryNode)
	files := []string{"gt_min_freq_mhz", "gt_max_freq_mhz", "gt_RP0_freq_mhz", "gt_RP1_freq_mhz", "gt_RPn_freq_mhz"}
	fields := make([]string, len(files))
	for i, name := range files {
		value, err := sysfs.ReadValue(filepath.Join(directory, name))
		if err != nil {
			value = -1
		}
		fields[i] = strconv.FormatInt(value, 10)
	}
	d.recorder.Record("INTEL_DRM", fields...)
}

// free releases a string libdrm allocated with malloc.
func (d *DRM) free(pointer uintptr) {
	if free := d.resolver.ResolveByName("free"); free != 0 {
		d.invoker.Invoke(free, pointer)
	}
}
