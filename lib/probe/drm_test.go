// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/bureau-foundation/envdump/lib/loader"
	"github.com/bureau-foundation/envdump/lib/symbols"
	"github.com/bureau-foundation/envdump/lib/testutil"
)

// fakeLibdrm defines the libdrm entry points on a fake loader.
type fakeLibdrm struct {
	strings  cstrings
	library  *drmVersion
	driver   *drmVersion
	primary  string
	fds      []uintptr
	freed    []uintptr
	released int
}

func (f *fakeLibdrm) install(fake *loader.Fake, driverName string) {
	f.library = &drmVersion{Major: 1, Minor: 4, Patch: 0}
	f.driver = &drmVersion{
		Major: 1,
		Minor: 6,
		Name:  f.strings.pointer(driverName),
		Date:  f.strings.pointer("20200917"),
		Desc:  f.strings.pointer("Intel Graphics"),
	}
	primary := f.strings.pointer(f.primary)

	fake.SetNext("drmGetPrimaryDeviceNameFromFd", fake.Define(func(args ...uintptr) uintptr {
		f.fds = append(f.fds, args[0])
		return primary
	}))
	fake.SetNext("drmGetLibVersion", fake.Define(func(args ...uintptr) uintptr {
		return uintptr(unsafe.Pointer(f.library))
	}))
	fake.SetNext("drmGetVersion", fake.Define(func(args ...uintptr) uintptr {
		return uintptr(unsafe.Pointer(f.driver))
	}))
	fake.SetNext("drmFreeVersion", fake.Define(func(args ...uintptr) uintptr {
		f.freed = append(f.freed, args[0])
		return 0
	}))
	fake.SetNext("free", fake.Define(func(args ...uintptr) uintptr {
		f.released++
		return 0
	}))
}

func TestDRMDescribe(t *testing.T) {
	root := t.TempDir()
	testutil.WriteTree(t, root, map[string]string{
		"class/drm/renderD128/device/vendor": "0x8086\n",
		"class/drm/renderD128/device/device": "0x9a49\n",
		"class/drm/card0/gt_min_freq_mhz":    "100\n",
		"class/drm/card0/gt_max_freq_mhz":    "1300\n",
		"class/drm/card0/gt_RP0_freq_mhz":    "1300\n",
		"class/drm/card0/gt_RP1_freq_mhz":    "400\n",
	})

	fake := loader.NewFake()
	libdrm := &fakeLibdrm{primary: "/dev/dri/card0"}
	libdrm.install(fake, "i915")
	registry := symbols.New(symbols.Config{Loader: fake})
	records := &recorder{}

	NewDRM(records, registry, fake, root).Describe("/dev/dri/renderD128", 7)

	want := []string{
		"LIBDRM,1,4,0",
		"DRM,1,6,0,i915,20200917,Intel Graphics,0x8086,0x9a49",
		"INTEL_DRM,100,1300,1300,400,-1",
	}
	if got := records.all(); !equalLines(got, want) {
		t.Errorf("records:\n got %q\nwant %q", got, want)
	}
	if len(libdrm.fds) != 1 || libdrm.fds[0] != 7 {
		t.Errorf("primary name queried with fds %v", libdrm.fds)
	}
	if len(libdrm.freed) != 2 {
		t.Errorf("drmFreeVersion called %d times, want 2", len(libdrm.freed))
	}
	if libdrm.released != 1 {
		t.Errorf("free called %d times, want 1", libdrm.released)
	}
	runtime.KeepAlive(libdrm)
}

func TestDRMDescribeOtherDriver(t *testing.T) {
	fake := loader.NewFake()
	libdrm := &fakeLibdrm{primary: "/dev/dri/card1"}
	libdrm.install(fake, "amdgpu")
	records := &recorder{}

	NewDRM(records, symbols.New(symbols.Config{Loader: fake}), fake, t.TempDir()).Describe("/dev/dri/card1", 3)

	want := []string{
		"LIBDRM,1,4,0",
		"DRM,1,6,0,amdgpu,20200917,Intel Graphics,,",
	}
	if got := records.all(); !equalLines(got, want) {
		t.Errorf("records:\n got %q\nwant %q", got, want)
	}
	runtime.KeepAlive(libdrm)
}

func TestDRMDescribeSkips(t *testing.T) {
	t.Run("not a DRM node", func(t *testing.T) {
		fake := loader.NewFake()
		libdrm := &fakeLibdrm{primary: "/dev/dri/card0"}
		libdrm.install(fake, "i915")
		records := &recorder{}

		NewDRM(records, symbols.New(symbols.Config{Loader: fake}), fake, t.TempDir()).Describe("/tmp/socket", 3)

		if got := records.all(); len(got) != 0 {
			t.Errorf("records = %q", got)
		}
		if len(libdrm.fds) != 0 {
			t.Error("libdrm called for a non-DRM path")
		}
	})

	t.Run("libdrm not loaded", func(t *testing.T) {
		fake := loader.NewFake()
		fake.SetNext("drmGetVersion", fake.Define(func(...uintptr) uintptr {
			t.Error("drmGetVersion called without the full libdrm set")
			return 0
		}))
		records := &recorder{}

		NewDRM(records, symbols.New(symbols.Config{Loader: fake}), fake, t.TempDir()).Describe("/dev/dri/card0", 3)

		if got := records.all(); len(got) != 0 {
			t.Errorf("records = %q", got)
		}
	})

	t.Run("no primary node", func(t *testing.T) {
		fake := loader.NewFake()
		libdrm := &fakeLibdrm{primary: "card0"}
		libdrm.install(fake, "i915")
		records := &recorder{}

		NewDRM(records, symbols.New(symbols.Config{Loader: fake}), fake, t.TempDir()).Describe("/dev/dri/card0", 3)

		if got := records.all(); len(got) != 0 {
			t.Errorf("records = %q", got)
		}
		if libdrm.released != 1 {
			t.Errorf("primary name not released")
		}
		runtime.KeepAlive(libdrm)
	})
}
