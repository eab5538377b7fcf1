//go:build linux

package mmio

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DevMem is a Bus backed by a /dev/mem mapping of the tile register
// window. Addresses passed to Read32 and Write32 are physical and must
// fall inside the mapped window.
type DevMem struct {
	base uint32
	mem  []byte
	file *os.File
}

// MapDevMem maps size bytes of physical address space starting at base.
// Both base and size must be page aligned.
func MapDevMem(base, size uint32) (*DevMem, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("mmio: opening /dev/mem: %w", err)
	}

	mem, err := unix.Mmap(int(f.Fd()), int64(base), int(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mmio: mapping 0x%08x+0x%x: %w",
			base, size, err)
	}

	return &DevMem{base: base, mem: mem, file: f}, nil
}

// Read32 performs a single 32-bit load from the mapped window. Atomic
// access keeps the load a single bus transaction.
func (d *DevMem) Read32(addr uint32) uint32 {
	return atomic.LoadUint32(d.word(addr))
}

// Write32 performs a single 32-bit store to the mapped window.
func (d *DevMem) Write32(addr uint32, v uint32) {
	atomic.StoreUint32(d.word(addr), v)
}

func (d *DevMem) word(addr uint32) *uint32 {
	off := addr - d.base
	return (*uint32)(unsafe.Pointer(&d.mem[off]))
}

// Close releases the mapping.
func (d *DevMem) Close() error {
	err := unix.Munmap(d.mem)
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	return err
}
