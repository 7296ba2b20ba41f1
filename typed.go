package mempool

import (
	"math"
	"unsafe"
)

// Destroyer is implemented by element types that need teardown beyond memory
// reclamation. DestroyObject and DestroyArray invoke it; memory itself is
// never freed per object.
type Destroyer interface {
	Destroy()
}

// NewObject allocates a zeroed T in the pool's active generation.
//
// Values stored in pool memory are invisible to the Go garbage collector:
// they may point at other pool-allocated values (the arena keeps its chunks
// alive) but must not hold the only reference to an ordinary heap object.
func NewObject[T any](p *Pool) (*T, error) {
	var zero T
	ptr, err := p.Alloc(unsafe.Sizeof(zero), unsafe.Alignof(zero))
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// NewTempObject allocates a zeroed T in the temporary generation.
func NewTempObject[T any](p *Pool) (*T, error) {
	var zero T
	ptr, err := p.AllocTemp(unsafe.Sizeof(zero), unsafe.Alignof(zero))
	if err != nil {
		return nil, err
	}
	return (*T)(ptr), nil
}

// NewArray allocates a zeroed []T of length n in the active generation.
// n <= 0 returns a nil slice.
func NewArray[T any](p *Pool, n int) ([]T, error) {
	return newArray[T](p, n, false)
}

// NewTempArray allocates a zeroed []T of length n in the temporary
// generation.
func NewTempArray[T any](p *Pool, n int) ([]T, error) {
	return newArray[T](p, n, true)
}

// NewArrayProto allocates a []T of length n with every element copied from
// proto.
func NewArrayProto[T any](p *Pool, n int, proto T) ([]T, error) {
	s, err := newArray[T](p, n, false)
	if err != nil {
		return nil, err
	}
	for i := range s {
		s[i] = proto
	}
	return s, nil
}

// NewTempArrayProto is NewArrayProto in the temporary generation.
func NewTempArrayProto[T any](p *Pool, n int, proto T) ([]T, error) {
	s, err := newArray[T](p, n, true)
	if err != nil {
		return nil, err
	}
	for i := range s {
		s[i] = proto
	}
	return s, nil
}

func newArray[T any](p *Pool, n int, temp bool) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	var zero T
	elem := unsafe.Sizeof(zero)
	if elem > 0 && uintptr(n) > math.MaxInt/elem {
		return nil, ErrOOM
	}
	var (
		ptr unsafe.Pointer
		err error
	)
	if temp {
		ptr, err = p.AllocTemp(uintptr(n)*elem, unsafe.Alignof(zero))
	} else {
		ptr, err = p.Alloc(uintptr(n)*elem, unsafe.Alignof(zero))
	}
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(ptr), n), nil
}

// DestroyObject runs the value's Destroy method when *T implements Destroyer.
// It never frees memory; the bytes are reclaimed with the generation.
func DestroyObject[T any](ptr *T) {
	if ptr == nil {
		return
	}
	if d, ok := any(ptr).(Destroyer); ok {
		d.Destroy()
	}
}

// DestroyArray runs Destroy on every element whose pointer type implements
// Destroyer. No memory is freed.
func DestroyArray[T any](s []T) {
	if _, ok := any((*T)(nil)).(Destroyer); !ok {
		return
	}
	for i := range s {
		any(&s[i]).(Destroyer).Destroy()
	}
}
