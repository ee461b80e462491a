package wasm

// Allocator state lives in two module globals: the mutable bump pointer and
// the immutable end-of-memory bound. Every construction site calls the one
// emitted alloc function instead of inlining the sequence.
const (
	globalHeap uint32 = 0
	globalEnd  uint32 = 1
)

// AllocFuncName is the link name of the allocation primitive.
const AllocFuncName = "alloc"

// allocSignature is (size i32, align i32) -> (addr i32). Align must be a
// power of two; the null address 0 signals exhaustion.
func allocSignature() funcType {
	return funcType{
		params:  []ValType{ValI32, ValI32},
		results: []ValType{ValI32},
	}
}

// appendAllocGlobals writes the two allocator globals into a global-section
// body: heapStart is the first free address after static data, memEnd the
// exclusive upper bound of usable linear memory.
func appendAllocGlobals(dst []byte, heapStart, memEnd uint32) []byte {
	// global 0: mutable bump pointer
	dst = append(dst, byte(ValI32), 0x01)
	dst = append(dst, opI32Const)
	dst = appendSleb(dst, int64(int32(heapStart)))
	dst = append(dst, opEnd)
	// global 1: immutable memory bound
	dst = append(dst, byte(ValI32), 0x00)
	dst = append(dst, opI32Const)
	dst = appendSleb(dst, int64(int32(memEnd)))
	dst = append(dst, opEnd)
	return dst
}

// allocFuncBody emits the code-section entry for the allocation primitive.
//
//	aligned = (heap + align - 1) & -align
//	next    = aligned + size
//	if next > end { return 0 }
//	heap = next
//	return aligned
func allocFuncBody() []byte {
	const (
		localSize    uint64 = 0
		localAlign   uint64 = 1
		localAligned uint64 = 2
		localNext    uint64 = 3
	)
	var body []byte
	// two scratch i32 locals
	body = appendUleb(body, 1)
	body = appendUleb(body, 2)
	body = append(body, byte(ValI32))

	// aligned = (heap + align - 1) & -align
	body = append(body, opGlobalGet)
	body = appendUleb(body, uint64(globalHeap))
	body = append(body, opLocalGet)
	body = appendUleb(body, localAlign)
	body = append(body, opI32Add)
	body = append(body, opI32Const)
	body = appendSleb(body, 1)
	body = append(body, opI32Sub)
	body = append(body, opI32Const)
	body = appendSleb(body, 0)
	body = append(body, opLocalGet)
	body = appendUleb(body, localAlign)
	body = append(body, opI32Sub)
	body = append(body, opI32And)
	body = append(body, opLocalSet)
	body = appendUleb(body, localAligned)

	// next = aligned + size
	body = append(body, opLocalGet)
	body = appendUleb(body, localAligned)
	body = append(body, opLocalGet)
	body = appendUleb(body, localSize)
	body = append(body, opI32Add)
	body = append(body, opLocalSet)
	body = appendUleb(body, localNext)

	// out-of-memory check
	body = append(body, opLocalGet)
	body = appendUleb(body, localNext)
	body = append(body, opGlobalGet)
	body = appendUleb(body, uint64(globalEnd))
	body = append(body, opI32GtU)
	body = append(body, opIf, blockVoid)
	body = append(body, opI32Const)
	body = appendSleb(body, 0)
	body = append(body, opReturn)
	body = append(body, opEnd)

	// commit and return the aligned address
	body = append(body, opLocalGet)
	body = appendUleb(body, localNext)
	body = append(body, opGlobalSet)
	body = appendUleb(body, uint64(globalHeap))
	body = append(body, opLocalGet)
	body = appendUleb(body, localAligned)
	body = append(body, opEnd)

	var entry []byte
	entry = appendUleb(entry, uint64(len(body)))
	return append(entry, body...)
}
