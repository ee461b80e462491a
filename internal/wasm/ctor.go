package wasm

// emitConstructor builds the body of a gene's constructor function. The
// constructor allocates one instance, initializes every field from its
// parameters and returns the base address. A null address from the
// allocator is passed through untouched so callers can check it.
//
// Inline gene fields receive a source-instance address; their scalar cells
// are copied one by one. A null source is skipped, which leaves the
// embedded bytes zeroed since linear memory starts zero-filled and the
// allocator never reuses it.
func (a *Assembler) emitConstructor(l *Layout) []byte {
	allocIdx := a.funcIndex[AllocFuncName]
	base := uint64(len(l.Fields)) // first slot after the parameters

	var body []byte
	// one i32 local for the instance address
	body = appendUleb(body, 1)
	body = appendUleb(body, 1)
	body = append(body, byte(ValI32))

	body = append(body, opI32Const)
	body = appendSleb(body, int64(l.Size))
	body = append(body, opI32Const)
	body = appendSleb(body, int64(l.Align))
	body = append(body, opCall)
	body = appendUleb(body, uint64(allocIdx))
	body = append(body, opLocalTee)
	body = appendUleb(body, base)

	// exhausted memory: return the null address without storing
	body = append(body, opI32Eqz)
	body = append(body, opIf, blockVoid)
	body = append(body, opI32Const)
	body = appendSleb(body, 0)
	body = append(body, opReturn)
	body = append(body, opEnd)

	for i := range l.Fields {
		f := &l.Fields[i]
		param := uint64(i)
		if f.Inline == nil {
			body = append(body, opLocalGet)
			body = appendUleb(body, base)
			body = append(body, opLocalGet)
			body = appendUleb(body, param)
			body = append(body, f.Val.storeOp())
			body = appendUleb(body, alignBits(f.Align))
			body = appendUleb(body, uint64(f.Offset))
			continue
		}
		body = append(body, opLocalGet)
		body = appendUleb(body, param)
		body = append(body, opIf, blockVoid)
		for _, cell := range f.Inline.leaves() {
			body = append(body, opLocalGet)
			body = appendUleb(body, base)
			body = append(body, opLocalGet)
			body = appendUleb(body, param)
			body = append(body, cell.val.loadOp())
			body = appendUleb(body, alignBits(cell.val.size()))
			body = appendUleb(body, uint64(cell.offset))
			body = append(body, cell.val.storeOp())
			body = appendUleb(body, alignBits(cell.val.size()))
			body = appendUleb(body, uint64(f.Offset+cell.offset))
		}
		body = append(body, opEnd)
	}

	body = append(body, opLocalGet)
	body = appendUleb(body, base)
	body = append(body, opEnd)

	var entry []byte
	entry = appendUleb(entry, uint64(len(body)))
	return append(entry, body...)
}
