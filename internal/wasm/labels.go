package wasm

// labelFrame is one open structured region. Frames are strictly LIFO: a
// region is always closed before anything opened earlier.
type labelFrame struct {
	name      string // loop label, empty for anonymous regions
	isLoop    bool   // valid continue target
	breakable bool   // valid break target
	result    byte   // block type, blockVoid for no value
}

// labelStack tracks open regions so break and continue can be resolved to
// relative branch depths counted from the innermost frame.
type labelStack struct {
	frames []labelFrame
}

func (s *labelStack) push(f labelFrame) {
	s.frames = append(s.frames, f)
}

func (s *labelStack) pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *labelStack) depth() int {
	return len(s.frames)
}

// breakDepth resolves the nearest breakable frame, or the nearest breakable
// frame with a matching name when label is non-empty.
func (s *labelStack) breakDepth(label string) (uint32, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if !f.breakable {
			continue
		}
		if label != "" && f.name != label {
			continue
		}
		return uint32(len(s.frames) - 1 - i), true
	}
	return 0, false
}

// continueDepth resolves the nearest loop frame, optionally by name.
func (s *labelStack) continueDepth(label string) (uint32, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if !f.isLoop {
			continue
		}
		if label != "" && f.name != label {
			continue
		}
		return uint32(len(s.frames) - 1 - i), true
	}
	return 0, false
}
