package wasm

import "testing"

func TestLabelStack_BreakSkipsNonBreakableFrames(t *testing.T) {
	var s labelStack
	s.push(labelFrame{breakable: true, result: blockVoid}) // loop's outer block
	s.push(labelFrame{isLoop: true, result: blockVoid})    // loop frame
	s.push(labelFrame{result: blockVoid})                  // if frame

	depth, ok := s.breakDepth("")
	if !ok {
		t.Fatal("expected a breakable frame, found none")
	}
	if depth != 2 {
		t.Errorf("break depth = %d, want 2", depth)
	}

	depth, ok = s.continueDepth("")
	if !ok {
		t.Fatal("expected a loop frame, found none")
	}
	if depth != 1 {
		t.Errorf("continue depth = %d, want 1", depth)
	}
}

func TestLabelStack_LabeledTargets(t *testing.T) {
	var s labelStack
	s.push(labelFrame{name: "outer", breakable: true})
	s.push(labelFrame{name: "outer", isLoop: true})
	s.push(labelFrame{name: "inner", breakable: true})
	s.push(labelFrame{name: "inner", isLoop: true})

	depth, ok := s.breakDepth("outer")
	if !ok || depth != 3 {
		t.Errorf("break 'outer' = (%d, %v), want (3, true)", depth, ok)
	}
	depth, ok = s.continueDepth("outer")
	if !ok || depth != 2 {
		t.Errorf("continue 'outer' = (%d, %v), want (2, true)", depth, ok)
	}
	depth, ok = s.breakDepth("")
	if !ok || depth != 1 {
		t.Errorf("unlabeled break = (%d, %v), want (1, true)", depth, ok)
	}
	if _, ok := s.breakDepth("ghost"); ok {
		t.Error("break to unknown label resolved, want failure")
	}
}

func TestLabelStack_EmptyResolvesNothing(t *testing.T) {
	var s labelStack
	if _, ok := s.breakDepth(""); ok {
		t.Error("empty stack resolved a break target")
	}
	if _, ok := s.continueDepth(""); ok {
		t.Error("empty stack resolved a continue target")
	}
	s.pop() // must not panic
	if s.depth() != 0 {
		t.Errorf("depth = %d, want 0", s.depth())
	}
}
