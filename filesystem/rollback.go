package filesystem

// rollback collects callbacks that restore in-memory bookkeeping when an
// immediate operation fails after the model was already updated. Calling
// Undo unwinds them in reverse order; Discard forgets them once the backing
// store call succeeded.
//
// NOTE: rollback is **not** thread-safe; it lives for a single locked call
type rollback struct {
	undoFns []func()
}

// Add pushes an undo callback onto the end of the stack.
func (r *rollback) Add(fn func()) {
	r.undoFns = append(r.undoFns, fn)
}

// Undo unwinds all callbacks in reverse order.
// Safe to call on a nil or empty rollback, so you can
// `defer rb.Undo()` and Discard on success.
//
// Example:
//
//	rb := &rollback{}
//	defer rb.Undo()
//	dir.removeParent()
//	rb.Add(func() { dir.setParent(parent) })
//	if err := store.Delete(ctx, p); err != nil {
//		return err
//	}
//	rb.Discard()
func (r *rollback) Undo() {
	if r == nil {
		return
	}
	for i := len(r.undoFns) - 1; i >= 0; i-- {
		r.undoFns[i]()
	}
	r.undoFns = nil
}

// Discard drops the callbacks without running them
func (r *rollback) Discard() {
	if r == nil {
		return
	}
	r.undoFns = nil
}
