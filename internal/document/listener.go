package document

// Listener receives document change notifications. Calls happen synchronously
// inside the mutating method.
type Listener interface {
	// OnInsert is called after text was inserted at pos.
	OnInsert(pos Position, text string)

	// OnDelete is called before the text between begin and end is removed,
	// while both positions and every line between them are still valid.
	OnDelete(begin, end Position)

	// OnTagChanged is called after tags were added to or removed from the
	// range between begin and end.
	OnTagChanged(begin, end Position)

	// OnMarkSet is called after a mark was explicitly moved.
	OnMarkSet(name string, old, pos Position)
}

// ListenerFuncs adapts optional callbacks to the Listener interface.
// Nil fields are skipped.
type ListenerFuncs struct {
	Insert     func(pos Position, text string)
	Delete     func(begin, end Position)
	TagChanged func(begin, end Position)
	MarkSet    func(name string, old, pos Position)
}

func (f ListenerFuncs) OnInsert(pos Position, text string) {
	if f.Insert != nil {
		f.Insert(pos, text)
	}
}

func (f ListenerFuncs) OnDelete(begin, end Position) {
	if f.Delete != nil {
		f.Delete(begin, end)
	}
}

func (f ListenerFuncs) OnTagChanged(begin, end Position) {
	if f.TagChanged != nil {
		f.TagChanged(begin, end)
	}
}

func (f ListenerFuncs) OnMarkSet(name string, old, pos Position) {
	if f.MarkSet != nil {
		f.MarkSet(name, old, pos)
	}
}
