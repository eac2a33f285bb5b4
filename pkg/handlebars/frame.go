package handlebars

// Frame is one scope of a render: the current context, the enclosing frame
// and the root frame of the render. Every frame of a render shares the same
// root, including frames pushed for partials.
type Frame struct {
	current any
	parent  *Frame
	root    *Frame
	data    map[string]any
}

// NewRootFrame creates the outermost frame of a render. Its root is itself.
func NewRootFrame(model any) *Frame {
	f := &Frame{current: model}
	f.root = f
	return f
}

// Push returns a child frame whose context is value.
func (f *Frame) Push(value any) *Frame {
	return &Frame{
		current: value,
		parent:  f,
		root:    f.root,
		data:    f.data,
	}
}

// PushIteration returns a child frame for element index of an iteration over
// count elements, exposing @index, @first and @last.
func (f *Frame) PushIteration(value any, index, count int) *Frame {
	child := f.Push(value)
	child.data = map[string]any{
		"index": index,
		"first": index == 0,
		"last":  index == count-1,
	}
	return child
}

// Current returns the frame's context value ("this").
func (f *Frame) Current() any {
	return f.current
}

// Parent returns the enclosing frame, or nil for the root frame.
func (f *Frame) Parent() *Frame {
	return f.parent
}

// Root returns the root frame of the render.
func (f *Frame) Root() *Frame {
	return f.root
}

// Ancestor returns the frame depth levels up, or nil when the chain is
// shorter than that.
func (f *Frame) Ancestor(depth int) *Frame {
	frame := f
	for i := 0; i < depth && frame != nil; i++ {
		frame = frame.parent
	}
	return frame
}

// Data returns the data variable called name, as in {{@index}}.
func (f *Frame) Data(name string) (any, bool) {
	if name == "root" {
		return f.root.current, true
	}
	v, ok := f.data[name]
	return v, ok
}

// Depth returns the number of frames between f and the root frame.
func (f *Frame) Depth() int {
	depth := 0
	for frame := f.parent; frame != nil; frame = frame.parent {
		depth++
	}
	return depth
}
