package component

// Input stores one frame of polled input, expressed in key codes so the
// controller never sees host key types.
type Input struct {
	Pressed  []string
	Released []string
	DX       float64
	DY       float64

	Click    bool
	Escape   bool
	Interact bool
	Talk     bool
	Close    bool

	// Captured is the host's pointer capture as observed this frame.
	Captured bool
}

func (i *Input) Reset() {
	captured := i.Captured
	*i = Input{Pressed: i.Pressed[:0], Released: i.Released[:0], Captured: captured}
}

var InputComponent = NewComponent[Input]()
