package outputs

// Transform is the compositor-reported orientation correction that
// must be applied to a captured buffer before it is canonical. The
// eight values are not two independent flip/rotate booleans: flipping
// then rotating produces a different image than rotating then
// flipping, so every composite case gets its own named value.
type Transform int

const (
	TransformNormal Transform = iota
	TransformRotate90
	TransformRotate180
	TransformRotate270
	TransformFlipped
	TransformFlipped90
	TransformFlipped180
	TransformFlipped270
)

func (t Transform) String() string {
	switch t {
	case TransformNormal:
		return "normal"
	case TransformRotate90:
		return "90"
	case TransformRotate180:
		return "180"
	case TransformRotate270:
		return "270"
	case TransformFlipped:
		return "flipped"
	case TransformFlipped90:
		return "flipped-90"
	case TransformFlipped180:
		return "flipped-180"
	case TransformFlipped270:
		return "flipped-270"
	default:
		return "unknown"
	}
}

// SwapsDimensions reports whether this transform exchanges width and
// height, as the 90/270-degree rotations (plain or flipped) do.
func (t Transform) SwapsDimensions() bool {
	switch t {
	case TransformRotate90, TransformRotate270, TransformFlipped90, TransformFlipped270:
		return true
	default:
		return false
	}
}

// TransformFromWire maps the wl_output.transform wire value to a
// Transform. Unknown values fall back to TransformNormal.
func TransformFromWire(v int32) Transform {
	switch v {
	case 0:
		return TransformNormal
	case 1:
		return TransformRotate90
	case 2:
		return TransformRotate180
	case 3:
		return TransformRotate270
	case 4:
		return TransformFlipped
	case 5:
		return TransformFlipped90
	case 6:
		return TransformFlipped180
	case 7:
		return TransformFlipped270
	default:
		return TransformNormal
	}
}
