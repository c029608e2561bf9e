package track

import "errors"

// ErrInvalidID marks input that normalization could not reduce to a track id.
var ErrInvalidID = errors.New("invalid track identifier")
