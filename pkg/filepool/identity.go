package filepool

// SampleIdentity is the immutable (filename, reversed) pair a voice uses
// to refer to a sample. Equality and map-key hashing are both over both
// fields, which a plain comparable struct gives for free. Filename is
// normalised by the PathResolver at registration time.
type SampleIdentity struct {
	Filename string
	Reversed bool
}

// String renders the identity for logging.
func (id SampleIdentity) String() string {
	if id.Reversed {
		return id.Filename + " (reversed)"
	}
	return id.Filename
}
