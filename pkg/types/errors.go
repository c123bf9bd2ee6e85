package types

// ConstError is an error that can be declared as a constant and matched
// with errors.Is through any number of fmt.Errorf("...: %w") wrappers.
type ConstError string

func (err ConstError) Error() string { return string(err) }

const (
	// DeviceErr marks a host I/O failure reading or writing the backing
	// image. Never retried; surfaced to the caller.
	DeviceErr ConstError = "device i/o failure"

	// CorruptImageErr marks a magic/version/geometry mismatch while
	// opening or decoding an image.
	CorruptImageErr ConstError = "corrupt image"

	// CapacityExceededErr marks a structural overflow: the bitmap, the
	// inode table, the directory, or a file's block list would not fit on
	// disk. Raised at sync time, never at the in-memory write that caused
	// the overage.
	CapacityExceededErr ConstError = "capacity exceeded"

	NotFoundErr      ConstError = "not found"
	AlreadyExistsErr ConstError = "already exists"

	// InvalidHandleErr marks an operation on a handle whose inode slot
	// was freed by another path.
	InvalidHandleErr ConstError = "invalid handle"

	NameTooLongErr ConstError = "name too long"
)
