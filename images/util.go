package images

import (
	"crypto/md5"
	"fmt"
)

// Checksum generates a deterministic checksum for a frame's geometry and pixels.
//
// Arguments:
// - f: The frame to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := Checksum(frame)
//	fmt.Printf("Frame checksum: %s\n", checksum)
//
// ```
func Checksum(f Frame) string {
	if len(f.Pix) == 0 {
		return "empty"
	}

	hash := md5.New()
	fmt.Fprintf(hash, "%dx%dx%d:", f.Width, f.Height, f.Channels)
	hash.Write(f.Pix)
	return fmt.Sprintf("%x", hash.Sum(nil))
}
