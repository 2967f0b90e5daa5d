// Package compression provides the codecs used to store post content at rest.
package compression

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// ForName returns the compressor selected in the config. Unknown names fall
// back to zstd.
func ForName(name string) Compressor {
	switch name {
	case "gzip":
		return GzipCompressor{}
	default:
		return ZstdCompressor{}
	}
}
