package types

// Version is the canonical project version, shared by the library and the
// CLI binary.
const Version = "0.1.0"
