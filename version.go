package schemagate

// Version is the release version. Overridden at build time with
// -ldflags "-X github.com/aretw0/schemagate.Version=...".
var Version = "0.1.0-dev"
