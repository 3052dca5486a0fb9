package cooknet

// Version is the release version, overridden at build time with
// -ldflags "-X github.com/aretw0/cooknet.Version=...".
var Version = "0.3.0-dev"
