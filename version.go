package gamesession

// Version is overwritten at build time with -ldflags "-X github.com/aretw0/gamesession.Version=...".
var Version = "dev"
