// Package plugin loads the handler plugins named in the configuration.
//
// Plugins are Go packages compiled into the binary. Each one calls Register
// from its init function, and the hub binary blank-imports the plugins it
// ships. The configuration then selects which of them run and in which
// order, handing each its own opaque config blob.
//
// Loading is failure tolerant: an unknown name, an Init error or a panic is
// logged and the loader moves on to the next entry. Registrations a plugin
// made before failing stay in effect. AsyncInit functions run in the
// background and their failures are logged only.
package plugin
