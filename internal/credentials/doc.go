// Package credentials supplies the publish destination, including the login
// secrets, to the publish step.
//
// A Provider is selected once at startup. Static returns what the
// configuration file, flags and environment produced. Interactive asks for
// the missing pieces in a small terminal form built on bubbletea, with the
// password field masked. The provider is consulted only when there is
// something to publish, so a run in which every source failed never prompts.
package credentials
