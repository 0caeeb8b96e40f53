// Package tasks owns the provisioning recipes exposed by the devsum CLI.
//
// Ownership boundary:
// - task metadata and argument contracts
//
// - task registry and dispatch
//
// - built-in recipes: release installs, workstation bootstrap, cloud
//   accounts, remote diagnostics, agent installs, source validation
package tasks
