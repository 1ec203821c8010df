// Package steward drives kolla-ansible runs and decides whether a failed run
// may be continued past unreachable hosts.
package steward

// Version is the steward release version.
var Version = "0.3.0"
