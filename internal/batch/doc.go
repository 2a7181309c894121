// Package batch schedules script generation across a set of inputs.
//
// A run has three phases. Inputs are discovered, classified and assigned
// script paths sequentially. Containers are then probed in parallel, and
// only after every probe has finished are chapter groups linked. Finally
// groups are generated in parallel while the segments inside a group are
// prepared in play order, so an overwrite decision made for the first
// segment covers the rest.
//
// Per-file failures are recorded in the Summary and never stop the run.
package batch
