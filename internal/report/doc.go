// Package report handles reading and writing of change reports. A report
// records every registry edit made (or, in a dry run, planned) by one
// invocation, so the rewrite can be reviewed or audited later.
package report
