package sfs

import "github.com/chzyer/logex"

// ErrInumberOutOfRange is a logex sentinel, traced at the point it's
// detected so a failure carries a call-site stack by the time it
// reaches the caller.
//
// Format and Mount preconditions (bad magic, bad block/inode-block
// counts, already-mounted) are representable as their documented
// sentinel returns (false from Format, a nil handle from Mount) and
// don't need error values of their own;
// only a bounds violation on an inumber, which several internal call
// sites need to distinguish from other failures via logex.Equal, gets
// one.
var ErrInumberOutOfRange = logex.Define("sfs: inumber out of range")
