// Package photoflat flattens a nested photo tree into a single-level
// directory of hardlinks.
//
// Every leaf directory of the source tree (one that holds files, or has no
// eligible subdirectories left after exclusions) becomes one directory under
// the target, named by joining its path segments relative to the source with
// a separator:
//
//	src/2020/01/photo.jpg  ->  target/2020 = 01/photo.jpg
//
// Files are hardlinked, so the target costs no extra space and must live on
// the same filesystem as the source.
//
// Two operations exist. A Cleaner empties the target except for excluded
// directory names. A Flattener always cleans first and then rebuilds the
// link tree. Either one is wrapped by a Job, which reports start and finish
// status lines to a Sink, honors cooperative cancellation through a
// context.Context, and can run on its own goroutine.
package photoflat
