/*
Package exdyn is the dynamic execution-extension loading layer of a node:
it discovers independently compiled extension artifacts on disk, maps them
into the running process with [goloader], resolves each artifact's single
well-known entrypoint symbol and reconstitutes it into a typed, staged task
that an external scheduler polls to completion.

# Boundary

Host and extension are compiled independently and share nothing but the
entrypoint symbol's name and erased shape. An extension's build erases its
startup function into the fixed [Entrypoint] form and exports it as
[EntrypointName] from its main package; the host fetches the symbol address
and reclaims it exactly once through a [Handle] into a callable function
value. The context handed across carries only erased capabilities (see
[ContextDyn]): a [ChainSpec] interface instead of a concrete chain type.

# Residency

A linked artifact is never unloaded. The task returned from a launch keeps
executing code that physically lives inside the mapped artifact, so the
loader registers every linked module in process-wide state with no teardown
hook other than process exit. Dropping a [Task] is always safe; freeing its
library is not, and no API for it exists.

# Steps

 1. [Discover] an extension directory into (identifier, path) entries.
 2. [NewLoader] once per process.
 3. [Launch] each entry with its per-extension [Context], or [LaunchAll].
 4. Hand the returned tasks to the scheduler; consume the [EventReceiver].

# Compile tool

Extension sources are compiled into loadable artifacts by the compile tool:

	go install github.com/0xurb/exdyn/compile@latest

It also generates the entrypoint shim from an author's function (`export`
subcommand), inspects an artifact's imports and prepares the go sdk for
object compilation. See `compile -h`.

# Notes

 1. Extension code runs in-process with no isolation boundary. A fault in
    it is a fault of the host; the loader does not recover panics raised
    by an entrypoint.
 2. A fetched symbol must be reclaimed and cast directly; the cast result
    is safe to call multiple times, the [Handle] may be reclaimed once.

[goloader]: https://github.com/pkujhd/goloader
*/
package exdyn
