package tinystm

/*
TinySTM is a software transactional memory for Go intended for teaching and experimentation. It implements TL2
(Transactional Locking 2): transactions read and write versioned registers optimistically, then lock what they wrote,
validate what they read against a global version clock, and publish atomically at commit.

Building TinySTM produces two executables: stm-server and stm-bench. The first shares one transactional dictionary
over HTTP, the second runs the demos (a register swap, a concurrent word fill, an interactive shell) against it.

The `tinystm` module is organized into the following packages:

* `stm`: registers, transactions, the global clock and the retry loop.
* `dict`: an ordered string set stored as a trie whose every edge is a register, plus a mutex-guarded baseline.
* `util/worker`: a fixed-size worker pool over an unbounded queue.
* `config`: TOML and command line configuration shared by both executables.
* `server`: the HTTP front end; `server/api` holds its routes.
* `bench`: word generation, the fill runner, latency measurement and report rendering.
*/
