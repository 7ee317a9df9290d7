/*
Package light implements a Tendermint-style light client: a bandwidth and
compute constrained watcher of a Proof-of-Stake blockchain's consensus
process that verifies block headers without replaying transactions or
storing the whole chain.

A light client that has no strong trust relationship with any single node
can still get indisputable proof that a header is valid, or detect that a
node is lying to it, as long as it starts from a recent (within one
trusting period) validator set it trusts. This starting point is called
weak subjectivity: it is required because in Proof of Stake it is costless
for an attacker to buy up voting keys that are no longer bonded and fork
the network at some point in its prior history.

SignedHeader and LightBlock

A SignedHeader is a block header together with a Commit — enough
validator precommit signatures to prove its validity (more than two-thirds
of the voting power) given the validator set responsible for signing it. A
LightBlock additionally carries the current and next validator sets. The
hash of the next validator set is included and signed in the header, so
the client can trace arbitrary changes to the validator set: every change
must be approved by inclusion in a header and signed in its commit.

Verifier

Verifier checks a LightBlock against a trusted one. Two verification
strategies are supported: adjacent verification, which only trusts a
header whose height is exactly one more than the trusted header's, and
skipping verification, which accepts a gap in height as long as enough of
the trusted validator set's voting power also signed the new header. In
the worst case, with every block changing the validator set entirely, a
client falls back to adjacent verification at every height; in practice
skipping verification with bisection keeps the number of intermediate
headers small.

LightClient and Scheduler

LightClient drives verification toward a requested target height. When it
cannot go directly from its trusted height to the target, Scheduler picks
an intermediate height to try first — by default the midpoint — and the
client bisects recursively until every gap clears the overlap check.

ForkDetector and Supervisor

A single primary is not enough: a compromised or eclipsing primary could
feed the client a self-consistent but forked chain. ForkDetector
cross-checks the primary's verified blocks against a set of witnesses, and
Supervisor drives this process end to end — rotating away a primary that
fails to verify, rotating out a witness that is unreachable or behaves
inconsistently, and raising ErrForkDetected with the conflicting peers
once a genuine fork is confirmed, after submitting misbehavior evidence
for both sides of the fork.

LightStore

LightStore records, for every height the client has seen, the block and
its Status (Unverified, Verified, Trusted, or Failed — a terminal sink).
MemoryStore is the default in-process implementation; light/store/db
backs it with a persistent key-value store; CachingStore layers the two,
keeping recent heights in memory while writing through to a persistent
store of record.
*/
package light
