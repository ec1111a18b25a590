/*
Package multisig implements a quorum gated authorization contract.

A Contract holds a set of owners and a threshold. Any owner may propose
the execution of one or more instructions by creating a Proposal; the
proposer's approval is recorded right away. Other owners add their
approvals and, once the threshold is reached, any owner can trigger
execution. Execution hands the instructions one by one to a Bridge,
substituting the contract's own condition as an authorizing signer
wherever an instruction parameter references it. Any owner can cancel
a pending proposal, no matter how many approvals it collected.

The owner set and the threshold of a contract are themselves only
changeable through this pipeline: the messages mutating a contract
demand the contract's own condition, and only the execute path puts
that condition into the request context. A contract therefore governs
itself, and every membership change bumps the contract's owner set
sequence number, which invalidates all proposals created under the
previous owner set (their positional approvals are meaningless after
the owners changed). Stale proposals cannot be approved or executed
anymore, only cancelled.
*/
package multisig
