// Package lotteryengine implements the daily lottery inside the draw-core
// context.
//
// The module owns ballot submission (participant and lottery resolve-or-create
// plus ballot insertion as one transaction), upcoming lottery reads, the
// nightly winner selection, and winning ballot lookups. Participants are
// identified by an encrypted email with a deterministic search hash and are
// shown publicly only through a random alias. Business rules stay in the
// application/domain layers; storage, transport, and crypto sit behind ports
// and adapters.
package lotteryengine
