package types

// Client -> Server (every op is acked directly to the caller)
//
// register:
//   credential: string   // opaque; doubles as stable id for anonymous play
//   name: string
//
// list-rooms: {}
//
// create:
//   roomName: string
//   visibility: "open" | "invite-code" | "link-only"
//   maxPlayers: number
//   answerTimeSec: number
//   penaltySec: number
//   colors: { team1: "#RRGGBB", team2: "#RRGGBB" }
//
// join:
//   roomId: string
//   joinCode: string     // required for invite-code rooms
//
// leave: {}
//
// assign-team:
//   targetId: string     // defaults to self; leader may move anyone
//   team: "team1" | "team2"
//
// randomize-teams: {}    // leader only; leader stays unassigned
//
// start: {}              // leader only; both teams non-empty
//
// shuffle-letters: {}    // leader only; lobby phase only
//
// set-colors:
//   colors: { team1: "#RRGGBB", team2: "#RRGGBB" }
//
// claim-cell:
//   cellId: "row-col"    // inner cells only; first claim wins permanently

// Server -> Client
//
// Ack (type == "ack"):
//   op: string
//   success: boolean
//   errorKind: "not-found" | "conflict" | "forbidden" | "invalid-input" | "upstream-unavailable"
//   error: string
//   player / room / game / rooms: payload depending on op
//
// Events (type == event name, body in payload):
//   participant-joined: RosterEntry
//   participant-left:   { id }
//   leader-changed:     { leaderId }
//   roster-updated:     { roster, teams }
//   game-state:         GameSnapshot (full, sent on join and start)
//   cell-claimed:       { cell, scores }
//   game-finished:      { winner?, draw?, scores }
//   colors-changed:     { team1, team2 }
//   letters-shuffled:   GameSnapshot
