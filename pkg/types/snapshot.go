package types

// RoomSnapshot:
//   id: string           // 6-char code
//   name: string
//   visibility: "open" | "invite-code" | "link-only"
//   joinCode: string     // invite-code rooms only
//   leaderId: string
//   maxPlayers: number
//   answerTimeSec: number
//   penaltySec: number
//   colors: { team1, team2 }
//   roster: [{ id, name, team?, isLeader }]   // join order
//   teams: { team1: [id], team2: [id] }
//   game: GameSnapshot
//
// GameSnapshot:
//   status: "waiting" | "active" | "finished"
//   grid: { "row-col": { id, row, col, kind, letter?, points?, owner?, claimedBy?, claimedAt? } }
//   scores: { team1, team2 }
//   startedAt / endedAt: timestamps
//   winner: "team1" | "team2" | absent on draw
