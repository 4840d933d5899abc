package domain

// Participant is a user currently admitted into a room.
type Participant struct {
	UserID   UserID `json:"userId"`
	Username string `json:"username"`
}

// JoinRequest is a pending admission request awaiting moderator action.
// Arrival order is the position in the room session's request list.
type JoinRequest struct {
	UserID   UserID `json:"userId"`
	Username string `json:"username"`
}
