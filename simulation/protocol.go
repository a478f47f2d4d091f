package simulation

import (
	"github.com/prestonhale/battista/gridworld"
	"github.com/prestonhale/battista/player"
)

// RequestKind tags a Request as one of the two message variants the
// simulation loop accepts. Go has no native sum type; this is the
// tagged-struct rendition of the source's MapRequest enum, with unused
// fields left zero rather than splitting into two incompatible channel
// types, so a single bounded channel can carry both.
type RequestKind int

const (
	RegisterPlayerRequest RequestKind = iota
	PlayerInputRequest
)

// Request is one message crossing from a network task into the simulation
// loop.
type Request struct {
	Kind   RequestKind
	UserID string
	Inputs player.Inputs
	// Reply is non-nil only for RegisterPlayerRequest; it is the one-shot
	// channel the HTTP handler awaits before returning its JSON body.
	Reply chan RegisterResponse
}

// RegisterResponse is the one-shot reply to a RegisterPlayerRequest.
type RegisterResponse struct {
	Coords        gridworld.Coords
	ExploredCells []byte
	Width         int
	Height        int
}

// NewRegisterPlayer builds a RegisterPlayerRequest and the reply channel
// the caller should receive on.
func NewRegisterPlayer(userID string) (Request, <-chan RegisterResponse) {
	reply := make(chan RegisterResponse, 1)
	return Request{Kind: RegisterPlayerRequest, UserID: userID, Reply: reply}, reply
}

// NewPlayerInput builds a fire-and-forget PlayerInputRequest.
func NewPlayerInput(userID string, in player.Inputs) Request {
	return Request{Kind: PlayerInputRequest, UserID: userID, Inputs: in}
}
