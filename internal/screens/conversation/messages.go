package conversation

import (
	"github.com/abhisek/tutorchat/internal/chat"
)

// openedMsg is sent when the opener (topic or saved chat) has answered.
type openedMsg struct {
	Events []chat.Event
	Err    error
}

// replyMsg is sent when a sent message or subtopic request has answered.
type replyMsg struct {
	Events []chat.Event
	Err    error
}

// savedMsg is sent once the transcript was saved on the way out.
type savedMsg struct {
	Events []chat.Event
	Err    error
}

// revealTickMsg advances the typing reveal of generation Gen.
type revealTickMsg struct {
	Gen int
}
