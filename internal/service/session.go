package service

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// command is one unit of work for a match's queue. run is the only code
// that touches the match.
type command struct {
	run     func(m *conquest.Match) (any, error)
	mutates bool
	reply   chan commandReply
}

type commandReply struct {
	result any
	events []conquest.Event
	state  conquest.Snapshot
	err    error
}

// session owns one live match. Every command passes through cmds and is
// executed by the run goroutine, so the match never sees concurrent calls.
type session struct {
	id        string
	player    conquest.FactionID
	createdAt time.Time

	match *conquest.Match
	cmds  chan command

	lastActive atomic.Int64 // unix nanoseconds
	done       chan struct{}
	closeOnce  sync.Once
}

func newSession(id string, m *conquest.Match, now time.Time) *session {
	s := &session{
		id:        id,
		player:    m.Player(),
		createdAt: now,
		match:     m,
		cmds:      make(chan command),
		done:      make(chan struct{}),
	}
	s.touch(now)
	return s
}

// run executes queued commands until the session is closed. onChange is
// called, still on the queue goroutine, after every accepted mutating command.
func (s *session) run(onChange func(id string, events []conquest.Event, state conquest.Snapshot)) {
	for {
		select {
		case <-s.done:
			return
		case cmd := <-s.cmds:
			result, err := s.exec(cmd)
			r := commandReply{
				result: result,
				events: s.match.DrainEvents(),
				state:  s.match.Snapshot(),
				err:    err,
			}
			if err == nil && cmd.mutates {
				onChange(s.id, r.events, r.state)
			}
			cmd.reply <- r
		}
	}
}

// exec runs one command, turning a panic into an error so a faulty
// strategy cannot take the whole queue down.
func (s *session) exec(cmd command) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str("matchId", s.id).Interface("panic", p).Msg("Command panicked")
			err = fmt.Errorf("command panicked: %v", p)
		}
	}()
	return cmd.run(s.match)
}

func (s *session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

func (s *session) idleSince() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
